// Package storage holds the object stores behind uploaded files: a local
// directory or an S3-compatible bucket. Objects are addressed by the
// generated storage name only.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotExist is returned by Open and Delete when no object has the name.
var ErrNotExist = errors.New("storage object does not exist")

// Storage writes, reads and deletes whole objects.
type Storage interface {
	// Write stores everything read from r under name. When r fails the
	// partial object is discarded and r's error is returned wrapped.
	Write(ctx context.Context, name string, r io.Reader) (int64, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// checkName rejects names that could address anything but a single object
// in the store root.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("invalid storage name %q", name)
	}
	return nil
}
