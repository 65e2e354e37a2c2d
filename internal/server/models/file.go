package models

import "time"

// File is a ledger record for one stored object.
type File struct {
	ID int64 `db:"id"`
	// OwnerID is the only user allowed to read or delete the file.
	OwnerID int64 `db:"owner_id"`

	// StorageName is the generated object name (uuid plus extension). It
	// never contains any part of OriginalName except the extension.
	StorageName string `db:"storage_name"`
	// OriginalName is the sanitized client-supplied file name.
	OriginalName string `db:"original_name"`
	ContentType  string `db:"content_type"`
	Size         int64  `db:"size_bytes"`

	CreatedAt time.Time `db:"created_at"`
}
