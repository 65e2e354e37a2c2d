// Package repomanager vends the repositories used by the services, bound
// either to PostgreSQL or to process memory.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
)

// Repositories groups the repositories bound to one handle: the connection
// pool, or a single transaction inside WithTx.
type Repositories interface {
	Users() users.Repository
	Files() files.Repository
}

// RepositoryManager owns the storage handle behind Repositories.
type RepositoryManager interface {
	Repositories

	// WithTx runs fn against repositories bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
