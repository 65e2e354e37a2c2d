package files

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// Repository is the file ownership ledger. Lookups and Delete return
// common.ErrorNotFound when the id is unknown.
type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id int64) (*models.File, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.File, error)
	ListByOwner(ctx context.Context, ownerID int64, skip, limit int) ([]*models.File, error)
	Delete(ctx context.Context, id int64) error
}
