package users

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// Repository persists users. Lookups return common.ErrorNotFound when no row
// matches; Create returns *common.DuplicateError when a unique field collides.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, userName string) (*models.User, error)
}
