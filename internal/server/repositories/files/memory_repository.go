package files

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// MemoryRepository keeps the ledger in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.File
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[int64]models.File)}
}

func (r *MemoryRepository) Create(_ context.Context, file *models.File) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.byID {
		if f.StorageName == file.StorageName {
			return nil, &common.DuplicateError{Field: "storage_name"}
		}
	}

	r.nextID++
	file.ID = r.nextID
	file.CreatedAt = time.Now().UTC()
	r.byID[file.ID] = *file

	return file, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &f, nil
}

// GetByIDForUpdate is GetByID; callers serialize through the manager's WithTx.
func (r *MemoryRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.File, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID int64, skip, limit int) ([]*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := []*models.File{}
	for _, f := range r.byID {
		if f.OwnerID == ownerID {
			f := f
			owned = append(owned, &f)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })

	if skip >= len(owned) {
		return []*models.File{}, nil
	}
	owned = owned[skip:]
	if limit < len(owned) {
		owned = owned[:limit]
	}
	return owned, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}
