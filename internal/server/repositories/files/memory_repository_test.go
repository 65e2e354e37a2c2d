package files

import (
	"context"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	for i := 0; i < 5; i++ {
		owner := int64(1)
		if i%2 == 1 {
			owner = 2
		}
		_, err := repo.Create(ctx, &models.File{OwnerID: owner, StorageName: fmt.Sprintf("s%d.txt", i), OriginalName: "a.txt"})
		require.NoError(t, err)
	}

	_, err := repo.Create(ctx, &models.File{OwnerID: 1, StorageName: "s0.txt"})
	assert.ErrorIs(t, err, common.ErrorDuplicate)

	owned, err := repo.ListByOwner(ctx, 1, 0, 100)
	require.NoError(t, err)
	require.Len(t, owned, 3)
	assert.Equal(t, []int64{1, 3, 5}, []int64{owned[0].ID, owned[1].ID, owned[2].ID})

	page, err := repo.ListByOwner(ctx, 1, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(3), page[0].ID)

	empty, err := repo.ListByOwner(ctx, 1, 10, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	f, err := repo.GetByIDForUpdate(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.OwnerID)

	require.NoError(t, repo.Delete(ctx, 2))
	_, err = repo.GetByID(ctx, 2)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 2), common.ErrorNotFound)
}
