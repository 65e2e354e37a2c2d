package repomanager

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepositoryManager(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()

	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.Ping(ctx))

	u, err := m.Users().Create(ctx, &models.User{UserName: "alice", Email: "alice@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	err = m.WithTx(ctx, func(ctx context.Context, repos Repositories) error {
		got, err := repos.Users().GetByID(ctx, u.ID)
		if err != nil {
			return err
		}
		_, err = repos.Files().Create(ctx, &models.File{OwnerID: got.ID, StorageName: "x.txt"})
		return err
	})
	require.NoError(t, err)

	list, err := m.Files().ListByOwner(ctx, u.ID, 0, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	boom := errors.New("boom")
	assert.ErrorIs(t, m.WithTx(ctx, func(context.Context, Repositories) error { return boom }), boom)

	require.NoError(t, m.Close())
}
