package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
)

// InMemoryRepositoryManager serves repositories from process memory. Data
// is lost on exit; it backs the "memory" DSN and tests.
type InMemoryRepositoryManager struct {
	txMu  sync.Mutex
	users *users.MemoryRepository
	files *files.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users: users.NewMemoryRepository(),
		files: files.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) Users() users.Repository { return m.users }
func (m *InMemoryRepositoryManager) Files() files.Repository { return m.files }

// WithTx serializes fn against other WithTx calls. There is no rollback:
// writes made before fn fails stay applied.
func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *InMemoryRepositoryManager) Ping(context.Context) error          { return nil }
func (m *InMemoryRepositoryManager) Close() error                        { return nil }
