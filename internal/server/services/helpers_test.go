package services

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
	"github.com/dmitrijs2005/filevault/internal/server/storage"
	"golang.org/x/crypto/bcrypt"
)

// --- storage fake ---

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	writeErr  error
	deleteErr error
	openErr   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Write(_ context.Context, name string, r io.Reader) (int64, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return n, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[name] = buf.Bytes()
	return n, nil
}

func (f *fakeStorage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[name]
	if !ok {
		return nil, storage.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeStorage) Delete(_ context.Context, name string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[name]; !ok {
		return storage.ErrNotExist
	}
	delete(f.objects, name)
	return nil
}

func (f *fakeStorage) has(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[name]
	return ok
}

func (f *fakeStorage) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// --- repository manager fake ---

// fakeManager wraps the in-memory manager and lets tests swap single
// repositories for failing ones.
type fakeManager struct {
	*repomanager.InMemoryRepositoryManager
	users users.Repository
	files files.Repository
}

func (m *fakeManager) Users() users.Repository {
	if m.users != nil {
		return m.users
	}
	return m.InMemoryRepositoryManager.Users()
}

func (m *fakeManager) Files() files.Repository {
	if m.files != nil {
		return m.files
	}
	return m.InMemoryRepositoryManager.Files()
}

func (m *fakeManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos repomanager.Repositories) error) error {
	return m.InMemoryRepositoryManager.WithTx(ctx, func(ctx context.Context, _ repomanager.Repositories) error {
		return fn(ctx, m)
	})
}

// failingFiles fails the selected operations and delegates the rest.
type failingFiles struct {
	files.Repository
	createErr error
	deleteErr error
	getErr    error
}

func (f *failingFiles) Create(ctx context.Context, file *models.File) (*models.File, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.Repository.Create(ctx, file)
}

func (f *failingFiles) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Repository.Delete(ctx, id)
}

func (f *failingFiles) GetByID(ctx context.Context, id int64) (*models.File, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Repository.GetByID(ctx, id)
}

// --- service construction ---

const testSecret = "test-secret"

type testEnv struct {
	manager *fakeManager
	storage *fakeStorage
	tokens  *auth.TokenService
	users   *UserService
	files   *FileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	m := &fakeManager{InMemoryRepositoryManager: repomanager.NewInMemoryRepositoryManager()}
	st := newFakeStorage()
	tokens := auth.NewTokenService([]byte(testSecret))
	log := logging.Nop{}

	return &testEnv{
		manager: m,
		storage: st,
		tokens:  tokens,
		users:   NewUserService(m, auth.NewPasswordHasher(bcrypt.MinCost), tokens, 30*time.Minute, log),
		files: NewFileService(m, st,
			NewExtensionPolicy([]string{"txt", "pdf", "bin"}, []string{"exe"}),
			1024, log),
	}
}

func (e *testEnv) mustRegister(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), name, name+"@x.com", "pw-"+name)
	if err != nil {
		t.Fatalf("Register(%s): %v", name, err)
	}
	return u
}
