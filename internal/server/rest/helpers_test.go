package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/dmitrijs2005/filevault/internal/server/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testMaxFileSize = 1024

type testServer struct {
	srv     *HTTPServer
	handler http.Handler
	tokens  *auth.TokenService
	repos   *repomanager.InMemoryRepositoryManager
}

func newTestServer(t *testing.T, opts ...func(*Options)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	disk, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	repos := repomanager.NewInMemoryRepositoryManager()
	tokens := auth.NewTokenService([]byte("test-secret"))
	log := logging.Nop{}

	us := services.NewUserService(repos, auth.NewPasswordHasher(bcrypt.MinCost), tokens, 30*time.Minute, log)
	fs := services.NewFileService(repos, disk,
		services.NewExtensionPolicy([]string{"txt", "pdf"}, []string{"exe"}), testMaxFileSize, log)

	o := Options{MaxFileSize: testMaxFileSize}
	for _, fn := range opts {
		fn(&o)
	}

	s := NewHTTPServer(":0", log, us, fs, auth.NewGuard(tokens), o)
	return &testServer{srv: s, handler: s.Handler(), tokens: tokens, repos: repos}
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func (ts *testServer) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.do(t, req)
}

func (ts *testServer) upload(t *testing.T, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/file/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.do(t, req)
}

// signupAndLogin registers name with email name@example.com and returns a token.
func (ts *testServer) signupAndLogin(t *testing.T, name string) string {
	t.Helper()
	email := name + "@example.com"
	password := "pw-" + name

	w := ts.doJSON(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.doJSON(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tok tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	return tok.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorResponse](t, w).Detail
}

func filePath(id int64) string {
	return fmt.Sprintf("/file/%d", id)
}

func itoa(id int64) string {
	return fmt.Sprintf("%d", id)
}

func testFile(ownerID int64, name string) *models.File {
	return &models.File{
		OwnerID:      ownerID,
		StorageName:  "missing-" + name,
		OriginalName: name,
		ContentType:  "text/plain",
		Size:         4,
	}
}
