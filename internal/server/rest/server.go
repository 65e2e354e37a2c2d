// Package rest exposes the user and file services over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Options carries the HTTP-level settings.
type Options struct {
	// AuthRateLimit is requests per minute per client on /auth; 0 disables.
	AuthRateLimit int
	// MaxFileSize bounds the multipart body of an upload.
	MaxFileSize int64
}

type HTTPServer struct {
	address string
	users   *services.UserService
	files   *services.FileService
	guard   *auth.Guard
	logger  logging.Logger
	options Options
	engine  *gin.Engine
}

func NewHTTPServer(a string, l logging.Logger, us *services.UserService, fs *services.FileService, guard *auth.Guard, o Options) *HTTPServer {
	s := &HTTPServer{
		address: a,
		logger:  l.With("module", "http_server"),
		users:   us,
		files:   fs,
		guard:   guard,
		options: o,
	}
	s.engine = s.routes()
	return s
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), s.accessLog(), gin.Recovery())

	r.GET("/health", s.health)

	authGroup := r.Group("/auth")
	if s.options.AuthRateLimit > 0 {
		authGroup.Use(newClientLimiter(s.options.AuthRateLimit, time.Minute).middleware())
	}
	authGroup.POST("/signup", s.signup)
	authGroup.POST("/login", s.login)
	authGroup.GET("/me", s.requireAuth, s.me)

	fileGroup := r.Group("/file", s.requireAuth)
	fileGroup.POST("/upload", s.upload)
	fileGroup.GET("/", s.listFiles)
	fileGroup.GET("/:id", s.getFile)
	fileGroup.GET("/download/:id", s.download)
	fileGroup.DELETE("/:id", s.deleteFile)

	return r
}

// Handler returns the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
