// Package server exposes the lecture-to-notes service over HTTP. Routes are
// served by gin; study material endpoints live under /api, operational
// endpoints (health, metrics) at the root next to the upload form.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/lectern/internal/feedback"
	"github.com/MrWong99/lectern/internal/generate"
	"github.com/MrWong99/lectern/internal/health"
	"github.com/MrWong99/lectern/internal/observe"
	"github.com/MrWong99/lectern/internal/pipeline"
	"github.com/MrWong99/lectern/internal/session"
)

const shutdownTimeout = 10 * time.Second

// Server wires sessions, the audio pipeline, study material generation and
// feedback into an HTTP API.
type Server struct {
	addr      string
	certFile  string
	keyFile   string
	maxBytes  int64
	sessions  *session.Store
	processor *pipeline.Processor
	generator generate.Generator
	feedback  *feedback.FileStore
	metrics   *observe.Metrics
	health    *health.Handler
}

// Option configures a [Server].
type Option func(*Server)

// WithTLS makes Run serve HTTPS with the given certificate pair.
func WithTLS(certFile, keyFile string) Option {
	return func(s *Server) {
		s.certFile = certFile
		s.keyFile = keyFile
	}
}

// WithMaxUploadBytes caps the accepted request body size for audio uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithMetrics attaches request metrics. Without it the default metrics
// instance is used.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithHealthCheckers registers readiness checkers for /readyz.
func WithHealthCheckers(checkers ...health.Checker) Option {
	return func(s *Server) {
		s.health = health.New(checkers...)
	}
}

// New creates a Server listening on addr.
func New(addr string, sessions *session.Store, processor *pipeline.Processor, generator generate.Generator, fb *feedback.FileStore, opts ...Option) *Server {
	s := &Server{
		addr:      addr,
		maxBytes:  25 << 20,
		sessions:  sessions,
		processor: processor,
		generator: generator,
		feedback:  fb,
		health:    health.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.metrics != nil {
		r.Use(observe.Middleware(s.metrics))
	}

	r.GET("/", s.index)
	s.health.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/sessions", s.createSession)
	api.GET("/sessions/:id", s.getSession)
	api.DELETE("/sessions/:id", s.deleteSession)
	api.POST("/sessions/:id/audio", s.uploadAudio)
	api.POST("/sessions/:id/quiz", s.makeQuiz)
	api.POST("/sessions/:id/flashcards", s.makeFlashcards)
	api.POST("/feedback", s.postFeedback)

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.certFile != "" && s.keyFile != "" {
			slog.Info("https server listening", "addr", s.addr)
			err = srv.ListenAndServeTLS(s.certFile, s.keyFile)
		} else {
			slog.Info("http server listening", "addr", s.addr)
			err = srv.ListenAndServe()
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
