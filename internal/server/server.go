// Package server exposes the sync job over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pders01/feedsync/internal/syncer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	readTimeout     = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Job is one sync run.
type Job interface {
	Run(ctx context.Context) (*syncer.Result, error)
}

// Server triggers a run for every request on /. Runs are serialized: a
// request arriving during a run waits for it to finish.
type Server struct {
	router *gin.Engine
	server *http.Server
	job    Job
	logger *zap.Logger
	mu     sync.Mutex
}

// New builds the router. gatherer backs /metrics; nil uses the default
// Prometheus registry.
func New(addr string, job Job, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	s := &Server{
		router: router,
		job:    job,
		logger: logger,
	}

	router.GET("/", s.handleRun)
	router.POST("/", s.handleRun)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	s.server = &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: readTimeout,
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleRun(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A client that goes away must not cut a run short.
	result, err := s.job.Run(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		s.logger.Error("run failed", zap.Error(err))
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	if failErr := result.Err(); failErr != nil {
		s.logger.Warn("run finished with failures", zap.String("summary", result.String()), zap.Error(failErr))
	}
	c.String(http.StatusOK, "Done !")
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
