// Package server serves the emotion map and its data over HTTP. Every
// route is read-only.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/emomap/internal/logger"
	"github.com/julianstephens/emomap/internal/storage"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	store  storage.Provider
	router *gin.Engine
}

func New(store storage.Provider, debug bool) *Server {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{store: store}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), securityHeaders(), readOnly())

	router.GET("/", s.index)
	router.GET("/healthz", s.health)

	api := router.Group("/api")
	{
		api.GET("/markers", s.markers)
		api.GET("/aggregates", s.aggregates)
		api.GET("/submissions", s.submissions)
		api.GET("/legend", s.legend)
		api.GET("/geojson", s.geojson)
	}

	s.router = router
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Map server listening", "addr", addr, "store", s.store.GetConfigPath())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down map server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
