// Package httpserver assembles the root HTTP handler and runs the server.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"

	"portfolio/internal/config"
	"portfolio/internal/handler"
	"portfolio/internal/metrics"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
)

// NewHandler mounts every route on a goa muxer and wraps it in the
// middleware chain: request id, security headers, CORS, logging, metrics and
// panic recovery.
func NewHandler(cfg *config.Config, h *handler.Handler, log *zap.Logger) http.Handler {
	mux := goahttp.NewMuxer()
	h.Mount(mux)

	uploadPrefix := strings.TrimSuffix(cfg.Uploads.URLPrefix, "/")
	mux.Handle("GET", "/static/{*filepath}", fileServer("/static/", cfg.App.StaticDir).ServeHTTP)
	mux.Handle("GET", uploadPrefix+"/{*filepath}", fileServer(uploadPrefix+"/", cfg.Uploads.Dir).ServeHTTP)
	mux.Handle("GET", "/metrics", promhttp.Handler().ServeHTTP)

	// Anything unmatched gets the 404 page
	mux.Handle("GET", "/{*path}", h.NotFound)
	mux.Handle("POST", "/{*path}", h.NotFound)

	var root http.Handler = mux
	root = recoverer(root, log, h.ServerError)
	root = metrics.PrometheusMiddleware(root)
	root = requestLogging(root, log, cfg.App.TrustedProxies)
	root = cors(root, cfg)
	root = securityHeaders(root, cfg)
	root = middleware.PopulateRequestContext()(root)
	root = middleware.RequestID(middleware.UseXRequestIDHeaderOption(true))(root)
	return root
}

// Server wraps http.Server with graceful shutdown
type Server struct {
	http *http.Server
	log  *zap.Logger
}

// New creates a server listening on the configured host and port
func New(cfg *config.Config, root http.Handler, log *zap.Logger) *Server {
	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      root,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
			ErrorLog:     zap.NewStdLog(log.Named("http")),
		},
		log: log,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		s.log.Info("starting graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.log.Error("error during graceful shutdown", zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			s.log.Warn("shutdown timeout exceeded, forcing close")
			_ = s.http.Close()
		}
		return err
	}
	s.log.Info("server shutdown complete")
	return nil
}
