package fermprofile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/TYPOWERS/fermprofile/internal/adapters/cache"
	"github.com/TYPOWERS/fermprofile/internal/adapters/httpapi"
)

// Server exposes an Analyzer over HTTP: the profile API on http.addr and, when
// it differs, a metrics-only listener on metrics.addr.
type Server struct {
	analyzer   *Analyzer
	handler    http.Handler
	apiSrv     *http.Server
	metricsSrv *http.Server
}

// NewServer builds the HTTP handler around a.
func NewServer(a *Analyzer) (*Server, error) {
	if a == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	c, err := cache.New(a.cfg.HTTP.CacheSize)
	if err != nil {
		return nil, err
	}

	opts := httpapi.Options{
		Analyzer:  a.core,
		Cache:     c,
		Obs:       a.obs,
		AccessLog: logrus.StandardLogger().WriterLevel(logrus.InfoLevel),
	}
	if a.store != nil {
		opts.Store = a.store
	}
	return &Server{analyzer: a, handler: httpapi.NewHandler(opts)}, nil
}

// Handler returns the routed handler for embedding in another server.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.analyzer.cfg
	s.apiSrv = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.Metrics.Addr != "" && cfg.Metrics.Addr != cfg.HTTP.Addr {
		s.startMetrics(cfg.Metrics.Addr)
	}

	errCh := make(chan error, 1)
	go func() {
		s.analyzer.obs.LogInfo("api listening", Field{Key: "addr", Value: cfg.HTTP.Addr})
		if err := s.apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	for _, srv := range []*http.Server{s.apiSrv, s.metricsSrv} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) startMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.metricsSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.analyzer.obs.LogError("metrics server exited", err)
		}
	}()
}
