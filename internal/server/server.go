package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"coinpulse/internal/metrics"
	"coinpulse/internal/provider"
)

// Config holds the HTTP surface settings.
type Config struct {
	// Assets is requested on every /api/crypto call. It is never mutated.
	Assets []provider.AssetID
	// StaticDir is served under /static/.
	StaticDir string
	// FetchTimeout bounds the upstream call of a single request. Zero disables it.
	FetchTimeout time.Duration
}

type Server struct {
	cfg      Config
	provider provider.Provider
	log      *zap.Logger
	metrics  *metrics.Metrics
	router   *mux.Router
}

func New(cfg Config, p provider.Provider, log *zap.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	cfg.Assets = append([]provider.AssetID(nil), cfg.Assets...)

	s := &Server{
		cfg:      cfg,
		provider: p,
		log:      log,
		metrics:  m,
		router:   mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(s.withRequestLog, s.withMetrics)

	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet, http.MethodHead)
	s.router.PathPrefix("/static/").
		Handler(http.StripPrefix("/static", staticHandler(s.cfg.StaticDir))).
		Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc("/api/crypto", s.handleCrypto).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return recoverPanic(s.log, s.router)
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.cfg.FetchTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
