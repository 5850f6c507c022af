package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"coinpulse/internal/config"
	"coinpulse/internal/httpx"
	"coinpulse/internal/logging"
	"coinpulse/internal/metrics"
	"coinpulse/internal/provider"
	"coinpulse/internal/provider/coingecko"
	"coinpulse/internal/provider/instrument"
	"coinpulse/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	srv, err := newServer(cfg, log)
	if err != nil {
		return err
	}

	log.Info("starting coinpulse",
		zap.Strings("ids", cfg.CoinGecko.IDs),
		zap.String("upstream", cfg.CoinGecko.BaseURL),
		zap.String("static_dir", cfg.Server.StaticDir),
	)

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, cfg.Server.Addr)
}

func newServer(cfg config.Config, log *zap.Logger) (*server.Server, error) {
	client, err := coingecko.NewClient(
		coingecko.WithBaseURL(cfg.CoinGecko.BaseURL),
		coingecko.WithHTTPClient(httpx.New(cfg.Server.RequestTimeout())),
		coingecko.WithDemoAPIKey(cfg.CoinGecko.APIKey),
		coingecko.WithLogger(log.Named("coingecko")),
		coingecko.WithBodyLogging(cfg.Log.UpstreamBody),
	)
	if err != nil {
		return nil, fmt.Errorf("coingecko client: %w", err)
	}

	m := metrics.New()
	var p provider.Provider = &instrument.Provider{P: client, Metrics: m}

	return server.New(server.Config{
		Assets:       cfg.CoinGecko.IDs,
		StaticDir:    cfg.Server.StaticDir,
		FetchTimeout: cfg.Server.RequestTimeout(),
	}, p, log, m), nil
}
