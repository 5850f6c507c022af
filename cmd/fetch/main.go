package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"coinpulse/internal/config"
	"coinpulse/internal/httpx"
	"coinpulse/internal/logging"
	"coinpulse/internal/provider"
	"coinpulse/internal/provider/coingecko"
	"coinpulse/internal/quote"
)

func main() {
	var idsCSV string
	var timeout int
	var configPath string
	var verbose bool

	flag.StringVar(&idsCSV, "ids", "", "comma-separated CoinGecko ids (default: configured ids)")
	flag.IntVar(&timeout, "timeout", 0, "request timeout seconds (default: configured timeout)")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config file (optional)")
	flag.BoolVar(&verbose, "v", false, "log the raw upstream response to stderr")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if ids := splitCSV(idsCSV); len(ids) > 0 {
		cfg.CoinGecko.IDs = ids
	}
	if timeout > 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}
	if verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Format = "console"
		cfg.Log.UpstreamBody = true
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log, os.Stdout); err != nil {
		log.Error("fetch failed", zap.String("outcome", provider.Outcome(err)), zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger, out io.Writer) error {
	client, err := coingecko.NewClient(
		coingecko.WithBaseURL(cfg.CoinGecko.BaseURL),
		coingecko.WithHTTPClient(httpx.New(cfg.Server.RequestTimeout())),
		coingecko.WithDemoAPIKey(cfg.CoinGecko.APIKey),
		coingecko.WithLogger(log),
		coingecko.WithBodyLogging(cfg.Log.UpstreamBody),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout())
	defer cancel()

	snap, err := client.SimplePrice(ctx, cfg.CoinGecko.IDs)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(quote.Format(snap), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
