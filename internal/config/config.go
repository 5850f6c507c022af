package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Server struct {
	Addr              string `mapstructure:"addr"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec"`
	StaticDir         string `mapstructure:"static_dir"`
}

// RequestTimeout bounds both the outbound HTTP client and each upstream fetch.
func (s Server) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSec) * time.Second
}

type CoinGecko struct {
	BaseURL string   `mapstructure:"base_url"`
	APIKey  string   `mapstructure:"api_key"`
	IDs     []string `mapstructure:"ids"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// UpstreamBody logs every raw upstream response body at debug level.
	UpstreamBody bool `mapstructure:"upstream_body"`
}

type Config struct {
	Server    Server    `mapstructure:"server"`
	CoinGecko CoinGecko `mapstructure:"coingecko"`
	Log       Log       `mapstructure:"log"`
}

func Default() Config {
	return Config{
		Server: Server{
			Addr:              "127.0.0.1:8080",
			RequestTimeoutSec: 10,
			StaticDir:         "./static",
		},
		CoinGecko: CoinGecko{
			BaseURL: "https://api.coingecko.com",
			IDs:     []string{"bitcoin", "dogecoin", "ethereum"},
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// keys lists every setting; each is also read from the environment with
// dots turned into underscores, e.g. COINGECKO_IDS.
var keys = []string{
	"server.addr",
	"server.request_timeout_sec",
	"server.static_dir",
	"coingecko.base_url",
	"coingecko.api_key",
	"coingecko.ids",
	"log.level",
	"log.format",
	"log.upstream_body",
}

// Load reads an optional .env file, an optional config file at path
// (config.json or config.yaml in the working directory when path is empty)
// and environment overrides, in increasing precedence.
func Load(path string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Default(), err
	}

	v := viper.New()
	setDefaults(v, Default())

	if path == "" {
		for _, candidate := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Default(), fmt.Errorf("read config: %w", err)
			}
		} else {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Default(), fmt.Errorf("parse config: %w", err)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Default(), fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("decode config: %w", err)
	}
	cfg.CoinGecko.IDs = splitCSV(cfg.CoinGecko.IDs...)
	cfg.CoinGecko.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.CoinGecko.BaseURL), "/")

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first setting the service cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("config: server.addr is empty")
	}
	if c.Server.RequestTimeoutSec <= 0 {
		return fmt.Errorf("config: server.request_timeout_sec must be positive, got %d", c.Server.RequestTimeoutSec)
	}
	if c.CoinGecko.BaseURL == "" {
		return errors.New("config: coingecko.base_url is empty")
	}
	if u, err := url.Parse(c.CoinGecko.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: coingecko.base_url %q is not an absolute URL", c.CoinGecko.BaseURL)
	}
	if len(c.CoinGecko.IDs) == 0 {
		return errors.New("config: coingecko.ids is empty")
	}
	for _, id := range c.CoinGecko.IDs {
		if url.QueryEscape(id) != id {
			return fmt.Errorf("config: coingecko id %q is not URL-safe", id)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.request_timeout_sec", d.Server.RequestTimeoutSec)
	v.SetDefault("server.static_dir", d.Server.StaticDir)
	v.SetDefault("coingecko.base_url", d.CoinGecko.BaseURL)
	v.SetDefault("coingecko.api_key", d.CoinGecko.APIKey)
	v.SetDefault("coingecko.ids", d.CoinGecko.IDs)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.upstream_body", d.Log.UpstreamBody)
}

// loadDotEnv exports the variables of file into the process environment.
// Variables already set keep their value; a missing file is not an error.
func loadDotEnv(file string) error {
	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(file); err != nil {
		return fmt.Errorf("load %s: %w", file, err)
	}
	return nil
}

// splitCSV flattens comma-separated entries and drops blanks.
func splitCSV(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
