package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, []string{"bitcoin", "dogecoin", "ethereum"}, cfg.CoinGecko.IDs)
	require.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	require.Equal(t, "https://api.coingecko.com", cfg.CoinGecko.BaseURL)
}

func TestLoad_MissingExplicitFileFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_YAMLFile(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "coinpulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: 0.0.0.0:9000
  request_timeout_sec: 3
coingecko:
  ids: [solana, cardano]
log:
  level: debug
  upstream_body: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	require.Equal(t, 3, cfg.Server.RequestTimeoutSec)
	require.Equal(t, "./static", cfg.Server.StaticDir)
	require.Equal(t, []string{"solana", "cardano"}, cfg.CoinGecko.IDs)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Log.UpstreamBody)
}

func TestLoad_JSONFileInWorkingDir(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("config.json", []byte(`{"server":{"static_dir":"/srv/www"}}`), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/srv/www", cfg.Server.StaticDir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("config.json", []byte(`{"coingecko":{"ids":["ripple"]}}`), 0o600))

	t.Setenv("COINGECKO_IDS", "solana, cardano,,polkadot")
	t.Setenv("SERVER_REQUEST_TIMEOUT_SEC", "7")
	t.Setenv("COINGECKO_BASE_URL", "http://localhost:9999/")
	t.Setenv("LOG_UPSTREAM_BODY", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, []string{"solana", "cardano", "polkadot"}, cfg.CoinGecko.IDs)
	require.Equal(t, 7, cfg.Server.RequestTimeoutSec)
	require.Equal(t, "7s", cfg.Server.RequestTimeout().String())
	require.Equal(t, "http://localhost:9999", cfg.CoinGecko.BaseURL)
	require.True(t, cfg.Log.UpstreamBody)
}

func TestLoad_DotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("COINGECKO_API_KEY=from-dotenv\n"), 0o600))
	// make sure the variable is restored after the test
	t.Setenv("COINGECKO_API_KEY", "")
	require.NoError(t, os.Unsetenv("COINGECKO_API_KEY"))

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.CoinGecko.APIKey)
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("config.json", []byte(`{not json`), 0o600))

	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"empty ids":        func(c *Config) { c.CoinGecko.IDs = nil },
		"unsafe id":        func(c *Config) { c.CoinGecko.IDs = []string{"bit coin"} },
		"comma in id":      func(c *Config) { c.CoinGecko.IDs = []string{"a,b"} },
		"zero timeout":     func(c *Config) { c.Server.RequestTimeoutSec = 0 },
		"relative baseURL": func(c *Config) { c.CoinGecko.BaseURL = "api.coingecko.com" },
		"empty addr":       func(c *Config) { c.Server.Addr = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, Default().Validate())
}

func TestLoad_RejectsInvalidEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COINGECKO_IDS", "bitcoin,doge coin")

	_, err := Load("")
	require.Error(t, err)
}
