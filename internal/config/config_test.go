package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Search.Workers)
	require.Equal(t, 2000, cfg.Search.TimeBudgetMs)
	require.Equal(t, 0.995, cfg.Search.Cooling)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, "info", cfg.Log.Level)
	require.Empty(t, cfg.Store.DatabaseURL)
	require.Equal(t, 10, cfg.Events.Burst)
	require.Equal(t, 5, cfg.Events.WebhookMaxAttempts)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routeopt.yaml")
	data := `search:
  workers: 2
  max_iterations: 500
  seed: 7
  removal_weights: [2, 1]
store:
  database_url: "postgres://localhost/routeopt"
http:
  addr: ":9090"
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("ROUTEOPT_SEARCH__WORKERS", "8")
	t.Setenv("ROUTEOPT_EVENTS__REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(path)
	require.NoError(t, err)
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"workers", cfg.Search.Workers, 8},
		{"max_iterations", cfg.Search.MaxIterations, 500},
		{"time_budget_ms", cfg.Search.TimeBudgetMs, 0},
		{"seed", cfg.Search.Seed, int64(7)},
		{"database_url", cfg.Store.DatabaseURL, "postgres://localhost/routeopt"},
		{"redis_url", cfg.Events.RedisURL, "redis://localhost:6379/0"},
		{"addr", cfg.HTTP.Addr, ":9090"},
		{"level", cfg.Log.Level, "debug"},
		{"format", cfg.Log.Format, "console"},
	}
	for _, c := range checks {
		require.Equal(t, c.want, c.got, c.name)
	}
	require.Equal(t, []float64{2, 1}, cfg.Search.RemovalWeights)

	o := cfg.Search.Options()
	require.Equal(t, 500, o.IterationsLimit)
	require.Equal(t, time.Duration(0), o.TimeBudget)
	require.Equal(t, int64(7), o.Seed)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"search":{"time_budget_ms":150},"events":{"publish_per_second":5}}`), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 150*time.Millisecond, cfg.Search.Options().TimeBudget)
	require.Equal(t, 5.0, cfg.Events.PublishPerSecond)
}

func TestLoadRejects(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"workers.yaml": "search:\n  workers: 100\n",
		"cooling.yaml": "search:\n  cooling: 1.5\n",
		"weights.yaml": "search:\n  insertion_weights: [1, 2, 3]\n",
		"level.yaml":   "log:\n  level: loud\n",
		"webhook.yaml": "events:\n  webhook_url: ftp://x\n",
		"format.toml":  "",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
