package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"routeopt/internal/logging"
	"routeopt/internal/opt"
)

// EnvPrefix marks environment overrides; ROUTEOPT_SEARCH__WORKERS sets search.workers.
const EnvPrefix = "ROUTEOPT_"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Search SearchConfig   `json:"search"`
	Store  StoreConfig    `json:"store"`
	Events EventsConfig   `json:"events"`
	HTTP   HTTPConfig     `json:"http"`
	Log    logging.Config `json:"log"`
}

// SearchConfig tunes the route search.
type SearchConfig struct {
	Workers          int       `json:"workers"`
	TimeBudgetMs     int       `json:"time_budget_ms"`
	MaxIterations    int       `json:"max_iterations"`
	Seed             int64     `json:"seed"`
	InitTemp         float64   `json:"init_temp"`
	Cooling          float64   `json:"cooling"`
	RemovalWeights   []float64 `json:"removal_weights"`
	InsertionWeights []float64 `json:"insertion_weights"`
	SnapshotEvery    int       `json:"snapshot_every"`
}

func (c *SearchConfig) SetDefaults() {
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.TimeBudgetMs == 0 && c.MaxIterations == 0 {
		c.TimeBudgetMs = 2000
	}
	if c.InitTemp == 0 {
		c.InitTemp = 10
	}
	if c.Cooling == 0 {
		c.Cooling = 0.995
	}
	if c.SnapshotEvery == 0 {
		c.SnapshotEvery = 50
	}
}

func (c SearchConfig) Validate() error {
	if c.Workers < 1 || c.Workers > 64 {
		return fmt.Errorf("search.workers must be in [1,64], got %d", c.Workers)
	}
	if c.TimeBudgetMs < 0 || c.MaxIterations < 0 {
		return fmt.Errorf("search limits must not be negative")
	}
	if c.Cooling <= 0 || c.Cooling >= 1 {
		return fmt.Errorf("search.cooling must be in (0,1), got %v", c.Cooling)
	}
	if c.InitTemp < 0 {
		return fmt.Errorf("search.init_temp must not be negative")
	}
	if err := checkWeights("removal_weights", c.RemovalWeights); err != nil {
		return err
	}
	return checkWeights("insertion_weights", c.InsertionWeights)
}

func checkWeights(name string, w []float64) error {
	if len(w) == 0 {
		return nil
	}
	if len(w) != 2 {
		return fmt.Errorf("search.%s needs 2 entries, got %d", name, len(w))
	}
	if w[0] < 0 || w[1] < 0 || w[0]+w[1] == 0 {
		return fmt.Errorf("search.%s must be non-negative with a positive sum", name)
	}
	return nil
}

// Options converts the section to engine options.
func (c SearchConfig) Options() opt.Options {
	return opt.Options{
		Seed:             c.Seed,
		TimeBudget:       time.Duration(c.TimeBudgetMs) * time.Millisecond,
		IterationsLimit:  c.MaxIterations,
		InitialTemp:      c.InitTemp,
		Cooling:          c.Cooling,
		RemovalWeights:   c.RemovalWeights,
		InsertionWeights: c.InsertionWeights,
		SnapshotEvery:    c.SnapshotEvery,
	}
}

type StoreConfig struct {
	// DatabaseURL selects Postgres; empty keeps runs in memory.
	DatabaseURL string `json:"database_url"`
}

type EventsConfig struct {
	// RedisURL selects the Redis broker; empty uses the in-process one.
	RedisURL         string  `json:"redis_url"`
	PublishPerSecond float64 `json:"publish_per_second"`
	Burst            int     `json:"burst"`
	// WebhookURL, when set, receives every published event as a signed POST.
	WebhookURL         string `json:"webhook_url"`
	WebhookSecret      string `json:"webhook_secret"`
	WebhookMaxAttempts int    `json:"webhook_max_attempts"`
}

func (c *EventsConfig) SetDefaults() {
	if c.PublishPerSecond == 0 {
		c.PublishPerSecond = 20
	}
	if c.Burst == 0 {
		c.Burst = 10
	}
	if c.WebhookMaxAttempts == 0 {
		c.WebhookMaxAttempts = 5
	}
}

func (c EventsConfig) Validate() error {
	if c.PublishPerSecond < 0 || c.Burst < 0 {
		return fmt.Errorf("events rate and burst must not be negative")
	}
	if c.WebhookMaxAttempts < 0 {
		return fmt.Errorf("events.webhook_max_attempts must not be negative")
	}
	if c.WebhookURL != "" && !strings.HasPrefix(c.WebhookURL, "http://") && !strings.HasPrefix(c.WebhookURL, "https://") {
		return fmt.Errorf("events.webhook_url must be an http(s) URL")
	}
	return nil
}

type HTTPConfig struct {
	Addr                string `json:"addr"`
	ReadHeaderTimeoutMs int    `json:"read_header_timeout_ms"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadHeaderTimeoutMs == 0 {
		c.ReadHeaderTimeoutMs = 5000
	}
}

func (c HTTPConfig) Validate() error {
	if c.ReadHeaderTimeoutMs < 0 {
		return fmt.Errorf("http.read_header_timeout_ms must not be negative")
	}
	return nil
}

func validateLog(c logging.Config) error {
	switch strings.ToLower(c.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown log level %s", c.Level)
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("unknown log format %s", c.Format)
	}
	return nil
}

// Load reads a yaml or json file, applies ROUTEOPT_ environment overrides,
// then defaults and validation. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("%w: unsupported config format: %s", ErrInvalidConfig, ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) SetDefaults() {
	c.Search.SetDefaults()
	c.Events.SetDefaults()
	c.HTTP.SetDefaults()
	c.Log.SetDefaults()
}

func (c Config) Validate() error {
	for _, err := range []error{c.Search.Validate(), c.Events.Validate(), c.HTTP.Validate(), validateLog(c.Log)} {
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
