package folio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/Rhymond/go-money"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv is the environment variable that overrides the EODHD API key.
const APIKeyEnv = "FOLIO_EODHD_API_KEY"

// Config is the whole run configuration.
type Config struct {
	Currency    string            `yaml:"currency"`
	Ledger      LedgerConfig      `yaml:"ledger"`
	EODHD       EODHDConfig       `yaml:"eodhd"`
	Sink        SinkConfig        `yaml:"sink"`
	Metrics     MetricsConfig     `yaml:"metrics,omitempty"`
	Correlation CorrelationConfig `yaml:"correlation"`
	// Sectors overrides the provider sector of some tickers.
	Sectors Sectors `yaml:"sectors,omitempty"`
}

// LedgerConfig locates the transaction store.
type LedgerConfig struct {
	Type string `yaml:"type"`           // "file" or "postgres"
	Path string `yaml:"path,omitempty"` // .jsonl or .csv file
	DSN  string `yaml:"dsn,omitempty"`  // postgres connection string
}

// EODHDConfig configures the market data provider.
type EODHDConfig struct {
	APIKey   string `yaml:"api_key,omitempty"`
	Exchange string `yaml:"exchange,omitempty"` // suffix for tickers without one
	BaseURL  string `yaml:"base_url,omitempty"`
	CacheDir string `yaml:"cache_dir,omitempty"` // empty means the user cache directory
}

// SinkConfig selects where the tables are written.
type SinkConfig struct {
	Type   string `yaml:"type"`             // "markdown", "sqlite" or "redis"
	Path   string `yaml:"path,omitempty"`   // markdown file or sqlite database, empty markdown is stdout
	Addr   string `yaml:"addr,omitempty"`   // redis address
	DB     int    `yaml:"db,omitempty"`     // redis database
	Prefix string `yaml:"prefix,omitempty"` // redis key prefix
}

// MetricsConfig configures the run metrics.
type MetricsConfig struct {
	PushURL string `yaml:"push_url,omitempty"` // Pushgateway, empty disables pushing
	Job     string `yaml:"job,omitempty"`
}

// CorrelationConfig is the "Config" tab of the correlation job.
type CorrelationConfig struct {
	Period  string   `yaml:"period"`
	Tickers []string `yaml:"tickers"`
}

// DefaultTickers are the tickers correlated by a fresh configuration.
var DefaultTickers = []string{"AMD", "NVDA", "GOOGL", "MSFT", "SPY"}

// DefaultConfig returns a configuration that works out of the box, apart from the API key.
func DefaultConfig() *Config {
	return &Config{
		Currency: "USD",
		Ledger:   LedgerConfig{Type: "file", Path: "ledger.jsonl"},
		EODHD:    EODHDConfig{Exchange: "US"},
		Sink:     SinkConfig{Type: "markdown"},
		Metrics:  MetricsConfig{Job: "folio"},
		Correlation: CorrelationConfig{
			Period:  "1y",
			Tickers: slices.Clone(DefaultTickers),
		},
	}
}

// DecodeConfig reads a YAML configuration on top of the defaults.
func DecodeConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parse config: %w", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads the configuration file at path.
//
// The API key from the environment, if any, takes precedence over the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read config file: %w", ErrConfiguration, err)
	}
	cfg, err := DecodeConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.EODHD.APIKey = key
	}
	return cfg, nil
}

// Save writes the configuration as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the static part of the configuration.
//
// The correlation period and tickers are checked at run time, because an invalid
// value only affects the correlation pipeline.
func (c *Config) Validate() error {
	if money.GetCurrency(c.Currency) == nil {
		return fmt.Errorf("%w: unknown currency %q", ErrConfiguration, c.Currency)
	}
	switch c.Ledger.Type {
	case "file":
		if c.Ledger.Path == "" {
			return fmt.Errorf("%w: ledger.path is required for a file ledger", ErrConfiguration)
		}
	case "postgres":
		if c.Ledger.DSN == "" {
			return fmt.Errorf("%w: ledger.dsn is required for a postgres ledger", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: ledger.type must be 'file' or 'postgres', got %q", ErrConfiguration, c.Ledger.Type)
	}
	switch c.Sink.Type {
	case "markdown":
	case "sqlite":
		if c.Sink.Path == "" {
			return fmt.Errorf("%w: sink.path is required for a sqlite sink", ErrConfiguration)
		}
	case "redis":
		if c.Sink.Addr == "" {
			return fmt.Errorf("%w: sink.addr is required for a redis sink", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: sink.type must be 'markdown', 'sqlite' or 'redis', got %q", ErrConfiguration, c.Sink.Type)
	}
	return nil
}

// ReadPeriod returns the raw correlation period.
func (c *Config) ReadPeriod(ctx context.Context) (string, error) {
	return strings.TrimSpace(c.Correlation.Period), nil
}

// ReadTickers returns the correlation tickers, normalized and deduplicated in order.
func (c *Config) ReadTickers(ctx context.Context) ([]string, error) {
	return NormalizeTickers(c.Correlation.Tickers), nil
}

// NormalizeTickers trims and upper-cases tickers, dropping blanks and duplicates.
func NormalizeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = NormalizeTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

var _ ConfigStore = (*Config)(nil)
