package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"github.com/jtammen/stratsim/internal/risk"
	"github.com/jtammen/stratsim/internal/storage/archive"
	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

type Config struct {
	Run        RunConfig                 `mapstructure:"run"`
	Risk       risk.Config               `mapstructure:"risk"`
	Data       DataConfig                `mapstructure:"data"`
	Archive    ArchiveConfig             `mapstructure:"archive"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Strategies map[string]StrategyConfig `mapstructure:"strategies"`
}

// RunConfig bounds the simulation itself.
type RunConfig struct {
	InvestmentAmount   float64  `mapstructure:"investment_amount"`
	CycleDays          int      `mapstructure:"cycle_days"`
	StartDate          string   `mapstructure:"start_date"` // YYYY-MM-DD
	EndDate            string   `mapstructure:"end_date"`
	RebalanceFrequency string   `mapstructure:"rebalance_frequency"` // "none" or "monthly"
	RebalanceTolerance float64  `mapstructure:"rebalance_tolerance"`
	EnforceExits       bool     `mapstructure:"enforce_exits"`
	Tickers            []string `mapstructure:"tickers"`
}

// Start parses the configured start date. Validate has already checked it.
func (r RunConfig) Start() time.Time {
	t, _ := time.Parse(dateLayout, r.StartDate)
	return t
}

// End parses the configured end date.
func (r RunConfig) End() time.Time {
	t, _ := time.Parse(dateLayout, r.EndDate)
	return t
}

// DataConfig selects the price history provider.
type DataConfig struct {
	Provider string `mapstructure:"provider"` // "csv", "yahoo" or "postgres"
	CSVDir   string `mapstructure:"csv_dir"`
	DSN      string `mapstructure:"dsn"`
	Cache    bool   `mapstructure:"cache"`
}

// ArchiveConfig selects where finished runs are persisted.
type ArchiveConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Type    string           `mapstructure:"type"` // "localfs" or "s3"
	Path    string           `mapstructure:"path"` // For localfs
	S3      archive.S3Config `mapstructure:"s3"`   // For S3
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// StrategyConfig enables one strategy variant with its parameters.
type StrategyConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:"params"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Run: RunConfig{
			InvestmentAmount:   10000,
			CycleDays:          1,
			RebalanceFrequency: "monthly",
			RebalanceTolerance: 0.05,
		},
		Risk: risk.Config{
			StopLossPct:   5,
			TakeProfitPct: 10,
		},
		Data: DataConfig{
			Provider: "csv",
			CSVDir:   "data",
			Cache:    true,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Type:    "localfs",
			Path:    "archive",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Run.InvestmentAmount <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("investment_amount must be positive, got %f", c.Run.InvestmentAmount))
	}
	if c.Run.CycleDays <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cycle_days must be positive, got %d", c.Run.CycleDays))
	}
	if len(c.Run.Tickers) == 0 {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("tickers must not be empty"))
	}

	start, err := time.Parse(dateLayout, c.Run.StartDate)
	if err != nil {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("start_date %q: %w", c.Run.StartDate, err))
	}
	end, err := time.Parse(dateLayout, c.Run.EndDate)
	if err != nil {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("end_date %q: %w", c.Run.EndDate, err))
	}
	if end.Before(start) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("end_date %s before start_date %s", c.Run.EndDate, c.Run.StartDate))
	}

	switch c.Run.RebalanceFrequency {
	case "", "none", "monthly":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("rebalance_frequency must be none or monthly, got %q", c.Run.RebalanceFrequency))
	}

	if c.Risk.StopLossPct < 0 || c.Risk.TakeProfitPct < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("risk percentages cannot be negative"))
	}

	switch c.Data.Provider {
	case "csv":
		if c.Data.CSVDir == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("csv_dir required when provider is csv"))
		}
	case "yahoo":
	case "postgres":
		if c.Data.DSN == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("dsn required when provider is postgres"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown data provider %q", c.Data.Provider))
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive path required for localfs"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("s3 bucket required when archive type is s3"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive type %q", c.Archive.Type))
		}
	}

	enabled := 0
	for _, sc := range c.Strategies {
		if sc.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("at least one strategy must be enabled"))
	}

	return nil
}
