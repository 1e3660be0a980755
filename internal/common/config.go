// Package common provides shared utilities for Graham
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Graham
type Config struct {
	Environment string          `toml:"environment"`
	Valuation   ValuationConfig `toml:"valuation"`
	Screen      ScreenConfig    `toml:"screen"`
	Provider    ProviderConfig  `toml:"provider"`
	Universe    UniverseConfig  `toml:"universe"`
	Report      ReportConfig    `toml:"report"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ValuationConfig holds the conservative valuation parameters.
type ValuationConfig struct {
	CapexMultiplier      float64              `toml:"capex_multiplier" json:"capex_multiplier"`       // maintenance capex inflation, >= 0
	DepreciationFactor   float64              `toml:"depreciation_factor" json:"depreciation_factor"` // add-back discount, >= 0
	NWCHaircut           float64              `toml:"nwc_haircut" json:"nwc_haircut"`                 // working-capital delta haircut, 0..1
	EPVDiscountRate      float64              `toml:"epv_discount_rate" json:"epv_discount_rate"`     // perpetuity rate, > 0
	EPVWindowYears       int                  `toml:"epv_window_years" json:"epv_window_years"`       // trailing window, >= 1
	AssetHaircut         float64              `toml:"asset_haircut" json:"asset_haircut"`             // tangible book haircut, 0..1
	DCFDiscountRate      float64              `toml:"dcf_discount_rate" json:"dcf_discount_rate"`     // > terminal growth cap
	DCFGrowthCap         float64              `toml:"dcf_growth_cap" json:"dcf_growth_cap"`           // ceiling on historical CAGR
	DCFTerminalGrowthCap float64              `toml:"dcf_terminal_growth_cap" json:"dcf_terminal_growth_cap"`
	DCFHorizonYears      int                  `toml:"dcf_horizon_years" json:"dcf_horizon_years"` // 5..10
	Weights              TriangulationWeights `toml:"triangulation_weights" json:"triangulation_weights"`
}

// TriangulationWeights holds the per-method blend weights.
type TriangulationWeights struct {
	EPV   float64 `toml:"epv" json:"epv"`
	Asset float64 `toml:"asset" json:"asset"`
	DCF   float64 `toml:"dcf" json:"dcf"`
}

// Sum returns the total of all weights.
func (w TriangulationWeights) Sum() float64 {
	return w.EPV + w.Asset + w.DCF
}

// ScreenConfig holds the Graham criteria thresholds.
type ScreenConfig struct {
	MinCurrentRatio          float64 `toml:"min_current_ratio" json:"min_current_ratio"`
	MaxDebtToEquity          float64 `toml:"max_debt_to_equity" json:"max_debt_to_equity"`
	MaxPE                    float64 `toml:"max_pe" json:"max_pe"`
	MaxPB                    float64 `toml:"max_pb" json:"max_pb"`
	MaxPEtimesPB             float64 `toml:"max_pe_times_pb" json:"max_pe_times_pb"`
	MinYearsPositiveEarnings int     `toml:"min_years_positive_earnings" json:"min_years_positive_earnings"`
	MinMarginOfSafety        float64 `toml:"min_margin_of_safety" json:"min_margin_of_safety"`
}

// ProviderConfig selects and configures the financial data provider.
type ProviderConfig struct {
	Name         string             `toml:"name" json:"name"` // "alphavantage" or "file"
	Years        int                `toml:"years" json:"years"`
	Workers      int                `toml:"workers" json:"workers"` // bounded fetch/evaluate concurrency
	AlphaVantage AlphaVantageConfig `toml:"alphavantage" json:"alphavantage"`
	File         FileProviderConfig `toml:"file" json:"file"`
}

// AlphaVantageConfig holds Alpha Vantage API configuration. Keys never
// serialize to JSON.
type AlphaVantageConfig struct {
	BaseURL       string   `toml:"base_url" json:"base_url"`
	APIKeys       []string `toml:"api_keys" json:"-"`                       // rotated on rate exhaustion
	RatePerMinute int      `toml:"rate_per_minute" json:"rate_per_minute"`  // free tier allows 5
	Timeout       string   `toml:"timeout" json:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *AlphaVantageConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// FileProviderConfig holds the file-backed provider configuration.
type FileProviderConfig struct {
	Dir string `toml:"dir" json:"dir"` // directory of <TICKER>.json documents
}

// UniverseConfig controls how the ticker universe is sourced.
type UniverseConfig struct {
	Exchange     string   `toml:"exchange" json:"exchange"` // provider listing source, e.g. "NYSE"
	Tickers      []string `toml:"tickers" json:"tickers"`   // explicit list, highest priority
	TickerFile   string   `toml:"ticker_file" json:"ticker_file"`
	SampleSize   int      `toml:"sample_size" json:"sample_size"` // 0 = no sampling
	Seed         int64    `toml:"seed" json:"seed"`               // sampling seed, fixed for reproducible runs
	MinMarketCap float64  `toml:"min_market_cap" json:"min_market_cap"`
}

// ReportConfig controls report output.
type ReportConfig struct {
	OutputDir string `toml:"output_dir" json:"output_dir"`
	TopN      int    `toml:"top_n" json:"top_n"`   // detailed Markdown reports for the top N ranked
	Charts    bool   `toml:"charts" json:"charts"` // owner-earnings PNG per detailed report
}

// GeminiConfig holds optional Gemini commentary configuration. The key
// never serializes to JSON.
type GeminiConfig struct {
	APIKey string `toml:"api_key" json:"-"`
	Model  string `toml:"model" json:"model"`
}

// Enabled reports whether Gemini commentary is configured.
func (c *GeminiConfig) Enabled() bool {
	return c.APIKey != ""
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host" json:"host"`
	Port int    `toml:"port" json:"port"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

// NewDefaultConfig returns a Config with the conservative Graham defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Valuation: ValuationConfig{
			CapexMultiplier:      1.2,
			DepreciationFactor:   1.0,
			NWCHaircut:           0.9,
			EPVDiscountRate:      0.10,
			EPVWindowYears:       5,
			AssetHaircut:         0.20,
			DCFDiscountRate:      0.12,
			DCFGrowthCap:         0.05,
			DCFTerminalGrowthCap: 0.02,
			DCFHorizonYears:      10,
			Weights: TriangulationWeights{
				EPV:   0.40,
				Asset: 0.35,
				DCF:   0.25,
			},
		},
		Screen: ScreenConfig{
			MinCurrentRatio:          2.0,
			MaxDebtToEquity:          0.5,
			MaxPE:                    15.0,
			MaxPB:                    1.5,
			MaxPEtimesPB:             22.5,
			MinYearsPositiveEarnings: 5,
			MinMarginOfSafety:        0.5,
		},
		Provider: ProviderConfig{
			Name:    "alphavantage",
			Years:   7,
			Workers: 4,
			AlphaVantage: AlphaVantageConfig{
				BaseURL:       "https://www.alphavantage.co/query",
				RatePerMinute: 5,
				Timeout:       "30s",
			},
			File: FileProviderConfig{
				Dir: "data/statements",
			},
		},
		Universe: UniverseConfig{
			Exchange: "NYSE",
			Seed:     1,
		},
		Report: ReportConfig{
			OutputDir: "reports",
			TopN:      10,
			Charts:    true,
		},
		Gemini: GeminiConfig{
			Model: "gemini-3-flash-preview",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides,
// validating the result once. Later files override earlier ones; missing
// files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("GRAHAM_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("GRAHAM_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("GRAHAM_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("GRAHAM_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if name := os.Getenv("GRAHAM_PROVIDER"); name != "" {
		config.Provider.Name = name
	}

	if dir := os.Getenv("GRAHAM_OUTPUT_DIR"); dir != "" {
		config.Report.OutputDir = dir
	}

	if dir := os.Getenv("GRAHAM_DATA_DIR"); dir != "" {
		config.Provider.File.Dir = dir
	}

	// API keys: comma-separated list for rotation, single-key fallbacks
	for _, name := range []string{"GRAHAM_ALPHAVANTAGE_API_KEYS", "ALPHAVANTAGE_API_KEYS"} {
		if v := os.Getenv(name); v != "" {
			config.Provider.AlphaVantage.APIKeys = splitAndTrim(v)
			break
		}
	}
	if len(config.Provider.AlphaVantage.APIKeys) == 0 {
		if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
			config.Provider.AlphaVantage.APIKeys = []string{v}
		}
	}

	for _, name := range []string{"GRAHAM_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Gemini.APIKey = v
			break
		}
	}
}

// splitAndTrim splits a comma-separated value, dropping empty entries.
func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks every configuration rule and returns the first violation
// as a ConfigurationError. Called exactly once, at load; an invalid config
// never reaches the valuation or screening engines.
func (c *Config) Validate() error {
	v := c.Valuation
	switch {
	case v.CapexMultiplier < 0:
		return NewConfigurationError("valuation.capex_multiplier", "must be >= 0")
	case v.DepreciationFactor < 0:
		return NewConfigurationError("valuation.depreciation_factor", "must be >= 0")
	case v.NWCHaircut < 0 || v.NWCHaircut > 1:
		return NewConfigurationError("valuation.nwc_haircut", "must be in [0, 1]")
	case v.EPVDiscountRate <= 0:
		return NewConfigurationError("valuation.epv_discount_rate", "must be > 0")
	case v.EPVWindowYears < 1:
		return NewConfigurationError("valuation.epv_window_years", "must be >= 1")
	case v.AssetHaircut < 0 || v.AssetHaircut > 1:
		return NewConfigurationError("valuation.asset_haircut", "must be in [0, 1]")
	case v.DCFDiscountRate <= 0:
		return NewConfigurationError("valuation.dcf_discount_rate", "must be > 0")
	case v.DCFDiscountRate <= v.DCFTerminalGrowthCap:
		return NewConfigurationError("valuation.dcf_discount_rate", "must exceed the terminal growth cap")
	case v.DCFHorizonYears < 5 || v.DCFHorizonYears > 10:
		return NewConfigurationError("valuation.dcf_horizon_years", "must be in [5, 10]")
	case v.Weights.EPV < 0 || v.Weights.Asset < 0 || v.Weights.DCF < 0:
		return NewConfigurationError("valuation.triangulation_weights", "weights must be >= 0")
	case v.Weights.Sum() <= 0:
		return NewConfigurationError("valuation.triangulation_weights", "weights must sum to > 0")
	}

	s := c.Screen
	switch {
	case s.MinCurrentRatio <= 0:
		return NewConfigurationError("screen.min_current_ratio", "must be > 0")
	case s.MaxDebtToEquity <= 0:
		return NewConfigurationError("screen.max_debt_to_equity", "must be > 0")
	case s.MaxPE <= 0:
		return NewConfigurationError("screen.max_pe", "must be > 0")
	case s.MaxPB <= 0:
		return NewConfigurationError("screen.max_pb", "must be > 0")
	case s.MaxPEtimesPB <= 0:
		return NewConfigurationError("screen.max_pe_times_pb", "must be > 0")
	case s.MinYearsPositiveEarnings < 1:
		return NewConfigurationError("screen.min_years_positive_earnings", "must be >= 1")
	case s.MinMarginOfSafety <= 0 || s.MinMarginOfSafety > 1:
		return NewConfigurationError("screen.min_margin_of_safety", "must be in (0, 1]")
	}

	p := c.Provider
	switch {
	case p.Name != "alphavantage" && p.Name != "file":
		return NewConfigurationError("provider.name", fmt.Sprintf("unknown provider %q", p.Name))
	case p.Years < 2:
		return NewConfigurationError("provider.years", "must be >= 2")
	case p.Workers < 1:
		return NewConfigurationError("provider.workers", "must be >= 1")
	}

	if c.Universe.SampleSize < 0 {
		return NewConfigurationError("universe.sample_size", "must be >= 0")
	}
	if c.Universe.MinMarketCap < 0 {
		return NewConfigurationError("universe.min_market_cap", "must be >= 0")
	}
	if c.Report.TopN < 0 {
		return NewConfigurationError("report.top_n", "must be >= 0")
	}

	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
