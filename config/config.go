// Package config loads service settings from a YAML file or command line flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/volprofile/internal/domain"
	"github.com/vadiminshakov/volprofile/internal/services/market/indicators"
	"gopkg.in/yaml.v3"
)

const (
	ModeServe  = "serve"
	ModeReport = "report"

	BinningFixedStep  = "fixed_step"
	BinningFixedCount = "fixed_count"

	defaultSource            = "auto"
	defaultSymbol            = "EURUSD"
	defaultInterval          = domain.Interval1h
	defaultPeriodDays        = 10
	defaultResolution        = 500
	defaultDynamicBins       = 59
	defaultValueArea         = "0.68"
	defaultValueAreaStrategy = "ranked_span"
	defaultListenAddr        = ":8080"
	defaultSessionTTL        = 30 * time.Minute
	defaultAnnotationsDir    = "./wal/annotations"
	defaultMaxRetries        = 3
)

var sources = map[string]bool{"auto": true, "binance": true, "bybit": true, "hyperliquid": true, "yahoo": true}

type Config struct {
	Source            string
	Symbol            domain.Symbol
	Interval          domain.Interval
	PeriodDays        int
	Binning           string
	Resolution        int
	DynamicBins       int
	ValueArea         decimal.Decimal
	ValueAreaStrategy string
	ListenAddr        string
	SessionTTL        time.Duration
	// Users maps user names to bcrypt password hashes.
	Users            map[string]string
	AnnotationsDir   string
	MaxRetries       int
	YahooProxy       string
	HyperliquidURL   string
	MovingAverage    *indicators.MovingAverage
	Mode             string
	ReportTimeframes []domain.Interval
	// TLSDomains enables HTTPS with ACME certificates for the listed hosts.
	TLSDomains   []string
	CertCacheDir string
}

type ConfigTmp struct {
	Source            string                    `yaml:"source,omitempty"`
	Symbol            string                    `yaml:"symbol"`
	Interval          string                    `yaml:"interval,omitempty"`
	PeriodDaysStr     string                    `yaml:"period_days,omitempty"`
	Binning           string                    `yaml:"binning,omitempty"`
	ResolutionStr     string                    `yaml:"resolution,omitempty"`
	DynamicBinsStr    string                    `yaml:"dynamic_bins,omitempty"`
	ValueArea         string                    `yaml:"value_area,omitempty"`
	ValueAreaStrategy string                    `yaml:"value_area_strategy,omitempty"`
	ListenAddr        string                    `yaml:"listen_addr,omitempty"`
	SessionTTL        time.Duration             `yaml:"session_ttl,omitempty"`
	Users             map[string]string         `yaml:"users,omitempty"`
	AnnotationsDir    string                    `yaml:"annotations_dir,omitempty"`
	MaxRetriesStr     string                    `yaml:"max_retries,omitempty"`
	YahooProxy        string                    `yaml:"yahoo_proxy,omitempty"`
	HyperliquidURL    string                    `yaml:"hyperliquid_url,omitempty"`
	MovingAverage     *indicators.MovingAverage `yaml:"moving_average,omitempty"`
	Mode              string                    `yaml:"mode,omitempty"`
	ReportTimeframes  []string                  `yaml:"report_timeframes,omitempty"`
	TLSDomains        []string                  `yaml:"tls_domains,omitempty"`
	CertCacheDir      string                    `yaml:"cert_cache_dir,omitempty"`
}

// Get loads the configuration from the process arguments.
func Get() (Config, error) {
	return Load(os.Args[1:])
}

func getYaml(path string) (Config, error) {
	var c ConfigTmp

	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(f, &c); err != nil {
		return Config{}, err
	}

	return c.parse()
}

// parse converts raw values into a validated Config, filling in defaults.
func (c ConfigTmp) parse() (Config, error) {
	cfg := Config{
		Source:            strings.ToLower(orDefault(c.Source, defaultSource)),
		Symbol:            domain.Symbol(orDefault(c.Symbol, defaultSymbol)),
		Binning:           orDefault(c.Binning, BinningFixedCount),
		ValueAreaStrategy: orDefault(c.ValueAreaStrategy, defaultValueAreaStrategy),
		ListenAddr:        orDefault(c.ListenAddr, defaultListenAddr),
		SessionTTL:        c.SessionTTL,
		Users:             c.Users,
		AnnotationsDir:    orDefault(c.AnnotationsDir, defaultAnnotationsDir),
		YahooProxy:        c.YahooProxy,
		HyperliquidURL:    c.HyperliquidURL,
		MovingAverage:     c.MovingAverage,
		Mode:              orDefault(c.Mode, ModeServe),
		TLSDomains:        c.TLSDomains,
		CertCacheDir:      c.CertCacheDir,
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	var err error
	if cfg.Interval, err = domain.ParseInterval(orDefault(c.Interval, defaultInterval.String())); err != nil {
		return Config{}, fmt.Errorf("incorrect 'interval' param in yaml config, error: %w", err)
	}
	if cfg.PeriodDays, err = parseInt("period_days", c.PeriodDaysStr, defaultPeriodDays); err != nil {
		return Config{}, err
	}
	if cfg.Resolution, err = parseInt("resolution", c.ResolutionStr, defaultResolution); err != nil {
		return Config{}, err
	}
	if cfg.DynamicBins, err = parseInt("dynamic_bins", c.DynamicBinsStr, defaultDynamicBins); err != nil {
		return Config{}, err
	}
	if cfg.MaxRetries, err = parseInt("max_retries", c.MaxRetriesStr, defaultMaxRetries); err != nil {
		return Config{}, err
	}

	cfg.ValueArea, err = decimal.NewFromString(orDefault(c.ValueArea, defaultValueArea))
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'value_area' param in yaml config (correct format is 0.68), error: %w", err)
	}

	for _, raw := range c.ReportTimeframes {
		interval, err := domain.ParseInterval(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'report_timeframes' param in yaml config, error: %w", err)
		}
		cfg.ReportTimeframes = append(cfg.ReportTimeframes, interval)
	}
	if len(cfg.ReportTimeframes) == 0 {
		cfg.ReportTimeframes = []domain.Interval{cfg.Interval}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !sources[c.Source] {
		return fmt.Errorf("unsupported source %q", c.Source)
	}
	if c.Symbol.String() == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.Binning != BinningFixedStep && c.Binning != BinningFixedCount {
		return fmt.Errorf("unsupported binning %q", c.Binning)
	}
	if c.PeriodDays < 1 {
		return fmt.Errorf("period_days must be positive, got %d", c.PeriodDays)
	}
	if c.Resolution < 1 || c.DynamicBins < 1 {
		return fmt.Errorf("resolution and dynamic_bins must be positive")
	}
	if !c.ValueArea.IsPositive() || c.ValueArea.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("value_area %s is outside (0, 1]", c.ValueArea)
	}
	if c.ValueAreaStrategy != "ranked_span" && c.ValueAreaStrategy != "contiguous" {
		return fmt.Errorf("unsupported value_area_strategy %q", c.ValueAreaStrategy)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.MovingAverage != nil {
		if err := c.MovingAverage.Validate(); err != nil {
			return err
		}
	}
	switch c.Mode {
	case ModeServe:
		if len(c.Users) == 0 {
			return fmt.Errorf("serve mode requires at least one user")
		}
	case ModeReport:
	default:
		return fmt.Errorf("unsupported mode %q", c.Mode)
	}
	return nil
}

func parseInt(name, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("incorrect '%s' param in yaml config (must be an integer), error: %w", name, err)
	}
	return v, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
