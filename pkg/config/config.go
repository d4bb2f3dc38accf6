package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "STITCHOOR"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultCalls is the number of invocations per target and discipline.
	DefaultCalls = 20

	// DefaultQuery is the query every target executes.
	DefaultQuery = "{ test { id value } }"

	// DefaultRecords is the size of the fixture dataset.
	DefaultRecords = 2000

	// DefaultFormat is the default report format.
	DefaultFormat = FormatText

	// DefaultListen is the default address of the HTTP server.
	DefaultListen = ":8080"

	// DefaultRequestsPerMinute is the default per-IP rate limit.
	DefaultRequestsPerMinute = 600
)

// Report formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Config is the root configuration for stitchoor.
type Config struct {
	Global    GlobalConfig    `yaml:"global" mapstructure:"global"`
	Benchmark BenchmarkConfig `yaml:"benchmark" mapstructure:"benchmark"`
	Fixture   FixtureConfig   `yaml:"fixture" mapstructure:"fixture"`
	Targets   []TargetConfig  `yaml:"targets" mapstructure:"targets"`
	API       APIConfig       `yaml:"api" mapstructure:"api"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// BenchmarkConfig contains the run parameters shared by every target.
type BenchmarkConfig struct {
	Calls       int           `yaml:"calls" mapstructure:"calls"`
	Query       string        `yaml:"query" mapstructure:"query"`
	CallTimeout time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	Disciplines []string      `yaml:"disciplines" mapstructure:"disciplines"`
	Format      string        `yaml:"format" mapstructure:"format"`
	SystemInfo  bool          `yaml:"system_info" mapstructure:"system_info"`
}

// FixtureConfig describes the dataset served by local targets.
type FixtureConfig struct {
	Records int   `yaml:"records" mapstructure:"records"`
	Seed    int64 `yaml:"seed" mapstructure:"seed"`
}

// TargetConfig defines a single target to benchmark.
type TargetConfig struct {
	Label          string            `yaml:"label" mapstructure:"label"`
	Strategy       string            `yaml:"strategy" mapstructure:"strategy"`
	Sources        []string          `yaml:"sources,omitempty" mapstructure:"sources"`
	TypePrefix     string            `yaml:"type_prefix,omitempty" mapstructure:"type_prefix"`
	Endpoint       string            `yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	Headers        map[string]string `yaml:"headers,omitempty" mapstructure:"headers"`
	Timeout        time.Duration     `yaml:"timeout,omitempty" mapstructure:"timeout"`
	MaxParallelism int               `yaml:"max_parallelism,omitempty" mapstructure:"max_parallelism"`
}

// APIConfig contains HTTP server settings for the serve command.
type APIConfig struct {
	Listen      string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// Load reads and merges the configuration files in order, applies
// environment variable overrides and fills in defaults. With no paths the
// built-in defaults are used.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if i == 0 {
			err = v.ReadConfig(bytes.NewReader(data))
		} else {
			err = v.MergeConfig(bytes.NewReader(data))
		}

		if err != nil {
			return nil, fmt.Errorf("parsing config file %q: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// setDefaults registers every scalar key so environment overrides apply
// even when no config file mentions it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("global.log_level", DefaultLogLevel)
	v.SetDefault("benchmark.calls", DefaultCalls)
	v.SetDefault("benchmark.query", DefaultQuery)
	v.SetDefault("benchmark.call_timeout", time.Duration(0))
	v.SetDefault("benchmark.disciplines", []string{DisciplineConsecutive, DisciplineConcurrent})
	v.SetDefault("benchmark.format", DefaultFormat)
	v.SetDefault("benchmark.system_info", true)
	v.SetDefault("fixture.records", DefaultRecords)
	v.SetDefault("fixture.seed", 0)
	v.SetDefault("api.listen", DefaultListen)
	v.SetDefault("api.cors_origins", []string{})
	v.SetDefault("api.rate_limit.enabled", false)
	v.SetDefault("api.rate_limit.requests_per_minute", DefaultRequestsPerMinute)
}

// DefaultTargets returns the local targets used when none are configured.
func DefaultTargets() []TargetConfig {
	return []TargetConfig{
		{Label: "direct", Strategy: StrategyDirect},
		{Label: "merged", Strategy: StrategyMerged},
		{Label: "delegated", Strategy: StrategyDelegated},
		{Label: "transformed", Strategy: StrategyTransformed},
	}
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Benchmark.Format == "" {
		c.Benchmark.Format = DefaultFormat
	}

	if len(c.Benchmark.Disciplines) == 0 {
		c.Benchmark.Disciplines = []string{DisciplineConsecutive, DisciplineConcurrent}
	}

	if len(c.Targets) == 0 {
		c.Targets = DefaultTargets()
	}

	if c.API.Listen == "" {
		c.API.Listen = DefaultListen
	}

	if c.API.RateLimit.RequestsPerMinute <= 0 {
		c.API.RateLimit.RequestsPerMinute = DefaultRequestsPerMinute
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Global.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.Global.LogLevel)
	}

	if c.Benchmark.Calls < 1 {
		return fmt.Errorf("benchmark.calls must be at least 1, got %d", c.Benchmark.Calls)
	}

	if strings.TrimSpace(c.Benchmark.Query) == "" {
		return fmt.Errorf("benchmark.query is required")
	}

	if c.Benchmark.CallTimeout < 0 {
		return fmt.Errorf("benchmark.call_timeout must not be negative")
	}

	for _, d := range c.Benchmark.Disciplines {
		if !isValid(validDisciplines, d) {
			return fmt.Errorf("unknown discipline %q", d)
		}
	}

	if !isValid(validFormats, c.Benchmark.Format) {
		return fmt.Errorf("unknown format %q", c.Benchmark.Format)
	}

	if c.Fixture.Records < 0 {
		return fmt.Errorf("fixture.records must not be negative")
	}

	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target must be configured")
	}

	seenLabels := make(map[string]struct{}, len(c.Targets))

	for i, target := range c.Targets {
		if target.Label == "" {
			return fmt.Errorf("target %d: label is required", i)
		}

		if _, exists := seenLabels[target.Label]; exists {
			return fmt.Errorf("target %d: duplicate label %q", i, target.Label)
		}

		seenLabels[target.Label] = struct{}{}

		if target.Strategy == "" {
			return fmt.Errorf("target %q: strategy is required", target.Label)
		}

		if !isValid(validStrategies, target.Strategy) {
			return fmt.Errorf("target %q: unknown strategy %q", target.Label, target.Strategy)
		}

		if target.Strategy == StrategyRemote && target.Endpoint == "" {
			return fmt.Errorf("target %q: remote strategy requires an endpoint", target.Label)
		}

		if target.MaxParallelism < 0 {
			return fmt.Errorf("target %q: max_parallelism must not be negative", target.Label)
		}
	}

	if c.API.RateLimit.Enabled && c.API.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("api.rate_limit.requests_per_minute must be positive")
	}

	return nil
}

// Strategy names accepted in target configuration.
const (
	StrategyDirect      = "direct"
	StrategyMerged      = "merged"
	StrategyDelegated   = "delegated"
	StrategyTransformed = "transformed"
	StrategyRemote      = "remote"
)

// Discipline names accepted in benchmark configuration.
const (
	DisciplineConsecutive = "consecutive"
	DisciplineConcurrent  = "concurrent"
)

// validStrategies is the list of supported strategies.
var validStrategies = map[string]struct{}{
	StrategyDirect:      {},
	StrategyMerged:      {},
	StrategyDelegated:   {},
	StrategyTransformed: {},
	StrategyRemote:      {},
}

var validDisciplines = map[string]struct{}{
	DisciplineConsecutive: {},
	DisciplineConcurrent:  {},
}

var validFormats = map[string]struct{}{
	FormatText:     {},
	FormatMarkdown: {},
	FormatJSON:     {},
}

func isValid(set map[string]struct{}, name string) bool {
	_, ok := set[name]

	return ok
}

// GetTarget returns the target with the given label.
func (c *Config) GetTarget(label string) (*TargetConfig, bool) {
	for i := range c.Targets {
		if c.Targets[i].Label == label {
			return &c.Targets[i], true
		}
	}

	return nil, false
}
