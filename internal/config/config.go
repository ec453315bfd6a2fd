package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "gasrisk/internal/errors"
)

// EnvPrefix namespaces every environment override, e.g. RISK_RISK_CONFIDENCE.
const EnvPrefix = "RISK"

// Config represents the complete application configuration
type Config struct {
	Paths        PathsConfig        `yaml:"paths" envconfig:"PATHS"`
	Risk         RiskConfig         `yaml:"risk" envconfig:"RISK"`
	SemiVariance SemiVarianceConfig `yaml:"semivariance" envconfig:"SEMIVARIANCE"`
	Variance     VarianceConfig     `yaml:"variance" envconfig:"VARIANCE"`
	Carry        CarryConfig        `yaml:"carry" envconfig:"CARRY"`
	Trade        TradeConfig        `yaml:"trade" envconfig:"TRADE"`
	Events       []EventConfig      `yaml:"events" ignored:"true" validate:"dive"`
	Logging      LoggingConfig      `yaml:"logging" envconfig:"LOGGING"`
	Telemetry    TelemetryConfig    `yaml:"telemetry" envconfig:"TELEMETRY"`

	// source is the file the configuration was read from, if any.
	source string
}

// PathsConfig contains file system paths configuration.
// Relative paths are resolved against BaseDir.
type PathsConfig struct {
	BaseDir        string `yaml:"base_dir" envconfig:"BASE_DIR"`
	PriceFile      string `yaml:"price_file" envconfig:"PRICE_FILE" validate:"required"`
	PriceSheet     string `yaml:"price_sheet" envconfig:"PRICE_SHEET"`
	PriceSeparator string `yaml:"price_separator" envconfig:"PRICE_SEPARATOR" validate:"omitempty,len=1"`
	CarryFile      string `yaml:"carry_file" envconfig:"CARRY_FILE"`
	CarrySeparator string `yaml:"carry_separator" envconfig:"CARRY_SEPARATOR" validate:"omitempty,len=1"`
	TradeDir       string `yaml:"trade_dir" envconfig:"TRADE_DIR"`
	OutputDir      string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir        string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// RiskConfig parameterizes the windowed VaR/CVaR estimator
type RiskConfig struct {
	Confidence          float64       `yaml:"confidence" envconfig:"CONFIDENCE" validate:"gt=0,lt=1"`
	LookbackQuarters    int           `yaml:"lookback_quarters" envconfig:"LOOKBACK_QUARTERS" validate:"min=1"`
	MinSamples          int           `yaml:"min_samples" envconfig:"MIN_SAMPLES" validate:"min=2"`
	InQuarterMinSamples int           `yaml:"in_quarter_min_samples" envconfig:"IN_QUARTER_MIN_SAMPLES" validate:"min=2"`
	TrailingWindow      int           `yaml:"trailing_window" envconfig:"TRAILING_WINDOW" validate:"min=2"`
	Mode                string        `yaml:"mode" envconfig:"MODE" validate:"oneof=quarter_lookback in_quarter trailing"`
	Timeout             time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// SemiVarianceConfig controls the two rolling semi-variance reports
type SemiVarianceConfig struct {
	// Window is the observation count of the negative-filtered rolling variance.
	Window int `yaml:"window" envconfig:"WINDOW" validate:"min=2"`
	// DownsideWindow is the observation count of the downside semi-variance.
	DownsideWindow int `yaml:"downside_window" envconfig:"DOWNSIDE_WINDOW" validate:"min=1"`
	StartYear      int `yaml:"start_year" envconfig:"START_YEAR" validate:"min=1900"`
	EndYear        int `yaml:"end_year" envconfig:"END_YEAR" validate:"gtefield=StartYear"`
}

// VarianceConfig controls the war vs non-war variance report
type VarianceConfig struct {
	RollingDays      int    `yaml:"rolling_days" envconfig:"ROLLING_DAYS" validate:"min=1"`
	TimelineFromYear int    `yaml:"timeline_from_year" envconfig:"TIMELINE_FROM_YEAR"`
	AnnualFromYear   int    `yaml:"annual_from_year" envconfig:"ANNUAL_FROM_YEAR"`
	RollingFromYear  int    `yaml:"rolling_from_year" envconfig:"ROLLING_FROM_YEAR"`
	RollingToYear    int    `yaml:"rolling_to_year" envconfig:"ROLLING_TO_YEAR" validate:"gtefield=RollingFromYear"`
	BaselineEnd      string `yaml:"baseline_end" envconfig:"BASELINE_END" validate:"required,date"`
	CompareYears     []int  `yaml:"compare_years" envconfig:"COMPARE_YEARS"`
}

// CarryConfig controls the cost-of-carry adjustment
type CarryConfig struct {
	DayCount int `yaml:"day_count" envconfig:"DAY_COUNT" validate:"min=1"`
}

// TradeConfig controls the gas trade report
type TradeConfig struct {
	Years []int    `yaml:"years" envconfig:"YEARS"`
	Types []string `yaml:"types" envconfig:"TYPES" validate:"dive,oneof=LNG GAS"`
	TopN  int      `yaml:"top_n" envconfig:"TOP_N" validate:"min=1"`
}

// EventConfig is a dated marker drawn on time-series charts
type EventConfig struct {
	Date  string `yaml:"date" validate:"required,date"`
	Label string `yaml:"label" validate:"required"`
	Color string `yaml:"color" validate:"omitempty,color"`
}

// Time returns the parsed event date. The date is validated at load time.
func (e EventConfig) Time() time.Time {
	t, _ := time.Parse(DateLayout, e.Date)
	return t
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TracesEnabled bool   `yaml:"traces_enabled" envconfig:"TRACES_ENABLED"`
	TraceFile     string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// BaselineEndTime returns the parsed end of the pre-conflict baseline.
func (v VarianceConfig) BaselineEndTime() time.Time {
	t, _ := time.Parse(DateLayout, v.BaselineEnd)
	return t
}

// Source returns the path of the configuration file that was loaded, or "".
func (c *Config) Source() string {
	return c.source
}

// Load loads configuration from the YAML file at path (if it exists) and
// then applies RISK_* environment overrides. An empty path searches the
// usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, apperrors.NewNotFoundError("config file").WithContext("path", path)
			}
			return nil, apperrors.NewConfigError("stat config file", err)
		}
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", path)
		}
		cfg.source = path
	}

	// Environment takes precedence over the file
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays YAML onto cfg; keys absent from the file keep
// their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths anchors BaseDir to the config file location when it is not
// absolute.
func (c *Config) resolvePaths() error {
	base := c.Paths.BaseDir
	if !filepath.IsAbs(base) {
		anchor := "."
		if c.source != "" {
			anchor = filepath.Dir(c.source)
		}
		base = filepath.Join(anchor, base)
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return err
	}
	c.Paths.BaseDir = abs
	return nil
}

// Validate checks struct tags and normalizes logging settings.
func (c *Config) Validate() error {
	v, err := newValidator()
	if err != nil {
		return apperrors.NewConfigError("build config validator", err)
	}
	if err := v.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperrors.NewAppError(apperrors.ErrTypeValidation,
				fmt.Sprintf("invalid config field %s: %s", fe.Namespace(), describeTag(fe)), err).
				WithContext("field", fe.Namespace()).
				WithContext("value", fe.Value())
		}
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid config", err)
	}

	// Always JSON, always dual output unless explicitly file-only
	c.Logging.Format = "json"
	if c.Logging.Output == "console" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "riskreport.log"
	}

	return nil
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()

	for tag, fn := range map[string]validator.Func{
		"date":  isDate,
		"color": isColor,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %s validation: %w", tag, err)
		}
	}

	// Use YAML tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v, nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt", "gte", "min":
		return "must be at least " + fe.Param()
	case "lt", "lte", "max":
		return "must be below " + fe.Param()
	case "date":
		return "must be a " + DateLayout + " date"
	default:
		return "failed " + fe.Tag()
	}
}

func isDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func isColor(fl validator.FieldLevel) bool {
	_, err := ParseColor(fl.Field().String())
	return err == nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			BaseDir:        ".",
			PriceFile:      DefaultPriceFile,
			PriceSeparator: ",",
			CarryFile:      DefaultCarryFile,
			CarrySeparator: ";",
			TradeDir:       "OEC",
			OutputDir:      DefaultOutputDir,
			LogsDir:        DefaultLogsDir,
		},
		Risk: RiskConfig{
			Confidence:          0.975,
			LookbackQuarters:    4,
			MinSamples:          20,
			InQuarterMinSamples: 2,
			TrailingWindow:      60,
			Mode:                "quarter_lookback",
			Timeout:             5 * time.Minute,
		},
		SemiVariance: SemiVarianceConfig{
			Window:         20,
			DownsideWindow: 30,
			StartYear:      2019,
			EndYear:        2025,
		},
		Variance: VarianceConfig{
			RollingDays:      30,
			TimelineFromYear: 2019,
			AnnualFromYear:   2014,
			RollingFromYear:  2021,
			RollingToYear:    2023,
			BaselineEnd:      "2020-12-31",
			CompareYears:     []int{2023, 2024, 2025},
		},
		Carry: CarryConfig{
			DayCount: 360,
		},
		Trade: TradeConfig{
			Years: []int{2021, 2023},
			Types: []string{"LNG", "GAS"},
			TopN:  7,
		},
		Events: DefaultEvents(),
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "riskreport.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:   AppName,
			TracesEnabled: true,
			TraceFile:     "traces.json",
			MetricsFile:   "metrics.prom",
		},
	}
}

// DefaultEvents returns the geopolitical markers drawn on the charts.
func DefaultEvents() []EventConfig {
	return []EventConfig{
		{Date: "2022-02-24", Label: "Ukrajna invázió", Color: "darkred"},
		{Date: "2022-03-15", Label: "Szankciók", Color: "darkorange"},
		{Date: "2022-09-26", Label: "Nord Stream", Color: "purple"},
	}
}
