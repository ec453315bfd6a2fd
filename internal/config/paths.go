package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	BaseDir   string
	PriceFile string
	CarryFile string
	TradeDir  string
	OutputDir string
	LogsDir   string

	// Per-analysis output directories
	VaRDir          string
	SemiVarianceDir string
	VarianceDir     string
	DescriptiveDir  string
	RatesDir        string
	TradeOutputDir  string

	LogFile     string
	TraceFile   string
	MetricsFile string
}

// GetPaths returns the application paths resolved against the configured base directory
func (c *Config) GetPaths() *Paths {
	base := c.Paths.BaseDir
	outputDir := c.resolve(c.Paths.OutputDir)
	logsDir := c.resolve(c.Paths.LogsDir)

	return &Paths{
		BaseDir:   base,
		PriceFile: c.resolve(c.Paths.PriceFile),
		CarryFile: c.resolve(c.Paths.CarryFile),
		TradeDir:  c.resolve(c.Paths.TradeDir),
		OutputDir: outputDir,
		LogsDir:   logsDir,

		VaRDir:          filepath.Join(outputDir, "var"),
		SemiVarianceDir: filepath.Join(outputDir, "semivariance"),
		VarianceDir:     filepath.Join(outputDir, "variance"),
		DescriptiveDir:  filepath.Join(outputDir, "descriptive"),
		RatesDir:        filepath.Join(outputDir, "rates"),
		TradeOutputDir:  filepath.Join(outputDir, "trade"),

		LogFile:     joinIfRelative(logsDir, c.Logging.FilePath),
		TraceFile:   joinIfRelative(logsDir, c.Telemetry.TraceFile),
		MetricsFile: joinIfRelative(logsDir, c.Telemetry.MetricsFile),
	}
}

func (c *Config) resolve(p string) string {
	if p == "" {
		return ""
	}
	return joinIfRelative(c.Paths.BaseDir, p)
}

func joinIfRelative(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// EnsureDirectories creates all output directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.OutputDir,
		p.LogsDir,
		p.VaRDir,
		p.SemiVarianceDir,
		p.VarianceDir,
		p.DescriptiveDir,
		p.RatesDir,
		p.TradeOutputDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("inputs",
			slog.String("base", p.BaseDir),
			slog.String("price_file", p.PriceFile),
			slog.Bool("price_file_exists", FileExists(p.PriceFile)),
			slog.String("carry_file", p.CarryFile),
			slog.String("trade_dir", p.TradeDir),
		),
		slog.Group("outputs",
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
			slog.String("metrics", p.MetricsFile),
		))
}
