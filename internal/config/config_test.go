package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "gasrisk/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		env         map[string]string
		wantErrType apperrors.ErrorType
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with minimal file",
			body: "paths:\n  price_file: prices.xlsx\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 0.975, cfg.Risk.Confidence)
				assert.Equal(t, 4, cfg.Risk.LookbackQuarters)
				assert.Equal(t, 20, cfg.Risk.MinSamples)
				assert.Equal(t, 2, cfg.Risk.InQuarterMinSamples)
				assert.Equal(t, "quarter_lookback", cfg.Risk.Mode)
				assert.Equal(t, 20, cfg.SemiVariance.Window)
				assert.Equal(t, 30, cfg.Variance.RollingDays)
				assert.Equal(t, 360, cfg.Carry.DayCount)
				assert.Equal(t, "prices.xlsx", cfg.Paths.PriceFile)
				assert.Len(t, cfg.Events, 3)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "both", cfg.Logging.Output)
			},
		},
		{
			name: "file values override defaults",
			body: `
paths:
  price_file: TTF.csv
  price_separator: ";"
risk:
  confidence: 0.99
  mode: in_quarter
events:
  - date: "2022-02-24"
    label: Invasion
    color: "#aa0000"
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 0.99, cfg.Risk.Confidence)
				assert.Equal(t, "in_quarter", cfg.Risk.Mode)
				assert.Equal(t, ";", cfg.Paths.PriceSeparator)
				require.Len(t, cfg.Events, 1)
				assert.Equal(t, time.Date(2022, 2, 24, 0, 0, 0, 0, time.UTC), cfg.Events[0].Time())
				// untouched keys keep defaults
				assert.Equal(t, 4, cfg.Risk.LookbackQuarters)
			},
		},
		{
			name: "environment overrides file",
			body: "risk:\n  confidence: 0.99\n",
			env: map[string]string{
				"RISK_RISK_CONFIDENCE":        "0.95",
				"RISK_RISK_TIMEOUT":           "30s",
				"RISK_VARIANCE_COMPARE_YEARS": "2023,2024",
				"RISK_LOGGING_LEVEL":          "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 0.95, cfg.Risk.Confidence)
				assert.Equal(t, 30*time.Second, cfg.Risk.Timeout)
				assert.Equal(t, []int{2023, 2024}, cfg.Variance.CompareYears)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name:        "confidence out of range",
			body:        "risk:\n  confidence: 1.5\n",
			wantErrType: apperrors.ErrTypeValidation,
		},
		{
			name:        "unknown mode",
			body:        "risk:\n  mode: weekly\n",
			wantErrType: apperrors.ErrTypeValidation,
		},
		{
			name:        "bad event date",
			body:        "events:\n  - date: 24/02/2022\n    label: x\n",
			wantErrType: apperrors.ErrTypeValidation,
		},
		{
			name:        "unknown event color",
			body:        "events:\n  - date: \"2022-02-24\"\n    label: x\n    color: chartreuse\n",
			wantErrType: apperrors.ErrTypeValidation,
		},
		{
			name:        "malformed yaml",
			body:        "risk: [\n",
			wantErrType: apperrors.ErrTypeConfig,
		},
		{
			name:        "end year before start year",
			body:        "semivariance:\n  start_year: 2025\n  end_year: 2019\n",
			wantErrType: apperrors.ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, tt.body)

			cfg, err := Load(path)
			if tt.wantErrType != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, tt.wantErrType), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, path, cfg.Source())
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestLoad_BaseDirRelativeToConfigFile(t *testing.T) {
	path := writeConfig(t, "paths:\n  base_dir: data\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "data"), cfg.Paths.BaseDir)
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestNewValidator_CustomTags(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		value   string
		tag     string
		wantErr bool
	}{
		{name: "valid date", value: "2022-02-24", tag: "date"},
		{name: "bad month", value: "2022-13-01", tag: "date", wantErr: true},
		{name: "named color", value: "darkred", tag: "color"},
		{name: "unknown color", value: "teal", tag: "color", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Var(tt.value, tt.tag)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    [4]uint8
		wantErr bool
	}{
		{name: "named", input: "darkred", want: [4]uint8{139, 0, 0, 255}},
		{name: "named mixed case", input: "Purple", want: [4]uint8{128, 0, 128, 255}},
		{name: "hex", input: "#1f77b4", want: [4]uint8{0x1f, 0x77, 0xb4, 255}},
		{name: "short hex", input: "#fff", wantErr: true},
		{name: "unknown", input: "teal", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseColor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, [4]uint8{c.R, c.G, c.B, c.A})
		})
	}
}
