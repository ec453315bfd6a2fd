package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasrisk/internal/config"
	apperrors "gasrisk/internal/errors"
	"gasrisk/internal/exporter"
	"gasrisk/internal/testutil"
	"gasrisk/internal/trade"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTrade(t *testing.T, dir string, src trade.Source, rows map[string]float64) {
	t.Helper()
	path := src.Path(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	var b strings.Builder
	b.WriteString("Country,Trade Value\n")
	for c, v := range rows {
		fmt.Fprintf(&b, "%s,%g\n", c, v)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.BaseDir = base
	cfg.Paths.PriceFile = "prices.csv"
	cfg.Paths.CarryFile = "rates.csv"
	cfg.Risk.Timeout = time.Minute
	return cfg
}

func artifactNames(results []*Result) map[string]bool {
	names := make(map[string]bool)
	for _, res := range results {
		for _, a := range res.Artifacts {
			names[filepath.Base(filepath.Dir(a.Path))+"/"+filepath.Base(a.Path)] = true
		}
	}
	return names
}

func TestRunner_Report(t *testing.T) {
	cfg := testConfig(t)
	from := time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, time.December, 29, 0, 0, 0, 0, time.UTC)
	n := testutil.WritePrices(t, filepath.Join(cfg.Paths.BaseDir, "prices.csv"), from, to)
	testutil.WriteRates(t, filepath.Join(cfg.Paths.BaseDir, "rates.csv"), from.AddDate(0, -1, 0), to)

	logger, logs := testutil.NewTestLogger(t)
	results, err := NewRunner(cfg, logger).Run(context.Background())
	require.NoError(t, err)
	testutil.AssertNoErrors(t, logs)
	// 2024 and 2025 are outside the data
	assert.Len(t, logs.Matching(slog.LevelWarn, "volatility comparison skipped"), 2)
	require.Len(t, results, len(ReportKinds))
	for i, res := range results {
		assert.Equal(t, ReportKinds[i], res.Kind)
		for _, a := range res.Artifacts {
			assert.FileExists(t, a.Path)
		}
	}

	names := artifactNames(results)
	for _, want := range []string{
		"var/basis.xlsx",
		"var/result.xlsx",
		"var/result.csv",
		"var/risk_metrics_over_time.png",
		"var/var_spread_and_mean.png",
		"semivariance/semivariance.xlsx",
		"semivariance/SV.png",
		"semivariance/short_semi_variance_timeseries.png",
		"semivariance/short_semi_variance_density.png",
		"variance/variance.xlsx",
		"variance/1_timeline.png",
		"variance/2_annual_variance_log.png",
		"variance/3_war_comparison.png",
		"variance/4_distributions.png",
		"variance/5_rolling_variance.png",
		"descriptive/prices_with_carry.csv",
		"descriptive/descriptive.xlsx",
		"descriptive/distributions_with_carry.png",
		"rates/rates.xlsx",
		"rates/interest_rate_over_time.png",
	} {
		assert.True(t, names[want], "missing artifact %s", want)
	}

	paths := cfg.GetPaths()

	carryTable, err := exporter.ReadCSV(filepath.Join(paths.DescriptiveDir, "prices_with_carry.csv"), ',')
	require.NoError(t, err)
	assert.Equal(t, n, carryTable.Len())
	adjusted, err := carryTable.Floats("price_with_carry")
	require.NoError(t, err)
	days, err := carryTable.Floats("days_to_ref")
	require.NoError(t, err)
	assert.Equal(t, 0.0, days[len(days)-1])
	closes, err := carryTable.Floats("close")
	require.NoError(t, err)
	assert.InDelta(t, closes[len(closes)-1], adjusted[len(adjusted)-1], 1e-9)

	// Levene: the overall row plus 2023; 2024 and 2025 have no data
	levene, err := exporter.ReadXLSX(filepath.Join(paths.VarianceDir, "variance.xlsx"), "Levene")
	require.NoError(t, err)
	assert.Equal(t, 2, levene.Len())
	years, err := levene.Strings("year")
	require.NoError(t, err)
	assert.Equal(t, "2023", years[1])
	groupA, err := levene.Strings("group_a")
	require.NoError(t, err)
	groupB, err := levene.Strings("group_b")
	require.NoError(t, err)
	assert.Equal(t, []string{"war", "baseline"}, groupA)
	assert.Equal(t, []string{"non-war", "2023"}, groupB)
	sizesA, err := levene.Floats("group_a_n")
	require.NoError(t, err)
	sizesB, err := levene.Floats("group_b_n")
	require.NoError(t, err)
	// the overall row splits every observation between the regimes
	assert.Equal(t, float64(n), sizesA[0]+sizesB[0])
	assert.Greater(t, sizesA[0], 0.0)
	assert.Greater(t, sizesB[0], 0.0)
	pValues, err := levene.Floats("p_value")
	require.NoError(t, err)
	for _, p := range pValues {
		assert.True(t, p >= 0 && p <= 1, "p-value %v", p)
	}

	result, err := exporter.ReadCSV(filepath.Join(paths.VaRDir, "result.csv"), ',')
	require.NoError(t, err)
	assert.Positive(t, result.Len())
	longVaR, err := result.Floats("long_var")
	require.NoError(t, err)
	shortVaR, err := result.Floats("short_var")
	require.NoError(t, err)
	spread, err := result.Floats("var_spread")
	require.NoError(t, err)
	for i := range longVaR {
		assert.InDelta(t, longVaR[i]-shortVaR[i], spread[i], 1e-12)
	}
}

func TestRunner_Trade(t *testing.T) {
	cfg := testConfig(t)
	cfg.Trade.Years = []int{2021}
	tradeDir := filepath.Join(cfg.Paths.BaseDir, cfg.Paths.TradeDir)

	writeTrade(t, tradeDir, trade.Source{Direction: trade.Export, Year: 2021, Type: trade.TypeLNG},
		map[string]float64{"Qatar": 100, "Australia": 80})
	writeTrade(t, tradeDir, trade.Source{Direction: trade.Import, Year: 2021, Type: trade.TypeLNG},
		map[string]float64{"Japan": 90, "Australia": 5})
	writeTrade(t, tradeDir, trade.Source{Direction: trade.Export, Year: 2021, Type: trade.TypeGas},
		map[string]float64{"Russia": 150})
	// Gas imports are missing and skipped

	results, err := NewRunner(cfg, discardLogger()).Run(context.Background(), KindTrade)
	require.NoError(t, err)
	require.Len(t, results, 1)

	names := artifactNames(results)
	assert.True(t, names["trade/merged_data.xlsx"])
	assert.True(t, names["trade/weights_2021.png"])
	assert.True(t, names["trade/weights.xlsx"])

	sheets, err := exporter.SheetNames(filepath.Join(cfg.GetPaths().TradeOutputDir, "merged_data.xlsx"))
	require.NoError(t, err)
	assert.Contains(t, sheets, trade.SheetNet)

	weights, err := exporter.ReadXLSX(filepath.Join(cfg.GetPaths().TradeOutputDir, "weights.xlsx"), "Weights 2021")
	require.NoError(t, err)
	countries, err := weights.Strings("country")
	require.NoError(t, err)
	assert.Equal(t, "Russia", countries[0])
}

func TestRunner_MissingPriceFile(t *testing.T) {
	cfg := testConfig(t)

	_, err := NewRunner(cfg, discardLogger()).Run(context.Background(), KindVaR, KindVariance)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestRunner_MissingTradeDirectory(t *testing.T) {
	cfg := testConfig(t)

	_, err := NewRunner(cfg, discardLogger()).Run(context.Background(), KindTrade)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	assert.Contains(t, err.Error(), "analysis trade")
}

func TestRunner_UnknownKind(t *testing.T) {
	cfg := testConfig(t)
	_, err := NewRunner(cfg, discardLogger(), WithRegistry(NewRegistry())).Run(context.Background(), KindVaR)
	assert.Error(t, err)
}

func TestRunner_AnalysisError(t *testing.T) {
	cfg := testConfig(t)
	reg := NewRegistry()
	require.NoError(t, reg.Register(stubAnalysis{kind: KindRates}))
	require.NoError(t, reg.Register(stubAnalysis{kind: KindVaR, err: fmt.Errorf("boom")}))

	_, err := NewRunner(cfg, discardLogger(), WithRegistry(reg)).Run(context.Background(), KindRates, KindVaR)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis var: boom")
}
