package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	logger, h := NewTestLogger(t)
	child := logger.With("component", "runner")

	logger.Info("started", "n", 2)
	child.Warn("window skipped", "year", 2020)

	records := h.Records()
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), records[0].Attrs["n"])
	assert.Equal(t, "runner", records[1].Attrs["component"])

	assert.Len(t, h.Matching(slog.LevelWarn, "skipped"), 1)
	assert.Empty(t, h.Matching(slog.LevelInfo, "skipped"))
	AssertLogContains(t, h, slog.LevelInfo, "started")
	AssertNoErrors(t, h)
}

func TestWriteFixtures(t *testing.T) {
	dir := t.TempDir()
	from := time.Date(2022, time.February, 21, 0, 0, 0, 0, time.UTC)

	// Mon 21 to Sun 27 February: five weekdays, war from Thursday
	n := WritePrices(t, filepath.Join(dir, "prices.csv"), from, from.AddDate(0, 0, 6))
	assert.Equal(t, 5, n)
	data, err := os.ReadFile(filepath.Join(dir, "prices.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasSuffix(lines[3], ",0"))
	assert.True(t, strings.HasSuffix(lines[4], ",1"))

	WriteRates(t, filepath.Join(dir, "rates.csv"), time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC))
	data, err = os.ReadFile(filepath.Join(dir, "rates.csv"))
	require.NoError(t, err)
	assert.Equal(t, "time;close\n01/01/2022;0,00\n01/02/2022;0,10\n01/03/2022;0,20\n", string(data))
}
