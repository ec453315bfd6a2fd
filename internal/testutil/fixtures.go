package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"
)

// WarStart is the first war-regime day of the fixtures
var WarStart = time.Date(2022, time.February, 24, 0, 0, 0, 0, time.UTC)

// WritePrices writes a seeded random walk of weekday closes with a Dummy
// column to path and returns the row count. Daily log volatility is 2%
// before WarStart and 5% from it.
func WritePrices(t *testing.T, path string, from, to time.Time) int {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	var b strings.Builder
	b.WriteString("time,close,Dummy\n")
	price, n := 20.0, 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		vol, dummy := 0.02, 0
		if !d.Before(WarStart) {
			vol, dummy = 0.05, 1
		}
		price *= math.Exp(vol * rng.NormFloat64())
		fmt.Fprintf(&b, "%s,%.4f,%d\n", d.Format("2006-01-02"), price, dummy)
		n++
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write prices: %v", err)
	}
	return n
}

// WriteRates writes month-start rates in the semicolon, day/month/year,
// decimal-comma format of the rate export. Rates rise by 0.1 per month.
func WriteRates(t *testing.T, path string, from, to time.Time) {
	t.Helper()
	var b strings.Builder
	b.WriteString("time;close\n")
	for i, d := 0, from; !d.After(to); i, d = i+1, d.AddDate(0, 1, 0) {
		rate := strings.Replace(fmt.Sprintf("%.2f", float64(i)*0.1), ".", ",", 1)
		fmt.Fprintf(&b, "%s;%s\n", d.Format("02/01/2006"), rate)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write rates: %v", err)
	}
}
