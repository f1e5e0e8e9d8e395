package report

import (
	"math"
	"testing"
	"time"

	"github.com/jtammen/stratsim/internal/core"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func series(symbol string, closes []float64) core.PriceSeries {
	bars := make([]core.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = core.PriceBar{Date: day(i), Close: c}
	}
	return core.PriceSeries{Symbol: symbol, Bars: bars}
}

func buy(symbol string, shares int64, price float64, d int) core.Order {
	return core.Order{Symbol: symbol, Side: core.SideBuy, Shares: shares, Price: price, Date: day(d)}
}

func sell(symbol string, shares int64, price float64, d int) core.Order {
	return core.Order{Symbol: symbol, Side: core.SideSell, Shares: shares, Price: price, Date: day(d)}
}

func TestReporter_ValueSeriesTracksNetShares(t *testing.T) {
	history := map[string]core.PriceSeries{
		"X": series("X", []float64{100, 110, 120}),
	}
	log := []core.LogEntry{
		{Date: day(0), Orders: []core.Order{buy("X", 10, 100, 0)}},
		{Date: day(1)},
		{Date: day(2), Orders: []core.Order{sell("X", 10, 120, 2)}},
	}

	points := New().ValueSeries(log, history)
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	want := []float64{1000, 1100, 0}
	for i, p := range points {
		if p.Value != want[i] {
			t.Errorf("point %d = %f, want %f", i, p.Value, want[i])
		}
	}
}

func TestReporter_ValueSeriesIsIdempotent(t *testing.T) {
	history := map[string]core.PriceSeries{"X": series("X", []float64{100, 110})}
	log := []core.LogEntry{
		{Date: day(0), Orders: []core.Order{buy("X", 5, 100, 0)}},
		{Date: day(1)},
	}
	r := New()
	first := r.ValueSeries(log, history)
	second := r.ValueSeries(log, history)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("point %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestReporter_ValueSeriesDataGapContributesZero(t *testing.T) {
	// GHOST has no bars on or before the entry date.
	history := map[string]core.PriceSeries{
		"X":     series("X", []float64{100}),
		"GHOST": {Symbol: "GHOST", Bars: []core.PriceBar{{Date: day(9), Close: 50}}},
	}
	log := []core.LogEntry{
		{Date: day(0), Orders: []core.Order{
			buy("X", 2, 100, 0),
			buy("GHOST", 4, 25, 0),
		}},
	}
	points := New().ValueSeries(log, history)
	if points[0].Value != 200 {
		t.Errorf("value = %f, want 200 (GHOST contributes zero)", points[0].Value)
	}
}

func TestReporter_SummarizeRealizedEarnings(t *testing.T) {
	log := []core.LogEntry{
		{Date: day(0), Orders: []core.Order{buy("X", 10, 100, 0)}},
		{Date: day(1), Orders: []core.Order{sell("X", 10, 110, 1)}},
	}
	summary := New().Summarize(log, 1000)

	if math.Abs(summary.Earnings-100) > 1e-9 {
		t.Errorf("earnings = %f, want 100", summary.Earnings)
	}
	if math.Abs(summary.TotalReturns-1100) > 1e-9 {
		t.Errorf("total returns = %f, want 1100", summary.TotalReturns)
	}
	if len(summary.Instruments) != 1 {
		t.Fatalf("got %d instruments, want 1", len(summary.Instruments))
	}
	inst := summary.Instruments[0]
	if inst.Buys != 1 || inst.Sells != 1 {
		t.Errorf("counts = %d/%d, want 1/1", inst.Buys, inst.Sells)
	}
	if math.Abs(inst.PerformancePct-10) > 1e-9 {
		t.Errorf("performance = %f%%, want 10%%", inst.PerformancePct)
	}
}

func TestReporter_SummarizeWeightedAverageBasis(t *testing.T) {
	log := []core.LogEntry{
		{Date: day(0), Orders: []core.Order{buy("X", 10, 100, 0)}},
		{Date: day(1), Orders: []core.Order{buy("X", 10, 120, 1)}},
		{Date: day(2), Orders: []core.Order{sell("X", 5, 130, 2)}},
	}
	summary := New().Summarize(log, 3000)
	// Basis is 110 after the second buy; 5 shares sold at 130 realize 100.
	if math.Abs(summary.Earnings-100) > 1e-9 {
		t.Errorf("earnings = %f, want 100", summary.Earnings)
	}
}

func TestReporter_SummarizeOpenPositionUnrealized(t *testing.T) {
	log := []core.LogEntry{
		{Date: day(0), Orders: []core.Order{buy("X", 10, 100, 0)}},
	}
	summary := New().Summarize(log, 1000)
	if summary.Earnings != 0 {
		t.Errorf("earnings = %f, want 0 for an open position", summary.Earnings)
	}
	if summary.Instruments[0].Sells != 0 {
		t.Errorf("sells = %d, want 0", summary.Instruments[0].Sells)
	}
}
