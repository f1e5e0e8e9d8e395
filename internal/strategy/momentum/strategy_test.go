package momentum

import (
	"errors"
	"testing"
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"github.com/jtammen/stratsim/internal/strategy"
)

func series(symbol string, closes ...float64) core.PriceSeries {
	bars := make([]core.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = core.PriceBar{
			Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Close: c,
		}
	}
	return core.PriceSeries{Symbol: symbol, Bars: bars}
}

func TestMomentum_RisingBeatsFlat(t *testing.T) {
	flat := series("A", 100, 100, 100, 100, 100, 100)
	rising := series("B", 100, 110, 121, 133.1, 146.41, 161.05)

	m := New(5, 1)
	ctx := strategy.AnalysisContext{
		Symbols: []string{"A", "B"},
		History: map[string]core.PriceSeries{"A": flat, "B": rising},
		Now:     rising.Bars[5].Date,
	}
	if err := m.Analyze(ctx); err != nil {
		t.Fatal(err)
	}

	orders, err := m.Execute(1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Fatalf("got %d orders, want 1 (top_n=1)", len(orders))
	}
	if orders[0].Symbol != "B" {
		t.Errorf("top ranked = %s, want B", orders[0].Symbol)
	}
}

func TestMomentum_InsufficientHistoryExcluded(t *testing.T) {
	short := series("SHORT", 100, 150) // fewer bars than cycle
	full := series("FULL", 100, 100, 100, 100, 100, 101)

	m := New(5, 3)
	ctx := strategy.AnalysisContext{
		Symbols: []string{"SHORT", "FULL"},
		History: map[string]core.PriceSeries{"SHORT": short, "FULL": full},
		Now:     full.Bars[5].Date,
	}
	if err := m.Analyze(ctx); err != nil {
		t.Fatal(err)
	}

	orders, err := m.Execute(3000)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range orders {
		if o.Symbol == "SHORT" {
			t.Error("instrument with insufficient history must be excluded, not scored zero")
		}
	}
}

func TestMomentum_TiesKeepInputOrder(t *testing.T) {
	a := series("A", 100, 100, 100, 100, 100, 110)
	b := series("B", 50, 50, 50, 50, 50, 55) // same 10% momentum

	m := New(5, 1)
	ctx := strategy.AnalysisContext{
		Symbols: []string{"A", "B"},
		History: map[string]core.PriceSeries{"A": a, "B": b},
		Now:     a.Bars[5].Date,
	}
	if err := m.Analyze(ctx); err != nil {
		t.Fatal(err)
	}

	orders, err := m.Execute(1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].Symbol != "A" {
		t.Errorf("tie should keep input order (A first), got %+v", orders)
	}
}

func TestMomentum_AllocationUsesTopN(t *testing.T) {
	rising := series("B", 100, 110, 121, 133.1, 146.41, 161.05)

	m := New(5, 3)
	ctx := strategy.AnalysisContext{
		Symbols: []string{"B"},
		History: map[string]core.PriceSeries{"B": rising},
		Now:     rising.Bars[5].Date,
	}
	if err := m.Analyze(ctx); err != nil {
		t.Fatal(err)
	}

	// 3000/3 = 1000 per slot even though only one candidate ranked.
	orders, err := m.Execute(3000)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].Shares != 6 { // 1000 / 161.05
		t.Errorf("got %+v, want 6 shares of B", orders)
	}
}

func TestMomentum_ExecuteBeforeAnalyze(t *testing.T) {
	m := New(5, 3)
	_, err := m.Execute(1000)
	if !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}
