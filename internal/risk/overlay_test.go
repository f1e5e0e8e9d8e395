package risk_test

import (
	"testing"
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"github.com/jtammen/stratsim/internal/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func sampleLog() []core.LogEntry {
	return []core.LogEntry{
		{Date: day(0), Orders: []core.Order{
			{Symbol: "A", Side: core.SideBuy, Price: 100, Shares: 5, Date: day(0)},
		}},
		{Date: day(1), Orders: []core.Order{
			{Symbol: "A", Side: core.SideSell, Price: 104, Shares: 5, Date: day(1)},
			{Symbol: "B", Side: core.SideBuy, Price: 50, Shares: 2, Date: day(1)},
		}},
	}
}

func TestOverlay_ApplyStopLossAnnotatesBuys(t *testing.T) {
	o := risk.New(risk.Config{StopLossPct: 5})
	out := o.ApplyStopLoss(sampleLog())

	require.NotNil(t, out[0].Orders[0].Risk)
	assert.InDelta(t, 95, out[0].Orders[0].Risk.StopLossPrice, 1e-9)

	require.NotNil(t, out[1].Orders[1].Risk)
	assert.InDelta(t, 47.5, out[1].Orders[1].Risk.StopLossPrice, 1e-9)

	assert.Nil(t, out[1].Orders[0].Risk, "sell orders must not be annotated")
}

func TestOverlay_ApplyTakeProfitKeepsStopLoss(t *testing.T) {
	o := risk.New(risk.Config{StopLossPct: 5, TakeProfitPct: 10})
	out := o.ApplyTakeProfit(o.ApplyStopLoss(sampleLog()))

	r := out[0].Orders[0].Risk
	require.NotNil(t, r)
	assert.InDelta(t, 95, r.StopLossPrice, 1e-9)
	assert.InDelta(t, 110, r.TakeProfitPrice, 1e-9)
}

func TestOverlay_AnnotationDoesNotMutateInput(t *testing.T) {
	log := sampleLog()
	risk.New(risk.Config{StopLossPct: 5}).ApplyStopLoss(log)
	assert.Nil(t, log[0].Orders[0].Risk, "input log was mutated")
}

func TestOverlay_ZeroThresholdStillClones(t *testing.T) {
	log := sampleLog()
	out := risk.New(risk.Config{}).ApplyStopLoss(log)
	require.Len(t, out, len(log))

	out[0].Orders[0].Price = 1
	assert.NotEqual(t, 1.0, log[0].Orders[0].Price, "returned log aliases the input")
}

func TestOverlay_AdjustOrdersClipsOversized(t *testing.T) {
	o := risk.New(risk.Config{MaxPositionPct: 20})
	orders := []core.Order{
		{Symbol: "A", Side: core.SideBuy, Price: 100, Shares: 5}, // 500 of 1000 = 50%
	}
	out := o.AdjustOrders(orders, 1000)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].Shares, "200 is 20%% of 1000")
}

func TestOverlay_AdjustOrdersDropsClippedToZero(t *testing.T) {
	o := risk.New(risk.Config{MaxPositionPct: 5})
	orders := []core.Order{
		{Symbol: "A", Side: core.SideBuy, Price: 100, Shares: 3}, // max notional 50 < one share
	}
	assert.Empty(t, o.AdjustOrders(orders, 1000))
}

func TestOverlay_AdjustOrdersDropsUndersized(t *testing.T) {
	o := risk.New(risk.Config{MinPositionPct: 10})
	orders := []core.Order{
		{Symbol: "A", Side: core.SideBuy, Price: 10, Shares: 5},  // 50 < 100
		{Symbol: "B", Side: core.SideBuy, Price: 100, Shares: 2}, // 200 >= 100
	}
	out := o.AdjustOrders(orders, 1000)
	require.Len(t, out, 1)
	assert.Equal(t, "B", out[0].Symbol)
}

func TestOverlay_EnforceExitsDropsSellInsideThresholds(t *testing.T) {
	o := risk.New(risk.Config{StopLossPct: 5, TakeProfitPct: 10})
	out := o.EnforceExits(sampleLog()) // sell at 104 vs entry 100: neither 95 nor 110

	require.Len(t, out[1].Orders, 1)
	assert.Equal(t, core.SideBuy, out[1].Orders[0].Side, "only the B buy survives")
}

func TestOverlay_EnforceExitsKeepsBreachingSell(t *testing.T) {
	o := risk.New(risk.Config{StopLossPct: 5, TakeProfitPct: 10})
	log := []core.LogEntry{
		{Date: day(0), Orders: []core.Order{
			{Symbol: "A", Side: core.SideBuy, Price: 100, Shares: 5, Date: day(0)},
		}},
		{Date: day(1), Orders: []core.Order{
			{Symbol: "A", Side: core.SideSell, Price: 94, Shares: 5, Date: day(1)},
		}},
	}
	out := o.EnforceExits(log)
	require.Len(t, out[1].Orders, 1)
	assert.Equal(t, 94.0, out[1].Orders[0].Price, "stop-loss sell must be kept")
}

func TestOverlay_EnforceExitsMatchesOldestLot(t *testing.T) {
	o := risk.New(risk.Config{TakeProfitPct: 10})
	log := []core.LogEntry{
		{Date: day(0), Orders: []core.Order{
			{Symbol: "A", Side: core.SideBuy, Price: 100, Shares: 2, Date: day(0)},
		}},
		{Date: day(1), Orders: []core.Order{
			{Symbol: "A", Side: core.SideBuy, Price: 120, Shares: 2, Date: day(1)},
		}},
		{Date: day(2), Orders: []core.Order{
			// 112 breaches +10% of the oldest lot (100), not of the later 120.
			{Symbol: "A", Side: core.SideSell, Price: 112, Shares: 2, Date: day(2)},
			// The first sell consumed the 100 lot; 112 is inside +10% of 120.
			{Symbol: "A", Side: core.SideSell, Price: 112, Shares: 2, Date: day(2)},
		}},
	}
	out := o.EnforceExits(log)
	assert.Len(t, out[2].Orders, 1, "exactly the first sell is kept")
}

func TestOverlay_EnforceExitsKeepsSellWithoutRecordedBuy(t *testing.T) {
	o := risk.New(risk.Config{StopLossPct: 5})
	log := []core.LogEntry{
		{Date: day(0), Orders: []core.Order{
			{Symbol: "A", Side: core.SideSell, Price: 100, Shares: 1, Date: day(0)},
		}},
	}
	out := o.EnforceExits(log)
	assert.Len(t, out[0].Orders, 1, "unmatched sell passes through")
}
