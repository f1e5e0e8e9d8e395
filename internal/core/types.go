package core

import (
	"fmt"
	"time"
)

// PriceBar represents one daily OHLCV bar.
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// PriceSeries holds the bars for one instrument, ordered by date ascending
// with no duplicate dates. It is supplied by a data collaborator and treated
// as immutable for the duration of a simulation run.
type PriceSeries struct {
	Symbol string
	Bars   []PriceBar
}

// Len returns the number of bars.
func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// Closes extracts the closing prices in date order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// UpTo returns the prefix of the series with dates on or before asOf.
// The returned series shares the underlying bar storage.
func (s PriceSeries) UpTo(asOf time.Time) PriceSeries {
	n := len(s.Bars)
	for n > 0 && s.Bars[n-1].Date.After(asOf) {
		n--
	}
	return PriceSeries{Symbol: s.Symbol, Bars: s.Bars[:n]}
}

// LastCloseOnOrBefore returns the most recent close at or before asOf.
// The second return value is false when the series has no bar in range.
func (s PriceSeries) LastCloseOnOrBefore(asOf time.Time) (float64, bool) {
	for i := len(s.Bars) - 1; i >= 0; i-- {
		if !s.Bars[i].Date.After(asOf) {
			return s.Bars[i].Close, true
		}
	}
	return 0, false
}

// Validate checks the series ordering invariant: dates strictly increasing.
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return WrapError(ErrSeriesOrder,
				fmt.Errorf("%s: bar %d (%s) not after bar %d (%s)",
					s.Symbol, i, s.Bars[i].Date.Format("2006-01-02"),
					i-1, s.Bars[i-1].Date.Format("2006-01-02")))
		}
	}
	return nil
}

// Side represents the direction of an order.
type Side string

const (
	// SideBuy represents a buy order.
	SideBuy Side = "BUY"
	// SideSell represents a sell order.
	SideSell Side = "SELL"
)

// RiskAnnotation carries advisory stop-loss and take-profit prices attached
// to a buy order by the risk overlay. Zero values mean "not set".
type RiskAnnotation struct {
	StopLossPrice   float64 `json:"stop_loss_price,omitempty"`
	TakeProfitPrice float64 `json:"take_profit_price,omitempty"`
}

// Order is one simulated order. Shares are whole shares, floor-divided from
// the cash allocated to the instrument; an order is never created with zero
// shares.
type Order struct {
	Symbol string          `json:"symbol"`
	Side   Side            `json:"side"`
	Price  float64         `json:"price"`
	Shares int64           `json:"shares"`
	Date   time.Time       `json:"date"`
	Risk   *RiskAnnotation `json:"risk,omitempty"`
}

// Notional returns the cash value of the order.
func (o Order) Notional() float64 {
	return o.Price * float64(o.Shares)
}

// Signal is the per-date buy/sell decision pair a rule produces for one
// instrument. Mutual exclusion in effect (no buy while in position, no sell
// while flat) is enforced by the strategy and driver, not here.
type Signal struct {
	Buy  bool
	Sell bool
}

// LogEntry records the orders produced by one simulation step.
type LogEntry struct {
	Date   time.Time `json:"date"`
	Orders []Order   `json:"orders"`
}

// CloneLog deep-copies an investment log. The risk overlay uses it to derive
// annotated logs without mutating history.
func CloneLog(log []LogEntry) []LogEntry {
	out := make([]LogEntry, len(log))
	for i, entry := range log {
		orders := make([]Order, len(entry.Orders))
		for j, o := range entry.Orders {
			if o.Risk != nil {
				risk := *o.Risk
				o.Risk = &risk
			}
			orders[j] = o
		}
		out[i] = LogEntry{Date: entry.Date, Orders: orders}
	}
	return out
}
