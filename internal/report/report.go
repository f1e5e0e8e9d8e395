// Package report reduces an investment log into a portfolio-value time
// series and summary performance metrics.
package report

import (
	"sort"
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"go.uber.org/zap"
)

// ValuePoint is one dated portfolio valuation.
type ValuePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// InstrumentSummary aggregates activity for one instrument.
type InstrumentSummary struct {
	Symbol         string  `json:"symbol"`
	Buys           int     `json:"buys"`
	Sells          int     `json:"sells"`
	Invested       float64 `json:"invested"`
	Earnings       float64 `json:"earnings"`
	PerformancePct float64 `json:"performance_pct"`
}

// Summary is the reduced view of a whole run.
type Summary struct {
	Investment   float64             `json:"investment"`
	Earnings     float64             `json:"earnings"`
	TotalReturns float64             `json:"total_returns"`
	Instruments  []InstrumentSummary `json:"instruments"`
}

// Reporter derives reports from investment logs. It never mutates its
// inputs, so the same Reporter may serve multiple runs.
type Reporter struct {
	logger *zap.Logger
}

// New creates a Reporter.
func New(logger ...*zap.Logger) *Reporter {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Reporter{logger: l}
}

// ValueSeries produces one valuation per log entry: the cumulative net
// shares of every instrument ordered so far, marked at the last close on or
// before the entry date. Cash is excluded; an instrument without a price by
// the date contributes zero and logs a data gap.
func (r *Reporter) ValueSeries(log []core.LogEntry, history map[string]core.PriceSeries) []ValuePoint {
	shares := make(map[string]int64)
	out := make([]ValuePoint, 0, len(log))

	for _, entry := range log {
		for _, order := range entry.Orders {
			switch order.Side {
			case core.SideBuy:
				shares[order.Symbol] += order.Shares
			case core.SideSell:
				shares[order.Symbol] -= order.Shares
			}
		}

		var value float64
		for symbol, held := range shares {
			if held == 0 {
				continue
			}
			price, ok := history[symbol].LastCloseOnOrBefore(entry.Date)
			if !ok {
				r.logger.Warn("value series data gap",
					zap.String("symbol", symbol),
					zap.Time("date", entry.Date))
				continue
			}
			value += float64(held) * price
		}
		out = append(out, ValuePoint{Date: entry.Date, Value: value})
	}
	return out
}

// position tracks running shares and average cost while replaying a log.
type position struct {
	shares int64
	basis  float64
}

// Summarize replays the log and reduces it to realized earnings per
// instrument. A sell realizes shares*(price-basis) against the weighted
// average cost of the shares held at that point; unrealized gains on open
// positions are not counted. TotalReturns is investment plus earnings.
func (r *Reporter) Summarize(log []core.LogEntry, investment float64) Summary {
	type tally struct {
		position
		buys, sells int
		invested    float64
		earnings    float64
	}
	bysym := make(map[string]*tally)
	get := func(symbol string) *tally {
		t, ok := bysym[symbol]
		if !ok {
			t = &tally{}
			bysym[symbol] = t
		}
		return t
	}

	for _, entry := range log {
		for _, order := range entry.Orders {
			t := get(order.Symbol)
			switch order.Side {
			case core.SideBuy:
				t.buys++
				t.invested += order.Notional()
				total := float64(t.shares)*t.basis + order.Notional()
				t.shares += order.Shares
				t.basis = total / float64(t.shares)
			case core.SideSell:
				t.sells++
				t.earnings += float64(order.Shares) * (order.Price - t.basis)
				t.shares -= order.Shares
				if t.shares <= 0 {
					t.shares = 0
					t.basis = 0
				}
			}
		}
	}

	symbols := make([]string, 0, len(bysym))
	for symbol := range bysym {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	summary := Summary{Investment: investment}
	for _, symbol := range symbols {
		t := bysym[symbol]
		inst := InstrumentSummary{
			Symbol:   symbol,
			Buys:     t.buys,
			Sells:    t.sells,
			Invested: t.invested,
			Earnings: t.earnings,
		}
		if t.invested > 0 {
			inst.PerformancePct = t.earnings / t.invested * 100
		}
		summary.Earnings += t.earnings
		summary.Instruments = append(summary.Instruments, inst)
	}
	summary.TotalReturns = investment + summary.Earnings
	return summary
}
