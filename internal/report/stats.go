package report

import (
	"math"
	"sort"

	"github.com/jtammen/stratsim/internal/core"
)

// Trade is one round trip in an instrument, from the first opening buy to
// the sell that flattened the position. An open position at the end of the
// log becomes an unclosed trade marked at the last known close.
type Trade struct {
	Symbol     string  `json:"symbol"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Return     float64 `json:"return"`
	Closed     bool    `json:"closed"`
}

// IsWin reports whether the trade was profitable.
func (t Trade) IsWin() bool {
	return t.Return > 0
}

// Stats holds run-level performance statistics.
type Stats struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`     // percentage of profitable closed trades
	TotalReturn   float64 `json:"total_return"` // sum of per-trade returns, percent
	MaxDrawdown   float64 `json:"max_drawdown"` // largest peak-to-trough decline, percent
	SharpeRatio   float64 `json:"sharpe_ratio"` // annualized, risk-free rate 0
}

// Trades replays the log into round trips. Entry price is the weighted
// average of the buys that opened the position; a sell that brings shares to
// zero closes the trip. Positions still open at the end are marked at the
// last close on or before the final log date.
func (r *Reporter) Trades(log []core.LogEntry, history map[string]core.PriceSeries) []Trade {
	open := make(map[string]*position)
	var trades []Trade

	for _, entry := range log {
		for _, order := range entry.Orders {
			switch order.Side {
			case core.SideBuy:
				pos, ok := open[order.Symbol]
				if !ok {
					pos = &position{}
					open[order.Symbol] = pos
				}
				total := float64(pos.shares)*pos.basis + order.Notional()
				pos.shares += order.Shares
				pos.basis = total / float64(pos.shares)
			case core.SideSell:
				pos, ok := open[order.Symbol]
				if !ok || pos.shares == 0 {
					continue
				}
				pos.shares -= order.Shares
				if pos.shares <= 0 {
					trades = append(trades, Trade{
						Symbol:     order.Symbol,
						EntryPrice: pos.basis,
						ExitPrice:  order.Price,
						Return:     (order.Price - pos.basis) / pos.basis,
						Closed:     true,
					})
					delete(open, order.Symbol)
				}
			}
		}
	}

	if len(open) > 0 && len(log) > 0 {
		last := log[len(log)-1].Date
		symbols := make([]string, 0, len(open))
		for symbol := range open {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)
		for _, symbol := range symbols {
			pos := open[symbol]
			trade := Trade{Symbol: symbol, EntryPrice: pos.basis}
			if price, ok := history[symbol].LastCloseOnOrBefore(last); ok {
				trade.ExitPrice = price
				trade.Return = (price - pos.basis) / pos.basis
			}
			trades = append(trades, trade)
		}
	}
	return trades
}

// CalculateStats computes performance statistics from round trips.
func CalculateStats(trades []Trade) Stats {
	if len(trades) == 0 {
		return Stats{}
	}

	var winning, losing int
	var totalReturn float64
	var returns []float64

	for _, t := range trades {
		if !t.Closed {
			continue
		}
		returns = append(returns, t.Return)
		totalReturn += t.Return
		if t.IsWin() {
			winning++
		} else {
			losing++
		}
	}

	closed := winning + losing
	var winRate float64
	if closed > 0 {
		winRate = float64(winning) / float64(closed) * 100
	}

	return Stats{
		TotalTrades:   len(trades),
		WinningTrades: winning,
		LosingTrades:  losing,
		WinRate:       winRate,
		TotalReturn:   totalReturn * 100,
		MaxDrawdown:   maxDrawdown(returns) * 100,
		SharpeRatio:   sharpeRatio(returns),
	}
}

// maxDrawdown finds the largest peak-to-trough decline over the compounded
// return path.
func maxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var maxDD float64
	var peak float64
	cumulative := 1.0

	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		if peak > 0 {
			dd := (peak - cumulative) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpeRatio computes the annualized risk-adjusted return, assuming a
// risk-free rate of zero and ~252 trading days.
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))
	if stdDev == 0 {
		return 0
	}

	return (mean * 252) / (stdDev * math.Sqrt(252))
}
