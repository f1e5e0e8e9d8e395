// Package ledger provides the simulated portfolio: free cash plus open
// positions, with order application, mark-to-market valuation, and
// equal-weight rebalancing.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"go.uber.org/zap"
)

// Position is a holding in one instrument. CostBasis is the volume-weighted
// average price paid for the currently held shares.
type Position struct {
	Symbol    string
	Shares    int64
	CostBasis float64
}

// Ledger tracks cash and positions for a single simulation run. It is not
// safe for concurrent use; each run owns exactly one Ledger.
type Ledger struct {
	cash      float64
	positions map[string]*Position
	logger    *zap.Logger
}

// New creates a Ledger seeded with the initial cash balance.
func New(initialCash float64, logger ...*zap.Logger) *Ledger {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Ledger{
		cash:      initialCash,
		positions: make(map[string]*Position),
		logger:    l,
	}
}

// Cash returns the free cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// Position returns a copy of the position for a symbol.
func (l *Ledger) Position(symbol string) (Position, bool) {
	pos, ok := l.positions[symbol]
	if !ok {
		return Position{Symbol: symbol}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions, sorted by symbol.
func (l *Ledger) Positions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Holdings returns the held share count per symbol.
func (l *Ledger) Holdings() map[string]int64 {
	out := make(map[string]int64, len(l.positions))
	for symbol, pos := range l.positions {
		out[symbol] = pos.Shares
	}
	return out
}

// ExecuteOrders applies orders sequentially in input order. A buy opens or
// extends a position, recomputing the cost basis as the weighted average; a
// sell reduces it, removing the position at zero shares. Violations abort on
// the offending order: a buy beyond available cash returns
// core.ErrInsufficientFunds, a sell beyond held shares returns
// core.ErrInsufficientPosition. Orders are never silently clamped.
func (l *Ledger) ExecuteOrders(orders []core.Order) error {
	for _, order := range orders {
		switch order.Side {
		case core.SideBuy:
			if err := l.applyBuy(order); err != nil {
				return err
			}
		case core.SideSell:
			if err := l.applySell(order); err != nil {
				return err
			}
		default:
			return core.WrapError(core.ErrUnknownSide,
				fmt.Errorf("%s %q", order.Symbol, order.Side))
		}
	}
	return nil
}

func (l *Ledger) applyBuy(order core.Order) error {
	cost := order.Notional()
	if cost > l.cash {
		return core.WrapError(core.ErrInsufficientFunds,
			fmt.Errorf("buy %s x%d @ %.2f needs %.2f, cash %.2f",
				order.Symbol, order.Shares, order.Price, cost, l.cash))
	}
	l.cash -= cost

	pos, ok := l.positions[order.Symbol]
	if !ok {
		l.positions[order.Symbol] = &Position{
			Symbol:    order.Symbol,
			Shares:    order.Shares,
			CostBasis: order.Price,
		}
		return nil
	}

	// New basis is the weighted average of the old lot and this fill.
	total := float64(pos.Shares)*pos.CostBasis + cost
	pos.Shares += order.Shares
	pos.CostBasis = total / float64(pos.Shares)
	return nil
}

func (l *Ledger) applySell(order core.Order) error {
	pos, ok := l.positions[order.Symbol]
	if !ok || pos.Shares < order.Shares {
		var held int64
		if ok {
			held = pos.Shares
		}
		return core.WrapError(core.ErrInsufficientPosition,
			fmt.Errorf("sell %s x%d, held %d", order.Symbol, order.Shares, held))
	}

	l.cash += order.Notional()
	pos.Shares -= order.Shares
	if pos.Shares == 0 {
		delete(l.positions, order.Symbol)
	}
	return nil
}

// Value marks the portfolio to market as of a date: cash plus, for each
// position, shares times the last close on or before asOf. A position with
// no price in range contributes zero and logs a data gap instead of failing
// the valuation.
func (l *Ledger) Value(history map[string]core.PriceSeries, asOf time.Time) float64 {
	total := l.cash
	for symbol, pos := range l.positions {
		price, ok := history[symbol].LastCloseOnOrBefore(asOf)
		if !ok {
			l.logger.Warn("valuation data gap",
				zap.String("symbol", symbol),
				zap.Time("as_of", asOf))
			continue
		}
		total += float64(pos.Shares) * price
	}
	return total
}

// Rebalance equalizes position weights: positions whose weight deviates from
// 1/N beyond the tolerance are sold down or bought up toward the target.
// Sells run first so their proceeds fund the buys. The applied orders are
// returned for the investment log. Positions without a price as of the date
// are left untouched.
func (l *Ledger) Rebalance(history map[string]core.PriceSeries, asOf time.Time, tolerance float64) ([]core.Order, error) {
	type priced struct {
		pos   *Position
		price float64
	}

	symbols := make([]string, 0, len(l.positions))
	for symbol := range l.positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var holdings []priced
	for _, symbol := range symbols {
		price, ok := history[symbol].LastCloseOnOrBefore(asOf)
		if !ok {
			l.logger.Warn("rebalance skipping symbol without price",
				zap.String("symbol", symbol),
				zap.Time("as_of", asOf))
			continue
		}
		holdings = append(holdings, priced{pos: l.positions[symbol], price: price})
	}
	if len(holdings) == 0 {
		return nil, nil
	}

	value := l.Value(history, asOf)
	if value <= 0 {
		return nil, nil
	}
	target := value / float64(len(holdings))

	var orders []core.Order
	// Overweight positions first: liquidate down to target.
	for _, h := range holdings {
		mv := float64(h.pos.Shares) * h.price
		if mv/value <= 1/float64(len(holdings))+tolerance {
			continue
		}
		keep := int64(target / h.price)
		excess := h.pos.Shares - keep
		if excess <= 0 {
			continue
		}
		orders = append(orders, core.Order{
			Symbol: h.pos.Symbol,
			Side:   core.SideSell,
			Price:  h.price,
			Shares: excess,
			Date:   asOf,
		})
	}
	if err := l.ExecuteOrders(orders); err != nil {
		return nil, err
	}

	// Underweight positions: redistribute the proceeds.
	var buys []core.Order
	for _, h := range holdings {
		mv := float64(h.pos.Shares) * h.price
		if mv/value >= 1/float64(len(holdings))-tolerance {
			continue
		}
		shares := int64((target - mv) / h.price)
		if shares <= 0 {
			continue
		}
		if cost := float64(shares) * h.price; cost > l.cash {
			shares = int64(l.cash / h.price)
			if shares <= 0 {
				continue
			}
		}
		buys = append(buys, core.Order{
			Symbol: h.pos.Symbol,
			Side:   core.SideBuy,
			Price:  h.price,
			Shares: shares,
			Date:   asOf,
		})
	}
	if err := l.ExecuteOrders(buys); err != nil {
		return nil, err
	}

	return append(orders, buys...), nil
}
