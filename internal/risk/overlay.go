// Package risk post-processes investment logs: it annotates buy orders with
// stop-loss and take-profit prices, bounds position sizes, and optionally
// enforces exit thresholds against the recorded entry prices.
package risk

import (
	"math"

	"github.com/jtammen/stratsim/internal/core"
	"go.uber.org/zap"
)

// Config holds the overlay thresholds. Percentages are expressed as whole
// numbers (5 means 5%). A zero threshold disables the corresponding rule.
type Config struct {
	StopLossPct    float64 `mapstructure:"stop_loss_pct"`
	TakeProfitPct  float64 `mapstructure:"take_profit_pct"`
	MaxPositionPct float64 `mapstructure:"max_position_pct"`
	MinPositionPct float64 `mapstructure:"min_position_pct"`
}

// Overlay applies risk rules to order logs. All log transforms are pure:
// they return derived copies and never mutate the input.
type Overlay struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an Overlay with the given thresholds.
func New(cfg Config, logger ...*zap.Logger) *Overlay {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Overlay{cfg: cfg, logger: l}
}

// ApplyStopLoss returns a copy of the log in which every buy order carries a
// stop-loss price of entry*(1-pct/100). Sell orders pass through untouched.
func (o *Overlay) ApplyStopLoss(log []core.LogEntry) []core.LogEntry {
	if o.cfg.StopLossPct <= 0 {
		return core.CloneLog(log)
	}
	return o.annotate(log, func(r *core.RiskAnnotation, entry float64) {
		r.StopLossPrice = entry * (1 - o.cfg.StopLossPct/100)
	})
}

// ApplyTakeProfit returns a copy of the log in which every buy order carries
// a take-profit price of entry*(1+pct/100).
func (o *Overlay) ApplyTakeProfit(log []core.LogEntry) []core.LogEntry {
	if o.cfg.TakeProfitPct <= 0 {
		return core.CloneLog(log)
	}
	return o.annotate(log, func(r *core.RiskAnnotation, entry float64) {
		r.TakeProfitPrice = entry * (1 + o.cfg.TakeProfitPct/100)
	})
}

func (o *Overlay) annotate(log []core.LogEntry, set func(*core.RiskAnnotation, float64)) []core.LogEntry {
	out := core.CloneLog(log)
	for i := range out {
		for j := range out[i].Orders {
			order := &out[i].Orders[j]
			if order.Side != core.SideBuy {
				continue
			}
			if order.Risk == nil {
				order.Risk = &core.RiskAnnotation{}
			}
			set(order.Risk, order.Price)
		}
	}
	return out
}

// AdjustOrders bounds order sizes against the portfolio value. An order
// whose notional exceeds MaxPositionPct of the portfolio is clipped to the
// largest affordable share count; one that falls below MinPositionPct is
// dropped rather than rounded up. Clipping to zero shares drops the order.
func (o *Overlay) AdjustOrders(orders []core.Order, portfolioValue float64) []core.Order {
	if portfolioValue <= 0 {
		return orders
	}
	out := make([]core.Order, 0, len(orders))
	for _, order := range orders {
		if o.cfg.MaxPositionPct > 0 {
			maxNotional := o.cfg.MaxPositionPct / 100 * portfolioValue
			if order.Notional() > maxNotional {
				clipped := int64(math.Floor(maxNotional / order.Price))
				o.logger.Debug("clipping oversized order",
					zap.String("symbol", order.Symbol),
					zap.Int64("shares", order.Shares),
					zap.Int64("clipped", clipped))
				if clipped <= 0 {
					continue
				}
				order.Shares = clipped
			}
		}
		if o.cfg.MinPositionPct > 0 {
			minNotional := o.cfg.MinPositionPct / 100 * portfolioValue
			if order.Notional() < minNotional {
				o.logger.Debug("dropping undersized order",
					zap.String("symbol", order.Symbol),
					zap.Float64("notional", order.Notional()))
				continue
			}
		}
		out = append(out, order)
	}
	return out
}

// lot is one open buy, consumed first-in first-out by later sells.
type lot struct {
	price  float64
	shares int64
}

// EnforceExits returns a copy of the log in which a sell order survives only
// if its price breaches the stop-loss or take-profit threshold relative to
// the entry price of the oldest open buy for the same symbol. Sells with no
// recorded buy are kept as-is. Dropped sells leave their lots open, so a
// later qualifying sell can still close them.
func (o *Overlay) EnforceExits(log []core.LogEntry) []core.LogEntry {
	open := make(map[string][]lot)
	out := make([]core.LogEntry, 0, len(log))

	for _, entry := range log {
		kept := make([]core.Order, 0, len(entry.Orders))
		for _, order := range entry.Orders {
			switch order.Side {
			case core.SideBuy:
				open[order.Symbol] = append(open[order.Symbol], lot{price: order.Price, shares: order.Shares})
				kept = append(kept, order)
			case core.SideSell:
				lots := open[order.Symbol]
				if len(lots) == 0 {
					kept = append(kept, order)
					continue
				}
				if !o.breaches(lots[0].price, order.Price) {
					o.logger.Debug("dropping sell inside risk thresholds",
						zap.String("symbol", order.Symbol),
						zap.Float64("entry", lots[0].price),
						zap.Float64("exit", order.Price))
					continue
				}
				open[order.Symbol] = consume(lots, order.Shares)
				kept = append(kept, order)
			default:
				kept = append(kept, order)
			}
		}
		out = append(out, core.LogEntry{Date: entry.Date, Orders: kept})
	}
	return out
}

// breaches reports whether an exit price crosses either threshold relative
// to the entry price. With both thresholds disabled every exit qualifies.
func (o *Overlay) breaches(entry, exit float64) bool {
	if o.cfg.StopLossPct <= 0 && o.cfg.TakeProfitPct <= 0 {
		return true
	}
	if o.cfg.StopLossPct > 0 && exit <= entry*(1-o.cfg.StopLossPct/100) {
		return true
	}
	if o.cfg.TakeProfitPct > 0 && exit >= entry*(1+o.cfg.TakeProfitPct/100) {
		return true
	}
	return false
}

func consume(lots []lot, shares int64) []lot {
	for len(lots) > 0 && shares > 0 {
		if lots[0].shares > shares {
			lots[0].shares -= shares
			return lots
		}
		shares -= lots[0].shares
		lots = lots[1:]
	}
	return lots
}
