package rsi_band

import (
	"fmt"
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"github.com/jtammen/stratsim/internal/indicator"
	"github.com/jtammen/stratsim/internal/strategy"
)

// RSIBand buys oversold instruments (RSI below the lower threshold) and
// sells overbought positions (RSI above the upper threshold).
type RSIBand struct {
	period    int
	rsiMin    float64
	rsiMax    float64
	smoothing indicator.Smoothing

	analyzed bool
	buys     []strategy.Candidate
	sells    []core.Order
	now      time.Time
}

// New creates an RSI band strategy with Wilder smoothing.
func New(period int, rsiMin, rsiMax float64) *RSIBand {
	return &RSIBand{period: period, rsiMin: rsiMin, rsiMax: rsiMax, smoothing: indicator.SmoothingEMA}
}

func (r *RSIBand) Name() string { return "rsi_band" }

func (r *RSIBand) Description() string {
	return fmt.Sprintf("RSI Band (%d, buy < %.0f, sell > %.0f)", r.period, r.rsiMin, r.rsiMax)
}

func (r *RSIBand) Init(cfg strategy.Config) error {
	r.period = strategy.IntParam(cfg.Params, "period", r.period)
	r.rsiMin = strategy.FloatParam(cfg.Params, "rsi_min", r.rsiMin)
	r.rsiMax = strategy.FloatParam(cfg.Params, "rsi_max", r.rsiMax)
	if s, ok := cfg.Params["smoothing"].(string); ok {
		r.smoothing = indicator.Smoothing(s)
	}
	if r.period < 1 || r.rsiMin >= r.rsiMax {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("rsi_band: need period > 0 and rsi_min < rsi_max"))
	}
	return nil
}

// Analyze evaluates the RSI on the latest bar. Undefined warm-up values
// produce no signal.
func (r *RSIBand) Analyze(ctx strategy.AnalysisContext) error {
	r.buys = nil
	r.sells = nil

	for _, symbol := range ctx.Symbols {
		closes := ctx.History[symbol].Closes()
		if len(closes) == 0 {
			continue
		}
		rsi := indicator.RSI(closes, r.period, r.smoothing)
		last := len(closes) - 1
		if !indicator.Defined(rsi[last]) {
			continue
		}

		held := ctx.Held(symbol)
		switch {
		case rsi[last] < r.rsiMin && held == 0:
			r.buys = append(r.buys, strategy.Candidate{Symbol: symbol, Price: closes[last], Score: rsi[last]})
		case rsi[last] > r.rsiMax && held > 0:
			r.sells = append(r.sells, core.Order{
				Symbol: symbol,
				Side:   core.SideSell,
				Price:  closes[last],
				Shares: held,
				Date:   ctx.Now,
			})
		}
	}

	r.now = ctx.Now
	r.analyzed = true
	return nil
}

func (r *RSIBand) Execute(availableFunds float64) ([]core.Order, error) {
	if !r.analyzed {
		return nil, core.ErrInvalidState
	}
	r.analyzed = false

	orders := append([]core.Order(nil), r.sells...)
	orders = append(orders, strategy.EqualWeightBuys(r.buys, availableFunds, 0, r.now)...)
	return orders, nil
}
