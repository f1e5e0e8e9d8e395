package bollinger_band

import (
	"fmt"
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"github.com/jtammen/stratsim/internal/indicator"
	"github.com/jtammen/stratsim/internal/strategy"
)

// BollingerBand buys when the close falls below the lower band and sells
// the position when it rises above the upper band.
type BollingerBand struct {
	window int
	numStd float64

	analyzed bool
	buys     []strategy.Candidate
	sells    []core.Order
	now      time.Time
}

// New creates a Bollinger band strategy.
func New(window int, numStd float64) *BollingerBand {
	return &BollingerBand{window: window, numStd: numStd}
}

func (b *BollingerBand) Name() string { return "bollinger_band" }

func (b *BollingerBand) Description() string {
	return fmt.Sprintf("Bollinger Band (%d, %.1f std)", b.window, b.numStd)
}

func (b *BollingerBand) Init(cfg strategy.Config) error {
	b.window = strategy.IntParam(cfg.Params, "window", b.window)
	b.numStd = strategy.FloatParam(cfg.Params, "num_std", b.numStd)
	if b.window < 2 || b.numStd <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("bollinger_band: need window > 1 and num_std > 0"))
	}
	return nil
}

func (b *BollingerBand) Analyze(ctx strategy.AnalysisContext) error {
	b.buys = nil
	b.sells = nil

	for _, symbol := range ctx.Symbols {
		closes := ctx.History[symbol].Closes()
		if len(closes) == 0 {
			continue
		}
		bands := indicator.Bollinger(closes, b.window, b.numStd)
		last := len(closes) - 1
		if !indicator.Defined(bands.Lower[last]) {
			continue
		}

		held := ctx.Held(symbol)
		switch {
		case closes[last] < bands.Lower[last] && held == 0:
			b.buys = append(b.buys, strategy.Candidate{Symbol: symbol, Price: closes[last]})
		case closes[last] > bands.Upper[last] && held > 0:
			b.sells = append(b.sells, core.Order{
				Symbol: symbol,
				Side:   core.SideSell,
				Price:  closes[last],
				Shares: held,
				Date:   ctx.Now,
			})
		}
	}

	b.now = ctx.Now
	b.analyzed = true
	return nil
}

func (b *BollingerBand) Execute(availableFunds float64) ([]core.Order, error) {
	if !b.analyzed {
		return nil, core.ErrInvalidState
	}
	b.analyzed = false

	orders := append([]core.Order(nil), b.sells...)
	orders = append(orders, strategy.EqualWeightBuys(b.buys, availableFunds, 0, b.now)...)
	return orders, nil
}
