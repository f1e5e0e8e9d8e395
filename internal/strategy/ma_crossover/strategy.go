package ma_crossover

import (
	"fmt"
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"github.com/jtammen/stratsim/internal/indicator"
	"github.com/jtammen/stratsim/internal/strategy"
)

// MACrossover trades moving average crossovers: buy when the short MA
// crosses above the long MA, sell the position on the symmetric cross-down.
type MACrossover struct {
	shortPeriod int
	longPeriod  int

	analyzed bool
	buys     []strategy.Candidate
	sells    []core.Order
	now      time.Time
}

// New creates an MA Crossover strategy.
func New(shortPeriod, longPeriod int) *MACrossover {
	return &MACrossover{shortPeriod: shortPeriod, longPeriod: longPeriod}
}

func (m *MACrossover) Name() string { return "ma_crossover" }

func (m *MACrossover) Description() string {
	return fmt.Sprintf("MA Crossover (%d/%d)", m.shortPeriod, m.longPeriod)
}

func (m *MACrossover) Init(cfg strategy.Config) error {
	m.shortPeriod = strategy.IntParam(cfg.Params, "short_period", m.shortPeriod)
	m.longPeriod = strategy.IntParam(cfg.Params, "long_period", m.longPeriod)
	if m.shortPeriod < 1 || m.longPeriod <= m.shortPeriod {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("ma_crossover: need 0 < short_period < long_period"))
	}
	return nil
}

// Analyze detects crossovers on the latest bar. A golden cross (today
// short > long, yesterday short <= long) marks a buy candidate for flat
// instruments; a death cross sells the full held position.
func (m *MACrossover) Analyze(ctx strategy.AnalysisContext) error {
	m.buys = nil
	m.sells = nil

	for _, symbol := range ctx.Symbols {
		closes := ctx.History[symbol].Closes()
		shortMA := indicator.SMA(closes, m.shortPeriod)
		longMA := indicator.SMA(closes, m.longPeriod)

		last := len(closes) - 1
		if last < 1 || !indicator.Defined(longMA[last]) || !indicator.Defined(longMA[last-1]) {
			continue
		}

		sig := core.Signal{
			Buy:  shortMA[last] > longMA[last] && shortMA[last-1] <= longMA[last-1],
			Sell: shortMA[last] < longMA[last] && shortMA[last-1] >= longMA[last-1],
		}
		held := ctx.Held(symbol)

		switch {
		case sig.Buy && held == 0:
			m.buys = append(m.buys, strategy.Candidate{Symbol: symbol, Price: closes[last]})
		case sig.Sell && held > 0:
			m.sells = append(m.sells, core.Order{
				Symbol: symbol,
				Side:   core.SideSell,
				Price:  closes[last],
				Shares: held,
				Date:   ctx.Now,
			})
		}
	}

	m.now = ctx.Now
	m.analyzed = true
	return nil
}

// Execute emits the cross-down sells followed by equal-weight cross-up buys.
func (m *MACrossover) Execute(availableFunds float64) ([]core.Order, error) {
	if !m.analyzed {
		return nil, core.ErrInvalidState
	}
	m.analyzed = false

	orders := append([]core.Order(nil), m.sells...)
	orders = append(orders, strategy.EqualWeightBuys(m.buys, availableFunds, 0, m.now)...)
	return orders, nil
}
