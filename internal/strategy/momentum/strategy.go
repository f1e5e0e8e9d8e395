package momentum

import (
	"fmt"
	"sort"
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"github.com/jtammen/stratsim/internal/strategy"
)

// Momentum ranks instruments by percentage price change over a trailing
// window equal to the investment cycle length and buys the top N.
type Momentum struct {
	cycle int // ranking window in bars
	topN  int

	analyzed bool
	ranked   []strategy.Candidate
	now      time.Time
}

// New creates a Momentum strategy ranking over cycle bars.
func New(cycle, topN int) *Momentum {
	return &Momentum{cycle: cycle, topN: topN}
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) Description() string {
	return fmt.Sprintf("Momentum (window %d, top %d)", m.cycle, m.topN)
}

func (m *Momentum) Init(cfg strategy.Config) error {
	m.cycle = strategy.IntParam(cfg.Params, "cycle", m.cycle)
	m.topN = strategy.IntParam(cfg.Params, "top_n", m.topN)
	if m.cycle < 1 || m.topN < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("momentum: cycle and top_n must be positive"))
	}
	return nil
}

// Analyze ranks instruments by trailing return. Instruments with fewer bars
// than the cycle window are excluded from the ranking, not scored zero.
// Ties keep the configured symbol order.
func (m *Momentum) Analyze(ctx strategy.AnalysisContext) error {
	var scored []strategy.Candidate
	for _, symbol := range ctx.Symbols {
		series := ctx.History[symbol]
		closes := series.Closes()
		if len(closes) <= m.cycle {
			continue
		}
		last := closes[len(closes)-1]
		base := closes[len(closes)-1-m.cycle]
		if base == 0 {
			continue
		}
		scored = append(scored, strategy.Candidate{
			Symbol: symbol,
			Price:  last,
			Score:  (last - base) / base,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	m.ranked = scored
	m.now = ctx.Now
	m.analyzed = true
	return nil
}

// Execute buys the top-N ranked candidates, allocating funds/topN to each.
// With fewer than N candidates the per-candidate allocation is unchanged.
func (m *Momentum) Execute(availableFunds float64) ([]core.Order, error) {
	if !m.analyzed {
		return nil, core.ErrInvalidState
	}
	m.analyzed = false

	top := m.ranked
	if len(top) > m.topN {
		top = top[:m.topN]
	}
	return strategy.EqualWeightBuys(top, availableFunds, m.topN, m.now), nil
}
