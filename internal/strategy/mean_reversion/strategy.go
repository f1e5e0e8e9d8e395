package mean_reversion

import (
	"fmt"
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"github.com/jtammen/stratsim/internal/indicator"
	"github.com/jtammen/stratsim/internal/strategy"
)

// MeanReversion buys instruments currently trading below their moving
// average, betting on a reversion to it.
type MeanReversion struct {
	maPeriod int

	analyzed   bool
	candidates []strategy.Candidate
	now        time.Time
}

// New creates a MeanReversion strategy with the given moving-average period.
func New(maPeriod int) *MeanReversion {
	return &MeanReversion{maPeriod: maPeriod}
}

func (m *MeanReversion) Name() string { return "mean_reversion" }

func (m *MeanReversion) Description() string {
	return fmt.Sprintf("Mean Reversion (below MA%d)", m.maPeriod)
}

func (m *MeanReversion) Init(cfg strategy.Config) error {
	m.maPeriod = strategy.IntParam(cfg.Params, "ma_period", m.maPeriod)
	if m.maPeriod < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("mean_reversion: ma_period must be positive"))
	}
	return nil
}

// Analyze selects instruments whose current close is below the moving
// average. Instruments without a full MA window are skipped.
func (m *MeanReversion) Analyze(ctx strategy.AnalysisContext) error {
	var candidates []strategy.Candidate
	for _, symbol := range ctx.Symbols {
		closes := ctx.History[symbol].Closes()
		if len(closes) == 0 {
			continue
		}
		ma := indicator.SMA(closes, m.maPeriod)
		last := len(closes) - 1
		if !indicator.Defined(ma[last]) {
			continue
		}
		if closes[last] < ma[last] {
			candidates = append(candidates, strategy.Candidate{
				Symbol: symbol,
				Price:  closes[last],
				Score:  (ma[last] - closes[last]) / ma[last],
			})
		}
	}

	m.candidates = candidates
	m.now = ctx.Now
	m.analyzed = true
	return nil
}

// Execute allocates the available funds equal-weight across candidates.
func (m *MeanReversion) Execute(availableFunds float64) ([]core.Order, error) {
	if !m.analyzed {
		return nil, core.ErrInvalidState
	}
	m.analyzed = false
	return strategy.EqualWeightBuys(m.candidates, availableFunds, 0, m.now), nil
}
