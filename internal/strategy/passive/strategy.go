package passive

import (
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"github.com/jtammen/stratsim/internal/strategy"
)

// Passive is a buy-and-hold rule: every instrument with price data is a
// candidate at equal weight, every step.
type Passive struct {
	analyzed   bool
	candidates []strategy.Candidate
	now        time.Time
}

// New creates a Passive strategy.
func New() *Passive {
	return &Passive{}
}

func (p *Passive) Name() string { return "passive" }

func (p *Passive) Description() string { return "Passive equal-weight buy-and-hold" }

func (p *Passive) Init(cfg strategy.Config) error { return nil }

func (p *Passive) Analyze(ctx strategy.AnalysisContext) error {
	var candidates []strategy.Candidate
	for _, symbol := range ctx.Symbols {
		series := ctx.History[symbol]
		if series.Len() == 0 {
			continue
		}
		candidates = append(candidates, strategy.Candidate{
			Symbol: symbol,
			Price:  series.Bars[series.Len()-1].Close,
		})
	}

	p.candidates = candidates
	p.now = ctx.Now
	p.analyzed = true
	return nil
}

func (p *Passive) Execute(availableFunds float64) ([]core.Order, error) {
	if !p.analyzed {
		return nil, core.ErrInvalidState
	}
	p.analyzed = false
	return strategy.EqualWeightBuys(p.candidates, availableFunds, 0, p.now), nil
}
