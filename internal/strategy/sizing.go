package strategy

import (
	"time"

	"github.com/jtammen/stratsim/internal/core"
)

// EqualWeightBuys sizes buy orders equal-weight across the candidate set:
// each candidate is allocated funds/slots and receives floor(allocation/price)
// whole shares. Candidates whose allocation buys zero shares are skipped and
// their allocation is not redistributed within the step. slots defaults to
// the candidate count; Momentum passes its fixed top-N instead.
func EqualWeightBuys(candidates []Candidate, funds float64, slots int, date time.Time) []core.Order {
	if len(candidates) == 0 || funds <= 0 {
		return nil
	}
	if slots <= 0 {
		slots = len(candidates)
	}
	allocation := funds / float64(slots)

	var orders []core.Order
	for _, c := range candidates {
		if c.Price <= 0 {
			continue
		}
		shares := int64(allocation / c.Price)
		if shares == 0 {
			continue
		}
		orders = append(orders, core.Order{
			Symbol: c.Symbol,
			Side:   core.SideBuy,
			Price:  c.Price,
			Shares: shares,
			Date:   date,
		})
	}
	return orders
}
