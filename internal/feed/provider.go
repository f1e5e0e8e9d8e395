// Package feed loads historical price series from pluggable providers.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/jtammen/stratsim/internal/core"
	"go.uber.org/zap"
)

// Provider fetches the daily price history for one symbol. Implementations
// own their retry policy; callers treat a returned error as final.
type Provider interface {
	Name() string
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error)
}

// LoadHistory fetches every symbol from the provider. A symbol whose fetch
// fails or validates badly is dropped with a logged gap; the run only aborts
// with core.ErrNoData when no symbol yields data at all.
func LoadHistory(ctx context.Context, p Provider, symbols []string, start, end time.Time, logger *zap.Logger) (map[string]core.PriceSeries, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	history := make(map[string]core.PriceSeries, len(symbols))

	for _, symbol := range symbols {
		series, err := p.FetchHistory(ctx, symbol, start, end)
		if err != nil {
			logger.Warn("dropping symbol: fetch failed",
				zap.String("provider", p.Name()),
				zap.String("symbol", symbol),
				zap.Error(err))
			continue
		}
		if err := series.Validate(); err != nil {
			logger.Warn("dropping symbol: bad series",
				zap.String("symbol", symbol),
				zap.Error(err))
			continue
		}
		if series.Len() == 0 {
			logger.Warn("dropping symbol: empty history",
				zap.String("symbol", symbol))
			continue
		}
		history[symbol] = series
	}

	if len(history) == 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("provider %s returned nothing for %d symbols", p.Name(), len(symbols)))
	}
	return history, nil
}
