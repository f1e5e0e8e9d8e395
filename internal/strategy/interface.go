package strategy

import (
	"time"

	"github.com/jtammen/stratsim/internal/core"
)

// Config holds strategy configuration
type Config struct {
	Enabled bool
	Params  map[string]any
}

// Candidate is an instrument a strategy selected as eligible for an order
// this step, with the reference price used for share sizing.
type Candidate struct {
	Symbol string
	Price  float64
	Score  float64
}

// AnalysisContext provides the data a strategy may read during Analyze.
// History contains, per symbol, only bars up to and including the step date;
// strategies must not mutate it.
type AnalysisContext struct {
	// Symbols preserves the configured input order, which breaks ranking ties.
	Symbols  []string
	History  map[string]core.PriceSeries
	Holdings map[string]int64 // shares currently held per symbol
	Now      time.Time
}

// Held reports the open position size for a symbol, zero when flat.
func (ctx AnalysisContext) Held(symbol string) int64 {
	return ctx.Holdings[symbol]
}

// Strategy is the contract every trading rule implements. Analyze and
// Execute are always called in that order for a given step: Analyze selects
// candidates from price history, Execute turns them into orders sized to the
// available funds. Execute returns core.ErrInvalidState when called without
// a preceding Analyze.
type Strategy interface {
	Name() string
	Description() string
	Init(cfg Config) error
	Analyze(ctx AnalysisContext) error
	Execute(availableFunds float64) ([]core.Order, error)
}

// IntParam reads an integer strategy parameter, tolerating the numeric types
// viper produces.
func IntParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// FloatParam reads a float strategy parameter.
func FloatParam(params map[string]any, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}
