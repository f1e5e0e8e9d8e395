package strategy

import (
	"sort"
	"sync"

	"github.com/jtammen/stratsim/internal/core"
	"go.uber.org/zap"
)

// Engine holds the registered strategy variants. The simulation driver only
// ever sees the Strategy interface; new variants register here without the
// driver changing.
type Engine struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	logger     *zap.Logger
}

// NewEngine creates a new strategy engine
func NewEngine(logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{
		strategies: make(map[string]Strategy),
		logger:     l,
	}
}

// Register adds a strategy to the engine
func (e *Engine) Register(s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[s.Name()] = s
	e.logger.Debug("strategy registered", zap.String("strategy", s.Name()))
}

// Get retrieves a strategy by name, returning core.ErrUnknownStrategy when
// no variant registered under that name.
func (e *Engine) Get(name string) (Strategy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.strategies[name]
	if !ok {
		return nil, core.ErrUnknownStrategy
	}
	return s, nil
}

// Names returns the registered strategy names in sorted order.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.strategies))
	for name := range e.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
