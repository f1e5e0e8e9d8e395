// Package sim contains the simulation driver: a state machine that steps a
// strategy through a date range, feeds its orders to the ledger, triggers
// periodic rebalancing, and records the dated investment log.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jtammen/stratsim/internal/core"
	"github.com/jtammen/stratsim/internal/ledger"
	"github.com/jtammen/stratsim/internal/strategy"
	"go.uber.org/zap"
)

// State is the lifecycle state of a simulation run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateStopped   State = "stopped"
	StateFailed    State = "failed"
)

// Rebalance frequencies understood by the driver.
const (
	RebalanceNone    = "none"
	RebalanceMonthly = "monthly"
)

// Config bounds one simulation run.
type Config struct {
	InvestmentAmount   float64
	Start              time.Time
	End                time.Time
	CycleDays          int
	RebalanceFrequency string
	RebalanceTolerance float64
}

// Recorder receives run telemetry. The metrics registry implements it; a nil
// Recorder disables recording.
type Recorder interface {
	ObserveStep(strategy string, orders []core.Order)
	ObserveRun(strategy string, state State, duration time.Duration)
}

// StepFunc is called after every completed step, for progress reporting.
type StepFunc func(step, total int, date time.Time)

// OrderFilter adjusts a step's orders before they reach the ledger. The risk
// overlay's position-size bounds plug in here.
type OrderFilter func(orders []core.Order, portfolioValue float64) []core.Order

// Result is the output of one run.
type Result struct {
	RunID      string          `json:"run_id"`
	Strategy   string          `json:"strategy"`
	State      State           `json:"state"`
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	Steps      int             `json:"steps"`
	Log        []core.LogEntry `json:"log"`
	FinalValue float64         `json:"final_value"`
}

// Driver runs one strategy over one price history with its own ledger. A
// Driver is single-use: Run transitions it out of Idle permanently. Drivers
// must not share ledgers; the price history is read-only and may be shared.
type Driver struct {
	id       string
	cfg      Config
	strat    strategy.Strategy
	ledger   *ledger.Ledger
	history  map[string]core.PriceSeries
	symbols  []string
	barDates map[string]struct{}
	state    State
	log      []core.LogEntry
	recorder Recorder
	onStep   StepFunc
	filter   OrderFilter
	logger   *zap.Logger
}

// NewDriver creates an Idle driver with a fresh ledger seeded from the
// configured investment amount.
func NewDriver(cfg Config, strat strategy.Strategy, symbols []string, history map[string]core.PriceSeries, logger ...*zap.Logger) *Driver {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	if cfg.CycleDays <= 0 {
		cfg.CycleDays = 1
	}
	dates := make(map[string]struct{})
	for _, series := range history {
		for _, bar := range series.Bars {
			dates[bar.Date.Format("2006-01-02")] = struct{}{}
		}
	}
	return &Driver{
		id:       uuid.New().String(),
		cfg:      cfg,
		strat:    strat,
		ledger:   ledger.New(cfg.InvestmentAmount, l),
		history:  history,
		symbols:  symbols,
		barDates: dates,
		state:    StateIdle,
		logger:   l,
	}
}

// RunID returns the unique identifier of this run.
func (d *Driver) RunID() string { return d.id }

// State returns the current lifecycle state.
func (d *Driver) State() State { return d.state }

// Ledger exposes the run's ledger for reporting after the run ends.
func (d *Driver) Ledger() *ledger.Ledger { return d.ledger }

// SetRecorder attaches a telemetry recorder. Must be called before Run.
func (d *Driver) SetRecorder(r Recorder) { d.recorder = r }

// OnStep attaches a per-step progress callback. Must be called before Run.
func (d *Driver) OnStep(fn StepFunc) { d.onStep = fn }

// SetOrderFilter attaches an order filter applied between strategy execution
// and the ledger. Must be called before Run.
func (d *Driver) SetOrderFilter(f OrderFilter) { d.filter = f }

// TotalSteps returns the number of steps the configured date range spans.
// Dates on which no symbol has a bar are not trading days and do not count.
func (d *Driver) TotalSteps() int {
	steps := 0
	for cur := d.cfg.Start; !cur.After(d.cfg.End); cur = cur.AddDate(0, 0, d.cfg.CycleDays) {
		if d.hasBar(cur) {
			steps++
		}
	}
	return steps
}

// hasBar reports whether at least one symbol has a bar on the given date.
func (d *Driver) hasBar(date time.Time) bool {
	_, ok := d.barDates[date.Format("2006-01-02")]
	return ok
}

// Run executes the simulation. The driver advances by calendar days and steps
// only on dates for which at least one symbol has a bar; weekends and holidays
// are skipped without a log entry. Cancellation is polled once per step,
// before the step runs; a cancellation mid-step completes that step's
// bookkeeping first. Any unrecoverable step error transitions the driver to
// Failed with the partial log preserved in the returned Result.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if d.state != StateIdle {
		return nil, core.WrapError(core.ErrInvalidState,
			fmt.Errorf("driver %s already %s", d.id, d.state))
	}
	d.state = StateRunning
	started := time.Now()
	total := d.TotalSteps()

	d.logger.Info("simulation started",
		zap.String("run_id", d.id),
		zap.String("strategy", d.strat.Name()),
		zap.Time("start", d.cfg.Start),
		zap.Time("end", d.cfg.End),
		zap.Int("steps", total))

	boundary := nextMonthEnd(d.cfg.Start)
	step := 0
	for cur := d.cfg.Start; !cur.After(d.cfg.End); cur = cur.AddDate(0, 0, d.cfg.CycleDays) {
		if !d.hasBar(cur) {
			continue
		}
		select {
		case <-ctx.Done():
			d.state = StateStopped
			d.logger.Warn("simulation stopped",
				zap.String("run_id", d.id), zap.Int("step", step))
			return d.finish(started), nil
		default:
		}

		entry, err := d.step(cur)
		if err != nil {
			d.state = StateFailed
			d.logger.Error("simulation step failed",
				zap.String("run_id", d.id),
				zap.Int("step", step),
				zap.Time("date", cur),
				zap.Error(err))
			return d.finish(started), core.WrapError(core.ErrRunFailed,
				fmt.Errorf("step %d (%s): %w", step, cur.Format("2006-01-02"), err))
		}

		if d.cfg.RebalanceFrequency == RebalanceMonthly && !cur.Before(boundary) {
			rebalanced, err := d.ledger.Rebalance(d.history, cur, d.cfg.RebalanceTolerance)
			if err != nil {
				d.state = StateFailed
				return d.finish(started), core.WrapError(core.ErrRunFailed,
					fmt.Errorf("rebalance at step %d (%s): %w", step, cur.Format("2006-01-02"), err))
			}
			entry.Orders = append(entry.Orders, rebalanced...)
			boundary = nextMonthEnd(boundary.AddDate(0, 0, 1))
		}

		d.log = append(d.log, entry)
		if d.recorder != nil {
			d.recorder.ObserveStep(d.strat.Name(), entry.Orders)
		}
		step++
		if d.onStep != nil {
			d.onStep(step, total, cur)
		}
	}

	d.state = StateCompleted
	result := d.finish(started)
	d.logger.Info("simulation completed",
		zap.String("run_id", d.id),
		zap.Int("steps", result.Steps),
		zap.Float64("final_value", result.FinalValue))
	return result, nil
}

// step runs analyze+execute for one date and applies the orders.
func (d *Driver) step(date time.Time) (core.LogEntry, error) {
	visible := make(map[string]core.PriceSeries, len(d.history))
	for symbol, series := range d.history {
		visible[symbol] = series.UpTo(date)
	}

	actx := strategy.AnalysisContext{
		Symbols:  d.symbols,
		History:  visible,
		Holdings: d.ledger.Holdings(),
		Now:      date,
	}
	if err := d.strat.Analyze(actx); err != nil {
		return core.LogEntry{}, err
	}
	orders, err := d.strat.Execute(d.ledger.Cash())
	if err != nil {
		return core.LogEntry{}, err
	}
	if d.filter != nil {
		orders = d.filter(orders, d.ledger.Value(visible, date))
	}
	if err := d.ledger.ExecuteOrders(orders); err != nil {
		return core.LogEntry{}, err
	}
	return core.LogEntry{Date: date, Orders: orders}, nil
}

func (d *Driver) finish(started time.Time) *Result {
	if d.recorder != nil {
		d.recorder.ObserveRun(d.strat.Name(), d.state, time.Since(started))
	}
	return &Result{
		RunID:      d.id,
		Strategy:   d.strat.Name(),
		State:      d.state,
		Start:      d.cfg.Start,
		End:        d.cfg.End,
		Steps:      len(d.log),
		Log:        d.log,
		FinalValue: d.FinalValue(),
	}
}

// FinalValue marks the ledger to market at the end of the simulated range.
func (d *Driver) FinalValue() float64 {
	return d.ledger.Value(d.history, d.cfg.End)
}

// Log returns the investment log recorded so far.
func (d *Driver) Log() []core.LogEntry {
	return d.log
}

// nextMonthEnd returns the last day of t's month, or of the next month when
// t is already past its month end.
func nextMonthEnd(t time.Time) time.Time {
	end := monthEnd(t)
	if t.After(end) {
		end = monthEnd(t.AddDate(0, 1, 0))
	}
	return end
}

func monthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location()).AddDate(0, 0, -1)
}
