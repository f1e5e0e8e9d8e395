package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jtammen/stratsim/internal/config"
	"github.com/jtammen/stratsim/internal/core"
	"github.com/jtammen/stratsim/internal/feed"
	"github.com/jtammen/stratsim/internal/feed/postgres"
	"github.com/jtammen/stratsim/internal/feed/yahoo"
	"github.com/jtammen/stratsim/internal/logger"
	"github.com/jtammen/stratsim/internal/metrics"
	"github.com/jtammen/stratsim/internal/report"
	"github.com/jtammen/stratsim/internal/risk"
	"github.com/jtammen/stratsim/internal/sim"
	"github.com/jtammen/stratsim/internal/storage/archive"
	"github.com/jtammen/stratsim/internal/strategy"
	"github.com/jtammen/stratsim/internal/strategy/bollinger_band"
	"github.com/jtammen/stratsim/internal/strategy/ma_crossover"
	"github.com/jtammen/stratsim/internal/strategy/mean_reversion"
	"github.com/jtammen/stratsim/internal/strategy/momentum"
	"github.com/jtammen/stratsim/internal/strategy/passive"
	"github.com/jtammen/stratsim/internal/strategy/rsi_band"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the enabled strategies against historical data",
	Long: `Load price history for the configured tickers, simulate every enabled
strategy over the configured date range and print value series and
performance statistics.`,
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Must(debug)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, cleanup, err := buildProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	if cfg.Data.Cache {
		provider = feed.NewCache(provider)
	}

	// Fetch indicator warm-up bars before the simulated range too.
	history, err := feed.LoadHistory(ctx, provider, cfg.Run.Tickers, warmupStart(cfg), cfg.Run.End(), log)
	if err != nil {
		return err
	}

	var registry *metrics.Registry
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
		go serveMetrics(cfg.Metrics, registry, log)
	}

	engine := buildEngine(cfg, log)
	var store *archive.Archive
	if cfg.Archive.Enabled {
		if store, err = buildArchive(cfg.Archive); err != nil {
			return err
		}
	}

	reporter := report.New(log)
	overlay := risk.New(cfg.Risk, log)

	for _, name := range engine.Names() {
		if !cfg.Strategies[name].Enabled {
			continue
		}
		strat, err := engine.Get(name)
		if err != nil {
			return err
		}
		if err := runStrategy(ctx, cfg, strat, history, overlay, reporter, registry, store, log); err != nil {
			return err
		}
	}
	return nil
}

// runStrategy simulates one strategy with its own driver and ledger.
func runStrategy(
	ctx context.Context,
	cfg *config.Config,
	strat strategy.Strategy,
	history map[string]core.PriceSeries,
	overlay *risk.Overlay,
	reporter *report.Reporter,
	registry *metrics.Registry,
	store *archive.Archive,
	log *zap.Logger,
) error {
	driver := sim.NewDriver(sim.Config{
		InvestmentAmount:   cfg.Run.InvestmentAmount,
		Start:              cfg.Run.Start(),
		End:                cfg.Run.End(),
		CycleDays:          cfg.Run.CycleDays,
		RebalanceFrequency: cfg.Run.RebalanceFrequency,
		RebalanceTolerance: cfg.Run.RebalanceTolerance,
	}, strat, cfg.Run.Tickers, history, log)

	if registry != nil {
		driver.SetRecorder(registry)
	}
	if cfg.Risk.MaxPositionPct > 0 || cfg.Risk.MinPositionPct > 0 {
		driver.SetOrderFilter(overlay.AdjustOrders)
	}

	bar := newProgressBar(driver.TotalSteps(), strat.Name())
	driver.OnStep(func(step, total int, date time.Time) {
		bar.Add(1)
	})

	result, err := driver.Run(ctx)
	if err != nil {
		// A failed run still carries its partial log.
		if result != nil {
			fmt.Fprintf(os.Stderr, "\nrun %s failed after %d steps: %v\n", result.RunID, result.Steps, err)
		}
		return err
	}
	fmt.Println()

	annotated := overlay.ApplyTakeProfit(overlay.ApplyStopLoss(result.Log))
	if cfg.Run.EnforceExits {
		annotated = overlay.EnforceExits(annotated)
	}
	result.Log = annotated

	values := reporter.ValueSeries(result.Log, history)
	summary := reporter.Summarize(result.Log, cfg.Run.InvestmentAmount)
	stats := report.CalculateStats(reporter.Trades(result.Log, history))
	if registry != nil {
		registry.SetFinalValue(strat.Name(), result.FinalValue)
	}

	printResult(strat, result, values, summary, stats)

	if store != nil {
		path, err := store.SaveRun(ctx, archive.RunRecord{
			Result:  result,
			Values:  values,
			Summary: summary,
			Stats:   stats,
		})
		if err != nil {
			return fmt.Errorf("archiving run %s: %w", result.RunID, err)
		}
		log.Info("run archived", zap.String("path", path))
	}
	return nil
}

// warmupStart extends the fetch range backwards so the widest indicator
// window any enabled strategy uses has bars before the first step. Every
// numeric strategy parameter is treated as a potential window; over-fetching
// is harmless. Trading days convert to calendar days at 3/2 plus holiday
// slack.
func warmupStart(cfg *config.Config) time.Time {
	window := 50 // widest default window (50-day moving averages)
	if cfg.Run.CycleDays > window {
		window = cfg.Run.CycleDays
	}
	for _, sc := range cfg.Strategies {
		if !sc.Enabled {
			continue
		}
		for key := range sc.Params {
			if n := strategy.IntParam(sc.Params, key, 0); n > window {
				window = n
			}
		}
	}
	return cfg.Run.Start().AddDate(0, 0, -(window*3/2 + 14))
}

func buildProvider(ctx context.Context, cfg *config.Config) (feed.Provider, func(), error) {
	noop := func() {}
	switch cfg.Data.Provider {
	case "csv":
		return feed.NewCSVProvider(cfg.Data.CSVDir), noop, nil
	case "yahoo":
		return yahoo.New(), noop, nil
	case "postgres":
		p, err := postgres.New(ctx, cfg.Data.DSN)
		if err != nil {
			return nil, noop, err
		}
		return p, p.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown data provider %q", cfg.Data.Provider)
	}
}

// buildEngine registers every variant and applies the configured parameters.
func buildEngine(cfg *config.Config, log *zap.Logger) *strategy.Engine {
	engine := strategy.NewEngine(log)
	engine.Register(momentum.New(cfg.Run.CycleDays, 3))
	engine.Register(mean_reversion.New(50))
	engine.Register(passive.New())
	engine.Register(ma_crossover.New(20, 50))
	engine.Register(rsi_band.New(14, 30, 70))
	engine.Register(bollinger_band.New(20, 2))

	for _, name := range engine.Names() {
		sc, ok := cfg.Strategies[name]
		if !ok || !sc.Enabled {
			continue
		}
		strat, _ := engine.Get(name)
		if err := strat.Init(strategy.Config{Enabled: sc.Enabled, Params: sc.Params}); err != nil {
			log.Fatal("strategy init failed", zap.String("strategy", name), zap.Error(err))
		}
	}
	return engine
}

func buildArchive(cfg config.ArchiveConfig) (*archive.Archive, error) {
	switch cfg.Type {
	case "localfs":
		backend, err := archive.NewLocalFS(cfg.Path)
		if err != nil {
			return nil, err
		}
		return archive.New(backend), nil
	case "s3":
		backend, err := archive.NewS3(cfg.S3)
		if err != nil {
			return nil, err
		}
		return archive.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}

func serveMetrics(cfg config.MetricsConfig, registry *metrics.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, registry.Handler())
	log.Info("metrics listening", zap.String("addr", cfg.Addr), zap.String("path", cfg.Path))
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Warn("metrics server stopped", zap.Error(err))
	}
}

func newProgressBar(maxTicks int, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription(fmt.Sprintf("Simulating %s...", name)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func printResult(strat strategy.Strategy, result *sim.Result, values []report.ValuePoint, summary report.Summary, stats report.Stats) {
	fmt.Printf("=== %s ===\n", strat.Description())
	fmt.Printf("Run:         %s (%s)\n", result.RunID, result.State)
	fmt.Printf("Period:      %s to %s (%d steps)\n",
		result.Start.Format("2006-01-02"), result.End.Format("2006-01-02"), result.Steps)
	fmt.Printf("Investment:  %.2f\n", summary.Investment)
	fmt.Printf("Final value: %.2f\n", result.FinalValue)
	fmt.Printf("Earnings:    %.2f (total returns %.2f)\n", summary.Earnings, summary.TotalReturns)
	fmt.Printf("Trades:      %d (%d wins / %d losses, win rate %.1f%%)\n",
		stats.TotalTrades, stats.WinningTrades, stats.LosingTrades, stats.WinRate)
	fmt.Printf("Return:      %.2f%%  Max drawdown: %.2f%%  Sharpe: %.2f\n",
		stats.TotalReturn, stats.MaxDrawdown, stats.SharpeRatio)

	if len(values) > 0 {
		first, last := values[0], values[len(values)-1]
		fmt.Printf("Holdings value: %.2f (%s) -> %.2f (%s)\n",
			first.Value, first.Date.Format("2006-01-02"),
			last.Value, last.Date.Format("2006-01-02"))
	}

	if len(summary.Instruments) > 0 {
		fmt.Println("Per instrument:")
		for _, inst := range summary.Instruments {
			fmt.Printf("  %-8s buys %-3d sells %-3d invested %10.2f earnings %10.2f (%.2f%%)\n",
				inst.Symbol, inst.Buys, inst.Sells, inst.Invested, inst.Earnings, inst.PerformancePct)
		}
	}
	fmt.Println()
}
