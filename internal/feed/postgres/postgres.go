// Package postgres loads daily price history from a PostgreSQL bars table.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jtammen/stratsim/internal/core"
)

const barsQuery = `
SELECT date, open, high, low, close, volume
FROM bars
WHERE symbol = $1 AND date >= $2 AND date <= $3
ORDER BY date ASC`

// Provider implements feed.Provider against a pgx connection pool.
type Provider struct {
	pool *pgxpool.Pool
}

// New connects to the database and verifies connectivity.
func New(ctx context.Context, dsn string) (*Provider, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("parse dsn: %w", err))
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	return &Provider{pool: pool}, nil
}

func (p *Provider) Name() string {
	return "postgres"
}

// Close releases the connection pool.
func (p *Provider) Close() {
	p.pool.Close()
}

// FetchHistory loads bars for a symbol over [start, end] in date order.
func (p *Provider) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	rows, err := p.pool.Query(ctx, barsQuery, symbol, start, end)
	if err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("querying bars for %s: %w", symbol, err))
	}
	defer rows.Close()

	series := core.PriceSeries{Symbol: symbol}
	for rows.Next() {
		var bar core.PriceBar
		if err := rows.Scan(&bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return core.PriceSeries{}, core.WrapError(core.ErrProviderFailed,
				fmt.Errorf("scanning bar for %s: %w", symbol, err))
		}
		series.Bars = append(series.Bars, bar)
	}
	if err := rows.Err(); err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrProviderFailed, err)
	}
	return series, nil
}
