package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jtammen/stratsim/internal/core"
)

const csvDateLayout = "2006-01-02"

// CSVProvider reads daily bars from <dir>/<SYMBOL>.csv files with a
// date,open,high,low,close,volume header. Rows outside the requested range
// are skipped.
type CSVProvider struct {
	dir string
}

// NewCSVProvider creates a provider rooted at the given directory.
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) Name() string {
	return "csv"
}

func (p *CSVProvider) FetchHistory(_ context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	path := filepath.Join(p.dir, strings.ToUpper(symbol)+".csv")
	f, err := os.Open(path)
	if err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrProviderFailed, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("reading %s: %w", path, err))
	}
	if len(records) < 2 {
		return core.PriceSeries{}, core.WrapError(core.ErrNoData,
			fmt.Errorf("%s has no data rows", path))
	}

	series := core.PriceSeries{Symbol: symbol}
	for i, rec := range records[1:] { // skip header
		bar, err := parseBar(rec)
		if err != nil {
			return core.PriceSeries{}, core.WrapError(core.ErrProviderFailed,
				fmt.Errorf("%s row %d: %w", path, i+2, err))
		}
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		series.Bars = append(series.Bars, bar)
	}
	return series, nil
}

func parseBar(rec []string) (core.PriceBar, error) {
	if len(rec) < 6 {
		return core.PriceBar{}, fmt.Errorf("expected 6 columns, got %d", len(rec))
	}
	date, err := time.Parse(csvDateLayout, strings.TrimSpace(rec[0]))
	if err != nil {
		return core.PriceBar{}, err
	}

	vals := make([]float64, 4)
	for i, col := range rec[1:5] {
		v, err := strconv.ParseFloat(strings.TrimSpace(col), 64)
		if err != nil {
			return core.PriceBar{}, err
		}
		vals[i] = v
	}
	volume, err := strconv.ParseInt(strings.TrimSpace(rec[5]), 10, 64)
	if err != nil {
		return core.PriceBar{}, err
	}

	return core.PriceBar{
		Date:   date,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: volume,
	}, nil
}
