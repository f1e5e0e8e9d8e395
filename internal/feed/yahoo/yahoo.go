// Package yahoo fetches daily price history from the Yahoo Finance chart
// API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/jtammen/stratsim/internal/core"
)

const baseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// validSymbol matches stock symbols like AAPL, MSFT, 0700.HK
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{1,10}(\.[A-Za-z]{1,4})?$`)

// Provider implements feed.Provider against the Yahoo chart API.
type Provider struct {
	client *http.Client
}

// New creates a Yahoo provider with a 10s request timeout.
func New() *Provider {
	return &Provider{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *Provider) Name() string {
	return "yahoo"
}

func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// FetchHistory fetches daily bars for the symbol over [start, end].
func (p *Provider) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	if err := validateSymbol(symbol); err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrProviderFailed, err)
	}

	url := fmt.Sprintf("%s/%s?interval=1d&period1=%d&period2=%d",
		baseURL, symbol, start.Unix(), end.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrProviderFailed, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("fetching history: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.PriceSeries{}, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("decoding response: %w", err))
	}

	if result.Chart.Error != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}
	if len(result.Chart.Result) == 0 {
		return core.PriceSeries{}, core.WrapError(core.ErrNoData,
			fmt.Errorf("no data for symbol: %s", symbol))
	}

	r := result.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return core.PriceSeries{}, core.WrapError(core.ErrNoData,
			fmt.Errorf("no quote data for symbol: %s", symbol))
	}
	quotes := r.Indicators.Quote[0]

	series := core.PriceSeries{Symbol: symbol}
	for i, ts := range r.Timestamp {
		if i >= len(quotes.Close) || quotes.Close[i] == nil {
			continue // skip missing data
		}
		bar := core.PriceBar{
			Date:  time.Unix(int64(ts), 0).UTC().Truncate(24 * time.Hour),
			Close: *quotes.Close[i],
		}
		if quotes.Open[i] != nil {
			bar.Open = *quotes.Open[i]
		}
		if quotes.High[i] != nil {
			bar.High = *quotes.High[i]
		}
		if quotes.Low[i] != nil {
			bar.Low = *quotes.Low[i]
		}
		if quotes.Volume[i] != nil {
			bar.Volume = int64(*quotes.Volume[i])
		}
		series.Bars = append(series.Bars, bar)
	}
	return series, nil
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int      `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int     `json:"volume"`
}
