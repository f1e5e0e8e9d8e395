// Package indicator provides pure calculations over closing-price series.
// Every function returns a series aligned 1:1 with its input: positions in
// the warm-up region, where the required window of history is not yet
// available, hold NaN and must not be used for signal generation.
package indicator

import "math"

// Defined reports whether an indicator value is outside the warm-up region.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA calculates the Simple Moving Average with a rolling sum.
// The first window-1 positions are undefined.
func SMA(prices []float64, window int) []float64 {
	out := undefined(len(prices))
	if window <= 0 || len(prices) < window {
		return out
	}

	var sum float64
	for i, p := range prices {
		sum += p
		if i >= window {
			sum -= prices[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// EMA calculates the Exponential Moving Average, seeded with the SMA of the
// first window prices. The first window-1 positions are undefined.
func EMA(prices []float64, window int) []float64 {
	out := undefined(len(prices))
	if window <= 0 || len(prices) < window {
		return out
	}

	var sum float64
	for i := 0; i < window; i++ {
		sum += prices[i]
	}
	ema := sum / float64(window)
	out[window-1] = ema

	multiplier := 2.0 / float64(window+1)
	for i := window; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out
}
