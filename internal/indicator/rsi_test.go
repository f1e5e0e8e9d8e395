package indicator

import (
	"math"
	"testing"
)

func TestRSI_MonotonicIncreasing(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	for _, smoothing := range []Smoothing{SmoothingEMA, SmoothingSMA} {
		rsi := RSI(prices, 14, smoothing)
		last := rsi[len(rsi)-1]
		if last != 100 {
			t.Errorf("%s: RSI of rising series = %f, want 100", smoothing, last)
		}
	}
}

func TestRSI_MonotonicDecreasing(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 200 - float64(i)
	}

	for _, smoothing := range []Smoothing{SmoothingEMA, SmoothingSMA} {
		rsi := RSI(prices, 14, smoothing)
		last := rsi[len(rsi)-1]
		if math.Abs(last) > 1e-9 {
			t.Errorf("%s: RSI of falling series = %f, want 0", smoothing, last)
		}
	}
}

func TestRSI_WarmupRegion(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i%3)
	}
	rsi := RSI(prices, 14, SmoothingEMA)

	for i := 0; i < 14; i++ {
		if Defined(rsi[i]) {
			t.Errorf("rsi[%d] defined inside warm-up region", i)
		}
	}
	if !Defined(rsi[14]) {
		t.Error("rsi[14] should be the first defined value")
	}
}

func TestRSI_ShortSeries(t *testing.T) {
	rsi := RSI([]float64{1, 2, 3}, 14, SmoothingEMA)
	if len(rsi) != 3 {
		t.Fatalf("output length %d, want 3", len(rsi))
	}
	for i, v := range rsi {
		if Defined(v) {
			t.Errorf("rsi[%d] defined for series shorter than window", i)
		}
	}
}

func TestRSI_Bounded(t *testing.T) {
	prices := []float64{44, 47, 45, 50, 48, 52, 49, 53, 51, 55, 50, 54, 52, 56, 53, 57, 54, 58, 55, 59}
	rsi := RSI(prices, 14, SmoothingEMA)
	for i, v := range rsi {
		if !Defined(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Errorf("rsi[%d] = %f out of [0, 100]", i, v)
		}
	}
}
