package indicator

import (
	"math"
	"testing"
)

func TestBollinger_BandOrdering(t *testing.T) {
	prices := trendSeries(50)
	bands := Bollinger(prices, 20, 2)

	for i := range prices {
		if !Defined(bands.Middle[i]) {
			continue
		}
		if !(bands.Upper[i] >= bands.Middle[i] && bands.Middle[i] >= bands.Lower[i]) {
			t.Errorf("band ordering violated at %d: %f / %f / %f",
				i, bands.Upper[i], bands.Middle[i], bands.Lower[i])
		}
	}
}

func TestBollinger_ConstantSeries(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 75
	}
	bands := Bollinger(prices, 20, 2)

	last := len(prices) - 1
	if math.Abs(bands.Upper[last]-75) > 1e-9 || math.Abs(bands.Lower[last]-75) > 1e-9 {
		t.Errorf("constant series should collapse bands onto the mean, got %f / %f",
			bands.Upper[last], bands.Lower[last])
	}
}

func TestBollinger_WarmupRegion(t *testing.T) {
	bands := Bollinger(trendSeries(25), 20, 2)
	for i := 0; i < 19; i++ {
		if Defined(bands.Upper[i]) || Defined(bands.Lower[i]) {
			t.Errorf("bands defined at %d inside warm-up region", i)
		}
	}
	if !Defined(bands.Upper[19]) {
		t.Error("bands undefined at first full window")
	}
}
