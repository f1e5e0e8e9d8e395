package indicator

import "math"

// Bands holds the aligned Bollinger Band output series.
type Bands struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// Bollinger calculates Bollinger Bands: the middle band is the SMA over the
// window, the outer bands sit numStd sample standard deviations away.
func Bollinger(prices []float64, window int, numStd float64) Bands {
	bands := Bands{
		Middle: SMA(prices, window),
		Upper:  undefined(len(prices)),
		Lower:  undefined(len(prices)),
	}
	if window <= 1 || len(prices) < window {
		return bands
	}

	for i := window - 1; i < len(prices); i++ {
		mean := bands.Middle[i]
		var variance float64
		for j := i - window + 1; j <= i; j++ {
			d := prices[j] - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(window-1))
		bands.Upper[i] = mean + numStd*std
		bands.Lower[i] = mean - numStd*std
	}
	return bands
}
