package indicator

// MACDResult holds the three aligned MACD output series.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD calculates the Moving Average Convergence Divergence:
// MACD = EMA(fast) - EMA(slow), signal = EMA(MACD, signalWindow),
// histogram = MACD - signal. The MACD line is defined from index slow-1,
// the signal line and histogram from index slow+signalWindow-2.
func MACD(prices []float64, fast, slow, signalWindow int) MACDResult {
	res := MACDResult{
		MACD:      undefined(len(prices)),
		Signal:    undefined(len(prices)),
		Histogram: undefined(len(prices)),
	}
	if fast <= 0 || slow <= fast || signalWindow <= 0 || len(prices) < slow {
		return res
	}

	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)
	for i := slow - 1; i < len(prices); i++ {
		res.MACD[i] = fastEMA[i] - slowEMA[i]
	}

	// Signal line is an EMA over the defined MACD region.
	first := slow - 1
	if len(prices)-first < signalWindow {
		return res
	}
	signal := EMA(res.MACD[first:], signalWindow)
	for i := range signal {
		if !Defined(signal[i]) {
			continue
		}
		res.Signal[first+i] = signal[i]
		res.Histogram[first+i] = res.MACD[first+i] - signal[i]
	}
	return res
}
