package indicator

// Smoothing selects how RSI averages gains and losses.
type Smoothing string

const (
	// SmoothingEMA uses Wilder's exponential smoothing.
	SmoothingEMA Smoothing = "ema"
	// SmoothingSMA uses a plain rolling mean over the window.
	SmoothingSMA Smoothing = "sma"
)

// RSI calculates the Relative Strength Index over day-over-day deltas.
// Gains zero out negative deltas and vice versa. When the average loss is
// exactly zero the RSI is defined as 100. The first window positions are
// undefined (the first delta only exists at index 1).
func RSI(prices []float64, window int, smoothing Smoothing) []float64 {
	out := undefined(len(prices))
	if window <= 0 || len(prices) < window+1 {
		return out
	}

	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	switch smoothing {
	case SmoothingSMA:
		avgGain := SMA(gains[1:], window)
		avgLoss := SMA(losses[1:], window)
		for i := window; i < len(prices); i++ {
			out[i] = rsiValue(avgGain[i-1], avgLoss[i-1])
		}
	default: // Wilder smoothing
		var avgGain, avgLoss float64
		for i := 1; i <= window; i++ {
			avgGain += gains[i]
			avgLoss += losses[i]
		}
		avgGain /= float64(window)
		avgLoss /= float64(window)
		out[window] = rsiValue(avgGain, avgLoss)

		for i := window + 1; i < len(prices); i++ {
			avgGain = (avgGain*float64(window-1) + gains[i]) / float64(window)
			avgLoss = (avgLoss*float64(window-1) + losses[i]) / float64(window)
			out[i] = rsiValue(avgGain, avgLoss)
		}
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}
