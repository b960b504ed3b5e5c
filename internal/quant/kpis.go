// Package quant computes price-series indicators used by the analysis stage.
// Pure math over daily closes; no I/O.
package quant

import "math"

// tradingDaysPerYear is the annualization factor for daily volatility.
const tradingDaysPerYear = 252

// Volatility returns annualized volatility from a series of daily closing
// prices (oldest first). Returns 0 for fewer than two closes.
func Volatility(closes []float64) float64 {
	returns := dailyReturns(closes)
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}

// ROI returns the percent return from the first close to the last.
func ROI(closes []float64) float64 {
	if len(closes) < 2 || closes[0] == 0 {
		return 0
	}
	return (closes[len(closes)-1] - closes[0]) / closes[0] * 100
}

// Range returns the lowest and highest closes in the series.
func Range(closes []float64) (low, high float64) {
	if len(closes) == 0 {
		return 0, 0
	}
	low, high = closes[0], closes[0]
	for _, c := range closes[1:] {
		if c < low {
			low = c
		}
		if c > high {
			high = c
		}
	}
	return low, high
}

// SMA returns the simple moving average of the last window closes. Returns 0
// when the series is shorter than the window.
func SMA(closes []float64, window int) float64 {
	if window <= 0 || len(closes) < window {
		return 0
	}
	sum := 0.0
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window)
}

func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	return returns
}
