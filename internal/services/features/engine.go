package features

import (
	"math"
	"time"
)

// Fixed feature schema. Column order is load-bearing: the trained scaler and
// regressor address features by position, and importance ranking reassembles
// flattened windows back into these names.
const (
	rollWindow     = 5
	rsiPeriod      = 14
	emaFast        = 12
	emaSlow        = 26
	emaSignal      = 9
	volumeWindow   = 20
	volumeStdFloor = 1.0

	// IntrinsicFeatureCount is the number of columns before market-index
	// return columns are appended.
	IntrinsicFeatureCount = 11

	// SchemaVersion changes whenever the column set or ordering changes.
	// Persisted artifacts carry it so a stale scaler is never applied to a
	// reshaped matrix.
	SchemaVersion = 2
)

var intrinsicNames = []string{
	"price",
	"volume",
	"log_return",
	"roll_mean_5",
	"roll_std_5",
	"rsi_14",
	"macd",
	"macd_signal",
	"volume_zscore_20",
	"hour_of_day",
	"day_of_week",
}

// Names returns the full ordered column name list for the given market
// indices.
func Names(indices []string) []string {
	out := make([]string, 0, IntrinsicFeatureCount+len(indices))
	out = append(out, intrinsicNames...)
	for _, idx := range indices {
		out = append(out, "mkt_return_"+idx)
	}
	return out
}

// Width returns the column count for the given number of market indices.
func Width(numIndices int) int {
	return IntrinsicFeatureCount + numIndices
}

// Compute turns a raw price/volume/timestamp series plus per-step market
// index returns into a feature matrix with one row per time step. It is
// deterministic and side-effect free. Short series degrade rolling
// statistics to their defaults rather than failing; callers are expected to
// pre-check minimum length for training use.
//
// marketReturns carries one row per time step with one column per index.
// When it is shorter than the series it is right-aligned and zero-padded on
// the left; missing columns read as zero.
func Compute(prices, volumes []float64, timestamps []time.Time, marketReturns [][]float64) [][]float64 {
	n := len(prices)
	if n == 0 {
		return nil
	}

	numIndices := 0
	if len(marketReturns) > 0 {
		numIndices = len(marketReturns[0])
	}
	width := Width(numIndices)

	logRet := LogReturns(prices)
	rollMean := RollingMean(prices, rollWindow)
	rollStd := RollingStd(prices, rollWindow)
	rsi := RSI(prices, rsiPeriod)
	macd, signal := MACD(prices)
	volZ := VolumeZScore(volumes, volumeWindow)

	pad := n - len(marketReturns)

	matrix := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, width)
		row[0] = prices[i]
		row[1] = volumes[i]
		row[2] = logRet[i]
		row[3] = rollMean[i]
		row[4] = rollStd[i]
		row[5] = rsi[i]
		row[6] = macd[i]
		row[7] = signal[i]
		row[8] = volZ[i]
		row[9] = float64(timestamps[i].Hour()) / 23.0
		row[10] = float64((int(timestamps[i].Weekday()) + 6) % 7) / 6.0

		if j := i - pad; j >= 0 && j < len(marketReturns) {
			for k := 0; k < numIndices && k < len(marketReturns[j]); k++ {
				row[IntrinsicFeatureCount+k] = marketReturns[j][k]
			}
		}
		matrix[i] = row
	}
	return matrix
}

// LogReturns computes r_t = ln(p_t / p_{t-1}) with r_0 = 0.
func LogReturns(prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			continue
		}
		out[i] = math.Log(prices[i] / prices[i-1])
	}
	return out
}

// RollingMean computes a trailing mean over the given window. Positions
// before the first complete window are back-filled with the first valid
// value; series shorter than the window fall back to cumulative means.
func RollingMean(values []float64, window int) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if n < window {
		sum := 0.0
		for i, v := range values {
			sum += v
			out[i] = sum / float64(i+1)
		}
		return out
	}

	sum := 0.0
	for i := 0; i < window; i++ {
		sum += values[i]
	}
	out[window-1] = sum / float64(window)
	for i := window; i < n; i++ {
		sum += values[i] - values[i-window]
		out[i] = sum / float64(window)
	}
	for i := 0; i < window-1; i++ {
		out[i] = out[window-1]
	}
	return out
}

// RollingStd computes a trailing population standard deviation over the
// given window. Positions without a complete window default to 0.
func RollingStd(values []float64, window int) []float64 {
	n := len(values)
	out := make([]float64, n)
	for i := window - 1; i < n; i++ {
		mean := 0.0
		for j := i - window + 1; j <= i; j++ {
			mean += values[j]
		}
		mean /= float64(window)

		variance := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(window))
	}
	return out
}

// RSI computes a rolling-mean gain/loss RSI. When both average gain and
// loss are zero (flat window) the value resolves to 50; when only loss is
// zero it resolves to 100. First element is 50.
func RSI(prices []float64, period int) []float64 {
	n := len(prices)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	out[0] = 50

	for i := 1; i < n; i++ {
		start := i - period + 1
		if start < 1 {
			start = 1
		}
		gain, loss := 0.0, 0.0
		for j := start; j <= i; j++ {
			change := prices[j] - prices[j-1]
			if change > 0 {
				gain += change
			} else {
				loss -= change
			}
		}
		span := float64(i - start + 1)
		avgGain := gain / span
		avgLoss := loss / span

		switch {
		case avgGain == 0 && avgLoss == 0:
			out[i] = 50
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// EMA computes an exponential moving average seeded with the first value.
func EMA(values []float64, period int) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	mult := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < n; i++ {
		out[i] = (values[i]-out[i-1])*mult + out[i-1]
	}
	return out
}

// MACD computes the 12/26 EMA difference and its 9-period signal line.
func MACD(prices []float64) (macd, signal []float64) {
	fast := EMA(prices, emaFast)
	slow := EMA(prices, emaSlow)
	macd = make([]float64, len(prices))
	for i := range macd {
		macd[i] = fast[i] - slow[i]
	}
	signal = EMA(macd, emaSignal)
	return macd, signal
}

// VolumeZScore computes (v - trailing mean) / trailing std over the given
// window, computed over whatever part of the window exists. The std is
// floored at 1 to keep thin-volume series from blowing up the score.
func VolumeZScore(volumes []float64, window int) []float64 {
	n := len(volumes)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		span := float64(i - start + 1)

		mean := 0.0
		for j := start; j <= i; j++ {
			mean += volumes[j]
		}
		mean /= span

		variance := 0.0
		for j := start; j <= i; j++ {
			d := volumes[j] - mean
			variance += d * d
		}
		std := math.Sqrt(variance / span)
		if std < volumeStdFloor {
			std = volumeStdFloor
		}
		out[i] = (volumes[i] - mean) / std
	}
	return out
}
