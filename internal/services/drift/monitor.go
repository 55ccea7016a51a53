// Package drift classifies the trend of recent backtest error against a
// prior window, signaling model staleness.
package drift

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"StockCast/internal/domain/models"
)

// DefaultThreshold is the MAE delta below which the trend counts as
// stable. A tuning constant, not physics; override via config.
const DefaultThreshold = 0.0005

// Monitor reads the backtest result log and compares error windows.
type Monitor struct {
	logPath   string
	threshold float64
}

func NewMonitor(logPath string, threshold float64) *Monitor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Monitor{logPath: logPath, threshold: threshold}
}

// Compute compares the mean model MAE over the last `window` log entries
// against the window immediately before it. Fewer than 2xwindow parsed
// entries yields status "insufficient". Malformed lines are skipped, not
// fatal.
func (m *Monitor) Compute(window int) (*models.DriftMetrics, error) {
	if window <= 0 {
		return nil, fmt.Errorf("drift window must be positive, got %d", window)
	}

	maes, err := m.readMAEs()
	if err != nil {
		return nil, err
	}

	metrics := &models.DriftMetrics{
		Status:  models.DriftInsufficient,
		Window:  window,
		Samples: len(maes),
	}
	if len(maes) < 2*window {
		return metrics, nil
	}

	recent := mean(maes[len(maes)-window:])
	prior := mean(maes[len(maes)-2*window : len(maes)-window])
	delta := recent - prior

	metrics.RecentMAE = recent
	metrics.PriorMAE = prior
	metrics.Delta = delta

	switch {
	case delta > m.threshold:
		metrics.Status = models.DriftDegrading
	case delta < -m.threshold:
		metrics.Status = models.DriftImproving
	default:
		metrics.Status = models.DriftStable
	}
	return metrics, nil
}

// readMAEs parses MAE_model values from well-formed log lines. A missing
// log file reads as zero entries.
func (m *Monitor) readMAEs() ([]float64, error) {
	f, err := os.Open(m.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open backtest log: %w", err)
	}
	defer f.Close()

	var out []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if v, ok := parseLine(scanner.Text()); ok {
			out = append(out, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read backtest log: %w", err)
	}
	return out, nil
}

func parseLine(line string) (float64, bool) {
	_, rest, found := strings.Cut(line, "|")
	if !found {
		return 0, false
	}
	for _, field := range strings.Fields(rest) {
		key, val, ok := strings.Cut(field, "=")
		if !ok || key != "MAE_model" {
			continue
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
