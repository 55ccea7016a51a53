package drift

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCast/internal/domain/models"
)

func writeLog(t *testing.T, maes []float64, extra ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backtest.log")
	var b []byte
	for _, m := range maes {
		line := fmt.Sprintf("2026-05-01 02:00:00 | MAE_model=%.6f MAE_baseline=0.010000 DirAcc_model=0.520 DirAcc_baseline=0.480 Val=200\n", m)
		b = append(b, line...)
	}
	for _, line := range extra {
		b = append(b, (line + "\n")...)
	}
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestComputeInsufficient(t *testing.T) {
	path := writeLog(t, []float64{0.01, 0.01, 0.01})
	m := NewMonitor(path, 0)

	got, err := m.Compute(2)
	require.NoError(t, err)
	assert.Equal(t, models.DriftInsufficient, got.Status)
	assert.Equal(t, 3, got.Samples)
}

func TestComputeMissingLog(t *testing.T) {
	m := NewMonitor(filepath.Join(t.TempDir(), "absent.log"), 0)
	got, err := m.Compute(3)
	require.NoError(t, err)
	assert.Equal(t, models.DriftInsufficient, got.Status)
}

func TestComputeDegrading(t *testing.T) {
	// recent window mean is 0.01 above prior, well past the threshold
	path := writeLog(t, []float64{0.01, 0.01, 0.01, 0.02, 0.02, 0.02})
	m := NewMonitor(path, 0)

	got, err := m.Compute(3)
	require.NoError(t, err)
	assert.Equal(t, models.DriftDegrading, got.Status)
	assert.InDelta(t, 0.01, got.Delta, 1e-9)
}

func TestComputeImproving(t *testing.T) {
	path := writeLog(t, []float64{0.02, 0.02, 0.01, 0.01})
	m := NewMonitor(path, 0)

	got, err := m.Compute(2)
	require.NoError(t, err)
	assert.Equal(t, models.DriftImproving, got.Status)
}

func TestComputeStable(t *testing.T) {
	path := writeLog(t, []float64{0.0100, 0.0101, 0.0100, 0.0101})
	m := NewMonitor(path, 0)

	got, err := m.Compute(2)
	require.NoError(t, err)
	assert.Equal(t, models.DriftStable, got.Status)
}

func TestMalformedLinesSkipped(t *testing.T) {
	path := writeLog(t, []float64{0.01, 0.01, 0.02, 0.02},
		"garbage line without pipe",
		"2026-05-01 | MAE_model=notanumber MAE_baseline=0.01",
		"| no mae field here")
	m := NewMonitor(path, 0)

	got, err := m.Compute(2)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Samples)
	assert.Equal(t, models.DriftDegrading, got.Status)
}
