package forecast

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"StockCast/internal/domain/models"
)

const logTimeLayout = "2006-01-02 15:04:05"

// BacktestLog appends walk-forward results to an append-only line log. The
// format is shared with external consumers, one run per line:
//
//	ts | MAE_model=<f> MAE_baseline=<f> DirAcc_model=<f> DirAcc_baseline=<f> Val=<n>
type BacktestLog struct {
	path string
}

func NewBacktestLog(path string) *BacktestLog { return &BacktestLog{path: path} }

// Path returns the log location.
func (l *BacktestLog) Path() string { return l.path }

// Append writes one result line. Entries are immutable once written.
func (l *BacktestLog) Append(r *models.BacktestResult) error {
	line := fmt.Sprintf("%s | MAE_model=%.6f MAE_baseline=%.6f DirAcc_model=%.3f DirAcc_baseline=%.3f Val=%d\n",
		r.Timestamp.Format(logTimeLayout),
		r.MAEModel, r.MAEBaseline, r.DirAccModel, r.DirAccBaseline, r.ValidationSize)
	return appendLine(l.path, []byte(line))
}

// ImportanceLog appends feature-importance snapshots, one JSON object per
// line.
type ImportanceLog struct {
	path string
}

func NewImportanceLog(path string) *ImportanceLog { return &ImportanceLog{path: path} }

// Append writes one snapshot line.
func (l *ImportanceLog) Append(features []models.FeatureImportance) error {
	snap := models.ImportanceSnapshot{
		Timestamp: nowString(),
		Features:  features,
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return appendLine(l.path, append(b, '\n'))
}

func nowString() string { return time.Now().Format(logTimeLayout) }

func appendLine(path string, line []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}
