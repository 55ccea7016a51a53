package forecast

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"StockCast/internal/services/features"
)

const (
	modelFile  = "model.json"
	scalerFile = "scaler.json"
	metaFile   = "metadata.json"
)

// Metadata describes the persisted artifact bundle. Load refuses bundles
// whose schema does not match the current feature set: misaligned features
// must trigger a retrain, never a silent mis-scale.
type Metadata struct {
	TrainedAt      time.Time `json:"trained_at"`
	LookBack       int       `json:"look_back"`
	Interval       string    `json:"interval"`
	HistoryPeriod  string    `json:"history_period"`
	MarketIndices  []string  `json:"market_indices"`
	FeatureVersion int       `json:"feature_version"`
	ValMAE         float64   `json:"val_mae"`
}

// SaveArtifacts writes regressor, scaler and metadata into the artifact
// directory. Partial writes leave the previous bundle recoverable only by
// retrain, which Load handles as a cache miss.
func (m *BoostedModel) SaveArtifacts() error {
	if !m.trained {
		return fmt.Errorf("cannot persist untrained model")
	}
	if err := os.MkdirAll(m.cfg.ArtifactDir, 0o755); err != nil {
		return fmt.Errorf("artifact dir: %w", err)
	}

	meta := Metadata{
		TrainedAt:      m.trainedAt,
		LookBack:       m.cfg.LookBack,
		Interval:       m.cfg.Interval,
		HistoryPeriod:  m.cfg.HistoryPeriod,
		MarketIndices:  m.cfg.Indices,
		FeatureVersion: features.SchemaVersion,
		ValMAE:         m.valMAE,
	}

	if err := writeJSON(filepath.Join(m.cfg.ArtifactDir, modelFile), m.ens); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(m.cfg.ArtifactDir, scalerFile), m.scaler); err != nil {
		return err
	}
	return writeJSON(filepath.Join(m.cfg.ArtifactDir, metaFile), meta)
}

// LoadArtifacts restores a persisted bundle. Any missing file, decode
// failure, or schema mismatch is returned as an error so the caller can
// fall back to training from scratch; the model is left untouched on
// failure.
func (m *BoostedModel) LoadArtifacts() error {
	var meta Metadata
	if err := readJSON(filepath.Join(m.cfg.ArtifactDir, metaFile), &meta); err != nil {
		return err
	}

	if meta.FeatureVersion != features.SchemaVersion {
		return fmt.Errorf("feature schema version mismatch: artifact %d, current %d",
			meta.FeatureVersion, features.SchemaVersion)
	}
	if meta.LookBack != m.cfg.LookBack {
		return fmt.Errorf("look-back mismatch: artifact %d, config %d", meta.LookBack, m.cfg.LookBack)
	}
	if !equalStrings(meta.MarketIndices, m.cfg.Indices) {
		return fmt.Errorf("market index set changed: artifact %v, config %v", meta.MarketIndices, m.cfg.Indices)
	}

	var ens Ensemble
	if err := readJSON(filepath.Join(m.cfg.ArtifactDir, modelFile), &ens); err != nil {
		return err
	}
	var scaler Scaler
	if err := readJSON(filepath.Join(m.cfg.ArtifactDir, scalerFile), &scaler); err != nil {
		return err
	}

	want := m.cfg.LookBack * features.Width(len(m.cfg.Indices))
	if scaler.Width() != want || ens.NumFeatures != want {
		return fmt.Errorf("artifact width mismatch: scaler %d, regressor %d, expected %d",
			scaler.Width(), ens.NumFeatures, want)
	}

	m.ens = &ens
	m.scaler = &scaler
	m.trainedAt = meta.TrainedAt
	m.valMAE = meta.ValMAE
	m.trained = true
	return nil
}

func writeJSON(path string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
