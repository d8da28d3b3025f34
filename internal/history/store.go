package history

import (
	"fmt"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"gaugeScope/internal/model"
	"gaugeScope/internal/storage"
)

// Store persists one epoch-keyed history file per gauge.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore returns a store rooted at dir (normally <data-dir>/gauges).
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// Path returns the history file of a gauge.
func (s *Store) Path(gauge string) string {
	return filepath.Join(s.dir, model.AddressKey(gauge)+".json")
}

// Load reads a gauge's history. A missing file yields an empty history.
func (s *Store) Load(gauge string) (model.History, error) {
	history := model.History{}
	if _, err := storage.ReadJSON(s.Path(gauge), &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = model.History{}
	}
	return history, nil
}

// Merge folds this run's values into the record of epoch and rewrites the
// whole file. Supply samples are appended only when the value differs from
// the last stored sample; scalar fields are always overwritten.
func (s *Store) Merge(gauge string, epoch uint64, update model.HistoryUpdate) (*model.HistoryRecord, error) {
	history, err := s.Load(gauge)
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", gauge, err)
	}

	key := strconv.FormatUint(epoch, 10)
	record := history[key]
	if record == nil {
		record = &model.HistoryRecord{}
		history[key] = record
	}

	record.LPTotalSupplys = appendSample(record.LPTotalSupplys, update.LPTotalSupply)
	record.GaugeTotalSupplys = appendSample(record.GaugeTotalSupplys, update.GaugeTotalSupply)

	record.NewWeight = update.NewWeight
	record.NewPercentage = update.NewPercentage
	record.GaugeCrvApy = update.GaugeCrvApy
	record.FutureGaugeCrvApy = update.FutureGaugeCrvApy
	record.InflationRate = update.InflationRate

	if err := storage.WriteJSON(s.Path(gauge), history); err != nil {
		return nil, fmt.Errorf("write history %s: %w", gauge, err)
	}

	s.logger.Debug("history merged",
		zap.String("gauge", model.AddressKey(gauge)),
		zap.Uint64("epoch", epoch),
		zap.Int("lp_samples", len(record.LPTotalSupplys)),
		zap.Int("gauge_samples", len(record.GaugeTotalSupplys)),
	)
	return record, nil
}

func appendSample(series []model.SupplySample, sample model.SupplySample) []model.SupplySample {
	if len(series) > 0 && series[len(series)-1].TotalSupply == sample.TotalSupply {
		return series
	}
	return append(series, sample)
}
