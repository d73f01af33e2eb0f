// Package history persists every emitted AlertEvent to an append-only daily
// log under dataDir/alerts_history/<YYYY-MM-DD>.json, so operators can
// reconstruct what fired on a given day without replaying the scheduler.
// It subscribes to the alertbus.Bus like any other sink and never feeds
// back into analysis.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/marketpulse/engine/pkg/errs"
	"github.com/marketpulse/engine/pkg/types"
	"go.uber.org/zap"
)

// Sink appends AlertEvents to daily JSON files, one array per calendar day in
// UTC, using the same write-temp-then-rename discipline as the group and
// monitor stores so a concurrent reader never observes a half-written file.
type Sink struct {
	logger  *zap.Logger
	dataDir string

	mu sync.Mutex
}

// NewSink builds a history Sink rooted at dataDir/alerts_history.
func NewSink(logger *zap.Logger, dataDir string) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{logger: logger, dataDir: dataDir}
}

func (s *Sink) dir() string {
	return filepath.Join(s.dataDir, "alerts_history")
}

func (s *Sink) path(day string) string {
	return filepath.Join(s.dir(), day+".json")
}

// OnAlert implements alertbus.Handler. It appends event to the log file for
// the UTC calendar day of event.Timestamp, creating the file if this is the
// first event of the day.
func (s *Sink) OnAlert(event types.AlertEvent) {
	if err := s.append(event); err != nil {
		s.logger.Error("failed to persist alert history", zap.Error(err))
	}
}

func (s *Sink) append(event types.AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.KindPersistenceFailure, "create alerts_history directory", err)
	}

	day := event.Timestamp.UTC().Format("2006-01-02")
	target := s.path(day)

	events, err := s.readDay(target)
	if err != nil {
		return err
	}
	events = append(events, event)

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindPersistenceFailure, "marshal alert history", err)
	}

	tmp, err := os.CreateTemp(dir, day+".*.tmp")
	if err != nil {
		return errs.Wrap(errs.KindPersistenceFailure, "create temp alert history file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrap(errs.KindPersistenceFailure, "write temp alert history file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrap(errs.KindPersistenceFailure, "sync temp alert history file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(errs.KindPersistenceFailure, "close temp alert history file", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(errs.KindPersistenceFailure, "rename alert history file into place", err)
	}
	return nil
}

func (s *Sink) readDay(path string) ([]types.AlertEvent, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindPersistenceFailure, "read alert history file", err)
	}
	var events []types.AlertEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, errs.Wrap(errs.KindPersistenceFailure, "parse alert history file", err)
	}
	return events, nil
}

// Day returns the events persisted for the given UTC calendar day
// ("YYYY-MM-DD"), for operator tooling or tests.
func (s *Sink) Day(day string) ([]types.AlertEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readDay(s.path(day))
}

// Today is a convenience wrapper over Day for the current UTC date.
func (s *Sink) Today() ([]types.AlertEvent, error) {
	return s.Day(time.Now().UTC().Format("2006-01-02"))
}
