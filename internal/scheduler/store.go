package scheduler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/marketpulse/engine/pkg/errs"
	"github.com/marketpulse/engine/pkg/types"
	"go.uber.org/zap"
)

// stateStore persists MonitorState to one JSON file per (group, symbol_key)
// under dataDir/monitors/<group_id>/<symbol_key>, using the same
// write-temp-then-rename discipline as the group store so a concurrent
// reader never observes a half-written monitor file.
type stateStore struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	dataDir string
}

func newStateStore(logger *zap.Logger, dataDir string) *stateStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &stateStore{logger: logger, dataDir: dataDir}
}

// sanitize maps a SymbolKey ("forex:EURUSD:1h") to a safe filename stem.
func sanitize(symbolKey string) string {
	return strings.ReplaceAll(symbolKey, ":", "_")
}

func (s *stateStore) path(groupID, symbolKey string) string {
	return filepath.Join(s.dataDir, "monitors", groupID, sanitize(symbolKey)+".json")
}

// loadAll returns every persisted monitor state, keyed by "groupID/symbolKey".
func (s *stateStore) loadAll() (map[string]*types.MonitorState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*types.MonitorState)
	root := filepath.Join(s.dataDir, "monitors")
	groupDirs, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindPersistenceFailure, "read monitors directory", err)
	}

	for _, gd := range groupDirs {
		if !gd.IsDir() {
			continue
		}
		groupID := gd.Name()
		files, err := os.ReadDir(filepath.Join(root, groupID))
		if err != nil {
			s.logger.Warn("failed to read monitor group directory", zap.String("group_id", groupID), zap.Error(err))
			continue
		}
		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
				continue
			}
			data, err := os.ReadFile(filepath.Join(root, groupID, f.Name()))
			if err != nil {
				s.logger.Warn("failed to read monitor state file", zap.String("file", f.Name()), zap.Error(err))
				continue
			}
			var st types.MonitorState
			if err := json.Unmarshal(data, &st); err != nil {
				s.logger.Warn("failed to parse monitor state file", zap.String("file", f.Name()), zap.Error(err))
				continue
			}
			out[key(st.GroupID, st.SymbolKey)] = &st
		}
	}
	return out, nil
}

// persist atomically writes one monitor state to disk.
func (s *stateStore) persist(st *types.MonitorState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dataDir, "monitors", st.GroupID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.KindPersistenceFailure, "create monitor directory", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindPersistenceFailure, "marshal monitor state", err)
	}

	target := s.path(st.GroupID, st.SymbolKey)
	tmp, err := os.CreateTemp(dir, sanitize(st.SymbolKey)+".*.tmp")
	if err != nil {
		return errs.Wrap(errs.KindPersistenceFailure, "create temp monitor file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrap(errs.KindPersistenceFailure, "write temp monitor file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrap(errs.KindPersistenceFailure, "sync temp monitor file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(errs.KindPersistenceFailure, "close temp monitor file", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(errs.KindPersistenceFailure, "rename monitor file into place", err)
	}
	return nil
}

// remove deletes a monitor's persisted state, e.g. when its group is deleted.
func (s *stateStore) remove(groupID, symbolKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(groupID, symbolKey)); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.KindPersistenceFailure, "remove monitor file", err)
	}
	return nil
}

func key(groupID, symbolKey string) string {
	return groupID + "/" + symbolKey
}
