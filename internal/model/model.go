// Package model owns the hierarchical Group/SymbolConfig configuration store
// and the pure override-resolution function that flattens it into a
// ResolvedConfig for the orchestrator.
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/marketpulse/engine/pkg/errs"
	"github.com/marketpulse/engine/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store holds Groups in memory, backed by one JSON file per group under
// dataDir/groups. It is the only shared mutable state in the system: reads
// by the Scheduler and writes from CRUD callers are serialized by mu so a
// config change takes effect atomically between ticks, never mid-tick.
type Store struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	dataDir string
	groups  map[string]types.Group
}

// NewStore creates a Store rooted at dataDir and loads any persisted groups.
func NewStore(logger *zap.Logger, dataDir string) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		logger:  logger,
		dataDir: dataDir,
		groups:  make(map[string]types.Group),
	}

	groupsDir := filepath.Join(dataDir, "groups")
	if err := os.MkdirAll(groupsDir, 0o755); err != nil {
		return nil, errs.Wrap(errs.KindPersistenceFailure, "create groups directory", err)
	}

	if err := s.loadAll(groupsDir); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadAll(groupsDir string) error {
	entries, err := os.ReadDir(groupsDir)
	if err != nil {
		return errs.Wrap(errs.KindPersistenceFailure, "read groups directory", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(groupsDir, e.Name()))
		if err != nil {
			s.logger.Warn("failed to read group file", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		var g types.Group
		if err := json.Unmarshal(data, &g); err != nil {
			s.logger.Warn("failed to parse group file", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		s.groups[g.ID] = g
	}
	return nil
}

// CreateGroup assigns a new ID and persists the group.
func (s *Store) CreateGroup(g types.Group) (types.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = uuid.NewString()
	if g.Members == nil {
		g.Members = make(map[string]types.SymbolConfig)
	}
	s.groups[g.ID] = g
	if err := s.persistLocked(g); err != nil {
		return types.Group{}, err
	}
	return g, nil
}

// GetGroup returns the group with the given ID.
func (s *Store) GetGroup(id string) (types.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return types.Group{}, errs.New(errs.KindNotFound, fmt.Sprintf("group %q not found", id))
	}
	return g, nil
}

// ListGroups returns every group, sorted by ID for deterministic output.
func (s *Store) ListGroups() []types.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Group, 0, len(s.groups))
	for _, g := range s.groups {
		members := make(map[string]types.SymbolConfig, len(g.Members))
		for k, v := range g.Members {
			members[k] = v
		}
		g.Members = members
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateGroup replaces a group's stored value wholesale and persists it.
func (s *Store) UpdateGroup(g types.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.ID]; !ok {
		return errs.New(errs.KindNotFound, fmt.Sprintf("group %q not found", g.ID))
	}
	s.groups[g.ID] = g
	return s.persistLocked(g)
}

// DeleteGroup removes a group and its on-disk file. Per the data model,
// deleting a group deletes its members; monitor state for that group is the
// Scheduler's responsibility to tear down on the same event.
func (s *Store) DeleteGroup(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return errs.New(errs.KindNotFound, fmt.Sprintf("group %q not found", id))
	}
	delete(s.groups, id)
	path := filepath.Join(s.dataDir, "groups", id+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.KindPersistenceFailure, "remove group file", err)
	}
	return nil
}

// UpsertSymbol adds or replaces a SymbolConfig within a group.
func (s *Store) UpsertSymbol(groupID string, cfg types.SymbolConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return errs.New(errs.KindNotFound, fmt.Sprintf("group %q not found", groupID))
	}
	key := types.SymbolKey(cfg.Symbol, cfg.AssetClass, cfg.Interval)
	if g.Members == nil {
		g.Members = make(map[string]types.SymbolConfig)
	}
	g.Members[key] = cfg
	s.groups[groupID] = g
	return s.persistLocked(g)
}

// RemoveSymbol deletes a SymbolConfig from a group by its SymbolKey.
func (s *Store) RemoveSymbol(groupID, symbolKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return errs.New(errs.KindNotFound, fmt.Sprintf("group %q not found", groupID))
	}
	delete(g.Members, symbolKey)
	s.groups[groupID] = g
	return s.persistLocked(g)
}

// persistLocked writes a group to disk atomically: write to a temp file in
// the same directory, fsync, then rename over the target. The rename is
// atomic on POSIX filesystems, so a concurrent reader never observes a
// partially written group file.
func (s *Store) persistLocked(g types.Group) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindPersistenceFailure, "marshal group", err)
	}

	groupsDir := filepath.Join(s.dataDir, "groups")
	target := filepath.Join(groupsDir, g.ID+".json")
	tmp, err := os.CreateTemp(groupsDir, g.ID+".*.tmp")
	if err != nil {
		return errs.Wrap(errs.KindPersistenceFailure, "create temp group file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrap(errs.KindPersistenceFailure, "write temp group file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrap(errs.KindPersistenceFailure, "sync temp group file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(errs.KindPersistenceFailure, "close temp group file", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(errs.KindPersistenceFailure, "rename group file into place", err)
	}
	return nil
}
