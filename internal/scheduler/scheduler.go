// Package scheduler drives the Orchestrator on an independent cadence per
// (group, symbol_key), diffs successive verdicts, and emits classified
// events to a Notifier. It owns the only mutable state that survives between
// ticks: MonitorState.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marketpulse/engine/internal/model"
	"github.com/marketpulse/engine/internal/orchestrator"
	"github.com/marketpulse/engine/internal/workers"
	"github.com/marketpulse/engine/pkg/errs"
	"github.com/marketpulse/engine/pkg/types"
	"go.uber.org/zap"
)

const (
	// defaultFailureThreshold is how many consecutive data_unavailable
	// failures a monitor tolerates before entering Failing.
	defaultFailureThreshold = 3
	// defaultBackoffCap is the maximum backoff delay once Failing.
	defaultBackoffCap = time.Hour
	// defaultDailyCap bounds identical consecutive events per (monitor,
	// condition) per calendar day, to prevent alert storms.
	defaultDailyCap = 10
	// defaultMaxWorkers is the scheduler's own ceiling on top of
	// min(maxWorkers, monitors); see workers.BoundedPoolConfig.
	defaultMaxWorkers = 8
	// defaultTickInterval is how often the scheduler checks for due monitors.
	defaultTickInterval = 15 * time.Second
)

// Config configures a Scheduler. Zero values fall back to the package defaults.
type Config struct {
	FailureThreshold int
	BackoffCap       time.Duration
	DailyCap         int
	MaxWorkers       int
	TickInterval     time.Duration
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = defaultFailureThreshold
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = defaultBackoffCap
	}
	if c.DailyCap <= 0 {
		c.DailyCap = defaultDailyCap
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = defaultMaxWorkers
	}
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	return c
}

// Scheduler maintains one logical monitor per enabled (group, symbol_key)
// and drives the Orchestrator on that monitor's cadence.
type Scheduler struct {
	logger   *zap.Logger
	store    *model.Store
	orch     *orchestrator.Orchestrator
	notifier types.Notifier
	states   *stateStore
	cfg      Config

	mu       sync.Mutex
	monitors map[string]*types.MonitorState
	pool     *workers.Pool

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New builds a Scheduler. logger and notifier may be nil; a nil notifier
// means events are computed but dropped, which is valid for dry runs.
func New(logger *zap.Logger, store *model.Store, orch *orchestrator.Orchestrator, notifier types.Notifier, dataDir string, cfg Config) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		logger:   logger,
		store:    store,
		orch:     orch,
		notifier: notifier,
		states:   newStateStore(logger, dataDir),
		cfg:      cfg.withDefaults(),
		monitors: make(map[string]*types.MonitorState),
	}
}

// Start loads persisted monitor state and begins the tick loop. Any monitor
// whose next_due_at is already in the past fires on the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}

	loaded, err := s.states.loadAll()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.monitors = loaded
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.tickLoop(ctx)
	return nil
}

// Stop cooperatively halts the tick loop and drains the worker pool,
// letting any in-flight orchestrator call finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	pool := s.pool
	s.mu.Unlock()

	s.wg.Wait()
	if pool != nil {
		return pool.Stop()
	}
	return nil
}

func (s *Scheduler) tickLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick determines which monitors are due, sizes a bounded worker pool to the
// number of due monitors, and runs each due monitor's orchestrator call
// concurrently, bounded by min(MaxWorkers, len(due)).
func (s *Scheduler) tick(ctx context.Context) {
	groups := s.store.ListGroups()

	now := time.Now()
	due := s.dueMonitors(groups, now)
	if len(due) == 0 {
		return
	}

	pool := workers.NewPool(s.logger, workers.BoundedPoolConfig("scheduler", len(due), s.cfg.MaxWorkers))
	pool.Start()
	s.mu.Lock()
	s.pool = pool
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, d := range due {
		d := d
		wg.Add(1)
		task := func() error {
			defer wg.Done()
			s.runOne(ctx, d.group, d.symbol, d.resolved)
			return nil
		}
		if err := pool.SubmitFunc(task); err != nil {
			wg.Done()
			s.logger.Warn("failed to submit monitor tick", zap.String("symbol_key", d.symbolKey), zap.Error(err))
		}
	}
	wg.Wait()
	pool.Stop()
}

type dueMonitor struct {
	group     types.Group
	symbol    types.SymbolConfig
	symbolKey string
	resolved  types.ResolvedConfig
}

// dueMonitors returns every enabled monitor whose next_due_at has arrived and
// which falls within its alert policy's active window, creating fresh
// MonitorState for any monitor seen for the first time.
func (s *Scheduler) dueMonitors(groups []types.Group, now time.Time) []dueMonitor {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []dueMonitor
	exists := make(map[string]bool)

	for _, g := range groups {
		for symbolKey := range g.Members {
			exists[key(g.ID, symbolKey)] = true
		}
		if !g.Enabled {
			continue
		}
		for symbolKey, symbol := range g.Members {
			if !symbol.Enabled {
				continue
			}
			resolved := model.Resolve(g, symbol)
			if !resolved.AlertPolicy.Enabled {
				continue
			}

			k := key(g.ID, symbolKey)

			st, ok := s.monitors[k]
			if !ok {
				st = &types.MonitorState{GroupID: g.ID, SymbolKey: symbolKey, Status: types.MonitorIdle}
				s.monitors[k] = st
			}

			if st.Status == types.MonitorRunning {
				continue
			}
			if st.Status == types.MonitorFailing && now.Before(st.BackoffUntil) {
				continue
			}
			if !st.NextDueAt.IsZero() && now.Before(st.NextDueAt) {
				continue
			}
			if !withinActiveWindow(resolved.AlertPolicy, now) {
				continue
			}

			st.Status = types.MonitorRunning
			due = append(due, dueMonitor{group: g, symbol: symbol, symbolKey: symbolKey, resolved: resolved})
		}
	}

	// A monitor missing from exists means its symbol or its group was deleted
	// from the Model since the last tick (a disabled-but-still-present group
	// or symbol stays in exists and keeps its history). Evict it rather than
	// holding state for a symbol the Model no longer knows about.
	for k, st := range s.monitors {
		if exists[k] || st.Status == types.MonitorRunning {
			continue
		}
		delete(s.monitors, k)
		if err := s.states.remove(st.GroupID, st.SymbolKey); err != nil {
			s.logger.Warn("failed to remove persisted state for deleted monitor", zap.String("monitor", k), zap.Error(err))
		}
	}

	return due
}

// withinActiveWindow reports whether now, interpreted in the policy's
// timezone, falls within the configured active weekdays and hours. Empty
// weekday/hour sets mean "always".
func withinActiveWindow(policy types.AlertPolicy, now time.Time) bool {
	loc, err := time.LoadLocation(policy.Timezone)
	if err != nil || policy.Timezone == "" {
		loc = time.UTC
	}
	local := now.In(loc)

	if len(policy.ActiveWeekdays) > 0 {
		ok := false
		for _, d := range policy.ActiveWeekdays {
			if d == local.Weekday() {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	if len(policy.ActiveHours) > 0 {
		ok := false
		for _, h := range policy.ActiveHours {
			if h == local.Hour() {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	return true
}

// runOne performs one monitor's tick: invoke the orchestrator, diff against
// the last verdict, emit events, and persist the updated state.
func (s *Scheduler) runOne(ctx context.Context, group types.Group, symbol types.SymbolConfig, resolved types.ResolvedConfig) {
	k := key(group.ID, types.SymbolKey(symbol.Symbol, symbol.AssetClass, symbol.Interval))

	s.mu.Lock()
	st := s.monitors[k]
	s.mu.Unlock()

	verdict, err := s.orch.Analyze(ctx, resolved)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		st.ConsecutiveFailures++
		st.LastRunAt = now
		if errs.Retriable(err) && st.ConsecutiveFailures >= s.cfg.FailureThreshold {
			st.Status = types.MonitorFailing
			backoff := time.Duration(st.ConsecutiveFailures-s.cfg.FailureThreshold+1) * time.Minute
			if backoff > s.cfg.BackoffCap {
				backoff = s.cfg.BackoffCap
			}
			st.BackoffUntil = now.Add(backoff)
		} else {
			st.Status = types.MonitorIdle
			st.NextDueAt = now.Add(time.Duration(resolved.AlertPolicy.CadenceMinutes) * time.Minute)
		}
		s.logger.Warn("monitor tick failed", zap.String("monitor", k), zap.Error(err))
		s.persist(st)
		return
	}

	st.ConsecutiveFailures = 0
	last := st.LastVerdict
	s.emitEvents(group.ID, k, resolved.AlertPolicy, st, last, verdict, now)

	updateEntrySnapshot(st, verdict, now)

	st.LastVerdict = verdict
	st.LastRunAt = now
	st.Status = types.MonitorIdle
	st.NextDueAt = now.Add(time.Duration(resolved.AlertPolicy.CadenceMinutes) * time.Minute)

	s.persist(st)
}

// updateEntrySnapshot keeps st.EntrySnapshot in sync with whether the monitor
// currently holds a directional call. A monitor "enters" on its first
// directional verdict (buy/strong_buy or sell/strong_sell) and stays entered,
// carrying the snapshot taken at entry, until it reads neutral again, at
// which point the snapshot is cleared so a later entry starts fresh.
func updateEntrySnapshot(st *types.MonitorState, verdict *types.Verdict, now time.Time) {
	switch verdict.Strength {
	case types.StrengthBuy, types.StrengthStrongBuy, types.StrengthSell, types.StrengthStrongSell:
		if st.EntrySnapshot == nil {
			st.EntrySnapshot = &types.EntrySnapshot{
				Sentiment:  verdict.Sentiment,
				Confidence: verdict.Confidence,
				EnteredAt:  now,
			}
		}
	default:
		st.EntrySnapshot = nil
	}
}

func (s *Scheduler) persist(st *types.MonitorState) {
	if err := s.states.persist(st); err != nil {
		s.logger.Error("failed to persist monitor state", zap.String("group_id", st.GroupID), zap.String("symbol_key", st.SymbolKey), zap.Error(err))
	}
}

// emitEvents runs the diff rules and notifies for every triggered condition
// that survives dedup: at most one event per (monitor, condition) within a
// cadence interval, and at most DailyCap identical-condition events per
// calendar day.
func (s *Scheduler) emitEvents(groupID, monitorKey string, policy types.AlertPolicy, st *types.MonitorState, last, next *types.Verdict, now time.Time) {
	results := evaluateDiffRules(policy, st, last, next)
	if len(results) == 0 {
		return
	}

	today := now.Format("2006-01-02")
	if st.AlertsEmittedDate != today {
		st.AlertsEmittedDate = today
		st.AlertsEmittedToday = make(map[types.AlertCondition]int)
	}
	if st.AlertsEmittedToday == nil {
		st.AlertsEmittedToday = make(map[types.AlertCondition]int)
	}
	if st.LastEventAt == nil {
		st.LastEventAt = make(map[types.AlertCondition]time.Time)
	}

	cadence := time.Duration(policy.CadenceMinutes) * time.Minute

	for _, r := range results {
		if last, ok := st.LastEventAt[r.condition]; ok && now.Sub(last) < cadence {
			continue
		}
		if st.AlertsEmittedToday[r.condition] >= s.cfg.DailyCap {
			continue
		}

		st.LastEventAt[r.condition] = now
		st.AlertsEmittedToday[r.condition]++

		if s.notifier != nil {
			s.notifier.Notify(types.AlertEvent{
				Timestamp: now,
				GroupID:   groupID,
				SymbolKey: st.SymbolKey,
				MonitorID: monitorKey,
				Condition: r.condition,
				Severity:  r.severity,
				Payload:   r.payload,
			})
		}
	}
}

// Snapshot returns a copy of every monitor's current state, for the admin
// server's read-only status view.
func (s *Scheduler) Snapshot() []types.MonitorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.MonitorState, 0, len(s.monitors))
	for _, st := range s.monitors {
		out = append(out, *st)
	}
	return out
}
