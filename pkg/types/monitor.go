package types

import "time"

// MonitorStatus is the state-machine position of one (group, symbol) monitor.
type MonitorStatus string

const (
	MonitorIdle    MonitorStatus = "idle"
	MonitorDue     MonitorStatus = "due"
	MonitorRunning MonitorStatus = "running"
	MonitorCooling MonitorStatus = "cooling"
	MonitorFailing MonitorStatus = "failing"
)

// EntrySnapshot freezes the Verdict that was active when a position was
// considered "entered", for the validity_loss diff rule.
type EntrySnapshot struct {
	Sentiment  Sentiment
	Confidence float64
	EnteredAt  time.Time
}

// MonitorState is the Scheduler-owned state for one (group, symbol_key) pair.
type MonitorState struct {
	GroupID             string
	SymbolKey           string
	Status              MonitorStatus
	LastVerdict         *Verdict
	LastRunAt           time.Time
	NextDueAt           time.Time
	ConsecutiveFailures int
	EntrySnapshot       *EntrySnapshot
	AlertsEmittedToday  map[AlertCondition]int // count per condition, reset at local-midnight rollover
	AlertsEmittedDate   string                 // YYYY-MM-DD the counters above belong to
	LastEventAt         map[AlertCondition]time.Time // last time each condition fired, for per-cadence dedup
	BackoffUntil        time.Time
}
