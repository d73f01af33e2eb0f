package history_test

import (
	"testing"
	"time"

	"github.com/marketpulse/engine/internal/history"
	"github.com/marketpulse/engine/pkg/types"
	"go.uber.org/zap"
)

func sampleEvent(ts time.Time, condition types.AlertCondition) types.AlertEvent {
	return types.AlertEvent{
		Timestamp: ts,
		GroupID:   "fx-majors",
		SymbolKey: "forex:EURUSD:1h",
		MonitorID: "fx-majors/forex:EURUSD:1h",
		Condition: condition,
		Severity:  types.SeverityWarn,
		Payload:   types.SentimentFlipPayload{OldSentiment: types.SentimentBullish, NewSentiment: types.SentimentBearish},
	}
}

func TestOnAlertAppendsToDailyFile(t *testing.T) {
	dir := t.TempDir()
	sink := history.NewSink(zap.NewNop(), dir)

	day := time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC)
	sink.OnAlert(sampleEvent(day, types.ConditionSentimentFlip))
	sink.OnAlert(sampleEvent(day.Add(time.Hour), types.ConditionValidityLoss))

	events, err := sink.Day("2026-08-01")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Condition != types.ConditionSentimentFlip || events[1].Condition != types.ConditionValidityLoss {
		t.Fatalf("unexpected event order/content: %+v", events)
	}
}

func TestOnAlertSeparatesEventsByUTCDay(t *testing.T) {
	dir := t.TempDir()
	sink := history.NewSink(zap.NewNop(), dir)

	day1 := time.Date(2026, time.August, 1, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, time.August, 2, 1, 0, 0, 0, time.UTC)
	sink.OnAlert(sampleEvent(day1, types.ConditionSentimentFlip))
	sink.OnAlert(sampleEvent(day2, types.ConditionSentimentFlip))

	firstDay, err := sink.Day("2026-08-01")
	if err != nil {
		t.Fatalf("Day(2026-08-01): %v", err)
	}
	secondDay, err := sink.Day("2026-08-02")
	if err != nil {
		t.Fatalf("Day(2026-08-02): %v", err)
	}
	if len(firstDay) != 1 || len(secondDay) != 1 {
		t.Fatalf("expected one event per day, got %d and %d", len(firstDay), len(secondDay))
	}
}

func TestDayWithNoEventsReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	sink := history.NewSink(zap.NewNop(), dir)

	events, err := sink.Day("2026-01-01")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}
