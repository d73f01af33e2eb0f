package scheduler

import (
	"math"

	"github.com/marketpulse/engine/pkg/types"
)

// diffResult pairs a triggered condition with the severity and payload its
// AlertEvent should carry.
type diffResult struct {
	condition types.AlertCondition
	severity  types.Severity
	payload   interface{}
}

// evaluateDiffRules runs every independent diff rule against the previous and
// new verdict and the monitor's entry snapshot, returning one diffResult per
// triggered condition. allowed restricts which conditions are evaluated at
// all, per the resolved alert policy.
func evaluateDiffRules(policy types.AlertPolicy, st *types.MonitorState, last, next *types.Verdict) []diffResult {
	allowed := make(map[types.AlertCondition]bool, len(policy.Conditions))
	for _, c := range policy.Conditions {
		allowed[c] = true
	}

	var results []diffResult

	if allowed[types.ConditionSentimentFlip] && last != nil {
		if r, ok := sentimentFlip(last, next); ok {
			results = append(results, r)
		}
	}

	if allowed[types.ConditionConfidenceDrift] && last != nil {
		if r, ok := confidenceDrift(policy, last, next); ok {
			results = append(results, r)
		}
	}

	if allowed[types.ConditionATRBandShift] && last != nil {
		if r, ok := atrBandShift(policy, last, next); ok {
			results = append(results, r)
		}
	}

	if allowed[types.ConditionValidityLoss] && st.EntrySnapshot != nil {
		if r, ok := validityLoss(*st.EntrySnapshot, next); ok {
			results = append(results, r)
		}
	}

	if allowed[types.ConditionNewCrossover] && last != nil {
		results = append(results, newCrossovers(last, next)...)
	}

	return results
}

// sentimentFlip fires when sentiment changes and neither reading is neutral,
// or a flip involving neutral still carries high confidence.
func sentimentFlip(last, next *types.Verdict) (diffResult, bool) {
	if last.Sentiment == next.Sentiment {
		return diffResult{}, false
	}
	bothDirectional := last.Sentiment != types.SentimentNeutral && next.Sentiment != types.SentimentNeutral
	involvesNeutralButConfident := (last.Sentiment == types.SentimentNeutral || next.Sentiment == types.SentimentNeutral) && next.Confidence >= 0.5
	if !bothDirectional && !involvesNeutralButConfident {
		return diffResult{}, false
	}

	deltas := make(map[string]float64, len(next.IndicatorSnapshot))
	for name, v := range next.IndicatorSnapshot {
		if prev, ok := last.IndicatorSnapshot[name]; ok {
			deltas[name] = v - prev
		}
	}

	return diffResult{
		condition: types.ConditionSentimentFlip,
		severity:  types.SeverityWarn,
		payload: types.SentimentFlipPayload{
			OldSentiment:    last.Sentiment,
			NewSentiment:    next.Sentiment,
			IndicatorDeltas: deltas,
		},
	}, true
}

func confidenceDrift(policy types.AlertPolicy, last, next *types.Verdict) (diffResult, bool) {
	delta := next.Confidence - last.Confidence
	if math.Abs(delta) < policy.MinConfidenceDrift {
		return diffResult{}, false
	}
	return diffResult{
		condition: types.ConditionConfidenceDrift,
		severity:  types.SeverityInfo,
		payload: types.ConfidenceDriftPayload{
			OldConfidence: last.Confidence,
			NewConfidence: next.Confidence,
			Delta:         delta,
		},
	}, true
}

func atrBandShift(policy types.AlertPolicy, last, next *types.Verdict) (diffResult, bool) {
	oldStop, _ := last.RiskLevels.StopLong.Float64()
	newStop, _ := next.RiskLevels.StopLong.Float64()
	oldTarget, _ := last.RiskLevels.TargetLong.Float64()
	newTarget, _ := next.RiskLevels.TargetLong.Float64()

	stopShift := math.Abs(newStop - oldStop)
	targetShift := math.Abs(newTarget - oldTarget)
	if stopShift < policy.MinBandShiftUnits && targetShift < policy.MinBandShiftUnits {
		return diffResult{}, false
	}

	return diffResult{
		condition: types.ConditionATRBandShift,
		severity:  types.SeverityInfo,
		payload: types.ATRBandShiftPayload{
			OldStopLong:           oldStop,
			NewStopLong:           newStop,
			OldTargetLong:         oldTarget,
			NewTargetLong:         newTarget,
			SuggestedTrailingStop: newStop,
		},
	}, true
}

// validityLoss fires when the current verdict disagrees with the directional
// read active at entry, or confidence has fallen more than 0.2 below the
// entry's confidence.
func validityLoss(entry types.EntrySnapshot, next *types.Verdict) (diffResult, bool) {
	disagrees := entry.Sentiment != types.SentimentNeutral && next.Sentiment != types.SentimentNeutral && entry.Sentiment != next.Sentiment
	confidenceCollapsed := next.Confidence < entry.Confidence-0.2
	if !disagrees && !confidenceCollapsed {
		return diffResult{}, false
	}
	return diffResult{
		condition: types.ConditionValidityLoss,
		severity:  types.SeverityWarn,
		payload: types.ValidityLossPayload{
			Entry:   entry,
			Current: *next,
		},
	}, true
}

// newCrossovers fires one event per crossover the new verdict reports that
// was not present in the previous verdict's detector output.
func newCrossovers(last, next *types.Verdict) []diffResult {
	seen := make(map[crossoverIdentity]bool)
	if last != nil {
		for _, e := range last.CrossoverEvents {
			seen[identityOf(e)] = true
		}
	}

	var results []diffResult
	for _, e := range next.CrossoverEvents {
		if seen[identityOf(e)] {
			continue
		}
		results = append(results, diffResult{
			condition: types.ConditionNewCrossover,
			severity:  types.SeverityInfo,
			payload:   types.NewCrossoverPayload{Event: e},
		})
	}
	return results
}

// crossoverIdentity is what makes two CrossoverEvents "the same event" across
// successive runs: the bar it happened on plus its kind and source.
type crossoverIdentity struct {
	barTimestampUnix int64
	kind             types.CrossoverKind
	source           types.CrossoverKindSource
}

func identityOf(e types.CrossoverEvent) crossoverIdentity {
	return crossoverIdentity{
		barTimestampUnix: e.BarTimestamp.Unix(),
		kind:             e.Kind,
		source:           e.KindSource,
	}
}
