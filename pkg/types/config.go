package types

import "time"

// AlertCondition names one of the diff rules the Scheduler can evaluate.
type AlertCondition string

const (
	ConditionSentimentFlip   AlertCondition = "sentiment_flip"
	ConditionConfidenceDrift AlertCondition = "confidence_drift"
	ConditionATRBandShift    AlertCondition = "atr_band_shift"
	ConditionValidityLoss    AlertCondition = "validity_loss"
	ConditionNewCrossover    AlertCondition = "new_crossover"
)

// AlertPolicy controls whether and how often a monitor is evaluated, and which
// diff conditions are allowed to emit events for it.
type AlertPolicy struct {
	Enabled            bool
	CadenceMinutes     int
	ActiveWeekdays     []time.Weekday // empty means "all days"
	ActiveHours        []int          // 0..23, empty means "all hours"
	Timezone           string         // IANA timezone name; "" means UTC
	Conditions         []AlertCondition
	MinConfidenceDrift float64
	MinBandShiftUnits  float64
}

// DefaultAlertPolicy returns the built-in defaults layered at the base of the
// override resolution chain.
func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{
		Enabled:            false,
		CadenceMinutes:     15,
		ActiveWeekdays:     nil,
		ActiveHours:        nil,
		Timezone:           "UTC",
		Conditions: []AlertCondition{
			ConditionSentimentFlip,
			ConditionConfidenceDrift,
			ConditionATRBandShift,
			ConditionValidityLoss,
			ConditionNewCrossover,
		},
		MinConfidenceDrift: 0.1,
		MinBandShiftUnits:  0.5,
	}
}

// SparseAlertPolicy is an overlay that only touches fields it explicitly sets;
// a nil pointer field means "fall through to the lower layer".
type SparseAlertPolicy struct {
	Enabled            *bool
	CadenceMinutes     *int
	ActiveWeekdays     []time.Weekday
	ActiveHours        []int
	Timezone           *string
	Conditions         []AlertCondition
	MinConfidenceDrift *float64
	MinBandShiftUnits  *float64
}

// IndicatorOverrides is a sparse, per-family parameter override map.
type IndicatorOverrides map[IndicatorFamily]map[string]float64

// StrategyOverrides overrides the strategy name and/or its parameters for a symbol.
type StrategyOverrides struct {
	StrategyName string // empty means "inherit"
	Params       map[string]interface{}
}

// SymbolConfig is the leaf of the configuration hierarchy: one tradable instrument.
type SymbolConfig struct {
	Symbol             string
	AssetClass         AssetClass
	Interval           Interval
	Period             Period
	Enabled            bool
	IndicatorOverrides IndicatorOverrides
	StrategyOverrides  StrategyOverrides
	AlertPolicy        SparseAlertPolicy
}

// SymbolKey is the key SymbolConfigs are addressed by within a Group's members map.
func SymbolKey(symbol string, assetClass AssetClass, interval Interval) string {
	return string(assetClass) + ":" + symbol + ":" + string(interval)
}

// GroupDefaults hold the group-level overlay applied atop built-in defaults.
type GroupDefaults struct {
	Indicators    IndicatorOverrides
	StrategyName  string
	StrategyParams map[string]interface{}
	AlertPolicy   SparseAlertPolicy
	ScheduleCadenceMinutes int // 0 means "inherit built-in default"
}

// Group is a named collection of SymbolConfigs sharing a set of defaults.
type Group struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Enabled     bool
	Members     map[string]SymbolConfig // keyed by SymbolKey
	Defaults    GroupDefaults
}

// ResolvedConfig is the fully merged configuration for one (group, symbol)
// pair, produced by the model's override resolution function.
type ResolvedConfig struct {
	Symbol            string
	AssetClass        AssetClass
	Interval          Interval
	Period            Period
	Recipe            Recipe
	StrategyName      string
	StrategyParams    map[string]interface{}
	AlertPolicy       AlertPolicy
	CrossoverSettings CrossoverSettings
}
