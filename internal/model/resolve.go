package model

import "github.com/marketpulse/engine/pkg/types"

// Resolve flattens built-in defaults, a group's defaults, and a symbol's
// overrides into a single ResolvedConfig. It is a pure function: the same
// inputs always produce the same output, and a partial override at any layer
// only touches the keys it explicitly names.
func Resolve(group types.Group, symbol types.SymbolConfig) types.ResolvedConfig {
	recipe := builtinRecipe()
	recipe = applyIndicatorOverrides(recipe, group.Defaults.Indicators)
	recipe = applyIndicatorOverrides(recipe, symbol.IndicatorOverrides)

	strategyName := builtinStrategyName
	if group.Defaults.StrategyName != "" {
		strategyName = group.Defaults.StrategyName
	}
	strategyParams := mergeParams(nil, group.Defaults.StrategyParams)

	if symbol.StrategyOverrides.StrategyName != "" {
		strategyName = symbol.StrategyOverrides.StrategyName
	}
	strategyParams = mergeParams(strategyParams, symbol.StrategyOverrides.Params)

	policy := resolveAlertPolicy(group, symbol)

	return types.ResolvedConfig{
		Symbol:            symbol.Symbol,
		AssetClass:        symbol.AssetClass,
		Interval:          symbol.Interval,
		Period:            symbol.Period,
		Recipe:            recipe,
		StrategyName:      strategyName,
		StrategyParams:    strategyParams,
		AlertPolicy:       policy,
		CrossoverSettings: types.DefaultCrossoverSettings(),
	}
}

func mergeParams(base, overlay map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

func resolveAlertPolicy(group types.Group, symbol types.SymbolConfig) types.AlertPolicy {
	policy := builtinAlertPolicy()
	if group.Defaults.ScheduleCadenceMinutes > 0 {
		policy.CadenceMinutes = group.Defaults.ScheduleCadenceMinutes
	} else {
		policy.CadenceMinutes = builtinCadenceMinutes
	}
	applySparsePolicy(&policy, group.Defaults.AlertPolicy)
	applySparsePolicy(&policy, symbol.AlertPolicy)
	return policy
}

func applySparsePolicy(policy *types.AlertPolicy, sparse types.SparseAlertPolicy) {
	if sparse.Enabled != nil {
		policy.Enabled = *sparse.Enabled
	}
	if sparse.CadenceMinutes != nil {
		policy.CadenceMinutes = *sparse.CadenceMinutes
	}
	if sparse.ActiveWeekdays != nil {
		policy.ActiveWeekdays = sparse.ActiveWeekdays
	}
	if sparse.ActiveHours != nil {
		policy.ActiveHours = sparse.ActiveHours
	}
	if sparse.Timezone != nil {
		policy.Timezone = *sparse.Timezone
	}
	if sparse.Conditions != nil {
		policy.Conditions = sparse.Conditions
	}
	if sparse.MinConfidenceDrift != nil {
		policy.MinConfidenceDrift = *sparse.MinConfidenceDrift
	}
	if sparse.MinBandShiftUnits != nil {
		policy.MinBandShiftUnits = *sparse.MinBandShiftUnits
	}
}
