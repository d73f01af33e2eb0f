package model

import "github.com/marketpulse/engine/pkg/types"

// builtinStrategyName is the hard-coded fallback strategy when neither a
// group nor a symbol names one.
const builtinStrategyName = "default-check-single-timeframe"

// builtinCadenceMinutes is the fallback cadence when a group's
// ScheduleCadenceMinutes is unset.
const builtinCadenceMinutes = 15

// builtinRecipe is the standard indicator battery computed for every symbol
// regardless of strategy: the strategies in this system only ever read from
// this fixed family set (plus any Supertrend instances the strategy itself
// demands, appended by the orchestrator). Defaults mirror the Kernel's own
// per-family defaults documented in internal/indicators.
func builtinRecipe() types.Recipe {
	return types.Recipe{
		{Family: types.FamilyRSI, Params: map[string]float64{"period": 14}},
		{Family: types.FamilyStochastic, Params: map[string]float64{"k_period": 14, "d_period": 3, "smooth_k": 3}},
		{Family: types.FamilyWilliamsR, Params: map[string]float64{"period": 14}},
		{Family: types.FamilyCCI, Params: map[string]float64{"period": 20}},
		{Family: types.FamilyMACD, Params: map[string]float64{"fast": 12, "slow": 26, "signal": 9}},
		{Family: types.FamilyADX, Params: map[string]float64{"period": 14}},
		{Family: types.FamilyBollinger, Params: map[string]float64{"period": 20, "stddev": 2.0}},
		{Family: types.FamilyATR, Params: map[string]float64{"period": 14}},
	}
}

// applyIndicatorOverrides merges a sparse override map onto the built-in
// recipe, only touching the named family/param keys.
func applyIndicatorOverrides(recipe types.Recipe, overrides types.IndicatorOverrides) types.Recipe {
	if len(overrides) == 0 {
		return recipe
	}
	merged := make(types.Recipe, len(recipe))
	copy(merged, recipe)
	for i, spec := range merged {
		if ov, ok := overrides[spec.Family]; ok {
			params := make(map[string]float64, len(spec.Params))
			for k, v := range spec.Params {
				params[k] = v
			}
			for k, v := range ov {
				params[k] = v
			}
			merged[i] = types.IndicatorSpec{Family: spec.Family, Params: params}
		}
	}
	return merged
}

func builtinAlertPolicy() types.AlertPolicy {
	return types.DefaultAlertPolicy()
}
