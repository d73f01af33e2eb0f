// Package strategy provides pluggable trading strategy implementations and a
// registry for looking them up by name.
package strategy

import (
	"github.com/marketpulse/engine/internal/crossover"
	"github.com/marketpulse/engine/pkg/errs"
	"github.com/marketpulse/engine/pkg/types"
)

// Strategy is the interface every pluggable strategy implements.
type Strategy interface {
	// Name returns the stable registry identifier for this strategy.
	Name() string

	// ParameterTemplate describes the strategy's configurable parameters.
	// Strategies with no configurable surface return an empty template.
	ParameterTemplate() types.ParameterTemplate

	// Validate normalizes and range-checks params against the template,
	// returning every offending field in a single error.
	Validate(params map[string]interface{}) (map[string]interface{}, error)

	// Analyze produces a Verdict for the latest complete bar of frame.
	// params has already been validated. detector is pre-configured with the
	// resolved crossover settings for this symbol.
	Analyze(frame *types.Frame, params map[string]interface{}, result *types.IndicatorResult, detector *crossover.Detector) (*types.Verdict, error)
}

// RecipeProvider is an optional capability a Strategy implements when it
// needs indicator families beyond the standard recipe every symbol carries
// (e.g. the dual-Supertrend strategy's two distinctly parameterized
// Supertrend instances). The orchestrator type-asserts for this interface
// and appends its result to the resolved recipe before invoking the Kernel.
type RecipeProvider interface {
	Recipe(params map[string]interface{}) types.Recipe
}

// ValidateAgainstTemplate is the shared validation routine every strategy's
// Validate method delegates to: it fills in defaults for missing keys,
// rejects unknown keys, and range/choice-checks every value, accumulating
// every offending field into a single error rather than failing fast.
func ValidateAgainstTemplate(template types.ParameterTemplate, params map[string]interface{}) (map[string]interface{}, error) {
	normalized := make(map[string]interface{}, len(template))
	for _, spec := range template {
		normalized[spec.Name] = spec.Default
	}

	var offending []string
	for name, value := range params {
		spec, ok := template.Find(name)
		if !ok {
			offending = append(offending, name+": unknown parameter")
			continue
		}
		checked, err := checkParam(spec, value)
		if err != nil {
			offending = append(offending, name+": "+err.Error())
			continue
		}
		normalized[name] = checked
	}

	if len(offending) > 0 {
		msg := ""
		for i, o := range offending {
			if i > 0 {
				msg += "; "
			}
			msg += o
		}
		return nil, errs.New(errs.KindParameterValidation, msg)
	}

	return normalized, nil
}

func checkParam(spec types.ParamSpec, value interface{}) (interface{}, error) {
	switch spec.Kind {
	case types.ParamInt:
		v, ok := asFloat(value)
		if !ok {
			return nil, errs.New(errs.KindParameterValidation, "expected int")
		}
		iv := int(v)
		if lo, ok := spec.Min.(int); ok && iv < lo {
			return nil, errs.New(errs.KindParameterValidation, "below minimum")
		}
		if hi, ok := spec.Max.(int); ok && iv > hi {
			return nil, errs.New(errs.KindParameterValidation, "above maximum")
		}
		return iv, nil

	case types.ParamFloat:
		v, ok := asFloat(value)
		if !ok {
			return nil, errs.New(errs.KindParameterValidation, "expected float")
		}
		if lo, ok := spec.Min.(float64); ok && v < lo {
			return nil, errs.New(errs.KindParameterValidation, "below minimum")
		}
		if hi, ok := spec.Max.(float64); ok && v > hi {
			return nil, errs.New(errs.KindParameterValidation, "above maximum")
		}
		return v, nil

	case types.ParamBool:
		v, ok := value.(bool)
		if !ok {
			return nil, errs.New(errs.KindParameterValidation, "expected bool")
		}
		return v, nil

	case types.ParamEnum:
		v, ok := value.(string)
		if !ok {
			return nil, errs.New(errs.KindParameterValidation, "expected enum string")
		}
		for _, c := range spec.Choices {
			if c == v {
				return v, nil
			}
		}
		return nil, errs.New(errs.KindParameterValidation, "not in choices")

	default:
		return nil, errs.New(errs.KindParameterValidation, "unknown parameter kind")
	}
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func paramFloat(params map[string]interface{}, name string, def float64) float64 {
	if v, ok := params[name]; ok {
		if f, ok := asFloat(v); ok {
			return f
		}
	}
	return def
}

func paramInt(params map[string]interface{}, name string, def int) int {
	if v, ok := params[name]; ok {
		if f, ok := asFloat(v); ok {
			return int(f)
		}
	}
	return def
}
