package types

// IndicatorFamily names a computable indicator family.
type IndicatorFamily string

const (
	FamilyRSI         IndicatorFamily = "rsi"
	FamilyStochastic  IndicatorFamily = "stochastic"
	FamilyWilliamsR   IndicatorFamily = "williams_r"
	FamilyCCI         IndicatorFamily = "cci"
	FamilyMACD        IndicatorFamily = "macd"
	FamilyADX         IndicatorFamily = "adx"
	FamilyBollinger   IndicatorFamily = "bollinger"
	FamilyATR         IndicatorFamily = "atr"
	FamilySMA         IndicatorFamily = "sma"
	FamilyEMA         IndicatorFamily = "ema"
	FamilySupertrend  IndicatorFamily = "supertrend"
)

// IndicatorSpec names one member of a recipe plus the parameters to run it with.
type IndicatorSpec struct {
	Family IndicatorFamily
	Params map[string]float64
}

// Recipe is an ordered list of indicator specs evaluated by the Kernel.
type Recipe []IndicatorSpec

// Series is a named float64 series with the same length as the Frame it was computed over.
type Series []float64

// IndicatorOutput is one named output of a single indicator spec (e.g. "rsi",
// or "macd"/"signal"/"hist" for MACD). Series outputs carry NaN for leading
// bars where the indicator has insufficient history; scalar outputs carry a
// single summary value.
type IndicatorOutput struct {
	Series []float64
	Scalar float64
	IsScalar bool
}

// IndicatorResult is the output of Kernel.Compute: a named mapping from
// "family.output" to its computed values, plus the recipe used to produce it
// so the result is reproducible and self-describing.
type IndicatorResult struct {
	Recipe  Recipe
	Outputs map[string]IndicatorOutput
}

// Series looks up a named series output, returning nil, false if absent.
func (r *IndicatorResult) Series(key string) ([]float64, bool) {
	out, ok := r.Outputs[key]
	if !ok || out.IsScalar {
		return nil, false
	}
	return out.Series, true
}

// Scalar looks up a named scalar output.
func (r *IndicatorResult) Scalar(key string) (float64, bool) {
	out, ok := r.Outputs[key]
	if !ok || !out.IsScalar {
		return 0, false
	}
	return out.Scalar, true
}

// Last returns the last value of a named series, or NaN if absent/empty.
func (r *IndicatorResult) Last(key string) float64 {
	s, ok := r.Series(key)
	if !ok || len(s) == 0 {
		return nan
	}
	return s[len(s)-1]
}

// ParamKind tags the type of a strategy parameter value.
type ParamKind string

const (
	ParamInt   ParamKind = "int"
	ParamFloat ParamKind = "float"
	ParamBool  ParamKind = "bool"
	ParamEnum  ParamKind = "enum"
)

// ParamSpec describes one entry of a Parameter Template.
type ParamSpec struct {
	Name        string
	Kind        ParamKind
	Default     interface{}
	Min         interface{} // for int/float
	Max         interface{} // for int/float
	Choices     []string    // for enum
	Description string
}

// ParameterTemplate is an ordered set of parameter specs for a strategy.
type ParameterTemplate []ParamSpec

// Defaults returns the default values keyed by parameter name.
func (t ParameterTemplate) Defaults() map[string]interface{} {
	out := make(map[string]interface{}, len(t))
	for _, p := range t {
		out[p.Name] = p.Default
	}
	return out
}

// Find returns the ParamSpec named name, or ok=false.
func (t ParameterTemplate) Find(name string) (ParamSpec, bool) {
	for _, p := range t {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}
