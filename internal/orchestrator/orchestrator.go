// Package orchestrator wires the Frame, Kernel, Detector and Strategy stages
// together into the single end-to-end analysis operation the Scheduler drives.
package orchestrator

import (
	"context"
	"time"

	"github.com/marketpulse/engine/internal/crossover"
	"github.com/marketpulse/engine/internal/indicators"
	"github.com/marketpulse/engine/internal/strategy"
	"github.com/marketpulse/engine/pkg/errs"
	"github.com/marketpulse/engine/pkg/types"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single DataProvider.Fetch call. It is always
// finite: a provider that never returns surfaces as data_unavailable rather
// than hanging a monitor forever.
const DefaultTimeout = 30 * time.Second

// Orchestrator runs the six synchronous steps of one analysis: fetch,
// validate, compute indicators, build the detector, run the strategy, attach
// metadata. It holds no per-symbol state; all of that lives in the Scheduler.
type Orchestrator struct {
	logger   *zap.Logger
	provider types.DataProvider
	kernel   *indicators.Kernel
	registry *strategy.Registry
	timeout  time.Duration
}

// New builds an Orchestrator. logger may be nil.
func New(logger *zap.Logger, provider types.DataProvider, kernel *indicators.Kernel, registry *strategy.Registry) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		logger:   logger,
		provider: provider,
		kernel:   kernel,
		registry: registry,
		timeout:  DefaultTimeout,
	}
}

// Analyze runs one full analysis pass for a resolved symbol configuration.
// It never returns a nil Verdict on success; routine data shortfalls surface
// as a neutral Verdict with a reason code rather than an error, per the
// engine's advisory, never-throws-for-data-shortfalls contract. Only
// data_unavailable, data_invalid and config_invalid are returned as errors.
func (o *Orchestrator) Analyze(ctx context.Context, resolved types.ResolvedConfig) (*types.Verdict, error) {
	startedAt := time.Now()

	s, err := o.registry.Create(resolved.StrategyName)
	if err != nil {
		return nil, err // unknown_strategy: fatal, never retried
	}

	normalizedParams, err := s.Validate(resolved.StrategyParams)
	if err != nil {
		return nil, err // parameter_validation: fatal config error
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	frame, err := o.provider.Fetch(fetchCtx, resolved.Symbol, resolved.AssetClass, resolved.Interval, resolved.Period)
	if err != nil {
		o.logger.Warn("data provider fetch failed",
			zap.String("symbol", resolved.Symbol), zap.Error(err))
		return nil, errs.Wrap(errs.KindDataUnavailable, "fetch frame", err)
	}
	if frame == nil || frame.Len() == 0 {
		return nil, errs.New(errs.KindDataUnavailable, "provider returned an empty frame")
	}

	recipe := resolved.Recipe
	if rp, ok := s.(strategy.RecipeProvider); ok {
		recipe = append(append(types.Recipe{}, recipe...), rp.Recipe(normalizedParams)...)
	}

	result, err := o.kernel.Compute(frame, recipe)
	if err != nil {
		return nil, err // invalid_frame / unknown_indicator: data_invalid class, fatal to this run
	}

	det := crossover.New(resolved.CrossoverSettings)

	verdict, err := o.runStrategy(s, frame, normalizedParams, result, det)
	if err != nil {
		o.logger.Error("strategy panicked or errored",
			zap.String("strategy", resolved.StrategyName), zap.Error(err))
		verdict = &types.Verdict{
			Symbol:       resolved.Symbol,
			StrategyName: resolved.StrategyName,
			Sentiment:    types.SentimentNeutral,
			Strength:     types.StrengthNeutral,
			Reasons:      []string{types.ReasonInternalError},
		}
	}

	verdict.RunAt = startedAt
	verdict.DataCompleteness = 1.0
	verdict.ParametersUsed = normalizedParams

	return verdict, nil
}

// runStrategy isolates the strategy call so a panic inside third-party or
// future strategy code degrades to a StrategyInternal error instead of
// taking the whole monitor down, per the strategy_error failure class.
func (o *Orchestrator) runStrategy(s strategy.Strategy, frame *types.Frame, params map[string]interface{}, result *types.IndicatorResult, det *crossover.Detector) (v *types.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.New(errs.KindStrategyInternal, "strategy panicked")
		}
	}()
	return s.Analyze(frame, params, result, det)
}
