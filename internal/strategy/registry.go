package strategy

import (
	"sync"

	"github.com/marketpulse/engine/pkg/errs"
	"go.uber.org/zap"
)

// Factory builds a fresh Strategy instance. Strategies are stateless between
// calls to Analyze, so a single shared instance per name would also be safe,
// but factories keep the door open for strategies that cache per-run state.
type Factory func() Strategy

// Registry is the process-wide, write-once-at-init name->factory map. It is
// read-only after construction finishes; the only mutation path is Register,
// called during startup wiring.
type Registry struct {
	logger    *zap.Logger
	mu        sync.RWMutex
	factories map[string]Factory
	aliases   map[string]string
}

// NewRegistry builds a Registry pre-populated with the two mandated strategies.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		logger:    logger,
		factories: make(map[string]Factory),
		aliases:   make(map[string]string),
	}

	r.Register(NameDefaultCheckSingleTimeframe, func() Strategy { return NewDefaultStrategy() })
	r.Register(NameDualSupertrendCheckSingleTimeframe, func() Strategy { return NewDualSupertrendStrategy() })

	// Legacy alias: the source system resolved "single-check" to the same
	// implementation as "default-check-single-timeframe" (§9); preserved here
	// rather than treated as a bug.
	r.RegisterAlias("single-check", NameDefaultCheckSingleTimeframe)

	return r
}

// Register adds or replaces a strategy factory under name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	r.logger.Debug("registered strategy", zap.String("name", name))
}

// RegisterAlias maps an alternate name onto an already-registered canonical name.
func (r *Registry) RegisterAlias(alias, canonical string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = canonical
}

// Create instantiates the strategy registered under name, resolving aliases
// first. Unknown names return a KindUnknownStrategy error; the caller never
// silently falls back to a default.
func (r *Registry) Create(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved := name
	if canonical, ok := r.aliases[name]; ok {
		resolved = canonical
	}

	factory, ok := r.factories[resolved]
	if !ok {
		return nil, errs.New(errs.KindUnknownStrategy, "unknown strategy: "+name)
	}
	return factory(), nil
}

// List returns the canonical strategy names currently registered.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// GetTemplate returns the parameter template for a registered strategy
// without retaining the instance, for the "get-template" CLI query.
func (r *Registry) GetTemplate(name string) (interface{ }, error) {
	s, err := r.Create(name)
	if err != nil {
		return nil, err
	}
	return s.ParameterTemplate(), nil
}
