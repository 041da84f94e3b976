package predict

import (
	"fmt"
	"sort"
	"sync"
)

// Creator builds a Predictor from options.
type Creator func(Options) Predictor

// Factory is a thread-safe registry of predictor creators. Instances built
// by Get are cached per name; Create always builds a fresh one.
type Factory struct {
	mu         sync.RWMutex
	opts       Options
	creators   map[string]Creator
	predictors map[string]Predictor
}

// NewFactory creates a factory with every built-in predictor registered.
//
// Pre-registered predictors:
//   - "gap-mean", "resistance", "unified", "golden", "frequency",
//     "error-corrected", "advanced": closed-form heuristics.
//   - "circuit", "large-prime": circuit-model extrapolation.
//   - "zeta-sync": zeta zero synchronisation.
//   - "regression", "spectral": data-driven fits.
//   - "ensemble": weighted combination.
//
// Parameters:
//   - opts: Options passed to every creator. Zero fields take defaults.
//
// Returns:
//   - *Factory: The populated factory.
func NewFactory(opts Options) *Factory {
	f := &Factory{
		opts:       opts.withDefaults(),
		creators:   make(map[string]Creator),
		predictors: make(map[string]Predictor),
	}
	_ = f.Register(NameGapMean, func(Options) Predictor { return GapMean{} })
	_ = f.Register(NameResistance, func(Options) Predictor { return Resistance{} })
	_ = f.Register(NameUnified, func(Options) Predictor { return Unified{} })
	_ = f.Register(NameGolden, func(Options) Predictor { return Golden{} })
	_ = f.Register(NameFrequency, func(Options) Predictor { return Frequency{} })
	_ = f.Register(NameErrorCorrected, func(Options) Predictor { return ErrorCorrected{} })
	_ = f.Register(NameAdvanced, func(o Options) Predictor { return Advanced{Zeros: o.Zeros} })
	_ = f.Register(NameCircuit, func(o Options) Predictor { return NewCircuit(o) })
	_ = f.Register(NameLargePrime, func(o Options) Predictor { return NewLargePrime(o) })
	_ = f.Register(NameZetaSync, func(o Options) Predictor { return ZetaSync{Zeros: o.Zeros} })
	_ = f.Register(NameRegression, func(Options) Predictor { return Regression{} })
	_ = f.Register(NameSpectral, func(Options) Predictor { return Spectral{} })
	_ = f.Register(NameEnsemble, func(o Options) Predictor { return NewEnsemble(o) })
	return f
}

// Options returns the options the factory hands to creators.
func (f *Factory) Options() Options {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.opts
}

// Register adds or replaces a predictor. A cached instance under the same
// name is dropped so the next Get uses the new creator.
func (f *Factory) Register(name string, creator Creator) error {
	if name == "" || creator == nil {
		return fmt.Errorf("predict: invalid registration for %q", name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creators[name] = creator
	delete(f.predictors, name)
	return nil
}

// Create builds a new, uncached predictor by name.
func (f *Factory) Create(name string) (Predictor, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	opts := f.opts
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown predictor: %s", name)
	}
	return creator(opts), nil
}

// Get returns the cached predictor for name, building it on first use.
//
// Parameters:
//   - name: The registered predictor name.
//
// Returns:
//   - Predictor: The predictor.
//   - error: An error if name is not registered.
func (f *Factory) Get(name string) (Predictor, error) {
	f.mu.RLock()
	if p, exists := f.predictors[name]; exists {
		f.mu.RUnlock()
		return p, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	if p, exists := f.predictors[name]; exists {
		return p, nil
	}
	creator, ok := f.creators[name]
	if !ok {
		return nil, fmt.Errorf("unknown predictor: %s", name)
	}
	p := creator(f.opts)
	f.predictors[name] = p
	return p, nil
}

// List returns the registered names in alphabetical order.
func (f *Factory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll returns every registered predictor, building missing instances.
func (f *Factory) GetAll() map[string]Predictor {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, creator := range f.creators {
		if _, exists := f.predictors[name]; !exists {
			f.predictors[name] = creator(f.opts)
		}
	}
	result := make(map[string]Predictor, len(f.predictors))
	for name, p := range f.predictors {
		result[name] = p
	}
	return result
}

// MustGet is like Get but panics if name is not registered.
func (f *Factory) MustGet(name string) Predictor {
	p, err := f.Get(name)
	if err != nil {
		panic(fmt.Sprintf("predict: required predictor not found: %s", name))
	}
	return p
}

// Has reports whether name is registered.
func (f *Factory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, exists := f.creators[name]
	return exists
}

var globalFactory = NewFactory(DefaultOptions())

// GlobalFactory returns the process-wide factory built with DefaultOptions.
func GlobalFactory() *Factory {
	return globalFactory
}
