package analysis

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownAnalysis is returned when a requested name is not registered.
var ErrUnknownAnalysis = errors.New("unknown analysis")

// All selects every registered analysis in Select.
const All = "all"

// Registry holds the decorated analyses in registration order. It is safe
// for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	analyses map[string]Analysis
}

// NewRegistry returns a registry with the built-in analyses registered:
//
//   - frequency-law, golden-ratio
//   - zeta-correlation, zeta-gaps, zeta-verify
//   - circuit, differential-current, correction-fit, gaps
//   - error-patterns, prediction
//   - circuit-crypto
func NewRegistry() *Registry {
	r := &Registry{analyses: make(map[string]Analysis)}
	for _, core := range []coreAnalysis{
		frequencyLaw{},
		zetaCorrelation{},
		zetaGaps{},
		zetaVerify{},
		circuitAnalysis{},
		differentialCurrent{},
		correctionFit{},
		errorPatterns{},
		predictionComparison{},
		gapAnalysis{},
		goldenRatio{},
		circuitCrypto{},
	} {
		_ = r.register(core)
	}
	return r
}

// register decorates core and adds it, replacing an analysis of the same
// name in place.
func (r *Registry) register(core coreAnalysis) error {
	if core == nil || core.Name() == "" {
		return errors.New("analysis: cannot register an unnamed analysis")
	}
	name := core.Name()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.analyses[name]; !exists {
		r.order = append(r.order, name)
	}
	r.analyses[name] = newAnalysis(core)
	return nil
}

// Get returns the analysis registered under name.
func (r *Registry) Get(name string) (Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyses[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalysis, name)
	}
	return a, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.analyses[name]
	return ok
}

// List returns the registered names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Select resolves a selection string: "all" (or empty) for every analysis,
// otherwise a comma-separated list of names. Duplicates are dropped and
// registration order is kept.
//
// Parameters:
//   - selection: The selection string.
//
// Returns:
//   - []Analysis: The selected analyses.
//   - error: ErrUnknownAnalysis for any unregistered name.
func (r *Registry) Select(selection string) ([]Analysis, error) {
	selection = strings.TrimSpace(strings.ToLower(selection))
	names := r.List()
	if selection != "" && selection != All {
		wanted := make(map[string]bool)
		for _, part := range strings.Split(selection, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if !r.Has(part) {
				return nil, fmt.Errorf("%w: %q", ErrUnknownAnalysis, part)
			}
			wanted[part] = true
		}
		if len(wanted) == 0 {
			return nil, fmt.Errorf("%w: empty selection", ErrUnknownAnalysis)
		}
		filtered := names[:0]
		for _, n := range names {
			if wanted[n] {
				filtered = append(filtered, n)
			}
		}
		names = filtered
	}

	out := make([]Analysis, 0, len(names))
	for _, n := range names {
		a, err := r.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry of built-in analyses.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
