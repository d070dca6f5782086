// Package solve provides bidirectional parameter discovery for building
// declarations.
//
// A solver back-computes a form's canonical parameter (say, a circle's
// radius) from whichever property the user edited (area, circumference).
// Solvers exist only on the construction side: the engine never consults
// them during validation or realization.
package solve

import (
	"fmt"
	"sync"
)

// Status tags a solve outcome.
type Status string

const (
	// StatusOK means a single solution was found.
	StatusOK Status = "OK"

	// StatusAmbiguous means multiple valid solutions exist; the caller
	// must choose among Candidates.
	StatusAmbiguous Status = "AMBIGUOUS"

	// StatusInvalidDomain means the input lies outside the solver's
	// valid range (e.g. a negative area).
	StatusInvalidDomain Status = "INVALID_DOMAIN"

	// StatusUnderdetermined means the input does not pin down the
	// canonical parameter.
	StatusUnderdetermined Status = "UNDERDETERMINED"

	// StatusOverdetermined means the inputs conflict.
	StatusOverdetermined Status = "OVERDETERMINED"
)

// Provenance explains how a solution was derived.
type Provenance struct {
	Formula     string             `json:"formula"`               // e.g. "r = sqrt(A / pi)"
	Assumptions []string           `json:"assumptions,omitempty"` // e.g. "Euclidean plane"
	Inputs      map[string]float64 `json:"inputs,omitempty"`
}

// Result is a tagged solve outcome. CanonicalParameter is meaningful only
// when Status is StatusOK; Candidates only when StatusAmbiguous.
type Result struct {
	Status             Status     `json:"status"`
	CanonicalKey       string     `json:"canonical_key"`
	CanonicalParameter float64    `json:"canonical_parameter,omitempty"`
	Candidates         []float64  `json:"candidates,omitempty"`
	Reason             string     `json:"reason,omitempty"`
	Provenance         Provenance `json:"provenance"`
}

// Solver back-computes a canonical parameter from a user-edited property.
type Solver interface {
	// CanonicalKey is the parameter this solver ultimately produces,
	// e.g. "radius".
	CanonicalKey() string

	// SupportedKeys lists the user-editable properties the solver can
	// invert from.
	SupportedKeys() []string

	// SolveFrom inverts the given property value. The error return is
	// for mechanical failure only; domain outcomes (invalid range,
	// ambiguity) are Result statuses, not errors.
	SolveFrom(key string, value float64) (Result, error)
}

// Registry maps (form kind, editable key) to a solver.
//
// Register inserts the solver under every key it supports for the given
// kind; last registration wins per (kind, key) pair.
type Registry struct {
	mu     sync.RWMutex
	byKind map[string]map[string]Solver
}

// NewRegistry creates an empty solver registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[string]map[string]Solver)}
}

// Register inserts the solver for a form kind under each supported key.
func (g *Registry) Register(kind string, s Solver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := g.byKind[kind]
	if keys == nil {
		keys = make(map[string]Solver)
		g.byKind[kind] = keys
	}
	for _, key := range s.SupportedKeys() {
		keys[key] = s
	}
}

// SolverFor returns the solver registered for the kind and editable key.
func (g *Registry) SolverFor(kind, key string) (Solver, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.byKind[kind][key]
	return s, ok
}

// Solve looks up and runs the solver for (kind, key).
func (g *Registry) Solve(kind, key string, value float64) (Result, error) {
	s, ok := g.SolverFor(kind, key)
	if !ok {
		return Result{}, fmt.Errorf("no solver registered for kind %q key %q", kind, key)
	}
	return s.SolveFrom(key, value)
}
