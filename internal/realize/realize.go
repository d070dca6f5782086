package realize

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/canon/internal/canon"
)

// Context carries the realization environment into a realizer.
type Context struct {
	// Declaration is the full declaration, for forms that reference
	// siblings through weak ids.
	Declaration *canon.Declaration

	// Epsilon is the numeric tolerance: the declaration's epsilon or the
	// canon default.
	Epsilon float64

	// Config is an open configuration map supplied by the caller of
	// Engine.Realize. Realizers define their own keys.
	Config map[string]any
}

// Output is what one realizer produces for one form.
type Output struct {
	// Artifact is the realized product: a mesh, a metric set, a drawing.
	// The engine treats it as opaque.
	Artifact any

	// Metrics are computed scalar measures (area, winding number, ...).
	Metrics map[string]float64

	// Provenance explains how the artifact was produced. The engine
	// merges its own metadata on top; realizer keys that collide with
	// engine keys are overwritten.
	Provenance map[string]any
}

// Realizer turns a validated form into a concrete artifact.
//
// Realizers are registered into the engine's registry by domain modules
// at process start; the engine ships with none. A realizer may block on
// I/O, but bounding a long-running realization is the realizer's own
// contract; the engine imposes no timeout.
type Realizer interface {
	// SupportedKinds lists the form kinds this realizer handles.
	SupportedKinds() []string

	// RealizeForm produces the artifact for one form. Returning an error
	// marks only this form as failed; realization of sibling forms
	// continues.
	RealizeForm(ctx context.Context, form canon.Form, rc Context) (Output, error)
}

// Registry maps form kinds to realizers.
//
// Register inserts a realizer under every kind it supports; a later
// registration for the same kind overwrites the earlier one. Lookup
// misses are the caller's explicit, recorded error: the set of kinds is
// open by design, so exhaustiveness is checked at dispatch, not at
// compile time.
type Registry struct {
	mu     sync.RWMutex
	byKind map[string]Realizer
}

// NewRegistry creates an empty realizer registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[string]Realizer)}
}

// Register inserts the realizer under each of its supported kinds.
// Last registration wins per kind; no error on overwrite.
func (g *Registry) Register(r Realizer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, kind := range r.SupportedKinds() {
		g.byKind[kind] = r
	}
}

// Lookup returns the realizer registered for the kind.
func (g *Registry) Lookup(kind string) (Realizer, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.byKind[kind]
	return r, ok
}

// Kinds returns the registered form kinds, sorted.
func (g *Registry) Kinds() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	kinds := make([]string, 0, len(g.byKind))
	for k := range g.byKind {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// DeclarationKey is the reserved provenance key for declaration-level
// metadata in a Result.
const DeclarationKey = "_declaration"

// Result is the outcome of realizing one declaration.
type Result struct {
	// DeclarationTitle echoes the realized declaration.
	DeclarationTitle string `json:"declaration_title"`

	// Artifacts maps form id to the realized artifact.
	Artifacts map[string]any `json:"artifacts"`

	// Provenance maps form id to realization metadata, plus the reserved
	// DeclarationKey entry describing the run itself.
	Provenance map[string]map[string]any `json:"provenance"`

	// Errors records per-form failures (missing realizer, realizer error
	// or panic). A failed form never aborts its siblings.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates an empty result for a declaration.
func NewResult(title string) *Result {
	return &Result{
		DeclarationTitle: title,
		Artifacts:        make(map[string]any),
		Provenance:       make(map[string]map[string]any),
	}
}

// OK reports whether every form realized cleanly.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Bypassed reports whether the run's provenance is marked as having
// skipped validation. Consumers use this to refuse uncertified artifacts.
func (r *Result) Bypassed() bool {
	decl, ok := r.Provenance[DeclarationKey]
	if !ok {
		return false
	}
	b, _ := decl["validation_bypassed"].(bool)
	return b
}
