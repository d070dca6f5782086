package harness

import (
	"github.com/roach88/canon/internal/canon"
	"github.com/roach88/canon/internal/realize"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// Verdict is the validation verdict for the scenario's declaration.
	Verdict canon.Verdict `json:"verdict"`

	// Signature is the declaration signature, when computable.
	Signature string `json:"signature,omitempty"`

	// Realization holds the realization result when the scenario runs
	// one. Nil when the scenario is validate-only or realization was
	// refused outright.
	Realization *realize.Result `json:"realization,omitempty"`

	// Outcome classifies how realization ended: none, validation,
	// bypass or partial.
	Outcome string `json:"outcome,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
