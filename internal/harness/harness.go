package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/canon/internal/canon"
	"github.com/roach88/canon/internal/engine"
	"github.com/roach88/canon/internal/loader"
	"github.com/roach88/canon/internal/realize"
	"github.com/roach88/canon/internal/testutil"
)

// scenarioEpoch is the frozen wall time for every scenario run.
// Timestamps in verdicts and provenance are deterministic so golden
// snapshots stay stable.
var scenarioEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh engine with a frozen clock.
// Execution flow:
//  1. Load and compile the CUE declaration
//  2. Validate through the engine
//  3. Optionally realize against stub realizers
//  4. Evaluate assertions against verdict and realization result
func Run(scenario *Scenario) (*Result, error) {
	decl, err := loader.LoadDir(scenario.Declaration)
	if err != nil {
		return nil, fmt.Errorf("failed to load declaration: %w", err)
	}

	clock := testutil.NewFrozenClock(scenarioEpoch)

	opts := []engine.Option{engine.WithClock(clock.Now)}
	if scenario.Lenient {
		opts = append(opts, engine.WithLenient())
	}
	if scenario.Realize != nil && scenario.Realize.AllowBypass {
		opts = append(opts, engine.WithBypassAllowed())
	}
	eng := engine.New(opts...)

	result := NewResult()
	result.Outcome = RealizeErrNone
	result.Verdict = eng.Validate(decl)
	if sig, err := canon.Signature(decl); err == nil {
		result.Signature = sig
	}

	if scenario.Realize != nil {
		executeRealize(eng, decl, scenario.Realize, result)
	}

	assertionErrors := EvaluateAssertions(result, scenario.Assertions)
	for _, errMsg := range assertionErrors {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeRealize runs the realization half of a scenario and records
// how it ended.
func executeRealize(eng *engine.Engine, decl *canon.Declaration, step *RealizeStep, result *Result) {
	if len(step.StubKinds) > 0 {
		eng.RegisterRealizer(NewStubRealizer(step.StubKinds...))
	}

	var opts []engine.RealizeOption
	if step.SkipValidation {
		opts = append(opts, engine.SkipValidation())
	}

	res, err := eng.Realize(context.Background(), decl, opts...)
	switch {
	case engine.IsBypassError(err):
		result.Outcome = RealizeErrBypass
	case engine.IsValidationError(err):
		result.Outcome = RealizeErrValidation
	case err != nil:
		result.AddError(fmt.Sprintf("realize failed: %v", err))
	case len(res.Errors) > 0:
		result.Outcome = RealizeErrPartial
		result.Realization = res
	default:
		result.Outcome = RealizeErrNone
		result.Realization = res
	}
}

// StubRealizer is a deterministic realizer for scenario and engine
// tests. It echoes the form back as its artifact.
type StubRealizer struct {
	kinds []string
}

// NewStubRealizer creates a stub covering the given form kinds.
func NewStubRealizer(kinds ...string) *StubRealizer {
	return &StubRealizer{kinds: kinds}
}

// SupportedKinds implements realize.Realizer.
func (s *StubRealizer) SupportedKinds() []string {
	return append([]string(nil), s.kinds...)
}

// RealizeForm implements realize.Realizer. The artifact is a small map
// of the form's identity so golden snapshots have stable content.
func (s *StubRealizer) RealizeForm(_ context.Context, form canon.Form, rc realize.Context) (realize.Output, error) {
	artifact := map[string]any{
		"id":   form.ID,
		"kind": form.Kind,
	}
	return realize.Output{
		Artifact: artifact,
		Metrics:  map[string]float64{"epsilon": rc.Epsilon},
		Provenance: map[string]any{
			"stub": true,
		},
	}, nil
}
