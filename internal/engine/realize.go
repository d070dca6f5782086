package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/canon/internal/canon"
	"github.com/roach88/canon/internal/realize"
)

// RealizeOption configures one Realize call.
type RealizeOption func(*realizeOptions)

type realizeOptions struct {
	skipValidation bool
	config         map[string]any
}

// SkipValidation requests realization without re-running validation.
// This is the second gate of the bypass mechanism: it only takes effect
// on an engine constructed with WithBypassAllowed, and even then the run
// is logged and the provenance marked validation_bypassed. Intended for
// migration of legacy declarations only.
func SkipValidation() RealizeOption {
	return func(o *realizeOptions) { o.skipValidation = true }
}

// WithConfig passes an open configuration map through to realizers.
func WithConfig(cfg map[string]any) RealizeOption {
	return func(o *realizeOptions) { o.config = cfg }
}

// Realize validates the declaration and drives registered realizers to
// produce artifacts with traceable provenance.
//
// Gateway failures:
//   - *BypassError when SkipValidation is requested without construction
//     time authorization; nothing is validated or realized.
//   - *ValidationError carrying the full verdict when validation runs
//     and fails; no artifacts are produced.
//
// Per-form failures (missing realizer, realizer error or panic) are
// recorded as strings in Result.Errors and never abort the remaining
// forms. Forms are realized in declaration order.
func (e *Engine) Realize(ctx context.Context, d *canon.Declaration, opts ...RealizeOption) (*realize.Result, error) {
	var o realizeOptions
	for _, opt := range opts {
		opt(&o)
	}

	// Gate 1: the engine instance must have been constructed with bypass
	// authorization before a call site may even ask.
	if o.skipValidation && !e.allowBypass {
		return nil, &BypassError{DeclarationTitle: d.Title}
	}

	bypassed := false
	var validatedAt time.Time
	if o.skipValidation {
		// Gate 2: authorized and requested. Loud, and indelible in the
		// output provenance.
		bypassed = true
		slog.Warn("realizing declaration WITHOUT validation",
			"declaration", d.Title,
			"event", "validation_bypassed",
		)
	} else {
		verdict := e.Validate(d)
		validatedAt = e.now()
		if !verdict.OK {
			return nil, &ValidationError{Verdict: verdict}
		}
	}

	sig, err := canon.Signature(d)
	if err != nil {
		return nil, fmt.Errorf("realize %q: %w", d.Title, err)
	}

	runID := uuid.NewString()
	result := realize.NewResult(d.Title)
	rc := realize.Context{
		Declaration: d,
		Epsilon:     d.Tolerance(),
		Config:      o.config,
	}

	for _, form := range d.Forms {
		// Bypassed runs never saw UniqueIDs; a form occupying the reserved
		// provenance namespace must not clobber the declaration entry.
		if strings.HasPrefix(form.ID, "_") {
			result.Errors = append(result.Errors,
				fmt.Sprintf("form %q: ids beginning with %q are reserved for engine provenance", form.ID, "_"))
			continue
		}

		realizer, ok := e.registry.Lookup(form.Kind)
		if !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("form %q: no realizer registered for kind %q", form.ID, form.Kind))
			continue
		}

		out, err := realizeForm(ctx, realizer, form, rc)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("form %q: %v", form.ID, err))
			slog.Error("form realization failed",
				"declaration", d.Title,
				"form", form.ID,
				"kind", form.Kind,
				"error", err,
			)
			continue
		}

		result.Artifacts[form.ID] = out.Artifact
		result.Provenance[form.ID] = formProvenance(out, form, realizer, sig, validatedAt, bypassed)
	}

	result.Provenance[realize.DeclarationKey] = map[string]any{
		"title":                 d.Title,
		"declaration_signature": sig,
		"canon_version":         e.canonVersion,
		"engine_version":        canon.EngineVersion,
		"run_id":                runID,
		"validated_at":          timestamp(validatedAt),
		"validation_bypassed":   bypassed,
	}

	slog.Info("declaration realized",
		"declaration", d.Title,
		"signature", sig,
		"run_id", runID,
		"artifacts", len(result.Artifacts),
		"errors", len(result.Errors),
		"bypassed", bypassed,
	)

	e.recordRun(ctx, runID, sig, bypassed, result)

	return result, nil
}

// realizeForm invokes one realizer with panic isolation: one broken form
// must not prevent realization of the others.
func realizeForm(ctx context.Context, r realize.Realizer, form canon.Form, rc realize.Context) (out realize.Output, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = realize.Output{}
			err = fmt.Errorf("realizer panicked: %v", rec)
		}
	}()
	return r.RealizeForm(ctx, form, rc)
}

// formProvenance merges realizer-supplied provenance and metrics with the
// engine's own annotations. Engine keys win on collision so provenance
// cannot be forged by a realizer.
func formProvenance(out realize.Output, form canon.Form, r realize.Realizer, sig string, validatedAt time.Time, bypassed bool) map[string]any {
	prov := make(map[string]any, len(out.Provenance)+6)
	for k, v := range out.Provenance {
		prov[k] = v
	}
	if len(out.Metrics) > 0 {
		prov["metrics"] = out.Metrics
	}
	prov["form_kind"] = form.Kind
	prov["realizer"] = fmt.Sprintf("%T", r)
	prov["declaration_signature"] = sig
	prov["validated_at"] = timestamp(validatedAt)
	prov["validation_bypassed"] = bypassed
	return prov
}

// timestamp renders a validation time, or "" when validation was
// bypassed and no timestamp exists.
func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
