package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/roach88/canon/internal/canon"
	"github.com/roach88/canon/internal/realize"
)

// RunRecord is the archived description of one realization run.
type RunRecord struct {
	RunID            string    `json:"run_id"`
	Signature        string    `json:"signature"`
	DeclarationTitle string    `json:"declaration_title"`
	Bypassed         bool      `json:"bypassed"`
	OK               bool      `json:"ok"`
	Errors           []string  `json:"errors,omitempty"`
	Provenance       string    `json:"provenance"` // JSON object
	CreatedAt        time.Time `json:"created_at"`
}

// Archive persists verdicts and realization runs for audit. Implemented
// by store.Store; the engine only needs this slice of it.
type Archive interface {
	RecordVerdict(ctx context.Context, signature string, v canon.Verdict, validatedAt time.Time) error
	RecordRun(ctx context.Context, run RunRecord) error
}

// recordVerdict archives a verdict when an archive is configured.
// Best-effort: archive failures are logged and never fail validation.
func (e *Engine) recordVerdict(sig string, v canon.Verdict, validatedAt time.Time) {
	if e.archive == nil {
		return
	}
	if err := e.archive.RecordVerdict(context.Background(), sig, v, validatedAt); err != nil {
		slog.Error("failed to archive verdict",
			"declaration", v.DeclarationTitle,
			"signature", sig,
			"error", err,
		)
	}
}

// recordRun archives a realization run when an archive is configured.
// Best-effort: archive failures are logged and never fail the run.
func (e *Engine) recordRun(ctx context.Context, runID, sig string, bypassed bool, result *realize.Result) {
	if e.archive == nil {
		return
	}

	provJSON, err := json.Marshal(result.Provenance)
	if err != nil {
		slog.Error("run provenance not archivable", "run_id", runID, "error", err)
		return
	}

	run := RunRecord{
		RunID:            runID,
		Signature:        sig,
		DeclarationTitle: result.DeclarationTitle,
		Bypassed:         bypassed,
		OK:               result.OK(),
		Errors:           result.Errors,
		Provenance:       string(provJSON),
		CreatedAt:        e.now(),
	}

	if err := e.archive.RecordRun(ctx, run); err != nil {
		slog.Error("failed to archive realization run",
			"run_id", runID,
			"signature", sig,
			"error", err,
		)
	}
}
