package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/canon/internal/canon"
	"github.com/roach88/canon/internal/engine"
)

// RecordVerdict upserts the verdict for a declaration signature.
// At most one row exists per signature; revalidation overwrites it, so
// the archive always reflects the latest validation of that exact
// declaration shape.
func (s *Store) RecordVerdict(ctx context.Context, signature string, v canon.Verdict, validatedAt time.Time) error {
	findingsJSON, err := json.Marshal(v.Findings)
	if err != nil {
		return fmt.Errorf("record verdict: marshal findings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verdicts
		(signature, declaration_title, canon_version, ok, findings, validated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(signature) DO UPDATE SET
			declaration_title = excluded.declaration_title,
			canon_version     = excluded.canon_version,
			ok                = excluded.ok,
			findings          = excluded.findings,
			validated_at      = excluded.validated_at
	`,
		signature,
		v.DeclarationTitle,
		v.CanonVersion,
		boolToInt(v.OK),
		string(findingsJSON),
		validatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}
	return nil
}

// RecordRun inserts a realization run record.
// Uses ON CONFLICT(run_id) DO NOTHING for idempotency; run ids are
// uuids, so a conflict means the same run was archived twice.
func (s *Store) RecordRun(ctx context.Context, run engine.RunRecord) error {
	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("record run: marshal errors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO realization_runs
		(run_id, signature, declaration_title, bypassed, ok, errors, provenance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`,
		run.RunID,
		run.Signature,
		run.DeclarationTitle,
		boolToInt(run.Bypassed),
		boolToInt(run.OK),
		string(errorsJSON),
		run.Provenance,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
