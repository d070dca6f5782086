package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/canon/internal/canon"
	"github.com/roach88/canon/internal/engine"
)

// ErrNotFound is returned when no archived row matches a lookup.
var ErrNotFound = errors.New("not found in archive")

// Verdict reads the archived verdict for a declaration signature.
func (s *Store) Verdict(ctx context.Context, signature string) (canon.Verdict, time.Time, error) {
	var (
		v           canon.Verdict
		ok          int
		findings    string
		validatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT declaration_title, canon_version, ok, findings, validated_at
		FROM verdicts WHERE signature = ?
	`, signature).Scan(&v.DeclarationTitle, &v.CanonVersion, &ok, &findings, &validatedAt)
	if err == sql.ErrNoRows {
		return canon.Verdict{}, time.Time{}, fmt.Errorf("verdict %s: %w", signature, ErrNotFound)
	}
	if err != nil {
		return canon.Verdict{}, time.Time{}, fmt.Errorf("read verdict: %w", err)
	}

	v.OK = ok != 0
	if err := json.Unmarshal([]byte(findings), &v.Findings); err != nil {
		return canon.Verdict{}, time.Time{}, fmt.Errorf("read verdict: unmarshal findings: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, validatedAt)
	if err != nil {
		return canon.Verdict{}, time.Time{}, fmt.Errorf("read verdict: parse validated_at: %w", err)
	}
	return v, at, nil
}

// Runs reads the archived realization runs for a signature, oldest
// first. Ordering is (created_at, run_id) so results are deterministic
// even for runs recorded in the same instant.
func (s *Store) Runs(ctx context.Context, signature string) ([]engine.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, signature, declaration_title, bypassed, ok, errors, provenance, created_at
		FROM realization_runs
		WHERE signature = ?
		ORDER BY created_at ASC, run_id ASC
	`, signature)
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	defer rows.Close()

	var runs []engine.RunRecord
	for rows.Next() {
		var (
			run       engine.RunRecord
			bypassed  int
			ok        int
			errsJSON  string
			createdAt string
		)
		if err := rows.Scan(&run.RunID, &run.Signature, &run.DeclarationTitle,
			&bypassed, &ok, &errsJSON, &run.Provenance, &createdAt); err != nil {
			return nil, fmt.Errorf("read runs: scan: %w", err)
		}
		run.Bypassed = bypassed != 0
		run.OK = ok != 0
		if err := json.Unmarshal([]byte(errsJSON), &run.Errors); err != nil {
			return nil, fmt.Errorf("read runs: unmarshal errors: %w", err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("read runs: parse created_at: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
