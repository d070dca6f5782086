// Package store provides SQLite-backed archival of canon verdicts and
// realization runs.
//
// The archive serves reproducibility audits: a verdict row per
// declaration signature (latest validation wins) and an append-only log
// of realization runs, each carrying its full provenance JSON including
// the validation_bypassed flag. The engine records into the archive
// best-effort; the archive is never on the correctness path.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
