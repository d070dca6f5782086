// Package engine is the execution gateway for canon declarations.
//
// The engine owns two operations and nothing else:
//
//   - Validate: run every canon rule over a declaration, aggregate a
//     Verdict, cache it by declaration signature.
//   - Realize: re-validate (or, with double authorization, bypass), then
//     dispatch each form to its registered realizer and assemble
//     artifacts with traceable provenance.
//
// The engine performs no geometric computation itself; that is delegated
// to realizers registered by domain modules. Solvers never appear here:
// they assist declaration construction upstream and are banned from the
// realization path.
//
// # Error taxonomy
//
// Domain findings are data, never errors: rules collect them into the
// Verdict. A rule that panics becomes a synthetic FATAL finding with
// rule id "<id>-EXCEPTION". Gateway failures (ValidationError,
// BypassError) are returned to the caller and must not be swallowed.
// Per-form realization failures are recorded as strings in
// Result.Errors; one bad form never blocks the batch.
package engine
