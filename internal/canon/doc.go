// Package canon provides the immutable declaration model for the canon
// engine.
//
// This package contains value types only. All other internal packages
// import canon; canon imports nothing internal. This keeps the model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Entities are immutable value records with structural equality
//   - Cross references are form-id strings resolved via the owning
//     Declaration, never live pointers
//   - Params are constrained to the sealed Value types so every
//     declaration has exactly one canonical serialization
//   - All JSON tags use snake_case
package canon
