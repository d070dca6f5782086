// Package rules provides the built-in canon consistency rules.
//
// Rules are pure checks over a declaration: structural (C10x),
// classification-completeness (C11x), and declaration-level (C12x).
// Each rule collects every violation it can see instead of failing fast,
// so a verdict cites all problems at once.
//
// DefaultRules returns the built-in set in canonical registration order;
// the engine evaluates rules and concatenates findings in that order.
package rules
