package rules

import "github.com/roach88/canon/internal/canon"

// Rule is one canon consistency check.
//
// A rule is pure: given the same declaration it must return the same
// findings, with no side effects and no I/O. The engine isolates rule
// failures (a panicking rule becomes a synthetic FATAL finding), so a
// rule never needs to defend against its siblings.
type Rule interface {
	// ID is the stable rule identifier, e.g. "C110".
	ID() string

	// Title is a short human-readable name.
	Title() string

	// Articles lists the canon articles the rule enforces.
	Articles() []string

	// Check returns the findings for the declaration. Findings must be
	// deterministic and in declaration order.
	Check(d *canon.Declaration) []canon.Finding
}

// Rule identifiers.
//
// C10x are structural checks, C11x classification-completeness checks,
// C12x declaration-level checks.
const (
	RuleUniqueIDs         = "C100"
	RuleRelationEndpoints = "C101"
	RuleConstraintScope   = "C102"
	RuleTraceSource       = "C103"
	RuleOrientation       = "C110"
	RuleCurvature         = "C111"
	RuleDimensionalClass  = "C112"
	RuleTolerance         = "C120"
	RuleClosureDeclared   = "C121"
	RuleTestScope         = "C122"
)

// DefaultRules returns the built-in rule set in canonical registration
// order. Findings are always emitted in this order, so the set must not
// be reordered without a canon version bump.
func DefaultRules() []Rule {
	return []Rule{
		&UniqueIDs{},
		&RelationEndpoints{},
		&ConstraintScope{},
		&TraceSource{},
		&OrientationRequired{},
		&CurvatureRequired{},
		&DimensionalClass{},
		&ToleranceRequired{},
		&ClosureDeclared{},
		&TestScope{},
	}
}
