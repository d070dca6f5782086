package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canon/internal/canon"
)

func floatPtr(f float64) *float64 { return &f }

func TestToleranceRequired(t *testing.T) {
	numeric := canon.Expr{Op: canon.OpApprox, Left: "a.radius", Right: "b.radius"}

	tests := []struct {
		name     string
		decl     canon.Declaration
		expected int
	}{
		{
			"numeric without tolerance or epsilon",
			canon.Declaration{Constraints: []canon.InvariantConstraint{
				{Name: "c1", Expr: numeric},
			}},
			1,
		},
		{
			"numeric with own tolerance",
			canon.Declaration{Constraints: []canon.InvariantConstraint{
				{Name: "c1", Expr: canon.Expr{Op: canon.OpApprox, Left: "a", Right: "b", Tolerance: floatPtr(1e-6)}},
			}},
			0,
		},
		{
			"numeric inheriting declaration epsilon",
			canon.Declaration{
				Epsilon: floatPtr(1e-9),
				Constraints: []canon.InvariantConstraint{
					{Name: "c1", Expr: numeric},
				},
			},
			0,
		},
		{
			"exact equality needs no tolerance",
			canon.Declaration{Constraints: []canon.InvariantConstraint{
				{Name: "c1", Expr: canon.Expr{Op: canon.OpEqual, Left: "a", Right: "b"}},
			}},
			0,
		},
		{
			"ratio counts as numeric",
			canon.Declaration{Constraints: []canon.InvariantConstraint{
				{Name: "c1", Expr: canon.Expr{Op: canon.OpRatio, Left: "a", Right: "b", Ratio: floatPtr(1.618)}},
			}},
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := (&ToleranceRequired{}).Check(&tt.decl)
			assert.Len(t, findings, tt.expected)
			if tt.expected > 0 {
				assert.Equal(t, canon.SeverityError, findings[0].Severity)
				assert.Equal(t, RuleTolerance, findings[0].RuleID)
			}
		})
	}
}

func TestClosureDeclared(t *testing.T) {
	tests := []struct {
		name     string
		trace    canon.Trace
		expected int
	}{
		{
			"invariants with indeterminate closure",
			canon.Trace{ID: "t1", Kind: "orbit", InvariantsClaimed: []string{"constant-radius"}},
			1,
		},
		{
			"invariants with explicit indeterminate",
			canon.Trace{ID: "t1", Kind: "orbit", InvariantsClaimed: []string{"x"}, ClosureStatus: canon.ClosureIndeterminate},
			1,
		},
		{
			"invariants with closed closure",
			canon.Trace{ID: "t1", Kind: "orbit", InvariantsClaimed: []string{"x"}, ClosureStatus: canon.ClosureClosed},
			0,
		},
		{
			"asymptotic closure passes",
			canon.Trace{ID: "t1", Kind: "spiral-approach", InvariantsClaimed: []string{"x"}, ClosureStatus: canon.ClosureAsymptotic},
			0,
		},
		{
			"no invariants claimed",
			canon.Trace{ID: "t1", Kind: "orbit"},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &canon.Declaration{Traces: []canon.Trace{tt.trace}}
			findings := (&ClosureDeclared{}).Check(d)
			assert.Len(t, findings, tt.expected)
			if tt.expected > 0 {
				assert.Equal(t, canon.SeverityError, findings[0].Severity)
				assert.Equal(t, []string{"t1"}, findings[0].SubjectIDs)
			}
		})
	}
}

func TestDefaultRulesOrderAndIdentity(t *testing.T) {
	rs := DefaultRules()
	require.Len(t, rs, 10)

	expected := []string{
		RuleUniqueIDs, RuleRelationEndpoints, RuleConstraintScope, RuleTraceSource,
		RuleOrientation, RuleCurvature, RuleDimensionalClass,
		RuleTolerance, RuleClosureDeclared, RuleTestScope,
	}
	seen := map[string]bool{}
	for i, r := range rs {
		assert.Equal(t, expected[i], r.ID())
		assert.NotEmpty(t, r.Title())
		assert.NotEmpty(t, r.Articles())
		assert.False(t, seen[r.ID()], "duplicate rule id %s", r.ID())
		seen[r.ID()] = true
	}
}

func TestRulesArePure(t *testing.T) {
	d := &canon.Declaration{
		Forms: []canon.Form{
			{ID: "s", Kind: "Spiral"},
			{ID: "c", Kind: "Circle"},
		},
		Relations: []canon.Relation{{Kind: "tangent", A: "s", B: "ghost"}},
	}

	for _, r := range DefaultRules() {
		first := r.Check(d)
		again := r.Check(d)
		assert.Equal(t, first, again, "rule %s is not deterministic", r.ID())
	}
}
