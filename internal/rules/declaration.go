package rules

import (
	"fmt"

	"github.com/roach88/canon/internal/canon"
)

// ToleranceRequired checks that every numeric invariant expression
// carries its own tolerance or inherits the declaration epsilon.
type ToleranceRequired struct{}

func (*ToleranceRequired) ID() string         { return RuleTolerance }
func (*ToleranceRequired) Title() string      { return "numeric constraints carry a tolerance" }
func (*ToleranceRequired) Articles() []string { return []string{"canon III.4"} }

func (r *ToleranceRequired) Check(d *canon.Declaration) []canon.Finding {
	var findings []canon.Finding
	for _, c := range d.Constraints {
		if !c.Expr.Numeric() {
			continue
		}
		if c.Expr.Tolerance == nil && !d.HasEpsilon() {
			findings = append(findings, canon.Finding{
				Severity:     canon.SeverityError,
				RuleID:       r.ID(),
				Message:      fmt.Sprintf("constraint %q is numeric but has no tolerance and the declaration sets no epsilon", c.Name),
				Articles:     r.Articles(),
				SubjectIDs:   c.Scope,
				SuggestedFix: "set expr.tolerance or a declaration-level epsilon",
			})
		}
	}
	return findings
}

// ClosureDeclared checks that a trace claiming invariants does not leave
// its closure status indeterminate: an invariant over an indeterminate
// trace is unfalsifiable.
type ClosureDeclared struct{}

func (*ClosureDeclared) ID() string         { return RuleClosureDeclared }
func (*ClosureDeclared) Title() string      { return "closure declared when invariants claimed" }
func (*ClosureDeclared) Articles() []string { return []string{"canon IV.2"} }

func (r *ClosureDeclared) Check(d *canon.Declaration) []canon.Finding {
	var findings []canon.Finding
	for _, t := range d.Traces {
		if len(t.InvariantsClaimed) > 0 && t.Closure() == canon.ClosureIndeterminate {
			findings = append(findings, canon.Finding{
				Severity:     canon.SeverityError,
				RuleID:       r.ID(),
				Message:      fmt.Sprintf("trace %q claims %d invariant(s) but leaves closure_status indeterminate", t.ID, len(t.InvariantsClaimed)),
				Articles:     r.Articles(),
				SubjectIDs:   []string{t.ID},
				SuggestedFix: "declare closure_status as closed, asymptotic or open",
			})
		}
	}
	return findings
}
