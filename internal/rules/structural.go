package rules

import (
	"fmt"
	"strings"

	"github.com/roach88/canon/internal/canon"
)

// UniqueIDs checks that form and trace ids are non-empty, unique within
// the declaration, and outside the "_" prefix reserved for engine
// provenance entries. Duplicate or reserved ids break every weak
// reference in the declaration, so violations are FATAL.
type UniqueIDs struct{}

func (*UniqueIDs) ID() string         { return RuleUniqueIDs }
func (*UniqueIDs) Title() string      { return "unique declaration ids" }
func (*UniqueIDs) Articles() []string { return []string{"canon I.1", "canon I.2"} }

func (r *UniqueIDs) Check(d *canon.Declaration) []canon.Finding {
	var findings []canon.Finding
	seen := make(map[string]bool)

	check := func(entity, id string) {
		if id == "" {
			findings = append(findings, canon.Finding{
				Severity:     canon.SeverityFatal,
				RuleID:       r.ID(),
				Message:      fmt.Sprintf("%s declared without an id", entity),
				Articles:     r.Articles(),
				SuggestedFix: "assign a unique id to every form and trace",
			})
			return
		}
		if strings.HasPrefix(id, "_") {
			findings = append(findings, canon.Finding{
				Severity:     canon.SeverityFatal,
				RuleID:       r.ID(),
				Message:      fmt.Sprintf("%s id %q uses the %q prefix reserved for engine provenance", entity, id, "_"),
				Articles:     r.Articles(),
				SubjectIDs:   []string{id},
				SuggestedFix: "rename the id to start with a letter",
			})
			return
		}
		if seen[id] {
			findings = append(findings, canon.Finding{
				Severity:   canon.SeverityFatal,
				RuleID:     r.ID(),
				Message:    fmt.Sprintf("id %q declared more than once", id),
				Articles:   r.Articles(),
				SubjectIDs: []string{id},
			})
		}
		seen[id] = true
	}

	for _, f := range d.Forms {
		check("form", f.ID)
	}
	for _, t := range d.Traces {
		check("trace", t.ID)
	}
	return findings
}

// RelationEndpoints checks that every relation endpoint resolves to a
// declared form.
type RelationEndpoints struct{}

func (*RelationEndpoints) ID() string         { return RuleRelationEndpoints }
func (*RelationEndpoints) Title() string      { return "relation endpoints resolve" }
func (*RelationEndpoints) Articles() []string { return []string{"canon I.4"} }

func (r *RelationEndpoints) Check(d *canon.Declaration) []canon.Finding {
	var findings []canon.Finding
	for i, rel := range d.Relations {
		for _, end := range []struct{ side, id string }{{"a", rel.A}, {"b", rel.B}} {
			if _, ok := d.FormByID(end.id); !ok {
				findings = append(findings, canon.Finding{
					Severity:   canon.SeverityError,
					RuleID:     r.ID(),
					Message:    fmt.Sprintf("relation[%d] (%s): endpoint %s references undeclared form %q", i, rel.Kind, end.side, end.id),
					Articles:   r.Articles(),
					SubjectIDs: []string{end.id},
					Context:    map[string]string{"relation_kind": rel.Kind},
				})
			}
		}
	}
	return findings
}

// ConstraintScope checks that invariant constraint scopes reference
// declared ids. A dangling scope entry leaves the constraint unverifiable
// but does not invalidate the geometry, so it warns.
type ConstraintScope struct{}

func (*ConstraintScope) ID() string         { return RuleConstraintScope }
func (*ConstraintScope) Title() string      { return "constraint scope resolves" }
func (*ConstraintScope) Articles() []string { return []string{"canon III.2"} }

func (r *ConstraintScope) Check(d *canon.Declaration) []canon.Finding {
	var findings []canon.Finding
	for _, c := range d.Constraints {
		for _, id := range c.Scope {
			if !d.HasID(id) {
				findings = append(findings, canon.Finding{
					Severity:   canon.SeverityWarn,
					RuleID:     r.ID(),
					Message:    fmt.Sprintf("constraint %q scopes undeclared id %q", c.Name, id),
					Articles:   r.Articles(),
					SubjectIDs: []string{id},
					Context:    map[string]string{"constraint": c.Name},
				})
			}
		}
	}
	return findings
}

// TraceSource checks that a trace's source form, when named, resolves to
// a declared form.
type TraceSource struct{}

func (*TraceSource) ID() string         { return RuleTraceSource }
func (*TraceSource) Title() string      { return "trace source resolves" }
func (*TraceSource) Articles() []string { return []string{"canon II.1"} }

func (r *TraceSource) Check(d *canon.Declaration) []canon.Finding {
	var findings []canon.Finding
	for _, t := range d.Traces {
		if t.SourceForm == "" {
			continue
		}
		if _, ok := d.FormByID(t.SourceForm); !ok {
			findings = append(findings, canon.Finding{
				Severity:   canon.SeverityWarn,
				RuleID:     r.ID(),
				Message:    fmt.Sprintf("trace %q names undeclared source form %q", t.ID, t.SourceForm),
				Articles:   r.Articles(),
				SubjectIDs: []string{t.ID, t.SourceForm},
			})
		}
	}
	return findings
}

// TestScope checks that canon test requests scope declared ids.
type TestScope struct{}

func (*TestScope) ID() string         { return RuleTestScope }
func (*TestScope) Title() string      { return "test scope resolves" }
func (*TestScope) Articles() []string { return []string{"canon V.1"} }

func (r *TestScope) Check(d *canon.Declaration) []canon.Finding {
	var findings []canon.Finding
	for _, req := range d.Tests {
		for _, id := range req.Scope {
			if !d.HasID(id) {
				findings = append(findings, canon.Finding{
					Severity:   canon.SeverityWarn,
					RuleID:     r.ID(),
					Message:    fmt.Sprintf("test %q scopes undeclared id %q", req.Test, id),
					Articles:   r.Articles(),
					SubjectIDs: []string{id},
					Context:    map[string]string{"test": req.Test},
				})
			}
		}
	}
	return findings
}
