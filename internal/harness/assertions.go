package harness

import (
	"fmt"

	"github.com/roach88/canon/internal/canon"
)

// EvaluateAssertions checks every assertion against the result and
// returns failure messages. An empty slice means all assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertVerdictOK:
			err = assertVerdictOK(result, a)
		case AssertFinding:
			err = assertFinding(result, a)
		case AssertFindingCount:
			err = assertFindingCount(result, a)
		case AssertArtifact:
			err = assertArtifact(result, a)
		case AssertRealizeError:
			err = assertRealizeError(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return failures
}

func assertVerdictOK(result *Result, a Assertion) error {
	if result.Verdict.OK != a.OK {
		return fmt.Errorf("verdict_ok: expected ok=%v, got ok=%v (%d findings)",
			a.OK, result.Verdict.OK, len(result.Verdict.Findings))
	}
	return nil
}

func assertFinding(result *Result, a Assertion) error {
	var wantSev canon.Severity
	checkSev := a.Severity != ""
	if checkSev {
		sev, err := canon.ParseSeverity(a.Severity)
		if err != nil {
			return fmt.Errorf("finding: %w", err)
		}
		wantSev = sev
	}

	for _, f := range result.Verdict.Findings {
		if f.RuleID != a.Rule {
			continue
		}
		if checkSev && f.Severity != wantSev {
			continue
		}
		if !subjectsSubset(a.Subjects, f.SubjectIDs) {
			continue
		}
		return nil
	}

	return fmt.Errorf("finding: no finding matched rule=%s severity=%s subjects=%v",
		a.Rule, a.Severity, a.Subjects)
}

// subjectsSubset reports whether every wanted subject appears in got.
func subjectsSubset(want, got []string) bool {
	for _, w := range want {
		found := false
		for _, g := range got {
			if g == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func assertFindingCount(result *Result, a Assertion) error {
	if a.Severity == "" {
		if got := len(result.Verdict.Findings); got != a.Count {
			return fmt.Errorf("finding_count: expected %d findings, got %d", a.Count, got)
		}
		return nil
	}

	sev, err := canon.ParseSeverity(a.Severity)
	if err != nil {
		return fmt.Errorf("finding_count: %w", err)
	}
	got := result.Verdict.CountBySeverity()[sev]
	if got != a.Count {
		return fmt.Errorf("finding_count: expected %d %s findings, got %d", a.Count, a.Severity, got)
	}
	return nil
}

func assertArtifact(result *Result, a Assertion) error {
	if result.Realization == nil {
		return fmt.Errorf("artifact: scenario produced no realization result")
	}
	if _, ok := result.Realization.Artifacts[a.Subject]; !ok {
		return fmt.Errorf("artifact: no artifact for form %q", a.Subject)
	}
	return nil
}

func assertRealizeError(result *Result, a Assertion) error {
	if result.Outcome != a.Error {
		return fmt.Errorf("realize_error: expected outcome %q, got %q", a.Error, result.Outcome)
	}
	return nil
}
