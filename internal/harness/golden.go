package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/canon/internal/canon"
)

// VerdictSnapshot captures a scenario's verdict for golden comparison.
// The snapshot is serialized with canonical JSON so field order and
// number rendering are deterministic.
type VerdictSnapshot struct {
	ScenarioName string
	Signature    string
	Verdict      canon.Verdict
	Outcome      string
}

// toCanonicalMap converts a snapshot to a map[string]any for canonical
// JSON serialization. canon.MarshalCanonical only handles canon values
// and primitives.
func (s *VerdictSnapshot) toCanonicalMap() map[string]any {
	findings := make([]any, len(s.Verdict.Findings))
	for i, f := range s.Verdict.Findings {
		fm := map[string]any{
			"severity": f.Severity.String(),
			"rule":     f.RuleID,
			"message":  f.Message,
		}
		if len(f.Articles) > 0 {
			fm["articles"] = stringsToAny(f.Articles)
		}
		if len(f.SubjectIDs) > 0 {
			fm["subjects"] = stringsToAny(f.SubjectIDs)
		}
		if f.SuggestedFix != "" {
			fm["suggested_fix"] = f.SuggestedFix
		}
		findings[i] = fm
	}

	result := map[string]any{
		"scenario_name":     s.ScenarioName,
		"declaration_title": s.Verdict.DeclarationTitle,
		"canon_version":     s.Verdict.CanonVersion,
		"ok":                s.Verdict.OK,
		"findings":          findings,
	}
	if s.Signature != "" {
		result["signature"] = s.Signature
	}
	if s.Outcome != "" {
		result["outcome"] = s.Outcome
	}
	return result
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// RunWithGolden executes a scenario and compares its verdict snapshot
// against a golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's verdict against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := VerdictSnapshot{
		ScenarioName: scenarioName,
		Signature:    result.Signature,
		Verdict:      result.Verdict,
		Outcome:      result.Outcome,
	}

	verdictJSON, err := canon.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, verdictJSON)

	return nil
}
