package canon

import (
	"encoding/json"
	"fmt"
)

// Severity ranks a finding. Ordering: FATAL > ERROR > WARN > INFO.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
	SeverityFatal
)

var severityNames = map[Severity]string{
	SeverityInfo:  "INFO",
	SeverityWarn:  "WARN",
	SeverityError: "ERROR",
	SeverityFatal: "FATAL",
}

// String returns the canonical severity name.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SEVERITY(%d)", int(s))
}

// ParseSeverity converts a severity name to its value.
func ParseSeverity(name string) (Severity, error) {
	for sev, n := range severityNames {
		if n == name {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// MarshalJSON renders the severity as its name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	sev, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// Finding is one reported issue from a canon rule.
// Findings are collected into a Verdict, never raised as errors.
type Finding struct {
	Severity     Severity          `json:"severity"`
	RuleID       string            `json:"rule_id"`
	Message      string            `json:"message"`
	Articles     []string          `json:"articles,omitempty"`    // canon article citations
	SubjectIDs   []string          `json:"subject_ids,omitempty"` // offending form/trace ids
	SuggestedFix string            `json:"suggested_fix,omitempty"`
	Context      map[string]string `json:"context,omitempty"`
}

// Verdict is the aggregated result of validating one declaration.
// OK is computed by the engine, never asserted by callers.
type Verdict struct {
	OK               bool      `json:"ok"`
	Findings         []Finding `json:"findings"`
	DeclarationTitle string    `json:"declaration_title"`
	CanonVersion     string    `json:"canon_version"`
}

// Worst returns the highest severity among the findings, and false when
// there are none.
func (v Verdict) Worst() (Severity, bool) {
	if len(v.Findings) == 0 {
		return 0, false
	}
	worst := v.Findings[0].Severity
	for _, f := range v.Findings[1:] {
		if f.Severity > worst {
			worst = f.Severity
		}
	}
	return worst, true
}

// CountBySeverity returns the number of findings at each severity.
func (v Verdict) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range v.Findings {
		counts[f.Severity]++
	}
	return counts
}

// FindingsFor returns the findings naming the given subject id.
func (v Verdict) FindingsFor(subjectID string) []Finding {
	var out []Finding
	for _, f := range v.Findings {
		for _, id := range f.SubjectIDs {
			if id == subjectID {
				out = append(out, f)
				break
			}
		}
	}
	return out
}
