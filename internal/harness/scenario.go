package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios load a CUE declaration, validate it through the engine,
// optionally realize it against stub realizers, and assert on the
// resulting verdict and realization result.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Declaration is the path to the CUE declaration directory.
	// Relative paths are resolved against the scenario file location.
	Declaration string `yaml:"declaration"`

	// Lenient downgrades ERROR findings from blocking to advisory.
	Lenient bool `yaml:"lenient,omitempty"`

	// Realize, when present, drives a realization after validation.
	Realize *RealizeStep `yaml:"realize,omitempty"`

	// Assertions validate the verdict and realization result.
	// Supported types: verdict_ok, finding, finding_count, artifact,
	// realize_error
	Assertions []Assertion `yaml:"assertions"`
}

// RealizeStep configures the realization half of a scenario.
type RealizeStep struct {
	// StubKinds lists form kinds to back with a stub realizer.
	// Kinds outside this list fail per-form with a missing-realizer
	// error, which scenarios can assert on.
	StubKinds []string `yaml:"stub_kinds,omitempty"`

	// SkipValidation requests the per-call validation bypass.
	SkipValidation bool `yaml:"skip_validation,omitempty"`

	// AllowBypass constructs the engine with bypass permitted.
	AllowBypass bool `yaml:"allow_bypass,omitempty"`
}

// Assertion validates the verdict or the realization result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "verdict_ok": Check Verdict.OK matches OK
	// - "finding": Check a finding with Rule (and optionally Severity,
	//   Subjects) is present
	// - "finding_count": Check the total finding count, or the count at
	//   Severity when set
	// - "artifact": Check an artifact exists for form id Subject
	// - "realize_error": Check the realization outcome: "validation",
	//   "bypass", "partial" or "none"
	Type string `yaml:"type"`

	// OK is the expected verdict outcome (used by verdict_ok).
	OK bool `yaml:"ok,omitempty"`

	// Rule is the expected rule id (used by finding).
	Rule string `yaml:"rule,omitempty"`

	// Severity is the expected severity name (used by finding and
	// finding_count; empty means any severity).
	Severity string `yaml:"severity,omitempty"`

	// Subjects are the expected subject ids, subset match (used by
	// finding).
	Subjects []string `yaml:"subjects,omitempty"`

	// Count is the expected number of findings (used by finding_count).
	Count int `yaml:"count,omitempty"`

	// Subject is the form id (used by artifact).
	Subject string `yaml:"subject,omitempty"`

	// Error is the expected realization outcome (used by realize_error).
	Error string `yaml:"error,omitempty"`
}

// Assertion type constants.
const (
	AssertVerdictOK    = "verdict_ok"
	AssertFinding      = "finding"
	AssertFindingCount = "finding_count"
	AssertArtifact     = "artifact"
	AssertRealizeError = "realize_error"
)

// Realize-error outcome constants.
const (
	RealizeErrNone       = "none"
	RealizeErrValidation = "validation"
	RealizeErrBypass     = "bypass"
	RealizeErrPartial    = "partial"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the declaration path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs
	// "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Declaration != "" && !filepath.IsAbs(scenario.Declaration) && basePath != "" {
		scenario.Declaration = filepath.Join(basePath, scenario.Declaration)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Declaration == "" {
		return fmt.Errorf("declaration path is required")
	}
	if _, err := os.Stat(s.Declaration); os.IsNotExist(err) {
		return fmt.Errorf("declaration directory not found: %s", s.Declaration)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertVerdictOK:
		// ok defaults to false, which is a legitimate expectation
	case AssertFinding:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for finding", index)
		}
	case AssertFindingCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for finding_count", index)
		}
	case AssertArtifact:
		if a.Subject == "" {
			return fmt.Errorf("assertions[%d]: subject is required for artifact", index)
		}
	case AssertRealizeError:
		switch a.Error {
		case RealizeErrNone, RealizeErrValidation, RealizeErrBypass, RealizeErrPartial:
		default:
			return fmt.Errorf("assertions[%d]: unknown realize error outcome %q", index, a.Error)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
