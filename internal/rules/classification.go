package rules

import (
	"fmt"

	"github.com/roach88/canon/internal/canon"
)

// orientationSensitiveKinds are form kinds whose realization differs
// under reflection; declaring one without an orientation is ambiguous.
var orientationSensitiveKinds = map[string]bool{
	"Spiral":      true,
	"Helix":       true,
	"MobiusStrip": true,
	"TrefoilKnot": true,
	"VortexRing":  true,
}

// curvedKinds are form kinds with non-trivial curvature; their
// declarations must classify it.
var curvedKinds = map[string]bool{
	"Circle":     true,
	"Ellipse":    true,
	"Sphere":     true,
	"Torus":      true,
	"Spiral":     true,
	"Helix":      true,
	"Catenary":   true,
	"VortexRing": true,
}

// OrientationRequired checks that orientation-sensitive form kinds carry
// an orientation.
type OrientationRequired struct{}

func (*OrientationRequired) ID() string         { return RuleOrientation }
func (*OrientationRequired) Title() string      { return "orientation declared for chiral kinds" }
func (*OrientationRequired) Articles() []string { return []string{"canon II.3"} }

func (r *OrientationRequired) Check(d *canon.Declaration) []canon.Finding {
	var findings []canon.Finding
	for _, f := range d.Forms {
		if orientationSensitiveKinds[f.Kind] && f.Orientation == "" {
			findings = append(findings, canon.Finding{
				Severity:     canon.SeverityError,
				RuleID:       r.ID(),
				Message:      fmt.Sprintf("form %q of kind %q requires an orientation", f.ID, f.Kind),
				Articles:     r.Articles(),
				SubjectIDs:   []string{f.ID},
				SuggestedFix: "set orientation to \"cw\" or \"ccw\" (or the kind's handedness vocabulary)",
			})
		}
	}
	return findings
}

// CurvatureRequired checks that curved form kinds carry a curvature
// class.
type CurvatureRequired struct{}

func (*CurvatureRequired) ID() string         { return RuleCurvature }
func (*CurvatureRequired) Title() string      { return "curvature class declared for curved kinds" }
func (*CurvatureRequired) Articles() []string { return []string{"canon II.4"} }

func (r *CurvatureRequired) Check(d *canon.Declaration) []canon.Finding {
	var findings []canon.Finding
	for _, f := range d.Forms {
		if curvedKinds[f.Kind] && f.CurvatureClass == "" {
			findings = append(findings, canon.Finding{
				Severity:   canon.SeverityError,
				RuleID:     r.ID(),
				Message:    fmt.Sprintf("form %q of kind %q requires a curvature class", f.ID, f.Kind),
				Articles:   r.Articles(),
				SubjectIDs: []string{f.ID},
			})
		}
	}
	return findings
}

// DimensionalClass checks that a declared dimensional class is an integer
// power 1, 2 or 3. Zero means unspecified and passes.
type DimensionalClass struct{}

func (*DimensionalClass) ID() string         { return RuleDimensionalClass }
func (*DimensionalClass) Title() string      { return "dimensional class in range" }
func (*DimensionalClass) Articles() []string { return []string{"canon II.5"} }

func (r *DimensionalClass) Check(d *canon.Declaration) []canon.Finding {
	var findings []canon.Finding
	for _, f := range d.Forms {
		if f.DimensionalClass != 0 && (f.DimensionalClass < 1 || f.DimensionalClass > 3) {
			findings = append(findings, canon.Finding{
				Severity:   canon.SeverityError,
				RuleID:     r.ID(),
				Message:    fmt.Sprintf("form %q declares dimensional class %d; must be 1, 2 or 3", f.ID, f.DimensionalClass),
				Articles:   r.Articles(),
				SubjectIDs: []string{f.ID},
			})
		}
	}
	return findings
}
