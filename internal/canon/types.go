package canon

// DefaultEpsilon is the numeric tolerance used when a declaration does not
// carry its own epsilon.
const DefaultEpsilon = 1e-9

// ClosureStatus describes how a motion trace closes on itself.
type ClosureStatus string

const (
	ClosureClosed        ClosureStatus = "closed"
	ClosureAsymptotic    ClosureStatus = "asymptotic"
	ClosureOpen          ClosureStatus = "open"
	ClosureIndeterminate ClosureStatus = "indeterminate"
)

// ValidClosureStatuses defines the allowed closure status values.
var ValidClosureStatuses = map[ClosureStatus]bool{
	ClosureClosed:        true,
	ClosureAsymptotic:    true,
	ClosureOpen:          true,
	ClosureIndeterminate: true,
}

// Form is a declared geometric entity.
//
// Forms are immutable value records owned by their Declaration. Cross
// references between entities use form ids (weak references), never
// pointers, so declarations stay acyclic and structurally comparable.
type Form struct {
	ID               string   `json:"id"`
	Kind             string   `json:"kind"` // type tag, e.g. "Circle", "SierpinskiTriangle"
	Params           Object   `json:"params,omitempty"`
	Meaning          []string `json:"meaning,omitempty"` // non-binding documentation tags
	Orientation      string   `json:"orientation,omitempty"`
	SymmetryClass    string   `json:"symmetry_class,omitempty"`
	CurvatureClass   string   `json:"curvature_class,omitempty"`
	DimensionalClass int      `json:"dimensional_class,omitempty"` // 1, 2 or 3; 0 = unspecified
	IterationDepth   *int     `json:"iteration_depth,omitempty"`   // nil = unbounded limit form
	Truncated        bool     `json:"truncated,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// Relation is a declared relationship between two forms.
// A and B are form-id weak references resolved via the owning Declaration.
type Relation struct {
	Kind   string `json:"kind"`
	A      string `json:"a"`
	B      string `json:"b"`
	Params Object `json:"params,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Trace is a declared motion-revealed form.
type Trace struct {
	ID                string        `json:"id"`
	Kind              string        `json:"kind"`
	SourceForm        string        `json:"source_form,omitempty"` // weak reference
	Frame             string        `json:"frame,omitempty"`
	Params            Object        `json:"params,omitempty"`
	InvariantsClaimed []string      `json:"invariants_claimed,omitempty"`
	VoidType          string        `json:"void_type,omitempty"`
	ClosureStatus     ClosureStatus `json:"closure_status,omitempty"`
	Notes             string        `json:"notes,omitempty"`
}

// Closure returns the trace's closure status, defaulting to indeterminate
// when unset.
func (t Trace) Closure() ClosureStatus {
	if t.ClosureStatus == "" {
		return ClosureIndeterminate
	}
	return t.ClosureStatus
}

// InvariantConstraint asserts an invariant over one or more forms.
type InvariantConstraint struct {
	Name  string   `json:"name"`
	Expr  Expr     `json:"expr"`
	Scope []string `json:"scope,omitempty"` // form-id weak references
	Notes string   `json:"notes,omitempty"`
}

// CanonTestRequest asks for a named canon test over a set of forms.
type CanonTestRequest struct {
	Test   string   `json:"test"`
	Scope  []string `json:"scope,omitempty"`
	Params Object   `json:"params,omitempty"`
	Notes  string   `json:"notes,omitempty"`
}

// Declaration is the root immutable container submitted for validation and
// realization. It owns all entities by value; a declaration is constructed
// once and never mutated. Revalidation always operates on a (possibly new)
// Declaration value.
//
// Id uniqueness across forms and traces is a canon rule, not a type
// invariant: DeclaredIDs and the lookup methods tolerate duplicates so
// that the rules engine can report them instead of panicking.
type Declaration struct {
	Title       string                `json:"title"`
	Forms       []Form                `json:"forms,omitempty"`
	Relations   []Relation            `json:"relations,omitempty"`
	Traces      []Trace               `json:"traces,omitempty"`
	Constraints []InvariantConstraint `json:"constraints,omitempty"`
	Tests       []CanonTestRequest    `json:"tests,omitempty"`
	Metadata    map[string]string     `json:"metadata,omitempty"`
	Epsilon     *float64              `json:"epsilon,omitempty"`
}

// FormByID returns the first form with the given id.
func (d *Declaration) FormByID(id string) (Form, bool) {
	for _, f := range d.Forms {
		if f.ID == id {
			return f, true
		}
	}
	return Form{}, false
}

// TraceByID returns the first trace with the given id.
func (d *Declaration) TraceByID(id string) (Trace, bool) {
	for _, t := range d.Traces {
		if t.ID == id {
			return t, true
		}
	}
	return Trace{}, false
}

// HasID reports whether any form or trace declares the given id.
func (d *Declaration) HasID(id string) bool {
	if _, ok := d.FormByID(id); ok {
		return true
	}
	_, ok := d.TraceByID(id)
	return ok
}

// DeclaredIDs returns every form and trace id in declaration order.
// Duplicates are preserved; the unique-ids rule reports them.
func (d *Declaration) DeclaredIDs() []string {
	ids := make([]string, 0, len(d.Forms)+len(d.Traces))
	for _, f := range d.Forms {
		ids = append(ids, f.ID)
	}
	for _, t := range d.Traces {
		ids = append(ids, t.ID)
	}
	return ids
}

// Tolerance returns the declaration's epsilon, or DefaultEpsilon when the
// declaration does not set one.
func (d *Declaration) Tolerance() float64 {
	if d.Epsilon != nil {
		return *d.Epsilon
	}
	return DefaultEpsilon
}

// HasEpsilon reports whether the declaration carries its own tolerance.
func (d *Declaration) HasEpsilon() bool {
	return d.Epsilon != nil
}
