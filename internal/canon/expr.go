package canon

// ExprOp identifies the assertion an invariant expression makes.
type ExprOp string

const (
	// OpEqual asserts exact equality of the two terms.
	OpEqual ExprOp = "equal"

	// OpApprox asserts equality within a tolerance. The tolerance comes
	// from the expression itself or, failing that, the declaration
	// epsilon; the tolerance rule rejects expressions with neither.
	OpApprox ExprOp = "approx"

	// OpRatio asserts that left/right equals Ratio within tolerance.
	OpRatio ExprOp = "ratio"
)

// ValidExprOps defines the allowed expression operators.
var ValidExprOps = map[ExprOp]bool{
	OpEqual:  true,
	OpApprox: true,
	OpRatio:  true,
}

// Expr is a small structured invariant expression.
//
// Terms are dotted references into declared entities, e.g.
// "circle_a.radius" or "spiral.pitch". The engine never evaluates
// expressions; rules check their shape and realizers may interpret them.
type Expr struct {
	Op        ExprOp   `json:"op"`
	Left      string   `json:"left"`
	Right     string   `json:"right,omitempty"`
	Ratio     *float64 `json:"ratio,omitempty"`     // required for OpRatio
	Tolerance *float64 `json:"tolerance,omitempty"` // nil = inherit declaration epsilon
}

// Numeric reports whether the expression asserts a numeric comparison
// that needs a tolerance.
func (e Expr) Numeric() bool {
	return e.Op == OpApprox || e.Op == OpRatio
}
