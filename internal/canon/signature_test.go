package canon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeclaration() *Declaration {
	return &Declaration{
		Title: "Two tangent circles",
		Forms: []Form{
			{
				ID:             "circle_a",
				Kind:           "Circle",
				Params:         Object{"radius": Num(2.0)},
				CurvatureClass: "constant-positive",
			},
			{
				ID:             "circle_b",
				Kind:           "Circle",
				Params:         Object{"radius": Num(2.0)},
				CurvatureClass: "constant-positive",
			},
		},
		Relations: []Relation{
			{Kind: "tangent", A: "circle_a", B: "circle_b"},
		},
	}
}

func TestSignatureStable(t *testing.T) {
	d := testDeclaration()

	first, err := Signature(d)
	require.NoError(t, err)
	assert.Len(t, first, SignatureLength)

	for i := 0; i < 5; i++ {
		again, err := Signature(d)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSignatureStructuralIdentity(t *testing.T) {
	a := testDeclaration()
	b := testDeclaration()

	sigA, err := Signature(a)
	require.NoError(t, err)
	sigB, err := Signature(b)
	require.NoError(t, err)
	assert.Equal(t, sigA, sigB)
}

func TestSignatureIgnoresPresentation(t *testing.T) {
	base := testDeclaration()
	baseSig, err := Signature(base)
	require.NoError(t, err)

	annotated := testDeclaration()
	annotated.Forms[0].Notes = "the left circle"
	annotated.Forms[0].Meaning = []string{"wholeness"}
	annotated.Metadata = map[string]string{"author": "someone"}
	annotated.Constraints = []InvariantConstraint{
		{Name: "equal_radii", Expr: Expr{Op: OpEqual, Left: "circle_a.radius", Right: "circle_b.radius"}},
	}

	annotatedSig, err := Signature(annotated)
	require.NoError(t, err)
	assert.Equal(t, baseSig, annotatedSig,
		"notes, meaning tags, metadata and constraints must not contribute to identity")
}

func TestSignatureSensitiveToStructure(t *testing.T) {
	base := testDeclaration()
	baseSig, err := Signature(base)
	require.NoError(t, err)

	mutations := []struct {
		name   string
		mutate func(*Declaration)
	}{
		{"title", func(d *Declaration) { d.Title = "Other" }},
		{"form kind", func(d *Declaration) { d.Forms[0].Kind = "Ellipse" }},
		{"form param", func(d *Declaration) { d.Forms[0].Params["radius"] = Num(3.0) }},
		{"orientation", func(d *Declaration) { d.Forms[0].Orientation = "ccw" }},
		{"truncated", func(d *Declaration) { d.Forms[0].Truncated = true }},
		{"relation kind", func(d *Declaration) { d.Relations[0].Kind = "concentric" }},
		{"epsilon", func(d *Declaration) { eps := 1e-6; d.Epsilon = &eps }},
		{"iteration depth", func(d *Declaration) { n := 4; d.Forms[0].IterationDepth = &n }},
		{"added trace", func(d *Declaration) {
			d.Traces = append(d.Traces, Trace{ID: "t1", Kind: "orbit"})
		}},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			d := testDeclaration()
			tt.mutate(d)
			sig, err := Signature(d)
			require.NoError(t, err)
			assert.NotEqual(t, baseSig, sig)
		})
	}
}

func TestSignatureNilParamsEqualsEmpty(t *testing.T) {
	a := testDeclaration()
	a.Forms[0].Params = nil
	b := testDeclaration()
	b.Forms[0].Params = Object{}

	sigA, err := Signature(a)
	require.NoError(t, err)
	sigB, err := Signature(b)
	require.NoError(t, err)
	assert.Equal(t, sigA, sigB)
}

func TestSignatureDefaultClosureEqualsExplicitIndeterminate(t *testing.T) {
	a := testDeclaration()
	a.Traces = []Trace{{ID: "t1", Kind: "orbit"}}
	b := testDeclaration()
	b.Traces = []Trace{{ID: "t1", Kind: "orbit", ClosureStatus: ClosureIndeterminate}}

	sigA, err := Signature(a)
	require.NoError(t, err)
	sigB, err := Signature(b)
	require.NoError(t, err)
	assert.Equal(t, sigA, sigB)
}

func TestSignatureRejectsNonFiniteParams(t *testing.T) {
	d := testDeclaration()
	d.Forms[0].Params["radius"] = Num(math.Inf(1))

	_, err := Signature(d)
	assert.Error(t, err)
}
