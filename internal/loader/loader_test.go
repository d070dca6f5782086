package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canon/internal/canon"
)

const tangentCirclesCUE = `
declaration: {
	title:   "Two tangent circles"
	epsilon: 1e-9

	form: circle_a: {
		kind: "Circle"
		params: radius: 2.0
		curvature_class:   "constant-positive"
		dimensional_class: 2
		meaning: ["wholeness"]
	}
	form: circle_b: {
		kind: "Circle"
		params: radius: 2.0
		curvature_class: "constant-positive"
		notes:           "mirror twin of circle_a"
	}

	relation: tangency: {
		kind: "tangent"
		a:    "circle_a"
		b:    "circle_b"
	}

	trace: orbit: {
		kind:           "orbit"
		source_form:    "circle_a"
		closure_status: "closed"
		invariants_claimed: ["constant-radius"]
	}

	constraint: equal_radii: {
		expr: {
			op:    "approx"
			left:  "circle_a.radius"
			right: "circle_b.radius"
		}
		scope: ["circle_a", "circle_b"]
	}

	test: mirror: {
		test: "mirror-symmetry"
		scope: ["circle_a", "circle_b"]
	}

	metadata: author: "test"
}
`

func TestLoadStringFullDeclaration(t *testing.T) {
	decl, err := LoadString(tangentCirclesCUE)
	require.NoError(t, err)

	assert.Equal(t, "Two tangent circles", decl.Title)
	require.NotNil(t, decl.Epsilon)
	assert.Equal(t, 1e-9, *decl.Epsilon)

	require.Len(t, decl.Forms, 2)
	a := decl.Forms[0]
	assert.Equal(t, "circle_a", a.ID)
	assert.Equal(t, "Circle", a.Kind)
	assert.Equal(t, canon.Object{"radius": canon.Num(2.0)}, a.Params)
	assert.Equal(t, "constant-positive", a.CurvatureClass)
	assert.Equal(t, 2, a.DimensionalClass)
	assert.Equal(t, []string{"wholeness"}, a.Meaning)
	assert.Equal(t, "mirror twin of circle_a", decl.Forms[1].Notes)

	require.Len(t, decl.Relations, 1)
	assert.Equal(t, canon.Relation{Kind: "tangent", A: "circle_a", B: "circle_b"}, decl.Relations[0])

	require.Len(t, decl.Traces, 1)
	trace := decl.Traces[0]
	assert.Equal(t, "orbit", trace.ID)
	assert.Equal(t, "circle_a", trace.SourceForm)
	assert.Equal(t, canon.ClosureClosed, trace.ClosureStatus)
	assert.Equal(t, []string{"constant-radius"}, trace.InvariantsClaimed)

	require.Len(t, decl.Constraints, 1)
	con := decl.Constraints[0]
	assert.Equal(t, "equal_radii", con.Name)
	assert.Equal(t, canon.OpApprox, con.Expr.Op)
	assert.Equal(t, "circle_a.radius", con.Expr.Left)
	assert.Equal(t, []string{"circle_a", "circle_b"}, con.Scope)

	require.Len(t, decl.Tests, 1)
	assert.Equal(t, "mirror-symmetry", decl.Tests[0].Test)

	assert.Equal(t, map[string]string{"author": "test"}, decl.Metadata)
}

func TestLoadStringPreservesSourceOrder(t *testing.T) {
	decl, err := LoadString(`
declaration: {
	title: "ordering"
	form: zeta:  {kind: "Blob"}
	form: alpha: {kind: "Blob"}
	form: mid:   {kind: "Blob"}
}
`)
	require.NoError(t, err)
	require.Len(t, decl.Forms, 3)
	assert.Equal(t, "zeta", decl.Forms[0].ID)
	assert.Equal(t, "alpha", decl.Forms[1].ID)
	assert.Equal(t, "mid", decl.Forms[2].ID)
}

func TestLoadStringIntAndFloatParams(t *testing.T) {
	decl, err := LoadString(`
declaration: {
	title: "numbers"
	form: spiral: {
		kind: "Blob"
		params: {
			turns: 3
			pitch: 0.5
			label: "golden"
			open:  true
			seq: [1, 2, 3]
			nested: {depth: 7}
		}
	}
}
`)
	require.NoError(t, err)
	params := decl.Forms[0].Params
	assert.Equal(t, canon.Int(3), params["turns"])
	assert.Equal(t, canon.Num(0.5), params["pitch"])
	assert.Equal(t, canon.String("golden"), params["label"])
	assert.Equal(t, canon.Bool(true), params["open"])
	assert.Equal(t, canon.Array{canon.Int(1), canon.Int(2), canon.Int(3)}, params["seq"])
	assert.Equal(t, canon.Object{"depth": canon.Int(7)}, params["nested"])
}

func TestLoadStringIterationDepthAndTruncated(t *testing.T) {
	decl, err := LoadString(`
declaration: {
	title: "fractal"
	form: gasket: {
		kind:            "SierpinskiTriangle"
		iteration_depth: 6
		truncated:       true
	}
	form: limit: {
		kind: "SierpinskiTriangle"
	}
}
`)
	require.NoError(t, err)
	require.NotNil(t, decl.Forms[0].IterationDepth)
	assert.Equal(t, 6, *decl.Forms[0].IterationDepth)
	assert.True(t, decl.Forms[0].Truncated)
	assert.Nil(t, decl.Forms[1].IterationDepth, "absent depth means unbounded limit form")
}

func TestLoadStringErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{
			"no declaration struct",
			`other: {title: "x"}`,
			"declaration",
		},
		{
			"missing title",
			`declaration: {form: f: {kind: "Blob"}}`,
			"title is required",
		},
		{
			"no forms",
			`declaration: {title: "empty"}`,
			"at least one form is required",
		},
		{
			"form without kind",
			`declaration: {title: "x", form: f: {params: r: 1}}`,
			"kind is required",
		},
		{
			"relation missing endpoint",
			`declaration: {title: "x", form: f: {kind: "Blob"}, relation: r: {kind: "tangent", a: "f"}}`,
			"b is required",
		},
		{
			"bad closure status",
			`declaration: {title: "x", form: f: {kind: "Blob"}, trace: t: {kind: "orbit", closure_status: "sideways"}}`,
			"unknown closure status",
		},
		{
			"bad expression op",
			`declaration: {title: "x", form: f: {kind: "Blob"}, constraint: c: {expr: {op: "divides", left: "a"}}}`,
			"unknown expression op",
		},
		{
			"constraint without expr",
			`declaration: {title: "x", form: f: {kind: "Blob"}, constraint: c: {scope: ["f"]}}`,
			"expr is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadString(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "decl.cue"), []byte(tangentCirclesCUE), 0o644))

	decl, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "Two tangent circles", decl.Title)
	assert.Len(t, decl.Forms, 2)
}

func TestLoadDirErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, ErrCodeNotFound, loadErr.Code)
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := LoadDir(t.TempDir())
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
	})

	t.Run("malformed CUE", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte(`declaration: {`), 0o644))
		_, err := LoadDir(dir)
		require.Error(t, err)
	})
}
