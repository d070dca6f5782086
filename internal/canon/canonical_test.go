package canon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"zero", Int(0), "0"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"min int64", Int(-9223372036854775808), "-9223372036854775808"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"array of ints", Array{Int(1), Int(2), Int(3)}, "[1,2,3]"},
		{"simple object", Object{"a": Int(1)}, `{"a":1}`},
		{"plain string", "raw", `"raw"`},
		{"plain int", 7, "7"},
		{"plain bool", false, "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalNumbers(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"integral renders as int", 2.0, "2"},
		{"negative integral", -3.0, "-3"},
		{"zero", 0.0, "0"},
		{"fraction", 2.5, "2.5"},
		{"shortest round trip", 0.1, "0.1"},
		{"pi-ish", 3.141592653589793, "3.141592653589793"},
		{"small epsilon", 1e-9, "1e-09"},
		{"large integral stays float form", 1e15, "1e+15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(Num(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := MarshalCanonical(Num(f))
		assert.Error(t, err)
	}
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "null")
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := Object{
		"zebra": Int(1),
		"alpha": Int(2),
		"beta":  Int(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalNestedSortedKeys(t *testing.T) {
	obj := Object{
		"z": Object{
			"b": Int(1),
			"a": Int(2),
		},
		"a": Int(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000 - UTF-16 order differs from UTF-8.
	obj := Object{
		"": Int(1), // UTF-16: 0xE000
		"𐀀":      Int(2), // UTF-16: 0xD800, 0xDC00 (surrogate pair)
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)

	// UTF-16 order: 0xD800 < 0xE000, so the surrogate pair sorts first.
	expected := `{"𐀀":2,"` + "" + `":1}`
	assert.Equal(t, expected, string(result))
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	result, err := MarshalCanonical(String("<a> & </a>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a> & </a>"`, string(result))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "e" + combining acute accent normalizes to precomposed é.
	decomposed := "é"
	precomposed := "é"

	r1, err := MarshalCanonical(String(decomposed))
	require.NoError(t, err)
	r2, err := MarshalCanonical(String(precomposed))
	require.NoError(t, err)
	assert.Equal(t, string(r2), string(r1))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	// U+2028 and U+2029 stay literal per RFC 8785.
	result, err := MarshalCanonical(String("a b c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a b c\"", string(result))

	// A literal backslash followed by the text "u2028" is untouched.
	result, err = MarshalCanonical(String(`literal   text`))
	require.NoError(t, err)
	assert.Equal(t, `"literal \\u2028 text"`, string(result))
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	obj := Object{
		"radius": Num(2.5),
		"turns":  Int(3),
		"tags":   Array{String("golden"), String("spiral")},
	}

	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMarshalCanonicalGoMaps(t *testing.T) {
	result, err := MarshalCanonical(map[string]any{
		"b": []any{1, "two", true},
		"a": 2.5,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2.5,"b":[1,"two",true]}`, string(result))
}

func TestMarshalCanonicalArrayPropagatesErrors(t *testing.T) {
	_, err := MarshalCanonical(Array{Int(1), Num(math.NaN())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array[1]")
}
