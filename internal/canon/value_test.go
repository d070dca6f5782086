package canon

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGoConversions(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected Value
	}{
		{"string", "hi", String("hi")},
		{"int", 7, Int(7)},
		{"int64", int64(-9), Int(-9)},
		{"bool", true, Bool(true)},
		{"float", 2.5, Num(2.5)},
		{"float32", float32(0.5), Num(0.5)},
		{"integral json.Number", json.Number("42"), Int(42)},
		{"fractional json.Number", json.Number("2.5"), Num(2.5)},
		{"exponent json.Number", json.Number("1e3"), Num(1000)},
		{"already a Value", Int(3), Int(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromGoComposite(t *testing.T) {
	got, err := FromGo(map[string]any{
		"tags":  []any{"a", "b"},
		"count": 2,
	})
	require.NoError(t, err)
	assert.Equal(t, Object{
		"tags":  Array{String("a"), String("b")},
		"count": Int(2),
	}, got)
}

func TestFromGoRejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"NaN", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"nested nil", map[string]any{"x": nil}},
		{"channel", make(chan int)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromGo(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestToGoRoundTrip(t *testing.T) {
	obj := Object{
		"radius": Num(2.5),
		"turns":  Int(3),
		"open":   Bool(false),
		"tags":   Array{String("x")},
	}

	plain := ToGo(obj)
	back, err := FromGo(plain)
	require.NoError(t, err)
	assert.Equal(t, obj, back)
}

func TestSortedKeysUTF16Order(t *testing.T) {
	obj := Object{
		"": Int(1),
		"𐀀":      Int(2),
		"a":      Int(3),
	}

	// "a" (0x61) < surrogate pair (0xD800...) < 0xE000
	assert.Equal(t, []string{"a", "𐀀", ""}, obj.SortedKeys())
}
