package state

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = Bool(true)
	var _ Value = Array{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"zebra":  String("z"),
		"apple":  String("a"),
		"banana": String("b"),
		"Apple":  String("A"),
	}

	assert.Equal(t, []string{"Apple", "apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestObjectCloneIsDeep(t *testing.T) {
	original := Object{
		"list":   Array{Int(1), Object{"inner": String("x")}},
		"nested": Object{"k": Bool(true)},
	}

	clone := original.Clone()
	clone["list"].(Array)[0] = Int(99)
	clone["list"].(Array)[1].(Object)["inner"] = String("changed")
	clone["nested"].(Object)["k"] = Bool(false)
	clone["added"] = Int(1)

	assert.Equal(t, Int(1), original["list"].(Array)[0])
	assert.Equal(t, String("x"), original["list"].(Array)[1].(Object)["inner"])
	assert.Equal(t, Bool(true), original["nested"].(Object)["k"])
	assert.NotContains(t, original, "added")
}

func TestCloneNilObject(t *testing.T) {
	var obj Object
	clone := obj.Clone()
	require.NotNil(t, clone)
	assert.Empty(t, clone)
}

func TestUnmarshalValueTypes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Value
	}{
		{"string", `"hi"`, String("hi")},
		{"int", `42`, Int(42)},
		{"negative int", `-7`, Int(-7)},
		{"float", `1.5`, Float(1.5)},
		{"float with exponent", `1e3`, Float(1000)},
		{"integral float literal", `2.0`, Float(2)},
		{"int beyond int64", `18446744073709551616`, Float(18446744073709551616)},
		{"bool", `true`, Bool(true)},
		{"array", `[1,"a",false]`, Array{Int(1), String("a"), Bool(false)}},
		{"object", `{"b":1,"a":{"c":[]}}`, Object{"b": Int(1), "a": Object{"c": Array{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalValue([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestUnmarshalValueRejectsNull(t *testing.T) {
	inputs := []string{`null`, `[1,null]`, `{"a":null}`, `{"a":{"b":null}}`}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := UnmarshalValue([]byte(input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNullValue)
		})
	}
}

func TestUnmarshalValueRejectsTrailingData(t *testing.T) {
	_, err := UnmarshalValue([]byte(`{"a":1} {"b":2}`))
	require.Error(t, err)
}

func TestObjectUnmarshalJSON(t *testing.T) {
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(`{"n":9007199254740993,"s":"x"}`), &obj))

	// Large integers keep full precision.
	assert.Equal(t, Int(9007199254740993), obj["n"])
	assert.Equal(t, String("x"), obj["s"])

	err := json.Unmarshal([]byte(`[1,2]`), &obj)
	require.Error(t, err)
}

func TestMarshalJSONRoundTrip(t *testing.T) {
	original := Object{
		"f":     Float(2),
		"g":     Float(0.5),
		"i":     Int(2),
		"html":  String("<b>"),
		"items": Array{Bool(true), Object{"z": Int(1), "a": Int(2)}},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Object
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original, decoded, "Float must stay Float and Int must stay Int")
}

func TestFloatMarshalJSON(t *testing.T) {
	tests := []struct {
		input    Float
		expected string
	}{
		{Float(2), "2.0"},
		{Float(-0.5), "-0.5"},
		{Float(1e21), "1e+21"},
		{Float(1e-7), "1e-07"},
	}
	for _, tt := range tests {
		data, err := tt.input.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, tt.expected, string(data))
	}

	_, err := Float(math.NaN()).MarshalJSON()
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestFromGo(t *testing.T) {
	got, err := FromGo(map[string]any{
		"s":    "text",
		"i":    3,
		"f":    0.25,
		"b":    false,
		"list": []any{1, "two"},
		"num":  json.Number("12"),
	})
	require.NoError(t, err)

	assert.Equal(t, Object{
		"s":    String("text"),
		"i":    Int(3),
		"f":    Float(0.25),
		"b":    Bool(false),
		"list": Array{Int(1), String("two")},
		"num":  Int(12),
	}, got)
}

func TestFromGoRejects(t *testing.T) {
	_, err := FromGo(nil)
	assert.ErrorIs(t, err, ErrNullValue)

	_, err = FromGo(map[string]any{"k": []any{nil}})
	assert.ErrorIs(t, err, ErrNullValue)

	_, err = FromGo(math.Inf(-1))
	assert.ErrorIs(t, err, ErrNonFinite)

	_, err = FromGo(struct{}{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestToGo(t *testing.T) {
	v := Object{
		"s": String("x"),
		"l": Array{Int(1), Float(1.5), Bool(true)},
	}

	assert.Equal(t, map[string]any{
		"s": "x",
		"l": []any{int64(1), 1.5, true},
	}, ToGo(v))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Int(2), Float(2)))
	assert.True(t, Equal(Object{"a": Int(1), "b": Int(2)}, Object{"b": Int(2), "a": Int(1)}))
	assert.False(t, Equal(Array{Int(1), Int(2)}, Array{Int(2), Int(1)}))
	assert.False(t, Equal(String("1"), Int(1)))
	assert.False(t, Equal(nil, nil))
}
