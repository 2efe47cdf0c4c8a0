package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenesis(t *testing.T) {
	g := Genesis("")

	assert.Equal(t, DefaultSchemaVersion, g.SchemaVersion)
	assert.Equal(t, int64(0), g.Turn)
	assert.Empty(t, g.Fields)
	assert.Equal(t, GenesisFingerprint, g.Fingerprint)
	assert.True(t, g.IsGenesis())

	assert.Equal(t, "v3", Genesis("v3").SchemaVersion)
}

func TestDeltasApply(t *testing.T) {
	fields := Object{"keep": String("x"), "del": String("y")}

	out, err := Deltas{
		"del":    Delete(),
		"absent": Delete(),
		"new":    Set(Int(1)),
		"keep":   Set(String("z")),
	}.Apply(fields)
	require.NoError(t, err)

	assert.Equal(t, Object{"keep": String("z"), "new": Int(1)}, out)
	assert.Equal(t, Object{"keep": String("x"), "del": String("y")}, fields, "input must not be modified")
}

func TestDeltasApplyEmpty(t *testing.T) {
	fields := Object{"a": Int(1)}

	out, err := Deltas{}.Apply(fields)
	require.NoError(t, err)
	assert.Equal(t, fields, out)

	out, err = Deltas(nil).Apply(nil)
	require.NoError(t, err)
	assert.Equal(t, Object{}, out)
}

func TestDeltasApplyCopiesValues(t *testing.T) {
	list := Array{Int(1)}
	out, err := Deltas{"list": Set(list)}.Apply(Object{})
	require.NoError(t, err)

	list[0] = Int(2)
	assert.Equal(t, Array{Int(1)}, out["list"])
}

func TestDeltasApplyAtomic(t *testing.T) {
	fields := Object{"a": Int(1)}

	tests := []struct {
		name   string
		deltas Deltas
		target error
	}{
		{"set nil", Deltas{"b": Set(nil), "c": Set(Int(3))}, ErrNullValue},
		{"non-finite", Deltas{"b": Set(Float(math.NaN()))}, ErrNonFinite},
		{"nested nil", Deltas{"b": Set(Array{nil})}, ErrNullValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.deltas.Apply(fields)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Nil(t, out)
			assert.Equal(t, Object{"a": Int(1)}, fields)
		})
	}
}

func TestDeltaAccessors(t *testing.T) {
	d := Set(String("v"))
	assert.False(t, d.IsDelete())
	assert.Equal(t, String("v"), d.Value())

	del := Delete()
	assert.True(t, del.IsDelete())
	assert.Nil(t, del.Value())
}

func TestDeltasFromJSON(t *testing.T) {
	d, err := DeltasFromJSON([]byte(`{"mode":"production","debug":null,"n":3,"tags":["a"]}`))
	require.NoError(t, err)

	require.Len(t, d, 4)
	assert.True(t, d["debug"].IsDelete())
	assert.Equal(t, String("production"), d["mode"].Value())
	assert.Equal(t, Int(3), d["n"].Value())
	assert.Equal(t, Array{String("a")}, d["tags"].Value())
}

func TestDeltasFromJSONRejects(t *testing.T) {
	for _, input := range []string{`[1]`, `null`, `"text"`, `3`, `true`} {
		t.Run(input, func(t *testing.T) {
			d, err := DeltasFromJSON([]byte(input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupported)
			assert.Nil(t, d)
		})
	}

	_, err := DeltasFromJSON([]byte(`{"a":1} {"b":2}`))
	require.Error(t, err)

	_, err = DeltasFromJSON([]byte(``))
	require.Error(t, err)

	_, err = DeltasFromJSON([]byte(`{"k":[null]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNullValue)
}

func TestDeltasFromGo(t *testing.T) {
	d, err := DeltasFromGo(map[string]any{"a": 1, "b": nil})
	require.NoError(t, err)

	assert.Equal(t, Int(1), d["a"].Value())
	assert.True(t, d["b"].IsDelete())
}

func TestRecordClone(t *testing.T) {
	r := Record{Turn: 1, Fields: Object{"o": Object{"k": Int(1)}}, Fingerprint: "x"}
	c := r.Clone()
	c.Fields["o"].(Object)["k"] = Int(2)

	assert.Equal(t, Int(1), r.Fields["o"].(Object)["k"])
}
