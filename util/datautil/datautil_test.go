package datautil

import (
	"bytes"
	"encoding/json"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(kv ...string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for i := 0; i+1 < len(kv); i += 2 {
			if !yield(kv[i], kv[i+1]) {
				return
			}
		}
	}
}

func TestDiff(t *testing.T) {
	d := Diff(
		seq("Prompt", "a cat", "Steps", "20", "Seed", "42"),
		seq("Model", "sd_xl", "Prompt", "a cat", "Steps", "30"),
	)
	require.False(t, d.Empty())
	assert.Equal(t, []Change{
		{Key: "Steps", Op: OpChanged, From: "20", To: "30"},
		{Key: "Seed", Op: OpRemoved, From: "42"},
		{Key: "Model", Op: OpAdded, To: "sd_xl"},
	}, d.Changes)
	assert.Equal(t, []string{"Steps", "Seed", "Model"}, d.Keys())

	var buf bytes.Buffer
	require.NoError(t, d.Print(&buf))
	assert.Equal(t, "~ Steps: 20 -> 30\n- Seed = 42\n+ Model = sd_xl\n", buf.String())

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"key":"Steps","op":"changed","from":"20","to":"30"},`+
		`{"key":"Seed","op":"removed","from":"42"},{"key":"Model","op":"added","to":"sd_xl"}]`, string(data))
}

func TestDiff_Equal(t *testing.T) {
	d := Diff(seq("a", "1", "b", "2"), seq("b", "2", "a", "1"))
	assert.Nil(t, d)
	assert.True(t, d.Empty())
	assert.Nil(t, d.Keys())

	var buf bytes.Buffer
	require.NoError(t, d.Print(&buf))
	assert.Equal(t, "no differences\n", buf.String())

	data, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
