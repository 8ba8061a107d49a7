package graphapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptFromWireArray(t *testing.T) {
	data := `[
		12,
		"8d1b6e0c-5f43-4b7e-9d0e-3f1d2c4b5a69",
		{"3": {"class_type": "KSampler", "inputs": {"seed": 5}}},
		{"extra_pnginfo": {"workflow": {"nodes": []}}, "client_id": "abc"},
		["9"]
	]`

	var p Prompt
	require.NoError(t, json.Unmarshal([]byte(data), &p))
	assert.Equal(t, uint64(12), p.Index)
	assert.Equal(t, "8d1b6e0c-5f43-4b7e-9d0e-3f1d2c4b5a69", p.UUID)
	require.Contains(t, p.Nodes, "3")
	assert.Equal(t, "KSampler", p.Nodes["3"].ClassType)
	assert.JSONEq(t, `["9"]`, string(p.OutputNodes))

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, data, string(out))
}

func TestPromptIgnoresTrailingElements(t *testing.T) {
	data := `[1, "u", {}, {}, [], {"sensitive": true}]`

	var p Prompt
	require.NoError(t, json.Unmarshal([]byte(data), &p))
	assert.Equal(t, uint64(1), p.Index)
	assert.Equal(t, "u", p.UUID)
}

func TestPromptFromObject(t *testing.T) {
	var p Prompt
	require.NoError(t, json.Unmarshal([]byte(`{"index": 3, "uuid": "u3", "nodes": {}}`), &p))
	assert.Equal(t, uint64(3), p.Index)
	assert.Equal(t, "u3", p.UUID)
}

func TestPromptTooShort(t *testing.T) {
	var p Prompt
	assert.Error(t, json.Unmarshal([]byte(`[1, "u"]`), &p))
}

func TestPromptNodesValidate(t *testing.T) {
	nodes := PromptNodes{
		"1": {ClassType: "KSampler", Inputs: json.RawMessage(`{}`)},
		"2": {Inputs: json.RawMessage(`{}`)},
	}
	err := nodes.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `node "2" has no class_type`)

	delete(nodes, "2")
	assert.NoError(t, nodes.Validate())
}

func TestPromptNodesIDsAndClone(t *testing.T) {
	nodes := PromptNodes{"10": {ClassType: "A"}, "2": {ClassType: "B"}, "1": {ClassType: "C"}}
	assert.Equal(t, []string{"1", "10", "2"}, nodes.IDs())

	clone := nodes.Clone()
	clone["1"] = Node{ClassType: "Z"}
	assert.Equal(t, "C", nodes["1"].ClassType)
}
