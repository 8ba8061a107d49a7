package graphapi

import (
	"errors"
	"fmt"
	"sort"

	"github.com/richinsley/cmfy/internal/xjson"
)

// Prompt is a single job as the server reports it on /queue and /history.
// On the wire it is an array:
//
//	[ index, uuid, nodes, extra_data, outputs_to_execute, ... ]
//
// PngInfo and OutputNodes are carried through untouched.
type Prompt struct {
	Index       uint64           `json:"index"`
	UUID        string           `json:"uuid"`
	Nodes       PromptNodes      `json:"nodes"`
	PngInfo     xjson.RawMessage `json:"png_info"`
	OutputNodes xjson.RawMessage `json:"output_nodes"`
}

func (p *Prompt) UnmarshalJSON(b []byte) error {
	var parts []xjson.RawMessage
	if err := xjson.Unmarshal(b, &parts); err != nil {
		// some proxies re-emit prompts as objects
		type plain Prompt
		var obj plain
		if oerr := xjson.Unmarshal(b, &obj); oerr != nil {
			return err
		}
		*p = Prompt(obj)
		return nil
	}

	if len(parts) < 3 {
		return fmt.Errorf("prompt: expected at least 3 elements, got %d", len(parts))
	}
	if err := xjson.Unmarshal(parts[0], &p.Index); err != nil {
		return fmt.Errorf("prompt index: %w", err)
	}
	if err := xjson.Unmarshal(parts[1], &p.UUID); err != nil {
		return fmt.Errorf("prompt uuid: %w", err)
	}
	if err := xjson.Unmarshal(parts[2], &p.Nodes); err != nil {
		return fmt.Errorf("prompt nodes: %w", err)
	}
	if len(parts) > 3 {
		p.PngInfo = parts[3]
	}
	if len(parts) > 4 {
		p.OutputNodes = parts[4]
	}
	return nil
}

func (p Prompt) MarshalJSON() ([]byte, error) {
	pnginfo := p.PngInfo
	if len(pnginfo) == 0 {
		pnginfo = xjson.RawMessage("{}")
	}
	outputs := p.OutputNodes
	if len(outputs) == 0 {
		outputs = xjson.RawMessage("[]")
	}
	return xjson.Marshal([]interface{}{p.Index, p.UUID, p.Nodes, pnginfo, outputs})
}

// PromptNodes is the computation graph of a prompt, keyed by node id.
// Iteration helpers always walk the ids in lexicographic order.
type PromptNodes map[string]Node

// Node is one computation node. Inputs are kept as raw JSON so that fields
// no typed view knows about survive a read-modify-write cycle.
type Node struct {
	ClassType string           `json:"class_type"`
	Inputs    xjson.RawMessage `json:"inputs"`
	Meta      xjson.RawMessage `json:"_meta,omitempty"`
}

// IDs returns the node ids in lexicographic order.
func (p PromptNodes) IDs() []string {
	ids := make([]string, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks that every node declares a class type.
func (p PromptNodes) Validate() error {
	var errs []error
	for _, id := range p.IDs() {
		if p[id].ClassType == "" {
			errs = append(errs, fmt.Errorf("node %q has no class_type", id))
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy of the graph.
func (p PromptNodes) Clone() PromptNodes {
	retv := make(PromptNodes, len(p))
	for id, n := range p {
		retv[id] = Node{
			ClassType: n.ClassType,
			Inputs:    append(xjson.RawMessage(nil), n.Inputs...),
			Meta:      append(xjson.RawMessage(nil), n.Meta...),
		}
	}
	return retv
}
