package graphapi

import (
	"fmt"

	"github.com/richinsley/cmfy/internal/xjson"
)

// ClassTyper is implemented by typed node input shapes. ClassType must be
// callable on the zero value; it names the node class the shape applies to.
type ClassTyper interface {
	ClassType() string
}

func classTypeOf[N ClassTyper]() string {
	var zero N
	return zero.ClassType()
}

// AllByClass returns every node whose class matches N, with its inputs
// decoded into N.
func AllByClass[N ClassTyper](p PromptNodes) (map[string]N, error) {
	class := classTypeOf[N]()
	retv := make(map[string]N)
	for _, id := range p.IDs() {
		node := p[id]
		if node.ClassType != class {
			continue
		}
		var inputs N
		if err := xjson.Unmarshal(node.Inputs, &inputs); err != nil {
			return nil, fmt.Errorf("decoding %s inputs of node %s: %w", class, id, err)
		}
		retv[id] = inputs
	}
	return retv, nil
}

// FirstByClass returns the node of class N with the lowest id.
func FirstByClass[N ClassTyper](p PromptNodes) (string, N, error) {
	class := classTypeOf[N]()
	for _, id := range p.IDs() {
		node := p[id]
		if node.ClassType != class {
			continue
		}
		var inputs N
		if err := xjson.Unmarshal(node.Inputs, &inputs); err != nil {
			return "", inputs, fmt.Errorf("decoding %s inputs of node %s: %w", class, id, err)
		}
		return id, inputs, nil
	}
	var zero N
	return "", zero, &NodeNotFoundError{ClassType: class}
}

// ChangeFirstByClass applies change to the first node of class N and writes
// the result back. Input fields N does not model are left as they were.
func ChangeFirstByClass[N ClassTyper](p PromptNodes, change func(*N)) error {
	id, inputs, err := FirstByClass[N](p)
	if err != nil {
		return err
	}
	change(&inputs)
	return p.mergeInputs(id, inputs)
}

// mergeInputs overlays the fields of a typed view onto the stored inputs
// of node id. Keys the view does not model are kept; keys it does model are
// always written, zero values included.
func (p PromptNodes) mergeInputs(id string, inputs interface{}) error {
	node := p[id]

	current := make(map[string]interface{})
	if len(node.Inputs) > 0 {
		if err := xjson.UnmarshalUseNumber(node.Inputs, &current); err != nil {
			return fmt.Errorf("node %s inputs are not an object: %w", id, err)
		}
	}

	data, err := xjson.Marshal(inputs)
	if err != nil {
		return err
	}
	changed := make(map[string]interface{})
	if err := xjson.UnmarshalUseNumber(data, &changed); err != nil {
		return err
	}

	for k, v := range changed {
		current[k] = v
	}

	merged, err := xjson.Marshal(current)
	if err != nil {
		return err
	}
	node.Inputs = merged
	p[id] = node
	return nil
}
