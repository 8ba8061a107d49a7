package graphapi

import (
	"errors"
	"fmt"
)

var ErrNodeNotFound = errors.New("node not found")

// NodeNotFoundError reports that no node of the requested class exists in a graph.
type NodeNotFoundError struct {
	ClassType string
	ID        string
}

func (e *NodeNotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("node id '%s' not found", e.ID)
	}
	return fmt.Sprintf("node with class '%s' not found", e.ClassType)
}

func (e *NodeNotFoundError) Is(target error) bool {
	return target == ErrNodeNotFound
}

func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}
