package client

import (
	"fmt"

	"github.com/richinsley/cmfy/graphapi"
	"github.com/richinsley/cmfy/internal/xjson"
)

// PromptRequest is the body of POST /prompt.
type PromptRequest struct {
	ClientID string               `json:"client_id"`
	Prompt   graphapi.PromptNodes `json:"prompt"`
}

// SubmitResponse is what the server answers to an accepted prompt.
type SubmitResponse struct {
	PromptID   string           `json:"prompt_id"`
	Number     uint64           `json:"number"`
	NodeErrors xjson.RawMessage `json:"node_errors,omitempty"`
}

type deleteRequest struct {
	Delete []string `json:"delete"`
}

type clearRequest struct {
	Clear bool `json:"clear"`
}

func errWrongArity(n int) error {
	return fmt.Errorf("expected 2 elements, got %d", n)
}
