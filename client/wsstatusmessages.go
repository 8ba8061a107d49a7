package client

import (
	"github.com/richinsley/cmfy/internal/xjson"
)

type MessageType string

const (
	MessageStatus               MessageType = "status"
	MessageProgress             MessageType = "progress"
	MessageExecuting            MessageType = "executing"
	MessageExecuted             MessageType = "executed"
	MessageExecutionStart       MessageType = "execution_start"
	MessageExecutionSuccess     MessageType = "execution_success"
	MessageExecutionCached      MessageType = "execution_cached"
	MessageExecutionInterrupted MessageType = "execution_interrupted"
	MessageExecutionError       MessageType = "execution_error"
)

// Message is one server-pushed websocket event. Data holds a pointer to the
// payload struct matching Type, or nil when the type is not recognised.
type Message struct {
	Type MessageType
	Data interface{}
	// Raw is the undecoded data object.
	Raw xjson.RawMessage
}

func (m *Message) UnmarshalJSON(b []byte) error {
	var temp struct {
		Type MessageType      `json:"type"`
		Data xjson.RawMessage `json:"data"`
	}
	if err := xjson.Unmarshal(b, &temp); err != nil {
		return err
	}

	m.Type = temp.Type
	m.Raw = temp.Data

	switch m.Type {
	case MessageStatus:
		m.Data = &StatusData{}
	case MessageProgress:
		m.Data = &ProgressData{}
	case MessageExecuting:
		m.Data = &ExecutingData{}
	case MessageExecuted:
		m.Data = &ExecutedData{}
	case MessageExecutionStart, MessageExecutionSuccess, MessageExecutionCached:
		m.Data = &ExecutionStepData{}
	case MessageExecutionInterrupted:
		m.Data = &ExecutionInterruptedData{}
	case MessageExecutionError:
		m.Data = &ExecutionErrorData{}
	default:
		m.Data = nil
		return nil
	}

	if len(temp.Data) == 0 {
		return nil
	}
	return xjson.Unmarshal(temp.Data, m.Data)
}

// Known reports whether the message type has a decoded payload.
func (m *Message) Known() bool {
	return m.Data != nil
}

type StatusData struct {
	Status struct {
		ExecInfo struct {
			QueueRemaining int `json:"queue_remaining"`
		} `json:"exec_info"`
	} `json:"status"`
	SID string `json:"sid,omitempty"`
}

/*
{"type": "status", "data": {"status": {"exec_info": {"queue_remaining": 1}}, "sid": "2b1b7f4c..."}}
*/

type ProgressData struct {
	Value    int64   `json:"value"`
	Max      int64   `json:"max"`
	PromptID string  `json:"prompt_id"`
	Node     *string `json:"node"`
}

/*
{"type": "progress", "data": {"value": 1, "max": 20, "prompt_id": "ed986d60-...", "node": "3"}}
*/

type ExecutingData struct {
	Node        *string `json:"node"`
	DisplayNode *string `json:"display_node,omitempty"`
	PromptID    string  `json:"prompt_id"`
}

/*
{"type": "executing", "data": {"node": "12", "prompt_id": "ed986d60-..."}}
{"type": "executing", "data": {"node": null, "prompt_id": "ed986d60-..."}}
*/

type ExecutedData struct {
	Node        string  `json:"node"`
	DisplayNode string  `json:"display_node,omitempty"`
	Output      *Output `json:"output"`
	PromptID    string  `json:"prompt_id"`
}

/*
{"type": "executed", "data": {"node": "19", "output": {"images": [{"filename": "ComfyUI_00046_.png", "subfolder": "", "type": "output"}]}, "prompt_id": "ed986d60-..."}}
*/

// ExecutionStepData is the payload of execution_start, execution_success and
// execution_cached.
type ExecutionStepData struct {
	PromptID  string    `json:"prompt_id"`
	Timestamp Timestamp `json:"timestamp"`
	Nodes     []string  `json:"nodes,omitempty"`
}

/*
{"type": "execution_start", "data": {"prompt_id": "ed986d60-...", "timestamp": 1717171717171}}
{"type": "execution_cached", "data": {"nodes": ["4", "5"], "prompt_id": "ed986d60-...", "timestamp": 1717171717172}}
*/

type ExecutionInterruptedData struct {
	PromptID  string    `json:"prompt_id"`
	Node      string    `json:"node_id"`
	NodeType  string    `json:"node_type"`
	Executed  []string  `json:"executed"`
	Timestamp Timestamp `json:"timestamp"`
}

/*
{"type": "execution_interrupted", "data": {"prompt_id": "dc7093d7-...", "node_id": "19", "node_type": "SaveImage", "executed": ["5", "17", "10", "11"]}}
*/

type ExecutionErrorData struct {
	PromptID         string                      `json:"prompt_id"`
	Node             string                      `json:"node_id"`
	NodeType         string                      `json:"node_type"`
	Executed         []string                    `json:"executed"`
	ExceptionMessage string                      `json:"exception_message"`
	ExceptionType    string                      `json:"exception_type"`
	Traceback        []string                    `json:"traceback"`
	CurrentInputs    map[string]xjson.RawMessage `json:"current_inputs"`
	CurrentOutputs   map[string]xjson.RawMessage `json:"current_outputs"`
	Timestamp        Timestamp                   `json:"timestamp"`
}
