package client

import (
	"fmt"
	"log/slog"
)

// MessageHandlers routes websocket messages to per-type callbacks. All
// handlers are optional; a message whose handler is nil is ignored. A
// handler error stops Dispatch and is returned to the caller.
type MessageHandlers struct {
	// OnStatus is called when the server reports its queue state
	OnStatus func(*StatusData) error

	// OnProgress is called with step updates of the running node
	OnProgress func(*ProgressData) error

	// OnExecuting is called when a node starts executing, or with a nil node
	// once the prompt is done
	OnExecuting func(*ExecutingData) error

	// OnExecuted is called when an output node produced its output
	OnExecuted func(*ExecutedData) error

	OnExecutionStart   func(*ExecutionStepData) error
	OnExecutionSuccess func(*ExecutionStepData) error
	OnExecutionCached  func(*ExecutionStepData) error

	OnExecutionInterrupted func(*ExecutionInterruptedData) error
	OnExecutionError       func(*ExecutionErrorData) error

	// OnUnknown receives messages whose type has no decoded payload
	OnUnknown func(*Message) error
}

// DefaultMessageHandlers logs every message at debug level and does nothing
// else. Callers override the fields they care about.
func DefaultMessageHandlers() *MessageHandlers {
	return &MessageHandlers{
		OnStatus: func(d *StatusData) error {
			slog.Debug("status", "queue_remaining", d.Status.ExecInfo.QueueRemaining)
			return nil
		},
		OnProgress: func(d *ProgressData) error {
			slog.Debug("progress", "prompt_id", d.PromptID, "value", d.Value, "max", d.Max)
			return nil
		},
		OnExecuting: func(d *ExecutingData) error {
			node := "<none>"
			if d.Node != nil {
				node = *d.Node
			}
			slog.Debug("executing", "prompt_id", d.PromptID, "node", node)
			return nil
		},
		OnExecuted: func(d *ExecutedData) error {
			slog.Debug("executed", "prompt_id", d.PromptID, "node", d.Node)
			return nil
		},
		OnExecutionStart: func(d *ExecutionStepData) error {
			slog.Debug("execution started", "prompt_id", d.PromptID)
			return nil
		},
		OnExecutionSuccess: func(d *ExecutionStepData) error {
			slog.Debug("execution succeeded", "prompt_id", d.PromptID)
			return nil
		},
		OnExecutionCached: func(d *ExecutionStepData) error {
			slog.Debug("execution cached", "prompt_id", d.PromptID, "nodes", d.Nodes)
			return nil
		},
		OnExecutionInterrupted: func(d *ExecutionInterruptedData) error {
			slog.Debug("execution interrupted", "prompt_id", d.PromptID, "node", d.Node)
			return nil
		},
		OnExecutionError: func(d *ExecutionErrorData) error {
			slog.Warn("execution error",
				"prompt_id", d.PromptID,
				"node_id", d.Node,
				"node_type", d.NodeType,
				"error", d.ExceptionMessage,
			)
			return nil
		},
		OnUnknown: func(m *Message) error {
			slog.Debug("unknown message", "type", m.Type)
			return nil
		},
	}
}

// Dispatch calls the handler registered for the message type.
func (h *MessageHandlers) Dispatch(m *Message) error {
	if m == nil {
		return nil
	}
	if !m.Known() {
		if h.OnUnknown != nil {
			return h.OnUnknown(m)
		}
		return nil
	}

	switch d := m.Data.(type) {
	case *StatusData:
		if h.OnStatus != nil {
			return h.OnStatus(d)
		}
	case *ProgressData:
		if h.OnProgress != nil {
			return h.OnProgress(d)
		}
	case *ExecutingData:
		if h.OnExecuting != nil {
			return h.OnExecuting(d)
		}
	case *ExecutedData:
		if h.OnExecuted != nil {
			return h.OnExecuted(d)
		}
	case *ExecutionStepData:
		return h.dispatchStep(m.Type, d)
	case *ExecutionInterruptedData:
		if h.OnExecutionInterrupted != nil {
			return h.OnExecutionInterrupted(d)
		}
	case *ExecutionErrorData:
		if h.OnExecutionError != nil {
			return h.OnExecutionError(d)
		}
	default:
		return fmt.Errorf("no dispatch for message type %q", m.Type)
	}
	return nil
}

func (h *MessageHandlers) dispatchStep(t MessageType, d *ExecutionStepData) error {
	var fn func(*ExecutionStepData) error
	switch t {
	case MessageExecutionStart:
		fn = h.OnExecutionStart
	case MessageExecutionSuccess:
		fn = h.OnExecutionSuccess
	case MessageExecutionCached:
		fn = h.OnExecutionCached
	}
	if fn == nil {
		return nil
	}
	return fn(d)
}
