package client

import (
	"sort"

	"github.com/fatih/color"
	"github.com/richinsley/cmfy/graphapi"
)

type StatusKind int

const (
	StatusCompleted StatusKind = iota
	StatusPending
	StatusRunning
	StatusCancelled
)

func (k StatusKind) String() string {
	switch k {
	case StatusCompleted:
		return "completed"
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of one prompt. Only completed prompts carry
// outputs.
type Status struct {
	Kind    StatusKind
	outputs Outputs
}

func Completed(outputs Outputs) Status {
	if outputs == nil {
		outputs = Outputs{}
	}
	return Status{Kind: StatusCompleted, outputs: outputs}
}

func Pending() Status   { return Status{Kind: StatusPending} }
func Running() Status   { return Status{Kind: StatusRunning} }
func Cancelled() Status { return Status{Kind: StatusCancelled} }

// Outputs returns the outputs of a completed prompt.
func (s Status) Outputs() (Outputs, bool) {
	if s.Kind != StatusCompleted {
		return nil, false
	}
	return s.outputs, true
}

func (s Status) String() string {
	return s.Kind.String()
}

// Colored renders the status name in its display color.
func (s Status) Colored() string {
	switch s.Kind {
	case StatusCompleted:
		return color.GreenString(s.String())
	case StatusPending:
		return color.YellowString(s.String())
	case StatusRunning:
		return color.BlueString(s.String())
	case StatusCancelled:
		return color.RedString(s.String())
	}
	return s.String()
}

// PromptBatchEntry is a prompt paired with its status.
type PromptBatchEntry struct {
	Prompt graphapi.Prompt
	Status Status
}

type PromptBatch []PromptBatchEntry

// HistoryBatch turns history entries into batch entries, in uuid order.
// Entries recording an interruption are cancelled, all others completed.
func HistoryBatch(h History) PromptBatch {
	batch := make(PromptBatch, 0, len(h))
	for _, id := range h.IDs() {
		entry := h[id]
		status := Completed(entry.Outputs)
		if entry.Cancelled() {
			status = Cancelled()
		}
		batch = append(batch, PromptBatchEntry{Prompt: entry.Prompt, Status: status})
	}
	return batch
}

// QueueBatch lists running prompts before pending ones.
func QueueBatch(q Queue) PromptBatch {
	batch := make(PromptBatch, 0, len(q.Running)+len(q.Pending))
	for _, p := range q.Running {
		batch = append(batch, PromptBatchEntry{Prompt: p, Status: Running()})
	}
	for _, p := range q.Pending {
		batch = append(batch, PromptBatchEntry{Prompt: p, Status: Pending()})
	}
	return batch
}

// Sort orders the batch by index then uuid. Entries comparing equal keep
// their relative order.
func (b PromptBatch) Sort() {
	sort.SliceStable(b, func(i, j int) bool {
		if b[i].Prompt.Index != b[j].Prompt.Index {
			return b[i].Prompt.Index < b[j].Prompt.Index
		}
		return b[i].Prompt.UUID < b[j].Prompt.UUID
	})
}

// Filter keeps the entries for which keep returns true.
func (b PromptBatch) Filter(keep func(PromptBatchEntry) bool) PromptBatch {
	var out PromptBatch
	for _, e := range b {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// UUIDs returns the set of prompt uuids present in the batch.
func (b PromptBatch) UUIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(b))
	for _, e := range b {
		ids[e.Prompt.UUID] = struct{}{}
	}
	return ids
}
