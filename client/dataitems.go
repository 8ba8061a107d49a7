package client

import (
	"sort"
	"time"

	"github.com/richinsley/cmfy/graphapi"
	"github.com/richinsley/cmfy/internal/xjson"
)

// Timestamp is a point in time carried on the wire as integer milliseconds
// since the unix epoch.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var ms *int64
	if err := xjson.Unmarshal(b, &ms); err != nil {
		return err
	}
	if ms == nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = time.UnixMilli(*ms)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return xjson.Marshal(t.UnixMilli())
}

type SystemStats struct {
	System  System `json:"system"`
	Devices []GPU  `json:"devices"`
}

type System struct {
	OS             string   `json:"os"`
	PythonVersion  string   `json:"python_version"`
	EmbeddedPython bool     `json:"embedded_python"`
	ComfyUIVersion string   `json:"comfyui_version,omitempty"`
	PytorchVersion string   `json:"pytorch_version,omitempty"`
	RAMTotal       uint64   `json:"ram_total,omitempty"`
	RAMFree        uint64   `json:"ram_free,omitempty"`
	Argv           []string `json:"argv,omitempty"`
}

type GPU struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Index          *int   `json:"index"`
	VRAMTotal      uint64 `json:"vram_total"`
	VRAMFree       uint64 `json:"vram_free"`
	TorchVRAMTotal uint64 `json:"torch_vram_total"`
	TorchVRAMFree  uint64 `json:"torch_vram_free"`
}

/*
{"system": {"os": "posix", "python_version": "3.11.6", "embedded_python": false},
 "devices": [{"name": "cuda:0 NVIDIA GeForce RTX 3090 : cudaMallocAsync", "type": "cuda", "index": 0,
   "vram_total": 25438126080, "vram_free": 24131158016, "torch_vram_total": 0, "torch_vram_free": 0}]}
*/

// Image identifies a file produced by an output node.
type Image struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// Output is what a single output node produced. Image producing nodes fill
// Images, anything else lands in Other keyed by its field name.
type Output struct {
	Images []Image
	Other  map[string]xjson.RawMessage
}

func (o *Output) UnmarshalJSON(b []byte) error {
	var fields map[string]xjson.RawMessage
	if err := xjson.Unmarshal(b, &fields); err != nil {
		return err
	}

	*o = Output{}
	if raw, ok := fields["images"]; ok {
		var images []Image
		if err := xjson.Unmarshal(raw, &images); err == nil {
			o.Images = images
			delete(fields, "images")
		}
	}
	if len(fields) > 0 {
		o.Other = fields
	}
	return nil
}

func (o Output) MarshalJSON() ([]byte, error) {
	fields := make(map[string]interface{}, len(o.Other)+1)
	for k, v := range o.Other {
		fields[k] = v
	}
	if o.Images != nil {
		fields["images"] = o.Images
	}
	return xjson.Marshal(fields)
}

// Outputs maps output node ids to what they produced.
type Outputs map[string]Output

// Images returns every image in node id order.
func (o Outputs) Images() []Image {
	ids := make([]string, 0, len(o))
	for id := range o {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var images []Image
	for _, id := range ids {
		images = append(images, o[id].Images...)
	}
	return images
}

func (o Outputs) FirstImage() (Image, bool) {
	images := o.Images()
	if len(images) == 0 {
		return Image{}, false
	}
	return images[0], true
}

// StatusMessage is one execution event recorded in a history entry. On the
// wire it is a two element array:
//
//	["execution_start", {"prompt_id": "...", "timestamp": 1717171717171}]
type StatusMessage struct {
	Kind MessageType
	Data StatusMessageData
}

func (m *StatusMessage) UnmarshalJSON(b []byte) error {
	var pair []xjson.RawMessage
	if err := xjson.Unmarshal(b, &pair); err != nil {
		var obj struct {
			Kind MessageType       `json:"kind"`
			Data StatusMessageData `json:"data"`
		}
		if objErr := xjson.Unmarshal(b, &obj); objErr != nil {
			return err
		}
		m.Kind, m.Data = obj.Kind, obj.Data
		return nil
	}
	if len(pair) != 2 {
		return &ParseError{What: "history status message", Err: errWrongArity(len(pair))}
	}
	if err := xjson.Unmarshal(pair[0], &m.Kind); err != nil {
		return err
	}
	return xjson.Unmarshal(pair[1], &m.Data)
}

func (m StatusMessage) MarshalJSON() ([]byte, error) {
	return xjson.Marshal([]interface{}{m.Kind, m.Data})
}

type StatusMessageData struct {
	PromptID  string
	Timestamp Timestamp
	// Extra holds every other field of the message, e.g. node ids or
	// exception details.
	Extra map[string]xjson.RawMessage
}

func (d *StatusMessageData) UnmarshalJSON(b []byte) error {
	var fields map[string]xjson.RawMessage
	if err := xjson.Unmarshal(b, &fields); err != nil {
		return err
	}

	*d = StatusMessageData{}
	if raw, ok := fields["prompt_id"]; ok {
		if err := xjson.Unmarshal(raw, &d.PromptID); err != nil {
			return err
		}
		delete(fields, "prompt_id")
	}
	if raw, ok := fields["timestamp"]; ok {
		if err := xjson.Unmarshal(raw, &d.Timestamp); err != nil {
			return err
		}
		delete(fields, "timestamp")
	}
	if len(fields) > 0 {
		d.Extra = fields
	}
	return nil
}

func (d StatusMessageData) MarshalJSON() ([]byte, error) {
	fields := make(map[string]interface{}, len(d.Extra)+2)
	for k, v := range d.Extra {
		fields[k] = v
	}
	fields["prompt_id"] = d.PromptID
	fields["timestamp"] = d.Timestamp
	return xjson.Marshal(fields)
}

type HistoryStatus struct {
	StatusStr string          `json:"status_str"`
	Completed bool            `json:"completed"`
	Messages  []StatusMessage `json:"messages"`
}

// HistoryLogEntry is one finished (or interrupted) prompt.
type HistoryLogEntry struct {
	Prompt  graphapi.Prompt  `json:"prompt"`
	Outputs Outputs          `json:"outputs"`
	Status  HistoryStatus    `json:"status"`
	Meta    xjson.RawMessage `json:"meta,omitempty"`
}

// Cancelled reports whether the status messages record an interruption.
func (e HistoryLogEntry) Cancelled() bool {
	for _, m := range e.Status.Messages {
		if m.Kind == MessageExecutionInterrupted {
			return true
		}
	}
	return false
}

/*
{"ed986d60-...": {"prompt": [3, "ed986d60-...", {...nodes...}, {"client_id": "..."}, ["9"]],
  "outputs": {"9": {"images": [{"filename": "ComfyUI_00046_.png", "subfolder": "", "type": "output"}]}},
  "status": {"status_str": "success", "completed": true, "messages": [["execution_start", {"prompt_id": "ed986d60-...", "timestamp": 1717171717171}]]}}}
*/

// History maps prompt uuids to their log entries.
type History map[string]HistoryLogEntry

// IDs returns the prompt uuids in lexicographic order.
func (h History) IDs() []string {
	ids := make([]string, 0, len(h))
	for id := range h {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type Queue struct {
	Running []graphapi.Prompt `json:"queue_running"`
	Pending []graphapi.Prompt `json:"queue_pending"`
}

func (q Queue) Empty() bool {
	return len(q.Running) == 0 && len(q.Pending) == 0
}

type PromptError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details"`
	ExtraInfo map[string]interface{} `json:"extra_info"`
}
