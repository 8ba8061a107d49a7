package client

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/cmfy/internal/xjson"
)

const historyFixture = `{
	"u1": {
		"prompt": [7, "u1", {"3": {"class_type": "KSampler", "inputs": {"seed": 42}}}, {"client_id": "c"}, ["9"]],
		"outputs": {
			"9": {"images": [{"filename": "b.png", "subfolder": "s", "type": "output"}]},
			"12": {"text": ["hello"]},
			"10": {"images": [{"filename": "a.png", "subfolder": "", "type": "temp"}]}
		},
		"status": {"status_str": "success", "completed": true, "messages": [
			["execution_start", {"prompt_id": "u1", "timestamp": 1700000000000}],
			["execution_cached", {"nodes": ["4"], "prompt_id": "u1", "timestamp": 1700000000001}],
			["execution_success", {"prompt_id": "u1", "timestamp": 1700000000900}]
		]},
		"meta": {"9": {"node_id": "9"}}
	}
}`

func TestHistoryDecoding(t *testing.T) {
	var h History
	require.NoError(t, xjson.Unmarshal([]byte(historyFixture), &h))
	require.Contains(t, h, "u1")

	entry := h["u1"]
	assert.Equal(t, uint64(7), entry.Prompt.Index)
	assert.Equal(t, "u1", entry.Prompt.UUID)
	assert.Equal(t, "KSampler", entry.Prompt.Nodes["3"].ClassType)
	assert.False(t, entry.Cancelled())
	assert.True(t, entry.Status.Completed)

	require.Len(t, entry.Status.Messages, 3)
	assert.Equal(t, MessageExecutionCached, entry.Status.Messages[1].Kind)
	assert.True(t, entry.Status.Messages[0].Data.Timestamp.Equal(time.UnixMilli(1700000000000)))
	assert.JSONEq(t, `["4"]`, string(entry.Status.Messages[1].Data.Extra["nodes"]))

	images := entry.Outputs.Images()
	require.Len(t, images, 2)
	assert.Equal(t, "a.png", images[0].Filename)
	assert.Equal(t, "b.png", images[1].Filename)

	first, ok := entry.Outputs.FirstImage()
	require.True(t, ok)
	assert.Equal(t, "temp", first.Type)

	assert.Empty(t, entry.Outputs["12"].Images)
	assert.JSONEq(t, `["hello"]`, string(entry.Outputs["12"].Other["text"]))
}

func TestStatusMessageRoundTrip(t *testing.T) {
	in := `["execution_interrupted", {"prompt_id": "u1", "timestamp": 1700000000500, "node_id": "3"}]`
	var m StatusMessage
	require.NoError(t, xjson.Unmarshal([]byte(in), &m))
	assert.Equal(t, MessageExecutionInterrupted, m.Kind)
	assert.Equal(t, "u1", m.Data.PromptID)

	out, err := xjson.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestStatusMessageRejectsWrongArity(t *testing.T) {
	var m StatusMessage
	assert.Error(t, xjson.Unmarshal([]byte(`["execution_start"]`), &m))
}

func TestOutputsWithoutImages(t *testing.T) {
	_, ok := Outputs{}.FirstImage()
	assert.False(t, ok)
}

func TestQueueEmpty(t *testing.T) {
	var q Queue
	require.NoError(t, xjson.Unmarshal([]byte(`{"queue_running": [], "queue_pending": [[1, "u1", {}, {}, []]]}`), &q))
	assert.False(t, q.Empty())
	assert.True(t, Queue{}.Empty())
}

func pngChunk(kind string, data []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(kind)
	buf.Write(data)
	crc := crc32.ChecksumIEEE(append([]byte(kind), data...))
	_ = binary.Write(&buf, binary.BigEndian, crc)
	return buf.Bytes()
}

func testPNG(text map[string]string) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	buf.Write(pngChunk("IHDR", make([]byte, 13)))
	for k, v := range text {
		buf.Write(pngChunk("tEXt", append(append([]byte(k), 0), v...)))
	}
	buf.Write(pngChunk("IEND", nil))
	return buf.Bytes()
}

func TestPromptFromPNG(t *testing.T) {
	data := testPNG(map[string]string{
		"prompt":   `{"3": {"class_type": "KSampler", "inputs": {"seed": 18446744073709551615}}}`,
		"workflow": `{}`,
	})

	nodes, err := PromptFromPNG(bytes.NewReader(data))
	require.NoError(t, err)
	seed, err := nodes.Seed()
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), seed)
}

func TestPromptFromPNGErrors(t *testing.T) {
	_, err := PromptFromPNG(bytes.NewReader([]byte("not a png at all")))
	assert.True(t, IsParse(err))

	_, err = PromptFromPNG(bytes.NewReader(testPNG(map[string]string{"workflow": `{}`})))
	assert.True(t, IsParse(err))
}

func TestOversizedTextChunkIsRejected(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	// a length header claiming 4 GiB with no data behind it
	_ = binary.Write(&buf, binary.BigEndian, uint32(0xFFFFFFF0))
	buf.WriteString("tEXt")
	buf.WriteString("prompt\x00{}")

	_, err := GetPngMetadata(&buf)
	require.Error(t, err)
	assert.True(t, IsParse(err))
	assert.Contains(t, err.Error(), "exceeds")
}
