package monitor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/cmfy/client"
	"github.com/richinsley/cmfy/graphapi"
	"github.com/richinsley/cmfy/internal/progress"
	"github.com/richinsley/cmfy/internal/xjson"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

type fakeSource struct {
	batch client.PromptBatch
	err   error
	calls int
	ctxs  []context.Context
}

func (f *fakeSource) CollectPromptBatch(ctx context.Context, _, _ bool) (client.PromptBatch, error) {
	f.calls++
	f.ctxs = append(f.ctxs, ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.batch, f.err
}

func (f *fakeSource) URLForImage(img client.Image) string {
	return "http://server/api/view?filename=" + img.Filename
}

type step struct {
	msg     string
	outcome client.Outcome
	err     error
}

type fakeStream struct {
	steps []step
}

func (f *fakeStream) NextMessage(context.Context, time.Duration) (*client.Message, client.Outcome, error) {
	if len(f.steps) == 0 {
		return nil, client.OutcomeEnded, nil
	}
	s := f.steps[0]
	f.steps = f.steps[1:]
	if s.err != nil || s.outcome != client.OutcomeReceived {
		return nil, s.outcome, s.err
	}
	var m client.Message
	if err := xjson.Unmarshal([]byte(s.msg), &m); err != nil {
		return nil, client.OutcomeReceived, err
	}
	return &m, client.OutcomeReceived, nil
}

func entry(index uint64, uuid string, status client.Status) client.PromptBatchEntry {
	return client.PromptBatchEntry{
		Prompt: graphapi.Prompt{Index: index, UUID: uuid, Nodes: graphapi.PromptNodes{}},
		Status: status,
	}
}

func message(t *testing.T, s string) *client.Message {
	t.Helper()
	var m client.Message
	require.NoError(t, xjson.Unmarshal([]byte(s), &m))
	return &m
}

const statusEvent = `{"type": "status", "data": {"status": {"exec_info": {"queue_remaining": 1}}}}`

func TestMonitorLifecycle(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{batch: client.PromptBatch{entry(1, "u1", client.Pending())}}
	multi := progress.New(&bytes.Buffer{})
	defer multi.Close()
	m := New(source, multi)

	require.NoError(t, m.Dispatch(ctx, message(t, statusEvent)))
	require.Equal(t, 1, m.Len())
	bar, ok := m.Bar("u1")
	require.True(t, ok)
	assert.Equal(t, "[1]  u1", bar.Prefix())
	assert.Equal(t, int64(0), bar.Length())

	source.batch = client.PromptBatch{entry(1, "u1", client.Running())}
	require.NoError(t, m.Dispatch(ctx, message(t, statusEvent)))
	assert.Equal(t, progress.StyleTiming, bar.Style())
	assert.True(t, bar.Ticking())

	require.NoError(t, m.Dispatch(ctx, message(t,
		`{"type": "progress", "data": {"value": 3, "max": 10, "prompt_id": "u1", "node": "3"}}`)))
	assert.Equal(t, int64(10), bar.Length())
	assert.Equal(t, int64(3), bar.Position())
	assert.Equal(t, progress.StyleSteps, bar.Style())

	// a refresh while still running keeps the steps style once a length is known
	require.NoError(t, m.Dispatch(ctx, message(t, statusEvent)))
	assert.Equal(t, progress.StyleSteps, bar.Style())

	outputs := client.Outputs{"9": {Images: []client.Image{{Filename: "a.png", Type: "output"}}}}
	source.batch = client.PromptBatch{entry(1, "u1", client.Completed(outputs))}
	require.NoError(t, m.Dispatch(ctx, message(t, statusEvent)))
	assert.Equal(t, progress.StyleMessage, bar.Style())
	assert.True(t, bar.Finished())
	assert.False(t, bar.Ticking())
	assert.True(t, strings.HasSuffix(bar.Message(), " -> http://server/api/view?filename=a.png"))
	assert.True(t, strings.HasPrefix(bar.Message(), "(completed)"))

	source.batch = client.PromptBatch{}
	require.NoError(t, m.Dispatch(ctx, message(t, statusEvent)))
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, multi.Len())
}

func TestProgressForUnknownPromptIsDropped(t *testing.T) {
	source := &fakeSource{}
	multi := progress.New(&bytes.Buffer{})
	defer multi.Close()
	m := New(source, multi)

	require.NoError(t, m.Dispatch(context.Background(), message(t,
		`{"type": "progress", "data": {"value": 1, "max": 2, "prompt_id": "nobody"}}`)))
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, source.calls)
}

func TestExecutionStartResetsElapsed(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{batch: client.PromptBatch{entry(1, "u1", client.Running())}}
	multi := progress.New(&bytes.Buffer{})
	defer multi.Close()
	m := New(source, multi)
	require.NoError(t, m.Refresh(ctx))

	bar, _ := m.Bar("u1")
	before := bar.Started()
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, m.Dispatch(ctx, message(t,
		`{"type": "execution_start", "data": {"prompt_id": "u1", "timestamp": 1700000000000}}`)))
	assert.True(t, bar.Started().After(before))
}

func TestOtherMessagesDoNotTouchBars(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{batch: client.PromptBatch{entry(1, "u1", client.Pending())}}
	multi := progress.New(&bytes.Buffer{})
	defer multi.Close()
	m := New(source, multi)
	require.NoError(t, m.Refresh(ctx))
	calls := source.calls

	for _, s := range []string{
		`{"type": "executing", "data": {"node": "3", "prompt_id": "u1"}}`,
		`{"type": "executed", "data": {"node": "9", "output": {}, "prompt_id": "u1"}}`,
		`{"type": "execution_cached", "data": {"nodes": [], "prompt_id": "u1"}}`,
		`{"type": "crystools.monitor", "data": {}}`,
	} {
		require.NoError(t, m.Dispatch(ctx, message(t, s)))
	}
	assert.Equal(t, calls, source.calls)
	bar, _ := m.Bar("u1")
	assert.Equal(t, progress.StyleMessage, bar.Style())
}

func TestPendingAndCancelledAreMessageOnly(t *testing.T) {
	source := &fakeSource{batch: client.PromptBatch{
		entry(1, "u1", client.Pending()),
		entry(2, "u2", client.Cancelled()),
	}}
	multi := progress.New(&bytes.Buffer{})
	defer multi.Close()
	m := New(source, multi)
	require.NoError(t, m.Refresh(context.Background()))

	for _, id := range []string{"u1", "u2"} {
		bar, ok := m.Bar(id)
		require.True(t, ok)
		assert.Equal(t, progress.StyleMessage, bar.Style())
		assert.False(t, bar.Ticking())
		assert.False(t, bar.Finished())
	}
	bar, _ := m.Bar("u2")
	assert.Equal(t, "(cancelled)", strings.TrimSpace(bar.Message()))
}

func TestRunRefreshesOnTimeoutAndStopsAtEnd(t *testing.T) {
	source := &fakeSource{batch: client.PromptBatch{entry(1, "u1", client.Pending())}}
	stream := &fakeStream{steps: []step{
		{outcome: client.OutcomeTimedOut},
		{msg: `{"type": "progress", "data": {"value": 1, "max": 2, "prompt_id": "u1"}}`},
		{outcome: client.OutcomeTimedOut},
		{outcome: client.OutcomeEnded},
	}}
	multi := progress.New(&bytes.Buffer{})
	defer multi.Close()
	m := New(source, multi)

	require.NoError(t, m.Run(context.Background(), stream))
	assert.Equal(t, 2, source.calls)
	assert.Equal(t, 1, m.Len())
}

func TestRunPropagatesStreamError(t *testing.T) {
	boom := &client.TransportError{Op: "WS", URL: "ws://x", Err: errors.New("reset")}
	stream := &fakeStream{steps: []step{{err: boom}}}
	multi := progress.New(&bytes.Buffer{})
	defer multi.Close()
	m := New(&fakeSource{}, multi)

	err := m.Run(context.Background(), stream)
	assert.True(t, client.IsTransport(err))
}

func TestRunPropagatesRefreshError(t *testing.T) {
	source := &fakeSource{err: &client.TransportError{Op: "GET", URL: "http://x/queue", StatusCode: 500}}
	stream := &fakeStream{steps: []step{{msg: statusEvent}}}
	multi := progress.New(&bytes.Buffer{})
	defer multi.Close()
	m := New(source, multi)

	err := m.Run(context.Background(), stream)
	assert.True(t, client.IsTransport(err))
}

func TestStatusRefreshUsesDispatchContext(t *testing.T) {
	source := &fakeSource{batch: client.PromptBatch{entry(1, "u1", client.Pending())}}
	multi := progress.New(&bytes.Buffer{})
	defer multi.Close()
	m := New(source, multi)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Dispatch(ctx, message(t, statusEvent))
	assert.ErrorIs(t, err, context.Canceled)

	type key struct{}
	live := context.WithValue(context.Background(), key{}, "second")
	require.NoError(t, m.Dispatch(live, message(t, statusEvent)))

	require.Len(t, source.ctxs, 2)
	assert.Equal(t, ctx, source.ctxs[0])
	assert.Equal(t, "second", source.ctxs[1].Value(key{}))
	assert.Equal(t, 1, m.Len())
}

func TestCompletedImageURLIsHighlighted(t *testing.T) {
	color.NoColor = false
	defer func() { color.NoColor = true }()

	outputs := client.Outputs{"9": {Images: []client.Image{{Filename: "a.png", Type: "output"}}}}
	source := &fakeSource{batch: client.PromptBatch{entry(1, "u1", client.Completed(outputs))}}
	multi := progress.New(&bytes.Buffer{})
	defer multi.Close()
	m := New(source, multi)
	require.NoError(t, m.Refresh(context.Background()))

	bar, ok := m.Bar("u1")
	require.True(t, ok)
	assert.Contains(t, bar.Message(), " -> \x1b[36;4mhttp://server/api/view?filename=a.png")
}

func TestStatusTextPadding(t *testing.T) {
	assert.Equal(t, "(running)           ", StatusText(client.Running()))
	assert.Len(t, StatusText(client.Completed(nil)), 20)
	assert.Equal(t, "[12]  abc", Prefix(12, "abc"))
}
