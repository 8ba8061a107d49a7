package client

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenDeliversMessagesThenEnds(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Frames(
		`{"type": "status", "data": {"status": {"exec_info": {"queue_remaining": 1}}, "sid": "abc"}}`,
		`{"type": "progress", "data": {"value": 3, "max": 10, "prompt_id": "u1", "node": "3"}}`,
		`{"type": "crystools.monitor", "data": {"cpu_utilization": 12}}`,
	)

	ctx := context.Background()
	stream, err := c.Listen(ctx)
	require.NoError(t, err)
	defer stream.Close()

	m, outcome, err := stream.NextMessage(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, OutcomeReceived, outcome)
	status, ok := m.Data.(*StatusData)
	require.True(t, ok)
	assert.Equal(t, 1, status.Status.ExecInfo.QueueRemaining)

	m, outcome, err = stream.NextMessage(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, OutcomeReceived, outcome)
	progress, ok := m.Data.(*ProgressData)
	require.True(t, ok)
	assert.Equal(t, "u1", progress.PromptID)
	assert.Equal(t, int64(3), progress.Value)
	assert.Equal(t, int64(10), progress.Max)

	m, outcome, err = stream.NextMessage(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, OutcomeReceived, outcome)
	assert.False(t, m.Known())
	assert.Equal(t, MessageType("crystools.monitor"), m.Type)

	_, outcome, err = stream.NextMessage(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEnded, outcome)

	assert.Equal(t, []string{testClientID}, srv.ClientIDs())
}

func TestNextJSONReturnsEOFAtEnd(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Frames(`{"type": "status", "data": {"status": {"exec_info": {"queue_remaining": 0}}}}`)

	ctx := context.Background()
	stream, err := c.Listen(ctx)
	require.NoError(t, err)
	defer stream.Close()

	var v map[string]interface{}
	require.NoError(t, stream.NextJSON(ctx, &v))
	assert.Equal(t, "status", v["type"])

	err = stream.NextJSON(ctx, &v)
	assert.True(t, errors.Is(err, io.EOF))
}

func TestNextJSONTimeoutZeroReturnsImmediately(t *testing.T) {
	c, srv := newTestClient(t)
	srv.HoldOpen()

	ctx := context.Background()
	stream, err := c.Listen(ctx)
	require.NoError(t, err)
	defer stream.Close()

	var v interface{}
	start := time.Now()
	outcome, err := stream.NextJSONTimeout(ctx, &v, 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, outcome)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestNextJSONTimeoutExpires(t *testing.T) {
	c, srv := newTestClient(t)
	srv.HoldOpen()

	ctx := context.Background()
	stream, err := c.Listen(ctx)
	require.NoError(t, err)
	defer stream.Close()

	var v interface{}
	outcome, err := stream.NextJSONTimeout(ctx, &v, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, outcome)
}

func TestNextJSONHonoursContext(t *testing.T) {
	c, srv := newTestClient(t)
	srv.HoldOpen()

	stream, err := c.Listen(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var v interface{}
	err = stream.NextJSON(ctx, &v)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMalformedFrameIsParseError(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Frames(`{"type": "progress", "data": {"value": "three"}}`)

	ctx := context.Background()
	stream, err := c.Listen(ctx)
	require.NoError(t, err)
	defer stream.Close()

	_, _, err = stream.NextMessage(ctx, time.Second)
	assert.True(t, IsParse(err))
}

func TestListenFailsWhenServerIsDown(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Close()

	_, err := c.Listen(context.Background())
	assert.True(t, IsTransport(err))
}

func TestReconnectDelayBacksOff(t *testing.T) {
	d := &WebSocketDialer{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, d.reconnectDelay(0))
	assert.Equal(t, 2*time.Second, d.reconnectDelay(1))
	assert.Equal(t, 4*time.Second, d.reconnectDelay(2))
	assert.Equal(t, 5*time.Second, d.reconnectDelay(3))
}

func TestCloseIsIdempotent(t *testing.T) {
	c, srv := newTestClient(t)
	srv.HoldOpen()

	stream, err := c.Listen(context.Background())
	require.NoError(t, err)
	assert.NoError(t, stream.Close())
	assert.NoError(t, stream.Close())
}
