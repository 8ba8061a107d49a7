package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/richinsley/cmfy/internal/xjson"
)

// Outcome tells what a bounded wait on a MessageStream produced.
type Outcome int

const (
	// OutcomeReceived means a message was decoded.
	OutcomeReceived Outcome = iota
	// OutcomeEnded means the server closed the stream.
	OutcomeEnded
	// OutcomeTimedOut means nothing arrived within the timeout.
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReceived:
		return "received"
	case OutcomeEnded:
		return "ended"
	case OutcomeTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

func websocketDefaultDialer() *websocket.Dialer {
	d := *websocket.DefaultDialer
	return &d
}

// WebSocketDialer opens websocket connections, retrying failed handshakes
// with exponential backoff.
type WebSocketDialer struct {
	Dialer    websocket.Dialer
	MaxRetry  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (d *WebSocketDialer) Dial(ctx context.Context, url string) (*MessageStream, error) {
	for attempt := 0; ; attempt++ {
		conn, resp, err := d.Dialer.DialContext(ctx, url, nil)
		if err == nil {
			return newMessageStream(conn, url), nil
		}

		terr := &TransportError{Op: "WS", URL: url, Err: err}
		if resp != nil {
			terr.StatusCode = resp.StatusCode
			terr.Message = err.Error()
		}
		if attempt >= d.MaxRetry {
			return nil, terr
		}

		delay := d.reconnectDelay(attempt)
		slog.Warn("websocket connection attempt failed", "url", url, "error", err, "retry_in", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// reconnectDelay is BaseDelay * 2^attempt, capped at MaxDelay.
func (d *WebSocketDialer) reconnectDelay(attempt int) time.Duration {
	delay := d.BaseDelay * time.Duration(math.Pow(2, float64(attempt)))
	if d.MaxDelay > 0 && delay > d.MaxDelay {
		delay = d.MaxDelay
	}
	return delay
}

type frame struct {
	data []byte
	err  error
}

// MessageStream is an open websocket session delivering one JSON document
// per text frame. A single reader goroutine owns the connection so waits
// can be abandoned on timeout without tearing the connection down.
type MessageStream struct {
	conn      *websocket.Conn
	frames    chan frame
	done      chan struct{}
	closeOnce sync.Once
	url       string
}

func newMessageStream(conn *websocket.Conn, url string) *MessageStream {
	s := &MessageStream{
		conn:   conn,
		frames: make(chan frame),
		done:   make(chan struct{}),
		url:    url,
	}
	go s.readLoop()
	return s
}

func (s *MessageStream) readLoop() {
	defer close(s.frames)
	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if endOfStream(err) {
				return
			}
			select {
			case s.frames <- frame{err: err}:
			case <-s.done:
			}
			return
		}
		if kind != websocket.TextMessage {
			slog.Debug("skipping non-text websocket frame", "kind", kind)
			continue
		}
		select {
		case s.frames <- frame{data: data}:
		case <-s.done:
			return
		}
	}
}

func endOfStream(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, io.EOF)
}

// NextJSON blocks until the next frame arrives and decodes it into v. It
// returns io.EOF once the server has closed the stream.
func (s *MessageStream) NextJSON(ctx context.Context, v interface{}) error {
	select {
	case f, ok := <-s.frames:
		return s.decode(f, ok, v)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextJSONTimeout waits at most timeout for the next frame. A non-positive
// timeout reports OutcomeTimedOut without waiting.
func (s *MessageStream) NextJSONTimeout(ctx context.Context, v interface{}, timeout time.Duration) (Outcome, error) {
	if timeout <= 0 {
		return OutcomeTimedOut, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case f, ok := <-s.frames:
		err := s.decode(f, ok, v)
		if errors.Is(err, io.EOF) {
			return OutcomeEnded, nil
		}
		if err != nil {
			return OutcomeReceived, err
		}
		return OutcomeReceived, nil
	case <-timer.C:
		return OutcomeTimedOut, nil
	case <-ctx.Done():
		return OutcomeTimedOut, ctx.Err()
	}
}

// NextMessage is NextJSONTimeout specialised to websocket events.
func (s *MessageStream) NextMessage(ctx context.Context, timeout time.Duration) (*Message, Outcome, error) {
	var m Message
	outcome, err := s.NextJSONTimeout(ctx, &m, timeout)
	if err != nil || outcome != OutcomeReceived {
		return nil, outcome, err
	}
	return &m, outcome, nil
}

func (s *MessageStream) decode(f frame, ok bool, v interface{}) error {
	if !ok {
		return io.EOF
	}
	if f.err != nil {
		return &TransportError{Op: "WS", URL: s.url, Err: f.err}
	}
	if err := xjson.Unmarshal(f.data, v); err != nil {
		return &ParseError{What: "websocket message", Err: err}
	}
	return nil
}

// Close sends a close frame and releases the connection. It is safe to call
// more than once.
func (s *MessageStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = s.conn.Close()
	})
	return err
}
