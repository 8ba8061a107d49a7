package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/richinsley/cmfy/graphapi"
	"github.com/richinsley/cmfy/internal/xjson"
)

// SystemStats fetches host and device information.
func (c *ComfyClient) SystemStats(ctx context.Context) (*SystemStats, error) {
	var stats SystemStats
	if err := c.transport.get(ctx, "system_stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// History fetches every prompt the server still remembers.
func (c *ComfyClient) History(ctx context.Context) (History, error) {
	history := History{}
	if err := c.transport.get(ctx, "history", &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Queue fetches the running and pending prompts.
func (c *ComfyClient) Queue(ctx context.Context) (*Queue, error) {
	var queue Queue
	if err := c.transport.get(ctx, "queue", &queue); err != nil {
		return nil, err
	}
	return &queue, nil
}

// Get fetches an arbitrary route and returns its JSON body undecoded.
func (c *ComfyClient) Get(ctx context.Context, route string) (xjson.RawMessage, error) {
	var raw xjson.RawMessage
	if err := c.transport.get(ctx, route, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *ComfyClient) ClearQueue(ctx context.Context) error {
	_, err := c.transport.post(ctx, "queue", clearRequest{Clear: true}, nil)
	return err
}

func (c *ComfyClient) ClearHistory(ctx context.Context) error {
	_, err := c.transport.post(ctx, "history", clearRequest{Clear: true}, nil)
	return err
}

// DeleteFromHistory forgets the given prompts.
func (c *ComfyClient) DeleteFromHistory(ctx context.Context, uuids ...string) error {
	_, err := c.transport.post(ctx, "history", deleteRequest{Delete: uuids}, nil)
	return err
}

// CancelRunningPrompt interrupts whatever prompt is currently executing.
func (c *ComfyClient) CancelRunningPrompt(ctx context.Context) error {
	_, err := c.transport.post(ctx, "interrupt", nil, nil)
	return err
}

// Submit queues the nodes for execution.
func (c *ComfyClient) Submit(ctx context.Context, nodes graphapi.PromptNodes) (*SubmitResponse, error) {
	req := PromptRequest{ClientID: c.clientid, Prompt: nodes}

	var resp SubmitResponse
	ok, err := c.transport.post(ctx, "prompt", req, &resp)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("submitting prompt: empty response body: %w", ErrInvalidResponse)
	}
	slog.Debug("prompt queued", "prompt_id", resp.PromptID, "number", resp.Number)
	return &resp, nil
}

// DownloadImage fetches the bytes of an output image.
func (c *ComfyClient) DownloadImage(ctx context.Context, image Image) ([]byte, error) {
	u := c.URLForImage(image)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &ParseError{What: "url " + u, Err: err}
	}
	return c.transport.send(req)
}

// Listen opens the event stream for this client id.
func (c *ComfyClient) Listen(ctx context.Context) (*MessageStream, error) {
	return c.dialer.Dial(ctx, c.WebSocketURL())
}

// CollectPromptBatch gathers history and/or queue entries with their
// status, ordered by index then uuid.
func (c *ComfyClient) CollectPromptBatch(ctx context.Context, includeHistory, includeQueue bool) (PromptBatch, error) {
	batch := PromptBatch{}
	if includeHistory {
		history, err := c.History(ctx)
		if err != nil {
			return nil, err
		}
		batch = append(batch, HistoryBatch(history)...)
	}
	if includeQueue {
		queue, err := c.Queue(ctx)
		if err != nil {
			return nil, err
		}
		batch = append(batch, QueueBatch(*queue)...)
	}
	batch.Sort()
	return batch, nil
}

// ClearOptions controls ClearAll.
type ClearOptions struct {
	// Wait polls the queue until it drains before clearing history.
	Wait    bool
	Timeout time.Duration
	Retry   time.Duration
}

func DefaultClearOptions() ClearOptions {
	return ClearOptions{Wait: true, Timeout: 10 * time.Second, Retry: 100 * time.Millisecond}
}

// ClearAll empties the queue, interrupts the running prompt and clears the
// history. With Wait set, the history is only cleared once the queue is
// observed empty; ErrTimeout is returned if that takes longer than Timeout.
func (c *ComfyClient) ClearAll(ctx context.Context, opts ClearOptions) error {
	if err := c.ClearQueue(ctx); err != nil {
		return err
	}
	if err := c.CancelRunningPrompt(ctx); err != nil {
		return err
	}

	if opts.Wait {
		if err := c.waitForEmptyQueue(ctx, opts.Timeout, opts.Retry); err != nil {
			return err
		}
	}
	return c.ClearHistory(ctx)
}

func (c *ComfyClient) waitForEmptyQueue(ctx context.Context, timeout, retry time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		queue, err := c.Queue(ctx)
		if err != nil {
			return err
		}
		if queue.Empty() {
			return nil
		}
		if !time.Now().Add(retry).Before(deadline) {
			return fmt.Errorf("queue still has %d running and %d pending prompts after %s: %w",
				len(queue.Running), len(queue.Pending), timeout, ErrTimeout)
		}

		slog.Debug("waiting for queue to drain", "running", len(queue.Running), "pending", len(queue.Pending))
		select {
		case <-time.After(retry):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
