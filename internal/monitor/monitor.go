// Package monitor keeps one progress bar per live prompt, driven by server
// events and by polling whenever the event stream goes quiet.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/richinsley/cmfy/client"
	"github.com/richinsley/cmfy/internal/progress"
)

const (
	// DefaultTimeout is how long the loop waits for an event before polling.
	DefaultTimeout = 500 * time.Millisecond
	// TickInterval is the redraw period of running bars.
	TickInterval = 100 * time.Millisecond

	statusWidth = 20
)

var urlColor = color.New(color.FgCyan, color.Underline)

// BatchSource lists prompts with their status and resolves image urls.
type BatchSource interface {
	CollectPromptBatch(ctx context.Context, includeHistory, includeQueue bool) (client.PromptBatch, error)
	URLForImage(image client.Image) string
}

// EventStream yields server events with a bounded wait.
type EventStream interface {
	NextMessage(ctx context.Context, timeout time.Duration) (*client.Message, client.Outcome, error)
}

// Monitor owns the bar registry. It is driven by a single goroutine.
type Monitor struct {
	source   BatchSource
	multi    *progress.MultiProgress
	bars     map[string]*progress.Bar
	timeout  time.Duration
}

type Option func(*Monitor)

// WithTimeout sets how long to wait for an event before refreshing.
func WithTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		m.timeout = d
	}
}

func New(source BatchSource, multi *progress.MultiProgress, opts ...Option) *Monitor {
	m := &Monitor{
		source:  source,
		multi:   multi,
		bars:    map[string]*progress.Bar{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run processes events until the stream ends, an error occurs on either
// source, or ctx is cancelled.
func (m *Monitor) Run(ctx context.Context, stream EventStream) error {
	for {
		msg, outcome, err := stream.NextMessage(ctx, m.timeout)
		if err != nil {
			return err
		}

		switch outcome {
		case client.OutcomeReceived:
			if err := m.Dispatch(ctx, msg); err != nil {
				return err
			}
		case client.OutcomeEnded:
			slog.Debug("event stream ended")
			return nil
		case client.OutcomeTimedOut:
			if err := m.Refresh(ctx); err != nil {
				return err
			}
		}
	}
}

// Dispatch applies one event to the registry. Status events trigger a
// Refresh under ctx.
func (m *Monitor) Dispatch(ctx context.Context, msg *client.Message) error {
	return m.handlers(ctx).Dispatch(msg)
}

// handlers binds the registry mutations to ctx for a single dispatch.
func (m *Monitor) handlers(ctx context.Context) *client.MessageHandlers {
	h := client.DefaultMessageHandlers()
	h.OnStatus = func(*client.StatusData) error {
		return m.Refresh(ctx)
	}
	h.OnProgress = m.onProgress
	h.OnExecutionStart = m.onExecutionStart
	return h
}

func (m *Monitor) onProgress(d *client.ProgressData) error {
	bar, ok := m.bars[d.PromptID]
	if !ok {
		slog.Debug("progress for unknown prompt", "prompt_id", d.PromptID)
		return nil
	}
	bar.SetLength(d.Max)
	bar.SetPosition(d.Value)
	bar.SetStyle(progress.StyleSteps)
	return nil
}

func (m *Monitor) onExecutionStart(d *client.ExecutionStepData) error {
	if bar, ok := m.bars[d.PromptID]; ok {
		bar.ResetElapsed()
	}
	return nil
}

// Refresh polls history and queue, drops bars of prompts that are gone,
// creates bars for new ones and projects each status onto its bar.
func (m *Monitor) Refresh(ctx context.Context) error {
	batch, err := m.source.CollectPromptBatch(ctx, true, true)
	if err != nil {
		return err
	}

	live := batch.UUIDs()
	for id, bar := range m.bars {
		if _, ok := live[id]; !ok {
			slog.Debug("prompt gone", "prompt_id", id)
			bar.FinishAndClear()
			delete(m.bars, id)
		}
	}

	for _, entry := range batch {
		bar, ok := m.bars[entry.Prompt.UUID]
		if !ok {
			bar = m.multi.Add(0)
			bar.SetPrefix(Prefix(entry.Prompt.Index, entry.Prompt.UUID))
			m.bars[entry.Prompt.UUID] = bar
		}
		m.project(bar, entry.Status)
	}
	return nil
}

func (m *Monitor) project(bar *progress.Bar, status client.Status) {
	message := StatusText(status)

	switch status.Kind {
	case client.StatusCompleted:
		outputs, _ := status.Outputs()
		if img, ok := outputs.FirstImage(); ok {
			message += " -> " + urlColor.Sprint(m.source.URLForImage(img))
		}
		bar.DisableSteadyTick()
		bar.SetStyle(progress.StyleMessage)
		bar.SetMessage(message)
		bar.Finish()
	case client.StatusRunning:
		style := progress.StyleTiming
		if bar.Length() > 0 {
			style = progress.StyleSteps
		}
		bar.SetStyle(style)
		bar.SetMessage(message)
		bar.EnableSteadyTick(TickInterval)
	default:
		bar.DisableSteadyTick()
		bar.SetStyle(progress.StyleMessage)
		bar.SetMessage(message)
	}
}

// Len returns the number of tracked prompts.
func (m *Monitor) Len() int {
	return len(m.bars)
}

// Bar returns the bar tracking uuid.
func (m *Monitor) Bar(uuid string) (*progress.Bar, bool) {
	b, ok := m.bars[uuid]
	return b, ok
}

// Prefix is the label of a prompt's bar, e.g. "[3]  4f1c...".
func Prefix(index uint64, uuid string) string {
	return fmt.Sprintf("[%s]  %s", color.New(color.FgHiBlue).Sprint(index), uuid)
}

// StatusText renders "(status)" in the status color, padded to a fixed
// visible width.
func StatusText(status client.Status) string {
	visible := len(status.String()) + 2
	text := "(" + status.Colored() + ")"
	if pad := statusWidth - visible; pad > 0 {
		text += strings.Repeat(" ", pad)
	}
	return text
}
