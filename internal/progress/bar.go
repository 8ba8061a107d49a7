package progress

import (
	"bytes"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
)

type Style int

const (
	// StyleMessage shows the prefix and message only.
	StyleMessage Style = iota
	// StyleTiming adds a spinner and the elapsed time.
	StyleTiming
	// StyleSteps adds a step counter with elapsed time and ETA. It needs a
	// known length and otherwise renders as StyleTiming.
	StyleSteps
)

func (s Style) String() string {
	switch s {
	case StyleMessage:
		return "message"
	case StyleTiming:
		return "timing"
	case StyleSteps:
		return "steps"
	default:
		return "unknown"
	}
}

// Bar is one line of a MultiProgress. All methods are safe for concurrent
// use; they share the container's lock.
type Bar struct {
	multi *MultiProgress

	prefix   string
	message  string
	length   int64
	position int64
	style    Style
	ticking  bool
	finished bool
	started  time.Time

	renderer      *progressbar.ProgressBar
	rendererStyle Style
	rendererMax   int64
	rendererPos   int64
	capture       lineCapture
	line          string
}

func (b *Bar) update(fn func()) {
	b.multi.mu.Lock()
	defer b.multi.mu.Unlock()
	fn()
	b.renderLocked()
	b.multi.drawLocked()
}

func (b *Bar) SetPrefix(prefix string) {
	b.update(func() { b.prefix = prefix })
}

func (b *Bar) SetMessage(message string) {
	b.update(func() { b.message = message })
}

func (b *Bar) SetLength(length int64) {
	b.update(func() { b.length = length })
}

func (b *Bar) SetPosition(position int64) {
	b.update(func() { b.position = position })
}

func (b *Bar) SetStyle(style Style) {
	b.update(func() { b.style = style })
}

// EnableSteadyTick keeps the bar redrawing every interval so spinners and
// timers move without updates.
func (b *Bar) EnableSteadyTick(interval time.Duration) {
	b.update(func() {
		b.ticking = true
		b.multi.startTicker(interval)
	})
}

func (b *Bar) DisableSteadyTick() {
	b.update(func() { b.ticking = false })
}

// ResetElapsed restarts the elapsed time and ETA estimate.
func (b *Bar) ResetElapsed() {
	b.update(func() {
		b.started = time.Now()
		if b.renderer != nil {
			b.renderer.Reset()
		}
	})
}

// Finish stops ticking and freezes the bar on its message. Calling it again
// has no effect.
func (b *Bar) Finish() {
	b.update(func() {
		if b.length > 0 {
			b.position = b.length
		}
		b.ticking = false
		b.finished = true
	})
}

// FinishAndClear finishes the bar and removes it from the display.
func (b *Bar) FinishAndClear() {
	b.multi.mu.Lock()
	defer b.multi.mu.Unlock()
	b.ticking = false
	b.finished = true
	b.multi.removeLocked(b)
	b.multi.drawLocked()
}

func (b *Bar) read(fn func()) {
	b.multi.mu.Lock()
	defer b.multi.mu.Unlock()
	fn()
}

func (b *Bar) Prefix() (s string) { b.read(func() { s = b.prefix }); return }
func (b *Bar) Message() (s string) { b.read(func() { s = b.message }); return }
func (b *Bar) Length() (n int64) { b.read(func() { n = b.length }); return }
func (b *Bar) Position() (n int64) { b.read(func() { n = b.position }); return }
func (b *Bar) Style() (s Style) { b.read(func() { s = b.style }); return }
func (b *Bar) Ticking() (t bool) { b.read(func() { t = b.ticking }); return }
func (b *Bar) Finished() (f bool) { b.read(func() { f = b.finished }); return }
func (b *Bar) Line() (s string) { b.read(func() { s = b.line }); return }
func (b *Bar) Started() (t time.Time) { b.read(func() { t = b.started }); return }

// effectiveStyle degrades StyleSteps to StyleTiming while the length is
// unknown.
func (b *Bar) effectiveStyle() Style {
	if b.finished {
		return StyleMessage
	}
	if b.style == StyleSteps && b.length <= 0 {
		return StyleTiming
	}
	return b.style
}

func (b *Bar) description() string {
	return strings.TrimSpace(b.prefix + " " + b.message)
}

// renderLocked recomputes the bar's text line. The caller holds the
// container lock.
func (b *Bar) renderLocked() {
	desc := b.description()
	style := b.effectiveStyle()

	if style == StyleMessage {
		b.renderer = nil
		b.line = desc
		return
	}

	// a bar that went backwards starts over; progressbar freezes once full
	if b.renderer == nil || b.rendererStyle != style || b.position < b.rendererPos {
		b.renderer = b.newRenderer(style, desc)
		b.rendererStyle = style
		b.rendererMax = b.length
		b.rendererPos = 0
	}

	b.renderer.Describe(desc)
	if style == StyleSteps {
		if b.rendererMax != b.length {
			b.renderer.ChangeMax64(b.length)
			b.rendererMax = b.length
		}
		_ = b.renderer.Set64(b.position)
		b.rendererPos = b.position
	}
	_ = b.renderer.RenderBlank()

	b.line = b.capture.String()
	if b.line == "" {
		b.line = desc
	}
}

func (b *Bar) newRenderer(style Style, desc string) *progressbar.ProgressBar {
	b.capture.Reset()
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(&b.capture),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetRenderBlankState(true),
	}
	if style == StyleSteps {
		opts = append(opts,
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
		)
		return progressbar.NewOptions64(b.length, opts...)
	}
	opts = append(opts, progressbar.OptionSpinnerType(14))
	return progressbar.NewOptions64(-1, opts...)
}

// lineCapture keeps the last line written to it. Carriage returns and
// newlines start a new line.
type lineCapture struct {
	cur  bytes.Buffer
	last string
}

func (c *lineCapture) Write(p []byte) (int, error) {
	for _, ch := range p {
		switch ch {
		case '\r', '\n':
			c.commit()
		default:
			c.cur.WriteByte(ch)
		}
	}
	c.commit()
	return len(p), nil
}

func (c *lineCapture) commit() {
	if line := strings.TrimRight(c.cur.String(), " "); line != "" {
		c.last = line
	}
	c.cur.Reset()
}

func (c *lineCapture) String() string {
	return c.last
}

func (c *lineCapture) Reset() {
	c.cur.Reset()
	c.last = ""
}
