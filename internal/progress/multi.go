// Package progress renders a stack of progress bars that redraw in place.
package progress

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// MultiProgress owns a set of bars and draws them as a block of lines.
// Drawing only happens on terminals; elsewhere bars keep their state but
// stay hidden.
type MultiProgress struct {
	mu      sync.Mutex
	out     io.Writer
	visible bool
	bars    []*Bar
	drawn   int

	tickerOnce sync.Once
	stop       chan struct{}
	closeOnce  sync.Once
}

func New(out io.Writer) *MultiProgress {
	return &MultiProgress{
		out:     out,
		visible: isTerminal(out),
		stop:    make(chan struct{}),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Add appends a new bar with the given length. A zero length means the
// total is not known yet.
func (m *MultiProgress) Add(length int64) *Bar {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := &Bar{
		multi:   m,
		length:  length,
		style:   StyleMessage,
		started: time.Now(),
	}
	m.bars = append(m.bars, b)
	b.renderLocked()
	m.drawLocked()
	return b
}

func (m *MultiProgress) removeLocked(b *Bar) {
	for i, other := range m.bars {
		if other == b {
			m.bars = append(m.bars[:i], m.bars[i+1:]...)
			return
		}
	}
}

// Len returns the number of bars on display.
func (m *MultiProgress) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bars)
}

// Lines returns the current text of every bar, top to bottom.
func (m *MultiProgress) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, len(m.bars))
	for i, b := range m.bars {
		lines[i] = b.line
	}
	return lines
}

// Close stops the steady tick and leaves the last frame on screen.
func (m *MultiProgress) Close() {
	m.closeOnce.Do(func() {
		close(m.stop)
	})
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drawLocked()
}

// startTicker redraws ticking bars every interval until Close. Only the
// first call has an effect.
func (m *MultiProgress) startTicker(interval time.Duration) {
	if !m.visible || interval <= 0 {
		return
	}
	m.tickerOnce.Do(func() {
		go m.tickLoop(interval)
	})
}

func (m *MultiProgress) tickLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			m.mu.Lock()
			for _, b := range m.bars {
				if b.ticking {
					b.renderLocked()
				}
			}
			m.drawLocked()
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

// drawLocked moves the cursor back over the previous frame and rewrites it.
func (m *MultiProgress) drawLocked() {
	if !m.visible {
		return
	}

	var buf bytes.Buffer
	if m.drawn > 0 {
		fmt.Fprintf(&buf, "\x1b[%dA", m.drawn)
	}
	for _, b := range m.bars {
		buf.WriteString("\r\x1b[2K")
		buf.WriteString(b.line)
		buf.WriteByte('\n')
	}
	if len(m.bars) < m.drawn {
		buf.WriteString("\x1b[J")
	}
	m.drawn = len(m.bars)
	_, _ = m.out.Write(buf.Bytes())
}
