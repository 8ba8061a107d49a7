package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarState(t *testing.T) {
	m := New(&bytes.Buffer{})
	defer m.Close()

	b := m.Add(0)
	b.SetPrefix("[1]  u1")
	b.SetMessage("(running)")
	assert.Equal(t, StyleMessage, b.Style())
	assert.Equal(t, "[1]  u1 (running)", b.Line())

	b.SetStyle(StyleSteps)
	b.SetLength(10)
	b.SetPosition(3)
	assert.Equal(t, int64(10), b.Length())
	assert.Equal(t, int64(3), b.Position())
	assert.Equal(t, StyleSteps, b.Style())
	assert.Contains(t, b.Line(), "[1]  u1 (running)")

	b.Finish()
	assert.True(t, b.Finished())
	assert.False(t, b.Ticking())
	assert.Equal(t, int64(10), b.Position())
	assert.Equal(t, StyleSteps, b.Style())
	assert.Equal(t, "[1]  u1 (running)", b.Line())
}

func TestStepsWithoutLengthRendersTiming(t *testing.T) {
	m := New(&bytes.Buffer{})
	defer m.Close()

	b := m.Add(0)
	b.SetStyle(StyleSteps)
	assert.Equal(t, StyleTiming, b.effectiveStyle())
	b.SetLength(5)
	assert.Equal(t, StyleSteps, b.effectiveStyle())
}

func TestBarGoingBackwardsKeepsRendering(t *testing.T) {
	m := New(&bytes.Buffer{})
	defer m.Close()

	b := m.Add(4)
	b.SetStyle(StyleSteps)
	b.SetPosition(4)
	b.SetPosition(1)
	assert.Equal(t, int64(1), b.Position())
	assert.NotEmpty(t, b.Line())
}

func TestResetElapsed(t *testing.T) {
	m := New(&bytes.Buffer{})
	defer m.Close()

	b := m.Add(0)
	before := b.Started()
	time.Sleep(5 * time.Millisecond)
	b.ResetElapsed()
	assert.True(t, b.Started().After(before))
}

func TestFinishAndClearRemovesBar(t *testing.T) {
	m := New(&bytes.Buffer{})
	defer m.Close()

	a := m.Add(0)
	a.SetPrefix("a")
	b := m.Add(0)
	b.SetPrefix("b")
	require.Equal(t, 2, m.Len())

	a.FinishAndClear()
	assert.Equal(t, 1, m.Len())
	assert.True(t, a.Finished())
	assert.Equal(t, []string{"b"}, m.Lines())
}

func TestHiddenWhenNotATerminal(t *testing.T) {
	var out bytes.Buffer
	m := New(&out)
	b := m.Add(0)
	b.SetPrefix("hidden")
	m.Close()
	assert.Empty(t, out.String())
}

func TestVisibleDrawRewritesBlock(t *testing.T) {
	var out bytes.Buffer
	m := New(&out)
	m.visible = true

	a := m.Add(0)
	a.SetPrefix("first")
	b := m.Add(0)
	b.SetPrefix("second")
	m.Close()

	s := out.String()
	assert.Contains(t, s, "first\n")
	assert.Contains(t, s, "second\n")
	// the second frame moves up over the single line drawn before it
	assert.Contains(t, s, "\x1b[1A")
	assert.True(t, strings.HasSuffix(s, "second\n"))
}

func TestSteadyTickStopsOnClose(t *testing.T) {
	var out bytes.Buffer
	m := New(&out)
	m.visible = true

	b := m.Add(0)
	b.SetStyle(StyleTiming)
	b.EnableSteadyTick(time.Millisecond)
	assert.True(t, b.Ticking())
	time.Sleep(10 * time.Millisecond)
	m.Close()

	b.DisableSteadyTick()
	assert.False(t, b.Ticking())
}
