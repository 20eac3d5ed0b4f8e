package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyStateLatchesPresses(t *testing.T) {
	s := NewKeyState()
	s.Press(Key1)
	assert.False(t, s.Down(Key1))
	s.Latch()
	assert.True(t, s.Down(Key1))
	assert.True(t, s.Held(Key1))

	// a key held across frames is only down once
	s.Press(Key1)
	s.Latch()
	assert.False(t, s.Down(Key1))

	s.Release(Key1)
	assert.False(t, s.Held(Key1))
}

func TestHeadlessRunsScriptedFrames(t *testing.T) {
	h := NewHeadless(0, 0, 3)
	h.Script[1] = []Key{Key1}
	assert.NoError(t, h.Startup("test", 0, 0, 640, 480))

	w, ht := h.Size()
	assert.Equal(t, uint32(640), w)
	assert.Equal(t, uint32(480), ht)

	assert.True(t, h.PumpMessages())
	assert.False(t, h.KeyDown(Key1))
	assert.True(t, h.PumpMessages())
	assert.True(t, h.KeyDown(Key1))
	assert.True(t, h.PumpMessages())
	assert.False(t, h.KeyDown(Key1))
	assert.False(t, h.PumpMessages())
	assert.Equal(t, 3, h.Frame())
}
