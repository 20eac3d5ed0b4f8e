package core

import "time"

// Clock measures frame deltas and total run time.
type Clock struct {
	start   time.Time
	last    time.Time
	delta   time.Duration
	running bool
}

func NewClock() *Clock {
	return &Clock{}
}

// Start resets the clock. Total time counts from here.
func (c *Clock) Start() {
	now := time.Now()
	c.start = now
	c.last = now
	c.delta = 0
	c.running = true
}

// Tick records the time since the previous tick. Has no effect on a stopped clock.
func (c *Clock) Tick() {
	if !c.running {
		return
	}
	now := time.Now()
	c.delta = now.Sub(c.last)
	c.last = now
}

func (c *Clock) Stop() {
	c.running = false
}

// DeltaTime is the last frame duration in seconds.
func (c *Clock) DeltaTime() float64 {
	return c.delta.Seconds()
}

// TotalTime is the time since Start in seconds.
func (c *Clock) TotalTime() float64 {
	if c.start.IsZero() {
		return 0
	}
	return c.last.Sub(c.start).Seconds()
}
