package core

const frameAverageCount = 30

// FrameMetrics keeps a rolling frame-time average and a frames-per-second counter.
type FrameMetrics struct {
	counter     int
	msTimes     [frameAverageCount]float64
	msAverage   float64
	frames      int
	accumulated float64
	fps         float64
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{}
}

// Update feeds the duration of the last frame in seconds.
func (m *FrameMetrics) Update(frameSeconds float64) {
	frameMS := frameSeconds * 1000.0
	m.msTimes[m.counter] = frameMS
	if m.counter == frameAverageCount-1 {
		sum := 0.0
		for _, t := range m.msTimes {
			sum += t
		}
		m.msAverage = sum / frameAverageCount
	}
	m.counter = (m.counter + 1) % frameAverageCount

	m.accumulated += frameMS
	if m.accumulated > 1000 {
		m.fps = float64(m.frames)
		m.accumulated -= 1000
		m.frames = 0
	}
	m.frames++
}

func (m *FrameMetrics) FPS() float64 {
	return m.fps
}

// FrameTime is the average frame time in milliseconds over the last 30 frames.
func (m *FrameMetrics) FrameTime() float64 {
	return m.msAverage
}
