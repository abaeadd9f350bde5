package core

import (
	"sync"
	"time"
)

const AVG_COUNT uint8 = 30

// Metrics keeps a rolling average of resolve times. The average is
// recomputed once every AVG_COUNT samples.
type Metrics struct {
	mu sync.Mutex

	avgCounter uint8
	times      [AVG_COUNT]time.Duration
	avg        time.Duration
	resolves   int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Update(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.times[m.avgCounter] = elapsed
	if m.avgCounter == AVG_COUNT-1 {
		var sum time.Duration
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum += m.times[i]
		}
		m.avg = sum / time.Duration(AVG_COUNT)
	}
	m.avgCounter++
	m.avgCounter %= AVG_COUNT

	m.resolves++
}

// Average returns the last computed average, or the mean of the samples seen
// so far if fewer than AVG_COUNT have been recorded.
func (m *Metrics) Average() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resolves >= int64(AVG_COUNT) || m.resolves == 0 {
		return m.avg
	}
	var sum time.Duration
	for i := int64(0); i < m.resolves; i++ {
		sum += m.times[i]
	}
	return sum / time.Duration(m.resolves)
}

func (m *Metrics) Resolves() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolves
}
