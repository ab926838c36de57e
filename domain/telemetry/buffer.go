package telemetry

import "github.com/rotem-industrial/pump-pdm/domain/core"

// SlidingBuffer is a fixed-capacity FIFO of samples: the oldest sample is
// dropped on insert once capacity is reached. It also tracks the message
// count since the last pipeline run, per the batch-cadence trigger in C7.
type SlidingBuffer struct {
	capacity int
	samples  []Sample
	counter  int
}

// NewSlidingBuffer constructs an empty buffer with the given capacity
// (FEATURE_WINDOW_SIZE).
func NewSlidingBuffer(capacity int) *SlidingBuffer {
	return &SlidingBuffer{
		capacity: capacity,
		samples:  make([]Sample, 0, capacity),
	}
}

// Push appends a sample, dropping the oldest if the buffer is full, and
// increments the message counter.
func (b *SlidingBuffer) Push(s Sample) {
	if len(b.samples) >= b.capacity {
		copy(b.samples, b.samples[1:])
		b.samples = b.samples[:len(b.samples)-1]
	}
	b.samples = append(b.samples, s)
	b.counter++
}

// Samples returns the current window, oldest first.
func (b *SlidingBuffer) Samples() []Sample {
	return b.samples
}

// Len reports the number of samples currently held.
func (b *SlidingBuffer) Len() int {
	return len(b.samples)
}

// Counter reports the number of messages received since the last reset.
func (b *SlidingBuffer) Counter() int {
	return b.counter
}

// ResetCounter zeroes the message counter; called once the pipeline runs.
func (b *SlidingBuffer) ResetCounter() {
	b.counter = 0
}

// Ready reports whether the buffer has enough samples and has seen enough
// new messages to trigger a pipeline run (window full and batch cadence met).
func (b *SlidingBuffer) Ready(batchSize int) bool {
	return len(b.samples) >= b.capacity && b.counter >= batchSize
}

// Latest returns the most recently pushed sample and true, or the zero
// value and false if the buffer is empty.
func (b *SlidingBuffer) Latest() (Sample, bool) {
	if len(b.samples) == 0 {
		return Sample{}, false
	}
	return b.samples[len(b.samples)-1], true
}

// LatestAt is a convenience accessor used when constructing audit rows.
func (b *SlidingBuffer) LatestAt() core.Timestamp {
	if s, ok := b.Latest(); ok {
		return s.At
	}
	return core.Now()
}
