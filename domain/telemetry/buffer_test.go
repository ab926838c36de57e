package telemetry

import "testing"

func sample(vib float64) Sample {
	return Sample{VibRMS: vib}
}

func TestSlidingBufferDropsOldestAtCapacity(t *testing.T) {
	b := NewSlidingBuffer(3)
	b.Push(sample(1))
	b.Push(sample(2))
	b.Push(sample(3))
	b.Push(sample(4))

	got := b.Samples()
	if len(got) != 3 {
		t.Fatalf("len(Samples()) = %d, want 3", len(got))
	}
	want := []float64{2, 3, 4}
	for i, s := range got {
		if s.VibRMS != want[i] {
			t.Errorf("Samples()[%d].VibRMS = %v, want %v", i, s.VibRMS, want[i])
		}
	}
}

func TestSlidingBufferCounterResets(t *testing.T) {
	b := NewSlidingBuffer(2)
	b.Push(sample(1))
	b.Push(sample(2))
	if b.Counter() != 2 {
		t.Errorf("Counter() = %d, want 2", b.Counter())
	}
	b.ResetCounter()
	if b.Counter() != 0 {
		t.Errorf("Counter() after reset = %d, want 0", b.Counter())
	}
}

func TestSlidingBufferReady(t *testing.T) {
	b := NewSlidingBuffer(3)
	if b.Ready(1) {
		t.Error("expected empty buffer to not be ready")
	}
	b.Push(sample(1))
	b.Push(sample(2))
	if b.Ready(1) {
		t.Error("expected buffer below capacity to not be ready")
	}
	b.Push(sample(3))
	if !b.Ready(1) {
		t.Error("expected full buffer with batch cadence met to be ready")
	}
	b.ResetCounter()
	if b.Ready(1) {
		t.Error("expected buffer to not be ready again until the batch cadence is met")
	}
}

func TestSlidingBufferLatest(t *testing.T) {
	b := NewSlidingBuffer(2)
	if _, ok := b.Latest(); ok {
		t.Error("expected Latest() to report false on an empty buffer")
	}
	b.Push(sample(1))
	b.Push(sample(2))
	latest, ok := b.Latest()
	if !ok || latest.VibRMS != 2 {
		t.Errorf("Latest() = (%v, %v), want (VibRMS=2, true)", latest, ok)
	}
}
