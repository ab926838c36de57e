package core

import (
	"testing"
	"time"
)

func TestTimestampString(t *testing.T) {
	ts := NewTimestamp(time.Date(2026, 3, 5, 14, 30, 45, 0, time.UTC))
	got := ts.String()
	want := "2026-03-05 14:30:45"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTimestampBeforeAfter(t *testing.T) {
	early := NewTimestamp(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	late := NewTimestamp(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))

	if !early.Before(late) {
		t.Error("expected early.Before(late) to be true")
	}
	if !late.After(early) {
		t.Error("expected late.After(early) to be true")
	}
	if late.Sub(early) != 24*time.Hour {
		t.Errorf("Sub() = %v, want 24h", late.Sub(early))
	}
}

func TestTimestampJSONRoundTrip(t *testing.T) {
	ts := NewTimestamp(time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC))
	data, err := ts.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var out Timestamp
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !out.Time().Equal(ts.Time()) {
		t.Errorf("round-trip mismatch: got %v, want %v", out.Time(), ts.Time())
	}
}

func TestTimestampIsZero(t *testing.T) {
	var zero Timestamp
	if !zero.IsZero() {
		t.Error("expected zero-value Timestamp to report IsZero")
	}
	if Now().IsZero() {
		t.Error("expected Now() to not report IsZero")
	}
}
