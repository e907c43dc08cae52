package feed

import "testing"

func TestEvent_EqualityIsByValueOnly(t *testing.T) {
	a := NewEvent("hello", 1000.0)
	b := NewEvent("hello", 2000.0)
	if !a.Equal(b) {
		t.Error("expected events with the same value to be equal regardless of timestamp")
	}

	c := NewEvent("world", 1000.0)
	if a.Equal(c) {
		t.Error("expected events with different values to be unequal")
	}
}

func TestNewEventNow_SetsAPositiveTimestamp(t *testing.T) {
	ev := NewEventNow("a")
	if ev.At <= 0 {
		t.Errorf("expected a positive epoch timestamp, got %v", ev.At)
	}
}
