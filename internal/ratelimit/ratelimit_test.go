package ratelimit

import (
	"testing"
	"time"
)

func TestAllowPerKey(t *testing.T) {
	krl := New(1, 2)
	defer krl.Stop()

	// Each key gets its own bucket with a burst of 2.
	if !krl.Allow("a") || !krl.Allow("a") {
		t.Error("expected burst of 2 for key a")
	}
	if krl.Allow("a") {
		t.Error("expected key a to be exhausted")
	}
	if !krl.Allow("b") {
		t.Error("expected fresh bucket for key b")
	}
}

func TestNewPerInterval(t *testing.T) {
	// 60 requests per minute is one per second.
	krl := NewPerInterval(60, time.Minute, 1)
	defer krl.Stop()

	if krl.limit != 1 {
		t.Errorf("expected limit 1 rps, got %v", krl.limit)
	}
}

func TestStopIdempotent(t *testing.T) {
	krl := New(1, 1)
	krl.Stop()
	krl.Stop()
}
