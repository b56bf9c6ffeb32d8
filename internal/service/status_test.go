package service

import (
	"testing"
	"time"
)

func TestIsOnline_WithinWindow(t *testing.T) {
	now := time.Now()

	if !IsOnline(now, now) {
		t.Fatalf("just-seen device must be online")
	}
	if !IsOnline(now.Add(-LivenessWindow+time.Millisecond), now) {
		t.Fatalf("device seen inside the window must be online")
	}
}

func TestIsOnline_BoundaryIsOffline(t *testing.T) {
	now := time.Now()

	// Exactly the window old is already offline.
	if IsOnline(now.Add(-LivenessWindow), now) {
		t.Fatalf("device exactly %v old must be offline", LivenessWindow)
	}
	if IsOnline(now.Add(-LivenessWindow-time.Second), now) {
		t.Fatalf("device older than the window must be offline")
	}
}

func TestIsOnline_ZeroTimestampIsOffline(t *testing.T) {
	if IsOnline(time.Time{}, time.Now()) {
		t.Fatalf("never-seen device must be offline")
	}
}
