package service

import "time"

// LivenessWindow is how long a device may stay silent before it is shown as
// offline. A device whose last_seen is exactly this old is already offline.
const LivenessWindow = 120 * time.Second

// IsOnline derives transient liveness from the last-seen timestamp. An
// absent (zero) timestamp counts as never seen, i.e. offline.
func IsOnline(lastSeen, now time.Time) bool {
	if lastSeen.IsZero() {
		return false
	}
	return now.Sub(lastSeen) < LivenessWindow
}
