package models

import "time"

// User is the backend profile from GET /users/me.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

// CommandEvent is one entry in the local command audit trail.
type CommandEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"` // DISPATCH | CONFIRM | ROLLBACK | SETTINGS | SETTINGS_FAILED
	DeviceID    string    `json:"device_id"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
