package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountCreated         EventType = "account_created"
	EventAccountLoggedIn        EventType = "account_logged_in"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordChanged        EventType = "password_changed"
	EventProfileUpdated         EventType = "profile_updated"
)

// Event represents an account lifecycle event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID string      `json:"account_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// ProfileUpdatedPayload lists the fields written by a profile update.
type ProfileUpdatedPayload struct {
	Fields []string `json:"fields"`
}
