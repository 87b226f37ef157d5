// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types published on the auth.events queue.
const (
	EventUserRegistered = "user.registered"
	EventLoginSuccess   = "login.success"
	EventSocialLogin    = "social.login"
	EventSocialLinked   = "social.linked"
	EventUserDisabled   = "user.disabled"
)

// AuthEvent is published whenever an account is created, logs in or
// changes its linking state. It carries enough information for
// downstream consumers to audit or alert without querying the primary
// database.
type AuthEvent struct {
	Type       string `json:"type"`
	Email      string `json:"email"`
	Provider   string `json:"provider,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
