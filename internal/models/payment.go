package models

import "time"

// AttemptState enumerates the payment confirmation lifecycle.
type AttemptState string

const (
	AttemptStateIdle             AttemptState = "idle"
	AttemptStateInitiating       AttemptState = "initiating"
	AttemptStateAwaitingCheckout AttemptState = "awaiting_checkout"
	AttemptStatePolling          AttemptState = "polling"
	AttemptStateCompleted        AttemptState = "completed"
	AttemptStateTimedOut         AttemptState = "timed_out"
	AttemptStateCancelled        AttemptState = "cancelled"
	AttemptStateFailed           AttemptState = "failed"
)

// Terminal reports whether the state ends the attempt.
func (s AttemptState) Terminal() bool {
	switch s {
	case AttemptStateCompleted, AttemptStateTimedOut, AttemptStateCancelled, AttemptStateFailed:
		return true
	}
	return false
}

// PaymentAttempt is the transient record of one payment confirmation run.
// Exactly one attempt may be active per checkout session.
type PaymentAttempt struct {
	Reference        string       `json:"reference" db:"reference"`
	SessionID        string       `json:"session_id" db:"session_id"`
	Email            string       `json:"email" db:"email"`
	Amount           int64        `json:"amount" db:"amount"`
	Currency         string       `json:"currency" db:"currency"`
	State            AttemptState `json:"state" db:"state"`
	AttemptsMade     int          `json:"attempts_made" db:"attempts_made"`
	Message          string       `json:"message,omitempty" db:"message"`
	AuthorizationURL string       `json:"authorization_url,omitempty" db:"-"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// CancelReason is supplied by the rendering layer when a checkout attempt is
// abandoned before confirmation.
type CancelReason string

const (
	CancelReasonUser          CancelReason = "user_cancelled"
	CancelReasonWindowClosed  CancelReason = "window_closed"
	CancelReasonWindowBlocked CancelReason = "window_blocked"
)
