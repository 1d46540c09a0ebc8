package models

// NewsletterSubscription reflects the upstream subscription state. The
// upstream replies "pending" when double opt-in confirmation is outstanding.
type NewsletterSubscription struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

const (
	NewsletterStatusPending    = "pending"
	NewsletterStatusSubscribed = "subscribed"
)
