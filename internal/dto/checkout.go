package dto

import "github.com/Oludefiyinfoluwa06/smarti-website/internal/models"

// StartCheckoutRequest is the enrollment form submission that opens a hosted
// checkout.
type StartCheckoutRequest struct {
	FirstName  string         `json:"firstName"`
	LastName   string         `json:"lastName"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone"`
	Quantities map[string]int `json:"quantities"`
	Remember   bool           `json:"remember"`
}

// Draft converts the request into the domain draft.
func (r StartCheckoutRequest) Draft() models.EnrollmentDraft {
	return models.EnrollmentDraft{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Phone:      r.Phone,
		Quantities: r.Quantities,
		Remember:   r.Remember,
	}
}

// CancelCheckoutRequest reports why the client abandoned the attempt.
type CancelCheckoutRequest struct {
	Reason string `json:"reason"`
}

// CheckoutAttemptResponse is the public view of a payment attempt.
type CheckoutAttemptResponse struct {
	Reference        string `json:"reference"`
	State            string `json:"state"`
	AttemptsMade     int    `json:"attempts_made"`
	Message          string `json:"message,omitempty"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
}

// NewCheckoutAttemptResponse maps a domain attempt to its public view.
func NewCheckoutAttemptResponse(attempt *models.PaymentAttempt) CheckoutAttemptResponse {
	return CheckoutAttemptResponse{
		Reference:        attempt.Reference,
		State:            string(attempt.State),
		AttemptsMade:     attempt.AttemptsMade,
		Message:          attempt.Message,
		AuthorizationURL: attempt.AuthorizationURL,
		Amount:           attempt.Amount,
		Currency:         attempt.Currency,
	}
}
