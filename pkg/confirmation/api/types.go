package api

// ConfirmRequest represents the request to confirm an account or email change
type ConfirmRequest struct {
	Token string `json:"token"`
}

// ConfirmResponse represents the response after a successful confirmation
type ConfirmResponse struct {
	Message     string `json:"message"`
	Email       string `json:"email"`
	ConfirmedAt string `json:"confirmed_at"`
}

// RequestConfirmationResponse represents the response after requesting a confirmation email
type RequestConfirmationResponse struct {
	Message string `json:"message"`
}

// ResendConfirmationResponse represents the response after resending a confirmation email
type ResendConfirmationResponse struct {
	Message string `json:"message"`
}

// EmailChangeRequest represents the request to change the account email
type EmailChangeRequest struct {
	NewEmail string `json:"new_email"`
}

// EmailChangeResponse represents the response after requesting an email change
type EmailChangeResponse struct {
	Message      string `json:"message"`
	PendingEmail string `json:"pending_email"`
}

// CancelEmailChangeResponse represents the response after cancelling an email change
type CancelEmailChangeResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// StatusResponse represents the confirmation status of an account
type StatusResponse struct {
	Confirmed          bool    `json:"confirmed"`
	ConfirmedAt        *string `json:"confirmed_at,omitempty"`
	PendingEmail       *string `json:"pending_email,omitempty"`
	ConfirmationSentAt *string `json:"confirmation_sent_at,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
