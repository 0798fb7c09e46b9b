package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/tendant/simple-confirm/pkg/confirmation"
)

// Handler exposes the confirmation service over HTTP
type Handler struct {
	service *confirmation.ConfirmationService
}

// NewHandler creates a new confirmation API handler
func NewHandler(service *confirmation.ConfirmationService) *Handler {
	return &Handler{
		service: service,
	}
}

// Routes registers the confirmation endpoints on a router. The confirm
// endpoint is public; everything else sits behind the JWT middleware.
func Routes(handle *Handler, tokenAuth *jwtauth.JWTAuth) chi.Router {
	r := chi.NewRouter()

	// Public endpoint, reached from the emailed link
	r.Post("/confirm", handle.Confirm)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Post("/request", handle.RequestConfirmation)
		r.Post("/resend", handle.ResendConfirmation)
		r.Get("/status", handle.GetStatus)
		r.Put("/email", handle.RequestEmailChange)
		r.Delete("/email", handle.CancelEmailChange)
	})

	return r
}

// Confirm handles POST /confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "error", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Token == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Token is required"})
		return
	}

	account, err := h.service.Confirm(r.Context(), req.Token)
	if err != nil {
		status := http.StatusBadRequest
		message := "Failed to confirm"

		switch {
		case errors.Is(err, confirmation.ErrTokenNotFound):
			status = http.StatusNotFound
			message = "Invalid confirmation token"
		case errors.Is(err, confirmation.ErrTokenExpired):
			status = http.StatusBadRequest
			message = "Confirmation token has expired"
		default:
			slog.Error("Failed to confirm", "error", err)
			status = http.StatusInternalServerError
			message = "An error occurred while confirming"
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ConfirmResponse{
		Message:     "Account confirmed successfully",
		Email:       account.Email,
		ConfirmedAt: account.ConfirmedAt.UTC().Format(time.RFC3339),
	})
}

// RequestConfirmation handles POST /request
func (h *Handler) RequestConfirmation(w http.ResponseWriter, r *http.Request) {
	accountID, err := getAccountIDFromContext(r)
	if err != nil {
		slog.Error("Failed to get account ID from context", "error", err)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	_, err = h.service.RequestConfirmation(r.Context(), accountID)
	if err != nil {
		status := http.StatusBadRequest
		message := "Failed to send confirmation email"

		switch {
		case errors.Is(err, confirmation.ErrAccountNotFound):
			status = http.StatusNotFound
			message = "Account not found"
		case errors.Is(err, confirmation.ErrAlreadyConfirmed):
			status = http.StatusBadRequest
			message = "Account is already confirmed"
		case errors.Is(err, confirmation.ErrConfirmationOutstanding):
			status = http.StatusConflict
			message = "A confirmation is already outstanding. Use resend instead"
		case errors.Is(err, confirmation.ErrMailSendFailed):
			status = http.StatusBadGateway
			message = "Confirmation recorded but the email could not be sent"
		default:
			slog.Error("Failed to request confirmation", "error", err)
			status = http.StatusInternalServerError
			message = "An error occurred while sending confirmation email"
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RequestConfirmationResponse{
		Message: "Confirmation email sent successfully",
	})
}

// ResendConfirmation handles POST /resend
func (h *Handler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	accountID, err := getAccountIDFromContext(r)
	if err != nil {
		slog.Error("Failed to get account ID from context", "error", err)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	_, err = h.service.ResendConfirmation(r.Context(), accountID)
	if err != nil {
		status := http.StatusBadRequest
		message := "Failed to resend confirmation email"

		switch {
		case errors.Is(err, confirmation.ErrAccountNotFound):
			status = http.StatusNotFound
			message = "Account not found"
		case errors.Is(err, confirmation.ErrNoConfirmationPending):
			status = http.StatusBadRequest
			message = "No confirmation is pending for this account"
		case errors.Is(err, confirmation.ErrResendTooSoon):
			status = http.StatusTooManyRequests
			message = "A confirmation email was sent recently. Please try again later"
		case errors.Is(err, confirmation.ErrMailSendFailed):
			status = http.StatusBadGateway
			message = "Confirmation recorded but the email could not be sent"
		default:
			slog.Error("Failed to resend confirmation", "error", err)
			status = http.StatusInternalServerError
			message = "An error occurred while resending confirmation email"
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ResendConfirmationResponse{
		Message: "Confirmation email sent successfully",
	})
}

// GetStatus handles GET /status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	accountID, err := getAccountIDFromContext(r)
	if err != nil {
		slog.Error("Failed to get account ID from context", "error", err)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	status, err := h.service.GetConfirmationStatus(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, confirmation.ErrAccountNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse{Error: "Account not found"})
			return
		}
		slog.Error("Failed to get confirmation status", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "An error occurred while retrieving confirmation status"})
		return
	}

	var response StatusResponse
	if err := copier.Copy(&response, status); err != nil {
		slog.Error("Failed to map confirmation status", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "An error occurred while retrieving confirmation status"})
		return
	}
	response.ConfirmedAt = formatTime(status.ConfirmedAt)
	response.ConfirmationSentAt = formatTime(status.ConfirmationSentAt)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response)
}

// RequestEmailChange handles PUT /email
func (h *Handler) RequestEmailChange(w http.ResponseWriter, r *http.Request) {
	accountID, err := getAccountIDFromContext(r)
	if err != nil {
		slog.Error("Failed to get account ID from context", "error", err)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req EmailChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "error", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.NewEmail == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "New email is required"})
		return
	}

	_, err = h.service.RequestEmailChange(r.Context(), accountID, req.NewEmail)
	if err != nil {
		status := http.StatusBadRequest
		message := "Failed to request email change"

		switch {
		case errors.Is(err, confirmation.ErrAccountNotFound):
			status = http.StatusNotFound
			message = "Account not found"
		case errors.Is(err, confirmation.ErrNotConfirmed):
			status = http.StatusBadRequest
			message = "Account must be confirmed before changing email"
		case errors.Is(err, confirmation.ErrInvalidEmail):
			status = http.StatusBadRequest
			message = "Invalid email address"
		case errors.Is(err, confirmation.ErrStoreConflict):
			status = http.StatusConflict
			message = "Email change could not be recorded. Please try again"
		case errors.Is(err, confirmation.ErrMailSendFailed):
			status = http.StatusBadGateway
			message = "Email change recorded but the confirmation email could not be sent"
		default:
			slog.Error("Failed to request email change", "error", err)
			status = http.StatusInternalServerError
			message = "An error occurred while requesting email change"
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, EmailChangeResponse{
		Message:      "Confirmation email sent to the new address",
		PendingEmail: req.NewEmail,
	})
}

// CancelEmailChange handles DELETE /email
func (h *Handler) CancelEmailChange(w http.ResponseWriter, r *http.Request) {
	accountID, err := getAccountIDFromContext(r)
	if err != nil {
		slog.Error("Failed to get account ID from context", "error", err)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	account, err := h.service.CancelEmailChange(r.Context(), accountID)
	if err != nil {
		status := http.StatusBadRequest
		message := "Failed to cancel email change"

		switch {
		case errors.Is(err, confirmation.ErrAccountNotFound):
			status = http.StatusNotFound
			message = "Account not found"
		case errors.Is(err, confirmation.ErrNoConfirmationPending):
			status = http.StatusBadRequest
			message = "No email change is pending for this account"
		default:
			slog.Error("Failed to cancel email change", "error", err)
			status = http.StatusInternalServerError
			message = "An error occurred while cancelling email change"
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, CancelEmailChangeResponse{
		Message: "Email change cancelled",
		Email:   account.Email,
	})
}

// getAccountIDFromContext extracts the account ID from the JWT claims in the
// request context (set by the jwtauth middleware)
func getAccountIDFromContext(r *http.Request) (uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil, err
	}

	accountIDStr, ok := claims["account_id"].(string)
	if !ok || accountIDStr == "" {
		return uuid.Nil, errors.New("account_id not found in JWT claims")
	}

	accountID, err := uuid.Parse(accountIDStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid account_id in JWT claims")
	}

	return accountID, nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
