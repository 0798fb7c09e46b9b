package confirmation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-confirm/pkg/notification"
)

// ConfirmationService orchestrates the registration-confirmation and
// email-change-confirmation workflows. The service is stateless and reentrant;
// all shared mutable state lives in the repository, which provides per-row
// atomic updates.
type ConfirmationService struct {
	repo                AccountRepository
	notificationManager *notification.NotificationManager
	tokens              TokenGenerator
	baseURL             string
	tokenExpiry         time.Duration
	resendInterval      time.Duration
	now                 func() time.Time
}

// ConfirmationServiceOption defines configuration options
type ConfirmationServiceOption func(*ConfirmationService)

// WithTokenExpiry sets the confirmation token expiry window
func WithTokenExpiry(expiry time.Duration) ConfirmationServiceOption {
	return func(s *ConfirmationService) {
		s.tokenExpiry = expiry
	}
}

// WithResendInterval sets the minimum interval between token reissues
func WithResendInterval(interval time.Duration) ConfirmationServiceOption {
	return func(s *ConfirmationService) {
		s.resendInterval = interval
	}
}

// WithTokenGenerator overrides the default token generator
func WithTokenGenerator(g TokenGenerator) ConfirmationServiceOption {
	return func(s *ConfirmationService) {
		s.tokens = g
	}
}

// WithClock overrides the service clock, mainly for tests
func WithClock(now func() time.Time) ConfirmationServiceOption {
	return func(s *ConfirmationService) {
		s.now = now
	}
}

// NewConfirmationService creates a new confirmation service
func NewConfirmationService(
	repo AccountRepository,
	notificationManager *notification.NotificationManager,
	baseURL string,
	opts ...ConfirmationServiceOption,
) *ConfirmationService {
	service := &ConfirmationService{
		repo:                repo,
		notificationManager: notificationManager,
		tokens:              NewTokenGenerator(),
		baseURL:             baseURL,
		tokenExpiry:         72 * time.Hour,   // Default 3 days
		resendInterval:      60 * time.Second, // Default 1 minute between resends
		now:                 func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// RequestConfirmation starts the confirmation flow for a freshly created
// account: it issues the first token and dispatches the confirmation email.
// The returned token is already persisted; a mail delivery failure surfaces as
// ErrMailSendFailed without rolling it back.
func (s *ConfirmationService) RequestConfirmation(ctx context.Context, accountID uuid.UUID) (string, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		slog.Error("Failed to get account", "account_id", accountID, "error", err)
		return "", err
	}

	if account.ConfirmedAt != nil {
		slog.Info("Account already confirmed", "account_id", accountID)
		return "", ErrAlreadyConfirmed
	}
	if account.ConfirmationToken != nil {
		return "", ErrConfirmationOutstanding
	}

	token, err := s.issueToken(ctx, account, nil)
	if err != nil {
		return "", err
	}

	slog.Info("Confirmation requested", "account_id", accountID)
	return token, s.dispatch(account.Email, token, notification.AccountConfirmationNotice)
}

// Confirm consumes a token: validation, expiry check and field clears happen
// as one atomic unit against the store, so two racing calls resolve to exactly
// one success. A pending email change is promoted to the active address.
func (s *ConfirmationService) Confirm(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}

	now := s.now()
	account, err := s.repo.ConsumeToken(ctx, token, now.Add(-s.tokenExpiry), now)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrTokenExpired) {
			slog.Warn("Confirmation failed", "error", err)
			return nil, err
		}
		slog.Error("Failed to consume confirmation token", "error", err)
		return nil, fmt.Errorf("failed to confirm: %w", err)
	}

	slog.Info("Account confirmed", "account_id", account.ID, "confirmed_at", account.ConfirmedAt)
	return account, nil
}

// ResendConfirmation reissues the outstanding token, invalidating the previous
// one, and dispatches the email again. Reissues inside the throttle interval
// fail with ErrResendTooSoon.
func (s *ConfirmationService) ResendConfirmation(ctx context.Context, accountID uuid.UUID) (string, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		slog.Error("Failed to get account", "account_id", accountID, "error", err)
		return "", err
	}

	if !account.ConfirmationPending() {
		if account.ConfirmedAt != nil {
			return "", ErrAlreadyConfirmed
		}
		return "", ErrNoConfirmationPending
	}

	if account.ConfirmationSentAt != nil && s.now().Sub(*account.ConfirmationSentAt) < s.resendInterval {
		slog.Warn("Resend throttled", "account_id", accountID, "sent_at", account.ConfirmationSentAt)
		return "", ErrResendTooSoon
	}

	token, err := s.issueToken(ctx, account, account.UnconfirmedEmail)
	if err != nil {
		return "", err
	}

	to := account.Email
	noticeType := notification.ConfirmationReminderNotice
	if account.UnconfirmedEmail != nil {
		to = *account.UnconfirmedEmail
		noticeType = notification.EmailChangeConfirmationNotice
	}

	slog.Info("Confirmation resent", "account_id", accountID)
	return token, s.dispatch(to, token, noticeType)
}

// RequestEmailChange records newEmail as the pending replacement address and
// sends the confirmation token to it, so completing the change proves control
// of the new mailbox. Issuing the token invalidates any previously outstanding
// one for this account.
func (s *ConfirmationService) RequestEmailChange(ctx context.Context, accountID uuid.UUID, newEmail string) (string, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		slog.Error("Failed to get account", "account_id", accountID, "error", err)
		return "", err
	}

	if account.ConfirmedAt == nil {
		return "", ErrNotConfirmed
	}
	if err := validateNewEmail(newEmail, account.Email); err != nil {
		return "", err
	}

	token, err := s.issueToken(ctx, account, &newEmail)
	if err != nil {
		return "", err
	}

	slog.Info("Email change requested", "account_id", accountID)
	return token, s.dispatch(newEmail, token, notification.EmailChangeConfirmationNotice)
}

// CancelEmailChange abandons a pending email change, clearing the replacement
// address and its token. The account stays confirmed on its current address.
func (s *ConfirmationService) CancelEmailChange(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	account, err := s.repo.ClearPendingEmail(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrNoConfirmationPending) {
			return nil, err
		}
		slog.Error("Failed to cancel email change", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to cancel email change: %w", err)
	}

	slog.Info("Email change cancelled", "account_id", accountID)
	return account, nil
}

// GetConfirmationStatus returns the confirmation status for an account. Only
// a non-nil ConfirmedAt gates trusted actions; token fields are never exposed.
func (s *ConfirmationService) GetConfirmationStatus(ctx context.Context, accountID uuid.UUID) (*Status, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		slog.Error("Failed to get account status", "account_id", accountID, "error", err)
		return nil, err
	}

	return &Status{
		Confirmed:          account.ConfirmedAt != nil,
		ConfirmedAt:        account.ConfirmedAt,
		PendingEmail:       account.UnconfirmedEmail,
		ConfirmationSentAt: account.ConfirmationSentAt,
	}, nil
}

// issueToken generates a fresh token and writes it with a CAS guarded on the
// account's current token. A uniqueness-backstop rejection is retried once
// with new randomness; a genuine concurrent write surfaces as ErrStoreConflict.
func (s *ConfirmationService) issueToken(ctx context.Context, account *Account, pendingEmail *string) (string, error) {
	sentAt := s.now()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		token, err := s.tokens.Generate()
		if err != nil {
			return "", err
		}

		if _, err := s.repo.ReplaceConfirmationToken(ctx, account.ID, account.ConfirmationToken, token, sentAt, pendingEmail); err != nil {
			if errors.Is(err, ErrStoreConflict) {
				lastErr = err
				continue
			}
			slog.Error("Failed to store confirmation token", "account_id", account.ID, "error", err)
			return "", fmt.Errorf("failed to store confirmation token: %w", err)
		}

		return token, nil
	}

	slog.Error("Failed to store confirmation token", "account_id", account.ID, "error", lastErr)
	return "", lastErr
}

// dispatch sends the confirmation email carrying the token. The token is
// already committed; delivery failure is surfaced as ErrMailSendFailed so the
// caller can distinguish "state changed, notification failed".
func (s *ConfirmationService) dispatch(to, token string, noticeType notification.NoticeType) error {
	if s.notificationManager == nil {
		slog.Warn("Notification manager not configured, skipping email send")
		return nil
	}

	confirmationLink := fmt.Sprintf("%s/confirm?token=%s", s.baseURL, url.QueryEscape(token))

	err := s.notificationManager.Send(noticeType, notification.NotificationData{
		To: to,
		Data: map[string]string{
			"ConfirmationLink": confirmationLink,
			"ExpiryHours":      fmt.Sprintf("%.0f", s.tokenExpiry.Hours()),
		},
	})
	if err != nil {
		slog.Error("Failed to send confirmation email", "to", to, "notice", noticeType, "error", err)
		return fmt.Errorf("%w: %v", ErrMailSendFailed, err)
	}

	return nil
}

func validateNewEmail(newEmail, currentEmail string) error {
	if newEmail == "" || newEmail == currentEmail {
		return ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(newEmail)
	if err != nil || addr.Address != newEmail {
		return ErrInvalidEmail
	}

	return nil
}
