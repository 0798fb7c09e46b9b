// Package confirmation implements account email confirmation for
// simple-confirm.
//
// This package owns the confirmation token lifecycle, the verification
// protocol, the resend and expiry policy, and the email-change confirmation
// path. Registration forms, password handling and mail transport are external
// collaborators; the service only consumes an AccountRepository and a
// notification manager.
//
// # Overview
//
// The confirmation package provides:
//   - Cryptographically random confirmation tokens
//   - Token-based confirmation of newly registered accounts
//   - Confirmation of email address changes via the new mailbox
//   - Resend with throttling, token expiry policy
//   - Repository pattern for PostgreSQL and file storage
//
// # Basic Usage
//
//	import "github.com/tendant/simple-confirm/pkg/confirmation"
//
//	repo := confirmation.NewRepository(pool)
//	service := confirmation.NewConfirmationService(
//		repo,
//		notificationManager,
//		"https://app.example.com",
//		confirmation.WithTokenExpiry(72*time.Hour),
//		confirmation.WithResendInterval(60*time.Second),
//	)
//
//	// Registration: issue the first token, email goes out automatically
//	token, err := service.RequestConfirmation(ctx, account.ID)
//
//	// Inbound link handler
//	account, err := service.Confirm(ctx, token)
//
// # State Machine
//
// Confirmation state is derived from the account's fields, never stored as an
// explicit column:
//
//   - Unconfirmed: confirmed_at is null; a token may be outstanding
//   - PendingEmailChange: confirmed_at set, unconfirmed_email and token set
//   - Confirmed: confirmed_at set, no token outstanding
//
// An expired pending token is not a distinct state; it simply fails Confirm
// with ErrTokenExpired and stays in place until a resend overwrites it.
//
// # Email Change Flow
//
//	// Only a confirmed account can change its address. The token is mailed to
//	// the NEW address, so completing the change proves mailbox control.
//	token, err := service.RequestEmailChange(ctx, account.ID, "new@example.com")
//
//	// Confirm with the token promotes unconfirmed_email to email.
//	account, err := service.Confirm(ctx, token)
//
//	// Or abandon the change:
//	account, err := service.CancelEmailChange(ctx, account.ID)
//
// # Concurrency
//
// The service holds no locks and keeps no in-process state. Token consumption
// is a single compare-and-swap keyed on the token itself, so two concurrent
// Confirm calls racing on one token produce exactly one success; the loser
// re-reads and reports ErrTokenNotFound. The store's uniqueness index on
// confirmation_token is the backstop for token collisions.
//
// # Mail Delivery
//
// Token state commits before the email is handed to the notification manager.
// A delivery failure surfaces as ErrMailSendFailed wrapped around the
// transport error; the token stays valid and the caller can resend.
//
// # Related Packages
//
//   - pkg/notification - Email delivery
//   - pkg/confirmation/api - HTTP endpoints
package confirmation
