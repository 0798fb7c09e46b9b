package confirmation

import "errors"

var (
	// ErrTokenNotFound is returned when no account holds the presented token.
	// Unknown, already-consumed and foreign tokens are deliberately
	// indistinguishable to avoid leaking account existence.
	ErrTokenNotFound = errors.New("confirmation token not found")

	// ErrTokenExpired is returned when the token's issuance timestamp is older
	// than the configured expiry window
	ErrTokenExpired = errors.New("confirmation token has expired")

	// ErrResendTooSoon is returned when a resend is requested inside the
	// throttle interval
	ErrResendTooSoon = errors.New("confirmation email was sent recently, please wait before requesting another")

	// ErrInvalidEmail is returned when a new email address is malformed or
	// equals the current address
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrAccountNotFound is returned when an account is not found
	ErrAccountNotFound = errors.New("account not found")

	// ErrAlreadyConfirmed is returned when requesting or resending a
	// confirmation for an account that is already confirmed
	ErrAlreadyConfirmed = errors.New("account email already confirmed")

	// ErrConfirmationOutstanding is returned when requesting an initial
	// confirmation while a token is still outstanding; use a resend instead
	ErrConfirmationOutstanding = errors.New("a confirmation is already outstanding for this account")

	// ErrNoConfirmationPending is returned when resending or cancelling and no
	// confirmation is outstanding
	ErrNoConfirmationPending = errors.New("no confirmation pending for this account")

	// ErrNotConfirmed is returned when an email change is requested for an
	// account that has never been confirmed
	ErrNotConfirmed = errors.New("account email has not been confirmed")

	// ErrStoreConflict is returned when an atomic update lost a race with a
	// concurrent writer; the operation may be retried
	ErrStoreConflict = errors.New("account was modified concurrently")

	// ErrMailSendFailed is returned when the confirmation state was committed
	// but the notification could not be delivered; the token stays valid and
	// the caller may trigger a resend
	ErrMailSendFailed = errors.New("confirmation email could not be delivered")
)
