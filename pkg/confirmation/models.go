package confirmation

import (
	"time"

	"github.com/google/uuid"
)

// Account is the confirmable entity. Confirmation state is not stored as an
// explicit column; it is derived from the field combinations below.
type Account struct {
	ID                 uuid.UUID
	Email              string
	UnconfirmedEmail   *string
	ConfirmationToken  *string
	ConfirmationSentAt *time.Time
	ConfirmedAt        *time.Time
	CreatedAt          time.Time
}

// State is the derived confirmation state of an account.
type State string

const (
	// StateUnconfirmed covers accounts that have never completed a
	// confirmation, with or without an outstanding token.
	StateUnconfirmed State = "unconfirmed"

	// StatePendingEmailChange covers confirmed accounts with a replacement
	// address awaiting confirmation.
	StatePendingEmailChange State = "pending_email_change"

	// StateConfirmed covers confirmed accounts with nothing outstanding.
	StateConfirmed State = "confirmed"
)

// State derives the confirmation state from the account's fields.
func (a *Account) State() State {
	switch {
	case a.ConfirmedAt == nil:
		return StateUnconfirmed
	case a.UnconfirmedEmail != nil && a.ConfirmationToken != nil:
		return StatePendingEmailChange
	default:
		return StateConfirmed
	}
}

// ConfirmationPending reports whether a confirmation token is outstanding.
func (a *Account) ConfirmationPending() bool {
	return a.ConfirmationToken != nil
}

// Status is the externally visible confirmation status of an account.
type Status struct {
	Confirmed          bool
	ConfirmedAt        *time.Time
	PendingEmail       *string
	ConfirmationSentAt *time.Time
}
