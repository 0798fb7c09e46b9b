package confirmation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository defines the store adapter contract for the confirmation
// service. Every mutating method is a single atomic operation against the
// store; the service never holds cross-call locks.
type AccountRepository interface {
	CreateAccount(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByToken(ctx context.Context, token string) (*Account, error)

	// ReplaceConfirmationToken swaps the outstanding token in one atomic step.
	// The update only applies while the stored token still equals
	// expectedToken (nil meaning none outstanding); a lost race or a token
	// uniqueness violation surfaces as ErrStoreConflict. pendingEmail, when
	// non-nil, records an email change in the same write.
	ReplaceConfirmationToken(ctx context.Context, id uuid.UUID, expectedToken *string, token string, sentAt time.Time, pendingEmail *string) (*Account, error)

	// ConsumeToken validates and invalidates a token in one atomic step,
	// promoting unconfirmed_email to email when present and stamping
	// confirmedAt. Tokens issued before sentAfter are expired and left in
	// place. Exactly one of two racing consumers can succeed.
	ConsumeToken(ctx context.Context, token string, sentAfter, confirmedAt time.Time) (*Account, error)

	// ClearPendingEmail drops an outstanding email change together with its
	// token.
	ClearPendingEmail(ctx context.Context, id uuid.UUID) (*Account, error)
}

const accountColumns = `id, email, unconfirmed_email, confirmation_token, confirmation_sent_at, confirmed_at, created_at`

// Repository implements AccountRepository on PostgreSQL. The unique index on
// confirmation_token makes the consumption race safe even if application-level
// guards are bypassed.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL account repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.UnconfirmedEmail,
		&a.ConfirmationToken,
		&a.ConfirmationSentAt,
		&a.ConfirmedAt,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CreateAccount inserts a new account with no confirmation outstanding
func (r *Repository) CreateAccount(ctx context.Context, email string) (*Account, error) {
	query := `
		INSERT INTO accounts (email)
		VALUES ($1)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrStoreConflict
		}
		return nil, err
	}
	return account, nil
}

// GetByID retrieves an account by its identifier
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// GetByToken retrieves the account holding the given confirmation token
func (r *Repository) GetByToken(ctx context.Context, token string) (*Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE confirmation_token = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return account, nil
}

// ReplaceConfirmationToken performs the compare-and-swap token write. The
// predicate on the currently-stored token is the compare key.
func (r *Repository) ReplaceConfirmationToken(ctx context.Context, id uuid.UUID, expectedToken *string, token string, sentAt time.Time, pendingEmail *string) (*Account, error) {
	query := `
		UPDATE accounts
		SET confirmation_token = $3,
		    confirmation_sent_at = $4,
		    unconfirmed_email = $5
		WHERE id = $1
		AND confirmation_token IS NOT DISTINCT FROM $2
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRow(ctx, query, id, expectedToken, token, sentAt, pendingEmail))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrStoreConflict
		}
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the account is gone or the token changed under us.
			if _, lookupErr := r.GetByID(ctx, id); lookupErr != nil {
				return nil, lookupErr
			}
			return nil, ErrStoreConflict
		}
		return nil, err
	}
	return account, nil
}

// ConsumeToken consumes a token in a single atomic update keyed on the token
// itself, so two racing confirms resolve to one winner.
func (r *Repository) ConsumeToken(ctx context.Context, token string, sentAfter, confirmedAt time.Time) (*Account, error) {
	query := `
		UPDATE accounts
		SET email = COALESCE(unconfirmed_email, email),
		    unconfirmed_email = NULL,
		    confirmation_token = NULL,
		    confirmed_at = $3
		WHERE confirmation_token = $1
		AND confirmation_sent_at >= $2
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRow(ctx, query, token, sentAfter, confirmedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Re-read to tell an expired token from a consumed or unknown one.
			if _, lookupErr := r.GetByToken(ctx, token); lookupErr != nil {
				return nil, lookupErr
			}
			return nil, ErrTokenExpired
		}
		return nil, err
	}
	return account, nil
}

// ClearPendingEmail cancels an outstanding email change
func (r *Repository) ClearPendingEmail(ctx context.Context, id uuid.UUID) (*Account, error) {
	query := `
		UPDATE accounts
		SET unconfirmed_email = NULL,
		    confirmation_token = NULL
		WHERE id = $1
		AND unconfirmed_email IS NOT NULL
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, lookupErr := r.GetByID(ctx, id); lookupErr != nil {
				return nil, lookupErr
			}
			return nil, ErrNoConfirmationPending
		}
		return nil, err
	}
	return account, nil
}
