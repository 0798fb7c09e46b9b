package confirmation

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo creates a temporary directory and repository for testing
func setupTestRepo(t *testing.T) (*FileAccountRepository, string) {
	tempDir := filepath.Join(os.TempDir(), "confirmation-test-"+uuid.New().String())
	err := os.MkdirAll(tempDir, 0755)
	require.NoError(t, err)

	repo, err := NewFileAccountRepository(tempDir)
	require.NoError(t, err)

	t.Cleanup(func() {
		os.RemoveAll(tempDir)
	})

	return repo, tempDir
}

func TestFileAccountRepository_NewRepository(t *testing.T) {
	tempDir := filepath.Join(os.TempDir(), "confirmation-test-new-"+uuid.New().String())
	defer os.RemoveAll(tempDir)

	// Should create directory if it doesn't exist
	repo, err := NewFileAccountRepository(tempDir)
	assert.NoError(t, err)
	assert.NotNil(t, repo)
	assert.DirExists(t, tempDir)
}

func TestFileAccountRepository_CreateAccount(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		account, err := repo.CreateAccount(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, account.ID)
		assert.Equal(t, "alice@example.com", account.Email)
		assert.Nil(t, account.ConfirmationToken)
		assert.Nil(t, account.ConfirmedAt)
		assert.Nil(t, account.UnconfirmedEmail)
	})

	t.Run("DuplicateEmailRejected", func(t *testing.T) {
		_, err := repo.CreateAccount(ctx, "alice@example.com")
		assert.ErrorIs(t, err, ErrStoreConflict)
	})
}

func TestFileAccountRepository_ReplaceConfirmationToken(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, "bob@example.com")
	require.NoError(t, err)

	sentAt := time.Now().UTC()

	t.Run("FirstIssue", func(t *testing.T) {
		updated, err := repo.ReplaceConfirmationToken(ctx, account.ID, nil, "token_1", sentAt, nil)
		require.NoError(t, err)
		require.NotNil(t, updated.ConfirmationToken)
		assert.Equal(t, "token_1", *updated.ConfirmationToken)
		require.NotNil(t, updated.ConfirmationSentAt)
		assert.Equal(t, sentAt, *updated.ConfirmationSentAt)
	})

	t.Run("StaleExpectedTokenConflicts", func(t *testing.T) {
		// Guard is the currently-stored token; nil no longer matches.
		_, err := repo.ReplaceConfirmationToken(ctx, account.ID, nil, "token_2", sentAt, nil)
		assert.ErrorIs(t, err, ErrStoreConflict)
	})

	t.Run("GuardedSwap", func(t *testing.T) {
		expected := "token_1"
		updated, err := repo.ReplaceConfirmationToken(ctx, account.ID, &expected, "token_2", sentAt, nil)
		require.NoError(t, err)
		assert.Equal(t, "token_2", *updated.ConfirmationToken)
	})

	t.Run("DuplicateTokenAcrossAccountsConflicts", func(t *testing.T) {
		other, err := repo.CreateAccount(ctx, "carol@example.com")
		require.NoError(t, err)

		_, err = repo.ReplaceConfirmationToken(ctx, other.ID, nil, "token_2", sentAt, nil)
		assert.ErrorIs(t, err, ErrStoreConflict)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		_, err := repo.ReplaceConfirmationToken(ctx, uuid.New(), nil, "token_3", sentAt, nil)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestFileAccountRepository_GetByToken(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, "dave@example.com")
	require.NoError(t, err)

	_, err = repo.ReplaceConfirmationToken(ctx, account.ID, nil, "token_abc", time.Now().UTC(), nil)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		found, err := repo.GetByToken(ctx, "token_abc")
		require.NoError(t, err)
		assert.Equal(t, account.ID, found.ID)
	})

	t.Run("TokenNotFound", func(t *testing.T) {
		_, err := repo.GetByToken(ctx, "nonexistent_token")
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})
}

func TestFileAccountRepository_ConsumeToken(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	cutoff := now.Add(-72 * time.Hour)

	t.Run("RegistrationConfirm", func(t *testing.T) {
		account, err := repo.CreateAccount(ctx, "erin@example.com")
		require.NoError(t, err)
		_, err = repo.ReplaceConfirmationToken(ctx, account.ID, nil, "token_reg", now.Add(-time.Hour), nil)
		require.NoError(t, err)

		confirmed, err := repo.ConsumeToken(ctx, "token_reg", cutoff, now)
		require.NoError(t, err)
		assert.Nil(t, confirmed.ConfirmationToken)
		require.NotNil(t, confirmed.ConfirmedAt)
		assert.Equal(t, now, *confirmed.ConfirmedAt)
		assert.Equal(t, "erin@example.com", confirmed.Email)

		// At-most-once consumption.
		_, err = repo.ConsumeToken(ctx, "token_reg", cutoff, now)
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("EmailChangePromotion", func(t *testing.T) {
		account, err := repo.CreateAccount(ctx, "frank@example.com")
		require.NoError(t, err)
		pending := "frank@new.example.com"
		_, err = repo.ReplaceConfirmationToken(ctx, account.ID, nil, "token_change", now.Add(-time.Hour), &pending)
		require.NoError(t, err)

		confirmed, err := repo.ConsumeToken(ctx, "token_change", cutoff, now)
		require.NoError(t, err)
		assert.Equal(t, "frank@new.example.com", confirmed.Email)
		assert.Nil(t, confirmed.UnconfirmedEmail)
	})

	t.Run("ExpiredTokenStays", func(t *testing.T) {
		account, err := repo.CreateAccount(ctx, "grace@example.com")
		require.NoError(t, err)
		_, err = repo.ReplaceConfirmationToken(ctx, account.ID, nil, "token_old", now.Add(-96*time.Hour), nil)
		require.NoError(t, err)

		_, err = repo.ConsumeToken(ctx, "token_old", cutoff, now)
		assert.ErrorIs(t, err, ErrTokenExpired)

		// The expired token remains readable until overwritten.
		found, err := repo.GetByToken(ctx, "token_old")
		require.NoError(t, err)
		assert.Equal(t, account.ID, found.ID)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		_, err := repo.ConsumeToken(ctx, "token_unknown", cutoff, now)
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})
}

func TestFileAccountRepository_ClearPendingEmail(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, "heidi@example.com")
	require.NoError(t, err)

	t.Run("NoPendingChange", func(t *testing.T) {
		_, err := repo.ClearPendingEmail(ctx, account.ID)
		assert.ErrorIs(t, err, ErrNoConfirmationPending)
	})

	t.Run("Success", func(t *testing.T) {
		pending := "heidi@new.example.com"
		_, err := repo.ReplaceConfirmationToken(ctx, account.ID, nil, "token_hc", time.Now().UTC(), &pending)
		require.NoError(t, err)

		cleared, err := repo.ClearPendingEmail(ctx, account.ID)
		require.NoError(t, err)
		assert.Nil(t, cleared.UnconfirmedEmail)
		assert.Nil(t, cleared.ConfirmationToken)
		assert.Equal(t, "heidi@example.com", cleared.Email)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		_, err := repo.ClearPendingEmail(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestFileAccountRepository_Persistence(t *testing.T) {
	repo, tempDir := setupTestRepo(t)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, "ivan@example.com")
	require.NoError(t, err)
	_, err = repo.ReplaceConfirmationToken(ctx, account.ID, nil, "token_persist", time.Now().UTC(), nil)
	require.NoError(t, err)

	// A new repository instance over the same directory sees the same data.
	reloaded, err := NewFileAccountRepository(tempDir)
	require.NoError(t, err)

	found, err := reloaded.GetByToken(ctx, "token_persist")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)
	assert.Equal(t, "ivan@example.com", found.Email)
}
