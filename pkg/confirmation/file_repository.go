package confirmation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileAccountRepository implements AccountRepository using file-based storage.
// The mutex stands in for the database's per-row atomicity, so the CAS
// semantics of the contract hold here too.
type FileAccountRepository struct {
	dataDir  string
	accounts map[uuid.UUID]*Account
	mutex    sync.RWMutex
}

// accountData represents the structure of data stored in the JSON file
type accountData struct {
	Accounts []*Account `json:"accounts"`
}

// NewFileAccountRepository creates a new file-based account repository
func NewFileAccountRepository(dataDir string) (*FileAccountRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileAccountRepository{
		dataDir:  dataDir,
		accounts: make(map[uuid.UUID]*Account),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// CreateAccount creates a new account with no confirmation outstanding
func (r *FileAccountRepository) CreateAccount(ctx context.Context, email string) (*Account, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, a := range r.accounts {
		if a.Email == email {
			return nil, ErrStoreConflict
		}
	}

	account := &Account{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	r.accounts[account.ID] = account

	if err := r.save(); err != nil {
		delete(r.accounts, account.ID)
		return nil, fmt.Errorf("failed to save: %w", err)
	}

	accountCopy := *account
	return &accountCopy, nil
}

// GetByID retrieves an account by its identifier
func (r *FileAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, ErrAccountNotFound
	}

	accountCopy := *account
	return &accountCopy, nil
}

// GetByToken retrieves the account holding the given confirmation token
func (r *FileAccountRepository) GetByToken(ctx context.Context, token string) (*Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, a := range r.accounts {
		if a.ConfirmationToken != nil && *a.ConfirmationToken == token {
			accountCopy := *a
			return &accountCopy, nil
		}
	}

	return nil, ErrTokenNotFound
}

// ReplaceConfirmationToken swaps the outstanding token, guarded on the
// currently-stored token value
func (r *FileAccountRepository) ReplaceConfirmationToken(ctx context.Context, id uuid.UUID, expectedToken *string, token string, sentAt time.Time, pendingEmail *string) (*Account, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, ErrAccountNotFound
	}

	if !tokenMatches(account.ConfirmationToken, expectedToken) {
		return nil, ErrStoreConflict
	}

	// Token uniqueness backstop across all accounts.
	for _, other := range r.accounts {
		if other.ID != id && other.ConfirmationToken != nil && *other.ConfirmationToken == token {
			return nil, ErrStoreConflict
		}
	}

	prev := *account
	account.ConfirmationToken = &token
	account.ConfirmationSentAt = &sentAt
	account.UnconfirmedEmail = pendingEmail

	if err := r.save(); err != nil {
		*account = prev
		return nil, fmt.Errorf("failed to save: %w", err)
	}

	accountCopy := *account
	return &accountCopy, nil
}

// ConsumeToken validates and invalidates a token in one step under the lock
func (r *FileAccountRepository) ConsumeToken(ctx context.Context, token string, sentAfter, confirmedAt time.Time) (*Account, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var account *Account
	for _, a := range r.accounts {
		if a.ConfirmationToken != nil && *a.ConfirmationToken == token {
			account = a
			break
		}
	}
	if account == nil {
		return nil, ErrTokenNotFound
	}

	if account.ConfirmationSentAt == nil || account.ConfirmationSentAt.Before(sentAfter) {
		// Expired tokens stay in place until a resend overwrites them.
		return nil, ErrTokenExpired
	}

	prev := *account
	if account.UnconfirmedEmail != nil {
		account.Email = *account.UnconfirmedEmail
		account.UnconfirmedEmail = nil
	}
	account.ConfirmationToken = nil
	account.ConfirmedAt = &confirmedAt

	if err := r.save(); err != nil {
		*account = prev
		return nil, fmt.Errorf("failed to save: %w", err)
	}

	accountCopy := *account
	return &accountCopy, nil
}

// ClearPendingEmail cancels an outstanding email change
func (r *FileAccountRepository) ClearPendingEmail(ctx context.Context, id uuid.UUID) (*Account, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, ErrAccountNotFound
	}

	if account.UnconfirmedEmail == nil {
		return nil, ErrNoConfirmationPending
	}

	prev := *account
	account.UnconfirmedEmail = nil
	account.ConfirmationToken = nil

	if err := r.save(); err != nil {
		*account = prev
		return nil, fmt.Errorf("failed to save: %w", err)
	}

	accountCopy := *account
	return &accountCopy, nil
}

func tokenMatches(current, expected *string) bool {
	if current == nil || expected == nil {
		return current == nil && expected == nil
	}
	return *current == *expected
}

// load reads account data from file
func (r *FileAccountRepository) load() error {
	filePath := filepath.Join(r.dataDir, "accounts.json")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var stored accountData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.accounts = make(map[uuid.UUID]*Account)
	for _, account := range stored.Accounts {
		r.accounts[account.ID] = account
	}

	return nil
}

// save writes account data to file atomically
func (r *FileAccountRepository) save() error {
	accounts := make([]*Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		accounts = append(accounts, account)
	}

	jsonData, err := json.MarshalIndent(accountData{Accounts: accounts}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, "accounts.json.tmp")
	if err := os.WriteFile(tempFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, "accounts.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
