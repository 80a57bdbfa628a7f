package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/account-service/internal/domain"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account already exists")
)

// AccountRepository defines persistence access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Update(ctx context.Context, id string, patch domain.AccountPatch) (*domain.Account, error)
	Ping(ctx context.Context) error
}

type memoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	byEmail  map[string]string
	now      func() time.Time
}

// NewMemoryAccountRepository returns a process-local store for development and tests.
func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{
		accounts: make(map[string]domain.Account),
		byEmail:  make(map[string]string),
		now:      time.Now,
	}
}

func (r *memoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(account.Email)
	if _, exists := r.accounts[account.ID]; exists {
		return ErrDuplicateAccount
	}
	if _, exists := r.byEmail[key]; exists {
		return ErrDuplicateAccount
	}

	now := r.now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.accounts[account.ID] = *account
	r.byEmail[key] = account.ID
	return nil
}

func (r *memoryAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (r *memoryAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	account := r.accounts[id]
	return &account, nil
}

func (r *memoryAccountRepository) Update(_ context.Context, id string, patch domain.AccountPatch) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if !patch.IsEmpty() {
		account = patch.Apply(account)
		account.UpdatedAt = r.now().UTC()
		r.accounts[id] = account
	}
	return &account, nil
}

func (r *memoryAccountRepository) Ping(context.Context) error {
	return nil
}
