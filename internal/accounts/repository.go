package accounts

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, a *Account) error
}

// InMemoryRepository is a development and test store.
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{accounts: make(map[uuid.UUID]*Account)}
}

func (r *InMemoryRepository) Create(ctx context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return ErrDuplicateAccount
		}
		if existing.Username == a.Username {
			return ErrDuplicateAccount
		}
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (r *InMemoryRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ID]; !ok {
		return ErrAccountNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}
