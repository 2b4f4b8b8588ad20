package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// Provisioner creates accounts on behalf of unauthenticated intake sessions.
type Provisioner struct {
	repo   Repository
	cost   int
	logger *logging.Logger
}

func NewProvisioner(repo Repository, logger *logging.Logger) *Provisioner {
	if repo == nil {
		panic("accounts: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Provisioner{repo: repo, cost: bcrypt.DefaultCost, logger: logger}
}

// Provision creates an account for email. The handle is the email local part,
// suffixed 1, 2, ... until unused.
func (p *Provisioner) Provision(ctx context.Context, email, password string) (*Account, error) {
	email = strings.TrimSpace(email)
	if len(password) < MinPasswordLength {
		return nil, ErrWeakCredential
	}
	if _, err := p.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateAccount
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	username, err := p.uniqueHandle(ctx, email)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("accounts: hash password: %w", err)
	}
	acc := &Account{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := p.repo.Create(ctx, acc); err != nil {
		return nil, err
	}
	p.logger.Info("account provisioned", "account_id", acc.ID, "username", acc.Username)
	return acc, nil
}

func (p *Provisioner) uniqueHandle(ctx context.Context, email string) (string, error) {
	base := HandleFromEmail(email)
	if base == "" {
		return "", ErrInvalidEmail
	}
	candidate := base
	for i := 1; ; i++ {
		taken, err := p.repo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
}

// HandleFromEmail derives a username from the local part of email, keeping
// letters, digits and . _ - only.
func HandleFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' {
			return unicode.ToLower(r)
		}
		return -1
	}, local)
}

// CheckPassword compares a plaintext password with the stored hash.
func CheckPassword(a *Account, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}
