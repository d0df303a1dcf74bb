package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bhalariaworks/authd/internal/authd/domain"
	"github.com/bhalariaworks/authd/internal/authd/store"
	"github.com/bhalariaworks/authd/pkg/cryptox"
	"github.com/bhalariaworks/authd/pkg/idx"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

var (
	ErrEmailTaken          = errors.New("email_taken")
	ErrWeakPassword        = errors.New("weak_password")
	ErrAlreadyBootstrapped = errors.New("accounts already exist")
)

const minPasswordLength = 8

// AccountService manages workforce account records.
type AccountService struct {
	Store store.Store
}

// CreateParams are the inputs for provisioning a new account.
type CreateParams struct {
	Email      string
	Password   string
	Role       domain.Role
	MFAEnabled bool
}

// Create provisions an account with a hashed password.
func (s *AccountService) Create(ctx context.Context, p CreateParams) (domain.Account, error) {
	log := slogx.FromContext(ctx)

	email := strings.TrimSpace(strings.ToLower(p.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Account{}, fmt.Errorf("invalid email %q", p.Email)
	}
	if len(p.Password) < minPasswordLength {
		return domain.Account{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	acct := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         p.Role,
		MFAEnabled:   p.MFAEnabled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrEmailTaken
		}
		return domain.Account{}, err
	}

	log.Info("account created", "account_id", acct.ID, "role", acct.Role)
	return acct, nil
}

// Bootstrap provisions the first admin account on an empty store so a
// fresh deployment is reachable. A non-empty store is left untouched.
func (s *AccountService) Bootstrap(ctx context.Context, email, password string) (domain.Account, error) {
	empty, err := s.Store.Accounts().IsEmpty(ctx)
	if err != nil {
		return domain.Account{}, err
	}
	if !empty {
		return domain.Account{}, ErrAlreadyBootstrapped
	}

	return s.Create(ctx, CreateParams{
		Email:      email,
		Password:   password,
		Role:       domain.RoleAdmin,
		MFAEnabled: true,
	})
}

// Get returns a single account by id.
func (s *AccountService) Get(ctx context.Context, id string) (domain.Account, error) {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, err
	}
	return acct, nil
}

// LookupRole resolves an account's role and the route it lands on. Unknown
// or missing accounts resolve to the unauthorized route rather than an
// error so the caller can redirect uniformly.
func (s *AccountService) LookupRole(ctx context.Context, id string) (domain.Role, string, error) {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RoleUnknown, domain.RouteUnauthorized, nil
		}
		return domain.RoleUnknown, "", err
	}
	return acct.Role, acct.Role.Destination(), nil
}
