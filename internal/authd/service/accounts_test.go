package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bhalariaworks/authd/internal/authd/domain"
)

func TestAccountCreate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &AccountService{Store: st}

	acct, err := svc.Create(ctx, CreateParams{
		Email:    "Alice@Example.com",
		Password: "long-enough-pw",
		Role:     domain.RoleHR,
	})
	require.NoError(t, err)
	require.NotEmpty(t, acct.ID)
	require.Equal(t, "alice@example.com", acct.Email)
	require.Equal(t, domain.RoleHR, acct.Role)

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateParams{
			Email:    "alice@example.com",
			Password: "long-enough-pw",
			Role:     domain.RoleEmployee,
		})
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("short password rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateParams{
			Email:    "bob@example.com",
			Password: "short",
			Role:     domain.RoleEmployee,
		})
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateParams{
			Email:    "not-an-email",
			Password: "long-enough-pw",
			Role:     domain.RoleEmployee,
		})
		require.Error(t, err)
	})
}

func TestAccountBootstrap(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &AccountService{Store: st}

	acct, err := svc.Bootstrap(ctx, "admin@example.com", "long-enough-pw")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, acct.Role)
	require.True(t, acct.MFAEnabled)

	t.Run("populated store left untouched", func(t *testing.T) {
		_, err := svc.Bootstrap(ctx, "second@example.com", "long-enough-pw")
		require.ErrorIs(t, err, ErrAlreadyBootstrapped)

		_, err = st.Accounts().GetAccountByEmail(ctx, "second@example.com")
		require.Error(t, err)
	})
}

func TestAccountLookupRole(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &AccountService{Store: st}

	acct := seedAccount(t, st, "hr@example.com", "long-enough-pw", domain.RoleHR, false)

	role, route, err := svc.LookupRole(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleHR, role)
	require.Equal(t, domain.RouteHR, route)

	t.Run("unknown account falls back to unauthorized", func(t *testing.T) {
		role, route, err := svc.LookupRole(ctx, "missing-id")
		require.NoError(t, err)
		require.Equal(t, domain.RoleUnknown, role)
		require.Equal(t, domain.RouteUnauthorized, route)
	})
}

func TestAccountGet(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &AccountService{Store: st}

	acct := seedAccount(t, st, "emp@example.com", "long-enough-pw", domain.RoleEmployee, false)

	got, err := svc.Get(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, acct.Email, got.Email)

	_, err = svc.Get(ctx, "missing-id")
	require.ErrorIs(t, err, ErrAccountNotFound)
}
