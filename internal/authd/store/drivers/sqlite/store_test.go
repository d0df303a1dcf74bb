package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bhalariaworks/authd/internal/authd/domain"
	"github.com/bhalariaworks/authd/internal/authd/store"
	"github.com/bhalariaworks/authd/pkg/idx"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func testAccount(email string) domain.Account {
	now := time.Now().UTC()
	return domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "hash",
		Role:         domain.RoleEmployee,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestAccountsRepo(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	acct := testAccount("alice@example.com")
	require.NoError(t, st.Accounts().CreateAccount(ctx, acct))

	t.Run("get by id", func(t *testing.T) {
		got, err := st.Accounts().GetAccountByID(ctx, acct.ID)
		require.NoError(t, err)
		require.Equal(t, acct.Email, got.Email)
		require.Nil(t, got.MFASecret)
		require.Nil(t, got.MFAVerifiedUntil)
	})

	t.Run("email lookup is case-insensitive", func(t *testing.T) {
		got, err := st.Accounts().GetAccountByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		require.Equal(t, acct.ID, got.ID)
	})

	t.Run("duplicate email maps to ErrAlreadyExists", func(t *testing.T) {
		dup := testAccount("alice@example.com")
		err := st.Accounts().CreateAccount(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("missing account maps to ErrNotFound", func(t *testing.T) {
		_, err := st.Accounts().GetAccountByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = st.Accounts().GetAccountByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("mfa lifecycle", func(t *testing.T) {
		until := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)

		require.NoError(t, st.Accounts().SetMFASecret(ctx, acct.ID, "JBSWY3DPEHPK3PXP"))
		require.NoError(t, st.Accounts().SetMFAVerified(ctx, acct.ID, until))

		got, err := st.Accounts().GetAccountByID(ctx, acct.ID)
		require.NoError(t, err)
		require.NotNil(t, got.MFASecret)
		require.True(t, got.MFAVerified)
		require.NotNil(t, got.MFAVerifiedUntil)
		require.WithinDuration(t, until, *got.MFAVerifiedUntil, time.Second)

		// Clearing the flag keeps the window
		require.NoError(t, st.Accounts().ClearMFAVerified(ctx, acct.ID))
		got, err = st.Accounts().GetAccountByID(ctx, acct.ID)
		require.NoError(t, err)
		require.False(t, got.MFAVerified)
		require.NotNil(t, got.MFAVerifiedUntil)

		// Revoking drops the window too
		require.NoError(t, st.Accounts().RevokeMFAWindow(ctx, acct.ID))
		got, err = st.Accounts().GetAccountByID(ctx, acct.ID)
		require.NoError(t, err)
		require.Nil(t, got.MFAVerifiedUntil)
	})

	t.Run("is empty", func(t *testing.T) {
		empty, err := st.Accounts().IsEmpty(ctx)
		require.NoError(t, err)
		require.False(t, empty)

		fresh := newStore(t)
		empty, err = fresh.Accounts().IsEmpty(ctx)
		require.NoError(t, err)
		require.True(t, empty)
	})
}

func TestOtpChallengesRepo(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	c := domain.OtpChallenge{
		Email:     "bob@example.com",
		CodeHash:  "hash-1",
		CreatedAt: now,
		ExpiresAt: now.Add(5 * time.Minute),
	}
	require.NoError(t, st.OtpChallenges().UpsertChallenge(ctx, c))

	t.Run("upsert replaces the live challenge", func(t *testing.T) {
		c2 := c
		c2.CodeHash = "hash-2"
		require.NoError(t, st.OtpChallenges().UpsertChallenge(ctx, c2))

		got, err := st.OtpChallenges().GetChallenge(ctx, "bob@example.com")
		require.NoError(t, err)
		require.Equal(t, "hash-2", got.CodeHash)
		require.Zero(t, got.Attempts)
	})

	t.Run("increment returns the updated row", func(t *testing.T) {
		got, err := st.OtpChallenges().IncrementChallengeAttempts(ctx, "bob@example.com")
		require.NoError(t, err)
		require.Equal(t, 1, got.Attempts)

		got, err = st.OtpChallenges().IncrementChallengeAttempts(ctx, "bob@example.com")
		require.NoError(t, err)
		require.Equal(t, 2, got.Attempts)
	})

	t.Run("block", func(t *testing.T) {
		require.NoError(t, st.OtpChallenges().BlockChallenge(ctx, "bob@example.com"))

		got, err := st.OtpChallenges().GetChallenge(ctx, "bob@example.com")
		require.NoError(t, err)
		require.True(t, got.Blocked)
	})

	t.Run("delete consumes", func(t *testing.T) {
		require.NoError(t, st.OtpChallenges().DeleteChallenge(ctx, "bob@example.com"))

		_, err := st.OtpChallenges().GetChallenge(ctx, "bob@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("expired purge", func(t *testing.T) {
		stale := domain.OtpChallenge{
			Email:     "stale@example.com",
			CodeHash:  "hash",
			CreatedAt: now.Add(-time.Hour),
			ExpiresAt: now.Add(-30 * time.Minute),
		}
		require.NoError(t, st.OtpChallenges().UpsertChallenge(ctx, stale))
		require.NoError(t, st.OtpChallenges().DeleteExpiredChallenges(ctx))

		_, err := st.OtpChallenges().GetChallenge(ctx, "stale@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestLoginAttemptsRepo(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, st.LoginAttempts().RecordAttempt(ctx, domain.LoginAttempt{
			ID:        idx.New().String(),
			Email:     "carol@example.com",
			CreatedAt: now.Add(time.Duration(-i) * time.Minute),
		}))
	}

	t.Run("count inside window", func(t *testing.T) {
		count, err := st.LoginAttempts().CountAttemptsSince(ctx, "carol@example.com", now.Add(-90*time.Second))
		require.NoError(t, err)
		require.Equal(t, 2, count)
	})

	t.Run("other emails unaffected", func(t *testing.T) {
		count, err := st.LoginAttempts().CountAttemptsSince(ctx, "other@example.com", now.Add(-time.Hour))
		require.NoError(t, err)
		require.Zero(t, count)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, st.LoginAttempts().ClearAttempts(ctx, "carol@example.com"))

		count, err := st.LoginAttempts().CountAttemptsSince(ctx, "carol@example.com", now.Add(-time.Hour))
		require.NoError(t, err)
		require.Zero(t, count)
	})

	t.Run("purge before cutoff", func(t *testing.T) {
		old := domain.LoginAttempt{
			ID:        idx.New().String(),
			Email:     "dave@example.com",
			CreatedAt: now.Add(-48 * time.Hour),
		}
		require.NoError(t, st.LoginAttempts().RecordAttempt(ctx, old))
		require.NoError(t, st.LoginAttempts().DeleteAttemptsBefore(ctx, now.Add(-24*time.Hour)))

		count, err := st.LoginAttempts().CountAttemptsSince(ctx, "dave@example.com", now.Add(-72*time.Hour))
		require.NoError(t, err)
		require.Zero(t, count)
	})
}

func TestResetAuditsRepo(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	acct := testAccount("erin@example.com")
	require.NoError(t, st.Accounts().CreateAccount(ctx, acct))

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.ResetAudits().CreateResetAudit(ctx, domain.ResetAudit{
			ID:        idx.New().String(),
			AccountID: acct.ID,
			Email:     acct.Email,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	audits, err := st.ResetAudits().ListResetAudits(ctx, 2)
	require.NoError(t, err)
	require.Len(t, audits, 2)
	// Newest first
	require.True(t, audits[0].CreatedAt.After(audits[1].CreatedAt))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	sentinel := errors.New("boom")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().CreateAccount(ctx, testAccount("tx@example.com")); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = st.Accounts().GetAccountByEmail(ctx, "tx@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	err := st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Accounts().CreateAccount(ctx, testAccount("committed@example.com"))
	})
	require.NoError(t, err)

	_, err = st.Accounts().GetAccountByEmail(ctx, "committed@example.com")
	require.NoError(t, err)
}
