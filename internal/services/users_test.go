package futurecash

import (
	"context"
	"testing"
	"time"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	ctx := context.Background()

	session, err := e.users.Register(ctx, "New@Example.com", "secret123", "New User", "")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, "new@example.com", session.User.Email)
	require.Len(t, session.User.ReferralCode, 8)
	require.NotEqual(t, "secret123", session.User.PasswordHash)

	_, err = e.users.Register(ctx, "new@example.com", "other", "Again", "")
	require.ErrorIs(t, err, model.ErrDuplicate)

	_, err = e.users.Register(ctx, "", "x", "y", "")
	require.ErrorIs(t, err, model.ErrBadRequest)

	login, err := e.users.Login(ctx, "new@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, session.User.ID, login.User.ID)

	_, err = e.users.Login(ctx, "new@example.com", "wrong")
	require.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = e.users.Login(ctx, "missing@example.com", "secret123")
	require.ErrorIs(t, err, model.ErrUnauthorized)

	e.requireReconciled(t, session.User)
}

func TestRegisterWithReferral(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	ctx := context.Background()
	referrer := e.addUser(t, "referrer@example.com", 72*time.Hour)

	session, err := e.users.Register(ctx, "friend@example.com", "secret123", "Friend", referrer.ReferralCode)
	require.NoError(t, err)
	require.NotNil(t, session.User.ReferredBy)
	require.Equal(t, referrer.ID, *session.User.ReferredBy)

	// неверный код не мешает регистрации
	other, err := e.users.Register(ctx, "other@example.com", "secret123", "Other", "NOPE")
	require.NoError(t, err)
	require.Nil(t, other.User.ReferredBy)

	info, err := e.referrals.GetReferrals(ctx, referrer.ID)
	require.NoError(t, err)
	require.Equal(t, 1, info.TotalReferrals)
}
