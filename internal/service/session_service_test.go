package service

import (
	"context"
	"testing"
	"time"

	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/pkg/code"
	"github.com/penflow/penflow-sync-service/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.session.Create(ctx, 1, "127.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	assert.Len(t, session.Token, 64, "32 random bytes hex encoded")

	got, err := env.session.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UID)
}

func TestSession_GetUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.session.Get(context.Background(), "no-such-token")
	require.Error(t, err)
	cerr, ok := err.(*code.Code)
	require.True(t, ok)
	assert.Equal(t, code.ErrorSessionNotFound.Code(), cerr.Code())
}

func TestSession_DeleteIsNotIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.session.Create(ctx, 1, "127.0.0.1")
	require.NoError(t, err)

	removed, err := env.session.Delete(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Token, removed.Token, "the removed record comes back")

	// The second delete must fail: the token no longer names a session.
	_, err = env.session.Delete(ctx, session.Token)
	require.Error(t, err)
	cerr, ok := err.(*code.Code)
	require.True(t, ok)
	assert.Equal(t, code.ErrorSessionNotFound.Code(), cerr.Code())
}

func TestSession_Exists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.session.Create(ctx, 1, "127.0.0.1")
	require.NoError(t, err)

	ok, err := env.session.Exists(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.session.Exists(ctx, "no-such-token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_CleanupExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	live, err := env.session.Create(ctx, 1, "127.0.0.1")
	require.NoError(t, err)

	_, err = env.sessions.Create(ctx, &domain.Session{
		UID:       2,
		Token:     util.NewSessionToken(),
		ExpiredAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	removed, err := env.session.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = env.session.Get(ctx, live.Token)
	assert.NoError(t, err)
}

func TestSession_ExpiredTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	expired, err := env.sessions.Create(ctx, &domain.Session{
		UID:       1,
		Token:     util.NewSessionToken(),
		ExpiredAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	_, err = env.session.Get(ctx, expired.Token)
	require.Error(t, err)
}
