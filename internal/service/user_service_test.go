package service

import (
	"context"
	"testing"

	"github.com/penflow/penflow-sync-service/internal/dto"
	"github.com/penflow/penflow-sync-service/pkg/code"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_SignupAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	signup, err := env.user.Signup(ctx, &dto.UserSignupRequest{Name: "ada"}, "127.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, signup.LoginKey)
	require.NotEmpty(t, signup.Token)
	_, err = uuid.Parse(signup.LoginKey)
	assert.NoError(t, err, "login key is a uuid")

	// The signup token works immediately.
	session, err := env.session.Get(ctx, signup.Token)
	require.NoError(t, err)
	assert.Equal(t, signup.UID, session.UID)

	// Logging in with the stored key yields a fresh, distinct session.
	login, err := env.user.Login(ctx, &dto.UserLoginRequest{LoginKey: signup.LoginKey}, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, signup.UID, login.UID)
	assert.NotEqual(t, signup.Token, login.Token)
	assert.Empty(t, login.LoginKey, "the key is only revealed at signup")
}

func TestUser_PasswordProtectedLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	signup, err := env.user.Signup(ctx, &dto.UserSignupRequest{Name: "ada", Password: "hunter22"}, "127.0.0.1")
	require.NoError(t, err)

	_, err = env.user.Login(ctx, &dto.UserLoginRequest{LoginKey: signup.LoginKey}, "127.0.0.1")
	require.Error(t, err, "missing password is rejected")

	_, err = env.user.Login(ctx, &dto.UserLoginRequest{LoginKey: signup.LoginKey, Password: "wrong-pass"}, "127.0.0.1")
	require.Error(t, err)

	login, err := env.user.Login(ctx, &dto.UserLoginRequest{LoginKey: signup.LoginKey, Password: "hunter22"}, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, signup.UID, login.UID)
}

func TestUser_LoginUnknownKey(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.user.Login(context.Background(), &dto.UserLoginRequest{LoginKey: uuid.NewString()}, "127.0.0.1")
	require.Error(t, err)
	cerr, ok := err.(*code.Code)
	require.True(t, ok)
	assert.Equal(t, code.ErrorInvalidLoginKey.Code(), cerr.Code())
}

func TestUser_Logout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	signup, err := env.user.Signup(ctx, &dto.UserSignupRequest{Name: "ada"}, "127.0.0.1")
	require.NoError(t, err)

	require.NoError(t, env.user.Logout(ctx, signup.Token))

	_, err = env.session.Get(ctx, signup.Token)
	require.Error(t, err)

	// A second logout with the same token fails.
	require.Error(t, env.user.Logout(ctx, signup.Token))
}

func TestUser_SignupDisabled(t *testing.T) {
	env := newTestEnv(t)

	svc := NewUserService(env.users, env.session, nil, &ServiceConfig{
		User: UserServiceConfig{RegisterIsEnable: false},
	})

	_, err := svc.Signup(context.Background(), &dto.UserSignupRequest{Name: "ada"}, "127.0.0.1")
	require.Error(t, err)
	cerr, ok := err.(*code.Code)
	require.True(t, ok)
	assert.Equal(t, code.ErrorUserSignupDisabled.Code(), cerr.Code())
}
