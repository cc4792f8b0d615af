package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareToken_RoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, "penflow-sync-service")

	token, err := m.GenerateShareToken("changeset-42", 7)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ParseShareToken(token)
	require.NoError(t, err)
	assert.Equal(t, "changeset-42", claims.ChangesetID)
	assert.Equal(t, int64(7), claims.UID)
	assert.Equal(t, "penflow-sync-service", claims.Issuer)
}

func TestShareToken_Expired(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute, "penflow-sync-service")

	token, err := m.GenerateShareToken("changeset-42", 7)
	require.NoError(t, err)

	_, err = m.ParseShareToken(token)
	assert.Error(t, err)
}

func TestShareToken_WrongKey(t *testing.T) {
	issuerA := NewTokenManager("secret-a", time.Hour, "penflow-sync-service")
	issuerB := NewTokenManager("secret-b", time.Hour, "penflow-sync-service")

	token, err := issuerA.GenerateShareToken("changeset-42", 7)
	require.NoError(t, err)

	_, err = issuerB.ParseShareToken(token)
	assert.Error(t, err)
}

func TestShareToken_Garbage(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, "penflow-sync-service")

	_, err := m.ParseShareToken("not.a.token")
	assert.Error(t, err)
}
