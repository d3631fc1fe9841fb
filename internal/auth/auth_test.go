package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueVerifyRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	raw, err := tokens.Issue("user-1")
	require.NoError(t, err)

	userID, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokens_RejectsExpired(t *testing.T) {
	tokens := NewTokens("test-secret", -time.Minute)

	raw, err := tokens.Issue("user-1")
	require.NoError(t, err)

	_, err = tokens.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsWrongSecret(t *testing.T) {
	raw, err := NewTokens("secret-a", time.Hour).Issue("user-1")
	require.NoError(t, err)

	_, err = NewTokens("secret-b", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsGarbage(t *testing.T) {
	_, err := NewTokens("secret", time.Hour).Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestPasswordTooShort(t *testing.T) {
	_, err := HashPassword("abc")
	assert.Error(t, err)
}

func TestTokenInfoVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"sub":"g-123","email":"ada@example.com","name":"Ada","picture":"p.png"}`))
	}))
	defer srv.Close()

	v := &TokenInfoVerifier{Endpoint: srv.URL, Client: srv.Client()}

	identity, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "g-123", identity.Subject)
	assert.Equal(t, "ada@example.com", identity.Email)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
