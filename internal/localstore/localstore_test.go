package localstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestStore_SaveLoadDelete(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save("session", payload{Name: "ada", Count: 3}))

	var got payload
	require.NoError(t, s.Load("session", &got))
	assert.Equal(t, payload{Name: "ada", Count: 3}, got)

	require.NoError(t, s.Delete("session"))
	err = s.Load("session", &got)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStore_LoadMissingKey(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	var got payload
	assert.ErrorIs(t, s.Load("absent", &got), ErrKeyNotFound)
}

func TestSessionStore_Roundtrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	sessions := NewSessionStore(s)

	// Before anything was saved, loading yields empty without error.
	token, err := sessions.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, sessions.SaveToken("tok-abc"))
	token, err = sessions.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)

	require.NoError(t, sessions.DeleteToken())
	token, err = sessions.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStore_SaveOverwrites(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save("k", payload{Count: 1}))
	require.NoError(t, s.Save("k", payload{Count: 2}))

	var got payload
	require.NoError(t, s.Load("k", &got))
	assert.Equal(t, 2, got.Count)
}
