package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/localstore"
)

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	c.SetToken("abc123")

	_, err := c.ListTodos(context.Background(), TodoQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", gotAuth)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	_, err := c.ListTodos(context.Background(), TodoQuery{})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_UnauthorizedClearsTokenAndFiresHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"not authorized, token failed"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	c.SetToken("expired")

	hookFired := false
	c.OnUnauthorized(func() { hookFired = true })

	_, err := c.ListTodos(context.Background(), TodoQuery{})

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.True(t, hookFired)
	assert.Empty(t, c.Token(), "credential is cleared")
}

func TestClient_ErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"please add a title"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	_, err := c.CreateTodo(context.Background(), TaskPayload{})

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "please add a title", apiErr.Message)
}

func TestClient_LoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"u1","name":"Ada","email":"ada@example.com","token":"tok"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	sess, err := c.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, "tok", c.Token())
}

func TestClient_ListTodosQueryEncoding(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	completed := false
	c := New(srv.URL, srv.Client())
	_, err := c.ListTodos(context.Background(), TodoQuery{
		Priority:  "P1",
		Completed: &completed,
		Search:    "milk",
		Sort:      "date,-priority",
	})
	require.NoError(t, err)
	assert.Equal(t, "P1", gotQuery.Get("priority"))
	assert.Equal(t, "false", gotQuery.Get("completed"))
	assert.Equal(t, "milk", gotQuery.Get("search"))
	assert.Equal(t, "date,-priority", gotQuery.Get("sort"))
}

func TestClient_SessionSurvivesRestart(t *testing.T) {
	ls, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	sessions := localstore.NewSessionStore(ls)

	c := New("http://localhost", nil)
	require.NoError(t, c.UseTokenStore(sessions))
	assert.Empty(t, c.Token(), "fresh store carries no session")
	c.SetToken("tok-123")

	// A new client over the same storage resumes the session.
	restarted := New("http://localhost", nil)
	require.NoError(t, restarted.UseTokenStore(sessions))
	assert.Equal(t, "tok-123", restarted.Token())

	// Logging out clears the persisted session too.
	restarted.ClearToken()
	third := New("http://localhost", nil)
	require.NoError(t, third.UseTokenStore(sessions))
	assert.Empty(t, third.Token())
}

func TestClient_UnauthorizedWipesPersistedSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"not authorized, token failed"}`))
	}))
	defer srv.Close()

	ls, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	sessions := localstore.NewSessionStore(ls)

	c := New(srv.URL, srv.Client())
	require.NoError(t, c.UseTokenStore(sessions))
	c.SetToken("expired")

	_, err = c.ListTodos(context.Background(), TodoQuery{})
	require.Error(t, err)

	restarted := New(srv.URL, srv.Client())
	require.NoError(t, restarted.UseTokenStore(sessions))
	assert.Empty(t, restarted.Token(), "rejected credential is not resumed")
}

func TestIsConnectivityError(t *testing.T) {
	// Unreachable server yields a transport error.
	c := New("http://127.0.0.1:1", nil)
	_, err := c.ListTodos(context.Background(), TodoQuery{})
	require.Error(t, err)
	assert.True(t, IsConnectivityError(err))

	// Backend rejections are not connectivity failures.
	assert.False(t, IsConnectivityError(&Error{Status: 500, Message: "boom"}))
	assert.False(t, IsConnectivityError(nil))
	assert.False(t, IsConnectivityError(errors.New("some app error")))
}
