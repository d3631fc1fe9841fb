package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestUser(t *testing.T, s *Store, email string) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), "Test User", email, "hash")
	require.NoError(t, err)
	return u
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "A", "a@example.com", "hash")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "B", "A@Example.com", "hash")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateUser_DefaultPreferences(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")

	got, err := s.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "calm", got.Preferences.Theme)
	assert.Equal(t, "none", got.Preferences.Background.Type)
	assert.Equal(t, "beep", got.Preferences.AlarmSound)
}

func TestUpsertGoogleUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, created, err := s.UpsertGoogleUser(ctx, "Ada", "ada@example.com", "g-1", "pic.png")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "g-1", u.GoogleID)

	// Second federated login links to the same account.
	again, created, err := s.UpsertGoogleUser(ctx, "Ada", "ada@example.com", "g-1", "pic2.png")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "pic2.png", again.Picture)
}

func TestTodoRoundTrip(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")
	ctx := context.Background()

	created, err := s.CreateTodo(ctx, u.ID, models.Task{
		Title:    "Buy milk",
		Priority: models.PriorityP2,
		Date:     "2024-05-01",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := s.GetTodo(ctx, u.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, models.PriorityP2, got.Priority)
	assert.Equal(t, "2024-05-01", got.Date)
	assert.Equal(t, "Today", got.DayLabel)
	assert.Equal(t, "#ffffff", got.Color)
	assert.False(t, got.Completed)
}

func TestCreateTodo_RequiresTitle(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")

	_, err := s.CreateTodo(context.Background(), u.ID, models.Task{Title: "   "})
	assert.Error(t, err)
}

func TestListTodos_Filters(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")
	ctx := context.Background()

	seed := []models.Task{
		{Title: "urgent open", Priority: "P1", Date: "2024-05-01"},
		{Title: "urgent done", Priority: "P1", Date: "2024-05-01", Completed: true},
		{Title: "later", Priority: "P3", Date: "2024-05-02", Notes: "call the plumber"},
	}
	for _, task := range seed {
		_, err := s.CreateTodo(ctx, u.ID, task)
		require.NoError(t, err)
	}

	completed := false
	got, err := s.ListTodos(ctx, u.ID, TodoFilter{Priority: "P1", Completed: &completed})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "urgent open", got[0].Title)

	got, err = s.ListTodos(ctx, u.ID, TodoFilter{Date: "2024-05-02"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "later", got[0].Title)

	// Case-insensitive substring search covers title and notes.
	got, err = s.ListTodos(ctx, u.ID, TodoFilter{Search: "PLUMBER"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "later", got[0].Title)
}

func TestListTodos_Sort(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")
	ctx := context.Background()

	for _, task := range []models.Task{
		{Title: "b", Priority: "P2", Date: "2024-05-02"},
		{Title: "a", Priority: "P1", Date: "2024-05-03"},
		{Title: "c", Priority: "P3", Date: "2024-05-01"},
	} {
		_, err := s.CreateTodo(ctx, u.ID, task)
		require.NoError(t, err)
	}

	got, err := s.ListTodos(ctx, u.ID, TodoFilter{Sort: "-date"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Title, got[1].Title, got[2].Title})

	got, err = s.ListTodos(ctx, u.ID, TodoFilter{Sort: "priority"})
	require.NoError(t, err)
	assert.Equal(t, "P1", got[0].Priority)

	// Unknown fields fall back to the default ordering.
	got, err = s.ListTodos(ctx, u.ID, TodoFilter{Sort: "evil; DROP TABLE todos"})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", got[0].Date)
}

func TestUpdateTodo_MergesFields(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")
	ctx := context.Background()

	created, err := s.CreateTodo(ctx, u.ID, models.Task{Title: "draft", Notes: "keep me"})
	require.NoError(t, err)

	title := "final"
	completed := true
	got, err := s.UpdateTodo(ctx, u.ID, created.ID, TaskPatch{Title: &title, Completed: &completed})
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.True(t, got.Completed)
	assert.Equal(t, "keep me", got.Notes)
}

func TestTodoOwnership(t *testing.T) {
	s := newTestStore(t)
	owner := newTestUser(t, s, "owner@example.com")
	other := newTestUser(t, s, "other@example.com")
	ctx := context.Background()

	created, err := s.CreateTodo(ctx, owner.ID, models.Task{Title: "mine"})
	require.NoError(t, err)

	title := "stolen"
	_, err = s.UpdateTodo(ctx, other.ID, created.ID, TaskPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotOwned)

	err = s.DeleteTodo(ctx, other.ID, created.ID)
	assert.ErrorIs(t, err, ErrNotOwned)

	// The document is unmodified.
	got, err := s.GetTodo(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)

	list, err := s.ListTodos(ctx, other.ID, TodoFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteTodo(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")
	ctx := context.Background()

	created, err := s.CreateTodo(ctx, u.ID, models.Task{Title: "gone soon"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTodo(ctx, u.ID, created.ID))

	_, err = s.GetTodo(ctx, u.ID, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.DeleteTodo(ctx, u.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRules_OrderAssignment(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")
	ctx := context.Background()

	first, err := s.CreateRule(ctx, u.ID, "Drink water")
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Order)

	second, err := s.CreateRule(ctx, u.ID, "Read a book")
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Order)

	rules, err := s.ListRules(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "Drink water", rules[0].Text)
}

func TestRules_Ownership(t *testing.T) {
	s := newTestStore(t)
	owner := newTestUser(t, s, "owner@example.com")
	other := newTestUser(t, s, "other@example.com")
	ctx := context.Background()

	rule, err := s.CreateRule(ctx, owner.ID, "mine")
	require.NoError(t, err)

	text := "stolen"
	_, err = s.UpdateRule(ctx, other.ID, rule.ID, RulePatch{Text: &text})
	assert.ErrorIs(t, err, ErrNotOwned)

	assert.ErrorIs(t, s.DeleteRule(ctx, other.ID, rule.ID), ErrNotOwned)
}

func TestUpdatePreferences_DeepMerge(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")
	ctx := context.Background()

	// Establish an uploaded background first.
	bgType := "upload"
	bgValue := "x"
	_, err := s.UpdatePreferences(ctx, u.ID, PreferencesPatch{
		Background: &BackgroundPatch{Type: &bgType, Value: &bgValue},
	})
	require.NoError(t, err)

	// Changing the theme must not erase the background.
	theme := "dark"
	prefs, err := s.UpdatePreferences(ctx, u.ID, PreferencesPatch{Theme: &theme})
	require.NoError(t, err)
	assert.Equal(t, "dark", prefs.Theme)
	assert.Equal(t, models.Background{Type: "upload", Value: "x"}, prefs.Background)
}

func TestUpdatePreferences_NestedOverlay(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")
	ctx := context.Background()

	dim := 0.5
	prefs, err := s.UpdatePreferences(ctx, u.ID, PreferencesPatch{Overlay: &OverlayPatch{Dim: &dim}})
	require.NoError(t, err)
	assert.Equal(t, 0.5, prefs.Overlay.Dim)

	blur := 2.0
	prefs, err = s.UpdatePreferences(ctx, u.ID, PreferencesPatch{Overlay: &OverlayPatch{Blur: &blur}})
	require.NoError(t, err)
	assert.Equal(t, 0.5, prefs.Overlay.Dim, "dim survives a blur-only patch")
	assert.Equal(t, 2.0, prefs.Overlay.Blur)
}

func TestUpdatePreferences_EmptyTextColorAllowed(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")
	ctx := context.Background()

	color := "#ff0000"
	_, err := s.UpdatePreferences(ctx, u.ID, PreferencesPatch{TextColor: &color})
	require.NoError(t, err)

	empty := ""
	prefs, err := s.UpdatePreferences(ctx, u.ID, PreferencesPatch{TextColor: &empty})
	require.NoError(t, err)
	assert.Equal(t, "", prefs.TextColor)
}

func TestUpdatePreferences_RejectsUnknownTheme(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")

	theme := "neon"
	_, err := s.UpdatePreferences(context.Background(), u.ID, PreferencesPatch{Theme: &theme})
	assert.Error(t, err)
}

func TestSetBackgroundUpload(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "a@example.com")

	prefs, err := s.SetBackgroundUpload(context.Background(), u.ID, "/uploads/bg.png")
	require.NoError(t, err)
	assert.Equal(t, models.Background{Type: "upload", Value: "/uploads/bg.png"}, prefs.Background)
}
