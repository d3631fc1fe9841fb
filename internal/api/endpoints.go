package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"planner/internal/models"
)

// Session is the response shape shared by every login-ish endpoint.
type Session struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Picture     string             `json:"picture,omitempty"`
	Token       string             `json:"token"`
	Preferences models.Preferences `json:"preferences"`
}

// TaskPayload carries the fields for creating a task.
type TaskPayload struct {
	Title     string           `json:"title"`
	DayLabel  string           `json:"dayLabel,omitempty"`
	Date      string           `json:"date,omitempty"`
	Time      string           `json:"time,omitempty"`
	Color     string           `json:"color,omitempty"`
	TextColor string           `json:"textColor,omitempty"`
	Priority  string           `json:"priority,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	Links     []models.Link    `json:"links,omitempty"`
	Subtasks  []models.Subtask `json:"subtasks,omitempty"`
	Completed bool             `json:"completed,omitempty"`
	GoalTime  int64            `json:"goalTime,omitempty"`
	TimeSpent int64            `json:"timeSpent,omitempty"`
}

// TaskPatch carries only the task fields an update wants to change.
type TaskPatch struct {
	Title     *string           `json:"title,omitempty"`
	DayLabel  *string           `json:"dayLabel,omitempty"`
	Date      *string           `json:"date,omitempty"`
	Time      *string           `json:"time,omitempty"`
	Color     *string           `json:"color,omitempty"`
	TextColor *string           `json:"textColor,omitempty"`
	Priority  *string           `json:"priority,omitempty"`
	Notes     *string           `json:"notes,omitempty"`
	Links     *[]models.Link    `json:"links,omitempty"`
	Subtasks  *[]models.Subtask `json:"subtasks,omitempty"`
	Completed *bool             `json:"completed,omitempty"`
	GoalTime  *int64            `json:"goalTime,omitempty"`
	TimeSpent *int64            `json:"timeSpent,omitempty"`
}

// TodoQuery narrows and orders a task listing.
type TodoQuery struct {
	Date      string
	Priority  string
	Completed *bool
	Search    string
	Sort      string
}

func (q TodoQuery) values() url.Values {
	v := url.Values{}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	if q.Priority != "" {
		v.Set("priority", q.Priority)
	}
	if q.Completed != nil {
		v.Set("completed", strconv.FormatBool(*q.Completed))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	return v
}

// Register creates an account and stores the returned credential.
func (c *Client) Register(ctx context.Context, name, email, password string) (Session, error) {
	var sess Session
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	}, &sess)
	if err != nil {
		return Session{}, err
	}
	c.SetToken(sess.Token)
	return sess, nil
}

// Login authenticates with email and password and stores the credential.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var sess Session
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, &sess)
	if err != nil {
		return Session{}, err
	}
	c.SetToken(sess.Token)
	return sess, nil
}

// GoogleLogin exchanges a federated ID token for a session.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (Session, error) {
	var sess Session
	err := c.do(ctx, http.MethodPost, "/auth/google", map[string]string{"token": idToken}, &sess)
	if err != nil {
		return Session{}, err
	}
	c.SetToken(sess.Token)
	return sess, nil
}

// Me fetches the authenticated user's profile and preferences.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// ListTodos fetches the caller's tasks matching the query.
func (c *Client) ListTodos(ctx context.Context, q TodoQuery) ([]models.Task, error) {
	path := "/todos"
	if encoded := q.values().Encode(); encoded != "" {
		path += "?" + encoded
	}
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTodo creates a task and returns the server-confirmed entry.
func (c *Client) CreateTodo(ctx context.Context, payload TaskPayload) (models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPost, "/todos", payload, &t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// UpdateTodo merges the patch into the task and returns the result.
func (c *Client) UpdateTodo(ctx context.Context, id string, patch TaskPatch) (models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), patch, &t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// DeleteTodo removes a task.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil)
}

// ListRules fetches the caller's rules in display order.
func (c *Client) ListRules(ctx context.Context) ([]models.Rule, error) {
	var rules []models.Rule
	if err := c.do(ctx, http.MethodGet, "/rules", nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// CreateRule appends a rule to the caller's list.
func (c *Client) CreateRule(ctx context.Context, text string) (models.Rule, error) {
	var r models.Rule
	if err := c.do(ctx, http.MethodPost, "/rules", map[string]string{"text": text}, &r); err != nil {
		return models.Rule{}, err
	}
	return r, nil
}

// RulePatch carries only the rule fields an update wants to change.
type RulePatch struct {
	Text  *string `json:"text,omitempty"`
	Order *int64  `json:"order,omitempty"`
}

// UpdateRule merges the patch into a rule and returns the result.
func (c *Client) UpdateRule(ctx context.Context, id string, patch RulePatch) (models.Rule, error) {
	var r models.Rule
	if err := c.do(ctx, http.MethodPut, "/rules/"+url.PathEscape(id), patch, &r); err != nil {
		return models.Rule{}, err
	}
	return r, nil
}

// DeleteRule removes a rule.
func (c *Client) DeleteRule(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/rules/"+url.PathEscape(id), nil, nil)
}

// BackgroundPatch updates individual background fields.
type BackgroundPatch struct {
	Type  *string `json:"type,omitempty"`
	Value *string `json:"value,omitempty"`
}

// OverlayPatch updates individual overlay fields.
type OverlayPatch struct {
	Dim  *float64 `json:"dim,omitempty"`
	Blur *float64 `json:"blur,omitempty"`
}

// PreferencesPatch mirrors the server's deep-merge preference update body.
type PreferencesPatch struct {
	Theme      *string          `json:"theme,omitempty"`
	Font       *string          `json:"font,omitempty"`
	TextColor  *string          `json:"textColor,omitempty"`
	Background *BackgroundPatch `json:"background,omitempty"`
	Overlay    *OverlayPatch    `json:"overlay,omitempty"`
	AlarmSound *string          `json:"alarmSound,omitempty"`
}

// UpdatePreferences merges the patch server-side and returns the result.
func (c *Client) UpdatePreferences(ctx context.Context, patch PreferencesPatch) (models.Preferences, error) {
	var p models.Preferences
	if err := c.do(ctx, http.MethodPut, "/users/preferences", patch, &p); err != nil {
		return models.Preferences{}, err
	}
	return p, nil
}

// UploadResult is the response of a background upload.
type UploadResult struct {
	URL         string             `json:"url"`
	Preferences models.Preferences `json:"preferences"`
}

// UploadBackground sends an image as multipart form data.
func (c *Client) UploadBackground(ctx context.Context, filename string, content io.Reader) (UploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return UploadResult{}, fmt.Errorf("copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/users/upload/background", &buf)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result UploadResult
	if err := c.send(req, &result); err != nil {
		return UploadResult{}, err
	}
	return result, nil
}
