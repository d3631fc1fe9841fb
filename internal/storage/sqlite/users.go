package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"planner/internal/models"
)

// BackgroundPatch updates individual background fields.
type BackgroundPatch struct {
	Type  *string `json:"type"`
	Value *string `json:"value"`
}

// OverlayPatch updates individual overlay fields.
type OverlayPatch struct {
	Dim  *float64 `json:"dim"`
	Blur *float64 `json:"blur"`
}

// PreferencesPatch carries only the preference fields a caller wants to
// change. Nil pointers leave the stored value untouched.
type PreferencesPatch struct {
	Theme      *string          `json:"theme"`
	Font       *string          `json:"font"`
	TextColor  *string          `json:"textColor"`
	Background *BackgroundPatch `json:"background"`
	Overlay    *OverlayPatch    `json:"overlay"`
	AlarmSound *string          `json:"alarmSound"`
}

// CreateUser registers a new account with a locally hashed password.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || passwordHash == "" {
		return models.User{}, fmt.Errorf("name, email and password are required")
	}

	u := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Preferences:  models.DefaultPreferences(),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return models.User{}, fmt.Errorf("encode preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO users(id, name, email, password_hash, preferences, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?)`, u.ID, u.Name, u.Email, u.PasswordHash, string(prefs), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// UpsertGoogleUser finds a user by email, recording the federated subject ID,
// or creates a fresh account for a first federated login. The second return
// reports whether a new account was created.
func (s *Store) UpsertGoogleUser(ctx context.Context, name, email, googleID, picture string) (models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || googleID == "" {
		return models.User{}, false, fmt.Errorf("email and subject are required")
	}

	existing, err := s.GetUserByEmail(ctx, email)
	if err == nil {
		_, err = s.db.ExecContext(ctx, `UPDATE users SET google_id = ?, picture = ?, updated_at = ? WHERE id = ?`,
			googleID, picture, time.Now().UTC(), existing.ID)
		if err != nil {
			return models.User{}, false, fmt.Errorf("link google account: %w", err)
		}
		existing.GoogleID = googleID
		existing.Picture = picture
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.User{}, false, err
	}

	u := models.User{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       email,
		GoogleID:    googleID,
		Picture:     picture,
		Preferences: models.DefaultPreferences(),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return models.User{}, false, fmt.Errorf("encode preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO users(id, name, email, google_id, picture, preferences, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?)`, u.ID, u.Name, u.Email, u.GoogleID, u.Picture, string(prefs), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return models.User{}, false, fmt.Errorf("insert user: %w", err)
	}
	return u, true, nil
}

// GetUser fetches a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail fetches a user by lowercased email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getUser(ctx, `WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (models.User, error) {
	var (
		u     models.User
		prefs string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, email, password_hash, google_id, picture, preferences, created_at, updated_at FROM users `+where, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.GoogleID, &u.Picture, &prefs, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	if err := json.Unmarshal([]byte(prefs), &u.Preferences); err != nil {
		return models.User{}, fmt.Errorf("decode preferences: %w", err)
	}
	return u, nil
}

// UpdatePreferences merges the patch into the user's stored preferences.
// Unspecified fields, including nested background and overlay fields, keep
// their previous values.
func (s *Store) UpdatePreferences(ctx context.Context, userID string, patch PreferencesPatch) (models.Preferences, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return models.Preferences{}, err
	}

	p := u.Preferences
	if patch.Theme != nil {
		if _, ok := models.ValidThemes[*patch.Theme]; !ok {
			return models.Preferences{}, fmt.Errorf("unknown theme %q", *patch.Theme)
		}
		p.Theme = *patch.Theme
	}
	if patch.Font != nil {
		p.Font = *patch.Font
	}
	if patch.TextColor != nil {
		p.TextColor = *patch.TextColor
	}
	if patch.Background != nil {
		if patch.Background.Type != nil {
			p.Background.Type = *patch.Background.Type
		}
		if patch.Background.Value != nil {
			p.Background.Value = *patch.Background.Value
		}
	}
	if patch.Overlay != nil {
		if patch.Overlay.Dim != nil {
			p.Overlay.Dim = *patch.Overlay.Dim
		}
		if patch.Overlay.Blur != nil {
			p.Overlay.Blur = *patch.Overlay.Blur
		}
	}
	if patch.AlarmSound != nil {
		p.AlarmSound = *patch.AlarmSound
	}

	if err := s.savePreferences(ctx, userID, p); err != nil {
		return models.Preferences{}, err
	}
	return p, nil
}

// SetBackgroundUpload records an uploaded background image URL in the user's
// preferences and returns the updated document.
func (s *Store) SetBackgroundUpload(ctx context.Context, userID, url string) (models.Preferences, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return models.Preferences{}, err
	}

	p := u.Preferences
	p.Background = models.Background{Type: "upload", Value: url}

	if err := s.savePreferences(ctx, userID, p); err != nil {
		return models.Preferences{}, err
	}
	return p, nil
}

func (s *Store) savePreferences(ctx context.Context, userID string, p models.Preferences) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET preferences = ?, updated_at = ? WHERE id = ?`,
		string(raw), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	return nil
}
