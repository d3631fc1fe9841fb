package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"planner/internal/models"
)

// ListRules returns the caller's rules in display order.
func (s *Store) ListRules(ctx context.Context, userID string) ([]models.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, text, ord, created_at, updated_at
        FROM rules WHERE user_id = ? ORDER BY ord, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	rules := []models.Rule{}
	for rows.Next() {
		var r models.Rule
		if err := rows.Scan(&r.ID, &r.UserID, &r.Text, &r.Order, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// CreateRule appends a rule at the end of the user's list.
func (s *Store) CreateRule(ctx context.Context, userID, text string) (models.Rule, error) {
	if strings.TrimSpace(text) == "" {
		return models.Rule{}, fmt.Errorf("text must not be empty")
	}

	var max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(ord) FROM rules WHERE user_id = ?`, userID).Scan(&max); err != nil {
		return models.Rule{}, fmt.Errorf("select order: %w", err)
	}
	order := int64(0)
	if max.Valid {
		order = max.Int64 + 1
	}

	r := models.Rule{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      strings.TrimSpace(text),
		Order:     order,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO rules(id, user_id, text, ord, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?)`, r.ID, r.UserID, r.Text, r.Order, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return models.Rule{}, fmt.Errorf("insert rule: %w", err)
	}
	return r, nil
}

// RulePatch carries the rule fields an update wants to change.
type RulePatch struct {
	Text  *string `json:"text"`
	Order *int64  `json:"order"`
}

// UpdateRule merges the patch into an owned rule.
func (s *Store) UpdateRule(ctx context.Context, userID, id string, patch RulePatch) (models.Rule, error) {
	r, err := s.getRule(ctx, userID, id)
	if err != nil {
		return models.Rule{}, err
	}

	if patch.Text != nil && strings.TrimSpace(*patch.Text) != "" {
		r.Text = strings.TrimSpace(*patch.Text)
	}
	if patch.Order != nil {
		r.Order = *patch.Order
	}
	r.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `UPDATE rules SET text = ?, ord = ?, updated_at = ? WHERE id = ?`,
		r.Text, r.Order, r.UpdatedAt, id)
	if err != nil {
		return models.Rule{}, fmt.Errorf("update rule: %w", err)
	}
	return r, nil
}

// DeleteRule removes an owned rule.
func (s *Store) DeleteRule(ctx context.Context, userID, id string) error {
	if _, err := s.getRule(ctx, userID, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}

func (s *Store) getRule(ctx context.Context, userID, id string) (models.Rule, error) {
	var r models.Rule
	err := s.db.QueryRowContext(ctx, `SELECT id, user_id, text, ord, created_at, updated_at FROM rules WHERE id = ?`, id).
		Scan(&r.ID, &r.UserID, &r.Text, &r.Order, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Rule{}, ErrNotFound
	}
	if err != nil {
		return models.Rule{}, fmt.Errorf("get rule: %w", err)
	}
	if r.UserID != userID {
		return models.Rule{}, ErrNotOwned
	}
	return r, nil
}
