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

// TodoFilter narrows and orders a user's task listing.
type TodoFilter struct {
	Date      string
	Priority  string
	Completed *bool
	Search    string
	// Sort is a comma-separated field list; a leading '-' flips a field to
	// descending, e.g. "date,-priority".
	Sort string
}

// sortColumns whitelists sortable fields against their columns.
var sortColumns = map[string]string{
	"date":      "date",
	"time":      "time",
	"priority":  "priority",
	"title":     "title",
	"completed": "completed",
	"goalTime":  "goal_time",
	"timeSpent": "time_spent",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func buildOrderBy(sort string) string {
	var clauses []string
	for _, field := range strings.Split(sort, ",") {
		field = strings.TrimSpace(field)
		dir := "ASC"
		if strings.HasPrefix(field, "-") {
			field = field[1:]
			dir = "DESC"
		}
		col, ok := sortColumns[field]
		if !ok {
			continue
		}
		clauses = append(clauses, col+" "+dir)
	}
	if len(clauses) == 0 {
		return "date ASC, time ASC, priority ASC"
	}
	return strings.Join(clauses, ", ")
}

const todoColumns = `id, user_id, title, day_label, date, time, color, text_color, priority, notes, links, subtasks, completed, goal_time, time_spent, created_at, updated_at`

// ListTodos returns the caller's tasks matching every given predicate.
func (s *Store) ListTodos(ctx context.Context, userID string, f TodoFilter) ([]models.Task, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.Date != "" {
		where = append(where, "date = ?")
		args = append(args, f.Date)
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, f.Priority)
	}
	if f.Completed != nil {
		where = append(where, "completed = ?")
		args = append(args, boolToInt(*f.Completed))
	}
	if f.Search != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(notes) LIKE ?)")
		pattern := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pattern, pattern)
	}

	query := fmt.Sprintf(`SELECT %s FROM todos WHERE %s ORDER BY %s`,
		todoColumns, strings.Join(where, " AND "), buildOrderBy(f.Sort))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTodo persists a new task owned by the caller.
func (s *Store) CreateTodo(ctx context.Context, userID string, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, fmt.Errorf("title must not be empty")
	}

	t.ID = uuid.NewString()
	t.UserID = userID
	t.Title = strings.TrimSpace(t.Title)
	if t.DayLabel == "" {
		t.DayLabel = "Today"
	}
	if t.Color == "" {
		t.Color = "#ffffff"
	}
	if _, ok := models.ValidPriorities[t.Priority]; !ok {
		t.Priority = models.PriorityP4
	}
	if t.Links == nil {
		t.Links = []models.Link{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []models.Subtask{}
	}
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt

	links, err := json.Marshal(t.Links)
	if err != nil {
		return models.Task{}, fmt.Errorf("encode links: %w", err)
	}
	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return models.Task{}, fmt.Errorf("encode subtasks: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO todos(`+todoColumns+`)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.DayLabel, t.Date, t.Time, t.Color, t.TextColor, t.Priority,
		t.Notes, string(links), string(subtasks), boolToInt(t.Completed), t.GoalTime, t.TimeSpent,
		t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert todo: %w", err)
	}
	return t, nil
}

// GetTodo fetches a task and enforces ownership.
func (s *Store) GetTodo(ctx context.Context, userID, id string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, err
	}
	if t.UserID != userID {
		return models.Task{}, ErrNotOwned
	}
	return t, nil
}

// TaskPatch carries the task fields an update wants to change.
type TaskPatch struct {
	Title     *string           `json:"title"`
	DayLabel  *string           `json:"dayLabel"`
	Date      *string           `json:"date"`
	Time      *string           `json:"time"`
	Color     *string           `json:"color"`
	TextColor *string           `json:"textColor"`
	Priority  *string           `json:"priority"`
	Notes     *string           `json:"notes"`
	Links     *[]models.Link    `json:"links"`
	Subtasks  *[]models.Subtask `json:"subtasks"`
	Completed *bool             `json:"completed"`
	GoalTime  *int64            `json:"goalTime"`
	TimeSpent *int64            `json:"timeSpent"`
}

// UpdateTodo merges the patch into an owned task and returns the result.
func (s *Store) UpdateTodo(ctx context.Context, userID, id string, patch TaskPatch) (models.Task, error) {
	t, err := s.GetTodo(ctx, userID, id)
	if err != nil {
		return models.Task{}, err
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.DayLabel != nil {
		t.DayLabel = *patch.DayLabel
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.Time != nil {
		t.Time = *patch.Time
	}
	if patch.Color != nil {
		t.Color = *patch.Color
	}
	if patch.TextColor != nil {
		t.TextColor = *patch.TextColor
	}
	if patch.Priority != nil {
		if _, ok := models.ValidPriorities[*patch.Priority]; ok {
			t.Priority = *patch.Priority
		}
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
	}
	if patch.Links != nil {
		t.Links = *patch.Links
	}
	if patch.Subtasks != nil {
		t.Subtasks = *patch.Subtasks
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	if patch.GoalTime != nil {
		t.GoalTime = *patch.GoalTime
	}
	if patch.TimeSpent != nil {
		t.TimeSpent = *patch.TimeSpent
	}
	t.UpdatedAt = time.Now().UTC()

	links, err := json.Marshal(t.Links)
	if err != nil {
		return models.Task{}, fmt.Errorf("encode links: %w", err)
	}
	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return models.Task{}, fmt.Errorf("encode subtasks: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `UPDATE todos SET title = ?, day_label = ?, date = ?, time = ?, color = ?, text_color = ?,
        priority = ?, notes = ?, links = ?, subtasks = ?, completed = ?, goal_time = ?, time_spent = ?, updated_at = ?
        WHERE id = ?`,
		t.Title, t.DayLabel, t.Date, t.Time, t.Color, t.TextColor, t.Priority, t.Notes,
		string(links), string(subtasks), boolToInt(t.Completed), t.GoalTime, t.TimeSpent, t.UpdatedAt, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("update todo: %w", err)
	}
	return t, nil
}

// DeleteTodo removes an owned task.
func (s *Store) DeleteTodo(ctx context.Context, userID, id string) error {
	if _, err := s.GetTodo(ctx, userID, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (models.Task, error) {
	var (
		t         models.Task
		links     string
		subtasks  string
		completed int64
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.DayLabel, &t.Date, &t.Time, &t.Color, &t.TextColor,
		&t.Priority, &t.Notes, &links, &subtasks, &completed, &t.GoalTime, &t.TimeSpent, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, err
		}
		return models.Task{}, fmt.Errorf("scan todo: %w", err)
	}
	t.Completed = completed != 0
	if err := json.Unmarshal([]byte(links), &t.Links); err != nil {
		return models.Task{}, fmt.Errorf("decode links: %w", err)
	}
	if err := json.Unmarshal([]byte(subtasks), &t.Subtasks); err != nil {
		return models.Task{}, fmt.Errorf("decode subtasks: %w", err)
	}
	return t, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
