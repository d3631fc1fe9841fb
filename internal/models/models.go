package models

import "time"

// Priority levels for tasks, P1 highest to P4 lowest.
const (
	PriorityP1 = "P1"
	PriorityP2 = "P2"
	PriorityP3 = "P3"
	PriorityP4 = "P4"
)

// ValidPriorities enumerates the accepted task priorities.
var ValidPriorities = map[string]struct{}{
	PriorityP1: {},
	PriorityP2: {},
	PriorityP3: {},
	PriorityP4: {},
}

// ValidThemes enumerates the selectable UI themes.
var ValidThemes = map[string]struct{}{
	"calm":  {},
	"green": {},
	"ocean": {},
	"dark":  {},
}

// Link is a labelled URL attached to a task.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Subtask is a single checklist entry inside a task.
type Subtask struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Task is a user's to-do item with scheduling and progress metadata.
type Task struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	DayLabel  string    `json:"dayLabel"`
	Date      string    `json:"date,omitempty"` // YYYY-MM-DD
	Time      string    `json:"time,omitempty"` // HH:mm
	Color     string    `json:"color"`
	TextColor string    `json:"textColor"`
	Priority  string    `json:"priority"`
	Notes     string    `json:"notes,omitempty"`
	Links     []Link    `json:"links"`
	Subtasks  []Subtask `json:"subtasks"`
	Completed bool      `json:"completed"`
	GoalTime  int64     `json:"goalTime"`  // minutes
	TimeSpent int64     `json:"timeSpent"` // minutes
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Rule is a short recurring reminder, ordered within a user's list.
type Rule struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	Order     int64     `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Background describes where a user's backdrop image comes from.
type Background struct {
	Type  string `json:"type"` // preset, upload or none
	Value string `json:"value"`
}

// Overlay controls dimming and blur applied over the background.
type Overlay struct {
	Dim  float64 `json:"dim"`
	Blur float64 `json:"blur"`
}

// Preferences is the per-user theming and behaviour sub-document.
type Preferences struct {
	Theme      string     `json:"theme"`
	Font       string     `json:"font"`
	TextColor  string     `json:"textColor"`
	Background Background `json:"background"`
	Overlay    Overlay    `json:"overlay"`
	AlarmSound string     `json:"alarmSound"`
}

// DefaultPreferences returns the preferences assigned to a fresh account.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:      "calm",
		Font:       "Inter",
		Background: Background{Type: "none"},
		AlarmSound: "beep",
	}
}

// User is an account holder. PasswordHash never leaves the server.
type User struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	GoogleID     string      `json:"-"`
	Picture      string      `json:"picture,omitempty"`
	Preferences  Preferences `json:"preferences"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}
