package model

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyTitle   = errors.New("model: task title is required")
	ErrMissingEmoji = errors.New("model: task category emoji is required")
)

// Task is a single to-do item. ID and CreatedAt are assigned by the store;
// a Task with an empty ID has not been persisted yet.
type Task struct {
	ID        string
	Title     string
	Emoji     string
	Done      bool
	DueAt     *time.Time
	Notes     string
	CreatedAt *time.Time
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(t.Emoji) == "" {
		return ErrMissingEmoji
	}
	return nil
}

func (t Task) Persisted() bool {
	return strings.TrimSpace(t.ID) != ""
}

func (t Task) HasDue() bool {
	return t.DueAt != nil && !t.DueAt.IsZero()
}

func (t Task) Overdue(now time.Time) bool {
	return !t.Done && t.HasDue() && t.DueAt.Before(now)
}

// TaskPatch is a partial update. A nil field means "no change"; ClearDue
// removes the due date and takes precedence over DueAt.
type TaskPatch struct {
	Title    *string
	Emoji    *string
	Done     *bool
	DueAt    *time.Time
	ClearDue bool
	Notes    *string
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Emoji == nil && p.Done == nil && p.DueAt == nil && !p.ClearDue && p.Notes == nil
}

func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Emoji != nil {
		t.Emoji = *p.Emoji
	}
	if p.Done != nil {
		t.Done = *p.Done
	}
	if p.ClearDue {
		t.DueAt = nil
	} else if p.DueAt != nil {
		due := *p.DueAt
		t.DueAt = &due
	}
	if p.Notes != nil {
		t.Notes = strings.TrimSpace(*p.Notes)
	}
	return t
}

// TouchesSchedule reports whether the patch changes fields that reminders
// are derived from.
func (p TaskPatch) TouchesSchedule() bool {
	return p.Done != nil || p.DueAt != nil || p.ClearDue || p.Title != nil
}
