package storage

import (
	"time"

	"github.com/taskly/taskly/internal/model"
)

type Task struct {
	ID        string
	UserID    string
	Title     string
	Emoji     string
	Done      bool
	DueAt     *time.Time
	Notes     string
	CreatedAt time.Time
}

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

type TaskListFilter struct {
	UserID string
	Done   *bool
	Limit  int
	Offset int
}

// ToModel converts a stored row to the domain value.
func (t Task) ToModel() model.Task {
	created := t.CreatedAt
	return model.Task{
		ID:        t.ID,
		Title:     t.Title,
		Emoji:     t.Emoji,
		Done:      t.Done,
		DueAt:     t.DueAt,
		Notes:     t.Notes,
		CreatedAt: &created,
	}
}

func taskFromModel(userID string, in model.Task) Task {
	out := Task{
		ID:     in.ID,
		UserID: userID,
		Title:  in.Title,
		Emoji:  in.Emoji,
		Done:   in.Done,
		DueAt:  in.DueAt,
		Notes:  in.Notes,
	}
	if in.CreatedAt != nil {
		out.CreatedAt = *in.CreatedAt
	}
	return out
}
