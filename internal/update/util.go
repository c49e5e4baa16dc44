package update

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskly/taskly/internal/app"
	"github.com/taskly/taskly/internal/auth"
	"github.com/taskly/taskly/internal/model"
)

const levelReminder = "reminder"

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// formatDue renders a due date relative to now: a clock time for today,
// otherwise a short date.
func formatDue(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	local := due.In(now.Location())
	y, m, d := local.Date()
	ny, nm, nd := now.Date()
	switch {
	case y == ny && m == nm && d == nd:
		return "today " + local.Format("15:04")
	case y == ny:
		return local.Format("Mon Jan 2 15:04")
	default:
		return local.Format("Jan 2 2006 15:04")
	}
}

func DescribeTask(t model.Task, now time.Time) string {
	state := "pending"
	if t.Done {
		state = "done"
	} else if t.Overdue(now) {
		state = "overdue"
	}
	parts := []string{fmt.Sprintf("#%s %s %s [%s]", shortID(t.ID), t.Emoji, t.Title, state)}
	if due := formatDue(t.DueAt, now); due != "" {
		parts = append(parts, "due "+due)
	}
	if t.Notes != "" {
		parts = append(parts, "note: "+t.Notes)
	}
	return strings.Join(parts, " | ")
}

func DescribeError(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, auth.ErrInvalidEmail):
		return "enter a valid email address"
	case errors.Is(err, auth.ErrWeakPassword):
		return fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength)
	case errors.Is(err, auth.ErrPasswordMismatch):
		return "passwords do not match"
	case errors.Is(err, auth.ErrEmailInUse):
		return "an account with this email already exists"
	case errors.Is(err, auth.ErrUserNotFound):
		return "no account found for this email"
	case errors.Is(err, auth.ErrWrongPassword):
		return "incorrect password"
	case errors.Is(err, auth.ErrRecentLoginRequired):
		return "confirm your password to delete the account"
	case errors.Is(err, app.ErrSignedOut):
		return "sign in first"
	case errors.Is(err, app.ErrCategoryRequired):
		return "choose a category with cat:<emoji> or pick one with 1-4"
	case errors.Is(err, model.ErrInvalidDue):
		return "could not read the due date; try today 18:00, tomorrow 09:00, 2025-01-31 or +2h"
	}
	switch {
	case app.IsKind(err, app.KindStore) && app.IsKind(err, app.KindNotify):
		return "changes kept locally but not saved and reminders not updated: " + err.Error()
	case app.IsKind(err, app.KindStore):
		return "changes kept locally but not saved: " + err.Error()
	case app.IsKind(err, app.KindNotify):
		return "saved, but reminders could not be updated: " + err.Error()
	}
	return err.Error()
}
