package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskly/taskly/internal/model"
)

var ErrInvalidDateMode = errors.New("filter: invalid date mode")

type DateMode string

const (
	DateAll     DateMode = "all"
	DateToday   DateMode = "today"
	DateWeek    DateMode = "week"
	DateOverdue DateMode = "overdue"
)

func ParseDateMode(raw string) (DateMode, error) {
	switch m := DateMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case DateAll, DateToday, DateWeek, DateOverdue:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDateMode, raw)
	}
}

// State is the transient filter selection owned by the view. An empty
// Category means all categories. The three date flags compose; Overdue
// only constrains the pending view and empties the completed one.
type State struct {
	Category string
	Today    bool
	Week     bool
	Overdue  bool
}

func (s State) WithDateMode(mode DateMode) State {
	s.Today = mode == DateToday
	s.Week = mode == DateWeek
	s.Overdue = mode == DateOverdue
	return s
}

func (s State) DateMode() DateMode {
	switch {
	case s.Overdue:
		return DateOverdue
	case s.Week:
		return DateWeek
	case s.Today:
		return DateToday
	default:
		return DateAll
	}
}

// RenameCategory keeps an active category filter pointing at a renamed
// category.
func (s State) RenameCategory(from, to string) State {
	if s.Category != "" && s.Category == from {
		s.Category = to
	}
	return s
}

// Calendar decides day and week membership in the location of now.
type Calendar struct {
	WeekStart time.Weekday
}

var DefaultCalendar = Calendar{WeekStart: time.Monday}

func Pending(tasks []model.Task, s State, now time.Time) []model.Task {
	return DefaultCalendar.Pending(tasks, s, now)
}

func Completed(tasks []model.Task, s State, now time.Time) []model.Task {
	return DefaultCalendar.Completed(tasks, s, now)
}

// Pending returns open tasks matching s, in source order.
func (c Calendar) Pending(tasks []model.Task, s State, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Done || !c.matches(t, s, now) {
			continue
		}
		if s.Overdue && !(t.HasDue() && t.DueAt.Before(now)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Completed returns done tasks matching s, in source order. It is empty
// while the overdue filter is active.
func (c Calendar) Completed(tasks []model.Task, s State, now time.Time) []model.Task {
	out := make([]model.Task, 0)
	if s.Overdue {
		return out
	}
	for _, t := range tasks {
		if t.Done && c.matches(t, s, now) {
			out = append(out, t)
		}
	}
	return out
}

func (c Calendar) matches(t model.Task, s State, now time.Time) bool {
	if s.Category != "" && t.Emoji != s.Category {
		return false
	}
	if s.Today && !(t.HasDue() && c.SameDay(*t.DueAt, now)) {
		return false
	}
	if s.Week && !(t.HasDue() && c.SameWeek(*t.DueAt, now)) {
		return false
	}
	return true
}

func (c Calendar) SameDay(a, now time.Time) bool {
	a = a.In(now.Location())
	ay, am, ad := a.Date()
	ny, nm, nd := now.Date()
	return ay == ny && am == nm && ad == nd
}

func (c Calendar) SameWeek(a, now time.Time) bool {
	start, end := c.WeekBounds(now)
	return !a.Before(start) && a.Before(end)
}

func (c Calendar) WeekBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	offset := (int(now.Weekday()) - int(c.WeekStart) + 7) % 7
	start := time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 7)
}
