package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskly/taskly/internal/model"
)

// Friday 2025-01-10 10:00 UTC.
var now = time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

func at(t time.Time) *time.Time { return &t }

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func fixture() []model.Task {
	return []model.Task{
		{ID: "undated", Title: "a", Emoji: "📝"},
		{ID: "today", Title: "b", Emoji: "💼", DueAt: at(now.Add(3 * time.Hour))},
		{ID: "overdue", Title: "c", Emoji: "📝", DueAt: at(now.Add(-2 * time.Hour))},
		{ID: "monday", Title: "d", Emoji: "🏠", DueAt: at(time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC))},
		{ID: "nextweek", Title: "e", Emoji: "🏠", DueAt: at(time.Date(2025, 1, 13, 8, 0, 0, 0, time.UTC))},
		{ID: "done-today", Title: "f", Emoji: "💼", Done: true, DueAt: at(now.Add(time.Hour))},
		{ID: "done-undated", Title: "g", Emoji: "📝", Done: true},
		{ID: "done-past", Title: "h", Emoji: "📝", Done: true, DueAt: at(now.Add(-time.Hour))},
	}
}

func TestPendingAndCompletedPartitionByDone(t *testing.T) {
	tasks := fixture()
	pending := Pending(tasks, State{}, now)
	completed := Completed(tasks, State{}, now)

	assert.Equal(t, []string{"undated", "today", "overdue", "monday", "nextweek"}, ids(pending))
	assert.Equal(t, []string{"done-today", "done-undated", "done-past"}, ids(completed))
	assert.Len(t, tasks, len(pending)+len(completed))
	for _, p := range pending {
		assert.NotContains(t, ids(completed), p.ID)
	}
}

func TestUndatedOpenTaskNeverCompleted(t *testing.T) {
	tasks := []model.Task{{ID: "u", Title: "x", Emoji: "📝"}}
	for _, st := range []State{{}, {Today: true}, {Week: true}, {Overdue: true}} {
		assert.Empty(t, Completed(tasks, st, now), "state %+v", st)
	}
	assert.Equal(t, []string{"u"}, ids(Pending(tasks, State{}, now)))
}

func TestDateFiltersExcludeUndatedTasks(t *testing.T) {
	tasks := fixture()
	assert.Equal(t, []string{"today", "overdue"}, ids(Pending(tasks, State{Today: true}, now)))
	assert.Equal(t, []string{"today", "overdue", "monday"}, ids(Pending(tasks, State{Week: true}, now)))
	assert.Equal(t, []string{"overdue", "monday"}, ids(Pending(tasks, State{Overdue: true}, now)))
	assert.Equal(t, []string{"done-today", "done-past"}, ids(Completed(tasks, State{Today: true}, now)))
}

func TestOverdueFilterDropsTaskOnceDone(t *testing.T) {
	task := model.Task{ID: "late", Title: "x", Emoji: "📝", DueAt: at(time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC))}
	st := State{Overdue: true}
	require.Equal(t, []string{"late"}, ids(Pending([]model.Task{task}, st, now)))

	task.Done = true
	assert.Empty(t, Pending([]model.Task{task}, st, now))
	assert.Empty(t, Completed([]model.Task{task}, st, now))
}

func TestCategoryFilter(t *testing.T) {
	tasks := fixture()
	st := State{Category: "🏠"}
	assert.Equal(t, []string{"monday", "nextweek"}, ids(Pending(tasks, st, now)))
	assert.Empty(t, Completed(tasks, st, now))
}

func TestRenameActiveCategoryUpdatesFilter(t *testing.T) {
	tasks := []model.Task{{ID: "1", Title: "x", Emoji: "📒"}}
	st := State{Category: "📝"}
	st = st.RenameCategory("📝", "📒")
	assert.Equal(t, "📒", st.Category)
	assert.Equal(t, []string{"1"}, ids(Pending(tasks, st, now)))

	other := State{Category: "🏠"}.RenameCategory("📝", "📒")
	assert.Equal(t, "🏠", other.Category)
	assert.Equal(t, "", State{}.RenameCategory("📝", "📒").Category)
}

func TestEmptyCollection(t *testing.T) {
	assert.Empty(t, Pending(nil, State{}, now))
	assert.Empty(t, Completed(nil, State{}, now))
}

func TestWeekBoundsHonourWeekStart(t *testing.T) {
	start, end := DefaultCalendar.WeekBounds(now)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), end)

	sunday := Calendar{WeekStart: time.Sunday}
	start, _ = sunday.WeekBounds(now)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), start)

	sundayDue := time.Date(2025, 1, 12, 23, 0, 0, 0, time.UTC)
	assert.True(t, DefaultCalendar.SameWeek(sundayDue, now))
	assert.False(t, sunday.SameWeek(sundayDue, now))
}

func TestDateModeRoundTrip(t *testing.T) {
	for _, raw := range []string{"all", "today", "week", "overdue"} {
		mode, err := ParseDateMode(raw)
		require.NoError(t, err)
		assert.Equal(t, mode, State{Category: "📝"}.WithDateMode(mode).DateMode())
	}
	_, err := ParseDateMode("month")
	assert.ErrorIs(t, err, ErrInvalidDateMode)
}
