package update

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskly/taskly/internal/filter"
	"github.com/taskly/taskly/internal/model"
	"github.com/taskly/taskly/internal/views"
)

func (m Model) renderTaskView() string {
	board := m.ws.Board
	now := m.now()
	cats := board.Categories()

	segments := append([]string{"All"}, cats.Slice()...)
	active := 0
	if c := board.Filter().Category; c != "" {
		active = cats.Index(c) + 1
	}
	modes := make([]string, len(dateModes))
	for i, mode := range dateModes {
		modes[i] = string(mode)
	}

	return views.RenderTaskList(views.TaskListData{
		Greeting:      "Hello, " + board.Session().ResolvedName(),
		Segments:      segments,
		ActiveSegment: active,
		DateModes:     modes,
		ActiveMode:    string(board.Filter().DateMode()),
		Pending:       taskRows(board.Pending(now), now),
		Completed:     taskRows(board.Completed(now), now),
		ShowCompleted: board.Filter().DateMode() != filter.DateOverdue,
		SelectedID:    shortID(m.SelectedTaskID),
		Empty:         board.Empty(),
	})
}

func taskRows(tasks []model.Task, now time.Time) []views.TaskRow {
	rows := make([]views.TaskRow, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, views.TaskRow{
			ID:       shortID(t.ID),
			Emoji:    t.Emoji,
			Title:    t.Title,
			Due:      formatDue(t.DueAt, now),
			Overdue:  t.Overdue(now),
			Done:     t.Done,
			HasNotes: strings.TrimSpace(t.Notes) != "",
		})
	}
	return rows
}

func (m Model) renderDetailView() string {
	task, ok := m.selectedTask()
	if !ok {
		return views.RenderDetail(views.DetailData{})
	}
	created := ""
	if task.CreatedAt != nil {
		created = task.CreatedAt.In(m.now().Location()).Format("Jan 2 2006 15:04")
	}
	return views.RenderDetail(views.DetailData{
		ID:        task.ID,
		Emoji:     task.Emoji,
		Title:     task.Title,
		Due:       formatDue(task.DueAt, m.now()),
		Created:   created,
		Done:      task.Done,
		NotesView: m.detailView.View(),
	})
}

func (m Model) renderSettingsView() string {
	sess := m.ws.Board.Session()
	weekStart := ""
	if day, err := m.cfg.WeekStartDay(); err == nil {
		weekStart = day.String()
	}
	return views.RenderSettings(views.SettingsData{
		Name:         sess.ResolvedName(),
		Email:        sess.Email,
		Categories:   m.ws.Board.Categories().Slice(),
		DailyOn:      m.ws.DailyReminder(),
		DailyAt:      formatClock(m.ws.DailyAt()),
		WeekStart:    weekStart,
		Reauth:       m.Reauth,
		PasswordView: m.passwordInput.View(),
	})
}

func (m Model) renderReminderLogView() string {
	const shown = 3
	log := m.ReminderLog
	if len(log) > shown {
		log = log[len(log)-shown:]
	}
	entries := make([]views.ReminderLogEntry, 0, len(log))
	for _, ev := range log {
		entries = append(entries, views.ReminderLogEntry{
			At:    ev.TriggerAt.In(m.now().Location()).Format("15:04"),
			Title: ev.Title,
			Body:  ev.Body,
		})
	}
	return views.RenderReminderLog(entries)
}

// notify records n and sends reminders to the desktop. A failed desktop
// send comes back as an AppErrorMsg.
func (m *Model) notify(title, body, level string) tea.Cmd {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    m.now().UTC(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
	if level != levelReminder || !m.DesktopEnabled || m.notifier == nil {
		return nil
	}
	if err := m.notifier.Send(n); err != nil {
		err = fmt.Errorf("desktop notification: %w", err)
		return func() tea.Msg { return AppErrorMsg{Err: err} }
	}
	return nil
}
