package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskly/taskly/internal/reminder"
	"github.com/taskly/taskly/internal/scheduler"
)

func (m *Model) applyReminder(ev scheduler.ReminderEvent) tea.Cmd {
	m.ReminderLog = append(m.ReminderLog, ev)
	if len(m.ReminderLog) > reminderLogSize {
		m.ReminderLog = m.ReminderLog[len(m.ReminderLog)-reminderLogSize:]
	}
	m.Status = StatusBar{Text: fmt.Sprintf("%s: %s", ev.Title, ev.Body)}
	cmds := []tea.Cmd{m.notify(ev.Title, ev.Body, levelReminder)}
	if reminder.IsDaily(ev) {
		if err := m.ws.RescheduleDaily(m.ctx); err != nil {
			err = fmt.Errorf("reschedule daily reminder: %w", err)
			cmds = append(cmds, func() tea.Msg { return AppErrorMsg{Err: err} })
		}
	}
	return tea.Batch(cmds...)
}

func waitForReminderCmd(ch <-chan scheduler.ReminderEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Event: ev}
	}
}
