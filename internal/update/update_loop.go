package update

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskly/taskly/internal/auth"
	"github.com/taskly/taskly/internal/filter"
	"github.com/taskly/taskly/internal/model"
	"github.com/taskly/taskly/internal/views"
)

var dateModes = []filter.DateMode{filter.DateAll, filter.DateToday, filter.DateWeek, filter.DateOverdue}

const statusTTL = 4 * time.Second

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.startupCmd()}
	if m.engine != nil {
		cmds = append(cmds, waitForReminderCmd(m.engine.C()))
	}
	if m.feed != nil {
		cmds = append(cmds, waitForSnapshotCmd(m.feed))
	}
	return tea.Batch(cmds...)
}

func (m Model) startupCmd() tea.Cmd {
	switch {
	case m.startErr != nil:
		err := m.startErr
		return func() tea.Msg { return AppErrorMsg{Err: err} }
	case m.ws.SignedIn():
		text := "signed in as " + m.ws.Board.Session().ResolvedName()
		return func() tea.Msg { return SetStatusMsg{Text: text} }
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.helpModel.Width = typed.Width
		if w := typed.Width/2 - 8; w > 20 {
			m.detailView.Width = w
		}
		m.syncDetail()
		return m, nil
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			return m.quit()
		}
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		switch m.Screen {
		case ScreenLogin:
			return m.handleLoginKey(typed)
		case ScreenSettings:
			return m.handleSettingsKey(typed)
		default:
			return m.handleTaskKey(typed)
		}
	case snapshotMsg:
		if typed.feed != m.feed {
			return m, nil
		}
		// A snapshot read before a local mutation is replaced by the one the
		// mutation triggers.
		m.ws.Board.ApplySnapshot(typed.tasks)
		m.syncSelection()
		return m, waitForSnapshotCmd(m.feed)
	case feedClosedMsg:
		if typed.feed == m.feed {
			m.feed = nil
		}
		return m, nil
	case SetStatusMsg:
		if typed.IsError {
			m.Status = StatusBar{Text: typed.Text, IsError: true}
			return m, nil
		}
		return m, m.flashStatus(typed.Text)
	case ClearStatusMsg:
		if !m.Status.IsError && m.Status.Text == typed.Text {
			m.Status = StatusBar{}
		}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.logger.Warn("background operation failed", "error", typed.Err)
			m.Status = StatusBar{Text: DescribeError(typed.Err), IsError: true}
			return m, m.notify("Error", typed.Err.Error(), levelFromError(true))
		}
		return m, nil
	case ReminderDueMsg:
		cmd := m.applyReminder(typed.Event)
		if m.engine != nil {
			return m, tea.Batch(cmd, waitForReminderCmd(m.engine.C()))
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.Quitting = true
	m.stopFeedIfRunning()
	return m, tea.Quit
}

func (m Model) handleTaskKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	board := m.ws.Board
	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m.quit()
	case key.Matches(msg, m.Keys.Help):
		m.HelpVisible = !m.HelpVisible
	case key.Matches(msg, m.Keys.Palette):
		m.openPalette("")
	case key.Matches(msg, m.Keys.Add):
		m.openPalette("add ")
	case key.Matches(msg, m.Keys.Edit):
		if m.SelectedTaskID != "" {
			m.openPalette(fmt.Sprintf("edit %s ", shortID(m.SelectedTaskID)))
		}
	case key.Matches(msg, m.Keys.Settings):
		m.Screen = ScreenSettings
		m.ShowDetail = false
	case key.Matches(msg, m.Keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.Keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.Keys.Detail):
		m.ShowDetail = !m.ShowDetail
	case key.Matches(msg, m.Keys.Back):
		m.ShowDetail = false
		m.HelpVisible = false
	case key.Matches(msg, m.Keys.Toggle):
		if m.SelectedTaskID == "" {
			return m, nil
		}
		task, err := board.Toggle(m.ctx, m.SelectedTaskID)
		cmd = m.reportResult(err, func() string {
			if task.Done {
				return "completed " + task.Title
			}
			return "reopened " + task.Title
		})
	case key.Matches(msg, m.Keys.Delete):
		if m.SelectedTaskID == "" {
			return m, nil
		}
		task, err := board.Delete(m.ctx, m.SelectedTaskID)
		cmd = m.reportResult(err, func() string { return "deleted " + task.Title })
	case key.Matches(msg, m.Keys.Segment):
		segment := int(msg.String()[0] - '0')
		if err := board.SetCategoryIndex(segment); err != nil {
			m.Status = StatusBar{Text: DescribeError(err), IsError: true}
		}
	case key.Matches(msg, m.Keys.Dates):
		m.cycleDateFilter()
	}
	m.syncSelection()
	return m, cmd
}

func (m *Model) cycleDateFilter() {
	board := m.ws.Board
	current := board.Filter().DateMode()
	next := dateModes[0]
	for i, mode := range dateModes {
		if mode == current {
			next = dateModes[(i+1)%len(dateModes)]
			break
		}
	}
	board.SetDateFilter(next)
	m.Status = StatusBar{Text: fmt.Sprintf("showing %s tasks", next)}
}

func (m *Model) reportResult(err error, okText func() string) tea.Cmd {
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: DescribeError(err), IsError: true}
		return nil
	}
	return m.flashStatus(okText())
}

func (m *Model) flashStatus(text string) tea.Cmd {
	m.Status = StatusBar{Text: text}
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return ClearStatusMsg{Text: text} })
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Reauth {
		return m.handleReauthKey(msg)
	}
	if m.ConfirmDelete {
		m.ConfirmDelete = false
		if msg.String() == "y" {
			return m.deleteAccount("")
		}
		m.Status = StatusBar{Text: "account deletion cancelled"}
		return m, nil
	}
	switch msg.String() {
	case "esc", "s":
		m.Screen = ScreenTasks
	case "q":
		return m.quit()
	case "?":
		m.HelpVisible = !m.HelpVisible
	case "/":
		m.openPalette("")
	case "r":
		on := !m.ws.DailyReminder()
		if err := m.ws.SetDailyReminder(m.ctx, on); err != nil {
			m.Status = StatusBar{Text: DescribeError(err), IsError: true}
		} else if on {
			m.Status = StatusBar{Text: fmt.Sprintf("daily reminder on at %s", formatClock(m.ws.DailyAt()))}
		} else {
			m.Status = StatusBar{Text: "daily reminder off"}
		}
	case "n":
		req, err := m.ws.SendSample(m.ctx, sampleDelay)
		return m, m.reportResult(err, func() string {
			return fmt.Sprintf("test notification at %s", req.FireAt.Format("15:04:05"))
		})
	case "1", "2", "3", "4":
		m.openPalette(fmt.Sprintf("category rename %s ", msg.String()))
	case "L":
		return m.signOut()
	case "X":
		m.ConfirmDelete = true
		m.Status = StatusBar{Text: "delete your account and all tasks? press y to confirm", IsError: true}
	}
	return m, nil
}

func (m Model) handleReauthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Reauth = false
		m.passwordInput.SetValue("")
		m.passwordInput.Blur()
		m.Status = StatusBar{Text: "account deletion cancelled"}
		return m, nil
	case "enter":
		password := m.passwordInput.Value()
		m.passwordInput.SetValue("")
		return m.deleteAccount(password)
	}
	var cmd tea.Cmd
	m.passwordInput, cmd = m.passwordInput.Update(msg)
	return m, cmd
}

func (m Model) signOut() (tea.Model, tea.Cmd) {
	m.stopFeedIfRunning()
	err := m.ws.SignOut(m.ctx)
	m.resetToLogin()
	if err != nil {
		m.Status = StatusBar{Text: DescribeError(err), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: "signed out"}
	return m, nil
}

func (m Model) deleteAccount(password string) (tea.Model, tea.Cmd) {
	flow, err := m.ws.DeleteAccount(m.ctx, password)
	if errors.Is(err, auth.ErrRecentLoginRequired) {
		m.Reauth = true
		m.passwordInput.Focus()
		m.Status = StatusBar{Text: DescribeError(err)}
		return m, nil
	}
	if err != nil && m.ws.SignedIn() {
		m.Status = StatusBar{Text: DescribeError(err), IsError: true}
		return m, nil
	}
	m.stopFeedIfRunning()
	m.resetToLogin()
	if err != nil {
		m.Status = StatusBar{Text: DescribeError(err), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: fmt.Sprintf("account deleted with %d task(s)", flow.DeletedTasks)}
	return m, nil
}

func (m *Model) resetToLogin() {
	m.Screen = ScreenLogin
	m.Reauth = false
	m.ConfirmDelete = false
	m.ShowDetail = false
	m.SelectedTaskID = ""
	m.passwordInput.Blur()
	m.Login.Register = false
	m.Login.Focus = fieldEmail
	for i := range m.Login.inputs {
		m.Login.inputs[i].SetValue("")
		m.Login.inputs[i].Blur()
	}
	m.Login.inputs[fieldEmail].Focus()
}

func (m Model) rows() []model.Task {
	now := m.now()
	board := m.ws.Board
	return append(board.Pending(now), board.Completed(now)...)
}

func (m *Model) moveCursor(delta int) {
	rows := m.rows()
	if len(rows) == 0 {
		m.SelectedTaskID = ""
		return
	}
	idx := 0
	for i, t := range rows {
		if t.ID == m.SelectedTaskID {
			idx = i + delta
			break
		}
	}
	idx = max(0, min(idx, len(rows)-1))
	m.SelectedTaskID = rows[idx].ID
	m.syncDetail()
}

func (m *Model) syncSelection() {
	if !m.ws.SignedIn() {
		m.SelectedTaskID = ""
		return
	}
	rows := m.rows()
	for _, t := range rows {
		if t.ID == m.SelectedTaskID {
			m.syncDetail()
			return
		}
	}
	m.SelectedTaskID = ""
	if len(rows) > 0 {
		m.SelectedTaskID = rows[0].ID
	}
	m.syncDetail()
}

func (m *Model) syncDetail() {
	task, ok := m.selectedTask()
	if !ok {
		m.detailView.SetContent("")
		return
	}
	m.detailView.SetContent(views.RenderMarkdown(task.Notes, m.detailView.Width))
}

func (m Model) selectedTask() (model.Task, bool) {
	if m.SelectedTaskID == "" || !m.ws.SignedIn() {
		return model.Task{}, false
	}
	task, err := m.ws.Board.Task(m.SelectedTaskID)
	if err != nil {
		return model.Task{}, false
	}
	return task, true
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	header := "taskly"
	leftPane := ""
	rightPane := ""
	switch m.Screen {
	case ScreenLogin:
		leftPane = m.renderLoginView()
	case ScreenSettings:
		header = fmt.Sprintf("taskly | settings | %s", m.ws.Board.Session().ResolvedName())
		leftPane = m.renderSettingsView()
		rightPane = m.renderHelpIfVisible()
	default:
		header = fmt.Sprintf("taskly | %s", m.ws.Board.Session().ResolvedName())
		leftPane = m.renderTaskView()
		if m.ShowDetail {
			rightPane = m.renderDetailView()
		}
		rightPane = joinNonEmpty(rightPane, m.renderHelpIfVisible())
	}
	if m.Palette.Active {
		leftPane = joinNonEmpty(leftPane, views.RenderCommandPalette(true, m.commandInput.View()))
	}

	return views.RenderApp(views.AppData{
		Header:        header,
		LeftPane:      leftPane,
		RightPane:     rightPane,
		StatusLine:    status,
		StatusIsError: m.Status.IsError,
		Notification:  m.renderReminderLogView(),
		Footer:        m.helpModel.ShortHelpView(m.Keys.ShortHelp()),
		Width:         m.width,
	})
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

func waitForSnapshotCmd(feed <-chan []model.Task) tea.Cmd {
	if feed == nil {
		return nil
	}
	return func() tea.Msg {
		tasks, ok := <-feed
		if !ok {
			return feedClosedMsg{feed: feed}
		}
		return snapshotMsg{feed: feed, tasks: tasks}
	}
}
