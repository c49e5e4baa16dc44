package update

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskly/taskly/internal/app"
	"github.com/taskly/taskly/internal/auth"
	"github.com/taskly/taskly/internal/events"
	"github.com/taskly/taskly/internal/filter"
	"github.com/taskly/taskly/internal/model"
	"github.com/taskly/taskly/internal/prefs"
	"github.com/taskly/taskly/internal/reminder"
	"github.com/taskly/taskly/internal/scheduler"
	"github.com/taskly/taskly/internal/storage"
)

type recordingNotifier struct {
	sent []Notification
}

func (r *recordingNotifier) Send(n Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

type failingNotifier struct{}

func (failingNotifier) Send(Notification) error { return errors.New("notify-send: not found") }

type tuiFixture struct {
	ws       *app.Workspace
	prefs    *prefs.Store
	engine   *scheduler.Engine
	notifier *recordingNotifier
	clock    *time.Time
}

func newFixture(t *testing.T) tuiFixture {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "tui.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	clock := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	f := tuiFixture{engine: scheduler.NewEngine(8), notifier: &recordingNotifier{}, clock: &clock}
	nowFn := func() time.Time { return *f.clock }

	hub := storage.NewHub(repo, storage.WithHubClock(nowFn))
	accounts := auth.NewService(repo, hub, events.NewBus(4), nil,
		auth.WithClock(nowFn),
		auth.WithBcryptCost(bcrypt.MinCost),
	)
	f.prefs, err = prefs.Open("")
	if err != nil {
		t.Fatalf("open prefs: %v", err)
	}
	sched := reminder.NewScheduler(reminder.EngineNotifier{Engine: f.engine}, reminder.WithClock(nowFn))
	board := app.NewBoard(app.Config{
		Store:      hub,
		Reminders:  sched,
		Categories: f.prefs,
		Calendar:   filter.DefaultCalendar,
		Now:        nowFn,
	})
	f.ws = app.NewWorkspace(app.WorkspaceConfig{
		Board:     board,
		Feed:      hub,
		Accounts:  accounts,
		Prefs:     f.prefs,
		Reminders: sched,
	})
	return f
}

func (f tuiFixture) model() Model {
	cfg := DefaultRuntimeConfig()
	cfg.DesktopNotifications = true
	return NewModel(context.Background(), Deps{
		Workspace: f.ws,
		Engine:    f.engine,
		Notifier:  f.notifier,
		Config:    cfg,
		Now:       func() time.Time { return *f.clock },
	})
}

func (f tuiFixture) signedIn(t *testing.T) Model {
	t.Helper()
	if _, err := f.ws.Register(context.Background(), "ada@example.com", "secret1", "secret1", "Ada"); err != nil {
		t.Fatalf("register: %v", err)
	}
	return f.model()
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", updated)
	}
	return next
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "ctrl+r":
			msg = tea.KeyMsg{Type: tea.KeyCtrlR}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m = send(t, m, msg)
	}
	return m
}

func TestNewModelStartsOnLoginWithoutSession(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	if m.Screen != ScreenLogin {
		t.Fatalf("expected login screen, got %q", m.Screen)
	}
	if !strings.Contains(m.View(), "Sign in") {
		t.Fatalf("expected sign in form in view:\n%s", m.View())
	}
	if m.Init() == nil {
		t.Fatal("expected reminder wait command")
	}
}

func TestRegisterThroughLoginForm(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	m = press(t, m, "ctrl+r")
	if !m.Login.Register {
		t.Fatal("expected register mode")
	}
	m = press(t, m, "ada@example.com", "enter", "secret1", "enter", "secret1", "enter", "enter")
	if m.Screen != ScreenTasks {
		t.Fatalf("expected tasks screen, got %q (status %q)", m.Screen, m.Status.Text)
	}
	if !strings.Contains(m.Status.Text, "Ada") {
		t.Fatalf("expected greeting with derived name, got %q", m.Status.Text)
	}
	if m.feed == nil {
		t.Fatal("expected task feed subscription")
	}
	if !strings.Contains(m.View(), "No tasks yet") {
		t.Fatalf("expected empty state:\n%s", m.View())
	}
}

func TestLoginFormShowsValidationErrors(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	m = press(t, m, "nobody@example.com", "enter", "secret1", "enter")
	if m.Screen != ScreenLogin || !m.Status.IsError {
		t.Fatalf("expected login error, got screen %q status %+v", m.Screen, m.Status)
	}
	if m.Status.Text != "no account found for this email" {
		t.Fatalf("unexpected message %q", m.Status.Text)
	}
}

func TestPaletteAddToggleDelete(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)

	m = press(t, m, "a")
	if !m.Palette.Active || m.commandInput.Value() != "add " {
		t.Fatalf("expected palette prefilled with add, got %+v", m.Palette)
	}
	m = press(t, m, "Buy milk cat:📝 due:+2h note:semi-skimmed", "enter")
	if m.Status.IsError {
		t.Fatalf("unexpected error: %s", m.Status.Text)
	}
	tasks := f.ws.Board.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].Notes != "semi-skimmed" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
	if f.engine.Len() != 2 {
		t.Fatalf("expected two reminders, got %d", f.engine.Len())
	}
	if m.SelectedTaskID != tasks[0].ID {
		t.Fatalf("expected new task selected, got %q", m.SelectedTaskID)
	}

	m = press(t, m, "x")
	if !f.ws.Board.Tasks()[0].Done || f.engine.Len() != 0 {
		t.Fatalf("expected done task without reminders, engine has %d", f.engine.Len())
	}
	m = press(t, m, "x")
	if f.ws.Board.Tasks()[0].Done || f.engine.Len() != 2 {
		t.Fatalf("expected reopened task with reminders, engine has %d", f.engine.Len())
	}

	m = press(t, m, "d")
	if !f.ws.Board.Empty() || f.engine.Len() != 0 {
		t.Fatalf("expected task and reminders removed")
	}
	if m.SelectedTaskID != "" {
		t.Fatalf("expected selection cleared, got %q", m.SelectedTaskID)
	}
}

func TestPaletteErrorsAreReported(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)

	m = press(t, m, "/", "bogus", "enter")
	if !m.Status.IsError || m.Palette.Active {
		t.Fatalf("expected closed palette with error, got %+v %+v", m.Palette, m.Status)
	}
	m = press(t, m, "/", "add Plan trip", "enter")
	if m.Status.Text != DescribeError(app.ErrCategoryRequired) {
		t.Fatalf("expected category hint, got %q", m.Status.Text)
	}
	m = press(t, m, "/", "add Plan trip cat:🏠 due:someday", "enter")
	if m.Status.Text != DescribeError(model.ErrInvalidDue) {
		t.Fatalf("expected due hint, got %q", m.Status.Text)
	}
}

func TestShowSelectsTaskAndOpensDetail(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)
	m = press(t, m, "/", "add First cat:📝", "enter")
	m = press(t, m, "/", "add Second cat:💼 note:**bold** plan", "enter")
	second := f.ws.Board.Tasks()[1]

	m = press(t, m, "/", "show "+shortID(second.ID), "enter")
	if m.SelectedTaskID != second.ID || !m.ShowDetail {
		t.Fatalf("expected second task shown, got %q detail=%v", m.SelectedTaskID, m.ShowDetail)
	}
	if !strings.Contains(m.View(), "Second") {
		t.Fatalf("expected detail in view:\n%s", m.View())
	}

	m = press(t, m, "esc")
	if m.ShowDetail {
		t.Fatal("expected esc to close detail")
	}
}

func TestCategoryAndDateFilterKeys(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)
	m = press(t, m, "/", "add Report cat:💼 due:today 09:00", "enter")
	m = press(t, m, "/", "add Laundry cat:🏠", "enter")

	m = press(t, m, "2")
	if f.ws.Board.Filter().Category != "💼" {
		t.Fatalf("expected work filter, got %q", f.ws.Board.Filter().Category)
	}
	rows := m.rows()
	if len(rows) != 1 || rows[0].Title != "Report" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	m = press(t, m, "0", "f", "f", "f")
	if f.ws.Board.Filter().DateMode() != filter.DateOverdue {
		t.Fatalf("expected overdue filter, got %q", f.ws.Board.Filter().DateMode())
	}
	rows = m.rows()
	if len(rows) != 1 || rows[0].Title != "Report" || m.SelectedTaskID != rows[0].ID {
		t.Fatalf("expected only the overdue task selected, got %+v", rows)
	}
	m = press(t, m, "f")
	if f.ws.Board.Filter().DateMode() != filter.DateAll {
		t.Fatalf("expected filter to wrap to all")
	}
}

func TestCursorMovesAcrossSections(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)
	m = press(t, m, "/", "add One cat:📝", "enter")
	m = press(t, m, "/", "add Two cat:📝", "enter")
	m = press(t, m, "/", "done "+shortID(f.ws.Board.Tasks()[0].ID), "enter")

	rows := m.rows()
	if len(rows) != 2 || rows[0].Title != "Two" || rows[1].Title != "One" {
		t.Fatalf("expected pending before done, got %+v", rows)
	}
	m = press(t, m, "j")
	if m.SelectedTaskID != rows[1].ID {
		t.Fatalf("expected cursor on done task")
	}
	m = press(t, m, "j")
	if m.SelectedTaskID != rows[1].ID {
		t.Fatalf("expected cursor to stop at the end")
	}
	m = press(t, m, "k")
	if m.SelectedTaskID != rows[0].ID {
		t.Fatalf("expected cursor back on first row")
	}
}

func TestSnapshotMsgAppliesOnlyCurrentFeed(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)
	stale := make(chan []model.Task)
	snap := []model.Task{{ID: "t1", Title: "From store", Emoji: "📝"}}

	m = send(t, m, snapshotMsg{feed: stale, tasks: snap})
	if !f.ws.Board.Empty() {
		t.Fatal("stale feed snapshot should be ignored")
	}
	updated, cmd := m.Update(snapshotMsg{feed: m.feed, tasks: snap})
	m = updated.(Model)
	if len(f.ws.Board.Tasks()) != 1 || m.SelectedTaskID != "t1" {
		t.Fatalf("expected snapshot applied and selected, got %+v", f.ws.Board.Tasks())
	}
	if cmd == nil {
		t.Fatal("expected next snapshot wait")
	}
}

func TestReminderDueLogsNotifiesAndReschedulesDaily(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)
	if err := f.ws.SetDailyReminder(context.Background(), true); err != nil {
		t.Fatalf("daily on: %v", err)
	}
	fired, ok := f.engine.Lookup(reminder.DailyID)
	if !ok {
		t.Fatal("expected daily reminder pending")
	}
	f.engine.Cancel(reminder.DailyID)

	updated, cmd := m.Update(ReminderDueMsg{Event: fired})
	m = updated.(Model)
	if len(m.ReminderLog) != 1 || cmd == nil {
		t.Fatalf("expected logged reminder and next wait, got %d", len(m.ReminderLog))
	}
	if !f.engine.Pending(reminder.DailyID) {
		t.Fatal("expected daily reminder rescheduled")
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].Title != reminder.DailyTitle {
		t.Fatalf("expected one desktop notification, got %+v", f.notifier.sent)
	}
	if !strings.Contains(m.View(), reminder.DailyBody) {
		t.Fatalf("expected reminder log in view:\n%s", m.View())
	}

	for i := 0; i < reminderLogSize+5; i++ {
		m = send(t, m, ReminderDueMsg{Event: scheduler.ReminderEvent{ID: "x", Title: "t", Body: "b", TriggerAt: *f.clock}})
	}
	if len(m.ReminderLog) != reminderLogSize {
		t.Fatalf("expected log capped at %d, got %d", reminderLogSize, len(m.ReminderLog))
	}
}

func TestSettingsToggleDailyAndRename(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)
	m = press(t, m, "s")
	if m.Screen != ScreenSettings {
		t.Fatalf("expected settings screen, got %q", m.Screen)
	}
	m = press(t, m, "r")
	if !f.prefs.DailyReminder() || !f.engine.Pending(reminder.DailyID) {
		t.Fatal("expected daily reminder on")
	}
	m = press(t, m, "r")
	if f.prefs.DailyReminder() || f.engine.Pending(reminder.DailyID) {
		t.Fatal("expected daily reminder off")
	}

	m = press(t, m, "1")
	if !m.Palette.Active || m.commandInput.Value() != "category rename 1 " {
		t.Fatalf("expected rename palette, got %q", m.commandInput.Value())
	}
	m = press(t, m, "🎸", "enter")
	if f.prefs.Categories()[0] != "🎸" {
		t.Fatalf("expected renamed category persisted, got %v", f.prefs.Categories())
	}
	m = press(t, m, "esc")
	if m.Screen != ScreenTasks {
		t.Fatalf("expected back on tasks, got %q", m.Screen)
	}
}

func TestSignOutReturnsToLogin(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)
	m = press(t, m, "/", "add Call mom cat:📝 due:+3h", "enter")
	m = press(t, m, "s", "L")
	if m.Screen != ScreenLogin || f.ws.SignedIn() {
		t.Fatalf("expected signed out, screen %q", m.Screen)
	}
	if f.engine.Len() != 0 || m.feed != nil {
		t.Fatalf("expected reminders cancelled and feed stopped")
	}
	if _, err := f.prefs.Session(); err == nil {
		t.Fatal("expected saved session cleared")
	}
}

func TestDeleteAccountNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)
	m = press(t, m, "s", "X", "n")
	if m.ConfirmDelete || !f.ws.SignedIn() {
		t.Fatal("expected deletion cancelled")
	}
	m = press(t, m, "X", "y")
	if m.Screen != ScreenLogin || f.ws.SignedIn() {
		t.Fatalf("expected account deleted, status %q", m.Status.Text)
	}
}

func TestDeleteAccountStaleSessionPromptsForPassword(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)
	*f.clock = f.clock.Add(auth.RecentLoginWindow + time.Minute)

	m = press(t, m, "s", "X", "y")
	if !m.Reauth || !f.ws.SignedIn() {
		t.Fatalf("expected password prompt, status %q", m.Status.Text)
	}
	m = press(t, m, "nope!!", "enter")
	if !m.Status.IsError || !f.ws.SignedIn() {
		t.Fatalf("expected wrong password error, got %+v", m.Status)
	}
	m = press(t, m, "secret1", "enter")
	if f.ws.SignedIn() || m.Screen != ScreenLogin {
		t.Fatalf("expected account deleted, status %q", m.Status.Text)
	}
}

func TestQuitStopsFeed(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	next := updated.(Model)
	if !next.Quitting || cmd == nil || next.feed != nil {
		t.Fatalf("expected quit with stopped feed")
	}
}

func TestSuccessStatusClearsAfterTick(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)

	m = press(t, m, "/", "add Buy milk cat:📝 due:+2h")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd == nil || m.Status.IsError || m.Status.Text == "" {
		t.Fatalf("expected success status with clear tick, got %+v", m.Status)
	}
	added := m.Status.Text

	m = send(t, m, ClearStatusMsg{Text: "something older"})
	if m.Status.Text != added {
		t.Fatalf("stale clear should keep %q, got %q", added, m.Status.Text)
	}
	m = send(t, m, ClearStatusMsg{Text: added})
	if m.Status.Text != "" {
		t.Fatalf("expected status cleared, got %q", m.Status.Text)
	}

	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m = updated.(Model)
	if cmd == nil || !strings.HasPrefix(m.Status.Text, "completed") {
		t.Fatalf("expected toggle status with clear tick, got %q", m.Status.Text)
	}

	m.Status = StatusBar{Text: "boom", IsError: true}
	m = send(t, m, ClearStatusMsg{Text: "boom"})
	if m.Status.Text != "boom" {
		t.Fatal("error status should stay until replaced")
	}
}

func TestStartupStatusMessages(t *testing.T) {
	f := newFixture(t)
	if cmd := f.model().startupCmd(); cmd != nil {
		t.Fatal("expected no startup message without a session")
	}

	m := f.signedIn(t)
	msg := m.startupCmd()()
	set, ok := msg.(SetStatusMsg)
	if !ok || !strings.Contains(set.Text, "Ada") {
		t.Fatalf("expected greeting status, got %#v", msg)
	}
	updated, cmd := m.Update(set)
	m = updated.(Model)
	if m.Status.Text != set.Text || cmd == nil {
		t.Fatalf("expected status set with clear tick, got %+v", m.Status)
	}
	updated, cmd = m.Update(SetStatusMsg{Text: "disk almost full", IsError: true})
	m = updated.(Model)
	if !m.Status.IsError || cmd != nil {
		t.Fatalf("error status should not be cleared on a timer, got %+v", m.Status)
	}

	m.startErr = errors.New("database is locked")
	msg = m.startupCmd()()
	if appErr, ok := msg.(AppErrorMsg); !ok || appErr.Err != m.startErr {
		t.Fatalf("expected startup error message, got %#v", msg)
	}
}

func TestDesktopNotifyFailureBecomesAppError(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)
	m.notifier = failingNotifier{}

	cmd := m.notify("Call mom", "due in 30 minutes", levelReminder)
	if cmd == nil {
		t.Fatal("expected error command for failed desktop send")
	}
	msg, ok := cmd().(AppErrorMsg)
	if !ok {
		t.Fatalf("expected AppErrorMsg, got %#v", cmd())
	}
	m = send(t, m, msg)
	if !m.Status.IsError || !errors.Is(m.LastError, msg.Err) {
		t.Fatalf("expected error surfaced, got %+v", m.Status)
	}
	last := m.Notifications[len(m.Notifications)-1]
	if last.Title != "Error" || last.Level != "error" {
		t.Fatalf("expected error notification, got %+v", last)
	}

	m = send(t, m, AppErrorMsg{})
	if m.LastError != nil {
		t.Fatalf("expected nil error recorded, got %v", m.LastError)
	}
}
