package update

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/taskly/taskly/internal/app"
	"github.com/taskly/taskly/internal/model"
	"github.com/taskly/taskly/internal/scheduler"
)

type Screen string

const (
	ScreenLogin    Screen = "Login"
	ScreenTasks    Screen = "Tasks"
	ScreenSettings Screen = "Settings"
)

const reminderLogSize = 20

type StatusBar struct {
	Text    string
	IsError bool
}

type PaletteState struct {
	Active bool
	Input  string
}

// LoginForm holds the sign-in and registration fields. Only email and
// password are used when signing in.
type LoginForm struct {
	Register bool
	Focus    int
	inputs   []textinput.Model
}

const (
	fieldEmail = iota
	fieldPassword
	fieldConfirm
	fieldName
)

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type Deps struct {
	Workspace  *app.Workspace
	Engine     *scheduler.Engine
	Notifier   DesktopNotifier
	Logger     *slog.Logger
	Config     RuntimeConfig
	Now        func() time.Time
	StartupErr error
}

type Model struct {
	Screen         Screen
	SelectedTaskID string
	ShowDetail     bool
	HelpVisible    bool
	Palette        PaletteState
	Login          LoginForm
	ConfirmDelete  bool
	Reauth         bool
	ReminderLog    []scheduler.ReminderEvent
	Notifications  []Notification
	DesktopEnabled bool
	Status         StatusBar
	Keys           KeyMap
	Quitting       bool
	LastError      error

	ctx      context.Context
	ws       *app.Workspace
	engine   *scheduler.Engine
	notifier DesktopNotifier
	logger   *slog.Logger
	now      func() time.Time
	cfg      RuntimeConfig
	startErr error

	feed     <-chan []model.Task
	stopFeed context.CancelFunc

	commandInput  textinput.Model
	passwordInput textinput.Model
	helpModel     help.Model
	detailView    viewport.Model
	width         int
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

// ClearStatusMsg clears the status bar if it still shows Text.
type ClearStatusMsg struct {
	Text string
}

type AppErrorMsg struct {
	Err error
}

type ReminderDueMsg struct {
	Event scheduler.ReminderEvent
}

type snapshotMsg struct {
	feed  <-chan []model.Task
	tasks []model.Task
}

type feedClosedMsg struct {
	feed <-chan []model.Task
}

func NewModel(ctx context.Context, deps Deps) Model {
	m := Model{
		Screen:         ScreenLogin,
		DesktopEnabled: deps.Config.DesktopNotifications,
		Keys:           DefaultKeyMap(),
		ctx:            ctx,
		ws:             deps.Workspace,
		engine:         deps.Engine,
		notifier:       deps.Notifier,
		logger:         deps.Logger,
		now:            deps.Now,
		cfg:            deps.Config,
		startErr:       deps.StartupErr,
	}
	if m.notifier == nil {
		m.notifier = NoopDesktopNotifier{}
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.initBubbleComponents()
	if m.ws.SignedIn() {
		m.Screen = ScreenTasks
		m.startFeed()
		m.syncSelection()
	}
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.passwordInput = textinput.New()
	m.passwordInput.Prompt = "password> "
	m.passwordInput.EchoMode = textinput.EchoPassword
	m.passwordInput.CharLimit = 128

	labels := []string{"email> ", "password> ", "confirm> ", "name> "}
	m.Login.inputs = make([]textinput.Model, len(labels))
	for i, label := range labels {
		in := textinput.New()
		in.Prompt = label
		in.CharLimit = 128
		in.Width = 40
		if i == fieldPassword || i == fieldConfirm {
			in.EchoMode = textinput.EchoPassword
		}
		m.Login.inputs[i] = in
	}
	m.Login.inputs[fieldName].Placeholder = "optional"
	m.Login.inputs[fieldEmail].Focus()

	m.helpModel = help.New()
	m.detailView = viewport.New(54, 14)
}

func (m *Model) startFeed() {
	m.stopFeedIfRunning()
	ctx, cancel := context.WithCancel(m.ctx)
	feed, err := m.ws.Subscribe(ctx)
	if err != nil {
		cancel()
		m.logger.Error("task feed failed", "error", err)
		m.Status = StatusBar{Text: DescribeError(err), IsError: true}
		return
	}
	m.feed = feed
	m.stopFeed = cancel
}

func (m *Model) stopFeedIfRunning() {
	if m.stopFeed != nil {
		m.stopFeed()
	}
	m.feed = nil
	m.stopFeed = nil
}

type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Delete   key.Binding
	Detail   key.Binding
	Add      key.Binding
	Edit     key.Binding
	Segment  key.Binding
	Dates    key.Binding
	Palette  key.Binding
	Settings key.Binding
	Back     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:   key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x", "done/undo")),
		Delete:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Detail:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Segment:  key.NewBinding(key.WithKeys("0", "1", "2", "3", "4"), key.WithHelp("0-4", "category")),
		Dates:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "date filter")),
		Palette:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command")),
		Settings: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Add, k.Palette, k.Settings, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Detail, k.Toggle, k.Delete},
		{k.Add, k.Edit, k.Segment, k.Dates},
		{k.Palette, k.Settings, k.Back, k.Help, k.Quit},
	}
}
