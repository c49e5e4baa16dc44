package update

import (
	"fmt"

	"github.com/taskly/taskly/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	var plain []string
	for _, kb := range m.screenBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		Screen:   string(m.Screen),
		Bindings: plain,
		HelpView: m.helpModel.FullHelpView(m.Keys.FullHelp()),
	})
}

func (m Model) screenBindings() []KeyBinding {
	switch m.Screen {
	case ScreenSettings:
		return []KeyBinding{
			{Key: "r", Action: "toggle the daily reminder"},
			{Key: "n", Action: "send a test notification"},
			{Key: "1-4", Action: "rename a category"},
			{Key: "L", Action: "sign out"},
			{Key: "X", Action: "delete account"},
			{Key: "esc", Action: "back to tasks"},
		}
	case ScreenLogin:
		return []KeyBinding{
			{Key: "tab", Action: "next field"},
			{Key: "ctrl+r", Action: "switch between sign in and register"},
			{Key: "enter", Action: "submit"},
		}
	default:
		return []KeyBinding{
			{Key: "/add <title> due:<when> cat:<emoji> note:<text>", Action: "add a task"},
			{Key: "/edit <id> title:|due:|due:none|cat:|note:", Action: "edit a task"},
			{Key: "/done, /undo, /delete, /show <id>", Action: "act on a task"},
			{Key: "/filter all|today|week|overdue", Action: "date filter"},
			{Key: "/category 0-4 | rename <1-4> <emoji>", Action: "categories"},
			{Key: "/daily on|off, /notify", Action: "notifications"},
		}
	}
}
