package views

import (
	"fmt"
	"strings"
)

type TaskRow struct {
	ID       string
	Emoji    string
	Title    string
	Due      string
	Overdue  bool
	Done     bool
	HasNotes bool
}

type TaskListData struct {
	Greeting      string
	Segments      []string
	ActiveSegment int
	DateModes     []string
	ActiveMode    string
	Pending       []TaskRow
	Completed     []TaskRow
	ShowCompleted bool
	SelectedID    string
	Empty         bool
}

type DetailData struct {
	ID        string
	Emoji     string
	Title     string
	Due       string
	Created   string
	Done      bool
	NotesView string
}

type SettingsData struct {
	Name         string
	Email        string
	Categories   []string
	DailyOn      bool
	DailyAt      string
	WeekStart    string
	Reauth       bool
	PasswordView string
}

type LoginData struct {
	Register bool
	Fields   []string
}

type ReminderLogEntry struct {
	At    string
	Title string
	Body  string
}

type HelpPanelData struct {
	Screen   string
	Bindings []string
	HelpView string
}

func RenderTaskList(data TaskListData) string {
	var b strings.Builder
	if data.Greeting != "" {
		b.WriteString(data.Greeting + "\n")
	}
	b.WriteString(RenderSegments(data.Segments, data.ActiveSegment) + "\n")
	b.WriteString(renderModes(data.DateModes, data.ActiveMode) + "\n")

	if data.Empty {
		b.WriteString("\nNo tasks yet.\n")
		b.WriteString(faintStyle.Render("Press [a] or type /add <title> cat:<emoji> to create one."))
		return b.String()
	}

	renderTaskSection(&b, "Pending", data.Pending, data.SelectedID)
	if data.ShowCompleted {
		renderTaskSection(&b, "Done", data.Completed, data.SelectedID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderSegments draws the category picker; index 0 is "All".
func RenderSegments(segments []string, active int) string {
	parts := make([]string, 0, len(segments))
	for i, seg := range segments {
		label := fmt.Sprintf("%d %s", i, seg)
		if i == active {
			parts = append(parts, activeStyle.Render(label))
		} else {
			parts = append(parts, segmentStyle.Render(label))
		}
	}
	return strings.Join(parts, "")
}

func renderModes(modes []string, active string) string {
	parts := make([]string, 0, len(modes))
	for _, mode := range modes {
		if mode == active {
			parts = append(parts, activeStyle.Render(mode))
		} else {
			parts = append(parts, segmentStyle.Render(mode))
		}
	}
	return strings.Join(parts, "")
}

func renderTaskSection(b *strings.Builder, title string, rows []TaskRow, selectedID string) {
	b.WriteString("\n" + sectionStyle.Render(title) + "\n")
	if len(rows) == 0 {
		b.WriteString(faintStyle.Render("  (none)") + "\n")
		return
	}
	for _, row := range rows {
		b.WriteString(renderTaskRow(row, row.ID == selectedID) + "\n")
	}
}

func renderTaskRow(row TaskRow, selected bool) string {
	cursor := "  "
	if selected {
		cursor = cursorStyle.Render("> ")
	}
	check := "[ ]"
	if row.Done {
		check = "[x]"
	}
	title := row.Title
	if row.HasNotes {
		title += " ✎"
	}
	switch {
	case row.Done:
		title = doneStyle.Render(title)
	case row.Overdue:
		title = overdueStyle.Render(title)
	}
	line := fmt.Sprintf("%s%s %s %s", cursor, check, row.Emoji, title)
	if row.Due != "" {
		due := row.Due
		if row.Overdue && !row.Done {
			due = overdueStyle.Render(due)
		} else {
			due = faintStyle.Render(due)
		}
		line += "  " + due
	}
	return line + faintStyle.Render("  #"+row.ID)
}

func RenderDetail(data DetailData) string {
	if strings.TrimSpace(data.ID) == "" {
		return "details:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s\n", data.Emoji, sectionStyle.Render(data.Title)))
	b.WriteString(fmt.Sprintf("id: %s\n", data.ID))
	state := "pending"
	if data.Done {
		state = "done"
	}
	b.WriteString(fmt.Sprintf("state: %s\n", state))
	if data.Due != "" {
		b.WriteString(fmt.Sprintf("due: %s\n", data.Due))
	} else {
		b.WriteString("due: none\n")
	}
	if data.Created != "" {
		b.WriteString(fmt.Sprintf("created: %s\n", data.Created))
	}
	b.WriteString("\nnotes:\n")
	if strings.TrimSpace(data.NotesView) == "" {
		b.WriteString(faintStyle.Render("(no notes)"))
	} else {
		b.WriteString(data.NotesView)
	}
	return b.String()
}

func RenderSettings(data SettingsData) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Account") + "\n")
	b.WriteString(fmt.Sprintf("name: %s\nemail: %s\n", data.Name, data.Email))
	b.WriteString("[L] sign out  [X] delete account\n")

	b.WriteString("\n" + sectionStyle.Render("Categories") + "\n")
	for i, c := range data.Categories {
		b.WriteString(fmt.Sprintf("  %d %s\n", i+1, c))
	}
	b.WriteString("[1-4] rename category\n")

	b.WriteString("\n" + sectionStyle.Render("Notifications") + "\n")
	state := "off"
	if data.DailyOn {
		state = "on"
	}
	b.WriteString(fmt.Sprintf("daily reminder at %s: %s\n", data.DailyAt, state))
	b.WriteString("[r] toggle daily reminder  [n] send a test notification\n")
	if data.WeekStart != "" {
		b.WriteString(fmt.Sprintf("\nweek starts on %s\n", data.WeekStart))
	}

	if data.Reauth {
		b.WriteString("\n" + errorStyle.Render("Confirm your password to delete the account") + "\n")
		b.WriteString(data.PasswordView + "\n")
		b.WriteString("[enter] confirm  [esc] cancel")
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderLogin(data LoginData) string {
	var b strings.Builder
	if data.Register {
		b.WriteString(sectionStyle.Render("Create account") + "\n\n")
	} else {
		b.WriteString(sectionStyle.Render("Sign in") + "\n\n")
	}
	for _, f := range data.Fields {
		b.WriteString(f + "\n")
	}
	b.WriteString("\n[tab] next field  [enter] submit  ")
	if data.Register {
		b.WriteString("[ctrl+r] have an account? sign in")
	} else {
		b.WriteString("[ctrl+r] new here? register")
	}
	return b.String()
}

// RenderReminderLog lists fired reminders, newest first.
func RenderReminderLog(entries []ReminderLogEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("reminders:\n")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		b.WriteString(fmt.Sprintf("%s %s: %s\n", e.At, e.Title, e.Body))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help (%s):\n%s\n\n%s",
		strings.ToLower(data.Screen),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
