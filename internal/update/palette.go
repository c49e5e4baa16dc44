package update

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskly/taskly/internal/app"
	"github.com/taskly/taskly/internal/commands"
	"github.com/taskly/taskly/internal/model"
)

const sampleDelay = 5 * time.Second

// BoardHandlers maps commands onto the workspace. The TUI palette and the
// command line share them.
func BoardHandlers(ctx context.Context, ws *app.Workspace, now func() time.Time) commands.Handlers {
	board := ws.Board
	return commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			due, err := parseDue(a.Due, now())
			if err != nil {
				return commands.Result{}, err
			}
			task, err := board.Add(ctx, app.Draft{Title: a.Title, Emoji: a.Category, DueAt: due, Notes: a.Note})
			if !task.Persisted() {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added %s %s (#%s)", task.Emoji, task.Title, shortID(task.ID))}, err
		},
		Edit: func(e commands.EditArgs) (commands.Result, error) {
			patch := model.TaskPatch{Title: e.Title, Emoji: e.Category, Notes: e.Note, ClearDue: e.ClearDue}
			if !e.ClearDue && e.Due != "" {
				due, err := parseDue(e.Due, now())
				if err != nil {
					return commands.Result{}, err
				}
				patch.DueAt = due
			}
			task, err := board.Edit(ctx, e.Target, patch)
			if !task.Persisted() {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("updated %s", task.Title)}, err
		},
		Done: func(t commands.TargetArgs) (commands.Result, error) {
			task, err := board.SetDone(ctx, t.Target, true)
			if !task.Persisted() {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("completed %s", task.Title)}, err
		},
		Undo: func(t commands.TargetArgs) (commands.Result, error) {
			task, err := board.SetDone(ctx, t.Target, false)
			if !task.Persisted() {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("reopened %s", task.Title)}, err
		},
		Delete: func(t commands.TargetArgs) (commands.Result, error) {
			task, err := board.Delete(ctx, t.Target)
			if !task.Persisted() {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("deleted %s", task.Title)}, err
		},
		Show: func(t commands.TargetArgs) (commands.Result, error) {
			task, err := board.Task(t.Target)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: DescribeTask(task, now())}, nil
		},
		Filter: func(f commands.FilterArgs) (commands.Result, error) {
			board.SetDateFilter(f.Mode)
			return commands.Result{Message: fmt.Sprintf("showing %s tasks", f.Mode)}, nil
		},
		Category: func(c commands.CategoryArgs) (commands.Result, error) {
			if c.Rename {
				if err := board.RenameCategory(c.Index-1, c.Emoji); err != nil {
					return commands.Result{}, err
				}
				return commands.Result{Message: fmt.Sprintf("category %d is now %s", c.Index, c.Emoji)}, nil
			}
			if err := board.SetCategoryIndex(c.Segment); err != nil {
				return commands.Result{}, err
			}
			if c.Segment == 0 {
				return commands.Result{Message: "showing all categories"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("showing %s", board.Filter().Category)}, nil
		},
		Daily: func(d commands.DailyArgs) (commands.Result, error) {
			if err := ws.SetDailyReminder(ctx, d.On); err != nil {
				return commands.Result{}, err
			}
			if d.On {
				return commands.Result{Message: fmt.Sprintf("daily reminder on at %s", formatClock(ws.DailyAt()))}, nil
			}
			return commands.Result{Message: "daily reminder off"}, nil
		},
		Notify: func() (commands.Result, error) {
			req, err := ws.SendSample(ctx, sampleDelay)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("test notification at %s", req.FireAt.Format("15:04:05"))}, nil
		},
	}
}

func parseDue(raw string, now time.Time) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	due, err := model.ParseDue(raw, now)
	if err != nil {
		return nil, err
	}
	return &due, nil
}

func (m *Model) openPalette(prefix string) {
	m.Palette.Active = true
	m.Palette.Input = prefix
	m.commandInput.SetValue(prefix)
	m.commandInput.CursorEnd()
	m.commandInput.Focus()
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: DescribeError(err), IsError: true}
		return m, nil
	}
	handlers := BoardHandlers(m.ctx, m.ws, m.now)
	handlers.Show = func(t commands.TargetArgs) (commands.Result, error) {
		task, err := m.ws.Board.Task(t.Target)
		if err != nil {
			return commands.Result{}, err
		}
		m.SelectedTaskID = task.ID
		m.ShowDetail = true
		return commands.Result{Message: DescribeTask(task, m.now())}, nil
	}

	res, err := commands.Execute(cmd, handlers)
	var next tea.Cmd
	if err != nil {
		m.LastError = err
		m.logger.Warn("command failed", "command", cmd.Type, "error", err)
		m.Status = StatusBar{Text: DescribeError(err), IsError: true}
		next = m.notify("Command failed", DescribeError(err), levelFromError(true))
	} else {
		next = m.flashStatus(res.Message)
	}
	m.syncSelection()
	return m, next
}
