package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskly/taskly/internal/auth"
	"github.com/taskly/taskly/internal/views"
)

func (f LoginForm) fieldCount() int {
	if f.Register {
		return len(f.inputs)
	}
	return fieldPassword + 1
}

func (m *Model) focusLoginField(i int) {
	n := m.Login.fieldCount()
	i = (i%n + n) % n
	for j := range m.Login.inputs {
		m.Login.inputs[j].Blur()
	}
	m.Login.Focus = i
	m.Login.inputs[i].Focus()
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+r":
		m.Login.Register = !m.Login.Register
		m.focusLoginField(m.Login.Focus)
		return m, nil
	case "tab", "down":
		m.focusLoginField(m.Login.Focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.focusLoginField(m.Login.Focus - 1)
		return m, nil
	case "esc":
		m.Status = StatusBar{}
		return m, nil
	case "enter":
		if m.Login.Focus < m.Login.fieldCount()-1 {
			m.focusLoginField(m.Login.Focus + 1)
			return m, nil
		}
		return m.submitLogin()
	}
	var cmd tea.Cmd
	m.Login.inputs[m.Login.Focus], cmd = m.Login.inputs[m.Login.Focus].Update(msg)
	return m, cmd
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	in := m.Login.inputs
	var (
		sess auth.Session
		err  error
	)
	if m.Login.Register {
		sess, err = m.ws.Register(m.ctx,
			in[fieldEmail].Value(),
			in[fieldPassword].Value(),
			in[fieldConfirm].Value(),
			in[fieldName].Value(),
		)
	} else {
		sess, err = m.ws.Login(m.ctx, in[fieldEmail].Value(), in[fieldPassword].Value())
	}
	if !m.ws.SignedIn() {
		m.LastError = err
		m.Status = StatusBar{Text: DescribeError(err), IsError: true}
		m.Login.inputs[fieldPassword].SetValue("")
		m.Login.inputs[fieldConfirm].SetValue("")
		return m, nil
	}

	for i := range m.Login.inputs {
		m.Login.inputs[i].SetValue("")
		m.Login.inputs[i].Blur()
	}
	m.Screen = ScreenTasks
	m.startFeed()
	m.syncSelection()
	if err != nil {
		m.logger.Warn("sign-in completed with errors", "user_id", sess.UserID, "error", err)
		m.Status = StatusBar{Text: DescribeError(err), IsError: true}
	} else {
		m.Status = StatusBar{Text: fmt.Sprintf("signed in as %s", sess.ResolvedName())}
	}
	return m, waitForSnapshotCmd(m.feed)
}

func (m Model) renderLoginView() string {
	fields := make([]string, 0, m.Login.fieldCount())
	for i := 0; i < m.Login.fieldCount(); i++ {
		fields = append(fields, m.Login.inputs[i].View())
	}
	return views.RenderLogin(views.LoginData{Register: m.Login.Register, Fields: fields})
}
