package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// signUpForm is the account creation screen. The admin flag mirrors the
// service's is_admin field and defaults to off.
type signUpForm struct {
	inputs  []textinput.Model
	focus   int
	isAdmin bool
	pending bool
	errMsg  string
}

func newSignUpForm() *signUpForm {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &signUpForm{inputs: []textinput.Model{username, password}}
}

func (f *signUpForm) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].Blur()
	}
	f.focus = 0
	f.inputs[0].Focus()
	f.isAdmin = false
	f.pending = false
	f.errMsg = ""
}

func (f *signUpForm) update(a *App, msg tea.Msg) tea.Cmd {
	if f.pending {
		return nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return a.navigate(screenLanding)
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return nil
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return nil
		case "ctrl+a":
			f.isAdmin = !f.isAdmin
			return nil
		case "enter":
			if f.focus < len(f.inputs)-1 {
				f.setFocus(f.focus + 1)
				return nil
			}
			return f.submit(a)
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *signUpForm) setFocus(idx int) {
	if idx < 0 {
		idx = len(f.inputs) - 1
	}
	if idx >= len(f.inputs) {
		idx = 0
	}
	f.inputs[f.focus].Blur()
	f.focus = idx
	f.inputs[f.focus].Focus()
}

func (f *signUpForm) submit(a *App) tea.Cmd {
	username := strings.TrimSpace(f.inputs[0].Value())
	password := f.inputs[1].Value()
	if username == "" || password == "" {
		f.errMsg = "Username and password are required"
		return nil
	}
	f.errMsg = ""
	f.pending = true
	client := a.client
	ctx := a.serviceContext()
	isAdmin := f.isAdmin
	return func() tea.Msg {
		user, err := client.SignUp(ctx, username, password, isAdmin)
		return signedUpMsg{user: user, err: err}
	}
}

func (f *signUpForm) view() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("Sign Up")

	admin := "no"
	if f.isAdmin {
		admin = "yes"
	}

	var b strings.Builder
	b.WriteString(title + "\n\n")
	for i, label := range []string{"Username", "Password"} {
		b.WriteString(label + "\n")
		b.WriteString(f.inputs[i].View() + "\n\n")
	}
	b.WriteString("Admin account: " + admin + "\n\n")
	if f.pending {
		b.WriteString("Creating account...\n")
	}
	if f.errMsg != "" {
		b.WriteString(errorLine(f.errMsg) + "\n")
	}
	b.WriteString(helpLine("enter submit · tab next field · ctrl+a toggle admin · esc back"))

	return formBox(b.String())
}
