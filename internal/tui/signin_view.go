package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// signInForm is the sign-in screen: two text inputs and a submit. While a
// sign-in round trip is pending every key except ctrl+c is swallowed, which
// is what guarantees at most one outstanding call.
type signInForm struct {
	inputs  []textinput.Model
	focus   int
	pending bool
	errMsg  string
	noteMsg string
}

func newSignInForm() *signInForm {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &signInForm{inputs: []textinput.Model{username, password}}
}

// reset clears entered values and messages, focusing the first field.
func (f *signInForm) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].Blur()
	}
	f.focus = 0
	f.inputs[0].Focus()
	f.pending = false
	f.errMsg = ""
	f.noteMsg = ""
}

func (f *signInForm) update(a *App, msg tea.Msg) tea.Cmd {
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

func (f *signInForm) setFocus(idx int) {
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

func (f *signInForm) submit(a *App) tea.Cmd {
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
	return func() tea.Msg {
		cred, err := client.SignIn(ctx, username, password)
		return signedInMsg{username: username, cred: cred, err: err}
	}
}

func (f *signInForm) view() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("Sign In")

	var b strings.Builder
	b.WriteString(title + "\n\n")
	for i, label := range []string{"Username", "Password"} {
		b.WriteString(label + "\n")
		b.WriteString(f.inputs[i].View() + "\n\n")
	}
	if f.pending {
		b.WriteString("Signing in...\n")
	}
	if f.errMsg != "" {
		b.WriteString(errorLine(f.errMsg) + "\n")
	}
	if f.noteMsg != "" {
		b.WriteString(noteLine(f.noteMsg) + "\n")
	}
	b.WriteString(helpLine("enter submit · tab next field · esc back"))

	return formBox(b.String())
}
