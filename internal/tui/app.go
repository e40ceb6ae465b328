// internal/tui/app.go
//
// The main TUI for appointed. It uses bubbletea, which follows The Elm
// Architecture: the App model holds all state, Update reacts to messages,
// View renders a string. Screens replace the routes of a browser client;
// every transition goes through routeFor in guard.go.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/okellen/appointed/internal/api"
	"github.com/okellen/appointed/internal/config"
	"github.com/okellen/appointed/internal/logbook"
	"github.com/okellen/appointed/internal/schedule"
	"github.com/okellen/appointed/internal/session"
)

// Messages delivered when a service round trip completes. Exactly one is in
// flight at a time; the dispatching view disables its controls until the
// message lands.
type signedInMsg struct {
	username string
	cred     session.Credential
	err      error
}

type signedUpMsg struct {
	user api.User
	err  error
}

type refreshDoneMsg struct {
	err error
}

type submitDoneMsg struct {
	appointment api.Appointment
	err         error
}

// App is the main application model. In bubbletea, this holds ALL state.
type App struct {
	state    screen
	config   *config.Config
	sessions *session.Store
	client   *api.Client
	planner  *schedule.Planner
	logbook  *logbook.Logbook

	landingMenu list.Model
	signIn      *signInForm
	signUp      *signUpForm
	dashboard   *dashboardView

	statusMsg string

	width  int
	height int
}

// menuItem implements the list.Item interface for landing menu entries.
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// NewApp wires the injected collaborators into the root model. The initial
// screen is whatever the guard makes of the landing request, so a persisted
// credential drops the user straight onto the dashboard.
func NewApp(cfg *config.Config, sessions *session.Store, client *api.Client, lb *logbook.Logbook) *App {
	landingMenu := list.New([]list.Item{
		menuItem{title: "Sign In", desc: "Use an existing account"},
		menuItem{title: "Sign Up", desc: "Create a new account"},
		menuItem{title: "Quit", desc: "Leave appointed"},
	}, list.NewDefaultDelegate(), 0, 0)
	landingMenu.Title = "◷ APPOINTED"
	landingMenu.SetShowStatusBar(false)
	landingMenu.SetFilteringEnabled(false)

	app := &App{
		config:      cfg,
		sessions:    sessions,
		client:      client,
		planner:     schedule.NewPlanner(client),
		logbook:     lb,
		landingMenu: landingMenu,
	}
	app.signIn = newSignInForm()
	app.signUp = newSignUpForm()
	app.dashboard = newDashboardView(app)

	app.state = routeFor(screenLanding, sessions)
	if app.state == screenDashboard {
		app.logInfo("Session resumed from persisted credential")
	}
	return app
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	if a.state == screenDashboard {
		return a.dashboard.enter()
	}
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.landingMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-8))
		return a, nil

	case signedInMsg:
		return a.handleSignedIn(msg)

	case signedUpMsg:
		return a.handleSignedUp(msg)

	case refreshDoneMsg, submitDoneMsg:
		if a.interceptUnauthorized(msg) {
			return a, nil
		}
		return a, a.dashboard.update(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	switch a.state {
	case screenLanding:
		return a.updateLanding(msg)
	case screenSignIn:
		return a, a.signIn.update(a, msg)
	case screenSignUp:
		return a, a.signUp.update(a, msg)
	case screenDashboard:
		return a, a.dashboard.update(msg)
	}
	return a, nil
}

// View renders the current screen.
func (a *App) View() string {
	var content string
	switch a.state {
	case screenLanding:
		content = a.renderLanding()
	case screenSignIn:
		content = a.signIn.view()
	case screenSignUp:
		content = a.signUp.view()
	case screenDashboard:
		content = a.dashboard.view()
	}

	sections := []string{content}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	if a.statusMsg != "" {
		footer := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			Render(a.statusMsg)
		sections = append(sections, footer)
	}
	return strings.Join(sections, "\n")
}

// navigate asks the guard where a requested transition actually lands and
// performs any entry work for the destination.
func (a *App) navigate(requested screen) tea.Cmd {
	dest := routeFor(requested, a.sessions)
	if dest != requested {
		a.logInfo("Guard · %s redirected to %s", requested, dest)
	}
	a.state = dest
	a.statusMsg = ""
	if dest == screenDashboard {
		return a.dashboard.enter()
	}
	return nil
}

func (a *App) updateLanding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q":
			return a, tea.Quit
		case "enter":
			item, ok := a.landingMenu.SelectedItem().(menuItem)
			if !ok {
				return a, nil
			}
			switch item.title {
			case "Sign In":
				a.signIn.reset()
				return a, a.navigate(screenSignIn)
			case "Sign Up":
				a.signUp.reset()
				return a, a.navigate(screenSignUp)
			case "Quit":
				return a, tea.Quit
			}
			return a, nil
		}
	}
	var cmd tea.Cmd
	a.landingMenu, cmd = a.landingMenu.Update(msg)
	return a, cmd
}

func (a *App) handleSignedIn(msg signedInMsg) (tea.Model, tea.Cmd) {
	a.signIn.pending = false
	if msg.err != nil {
		a.signIn.errMsg = msg.err.Error()
		a.logWarn("Sign-in failed for %s: %v", msg.username, msg.err)
		return a, nil
	}
	a.sessions.Set(msg.cred)
	a.logInfo("Signed in as %s", msg.username)
	return a, a.navigate(screenDashboard)
}

func (a *App) handleSignedUp(msg signedUpMsg) (tea.Model, tea.Cmd) {
	a.signUp.pending = false
	if msg.err != nil {
		a.signUp.errMsg = msg.err.Error()
		a.logWarn("Sign-up failed: %v", msg.err)
		return a, nil
	}
	a.logInfo("Account %s created", msg.user.Username)
	a.signIn.reset()
	a.signIn.noteMsg = fmt.Sprintf("Account %s created, sign in to continue", msg.user.Username)
	return a, a.navigate(screenSignIn)
}

// interceptUnauthorized handles the one failure every operation shares: a
// 401 means the credential is dead, so it is cleared, the cache dropped,
// and the user routed back to sign-in. Reports whether msg carried a 401.
func (a *App) interceptUnauthorized(msg tea.Msg) bool {
	var err error
	switch m := msg.(type) {
	case refreshDoneMsg:
		err = m.err
	case submitDoneMsg:
		err = m.err
	}
	if !api.IsUnauthorized(err) {
		return false
	}
	a.sessions.Clear()
	a.planner.Invalidate()
	a.dashboard.reset()
	a.signIn.reset()
	a.signIn.errMsg = "Your session expired, sign in again"
	a.state = screenSignIn
	a.logWarn("Credential rejected by the service, signed out")
	return true
}

// signOut is the explicit logout path from the dashboard.
func (a *App) signOut() tea.Cmd {
	a.sessions.Clear()
	a.planner.Invalidate()
	a.dashboard.reset()
	a.logInfo("Signed out")
	cmd := a.navigate(screenLanding)
	a.statusMsg = "Signed out"
	return cmd
}

func (a *App) renderLanding() string {
	if a.width > 0 {
		a.landingMenu.SetSize(max(20, a.width-6), max(10, a.height-8))
	}
	return a.landingMenu.View()
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, _ := a.logbook.Tail(4)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

// serviceContext is the context for one service round trip. Cancellation is
// not offered in the UI; the transport timeout bounds the call.
func (a *App) serviceContext() context.Context {
	return context.Background()
}
