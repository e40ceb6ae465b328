// internal/tui/dashboard_view.go
//
// The dashboard is the one protected screen: the appointment table plus the
// create/edit form. The schedule.Planner owns the data; this view renders a
// snapshot of it and is the only place that snapshot is refreshed, always
// from the single Update flow.

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/okellen/appointed/internal/api"
	"github.com/okellen/appointed/internal/schedule"
)

const displayTimeLayout = "2006-01-02 15:04"

// inputTimeLayouts are the shapes accepted in the start/end fields.
var inputTimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
}

type dashboardView struct {
	app *App

	// rows is the rendered snapshot of the planner cache, updated only
	// when a round trip completes.
	rows     []api.Appointment
	selected int
	loaded   bool

	inputs []textinput.Model // start, end, purpose
	focus  int

	pending bool
	spin    spinner.Model
	errMsg  string
}

func newDashboardView(app *App) *dashboardView {
	start := textinput.New()
	start.Placeholder = "2024-06-01 09:00"
	start.CharLimit = 32

	end := textinput.New()
	end.Placeholder = "2024-06-01 10:00"
	end.CharLimit = 32

	purpose := textinput.New()
	purpose.Placeholder = "purpose"
	purpose.CharLimit = 200

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &dashboardView{
		app:    app,
		inputs: []textinput.Model{start, end, purpose},
		spin:   spin,
	}
}

// enter kicks off the refresh that runs every time the dashboard is opened.
func (d *dashboardView) enter() tea.Cmd {
	d.errMsg = ""
	d.pending = true
	planner := d.app.planner
	ctx := d.app.serviceContext()
	return tea.Batch(d.spin.Tick, func() tea.Msg {
		return refreshDoneMsg{err: planner.Refresh(ctx)}
	})
}

// reset drops all view state; used on logout and credential failure.
func (d *dashboardView) reset() {
	d.rows = nil
	d.selected = 0
	d.loaded = false
	d.pending = false
	d.errMsg = ""
	d.closeForm()
}

func (d *dashboardView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !d.pending {
			return nil
		}
		var cmd tea.Cmd
		d.spin, cmd = d.spin.Update(msg)
		return cmd

	case refreshDoneMsg:
		d.pending = false
		d.loaded = true
		if msg.err != nil {
			d.errMsg = msg.err.Error()
			d.app.logWarn("Refresh failed: %v", msg.err)
			return nil
		}
		d.errMsg = ""
		d.snapshotRows()
		d.app.logInfo("Loaded %d appointment(s)", len(d.rows))
		return nil

	case submitDoneMsg:
		d.pending = false
		if msg.err != nil {
			// The planner kept the draft and the editor open; show the
			// failure and let the user correct and resubmit.
			d.errMsg = msg.err.Error()
			d.app.logWarn("Submit failed: %v", msg.err)
			return nil
		}
		d.errMsg = ""
		d.snapshotRows()
		d.closeForm()
		d.app.logInfo("Saved appointment %d (%s)", msg.appointment.ID, msg.appointment.Purpose)
		return nil

	case tea.KeyMsg:
		if d.pending {
			return nil
		}
		if d.app.planner.Editor().Mode != schedule.ModeIdle {
			return d.updateForm(msg)
		}
		return d.updateTable(msg)
	}
	return nil
}

func (d *dashboardView) updateTable(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		if d.selected > 0 {
			d.selected--
		}
	case "down", "j":
		if d.selected < len(d.rows)-1 {
			d.selected++
		}
	case "r":
		return d.enter()
	case "n":
		d.app.planner.StartCreate()
		d.openForm()
	case "e":
		if len(d.rows) == 0 {
			return nil
		}
		if err := d.app.planner.StartEdit(d.rows[d.selected].ID); err != nil {
			d.errMsg = err.Error()
			return nil
		}
		d.openForm()
	case "s":
		return d.app.signOut()
	}
	return nil
}

func (d *dashboardView) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		d.app.planner.Cancel()
		d.closeForm()
		d.errMsg = ""
		return nil
	case "tab", "down":
		d.setFocus(d.focus + 1)
		return nil
	case "shift+tab", "up":
		d.setFocus(d.focus - 1)
		return nil
	case "enter":
		if d.focus < len(d.inputs)-1 {
			d.setFocus(d.focus + 1)
			return nil
		}
		return d.submit()
	}
	var cmd tea.Cmd
	d.inputs[d.focus], cmd = d.inputs[d.focus].Update(msg)
	return cmd
}

// submit parses the form fields into a draft and hands it to the planner.
// Unparseable instants never leave the client, and the entered text stays
// in the inputs either way.
func (d *dashboardView) submit() tea.Cmd {
	start, err := parseInstant(d.inputs[0].Value())
	if err != nil {
		d.errMsg = "Start time must look like " + displayTimeLayout
		return nil
	}
	end, err := parseInstant(d.inputs[1].Value())
	if err != nil {
		d.errMsg = "End time must look like " + displayTimeLayout
		return nil
	}
	d.app.planner.SetDraft(api.Draft{
		Start:   start,
		End:     end,
		Purpose: strings.TrimSpace(d.inputs[2].Value()),
	})

	d.errMsg = ""
	d.pending = true
	planner := d.app.planner
	ctx := d.app.serviceContext()
	return tea.Batch(d.spin.Tick, func() tea.Msg {
		appointment, err := planner.Submit(ctx)
		return submitDoneMsg{appointment: appointment, err: err}
	})
}

func parseInstant(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range inputTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("tui: %q is not a recognized instant", raw)
}

// snapshotRows copies the planner cache for rendering and keeps the
// selection in range.
func (d *dashboardView) snapshotRows() {
	d.rows = d.app.planner.Appointments()
	if d.selected >= len(d.rows) {
		d.selected = len(d.rows) - 1
	}
	if d.selected < 0 {
		d.selected = 0
	}
}

func (d *dashboardView) openForm() {
	draft := d.app.planner.Draft()
	if draft.Start.IsZero() {
		d.inputs[0].SetValue("")
	} else {
		d.inputs[0].SetValue(draft.Start.Format(displayTimeLayout))
	}
	if draft.End.IsZero() {
		d.inputs[1].SetValue("")
	} else {
		d.inputs[1].SetValue(draft.End.Format(displayTimeLayout))
	}
	d.inputs[2].SetValue(draft.Purpose)
	for i := range d.inputs {
		d.inputs[i].Blur()
	}
	d.focus = 0
	d.inputs[0].Focus()
}

func (d *dashboardView) closeForm() {
	for i := range d.inputs {
		d.inputs[i].SetValue("")
		d.inputs[i].Blur()
	}
	d.focus = 0
}

func (d *dashboardView) setFocus(idx int) {
	if idx < 0 {
		idx = len(d.inputs) - 1
	}
	if idx >= len(d.inputs) {
		idx = 0
	}
	d.inputs[d.focus].Blur()
	d.focus = idx
	d.inputs[d.focus].Focus()
}

func (d *dashboardView) view() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("Appointments")

	var b strings.Builder
	b.WriteString(title + "\n\n")

	switch {
	case !d.loaded && d.pending:
		b.WriteString(d.spin.View() + " Loading appointments...\n")
	case len(d.rows) == 0:
		b.WriteString("No appointments yet. Press n to create one.\n")
	default:
		b.WriteString(d.renderTable() + "\n")
	}

	if editor := d.app.planner.Editor(); editor.Mode != schedule.ModeIdle {
		b.WriteString("\n" + d.renderForm(editor) + "\n")
	}

	if d.pending && d.loaded {
		b.WriteString("\n" + d.spin.View() + " Talking to the service...\n")
	}
	if d.errMsg != "" {
		b.WriteString("\n" + errorLine(d.errMsg) + "\n")
	}

	var help string
	if d.app.planner.Editor().Mode != schedule.ModeIdle {
		help = "enter next/submit · tab next field · esc cancel"
	} else {
		help = "n new · e edit · r refresh · s sign out · q quit"
	}
	b.WriteString("\n" + helpLine(help))

	return formBox(b.String())
}

func (d *dashboardView) renderTable() string {
	header := fmt.Sprintf("%-24s %-12s %-17s %-17s", "PURPOSE", "OWNER", "START", "END")
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AAAAAA")).Render(header),
	}
	for i, appt := range d.rows {
		line := fmt.Sprintf("%-24s %-12s %-17s %-17s",
			truncate(appt.Purpose, 24),
			truncate(appt.Username, 12),
			appt.Start.Format(displayTimeLayout),
			appt.End.Format(displayTimeLayout),
		)
		if i == d.selected {
			line = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#5B8DEF")).
				Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (d *dashboardView) renderForm(editor schedule.Editor) string {
	heading := "New appointment"
	if editor.Mode == schedule.ModeEditing {
		heading = fmt.Sprintf("Edit appointment %d", editor.ID)
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(heading) + "\n")
	for i, label := range []string{"Start", "End", "Purpose"} {
		b.WriteString(label + "\n")
		b.WriteString(d.inputs[i].View() + "\n")
	}
	return b.String()
}

// truncate shortens s to at most limit runes. Slicing by runes keeps
// multi-byte text from being cut mid-sequence.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}
