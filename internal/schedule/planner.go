// internal/schedule/planner.go
//
// Planner is the view model behind the dashboard: it owns the cached
// appointment list and the single in-progress draft, and it is the only
// code that mutates either. The TUI renders snapshots of it and forwards
// user intent; the service client below it does the wire work.

package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/okellen/appointed/internal/api"
)

// Mode says what the draft editor is doing. A single tagged value replaces
// the show-form flag plus nullable editing-id pair, so "form hidden but
// editing-id set" cannot be represented.
type Mode int

const (
	ModeIdle Mode = iota
	ModeCreating
	ModeEditing
)

func (m Mode) String() string {
	switch m {
	case ModeCreating:
		return "creating"
	case ModeEditing:
		return "editing"
	default:
		return "idle"
	}
}

// Editor is the current state of the draft editor. ID is meaningful only
// when Mode is ModeEditing.
type Editor struct {
	Mode Mode
	ID   int
}

var validate = validator.New()

// Planner coordinates fetches and mutations against the service client and
// keeps the cache consistent with their results. A mutex guards the cache,
// the editor, and the draft, so the event loop can read them while a Submit
// or Refresh runs on another goroutine; network round trips happen outside
// the lock. Callers keep at most one Submit or Refresh in flight.
type Planner struct {
	client *api.Client

	mu     sync.Mutex
	cache  []api.Appointment
	editor Editor
	draft  api.Draft
}

// NewPlanner builds a planner on top of the service client.
func NewPlanner(client *api.Client) *Planner {
	return &Planner{client: client}
}

// Appointments returns a copy of the cached list in service order.
func (p *Planner) Appointments() []api.Appointment {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]api.Appointment, len(p.cache))
	copy(out, p.cache)
	return out
}

// Editor returns the current editor state.
func (p *Planner) Editor() Editor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.editor
}

// Draft returns the in-progress draft fields.
func (p *Planner) Draft() api.Draft {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft
}

// SetDraft replaces the draft fields with what the form currently shows.
func (p *Planner) SetDraft(draft api.Draft) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = draft
}

// StartCreate opens a blank draft.
func (p *Planner) StartCreate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = api.Draft{}
	p.editor = Editor{Mode: ModeCreating}
}

// StartEdit opens a draft pre-populated from the cached appointment with the
// given id. Asking to edit an id that is not in the cache is a caller bug:
// edit requests originate from rendering the cache.
func (p *Planner) StartEdit(id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, appt := range p.cache {
		if appt.ID == id {
			p.draft = api.Draft{
				Start:   appt.Start.Time,
				End:     appt.End.Time,
				Purpose: appt.Purpose,
			}
			p.editor = Editor{Mode: ModeEditing, ID: id}
			return nil
		}
	}
	return fmt.Errorf("schedule: appointment %d is not in the cache", id)
}

// Cancel discards the draft and closes the editor.
func (p *Planner) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeEditor()
}

func (p *Planner) closeEditor() {
	p.draft = api.Draft{}
	p.editor = Editor{}
}

// Refresh replaces the entire cache with the service's current list. No
// merging: entries the service no longer returns are dropped, because the
// service is authoritative.
func (p *Planner) Refresh(ctx context.Context) error {
	appointments, err := p.client.ListAppointments(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = appointments
	return nil
}

// Submit validates the draft locally, sends it, and reconciles the result
// into the cache: a create appends, an edit replaces the matching entry.
// On any failure the editor stays open with the entered fields preserved so
// the user can correct and resubmit.
func (p *Planner) Submit(ctx context.Context) (api.Appointment, error) {
	p.mu.Lock()
	editor := p.editor
	draft := p.draft
	p.mu.Unlock()

	if editor.Mode == ModeIdle {
		return api.Appointment{}, errors.New("schedule: no draft in progress")
	}
	if err := checkDraft(draft); err != nil {
		return api.Appointment{}, err
	}

	var appointment api.Appointment
	var err error
	switch editor.Mode {
	case ModeCreating:
		appointment, err = p.client.CreateAppointment(ctx, draft)
	case ModeEditing:
		appointment, err = p.client.UpdateAppointment(ctx, editor.ID, draft)
	}
	if err != nil {
		return api.Appointment{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if editor.Mode == ModeCreating {
		p.cache = append(p.cache, appointment)
	} else {
		for i := range p.cache {
			if p.cache[i].ID == appointment.ID {
				p.cache[i] = appointment
			}
		}
	}
	p.closeEditor()
	return appointment, nil
}

// Invalidate empties the cache and closes the editor. Called after an
// authorization failure: nothing cached is trusted until a new sign-in.
func (p *Planner) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = nil
	p.closeEditor()
}

// checkDraft enforces the form-boundary rules before any network call:
// both instants present, start strictly before end, purpose non-empty.
// Stricter business rules stay with the service; its rejections are
// surfaced, not pre-empted.
func checkDraft(draft api.Draft) error {
	err := validate.Struct(draft)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &api.Error{Kind: api.KindValidation, Message: "invalid appointment fields"}
	}
	return &api.Error{Kind: api.KindValidation, Message: messageFor(fieldErrs[0])}
}

func messageFor(fe validator.FieldError) string {
	switch {
	case fe.Field() == "End" && fe.Tag() == "gtfield":
		return "start time must be strictly before end time"
	case fe.Field() == "Purpose":
		return "purpose must not be empty"
	case fe.Field() == "Start":
		return "start time is required"
	case fe.Field() == "End":
		return "end time is required"
	default:
		return "invalid appointment fields"
	}
}
