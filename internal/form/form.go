// Package form holds the per-session state of the registration form and
// turns (state, event) into the next state and what to show.
package form

import (
	"context"
	"errors"
	"fmt"

	"regform/internal/models"
	"regform/internal/registration"
)

// Registrar records a submission or explains why it was rejected.
type Registrar interface {
	Register(ctx context.Context, sub models.Submission) (models.Registration, error)
}

// State is one session's form. The zero value is not ready for use, see NewState.
type State struct {
	Fields     models.Submission
	Registered bool
	Success    string
	Error      string

	// ErrorKind classifies Error when it came from a rejected submission.
	ErrorKind registration.Kind
}

func NewState() State {
	return State{Fields: models.Submission{Action: models.ActionCreateTeam}}
}

// Event is something the user did.
type Event interface{ event() }

// Edit replaces the in-progress field values.
type Edit struct{ Fields models.Submission }

// Submit replaces the field values and tries to register them.
type Submit struct{ Fields models.Submission }

// NewEntry clears a finished registration so another can be entered.
type NewEntry struct{}

func (Edit) event()     {}
func (Submit) event()   {}
func (NewEntry) event() {}

// View is everything a surface needs to draw the form.
type View struct {
	Title    string
	Intro    string
	Fields   models.Submission
	Actions  []models.Action
	ShowForm bool
	Error    string
	Success  string
}

const saveFailedMessage = "An error occurred while saving the data. Please try again."

type Form struct {
	EventName string
	Registrar Registrar
}

func New(eventName string, r Registrar) *Form {
	return &Form{EventName: eventName, Registrar: r}
}

// Render applies ev to st. A nil ev only redraws.
func (f *Form) Render(ctx context.Context, st State, ev Event) (State, View) {
	switch ev := ev.(type) {
	case Edit:
		if !st.Registered {
			st.Fields = ev.Fields
			st.Error, st.ErrorKind = "", ""
		}
	case Submit:
		if !st.Registered {
			st = f.submit(ctx, st, ev.Fields)
		}
	case NewEntry:
		st = NewState()
	}
	return st, f.view(st)
}

func (f *Form) submit(ctx context.Context, st State, fields models.Submission) State {
	st.Fields = fields
	st.Error, st.ErrorKind = "", ""

	reg, err := f.Registrar.Register(ctx, fields)
	if err != nil {
		st.Error, st.ErrorKind = saveFailedMessage, registration.KindPersistFailure
		var rerr *registration.Error
		if errors.As(err, &rerr) {
			st.ErrorKind = rerr.Kind
			if rerr.Message != "" {
				st.Error = rerr.Message
			}
		}
		return st
	}

	st.Registered = true
	st.Success = fmt.Sprintf("Hi %s, you are registered successfully for %s for Team %s.",
		reg.Name, f.EventName, reg.TeamName)
	return st
}

func (f *Form) view(st State) View {
	return View{
		Title:    f.EventName + " Registration",
		Intro:    "Please fill in your details to create or join a team.",
		Fields:   st.Fields,
		Actions:  models.Actions,
		ShowForm: !st.Registered,
		Error:    st.Error,
		Success:  st.Success,
	}
}
