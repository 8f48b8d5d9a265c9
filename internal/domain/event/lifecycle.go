package event

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of an Event.
// Budget -> Confirmed -> Finished; there is no way back.
type State string

// State constants
const (
	StateBudget    State = "budget"
	StateConfirmed State = "confirmed"
	StateFinished  State = "finished"
)

// Lifecycle errors
var (
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrNotEditable       = errors.New("only budgets that are not finished can be changed")
	ErrInvalidState      = errors.New("event state must be one of: budget, confirmed, finished")
)

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	return s == StateBudget || s == StateConfirmed || s == StateFinished
}

// Flags derives the legacy (isBudget, finished) pair used on the wire.
// INVARIANT: finished implies !isBudget
func (s State) Flags() (isBudget, finished bool) {
	switch s {
	case StateConfirmed:
		return false, false
	case StateFinished:
		return false, true
	default:
		return true, false
	}
}

// StateFromFlags maps the legacy flag pair back to a State.
// PRE: none
// POST: returns ErrInvalidState for the impossible pair (budget and finished)
func StateFromFlags(isBudget, finished bool) (State, error) {
	switch {
	case isBudget && finished:
		return "", fmt.Errorf("%w: a budget cannot be finished", ErrInvalidState)
	case isBudget:
		return StateBudget, nil
	case finished:
		return StateFinished, nil
	default:
		return StateConfirmed, nil
	}
}

// IsBudget reports whether the event is still an unconfirmed quote.
func (e *Event) IsBudget() bool {
	return e.State == StateBudget
}

// IsFinished reports whether the party has been delivered.
func (e *Event) IsFinished() bool {
	return e.State == StateFinished
}

// CanEdit reports whether fields may change or the event may be deleted.
func (e *Event) CanEdit() bool {
	return e.State == StateBudget
}

// Confirm accepts the budget.
// PRE: State is Budget
// POST: State is Confirmed; ErrInvalidTransition and no change otherwise
func (e *Event) Confirm() error {
	if e.State != StateBudget {
		return fmt.Errorf("%w: cannot confirm a %s event", ErrInvalidTransition, e.State)
	}
	e.State = StateConfirmed
	return nil
}

// Finish marks the party as delivered.
// PRE: State is Confirmed
// POST: State is Finished; ErrInvalidTransition and no change otherwise
func (e *Event) Finish() error {
	switch e.State {
	case StateConfirmed:
		e.State = StateFinished
		return nil
	case StateBudget:
		return fmt.Errorf("%w: confirm the budget before finishing", ErrInvalidTransition)
	default:
		return fmt.Errorf("%w: event is already finished", ErrInvalidTransition)
	}
}

// CheckDeletable returns ErrNotEditable unless the event is a Budget.
func (e *Event) CheckDeletable() error {
	if !e.CanEdit() {
		return ErrNotEditable
	}
	return nil
}

// Changes carries a partial edit. Nil fields are left as they are.
// Lifecycle state is not editable here; use Confirm or Finish.
type Changes struct {
	Length         *Length
	Address        *string
	Theme          *string
	BirthdayPerson *string
	Description    *string
	ValueCents     *int64
}

// IsEmpty reports whether no field is set.
func (c Changes) IsEmpty() bool {
	return c.Length == nil && c.Address == nil && c.Theme == nil &&
		c.BirthdayPerson == nil && c.Description == nil && c.ValueCents == nil
}

// Apply returns a copy of e with changes applied.
// PRE: State is Budget
// POST: the receiver is never modified; on error the returned Event is zero
func (e Event) Apply(c Changes) (Event, error) {
	if !e.CanEdit() {
		return Event{}, ErrNotEditable
	}
	if c.Length != nil {
		e.Length = *c.Length
	}
	if c.Address != nil {
		e.Address = *c.Address
	}
	if c.Theme != nil {
		e.Theme = *c.Theme
	}
	if c.BirthdayPerson != nil {
		e.BirthdayPerson = *c.BirthdayPerson
	}
	if c.Description != nil {
		e.Description = *c.Description
	}
	if c.ValueCents != nil {
		e.ValueCents = *c.ValueCents
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Diff builds the Changes that turn e into other, ignoring state and references.
func (e *Event) Diff(other Event) Changes {
	var c Changes
	if other.Length != e.Length {
		c.Length = &other.Length
	}
	if other.Address != e.Address {
		c.Address = &other.Address
	}
	if other.Theme != e.Theme {
		c.Theme = &other.Theme
	}
	if other.BirthdayPerson != e.BirthdayPerson {
		c.BirthdayPerson = &other.BirthdayPerson
	}
	if other.Description != e.Description {
		c.Description = &other.Description
	}
	if other.ValueCents != e.ValueCents {
		c.ValueCents = &other.ValueCents
	}
	return c
}
