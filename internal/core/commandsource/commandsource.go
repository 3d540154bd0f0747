// Package commandsource contains the CommandSource audit record and its
// state transitions.
//
// A CommandSource is an immutable value. Every transition returns a new value
// and refuses to run when it would break one of the record's single-use
// invariants:
//   - the action never changes;
//   - checked goes false→true once, together with checked-by and checked-on;
//   - the resource id goes unset→set once;
//   - the payload can only be replaced while unchecked.
package commandsource

import (
	"strings"
	"time"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/clock"
)

// CommandSource is the audit and workflow record for one attempted operation.
type CommandSource struct {
	id            int64
	resourceName  string
	resourceID    *int64
	action        Action
	json          string
	checked       bool
	checkedBy     *int64
	checkedOn     *time.Time
	madeBy        int64
	madeOn        time.Time
	submissionKey string
}

// Submission holds what a maker provides when submitting a command.
type Submission struct {
	ResourceName  string
	ResourceID    *int64 // required for update and delete, must be nil for create
	Action        Action
	JSON          string
	MadeBy        int64
	MadeOn        time.Time
	SubmissionKey string
}

// State is the flat, persistable form of a CommandSource.
type State struct {
	ID            int64
	ResourceName  string
	ResourceID    *int64
	Action        Action
	JSON          string
	Checked       bool
	CheckedBy     *int64
	CheckedOn     *time.Time
	MadeBy        int64
	MadeOn        time.Time
	SubmissionKey string
}

// New creates an unchecked CommandSource from a maker submission.
func New(s Submission) (CommandSource, error) {
	if r := CanSubmit(s); !r.Allowed {
		return CommandSource{}, r.Error()
	}
	return CommandSource{
		resourceName:  strings.TrimSpace(s.ResourceName),
		resourceID:    copyID(s.ResourceID),
		action:        s.Action,
		json:          s.JSON,
		madeBy:        s.MadeBy,
		madeOn:        clock.DateOf(s.MadeOn),
		submissionKey: s.SubmissionKey,
	}, nil
}

// Restore rebuilds a CommandSource from persisted state.
func Restore(st State) (CommandSource, error) {
	if !st.Action.Valid() {
		return CommandSource{}, apperr.New(apperr.CodeUnsupported, "command %d has unsupported action %d", st.ID, int(st.Action))
	}
	if st.Checked && (st.CheckedBy == nil || st.CheckedOn == nil) {
		return CommandSource{}, apperr.New(apperr.CodeValidation, "command %d is checked without checker stamp", st.ID)
	}
	c := CommandSource{
		id:            st.ID,
		resourceName:  st.ResourceName,
		resourceID:    copyID(st.ResourceID),
		action:        st.Action,
		json:          st.JSON,
		checked:       st.Checked,
		checkedBy:     copyID(st.CheckedBy),
		madeBy:        st.MadeBy,
		madeOn:        st.MadeOn,
		submissionKey: st.SubmissionKey,
	}
	if st.CheckedOn != nil {
		on := *st.CheckedOn
		c.checkedOn = &on
	}
	return c, nil
}

// State returns the persistable form.
func (c CommandSource) State() State {
	st := State{
		ID:            c.id,
		ResourceName:  c.resourceName,
		ResourceID:    copyID(c.resourceID),
		Action:        c.action,
		JSON:          c.json,
		Checked:       c.checked,
		CheckedBy:     copyID(c.checkedBy),
		MadeBy:        c.madeBy,
		MadeOn:        c.madeOn,
		SubmissionKey: c.submissionKey,
	}
	if c.checkedOn != nil {
		on := *c.checkedOn
		st.CheckedOn = &on
	}
	return st
}

func (c CommandSource) ID() int64              { return c.id }
func (c CommandSource) ResourceName() string   { return c.resourceName }
func (c CommandSource) Action() Action         { return c.action }
func (c CommandSource) JSON() string           { return c.json }
func (c CommandSource) Checked() bool          { return c.checked }
func (c CommandSource) MadeBy() int64          { return c.madeBy }
func (c CommandSource) MadeOn() time.Time      { return c.madeOn }
func (c CommandSource) SubmissionKey() string  { return c.submissionKey }
func (c CommandSource) ResourceID() *int64     { return copyID(c.resourceID) }
func (c CommandSource) CheckedBy() *int64      { return copyID(c.checkedBy) }
func (c CommandSource) HasResourceID() bool    { return c.resourceID != nil }
func (c CommandSource) IsAction(a Action) bool { return c.action == a }

// CheckedOn returns the date the command was checked, or nil.
func (c CommandSource) CheckedOn() *time.Time {
	if c.checkedOn == nil {
		return nil
	}
	on := *c.checkedOn
	return &on
}

// WithID assigns the storage id. It can only be assigned once.
func (c CommandSource) WithID(id int64) (CommandSource, error) {
	if c.id != 0 {
		return c, apperr.New(apperr.CodeConflict, "command %d already has an id", c.id)
	}
	if id <= 0 {
		return c, apperr.New(apperr.CodeValidation, "command id must be positive, got %d", id)
	}
	c.id = id
	return c, nil
}

// MarkChecked stamps the command as checked by actorID on the date of on.
func (c CommandSource) MarkChecked(actorID int64, on time.Time) (CommandSource, error) {
	if r := CanMarkChecked(MarkCheckedContext{CommandID: c.id, Checked: c.checked, ActorID: actorID}); !r.Allowed {
		return c, r.Error()
	}
	date := clock.DateOf(on)
	c.checked = true
	c.checkedBy = &actorID
	c.checkedOn = &date
	return c, nil
}

// WithResourceID records the id of the resource created by this command.
func (c CommandSource) WithResourceID(id int64) (CommandSource, error) {
	if c.resourceID != nil {
		return c, apperr.New(apperr.CodeConflict, "command %d already resolved to %s %d", c.id, c.resourceName, *c.resourceID)
	}
	if id <= 0 {
		return c, apperr.New(apperr.CodeValidation, "resource id must be positive, got %d", id)
	}
	c.resourceID = &id
	return c, nil
}

// WithPayload replaces the JSON payload with the canonical form the write
// applies: the parsed fields of a create or delete, the delta of an update.
func (c CommandSource) WithPayload(json string) (CommandSource, error) {
	if strings.TrimSpace(json) == "" {
		return c, apperr.New(apperr.CodeValidation, "command payload is required")
	}
	if c.checked {
		return c, apperr.New(apperr.CodeConflict, "command %d is already checked; payload is final", c.id)
	}
	c.json = json
	return c, nil
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
