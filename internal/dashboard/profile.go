package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EditorState is the ProfileEditor's mode.
type EditorState int

const (
	// Viewing means the committed profile is authoritative and read-only.
	Viewing EditorState = iota
	// Editing means a scratch buffer is open.
	Editing
)

// ProfileEditor manages the editable copy of the profile. Field edits
// touch only the buffer; the committed profile changes on a successful
// save and never otherwise.
type ProfileEditor struct {
	client   *Client
	reporter *ErrorReporter

	mu      sync.Mutex
	state   EditorState
	profile Profile
	buffer  Profile
}

// NewProfileEditor constructs an editor seeded with the loaded profile.
func NewProfileEditor(client *Client, reporter *ErrorReporter, profile Profile) (*ProfileEditor, error) {
	if client == nil {
		return nil, errors.New("dashboard: nil client")
	}
	return &ProfileEditor{client: client, reporter: reporter, profile: profile}, nil
}

// State returns the current mode.
func (e *ProfileEditor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Profile returns the committed profile.
func (e *ProfileEditor) Profile() Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

// Buffer returns the scratch copy. Meaningful only while Editing.
func (e *ProfileEditor) Buffer() Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer
}

// BeginEdit copies the committed profile into a fresh buffer.
func (e *ProfileEditor) BeginEdit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Editing {
		return errors.New("dashboard: edit already open")
	}
	e.buffer = e.profile
	e.state = Editing
	return nil
}

// SetField updates one buffer field by its wire name.
func (e *ProfileEditor) SetField(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Editing {
		return errors.New("dashboard: not editing")
	}
	switch name {
	case "firstName":
		e.buffer.FirstName = value
	case "lastName":
		e.buffer.LastName = value
	case "email":
		e.buffer.Email = value
	case "phoneNumber":
		e.buffer.PhoneNumber = value
	case "address":
		e.buffer.Address = value
	case "city":
		e.buffer.City = value
	case "country":
		e.buffer.Country = value
	default:
		return fmt.Errorf("dashboard: unknown profile field %q", name)
	}
	return nil
}

// Cancel discards the buffer without a remote call.
func (e *ProfileEditor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer = Profile{}
	e.state = Viewing
}

// Save sends the buffer as a full replacement. On success the server's
// returned profile becomes the committed one and the editor returns to
// Viewing. On failure the buffer is retained and the editor stays in
// Editing so the user can retry.
func (e *ProfileEditor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.state != Editing {
		e.mu.Unlock()
		return errors.New("dashboard: not editing")
	}
	payload := e.buffer
	e.mu.Unlock()

	e.reporter.Clear()
	updated, err := e.client.UpdateProfile(ctx, payload)
	if err != nil {
		e.reporter.ReportError(err)
		return err
	}

	e.mu.Lock()
	e.profile = updated
	e.buffer = Profile{}
	e.state = Viewing
	e.mu.Unlock()
	return nil
}
