package devices

import (
	"errors"
	"time"
)

// Device represents a metered appliance. OwnerID is empty while the device
// is unassigned; a device has at most one owner at a time.
type Device struct {
	ID                 string
	Name               string
	Description        string
	MaximumConsumption float64
	PowerConsumption   float64
	OwnerID            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ErrNotFound indicates a device does not exist.
var ErrNotFound = errors.New("device not found")

// ErrAlreadyAssigned indicates a device already has an owner.
var ErrAlreadyAssigned = errors.New("device already assigned")

// Validate checks device invariants.
func (d Device) Validate() error {
	if d.ID == "" {
		return errors.New("device: empty id")
	}
	if d.Name == "" {
		return errors.New("device: empty name")
	}
	if d.MaximumConsumption <= 0 {
		return errors.New("device: maximum consumption must be positive")
	}
	if d.PowerConsumption < 0 {
		return errors.New("device: power consumption must not be negative")
	}
	return nil
}

// Assigned reports whether the device currently has an owner.
func (d Device) Assigned() bool {
	return d.OwnerID != ""
}
