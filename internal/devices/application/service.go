package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	devices "energy-cloud/internal/devices/domain"
	"energy-cloud/internal/observability/metrics"
)

// Repository manages device persistence.
type Repository interface {
	Get(ctx context.Context, id string) (*devices.Device, error)
	ListAll(ctx context.Context) ([]devices.Device, error)
	ListByOwner(ctx context.Context, ownerID string) ([]devices.Device, error)
	ListAvailable(ctx context.Context) ([]devices.Device, error)
	Save(ctx context.Context, device *devices.Device) error
	Delete(ctx context.Context, id string) (bool, error)
}

// CreateRequest carries fields for a new or updated device.
type CreateRequest struct {
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	MaximumConsumption float64 `json:"maximumConsumption"`
	PowerConsumption   float64 `json:"powerConsumption"`
}

// ErrValidation wraps an input validation failure so handlers can map it
// to a 400 with the message in the body.
type ErrValidation struct {
	Reason string
}

func (e ErrValidation) Error() string {
	return e.Reason
}

// Service handles device lifecycle and assignment.
type Service struct {
	repo Repository
}

// NewService constructs a device service.
func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("devices: nil repo")
	}
	return &Service{repo: repo}, nil
}

// List returns all devices.
func (s *Service) List(ctx context.Context) ([]devices.Device, error) {
	return s.repo.ListAll(ctx)
}

// Get loads one device.
func (s *Service) Get(ctx context.Context, id string) (*devices.Device, error) {
	device, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, devices.ErrNotFound
	}
	return device, nil
}

// ByOwner returns devices assigned to a user.
func (s *Service) ByOwner(ctx context.Context, ownerID string) ([]devices.Device, error) {
	if ownerID == "" {
		return nil, errors.New("devices: empty owner id")
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// Available returns devices with no owner.
func (s *Service) Available(ctx context.Context) ([]devices.Device, error) {
	return s.repo.ListAvailable(ctx)
}

// Create registers a new device. New devices start unassigned.
func (s *Service) Create(ctx context.Context, req CreateRequest) (_ *devices.Device, err error) {
	defer func() { metrics.RecordDeviceOperation("create", err == nil) }()
	device := devices.Device{
		ID:                 uuid.NewString(),
		Name:               strings.TrimSpace(req.Name),
		Description:        req.Description,
		MaximumConsumption: req.MaximumConsumption,
		PowerConsumption:   req.PowerConsumption,
	}
	if err := device.Validate(); err != nil {
		return nil, ErrValidation{Reason: err.Error()}
	}
	if err := s.repo.Save(ctx, &device); err != nil {
		return nil, fmt.Errorf("devices: create: %w", err)
	}
	return &device, nil
}

// Update replaces mutable fields of a device.
func (s *Service) Update(ctx context.Context, id string, req CreateRequest) (_ *devices.Device, err error) {
	defer func() { metrics.RecordDeviceOperation("update", err == nil) }()
	device, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	device.Name = strings.TrimSpace(req.Name)
	device.Description = req.Description
	device.MaximumConsumption = req.MaximumConsumption
	device.PowerConsumption = req.PowerConsumption
	if err := device.Validate(); err != nil {
		return nil, ErrValidation{Reason: err.Error()}
	}
	if err := s.repo.Save(ctx, device); err != nil {
		return nil, fmt.Errorf("devices: update: %w", err)
	}
	return device, nil
}

// Delete removes a device.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	defer func() { metrics.RecordDeviceOperation("delete", err == nil) }()
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("devices: delete: %w", err)
	}
	if !deleted {
		return devices.ErrNotFound
	}
	return nil
}

// Assign sets the owner of a device and returns its new representation.
func (s *Service) Assign(ctx context.Context, id, ownerID string) (_ *devices.Device, err error) {
	defer func() { metrics.RecordDeviceOperation("assign", err == nil) }()
	if ownerID == "" {
		return nil, errors.New("devices: empty owner id")
	}
	device, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if device.Assigned() && device.OwnerID != ownerID {
		return nil, devices.ErrAlreadyAssigned
	}
	device.OwnerID = ownerID
	if err := s.repo.Save(ctx, device); err != nil {
		return nil, fmt.Errorf("devices: assign: %w", err)
	}
	return device, nil
}

// Unassign clears the owner of a device and returns its new representation.
func (s *Service) Unassign(ctx context.Context, id string) (_ *devices.Device, err error) {
	defer func() { metrics.RecordDeviceOperation("unassign", err == nil) }()
	device, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	device.OwnerID = ""
	if err := s.repo.Save(ctx, device); err != nil {
		return nil, fmt.Errorf("devices: unassign: %w", err)
	}
	return device, nil
}
