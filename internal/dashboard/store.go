package dashboard

import (
	"context"
	"errors"
	"sync"
)

// ErrValidation marks input rejected locally before any network call.
var ErrValidation = errors.New("dashboard: invalid input")

// ErrNotPermitted marks an operation the session's role does not allow.
var ErrNotPermitted = errors.New("dashboard: not permitted")

// ErrOperationInFlight marks a re-triggered operation whose first call
// has not resolved yet.
var ErrOperationInFlight = errors.New("dashboard: operation already in flight")

// ErrUnknownDevice marks a device id held by neither collection.
var ErrUnknownDevice = errors.New("dashboard: unknown device")

type inflightKey struct {
	operation string
	deviceID  string
}

// DeviceAssignmentStore owns the two device collections and keeps them
// partitioned: every known device id lives in exactly one of owned or
// available, never both. Collections are mutated only after the server
// confirms the corresponding write.
type DeviceAssignmentStore struct {
	client   *Client
	reporter *ErrorReporter
	userID   string
	admin    bool

	mu             sync.Mutex
	owned          map[string]Device
	ownedOrder     []string
	available      map[string]Device
	availableOrder []string
	inflight       map[inflightKey]struct{}
}

// NewDeviceAssignmentStore constructs a store for the session's user.
func NewDeviceAssignmentStore(client *Client, reporter *ErrorReporter, userID string, admin bool) (*DeviceAssignmentStore, error) {
	if client == nil {
		return nil, errors.New("dashboard: nil client")
	}
	if userID == "" {
		return nil, errors.New("dashboard: empty user id")
	}
	return &DeviceAssignmentStore{
		client:    client,
		reporter:  reporter,
		userID:    userID,
		admin:     admin,
		owned:     make(map[string]Device),
		available: make(map[string]Device),
		inflight:  make(map[inflightKey]struct{}),
	}, nil
}

// Seed replaces both collections from a fresh load.
func (s *DeviceAssignmentStore) Seed(owned, available []Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owned = make(map[string]Device, len(owned))
	s.ownedOrder = s.ownedOrder[:0]
	for _, d := range owned {
		if _, ok := s.owned[d.ID]; ok {
			continue
		}
		s.owned[d.ID] = d
		s.ownedOrder = append(s.ownedOrder, d.ID)
	}
	s.available = make(map[string]Device, len(available))
	s.availableOrder = s.availableOrder[:0]
	for _, d := range available {
		if _, ok := s.owned[d.ID]; ok {
			continue
		}
		if _, ok := s.available[d.ID]; ok {
			continue
		}
		s.available[d.ID] = d
		s.availableOrder = append(s.availableOrder, d.ID)
	}
}

// OwnedDevices returns the owned collection in insertion order.
func (s *DeviceAssignmentStore) OwnedDevices() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(s.owned, s.ownedOrder)
}

// AvailableDevices returns the available collection in insertion order.
func (s *DeviceAssignmentStore) AvailableDevices() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(s.available, s.availableOrder)
}

func (s *DeviceAssignmentStore) collect(set map[string]Device, order []string) []Device {
	result := make([]Device, 0, len(order))
	for _, id := range order {
		if d, ok := set[id]; ok {
			result = append(result, d)
		}
	}
	return result
}

// Create creates a device server-side and appends it to the available
// collection. New devices start unowned.
func (s *DeviceAssignmentStore) Create(ctx context.Context, req CreateDeviceRequest) (Device, error) {
	if !s.admin {
		return Device{}, ErrNotPermitted
	}
	if req.Name == "" || req.MaximumConsumption <= 0 || req.PowerConsumption < 0 {
		return Device{}, ErrValidation
	}
	s.reporter.Clear()

	device, err := s.client.CreateDevice(ctx, req)
	if err != nil {
		s.reporter.ReportError(err)
		return Device{}, err
	}

	s.mu.Lock()
	s.available[device.ID] = device
	s.availableOrder = append(s.availableOrder, device.ID)
	s.mu.Unlock()
	return device, nil
}

// AssignToSelf moves a device from available to owned using the server's
// returned representation.
func (s *DeviceAssignmentStore) AssignToSelf(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	if _, ok := s.available[deviceID]; !ok {
		s.mu.Unlock()
		return ErrUnknownDevice
	}
	s.mu.Unlock()

	release, err := s.acquire("assign", deviceID)
	if err != nil {
		return err
	}
	defer release()
	s.reporter.Clear()

	device, err := s.client.AssignDevice(ctx, deviceID, s.userID)
	if err != nil {
		s.reporter.ReportError(err)
		return err
	}

	s.mu.Lock()
	delete(s.available, deviceID)
	s.availableOrder = removeID(s.availableOrder, deviceID)
	if _, ok := s.owned[device.ID]; !ok {
		s.ownedOrder = append(s.ownedOrder, device.ID)
	}
	s.owned[device.ID] = device
	s.mu.Unlock()
	return nil
}

// Unassign moves a device from owned back to available.
func (s *DeviceAssignmentStore) Unassign(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	if _, ok := s.owned[deviceID]; !ok {
		s.mu.Unlock()
		return ErrUnknownDevice
	}
	s.mu.Unlock()

	release, err := s.acquire("unassign", deviceID)
	if err != nil {
		return err
	}
	defer release()
	s.reporter.Clear()

	device, err := s.client.UnassignDevice(ctx, deviceID)
	if err != nil {
		s.reporter.ReportError(err)
		return err
	}

	s.mu.Lock()
	delete(s.owned, deviceID)
	s.ownedOrder = removeID(s.ownedOrder, deviceID)
	if _, ok := s.available[device.ID]; !ok {
		s.availableOrder = append(s.availableOrder, device.ID)
	}
	s.available[device.ID] = device
	s.mu.Unlock()
	return nil
}

// Remove deletes a device server-side and drops it from whichever local
// collection currently holds it. An already-deleted device counts as
// success.
func (s *DeviceAssignmentStore) Remove(ctx context.Context, deviceID string) error {
	if !s.admin {
		return ErrNotPermitted
	}

	release, err := s.acquire("remove", deviceID)
	if err != nil {
		return err
	}
	defer release()
	s.reporter.Clear()

	if err := s.client.RemoveDevice(ctx, deviceID); err != nil {
		s.reporter.ReportError(err)
		return err
	}

	s.mu.Lock()
	if _, ok := s.owned[deviceID]; ok {
		delete(s.owned, deviceID)
		s.ownedOrder = removeID(s.ownedOrder, deviceID)
	}
	if _, ok := s.available[deviceID]; ok {
		delete(s.available, deviceID)
		s.availableOrder = removeID(s.availableOrder, deviceID)
	}
	s.mu.Unlock()
	return nil
}

// CheckPartition reports whether the two collections are disjoint.
func (s *DeviceAssignmentStore) CheckPartition() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.owned {
		if _, ok := s.available[id]; ok {
			return false
		}
	}
	return true
}

func (s *DeviceAssignmentStore) acquire(operation, deviceID string) (func(), error) {
	key := inflightKey{operation: operation, deviceID: deviceID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inflight[key]; ok {
		return nil, ErrOperationInFlight
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, nil
}

func removeID(order []string, id string) []string {
	for i, candidate := range order {
		if candidate == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
