package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	devices "energy-cloud/internal/devices/domain"
)

// DeviceRepository is an in-memory repository for demo/testing.
type DeviceRepository struct {
	mu   sync.RWMutex
	data map[string]devices.Device
}

// NewDeviceRepository constructs a repository.
func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{data: make(map[string]devices.Device)}
}

// Get loads a device by id.
func (r *DeviceRepository) Get(ctx context.Context, id string) (*devices.Device, error) {
	_ = ctx
	if id == "" {
		return nil, errors.New("device repo: empty id")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	device, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &device, nil
}

// ListAll loads every device.
func (r *DeviceRepository) ListAll(ctx context.Context) ([]devices.Device, error) {
	return r.filter(ctx, func(devices.Device) bool { return true })
}

// ListByOwner loads devices assigned to a user.
func (r *DeviceRepository) ListByOwner(ctx context.Context, ownerID string) ([]devices.Device, error) {
	if ownerID == "" {
		return nil, errors.New("device repo: empty owner id")
	}
	return r.filter(ctx, func(d devices.Device) bool { return d.OwnerID == ownerID })
}

// ListAvailable loads devices with no owner.
func (r *DeviceRepository) ListAvailable(ctx context.Context) ([]devices.Device, error) {
	return r.filter(ctx, func(d devices.Device) bool { return d.OwnerID == "" })
}

// Save upserts a device.
func (r *DeviceRepository) Save(ctx context.Context, device *devices.Device) error {
	_ = ctx
	if device == nil {
		return errors.New("device repo: nil device")
	}
	if err := device.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *device
	if existing, ok := r.data[device.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = time.Now().UTC()
	r.data[device.ID] = stored
	*device = stored
	return nil
}

// Delete removes a device by id.
func (r *DeviceRepository) Delete(ctx context.Context, id string) (bool, error) {
	_ = ctx
	if id == "" {
		return false, errors.New("device repo: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return false, nil
	}
	delete(r.data, id)
	return true, nil
}

func (r *DeviceRepository) filter(ctx context.Context, keep func(devices.Device) bool) ([]devices.Device, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []devices.Device
	for _, device := range r.data {
		if keep(device) {
			result = append(result, device)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
