package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	devices "energy-cloud/internal/devices/domain"
)

const defaultDevicesTable = "devices"

// DeviceRepository is a Postgres implementation for devices.
type DeviceRepository struct {
	db    DBTX
	table string
}

// NewDeviceRepository constructs a repository.
func NewDeviceRepository(db DBTX, opts ...DeviceOption) *DeviceRepository {
	repo := &DeviceRepository{db: db, table: defaultDevicesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// DeviceOption configures the repository.
type DeviceOption func(*DeviceRepository)

// WithDeviceTable overrides the default table name.
func WithDeviceTable(table string) DeviceOption {
	return func(repo *DeviceRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a device by id.
func (r *DeviceRepository) Get(ctx context.Context, id string) (*devices.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if id == "" {
		return nil, errors.New("device repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, description, maximum_consumption, power_consumption, owner_id, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return device, nil
}

// ListAll loads every device.
func (r *DeviceRepository) ListAll(ctx context.Context) ([]devices.Device, error) {
	query := fmt.Sprintf(`
SELECT id, name, description, maximum_consumption, power_consumption, owner_id, created_at, updated_at
FROM %s
ORDER BY created_at ASC`, r.table)
	return r.list(ctx, query)
}

// ListByOwner loads devices assigned to a user.
func (r *DeviceRepository) ListByOwner(ctx context.Context, ownerID string) ([]devices.Device, error) {
	if ownerID == "" {
		return nil, errors.New("device repo: empty owner id")
	}
	query := fmt.Sprintf(`
SELECT id, name, description, maximum_consumption, power_consumption, owner_id, created_at, updated_at
FROM %s
WHERE owner_id = $1
ORDER BY created_at ASC`, r.table)
	return r.list(ctx, query, ownerID)
}

// ListAvailable loads devices with no owner.
func (r *DeviceRepository) ListAvailable(ctx context.Context) ([]devices.Device, error) {
	query := fmt.Sprintf(`
SELECT id, name, description, maximum_consumption, power_consumption, owner_id, created_at, updated_at
FROM %s
WHERE owner_id IS NULL
ORDER BY created_at ASC`, r.table)
	return r.list(ctx, query)
}

// Save upserts a device.
func (r *DeviceRepository) Save(ctx context.Context, device *devices.Device) error {
	if r == nil || r.db == nil {
		return errors.New("device repo: nil db")
	}
	if device == nil {
		return errors.New("device repo: nil device")
	}
	if err := device.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	name,
	description,
	maximum_consumption,
	power_consumption,
	owner_id
) VALUES (
	$1, $2, $3, $4, $5, $6
)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	maximum_consumption = EXCLUDED.maximum_consumption,
	power_consumption = EXCLUDED.power_consumption,
	owner_id = EXCLUDED.owner_id,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		device.ID,
		device.Name,
		device.Description,
		device.MaximumConsumption,
		device.PowerConsumption,
		nullableString(device.OwnerID),
	)
	return err
}

// Delete removes a device by id. The bool reports whether a row existed.
func (r *DeviceRepository) Delete(ctx context.Context, id string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("device repo: nil db")
	}
	if id == "" {
		return false, errors.New("device repo: empty id")
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *DeviceRepository) list(ctx context.Context, query string, args ...any) ([]devices.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []devices.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*devices.Device, error) {
	var device devices.Device
	var ownerID sql.NullString
	if err := row.Scan(
		&device.ID,
		&device.Name,
		&device.Description,
		&device.MaximumConsumption,
		&device.PowerConsumption,
		&ownerID,
		&device.CreatedAt,
		&device.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if ownerID.Valid {
		device.OwnerID = ownerID.String
	}
	device.CreatedAt = device.CreatedAt.UTC()
	device.UpdatedAt = device.UpdatedAt.UTC()
	return &device, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
