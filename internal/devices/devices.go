// Package devices implements the Device Registry: listing and unlinking
// devices, grounded on internal/handlers/device_handlers.go's list/unlink
// endpoints.
package devices

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/store"
)

type Service struct {
	db *store.DB
}

func NewService(db *store.DB) *Service { return &Service{db: db} }

// Device is the outward-facing device summary.
type Device struct {
	ID         int64
	DeviceUUID uuid.UUID
	Platform   int
	DeviceType int
	LinkedAt   *string
	CreatedAt  string
	LastSeenAt string
}

// List returns a user's active devices ordered by creation.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Device, error) {
	rows, err := s.db.ListActiveDevices(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "list devices", err)
	}
	out := make([]Device, 0, len(rows))
	for _, r := range rows {
		d := Device{
			ID:         r.ID,
			DeviceUUID: r.DeviceUUID,
			Platform:   r.Platform,
			DeviceType: r.DeviceType,
			CreatedAt:  r.CreatedAt.Format(timeFormat),
			LastSeenAt: r.LastSeenAt.Format(timeFormat),
		}
		if r.LinkedAt.Valid {
			ts := r.LinkedAt.Time.Format(timeFormat)
			d.LinkedAt = &ts
		}
		out = append(out, d)
	}
	return out, nil
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

// Unlink flips a device's active flag false. It rejects unlinking the
// caller's own current device and devices owned by a different user.
func (s *Service) Unlink(ctx context.Context, callerUserID uuid.UUID, callerDeviceID int64, targetDeviceID int64) error {
	if targetDeviceID == callerDeviceID {
		return apperr.New(apperr.KindValidation, "cannot unlink your current device")
	}

	target, err := s.db.FindDeviceByID(ctx, targetDeviceID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "device not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindDatabase, "find target device", err)
	}
	if target.UserID != callerUserID {
		return apperr.New(apperr.KindAuthorization, "device belongs to a different user")
	}

	if err := s.db.SetActive(ctx, targetDeviceID, false); err != nil {
		return apperr.Wrap(apperr.KindDatabase, "unlink device", err)
	}
	return nil
}
