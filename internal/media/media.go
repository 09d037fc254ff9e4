package media

import (
	"context"

	"github.com/google/uuid"
)

// Handle identifies one acquired media resource.
type Handle string

// Session is the external video/audio transport behind a telemedicine
// call. Acquire may fail with DeviceUnavailable or PermissionDenied and
// must honor ctx cancellation. Release is idempotent and never fails.
type Session interface {
	Acquire(ctx context.Context, consultationID uuid.UUID) (Handle, error)
	Release(h Handle)
}
