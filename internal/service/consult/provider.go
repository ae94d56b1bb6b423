// Package consult hands out consultation room sessions. Media transport is
// not implemented; the session only names the room.
package consult

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/jevencare/api/internal/model"
)

type Provider interface {
	Join(ctx context.Context, apt *model.Appointment, userID uuid.UUID, role model.Role) (*model.CallSession, error)
}

type stubProvider struct {
	now func() time.Time
}

func NewStubProvider() Provider {
	return &stubProvider{now: time.Now}
}

func (p *stubProvider) Join(_ context.Context, apt *model.Appointment, userID uuid.UUID, role model.Role) (*model.CallSession, error) {
	sum := sha256.Sum256([]byte(apt.ID.String() + ":" + userID.String()))
	return &model.CallSession{
		RoomID:        "room_" + apt.ID.String(),
		AppointmentID: apt.ID,
		Type:          apt.Type,
		Role:          role,
		Token:         hex.EncodeToString(sum[:16]),
		JoinedAt:      p.now().UTC(),
	}, nil
}
