package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/diogosflorencio/vida-plus/internal/model"
	"github.com/diogosflorencio/vida-plus/pkg/errors"
)

// Provider supplies the current actor's identity and role. The engine only
// reads it; authentication itself lives outside this module.
type Provider interface {
	CurrentActor(ctx context.Context) (model.Actor, error)
}

// Static is a fixed-actor provider for composition and tests.
type Static struct {
	Actor model.Actor
}

func NewStatic(id uuid.UUID, role model.Role) *Static {
	return &Static{Actor: model.Actor{ID: id, Role: role}}
}

func (s *Static) CurrentActor(context.Context) (model.Actor, error) {
	if s == nil || s.Actor.ID == uuid.Nil || !s.Actor.Role.Valid() {
		return model.Actor{}, errors.NotFound("actor", nil)
	}
	return s.Actor, nil
}
