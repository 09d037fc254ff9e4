package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogosflorencio/vida-plus/internal/model"
	"github.com/diogosflorencio/vida-plus/pkg/errors"
)

func TestStaticProvider(t *testing.T) {
	id := uuid.New()
	p := NewStatic(id, model.RolePractitioner)

	actor, err := p.CurrentActor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, actor.ID)
	assert.Equal(t, model.RolePractitioner, actor.Role)
}

func TestStaticProviderWithoutActor(t *testing.T) {
	_, err := (&Static{}).CurrentActor(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))

	_, err = NewStatic(uuid.New(), "visitor").CurrentActor(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))
}
