package media

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/diogosflorencio/vida-plus/pkg/errors"
)

// Fake is an in-memory media session used by tests and by the engine when
// no real transport is plugged in. It records acquire/release pairs and
// can be told to fail or block.
type Fake struct {
	mu       sync.Mutex
	seq      int
	acquired map[Handle]uuid.UUID

	// FailWith, when set, makes every Acquire fail with this error.
	FailWith error
	// Block, when set, makes Acquire wait for ctx cancellation.
	Block bool
}

func NewFake() *Fake {
	return &Fake{acquired: make(map[Handle]uuid.UUID)}
}

func (f *Fake) Acquire(ctx context.Context, consultationID uuid.UUID) (Handle, error) {
	f.mu.Lock()
	fail := f.FailWith
	block := f.Block
	f.mu.Unlock()

	if fail != nil {
		return "", fail
	}
	if block {
		<-ctx.Done()
		return "", errors.DeviceUnavailable(ctx.Err())
	}
	if err := ctx.Err(); err != nil {
		return "", errors.DeviceUnavailable(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	h := Handle(fmt.Sprintf("media-%d", f.seq))
	f.acquired[h] = consultationID
	return h, nil
}

func (f *Fake) Release(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.acquired, h)
}

// ActiveCount reports the number of unreleased handles.
func (f *Fake) ActiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.acquired)
}
