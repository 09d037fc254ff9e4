package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitReachesSubscribers(t *testing.T) {
	e := NewInProcessEmitter()

	var got []Event
	unsubscribe := e.Subscribe(func(evt Event) { got = append(got, evt) })

	e.Emit(ConsultationScheduled, map[string]interface{}{"k": "v"})
	require.Len(t, got, 1)
	assert.Equal(t, ConsultationScheduled, got[0].Type)
	assert.Equal(t, "v", got[0].Payload["k"])
	assert.False(t, got[0].CreatedAt.IsZero())

	unsubscribe()
	e.Emit(ConsultationCancelled, nil)
	assert.Len(t, got, 1)
}

func TestEmitWithNoSubscribers(t *testing.T) {
	e := NewInProcessEmitter()
	e.Emit(RecordCreated, nil) // must not panic
}

func TestSubscriberMayUnsubscribeDuringDispatch(t *testing.T) {
	e := NewInProcessEmitter()

	var unsubscribe func()
	calls := 0
	unsubscribe = e.Subscribe(func(Event) {
		calls++
		unsubscribe()
	})

	e.Emit(SessionEntered, nil)
	e.Emit(SessionLeft, nil)
	assert.Equal(t, 1, calls)
}
