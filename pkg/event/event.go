package event

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	ConsultationScheduled   EventType = "CONSULTATION_SCHEDULED"
	ConsultationRescheduled EventType = "CONSULTATION_RESCHEDULED"
	ConsultationStarted     EventType = "CONSULTATION_STARTED"
	ConsultationReverted    EventType = "CONSULTATION_REVERTED"
	ConsultationCompleted   EventType = "CONSULTATION_COMPLETED"
	ConsultationCancelled   EventType = "CONSULTATION_CANCELLED"
	RecordCreated           EventType = "RECORD_CREATED"
	RecordAmended           EventType = "RECORD_AMENDED"
	SessionEntered          EventType = "SESSION_ENTERED"
	SessionLeft             EventType = "SESSION_LEFT"
)

// Event is one engine occurrence delivered to subscribers. The UI layer
// turns these into user-facing notifications.
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Emitter publishes engine events to interested subscribers.
type Emitter interface {
	Emit(eventType EventType, payload map[string]interface{})
	Subscribe(fn func(Event)) (unsubscribe func())
}
