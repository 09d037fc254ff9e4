package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diogosflorencio/vida-plus/internal/model"
	"github.com/diogosflorencio/vida-plus/internal/repository"
	"github.com/diogosflorencio/vida-plus/pkg/errors"
)

// ConsultationStore is the in-memory consultation repository. A single
// mutex makes every validate-then-commit sequence atomic, so callers never
// observe partial state even when the UI touches the store from more than
// one goroutine. Insertion order is preserved and survives snapshots.
type ConsultationStore struct {
	mu    sync.Mutex
	order []uuid.UUID
	items map[uuid.UUID]*model.Consultation
}

var _ repository.ConsultationRepository = (*ConsultationStore)(nil)

func NewConsultationStore() *ConsultationStore {
	return &ConsultationStore{
		items: make(map[uuid.UUID]*model.Consultation),
	}
}

func (s *ConsultationStore) Create(_ context.Context, consultation *model.Consultation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSlotConflict(consultation.PractitionerID, consultation.Slot, uuid.Nil); err != nil {
		return err
	}

	now := time.Now().UTC()
	if consultation.ID == uuid.Nil {
		consultation.ID = uuid.New()
	}
	consultation.Status = model.ConsultationStatusScheduled
	consultation.CreatedAt = now
	consultation.UpdatedAt = now

	s.items[consultation.ID] = cloneConsultation(consultation)
	s.order = append(s.order, consultation.ID)
	return nil
}

func (s *ConsultationStore) Get(_ context.Context, id uuid.UUID) (*model.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[id]
	if !ok {
		return nil, errors.NotFound("consultation", nil)
	}
	return cloneConsultation(c), nil
}

func (s *ConsultationStore) List(_ context.Context, filters *model.ConsultationFilters) ([]*model.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Consultation, 0, len(s.order))
	for _, id := range s.order {
		c := s.items[id]
		if filters != nil {
			if filters.PatientID != uuid.Nil && c.PatientID != filters.PatientID {
				continue
			}
			if filters.PractitionerID != uuid.Nil && c.PractitionerID != filters.PractitionerID {
				continue
			}
			if filters.Status != "" && c.Status != filters.Status {
				continue
			}
			if filters.Date != "" && c.Slot.Date != filters.Date {
				continue
			}
		}
		out = append(out, cloneConsultation(c))
	}
	return out, nil
}

func (s *ConsultationStore) Cancel(_ context.Context, id uuid.UUID, reason string) (*model.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[id]
	if !ok {
		return nil, errors.NotFound("consultation", nil)
	}
	if c.Status.Terminal() {
		return nil, errors.InvalidTransition(string(c.Status), "cancel")
	}

	c.Status = model.ConsultationStatusCancelled
	if reason != "" {
		c.CancelReason = &reason
	}
	c.UpdatedAt = time.Now().UTC()
	return cloneConsultation(c), nil
}

func (s *ConsultationStore) Start(_ context.Context, id uuid.UUID) (*model.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[id]
	if !ok {
		return nil, errors.NotFound("consultation", nil)
	}
	if c.Status != model.ConsultationStatusScheduled {
		return nil, errors.InvalidTransition(string(c.Status), "start")
	}
	for _, other := range s.items {
		if other.PractitionerID == c.PractitionerID && other.Status == model.ConsultationStatusInProgress {
			return nil, errors.ConcurrentSessionConflict("practitioner already has a consultation in progress")
		}
	}

	now := time.Now().UTC()
	c.Status = model.ConsultationStatusInProgress
	c.StartedAt = &now
	c.UpdatedAt = now
	return cloneConsultation(c), nil
}

func (s *ConsultationStore) Finish(_ context.Context, id uuid.UUID) (*model.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[id]
	if !ok {
		return nil, errors.NotFound("consultation", nil)
	}
	if c.Status != model.ConsultationStatusInProgress {
		return nil, errors.InvalidTransition(string(c.Status), "finish")
	}

	now := time.Now().UTC()
	c.Status = model.ConsultationStatusCompleted
	c.CompletedAt = &now
	c.UpdatedAt = now
	return cloneConsultation(c), nil
}

// RevertStart is the compensating transition for a start whose media
// acquisition never completed: in_progress goes back to scheduled and the
// session-start timestamp is cleared.
func (s *ConsultationStore) RevertStart(_ context.Context, id uuid.UUID) (*model.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[id]
	if !ok {
		return nil, errors.NotFound("consultation", nil)
	}
	if c.Status != model.ConsultationStatusInProgress {
		return nil, errors.InvalidTransition(string(c.Status), "revert")
	}

	c.Status = model.ConsultationStatusScheduled
	c.StartedAt = nil
	c.UpdatedAt = time.Now().UTC()
	return cloneConsultation(c), nil
}

func (s *ConsultationStore) Reschedule(_ context.Context, id uuid.UUID, slot model.Slot) (*model.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[id]
	if !ok {
		return nil, errors.NotFound("consultation", nil)
	}
	if c.Status != model.ConsultationStatusScheduled {
		return nil, errors.InvalidTransition(string(c.Status), "reschedule")
	}
	if err := s.checkSlotConflict(c.PractitionerID, slot, id); err != nil {
		return nil, err
	}

	c.Slot = slot
	c.UpdatedAt = time.Now().UTC()
	return cloneConsultation(c), nil
}

// SetRecordID attaches a medical record reference. It is the single
// cross-repository write: only the record repository's create path calls it.
func (s *ConsultationStore) SetRecordID(_ context.Context, id, recordID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[id]
	if !ok {
		return errors.NotFound("consultation", nil)
	}
	if c.Status != model.ConsultationStatusInProgress && c.Status != model.ConsultationStatusCompleted {
		return errors.InvalidConsultationState("consultation has not been started")
	}
	if c.RecordID != nil {
		return errors.InvalidConsultationState("consultation already has a medical record")
	}

	rid := recordID
	c.RecordID = &rid
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *ConsultationStore) Snapshot(_ context.Context) (repository.ConsultationSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make(repository.ConsultationSnapshot, 0, len(s.order))
	for _, id := range s.order {
		snap = append(snap, cloneConsultation(s.items[id]))
	}
	return snap, nil
}

func (s *ConsultationStore) Restore(_ context.Context, snap repository.ConsultationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make(map[uuid.UUID]*model.Consultation, len(snap))
	order := make([]uuid.UUID, 0, len(snap))
	for _, c := range snap {
		if c.ID == uuid.Nil {
			return errors.InvalidInput("snapshot contains a consultation without an id", nil)
		}
		if _, dup := items[c.ID]; dup {
			return errors.InvalidInput("snapshot contains a duplicate consultation id", nil)
		}
		items[c.ID] = cloneConsultation(c)
		order = append(order, c.ID)
	}

	s.items = items
	s.order = order
	return nil
}

// Len reports the current number of consultations, any status.
func (s *ConsultationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// checkSlotConflict must be called with the lock held. A slot is taken when
// any non-cancelled consultation for the same practitioner occupies it.
func (s *ConsultationStore) checkSlotConflict(practitionerID uuid.UUID, slot model.Slot, exclude uuid.UUID) error {
	for _, other := range s.items {
		if other.ID == exclude {
			continue
		}
		if other.PractitionerID != practitionerID {
			continue
		}
		if other.Status == model.ConsultationStatusCancelled {
			continue
		}
		if other.Slot.Equal(slot) {
			return errors.SlotConflict("practitioner already has a consultation at this slot")
		}
	}
	return nil
}

func cloneConsultation(c *model.Consultation) *model.Consultation {
	cp := *c
	if c.RecordID != nil {
		rid := *c.RecordID
		cp.RecordID = &rid
	}
	if c.StartedAt != nil {
		t := *c.StartedAt
		cp.StartedAt = &t
	}
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		cp.CompletedAt = &t
	}
	if c.CancelReason != nil {
		r := *c.CancelReason
		cp.CancelReason = &r
	}
	return &cp
}
