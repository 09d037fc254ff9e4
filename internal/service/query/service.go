package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/diogosflorencio/vida-plus/internal/model"
	"github.com/diogosflorencio/vida-plus/internal/repository"
)

// Service computes role-scoped views over the repositories' current
// snapshot. Every call recomputes from scratch: volumes are small, the
// store is single-client, and a cache would only add invalidation bugs.
// Nothing here mutates state.
type Service struct {
	consultations repository.ConsultationRepository
	now           func() time.Time
}

func NewService(consultations repository.ConsultationRepository) *Service {
	return &Service{consultations: consultations, now: time.Now}
}

// WithClock overrides the query clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ListByPatient returns every consultation of the patient, any status,
// sorted ascending by (date, time) with ties broken by id.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error) {
	list, err := s.consultations.List(ctx, &model.ConsultationFilters{PatientID: patientID})
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	sortBySlot(list)
	return list, nil
}

// ListByPractitioner is ListByPatient scoped to the practitioner side.
func (s *Service) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.Consultation, error) {
	list, err := s.consultations.List(ctx, &model.ConsultationFilters{PractitionerID: practitionerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	sortBySlot(list)
	return list, nil
}

// ForActor returns the actor's consultations: own ones for patients and
// practitioners, everything for admins.
func (s *Service) ForActor(ctx context.Context, actor model.Actor) ([]*model.Consultation, error) {
	if !actor.Role.Valid() {
		return nil, nil
	}
	list, err := s.consultations.List(ctx, filtersFor(actor))
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	sortBySlot(list)
	return list, nil
}

// NextUpcoming returns the actor's earliest scheduled consultation at or
// after now, or nil when there is none. Ties on the slot resolve by id
// ascending so the result is deterministic.
func (s *Service) NextUpcoming(ctx context.Context, actor model.Actor) (*model.Consultation, error) {
	list, err := s.ForActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var next *model.Consultation
	for _, c := range list {
		if c.Status != model.ConsultationStatusScheduled {
			continue
		}
		at, err := c.Slot.At(time.Local)
		if err != nil || at.Before(now) {
			continue
		}
		if next == nil || slotLess(c, next) {
			next = c
		}
	}
	return next, nil
}

// Today returns the actor's consultations on today's date, any status.
func (s *Service) Today(ctx context.Context, actor model.Actor) ([]*model.Consultation, error) {
	list, err := s.ForActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	today := s.now().Format(model.SlotDateLayout)
	out := make([]*model.Consultation, 0, len(list))
	for _, c := range list {
		if c.Slot.Date == today {
			out = append(out, c)
		}
	}
	return out, nil
}

// Upcoming returns the actor's scheduled consultations at or after now,
// soonest first.
func (s *Service) Upcoming(ctx context.Context, actor model.Actor) ([]*model.Consultation, error) {
	list, err := s.ForActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]*model.Consultation, 0, len(list))
	for _, c := range list {
		if c.Status != model.ConsultationStatusScheduled {
			continue
		}
		at, err := c.Slot.At(time.Local)
		if err != nil || at.Before(now) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// CompletedCount reports how many of the actor's consultations completed.
func (s *Service) CompletedCount(ctx context.Context, actor model.Actor) (int, error) {
	list, err := s.ForActor(ctx, actor)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, c := range list {
		if c.Status == model.ConsultationStatusCompleted {
			n++
		}
	}
	return n, nil
}

// Stats is the per-status breakdown shown on the admin dashboard.
type Stats struct {
	Total      int `json:"total"`
	Scheduled  int `json:"scheduled"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
}

func (s *Service) Stats(ctx context.Context, actor model.Actor) (*Stats, error) {
	list, err := s.ForActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	st := &Stats{Total: len(list)}
	for _, c := range list {
		switch c.Status {
		case model.ConsultationStatusScheduled:
			st.Scheduled++
		case model.ConsultationStatusInProgress:
			st.InProgress++
		case model.ConsultationStatusCompleted:
			st.Completed++
		case model.ConsultationStatusCancelled:
			st.Cancelled++
		}
	}
	return st, nil
}

func filtersFor(actor model.Actor) *model.ConsultationFilters {
	switch actor.Role {
	case model.RolePatient:
		return &model.ConsultationFilters{PatientID: actor.ID}
	case model.RolePractitioner:
		return &model.ConsultationFilters{PractitionerID: actor.ID}
	default:
		return nil
	}
}

func sortBySlot(list []*model.Consultation) {
	sort.SliceStable(list, func(i, j int) bool {
		return slotLess(list[i], list[j])
	})
}

func slotLess(a, b *model.Consultation) bool {
	if a.Slot.Key() != b.Slot.Key() {
		return a.Slot.Key() < b.Slot.Key()
	}
	return a.ID.String() < b.ID.String()
}
