package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/diogosflorencio/vida-plus/internal/model"
	"github.com/diogosflorencio/vida-plus/internal/repository"
	apperrors "github.com/diogosflorencio/vida-plus/pkg/errors"
	"github.com/diogosflorencio/vida-plus/pkg/event"
	"github.com/diogosflorencio/vida-plus/pkg/logger"
	"github.com/diogosflorencio/vida-plus/pkg/metrics"
)

// Service drives the consultation lifecycle. The repository enforces
// transition legality and atomicity; this layer validates input, applies
// scheduling policy, and reports what happened (log, metrics, events).
type Service struct {
	repo     repository.ConsultationRepository
	validate *validator.Validate
	log      *logger.Logger
	metrics  *metrics.Metrics
	emitter  event.Emitter
	now      func() time.Time
}

func NewService(repo repository.ConsultationRepository, log *logger.Logger, m *metrics.Metrics, emitter event.Emitter) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		log:      log,
		metrics:  m,
		emitter:  emitter,
		now:      time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Schedule creates a new consultation in scheduled state. A slot in the
// past is rejected: past visits are recorded through the medical record
// amendment path, never by back-dating a scheduling.
func (s *Service) Schedule(ctx context.Context, req *model.ScheduleConsultationRequest) (*model.Consultation, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.InvalidInput("invalid scheduling request", err)
	}

	slot := req.Slot()
	at, err := slot.At(time.Local)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid slot", err)
	}
	if at.Before(s.now()) {
		return nil, apperrors.InvalidInput("cannot schedule a consultation in the past", nil)
	}

	c := &model.Consultation{
		PatientID:      req.PatientID,
		PractitionerID: req.PractitionerID,
		Slot:           slot,
		Specialty:      req.Specialty,
		Modality:       req.Modality,
		Notes:          req.Notes,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if apperrors.HasCode(err, apperrors.ErrSlotConflict) {
			s.metrics.SlotConflicts.Inc()
		}
		return nil, fmt.Errorf("failed to schedule consultation: %w", err)
	}

	s.metrics.Consultations.Inc()
	s.metrics.Transitions.WithLabelValues("", string(model.ConsultationStatusScheduled)).Inc()
	s.log.Info("consultation scheduled",
		"consultation_id", c.ID.String(),
		"practitioner_id", c.PractitionerID.String(),
		"slot", slot.Key(),
	)
	s.emitter.Emit(event.ConsultationScheduled, map[string]interface{}{
		"consultation_id": c.ID,
		"patient_id":      c.PatientID,
		"practitioner_id": c.PractitionerID,
		"slot":            slot.Key(),
	})
	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.ConsultationFilters) ([]*model.Consultation, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to cancel consultation: %w", err)
	}

	c, err := s.repo.Cancel(ctx, id, reason)
	if err != nil {
		return fmt.Errorf("failed to cancel consultation: %w", err)
	}

	s.metrics.Transitions.WithLabelValues(string(prev.Status), string(c.Status)).Inc()
	s.log.Info("consultation cancelled", "consultation_id", id.String(), "reason", reason)
	s.emitter.Emit(event.ConsultationCancelled, map[string]interface{}{
		"consultation_id": id,
		"reason":          reason,
	})
	return nil
}

func (s *Service) Start(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	c, err := s.repo.Start(ctx, id)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrConcurrentSessionConflict) {
			s.metrics.SessionGuards.Inc()
		}
		return nil, fmt.Errorf("failed to start consultation: %w", err)
	}

	s.metrics.Transitions.WithLabelValues(string(model.ConsultationStatusScheduled), string(c.Status)).Inc()
	s.log.Info("consultation started", "consultation_id", id.String())
	s.emitter.Emit(event.ConsultationStarted, map[string]interface{}{"consultation_id": id})
	return c, nil
}

func (s *Service) Finish(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	c, err := s.repo.Finish(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to finish consultation: %w", err)
	}

	s.metrics.Transitions.WithLabelValues(string(model.ConsultationStatusInProgress), string(c.Status)).Inc()
	s.log.Info("consultation completed", "consultation_id", id.String())
	s.emitter.Emit(event.ConsultationCompleted, map[string]interface{}{"consultation_id": id})
	return c, nil
}

// RevertStart compensates a start whose session never materialized.
func (s *Service) RevertStart(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	c, err := s.repo.RevertStart(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to revert consultation start: %w", err)
	}

	s.metrics.SessionReverts.Inc()
	s.metrics.Transitions.WithLabelValues(string(model.ConsultationStatusInProgress), string(c.Status)).Inc()
	s.log.Warn("consultation start reverted", "consultation_id", id.String())
	s.emitter.Emit(event.ConsultationReverted, map[string]interface{}{"consultation_id": id})
	return c, nil
}

func (s *Service) Reschedule(ctx context.Context, req *model.RescheduleConsultationRequest) (*model.Consultation, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.InvalidInput("invalid reschedule request", err)
	}

	slot := req.Slot()
	at, err := slot.At(time.Local)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid slot", err)
	}
	if at.Before(s.now()) {
		return nil, apperrors.InvalidInput("cannot reschedule a consultation into the past", nil)
	}

	c, err := s.repo.Reschedule(ctx, req.ConsultationID, slot)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrSlotConflict) {
			s.metrics.SlotConflicts.Inc()
		}
		return nil, fmt.Errorf("failed to reschedule consultation: %w", err)
	}

	s.log.Info("consultation rescheduled", "consultation_id", c.ID.String(), "slot", slot.Key())
	s.emitter.Emit(event.ConsultationRescheduled, map[string]interface{}{
		"consultation_id": c.ID,
		"slot":            slot.Key(),
	})
	return c, nil
}
