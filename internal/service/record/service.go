package record

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/diogosflorencio/vida-plus/internal/model"
	"github.com/diogosflorencio/vida-plus/internal/repository"
	apperrors "github.com/diogosflorencio/vida-plus/pkg/errors"
	"github.com/diogosflorencio/vida-plus/pkg/event"
	"github.com/diogosflorencio/vida-plus/pkg/logger"
	"github.com/diogosflorencio/vida-plus/pkg/metrics"
)

// Service manages medical records. Creation requires the referenced
// consultation to be in progress or completed, and attaches the record id
// back onto the consultation, the one cross-repository write.
type Service struct {
	records       repository.RecordRepository
	consultations repository.ConsultationRepository
	validate      *validator.Validate
	log           *logger.Logger
	metrics       *metrics.Metrics
	emitter       event.Emitter
}

func NewService(records repository.RecordRepository, consultations repository.ConsultationRepository, log *logger.Logger, m *metrics.Metrics, emitter event.Emitter) *Service {
	return &Service{
		records:       records,
		consultations: consultations,
		validate:      validator.New(),
		log:           log,
		metrics:       m,
		emitter:       emitter,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateRecordRequest) (*model.MedicalRecord, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.InvalidInput("invalid record request", err)
	}

	c, err := s.consultations.Get(ctx, req.ConsultationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load consultation: %w", err)
	}
	if c.Status != model.ConsultationStatusInProgress && c.Status != model.ConsultationStatusCompleted {
		return nil, apperrors.InvalidConsultationState(
			fmt.Sprintf("cannot document a %s consultation", c.Status))
	}

	rec := &model.MedicalRecord{
		PatientID:      c.PatientID,
		PractitionerID: c.PractitionerID,
		ConsultationID: c.ID,
		Symptoms:       req.Symptoms,
		Diagnosis:      req.Diagnosis,
		Treatment:      req.Treatment,
		Medications:    append([]string(nil), req.Medications...),
		Notes:          req.Notes,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}
	if err := s.consultations.SetRecordID(ctx, c.ID, rec.ID); err != nil {
		return nil, fmt.Errorf("failed to attach record to consultation: %w", err)
	}

	s.metrics.RecordsCreated.Inc()
	s.log.Info("medical record created",
		"record_id", rec.ID.String(),
		"consultation_id", c.ID.String(),
	)
	s.emitter.Emit(event.RecordCreated, map[string]interface{}{
		"record_id":       rec.ID,
		"consultation_id": c.ID,
		"patient_id":      c.PatientID,
	})
	return rec, nil
}

// Amend applies an append-only patch; prior versions stay retrievable
// through Versions.
func (s *Service) Amend(ctx context.Context, id uuid.UUID, patch model.RecordAmendment) (*model.MedicalRecord, error) {
	rec, err := s.records.Amend(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to amend record: %w", err)
	}

	s.metrics.RecordsAmended.Inc()
	s.log.Info("medical record amended", "record_id", id.String(), "version", rec.Version)
	s.emitter.Emit(event.RecordAmended, map[string]interface{}{
		"record_id": id,
		"version":   rec.Version,
	})
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	return s.records.Get(ctx, id)
}

func (s *Service) GetByConsultation(ctx context.Context, consultationID uuid.UUID) (*model.MedicalRecord, error) {
	return s.records.GetByConsultation(ctx, consultationID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	return s.records.List(ctx, patientID)
}

// Versions returns the full amendment history, oldest first.
func (s *Service) Versions(ctx context.Context, id uuid.UUID) ([]*model.MedicalRecord, error) {
	return s.records.Versions(ctx, id)
}
