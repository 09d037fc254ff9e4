package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/diogosflorencio/vida-plus/internal/model"
)

// ConsultationSnapshot is the persisted layout of the consultation
// collection: plain records in insertion order, keyed by id. Restoring a
// snapshot reproduces the collection exactly, order included.
type ConsultationSnapshot []*model.Consultation

// RecordHistory is one medical record with its full amendment history,
// oldest version first. The last version is the merged view served to
// callers.
type RecordHistory struct {
	ID       uuid.UUID              `json:"id"`
	Versions []*model.MedicalRecord `json:"versions"`
}

// RecordSnapshot is the persisted layout of the record collection.
type RecordSnapshot []RecordHistory

// All repository interfaces in one file
type (
	// ConsultationRepository owns the consultation collection and enforces
	// lifecycle transition legality. Every mutation validates then commits
	// atomically; on error the collection is unchanged.
	ConsultationRepository interface {
		Create(ctx context.Context, consultation *model.Consultation) error
		Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
		List(ctx context.Context, filters *model.ConsultationFilters) ([]*model.Consultation, error)
		Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Consultation, error)
		Start(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
		Finish(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
		RevertStart(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
		Reschedule(ctx context.Context, id uuid.UUID, slot model.Slot) (*model.Consultation, error)
		SetRecordID(ctx context.Context, id, recordID uuid.UUID) error
		Snapshot(ctx context.Context) (ConsultationSnapshot, error)
		Restore(ctx context.Context, snap ConsultationSnapshot) error
	}

	// RecordRepository owns the medical record collection. Records are
	// append-only: an amendment adds a version, it never rewrites one.
	RecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		GetByConsultation(ctx context.Context, consultationID uuid.UUID) (*model.MedicalRecord, error)
		List(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error)
		Amend(ctx context.Context, id uuid.UUID, patch model.RecordAmendment) (*model.MedicalRecord, error)
		Versions(ctx context.Context, id uuid.UUID) ([]*model.MedicalRecord, error)
		Snapshot(ctx context.Context) (RecordSnapshot, error)
		Restore(ctx context.Context, snap RecordSnapshot) error
	}
)
