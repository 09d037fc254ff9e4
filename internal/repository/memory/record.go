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

// RecordStore is the in-memory medical record repository. Every record is
// an append-only chain of versions; amendments add a version and never
// rewrite one, so prior clinical entries are never lost.
type RecordStore struct {
	mu       sync.Mutex
	order    []uuid.UUID
	versions map[uuid.UUID][]*model.MedicalRecord
	byConsul map[uuid.UUID]uuid.UUID
}

var _ repository.RecordRepository = (*RecordStore)(nil)

func NewRecordStore() *RecordStore {
	return &RecordStore{
		versions: make(map[uuid.UUID][]*model.MedicalRecord),
		byConsul: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *RecordStore) Create(_ context.Context, record *model.MedicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byConsul[record.ConsultationID]; taken {
		return errors.InvalidConsultationState("consultation already has a medical record")
	}

	now := time.Now().UTC()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Version = 1
	record.CreatedAt = now
	record.UpdatedAt = now

	s.versions[record.ID] = []*model.MedicalRecord{record.Clone()}
	s.order = append(s.order, record.ID)
	s.byConsul[record.ConsultationID] = record.ID
	return nil
}

func (s *RecordStore) Get(_ context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest(id)
}

func (s *RecordStore) GetByConsultation(_ context.Context, consultationID uuid.UUID) (*model.MedicalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byConsul[consultationID]
	if !ok {
		return nil, errors.NotFound("medical record", nil)
	}
	return s.latest(id)
}

func (s *RecordStore) List(_ context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.MedicalRecord
	for _, id := range s.order {
		chain := s.versions[id]
		head := chain[len(chain)-1]
		if patientID != uuid.Nil && head.PatientID != patientID {
			continue
		}
		out = append(out, head.Clone())
	}
	return out, nil
}

// Amend appends a new version built by applying the patch to the latest
// one. Medications are append-only; removal happens only through explicit
// indexes supplied by the caller, and duplicates are preserved.
func (s *RecordStore) Amend(_ context.Context, id uuid.UUID, patch model.RecordAmendment) (*model.MedicalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain, ok := s.versions[id]
	if !ok {
		return nil, errors.NotFound("medical record", nil)
	}
	if patch.Empty() {
		return chain[len(chain)-1].Clone(), nil
	}

	next := chain[len(chain)-1].Clone()
	if patch.Symptoms != nil {
		next.Symptoms = *patch.Symptoms
	}
	if patch.Diagnosis != nil {
		next.Diagnosis = *patch.Diagnosis
	}
	if patch.Treatment != nil {
		next.Treatment = *patch.Treatment
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}
	if len(patch.RemoveMedicationIdx) > 0 {
		keep := make([]string, 0, len(next.Medications))
		drop := make(map[int]bool, len(patch.RemoveMedicationIdx))
		for _, idx := range patch.RemoveMedicationIdx {
			if idx < 0 || idx >= len(next.Medications) {
				return nil, errors.InvalidInput("medication index out of range", nil)
			}
			drop[idx] = true
		}
		for i, med := range next.Medications {
			if !drop[i] {
				keep = append(keep, med)
			}
		}
		next.Medications = keep
	}
	next.Medications = append(next.Medications, patch.AddMedications...)
	next.Version = len(chain) + 1
	next.UpdatedAt = time.Now().UTC()

	s.versions[id] = append(chain, next)
	return next.Clone(), nil
}

func (s *RecordStore) Versions(_ context.Context, id uuid.UUID) ([]*model.MedicalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain, ok := s.versions[id]
	if !ok {
		return nil, errors.NotFound("medical record", nil)
	}
	out := make([]*model.MedicalRecord, 0, len(chain))
	for _, v := range chain {
		out = append(out, v.Clone())
	}
	return out, nil
}

func (s *RecordStore) Snapshot(_ context.Context) (repository.RecordSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make(repository.RecordSnapshot, 0, len(s.order))
	for _, id := range s.order {
		chain := s.versions[id]
		versions := make([]*model.MedicalRecord, 0, len(chain))
		for _, v := range chain {
			versions = append(versions, v.Clone())
		}
		snap = append(snap, repository.RecordHistory{ID: id, Versions: versions})
	}
	return snap, nil
}

func (s *RecordStore) Restore(_ context.Context, snap repository.RecordSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := make(map[uuid.UUID][]*model.MedicalRecord, len(snap))
	byConsul := make(map[uuid.UUID]uuid.UUID, len(snap))
	order := make([]uuid.UUID, 0, len(snap))
	for _, h := range snap {
		if len(h.Versions) == 0 {
			return errors.InvalidInput("snapshot contains a record without versions", nil)
		}
		if _, dup := versions[h.ID]; dup {
			return errors.InvalidInput("snapshot contains a duplicate record id", nil)
		}
		chain := make([]*model.MedicalRecord, 0, len(h.Versions))
		for _, v := range h.Versions {
			chain = append(chain, v.Clone())
		}
		versions[h.ID] = chain
		byConsul[chain[len(chain)-1].ConsultationID] = h.ID
		order = append(order, h.ID)
	}

	s.versions = versions
	s.byConsul = byConsul
	s.order = order
	return nil
}

// latest must be called with the lock held.
func (s *RecordStore) latest(id uuid.UUID) (*model.MedicalRecord, error) {
	chain, ok := s.versions[id]
	if !ok {
		return nil, errors.NotFound("medical record", nil)
	}
	return chain[len(chain)-1].Clone(), nil
}
