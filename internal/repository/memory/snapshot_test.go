package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogosflorencio/vida-plus/internal/model"
)

func TestSnapshotFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	consultations := NewConsultationStore()
	records := NewRecordStore()

	c := mustCreate(t, consultations, newConsultation(uuid.New(), uuid.New(), "2025-01-10", "14:00"))
	_, err := consultations.Start(ctx, c.ID)
	require.NoError(t, err)

	rec := newRecord(c.ID)
	require.NoError(t, records.Create(ctx, rec))
	_, err = records.Amend(ctx, rec.ID, model.RecordAmendment{AddMedications: []string{"Aspirin 100mg"}})
	require.NoError(t, err)

	snap, err := TakeSnapshot(ctx, consultations, records)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "snapshot.json")
	require.NoError(t, SaveSnapshot(snap, path))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)

	c2 := NewConsultationStore()
	r2 := NewRecordStore()
	require.NoError(t, RestoreSnapshot(ctx, loaded, c2, r2))

	snap2, err := TakeSnapshot(ctx, c2, r2)
	require.NoError(t, err)
	assert.Equal(t, snap, snap2)
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	snap, err := LoadSnapshot(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Empty(t, snap.Consultations)
	assert.Empty(t, snap.Records)
}

func TestLoadSnapshotCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadSnapshot(path)
	assert.Error(t, err)
}
