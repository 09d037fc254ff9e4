package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogosflorencio/vida-plus/internal/config"
	"github.com/diogosflorencio/vida-plus/internal/identity"
	"github.com/diogosflorencio/vida-plus/internal/media"
	"github.com/diogosflorencio/vida-plus/internal/model"
	"github.com/diogosflorencio/vida-plus/pkg/errors"
	"github.com/diogosflorencio/vida-plus/pkg/logger"
)

func testOptions() Options {
	return Options{Logger: logger.Nop()}
}

func pinClocks(e *Engine, now time.Time) {
	e.Consultations.WithClock(func() time.Time { return now })
	e.Query.WithClock(func() time.Time { return now })
}

var engineNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

func schedule(t *testing.T, e *Engine, patientID, practitionerID uuid.UUID, date, hour string) *model.Consultation {
	t.Helper()
	c, err := e.Consultations.Schedule(context.Background(), &model.ScheduleConsultationRequest{
		PatientID:      patientID,
		PractitionerID: practitionerID,
		Date:           date,
		Time:           hour,
		Specialty:      "Cardiology",
		Modality:       model.ModalityRemote,
	})
	require.NoError(t, err)
	return c
}

func TestFullConsultationFlow(t *testing.T) {
	e, err := New(testOptions())
	require.NoError(t, err)
	pinClocks(e, engineNow)
	ctx := context.Background()

	patient := uuid.New()
	practitioner := uuid.New()
	c := schedule(t, e, patient, practitioner, "2025-06-20", "14:00")

	sess, err := e.Sessions.Enter(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, sess)

	rec, err := e.Records.Create(ctx, &model.CreateRecordRequest{
		ConsultationID: c.ID,
		Symptoms:       "headache",
		Diagnosis:      "migraine",
		Medications:    []string{"Sumatriptan 50mg"},
	})
	require.NoError(t, err)

	require.NoError(t, e.Sessions.Leave(ctx, c.ID))

	got, err := e.Consultations.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationStatusCompleted, got.Status)
	require.NotNil(t, got.RecordID)
	assert.Equal(t, rec.ID, *got.RecordID)

	n, err := e.Query.CompletedCount(ctx, model.Actor{ID: patient, Role: model.RolePatient})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "snapshot.json")
	cfg := config.Default()
	cfg.Persistence.Path = path

	e, err := New(Options{Config: cfg, Logger: logger.Nop()})
	require.NoError(t, err)
	pinClocks(e, engineNow)
	ctx := context.Background()

	patient := uuid.New()
	c1 := schedule(t, e, patient, uuid.New(), "2025-06-20", "14:00")
	c2 := schedule(t, e, patient, uuid.New(), "2025-06-21", "10:00")
	require.NoError(t, e.Consultations.Cancel(ctx, c2.ID, "conflict"))

	_, err = e.Consultations.Start(ctx, c1.ID)
	require.NoError(t, err)
	rec, err := e.Records.Create(ctx, &model.CreateRecordRequest{
		ConsultationID: c1.ID,
		Symptoms:       "cough",
		Diagnosis:      "bronchitis",
	})
	require.NoError(t, err)
	require.NoError(t, e.Save(ctx))

	// A second engine on the same path comes up with identical state.
	e2, err := New(Options{Config: cfg, Logger: logger.Nop()})
	require.NoError(t, err)
	pinClocks(e2, engineNow)

	snap1, err := e.ConsultationStore.Snapshot(ctx)
	require.NoError(t, err)
	snap2, err := e2.ConsultationStore.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap1, snap2)

	rsnap1, err := e.RecordStore.Snapshot(ctx)
	require.NoError(t, err)
	rsnap2, err := e2.RecordStore.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, rsnap1, rsnap2)

	got, err := e2.Records.GetByConsultation(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestAutoSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	cfg := config.Default()
	cfg.Persistence.Path = path
	cfg.Persistence.AutoSave = true

	e, err := New(Options{Config: cfg, Logger: logger.Nop()})
	require.NoError(t, err)
	pinClocks(e, engineNow)

	c := schedule(t, e, uuid.New(), uuid.New(), "2025-06-20", "14:00")

	// The scheduling event already triggered a save.
	e2, err := New(Options{Config: cfg, Logger: logger.Nop()})
	require.NoError(t, err)
	_, err = e2.Consultations.Get(context.Background(), c.ID)
	require.NoError(t, err)
}

func TestAutoSavePersistsRevertedStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	cfg := config.Default()
	cfg.Persistence.Path = path
	cfg.Persistence.AutoSave = true

	fake := media.NewFake()
	e, err := New(Options{Config: cfg, Logger: logger.Nop(), Media: fake})
	require.NoError(t, err)
	pinClocks(e, engineNow)
	ctx := context.Background()

	c := schedule(t, e, uuid.New(), uuid.New(), "2025-06-20", "14:00")

	fake.FailWith = errors.DeviceUnavailable(nil)
	_, err = e.Sessions.Enter(ctx, c.ID)
	require.Error(t, err)

	got, err := e.Consultations.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, model.ConsultationStatusScheduled, got.Status)

	// A restarted engine must agree: no orphaned in-progress consultation,
	// and the practitioner's concurrent-start guard stays open.
	e2, err := New(Options{Config: cfg, Logger: logger.Nop()})
	require.NoError(t, err)
	pinClocks(e2, engineNow)

	reloaded, err := e2.Consultations.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationStatusScheduled, reloaded.Status)

	_, err = e2.Consultations.Start(ctx, c.ID)
	require.NoError(t, err)
}

func TestLoadRestoresConsultationsGauge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	cfg := config.Default()
	cfg.Persistence.Path = path

	e, err := New(Options{Config: cfg, Logger: logger.Nop()})
	require.NoError(t, err)
	pinClocks(e, engineNow)

	schedule(t, e, uuid.New(), uuid.New(), "2025-06-20", "14:00")
	schedule(t, e, uuid.New(), uuid.New(), "2025-06-21", "10:00")
	require.NoError(t, e.Save(context.Background()))

	e2, err := New(Options{Config: cfg, Logger: logger.Nop()})
	require.NoError(t, err)
	assert.Equal(t, float64(2), testutil.ToFloat64(e2.Metrics.Consultations))
}

func TestDashboard(t *testing.T) {
	patient := uuid.New()
	e, err := New(Options{
		Logger:   logger.Nop(),
		Identity: identity.NewStatic(patient, model.RolePatient),
	})
	require.NoError(t, err)
	pinClocks(e, engineNow)
	ctx := context.Background()

	schedule(t, e, patient, uuid.New(), "2025-06-16", "09:00") // tomorrow
	today := schedule(t, e, patient, uuid.New(), "2025-06-15", "16:00")
	schedule(t, e, uuid.New(), uuid.New(), "2025-06-16", "09:00") // someone else's

	dash, err := e.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, patient, dash.Actor.ID)
	require.NotNil(t, dash.NextUpcoming)
	assert.Equal(t, today.ID, dash.NextUpcoming.ID, "today 16:00 comes before tomorrow 09:00")
	require.Len(t, dash.Today, 1)
	assert.Equal(t, today.ID, dash.Today[0].ID)
	assert.Equal(t, 2, dash.Stats.Total)
}

func TestDashboardWithoutIdentity(t *testing.T) {
	e, err := New(testOptions())
	require.NoError(t, err)

	_, err = e.Dashboard(context.Background())
	assert.Error(t, err)
}
