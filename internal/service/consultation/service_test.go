package consultation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogosflorencio/vida-plus/internal/model"
	"github.com/diogosflorencio/vida-plus/internal/repository/memory"
	"github.com/diogosflorencio/vida-plus/pkg/errors"
	"github.com/diogosflorencio/vida-plus/pkg/event"
	"github.com/diogosflorencio/vida-plus/pkg/logger"
	"github.com/diogosflorencio/vida-plus/pkg/metrics"
)

// The service clock is pinned so slot-in-the-past policy tests are stable.
var testNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.Local)

func newTestService() *Service {
	store := memory.NewConsultationStore()
	svc := NewService(store, logger.Nop(), metrics.NewMetrics("test", nil), event.NopEmitter{})
	return svc.WithClock(func() time.Time { return testNow })
}

func scheduleReq(practitionerID uuid.UUID, date, hour string) *model.ScheduleConsultationRequest {
	return &model.ScheduleConsultationRequest{
		PatientID:      uuid.New(),
		PractitionerID: practitionerID,
		Date:           date,
		Time:           hour,
		Specialty:      "Cardiology",
		Modality:       model.ModalityRemote,
	}
}

func TestScheduleCreatesScheduledConsultation(t *testing.T) {
	svc := newTestService()

	c, err := svc.Schedule(context.Background(), scheduleReq(uuid.New(), "2025-01-10", "14:00"))
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationStatusScheduled, c.Status)
	assert.Equal(t, model.Slot{Date: "2025-01-10", Time: "14:00"}, c.Slot)

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestScheduleSameSlotTwiceConflicts(t *testing.T) {
	svc := newTestService()
	practitioner := uuid.New()

	_, err := svc.Schedule(context.Background(), scheduleReq(practitioner, "2025-01-10", "14:00"))
	require.NoError(t, err)

	_, err = svc.Schedule(context.Background(), scheduleReq(practitioner, "2025-01-10", "14:00"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrSlotConflict))
}

func TestScheduleRejectsInvalidInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.ScheduleConsultationRequest)
	}{
		{"missing patient", func(r *model.ScheduleConsultationRequest) { r.PatientID = uuid.Nil }},
		{"missing practitioner", func(r *model.ScheduleConsultationRequest) { r.PractitionerID = uuid.Nil }},
		{"impossible date", func(r *model.ScheduleConsultationRequest) { r.Date = "2025-02-30" }},
		{"wrong date layout", func(r *model.ScheduleConsultationRequest) { r.Date = "10/01/2025" }},
		{"bad time", func(r *model.ScheduleConsultationRequest) { r.Time = "25:00" }},
		{"missing specialty", func(r *model.ScheduleConsultationRequest) { r.Specialty = "" }},
		{"unknown modality", func(r *model.ScheduleConsultationRequest) { r.Modality = "by_phone" }},
		{"past slot", func(r *model.ScheduleConsultationRequest) { r.Date = "2024-12-31" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := scheduleReq(uuid.New(), "2025-01-10", "14:00")
			tt.mutate(req)

			_, err := svc.Schedule(ctx, req)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestCancelCompletedFails(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, err := svc.Schedule(ctx, scheduleReq(uuid.New(), "2025-01-10", "14:00"))
	require.NoError(t, err)
	_, err = svc.Start(ctx, c.ID)
	require.NoError(t, err)
	_, err = svc.Finish(ctx, c.ID)
	require.NoError(t, err)

	err = svc.Cancel(ctx, c.ID, "too late")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidTransition))

	// The failed cancel left the status untouched.
	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationStatusCompleted, got.Status)
}

func TestCancelRecordsReason(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, err := svc.Schedule(ctx, scheduleReq(uuid.New(), "2025-01-10", "14:00"))
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, c.ID, "patient request"))

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationStatusCancelled, got.Status)
	require.NotNil(t, got.CancelReason)
	assert.Equal(t, "patient request", *got.CancelReason)
}

func TestConcurrentStartConflict(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	practitioner := uuid.New()

	c1, err := svc.Schedule(ctx, scheduleReq(practitioner, "2025-01-10", "14:00"))
	require.NoError(t, err)
	c2, err := svc.Schedule(ctx, scheduleReq(practitioner, "2025-01-10", "15:00"))
	require.NoError(t, err)

	_, err = svc.Start(ctx, c1.ID)
	require.NoError(t, err)

	_, err = svc.Start(ctx, c2.ID)
	assert.True(t, errors.HasCode(err, errors.ErrConcurrentSessionConflict))

	_, err = svc.Finish(ctx, c1.ID)
	require.NoError(t, err)
	_, err = svc.Start(ctx, c2.ID)
	require.NoError(t, err)
}

func TestReschedule(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	practitioner := uuid.New()

	c, err := svc.Schedule(ctx, scheduleReq(practitioner, "2025-01-10", "14:00"))
	require.NoError(t, err)
	other, err := svc.Schedule(ctx, scheduleReq(practitioner, "2025-01-11", "10:00"))
	require.NoError(t, err)

	// Into the past is rejected by policy.
	_, err = svc.Reschedule(ctx, &model.RescheduleConsultationRequest{
		ConsultationID: c.ID, Date: "2024-06-01", Time: "10:00",
	})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInput))

	// Onto someone else's slot conflicts.
	_, err = svc.Reschedule(ctx, &model.RescheduleConsultationRequest{
		ConsultationID: c.ID, Date: other.Slot.Date, Time: other.Slot.Time,
	})
	assert.True(t, errors.HasCode(err, errors.ErrSlotConflict))

	moved, err := svc.Reschedule(ctx, &model.RescheduleConsultationRequest{
		ConsultationID: c.ID, Date: "2025-01-12", Time: "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, model.Slot{Date: "2025-01-12", Time: "09:00"}, moved.Slot)
}

func TestScheduleEmitsEvent(t *testing.T) {
	store := memory.NewConsultationStore()
	emitter := event.NewInProcessEmitter()
	svc := NewService(store, logger.Nop(), metrics.NewMetrics("test", nil), emitter).
		WithClock(func() time.Time { return testNow })

	var got []event.Event
	unsubscribe := emitter.Subscribe(func(e event.Event) { got = append(got, e) })
	defer unsubscribe()

	c, err := svc.Schedule(context.Background(), scheduleReq(uuid.New(), "2025-01-10", "14:00"))
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), c.ID)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, event.ConsultationScheduled, got[0].Type)
	assert.Equal(t, event.ConsultationStarted, got[1].Type)
	assert.Equal(t, c.ID, got[0].Payload["consultation_id"])
}
