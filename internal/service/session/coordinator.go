package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diogosflorencio/vida-plus/internal/media"
	"github.com/diogosflorencio/vida-plus/internal/model"
	"github.com/diogosflorencio/vida-plus/internal/service/consultation"
	apperrors "github.com/diogosflorencio/vida-plus/pkg/errors"
	"github.com/diogosflorencio/vida-plus/pkg/event"
	"github.com/diogosflorencio/vida-plus/pkg/logger"
	"github.com/diogosflorencio/vida-plus/pkg/metrics"
)

// Session is one live telemedicine call.
type Session struct {
	ConsultationID uuid.UUID
	Handle         media.Handle
	StartedAt      time.Time
}

// Coordinator owns the handoff between the consultation lifecycle and the
// media transport. At most one session is active for the whole engine: one
// UI surface, one live call.
//
// Enter commits the start transition before touching media; if acquisition
// then fails or the caller gives up, the start is compensated with a revert
// so no consultation is left in progress without a session behind it.
type Coordinator struct {
	consultations *consultation.Service
	media         media.Session
	log           *logger.Logger
	metrics       *metrics.Metrics
	emitter       event.Emitter

	acquireTimeout time.Duration

	mu     sync.Mutex
	active *Session
}

func NewCoordinator(consultations *consultation.Service, m media.Session, log *logger.Logger, mt *metrics.Metrics, emitter event.Emitter, acquireTimeout time.Duration) *Coordinator {
	return &Coordinator{
		consultations:  consultations,
		media:          m,
		log:            log,
		metrics:        mt,
		emitter:        emitter,
		acquireTimeout: acquireTimeout,
	}
}

// Active returns the live session, or nil when idle.
func (c *Coordinator) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	s := *c.active
	return &s
}

// Enter starts the consultation and acquires the media resource. The
// original acquisition error is surfaced unchanged; the compensating
// revert is the coordinator's problem, never the caller's.
func (c *Coordinator) Enter(ctx context.Context, consultationID uuid.UUID) (*Session, error) {
	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return nil, apperrors.ConcurrentSessionConflict("another telemedicine session is already active")
	}
	c.mu.Unlock()

	started, err := c.consultations.Start(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	if c.acquireTimeout > 0 {
		if _, has := ctx.Deadline(); !has {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.acquireTimeout)
			defer cancel()
		}
	}

	begin := time.Now()
	handle, err := c.media.Acquire(ctx, consultationID)
	c.metrics.AcquireLatency.Observe(time.Since(begin).Seconds())
	if err != nil {
		// Roll the consultation back to scheduled; an in-progress
		// consultation with no session behind it must not survive.
		if _, revErr := c.consultations.RevertStart(context.WithoutCancel(ctx), consultationID); revErr != nil {
			c.log.Error(revErr, "failed to revert consultation after media failure",
				"consultation_id", consultationID.String())
		}
		return nil, fmt.Errorf("failed to acquire media session: %w", err)
	}

	sess := &Session{
		ConsultationID: consultationID,
		Handle:         handle,
		StartedAt:      startedAtOrNow(started),
	}

	c.mu.Lock()
	if c.active != nil {
		// A second Enter slipped in while media was being acquired.
		c.mu.Unlock()
		c.media.Release(handle)
		if _, revErr := c.consultations.RevertStart(context.WithoutCancel(ctx), consultationID); revErr != nil {
			c.log.Error(revErr, "failed to revert consultation after session race",
				"consultation_id", consultationID.String())
		}
		return nil, apperrors.ConcurrentSessionConflict("another telemedicine session is already active")
	}
	c.active = sess
	c.mu.Unlock()

	c.metrics.ActiveSessions.Set(1)
	c.log.Info("telemedicine session entered", "consultation_id", consultationID.String())
	c.emitter.Emit(event.SessionEntered, map[string]interface{}{"consultation_id": consultationID})
	return sess, nil
}

// Leave completes the consultation and releases the media resource. The
// release happens unconditionally: a finish error is surfaced but never
// leaks the media handle.
func (c *Coordinator) Leave(ctx context.Context, consultationID uuid.UUID) error {
	sess, err := c.take(consultationID)
	if err != nil {
		return err
	}
	defer c.release(sess)

	if _, err := c.consultations.Finish(ctx, consultationID); err != nil {
		return err
	}
	return nil
}

// Abort ends the session without completing the consultation: the call
// failed mid-flight, so the consultation is cancelled instead.
func (c *Coordinator) Abort(ctx context.Context, consultationID uuid.UUID, reason string) error {
	sess, err := c.take(consultationID)
	if err != nil {
		return err
	}
	defer c.release(sess)

	return c.consultations.Cancel(ctx, consultationID, reason)
}

// take claims the active session for teardown.
func (c *Coordinator) take(consultationID uuid.UUID) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return nil, apperrors.NotFound("active session", nil)
	}
	if c.active.ConsultationID != consultationID {
		return nil, apperrors.NotFound("active session for consultation", nil)
	}
	sess := c.active
	c.active = nil
	return sess, nil
}

func (c *Coordinator) release(sess *Session) {
	c.media.Release(sess.Handle)
	c.metrics.ActiveSessions.Set(0)
	c.log.Info("telemedicine session left", "consultation_id", sess.ConsultationID.String())
	c.emitter.Emit(event.SessionLeft, map[string]interface{}{"consultation_id": sess.ConsultationID})
}

func startedAtOrNow(c *model.Consultation) time.Time {
	if c.StartedAt != nil {
		return *c.StartedAt
	}
	return time.Now().UTC()
}
