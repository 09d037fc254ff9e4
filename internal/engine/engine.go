package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/diogosflorencio/vida-plus/internal/config"
	"github.com/diogosflorencio/vida-plus/internal/identity"
	"github.com/diogosflorencio/vida-plus/internal/media"
	"github.com/diogosflorencio/vida-plus/internal/model"
	"github.com/diogosflorencio/vida-plus/internal/repository/memory"
	"github.com/diogosflorencio/vida-plus/internal/service/consultation"
	"github.com/diogosflorencio/vida-plus/internal/service/query"
	"github.com/diogosflorencio/vida-plus/internal/service/record"
	"github.com/diogosflorencio/vida-plus/internal/service/session"
	"github.com/diogosflorencio/vida-plus/pkg/event"
	"github.com/diogosflorencio/vida-plus/pkg/logger"
	"github.com/diogosflorencio/vida-plus/pkg/metrics"
)

// Options configures an Engine. Everything is optional: a zero Options
// gives an in-memory engine with a fake media transport, useful for tests
// and for UI development without devices.
type Options struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry prometheus.Registerer
	Media    media.Session
	Identity identity.Provider
}

// Engine is the composition root of the consultation state engine. The
// caller owns its lifecycle; nothing here is a package-level singleton.
type Engine struct {
	cfg *config.Config
	log *logger.Logger

	Metrics *metrics.Metrics
	Emitter event.Emitter

	ConsultationStore *memory.ConsultationStore
	RecordStore       *memory.RecordStore

	Consultations *consultation.Service
	Records       *record.Service
	Query         *query.Service
	Sessions      *session.Coordinator

	Identity identity.Provider
}

func New(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	log := opts.Logger
	if log == nil {
		level, err := zerolog.ParseLevel(cfg.Logging.Level)
		if err != nil {
			level = zerolog.InfoLevel
		}
		log = logger.NewLogger(&logger.Config{
			Level:      level,
			TimeFormat: time.RFC3339,
			Output:     os.Stdout,
		})
	}

	m := metrics.NewMetrics("vidaplus", opts.Registry)
	emitter := event.NewInProcessEmitter()

	consultationStore := memory.NewConsultationStore()
	recordStore := memory.NewRecordStore()

	mediaSession := opts.Media
	if mediaSession == nil {
		mediaSession = media.NewFake()
	}

	consultationSvc := consultation.NewService(consultationStore, log, m, emitter)

	e := &Engine{
		cfg:               cfg,
		log:               log,
		Metrics:           m,
		Emitter:           emitter,
		ConsultationStore: consultationStore,
		RecordStore:       recordStore,
		Consultations:     consultationSvc,
		Records:           record.NewService(recordStore, consultationStore, log, m, emitter),
		Query:             query.NewService(consultationStore),
		Sessions:          session.NewCoordinator(consultationSvc, mediaSession, log, m, emitter, cfg.Session.AcquireTimeout()),
		Identity:          opts.Identity,
	}

	if cfg.Persistence.Path != "" {
		if err := e.Load(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to load persisted state: %w", err)
		}
		if cfg.Persistence.AutoSave {
			emitter.Subscribe(func(event.Event) {
				if err := e.Save(context.Background()); err != nil {
					log.Error(err, "autosave failed")
				}
			})
		}
	}

	return e, nil
}

// Save persists the current snapshot to the configured path.
func (e *Engine) Save(ctx context.Context) error {
	if e.cfg.Persistence.Path == "" {
		return nil
	}

	snap, err := memory.TakeSnapshot(ctx, e.ConsultationStore, e.RecordStore)
	if err != nil {
		e.Metrics.SnapshotOps.WithLabelValues("save", "error").Inc()
		return err
	}
	if err := memory.SaveSnapshot(snap, e.cfg.Persistence.Path); err != nil {
		e.Metrics.SnapshotOps.WithLabelValues("save", "error").Inc()
		return err
	}

	e.Metrics.SnapshotOps.WithLabelValues("save", "ok").Inc()
	return nil
}

// Load replaces the engine state with the persisted snapshot, if any.
func (e *Engine) Load(ctx context.Context) error {
	snap, err := memory.LoadSnapshot(e.cfg.Persistence.Path)
	if err != nil {
		e.Metrics.SnapshotOps.WithLabelValues("load", "error").Inc()
		return err
	}
	if err := memory.RestoreSnapshot(ctx, snap, e.ConsultationStore, e.RecordStore); err != nil {
		e.Metrics.SnapshotOps.WithLabelValues("load", "error").Inc()
		return err
	}

	e.Metrics.Consultations.Set(float64(e.ConsultationStore.Len()))
	e.Metrics.SnapshotOps.WithLabelValues("load", "ok").Inc()
	return nil
}

// Dashboard is the role-scoped home view of the current actor: next
// appointment, today's list, and the status breakdown.
type Dashboard struct {
	Actor        model.Actor           `json:"actor"`
	NextUpcoming *model.Consultation   `json:"next_upcoming,omitempty"`
	Today        []*model.Consultation `json:"today"`
	Stats        *query.Stats          `json:"stats"`
}

func (e *Engine) Dashboard(ctx context.Context) (*Dashboard, error) {
	if e.Identity == nil {
		return nil, fmt.Errorf("no identity provider configured")
	}

	actor, err := e.Identity.CurrentActor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current actor: %w", err)
	}

	next, err := e.Query.NextUpcoming(ctx, actor)
	if err != nil {
		return nil, err
	}
	today, err := e.Query.Today(ctx, actor)
	if err != nil {
		return nil, err
	}
	stats, err := e.Query.Stats(ctx, actor)
	if err != nil {
		return nil, err
	}

	return &Dashboard{Actor: actor, NextUpcoming: next, Today: today, Stats: stats}, nil
}
