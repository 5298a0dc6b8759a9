package cron

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/pkg/logger"
)

const (
	defaultOutboxRetention     = 30 * 24 * time.Hour
	defaultDeadLetterRetention = 90 * 24 * time.Hour
	// Published rows that needed this many tries are kept for inspection.
	defaultKeepAttempts = 5
	deadLetterWindow    = 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEventStore interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
	CountPending(ctx context.Context) (int64, error)
}

type deadLetterStore interface {
	DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type backlogObserver interface {
	SetBacklog(pending, recentDeadLetters int64)
}

type OutboxMaintenanceJobParams struct {
	Logger              *logger.Logger
	DB                  txRunner
	Events              outboxEventStore
	DeadLetters         deadLetterStore
	Metrics             backlogObserver
	Retention           time.Duration
	DeadLetterRetention time.Duration
	KeepAttempts        int
	Now                 func() time.Time
}

// NewOutboxMaintenanceJob prunes delivered outbox rows and old dead letters,
// then reports how much is still queued. Unpublished rows are never touched.
func NewOutboxMaintenanceJob(params OutboxMaintenanceJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Events == nil:
		return nil, errors.New("outbox repository required")
	case params.DeadLetters == nil:
		return nil, errors.New("dead letter repository required")
	}
	job := &outboxMaintenanceJob{
		logg:         params.Logger,
		db:           params.DB,
		events:       params.Events,
		deadLetters:  params.DeadLetters,
		metrics:      params.Metrics,
		retention:    params.Retention,
		dlqRetention: params.DeadLetterRetention,
		keepAttempts: params.KeepAttempts,
		now:          params.Now,
	}
	if job.retention <= 0 {
		job.retention = defaultOutboxRetention
	}
	if job.dlqRetention <= 0 {
		job.dlqRetention = defaultDeadLetterRetention
	}
	if job.keepAttempts <= 0 {
		job.keepAttempts = defaultKeepAttempts
	}
	if job.now == nil {
		job.now = time.Now
	}
	return job, nil
}

type outboxMaintenanceJob struct {
	logg         *logger.Logger
	db           txRunner
	events       outboxEventStore
	deadLetters  deadLetterStore
	metrics      backlogObserver
	retention    time.Duration
	dlqRetention time.Duration
	keepAttempts int
	now          func() time.Time
}

func (j *outboxMaintenanceJob) Name() string { return "outbox-maintenance" }

func (j *outboxMaintenanceJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	eventCutoff := now.Add(-j.retention)
	dlqCutoff := now.Add(-j.dlqRetention)

	var prunedEvents, prunedDeadLetters int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		if prunedEvents, err = j.events.DeletePublishedBefore(ctx, tx, eventCutoff, j.keepAttempts); err != nil {
			return err
		}
		prunedDeadLetters, err = j.deadLetters.DeleteFailedBefore(ctx, tx, dlqCutoff)
		return err
	})
	if err != nil {
		return err
	}

	pending, err := j.events.CountPending(ctx)
	if err != nil {
		return err
	}
	recent, err := j.deadLetters.CountSince(ctx, now.Add(-deadLetterWindow))
	if err != nil {
		return err
	}
	if j.metrics != nil {
		j.metrics.SetBacklog(pending, recent)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"event_cutoff":          eventCutoff,
		"dead_letter_cutoff":    dlqCutoff,
		"events_pruned":         prunedEvents,
		"dead_letters_pruned":   prunedDeadLetters,
		"pending_events":        pending,
		"dead_letters_last_24h": recent,
	})
	if recent > 0 {
		j.logg.Warn(logCtx, "outbox maintenance found recent dead letters")
		return nil
	}
	j.logg.Info(logCtx, "outbox maintenance complete")
	return nil
}
