// Package syncqueue runs best-effort side-channel calls (push token
// registration, notification deletes) with bounded retry and a persisted,
// inspectable state instead of swallowing their failures.
package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"feira/internal/apperr"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Handler performs one attempt of a job of a given kind.
type Handler func(ctx context.Context, payload []byte) error

// Config bounds the retry policy.
type Config struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig is used for zero fields.
var DefaultConfig = Config{
	MaxAttempts:     5,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     30 * time.Second,
}

// Queue drains jobs from a Store through registered handlers.
type Queue struct {
	store    Store
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics
	handlers map[string]Handler
	hmu      sync.RWMutex
	drain    sync.Mutex
	wake     chan struct{}
}

// New creates a queue. reg may be nil to skip metric registration.
func New(store Store, cfg Config, logger *slog.Logger, reg prometheus.Registerer) (*Queue, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig.MaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultConfig.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultConfig.MaxInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	m, err := newMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &Queue{
		store:    store,
		cfg:      cfg,
		logger:   logger.With("component", "syncqueue"),
		metrics:  m,
		handlers: make(map[string]Handler),
		wake:     make(chan struct{}, 1),
	}, nil
}

// Handle registers the handler for kind.
func (q *Queue) Handle(kind string, h Handler) {
	q.hmu.Lock()
	defer q.hmu.Unlock()
	q.handlers[kind] = h
}

func (q *Queue) handler(kind string) (Handler, bool) {
	q.hmu.RLock()
	defer q.hmu.RUnlock()
	h, ok := q.handlers[kind]
	return h, ok
}

// Enqueue stores a pending job, replacing any previous job with the same key.
func (q *Queue) Enqueue(ctx context.Context, kind, key string, payload any) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("failed to encode %s payload: %w", kind, err)
	}
	now := time.Now()
	job := Job{
		Key:       key,
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   raw,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.store.Put(ctx, job); err != nil {
		return Job{}, err
	}
	q.logger.Debug("job enqueued", "kind", kind, "key", key)

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return job, nil
}

// Status returns the current state of the job stored under key.
func (q *Queue) Status(ctx context.Context, key string) (Job, error) {
	return q.store.Get(ctx, key)
}

// Flush attempts every pending job now. It returns the context error if the
// drain was interrupted; individual job failures are recorded on the job.
func (q *Queue) Flush(ctx context.Context) error {
	q.drain.Lock()
	defer q.drain.Unlock()

	jobs, err := q.store.Pending(ctx)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.process(ctx, job)
	}
	return ctx.Err()
}

// Run flushes on every interval tick and whenever a job is enqueued, until
// ctx ends.
func (q *Queue) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := q.Flush(ctx); err != nil && !errors.Is(err, context.Canceled) {
			q.logger.Error("flush failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-q.wake:
		}
	}
}

func (q *Queue) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = q.cfg.InitialInterval
	exp.MaxInterval = q.cfg.MaxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(q.cfg.MaxAttempts-1)), ctx)
}

func (q *Queue) process(ctx context.Context, job Job) {
	log := q.logger.With("kind", job.Kind, "key", job.Key)

	h, ok := q.handler(job.Kind)
	if !ok {
		q.finish(ctx, job, 0, fmt.Errorf("no handler registered for kind %q", job.Kind))
		return
	}

	attempts := 0
	op := func() error {
		attempts++
		err := h(ctx, job.Payload)
		if err != nil && apperr.IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		q.metrics.retried.WithLabelValues(job.Kind).Inc()
		log.Warn("job attempt failed, retrying", "attempt", attempts, "wait", wait, "error", err)
	}

	err := backoff.RetryNotify(op, q.newBackOff(ctx), notify)
	if err != nil && ctx.Err() != nil {
		// Interrupted, not given up: leave it pending for the next drain.
		job.Attempts += attempts
		job.LastError = err.Error()
		job.UpdatedAt = time.Now()
		if _, putErr := q.store.PutIfCurrent(context.WithoutCancel(ctx), job); putErr != nil {
			log.Error("failed to persist interrupted job", "error", putErr)
		}
		return
	}
	q.finish(ctx, job, attempts, err)
}

func (q *Queue) finish(ctx context.Context, job Job, attempts int, err error) {
	job.Attempts += attempts
	job.UpdatedAt = time.Now()
	if err != nil {
		job.State = StateFailed
		job.LastError = err.Error()
		q.metrics.failed.WithLabelValues(job.Kind).Inc()
		q.logger.Error("job gave up", "kind", job.Kind, "key", job.Key, "attempts", job.Attempts, "error", err)
	} else {
		job.State = StateDone
		job.LastError = ""
		q.metrics.succeeded.WithLabelValues(job.Kind).Inc()
		q.logger.Debug("job done", "kind", job.Kind, "key", job.Key, "attempts", job.Attempts)
	}

	written, putErr := q.store.PutIfCurrent(context.WithoutCancel(ctx), job)
	if putErr != nil {
		q.logger.Error("failed to persist job result", "key", job.Key, "error", putErr)
		return
	}
	if !written {
		q.logger.Debug("job superseded", "kind", job.Kind, "key", job.Key)
	}
}
