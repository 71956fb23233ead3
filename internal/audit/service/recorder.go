// Package service holds the two halves of the login audit: the Recorder,
// which appends attempt records best-effort off the login path, and the
// Query, which serves filtered history pages with unfiltered stats.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"splitledger/internal/audit/models"
	"splitledger/internal/audit/store/attempt"
	"splitledger/internal/platform/kafka/producer"
	"splitledger/internal/platform/metrics"
)

const defaultWriteTimeout = 2 * time.Second

// Recorder appends login-attempt records. Recording is fire-and-forget
// relative to the login decision: writes happen on their own goroutine under
// a bounded timeout, and a failed or slow write degrades to "attempt not
// logged", never to "login denied".
type Recorder struct {
	store    attempt.Store
	producer *producer.Producer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	timeout  time.Duration
	clock    func() time.Time

	wg sync.WaitGroup
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithWriteTimeout bounds how long one append may take.
func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithProducer mirrors every record to the security-event topic.
func WithProducer(p *producer.Producer) RecorderOption {
	return func(r *Recorder) { r.producer = p }
}

// WithMetrics wires the dropped-write counter.
func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) { r.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) RecorderOption {
	return func(r *Recorder) { r.clock = clock }
}

func NewRecorder(store attempt.Store, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:   store,
		logger:  logger,
		timeout: defaultWriteTimeout,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists one attempt off the caller's path. It never returns an
// error and never blocks beyond spawning the write.
func (r *Recorder) Record(rec models.LoginAttempt) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = r.clock().UTC()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.store.Append(ctx, &rec); err != nil {
			if r.metrics != nil {
				r.metrics.AuditWritesDropped.Inc()
			}
			r.logger.Warn("login attempt not recorded",
				"user_id", rec.UserID.String(),
				"error", err,
			)
			return
		}

		if r.producer != nil {
			if payload, err := json.Marshal(rec); err == nil {
				r.producer.Publish(ctx, rec.UserID.String(), payload)
			}
		}
	}()
}

// Wait blocks until all in-flight writes finish. Called on shutdown and in
// tests; normal request handling never waits.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
