// Package batch runs submitted link batches through the analyzer one record at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"social-insight/internal/analyzer"
	"social-insight/internal/records"
	"social-insight/internal/shared/metrics"
	"social-insight/internal/shared/telemetry"
)

// ErrNoURLs is returned when a submit carries nothing to analyze.
var ErrNoURLs = errors.New("no valid urls to analyze")

// Analyzer is the per-URL analysis step.
type Analyzer interface {
	Analyze(ctx context.Context, url string) (analyzer.Fields, error)
}

// Progress is the counter shown while batches are processed.
type Progress struct {
	Processing    bool `json:"processing"`
	Completed     int  `json:"completed"`
	Total         int  `json:"total"`
	QueuedBatches int  `json:"queuedBatches"`
}

type job struct {
	batchID   string
	requestID string
	ids       []string
	urls      []string
}

// Orchestrator owns the single runner. Submits are queued FIFO; the runner processes one record
// at a time across all batches, so at most one analyzer call is ever in flight.
type Orchestrator struct {
	analyzer Analyzer
	store    *records.Store
	newID    func() string
	now      func() time.Time

	mu         sync.Mutex
	queue      []job
	processing bool
	completed  int
	total      int
	waiters    []chan struct{}
	wake       chan struct{}
}

// New constructs an Orchestrator writing into store.
func New(a Analyzer, store *records.Store) *Orchestrator {
	return &Orchestrator{
		analyzer: a,
		store:    store,
		newID:    func() string { return uuid.NewString() },
		now:      func() time.Time { return time.Now().UTC() },
		wake:     make(chan struct{}, 1),
	}
}

// Submit materializes one pending placeholder per URL, prepends them to the store in a single
// update and queues the batch for the runner. It returns before any analysis starts.
func (o *Orchestrator) Submit(ctx context.Context, urls []string) (string, []records.Record, error) {
	if len(urls) == 0 {
		return "", nil, ErrNoURLs
	}
	batchID := o.newID()
	now := o.now()
	placeholders := make([]records.Record, 0, len(urls))
	ids := make([]string, 0, len(urls))
	for _, u := range urls {
		rec := records.NewPlaceholder(o.newID(), batchID, u, now)
		placeholders = append(placeholders, rec)
		ids = append(ids, rec.ID)
	}

	o.mu.Lock()
	if err := o.store.Prepend(placeholders); err != nil {
		o.mu.Unlock()
		return "", nil, fmt.Errorf("prepend batch: %w", err)
	}
	if !o.processing {
		o.completed = 0
		o.total = 0
	}
	o.processing = true
	o.total += len(urls)
	o.queue = append(o.queue, job{
		batchID:   batchID,
		requestID: telemetry.RequestIDFromContext(ctx),
		ids:       ids,
		urls:      append([]string(nil), urls...),
	})
	queued := len(o.queue)
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}

	metrics.IncBatchSubmitted()
	telemetry.Info("batch.submitted", map[string]any{
		"request_id":     telemetry.RequestIDFromContext(ctx),
		"batch_id":       batchID,
		"size":           len(urls),
		"queued_batches": queued,
	})
	return batchID, placeholders, nil
}

// Run processes queued batches until ctx is cancelled. Cancellation stops the runner between
// records; records not yet started stay pending.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		next, ok := o.dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-o.wake:
				continue
			}
		}
		if err := o.process(ctx, next); err != nil {
			return nil
		}
	}
}

// Progress returns the current counters.
func (o *Orchestrator) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Progress{
		Processing:    o.processing,
		Completed:     o.completed,
		Total:         o.total,
		QueuedBatches: len(o.queue),
	}
}

// Wait blocks until every submitted batch has been processed or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	if !o.processing {
		o.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	o.waiters = append(o.waiters, ch)
	o.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) dequeue() (job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) == 0 {
		if o.processing {
			o.processing = false
			for _, ch := range o.waiters {
				close(ch)
			}
			o.waiters = nil
		}
		return job{}, false
	}
	next := o.queue[0]
	o.queue = o.queue[1:]
	return next, true
}

func (o *Orchestrator) process(ctx context.Context, j job) error {
	ctx = telemetry.WithRequestID(ctx, j.requestID)
	for i, id := range j.ids {
		if err := ctx.Err(); err != nil {
			telemetry.Warn("batch.interrupted", map[string]any{
				"request_id": j.requestID,
				"batch_id":   j.batchID,
				"remaining":  len(j.ids) - i,
			})
			return err
		}
		o.step(ctx, j.batchID, id, j.urls[i])
	}
	telemetry.Info("batch.finished", map[string]any{
		"request_id": j.requestID,
		"batch_id":   j.batchID,
		"size":       len(j.ids),
	})
	return nil
}

// step drives one record through loading and into completed or error. The progress counter
// advances whatever the outcome.
func (o *Orchestrator) step(ctx context.Context, batchID, id, url string) {
	defer o.advance()

	requestID := telemetry.RequestIDFromContext(ctx)
	if _, err := o.store.MarkLoading(id); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			telemetry.Info("batch.item_skipped", map[string]any{
				"request_id": requestID,
				"batch_id":   batchID,
				"record_id":  id,
				"reason":     "removed",
			})
			return
		}
		telemetry.Error("batch.item_transition_failed", map[string]any{
			"request_id": requestID,
			"batch_id":   batchID,
			"record_id":  id,
			"error":      err,
		})
		return
	}
	metrics.IncAnalysisStarted()
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestID,
		"batch_id":          batchID,
		"record_id":         id,
		"url":               url,
		"status":            records.StatusLoading,
		"status_transition": "pending->loading",
	})

	startedAt := o.now()
	fields, err := o.analyze(ctx, url)
	durationMs := float64(o.now().Sub(startedAt).Microseconds()) / 1000.0
	metrics.ObserveAnalysisDurationMs(durationMs)

	if err != nil {
		metrics.IncAnalysisFailed()
		if _, uerr := o.store.Fail(id, records.FailedMessage); uerr != nil && !errors.Is(uerr, records.ErrNotFound) {
			telemetry.Error("batch.item_transition_failed", map[string]any{
				"request_id": requestID,
				"record_id":  id,
				"error":      uerr,
			})
		}
		telemetry.Info("analysis.status", map[string]any{
			"request_id":        requestID,
			"batch_id":          batchID,
			"record_id":         id,
			"status":            records.StatusError,
			"status_transition": "loading->error",
			"duration_ms":       durationMs,
			"error":             err,
		})
		return
	}

	metrics.IncAnalysisCompleted()
	if _, uerr := o.store.Complete(id, fields); uerr != nil && !errors.Is(uerr, records.ErrNotFound) {
		telemetry.Error("batch.item_transition_failed", map[string]any{
			"request_id": requestID,
			"record_id":  id,
			"error":      uerr,
		})
	}
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestID,
		"batch_id":          batchID,
		"record_id":         id,
		"status":            records.StatusCompleted,
		"status_transition": "loading->completed",
		"duration_ms":       durationMs,
	})
}

func (o *Orchestrator) analyze(ctx context.Context, url string) (fields analyzer.Fields, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if o.analyzer == nil {
		return analyzer.Fields{}, errors.New("analyzer not configured")
	}
	return o.analyzer.Analyze(ctx, url)
}

func (o *Orchestrator) advance() {
	o.mu.Lock()
	o.completed++
	o.mu.Unlock()
}
