// Package worker consumes enrichment tasks one at a time and drives each
// through parse, fetch, analyze and commit. Every task ends in exactly one of
// the outcomes below; the consume loop maps outcomes to ack or nack-requeue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/queue"
)

// ErrDeliveriesClosed is returned when the broker closes the delivery
// channel underneath a running worker.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

type Outcome int

const (
	// OutcomeEnriched is the success path: enrichment committed, task acked.
	OutcomeEnriched Outcome = iota
	// OutcomeSkippedMalformed acks a poison message so it can't block the
	// queue.
	OutcomeSkippedMalformed
	// OutcomeSkippedNotFound acks a task whose record no longer exists; a
	// stale or duplicate publish is safe to drop.
	OutcomeSkippedNotFound
	// OutcomeSkippedAlreadyEnriched acks a duplicate task without touching
	// the oracle. This guard is the line of defense against double
	// processing, since the store's enrichment write itself is an
	// unconditional overwrite.
	OutcomeSkippedAlreadyEnriched
	// OutcomeRequeue nacks the task back to the broker for redelivery.
	OutcomeRequeue
	// OutcomeDeadLettered acks the task after moving it to the failed queue
	// because its redelivery budget is exhausted.
	OutcomeDeadLettered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEnriched:
		return "enriched"
	case OutcomeSkippedMalformed:
		return "skipped_malformed"
	case OutcomeSkippedNotFound:
		return "skipped_not_found"
	case OutcomeSkippedAlreadyEnriched:
		return "skipped_already_enriched"
	case OutcomeRequeue:
		return "requeue"
	case OutcomeDeadLettered:
		return "dead_lettered"
	default:
		return "unknown"
	}
}

// Ack reports whether the task should be removed from the queue. Success and
// all skip variants are terminal from the broker's point of view.
func (o Outcome) Ack() bool {
	return o != OutcomeRequeue
}

type Worker struct {
	store           PostStore
	analyzer        Analyzer
	deadLetter      DeadLetterer
	maxRedeliveries int
	attempts        map[int64]int
	logger          *slog.Logger
}

func New(store PostStore, analyzer Analyzer, deadLetter DeadLetterer, maxRedeliveries int, logger *slog.Logger) *Worker {
	return &Worker{
		store:           store,
		analyzer:        analyzer,
		deadLetter:      deadLetter,
		maxRedeliveries: maxRedeliveries,
		attempts:        make(map[int64]int),
		logger:          logger.With("component", "worker"),
	}
}

// Run pulls deliveries until the context is cancelled or the channel closes.
// Tasks are handled strictly sequentially; with prefetch=1 the broker holds
// back the next task until this one is acked or nacked. A task that is
// already in Handle runs to completion even during shutdown, so nothing is
// ever left half-acknowledged.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}

			start := time.Now()
			outcome := w.Handle(ctx, d.Body)
			observeTask(outcome, time.Since(start))

			if outcome.Ack() {
				if err := d.Ack(false); err != nil {
					w.logger.Error("ack failed", "error", err)
				}
			} else {
				if err := d.Nack(false, true); err != nil {
					w.logger.Error("nack failed", "error", err)
				}
			}
		}
	}
}

// Handle runs one task through the state machine and returns its outcome.
func (w *Worker) Handle(ctx context.Context, body []byte) Outcome {
	var task queue.Task
	if err := json.Unmarshal(body, &task); err != nil || task.JobID == nil {
		w.logger.Warn("malformed task payload, dropping", "body", string(body))
		return OutcomeSkippedMalformed
	}
	jobID := *task.JobID

	logger := w.logger.With("job_id", jobID)

	post, err := w.store.GetByID(ctx, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Info("post not found, dropping task")
		delete(w.attempts, jobID)
		return OutcomeSkippedNotFound
	}
	if err != nil {
		logger.Error("fetch post failed", "error", err)
		return w.requeueOrDeadLetter(ctx, jobID, body, logger)
	}

	if post.Enriched() {
		logger.Info("post already enriched, skipping")
		delete(w.attempts, jobID)
		return OutcomeSkippedAlreadyEnriched
	}

	var postBody string
	if post.Body != nil {
		postBody = *post.Body
	}

	oracleStart := time.Now()
	enrichment, err := w.analyzer.Analyze(ctx, post.Title, postBody)
	if err != nil {
		observeOracleFailure(time.Since(oracleStart))
		logger.Error("analyze failed", "error", err)
		return w.requeueOrDeadLetter(ctx, jobID, body, logger)
	}
	observeOracleSuccess(time.Since(oracleStart))

	err = w.store.ApplyEnrichment(ctx, jobID, enrichment)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Info("post vanished before commit, dropping task")
		delete(w.attempts, jobID)
		return OutcomeSkippedNotFound
	}
	if err != nil {
		logger.Error("apply enrichment failed", "error", err)
		return w.requeueOrDeadLetter(ctx, jobID, body, logger)
	}

	delete(w.attempts, jobID)
	logger.Info("post enriched",
		"cleaned_title", enrichment.CleanedTitle,
		"tags", enrichment.Tags,
	)
	return OutcomeEnriched
}

// requeueOrDeadLetter nacks for redelivery until the in-process attempt count
// for this job reaches the budget, then parks the task on the failed queue so
// a permanently failing record can't loop forever.
func (w *Worker) requeueOrDeadLetter(ctx context.Context, jobID int64, body []byte, logger *slog.Logger) Outcome {
	w.attempts[jobID]++
	if w.maxRedeliveries <= 0 || w.attempts[jobID] < w.maxRedeliveries || w.deadLetter == nil {
		return OutcomeRequeue
	}

	if err := w.deadLetter.PublishFailed(ctx, body); err != nil {
		logger.Error("dead-letter publish failed, requeueing instead", "error", err)
		return OutcomeRequeue
	}

	logger.Warn("redelivery budget exhausted, task dead-lettered",
		"attempts", w.attempts[jobID],
	)
	delete(w.attempts, jobID)
	return OutcomeDeadLettered
}
