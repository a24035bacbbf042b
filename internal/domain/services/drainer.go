package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"urlsentry/internal/domain/models"
	"urlsentry/internal/infrastructure/cache"
	"urlsentry/pkg/logger"
)

// drainLockTTL bounds how long a crashed drain pass can block the next one
const drainLockTTL = 2 * time.Minute

// feedbackQueue is the slice of the Redis cache the drainer consumes
type feedbackQueue interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
	QueueDepth(ctx context.Context) (int64, error)
	PeekFeedback(ctx context.Context, index int64) (string, error)
	ConfirmFeedback(ctx context.Context) error
	RequeueFeedback(ctx context.Context, raw string) error
}

// feedbackStore applies the durable effects of one queue entry
// atomically. claimed is false when the entry was already processed.
type feedbackStore interface {
	DrainFeedbackEntry(ctx context.Context, entry *models.FeedbackQueueEntry, modelName string) (claimed bool, err error)
}

// Drainer moves feedback from the Redis learning queue into durable
// storage and model counters. One drainer pass reads entries
// non-destructively, settles each in a single storage transaction, and
// only then confirms consumption, so a crash mid-batch loses no
// feedback. Entries whose transaction fails are moved back to the head
// of the queue, still unclaimed, and retried on a later pass. Runs both
// on a ticker and on demand; a Redis lock keeps the two from
// interleaving.
type Drainer struct {
	store     feedbackStore
	queue     feedbackQueue
	modelName string
	interval  time.Duration
	batchSize int
	logger    *logger.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewDrainer creates a feedback queue drainer. modelName is the model
// whose feedback counters absorb drained entries.
func NewDrainer(store feedbackStore, queue feedbackQueue, modelName string, interval time.Duration, batchSize int, log *logger.Logger) *Drainer {
	return &Drainer{
		store:     store,
		queue:     queue,
		modelName: modelName,
		interval:  interval,
		batchSize: batchSize,
		logger:    log.WithComponent("feedback-drainer"),
		stopCh:    make(chan struct{}),
	}
}

// Start runs the periodic drain loop until the context is cancelled or
// Stop is called
func (d *Drainer) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.mu.Unlock()

	d.logger.Info().Dur("interval", d.interval).Int("batch_size", d.batchSize).Msg("feedback drainer started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.Stop()
			return ctx.Err()
		case <-d.stopCh:
			return nil
		case <-ticker.C:
			if _, err := d.Drain(ctx); err != nil {
				d.logger.Error().Err(err).Msg("periodic drain failed")
			}
		}
	}
}

// Stop stops the periodic loop
func (d *Drainer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	d.running = false
	close(d.stopCh)
	d.logger.Info().Msg("feedback drainer stopped")
}

// Drain performs one pass over the learning queue. Entries that fail to
// settle are reported individually and never abort the batch; entries
// already marked processed in storage are skipped. Consumed entries are
// removed from Redis only after their durable state is committed;
// failed ones go back to the head of the queue for the next pass. The
// pass is bounded by the queue depth at entry, so a requeued failure is
// not retried within the same pass.
func (d *Drainer) Drain(ctx context.Context) (*models.DrainResult, error) {
	locked, err := d.queue.AcquireLock(ctx, cache.LockDrain, drainLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire drain lock: %w", err)
	}
	if !locked {
		d.logger.Debug().Msg("drain already in progress, skipping")
		return &models.DrainResult{DrainedAt: time.Now()}, nil
	}
	defer func() {
		if err := d.queue.ReleaseLock(ctx, cache.LockDrain); err != nil {
			d.logger.Warn().Err(err).Msg("failed to release drain lock")
		}
	}()

	result := &models.DrainResult{DrainedAt: time.Now()}

	depth, err := d.queue.QueueDepth(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to read queue depth: %w", err)
	}
	if depth > int64(d.batchSize) {
		depth = int64(d.batchSize)
	}

	for i := int64(0); i < depth; i++ {
		raw, err := d.queue.PeekFeedback(ctx, 0)
		if err == redis.Nil {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read learning queue: %w", err)
		}

		var entry models.FeedbackQueueEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			d.logger.Error().Err(err).Msg("dropping undecodable queue entry")
			result.Failed = append(result.Failed, raw)
			d.confirm(ctx)
			continue
		}

		claimed, err := d.store.DrainFeedbackEntry(ctx, &entry, d.modelName)
		switch {
		case err != nil:
			d.logger.Warn().Err(fmt.Errorf("%w: %v", models.ErrQueueItemFailure, err)).
				Str("url", entry.URL).Msg("queue entry failed, requeued for retry")
			result.Failed = append(result.Failed, entry.URL)
			d.requeue(ctx, raw)
		case !claimed:
			result.Skipped++
			d.confirm(ctx)
		default:
			result.Processed = append(result.Processed, entry.URL)
			d.confirm(ctx)
		}
	}

	if len(result.Processed) > 0 || len(result.Failed) > 0 || result.Skipped > 0 {
		d.logger.Info().
			Int("processed", len(result.Processed)).
			Int("failed", len(result.Failed)).
			Int("skipped", result.Skipped).
			Msg("drain pass complete")
	}

	return result, nil
}

func (d *Drainer) confirm(ctx context.Context) {
	if err := d.queue.ConfirmFeedback(ctx); err != nil && err != redis.Nil {
		d.logger.Warn().Err(err).Msg("failed to confirm queue consumption")
	}
}

func (d *Drainer) requeue(ctx context.Context, raw string) {
	if err := d.queue.RequeueFeedback(ctx, raw); err != nil {
		d.logger.Warn().Err(err).Msg("failed to requeue entry")
	}
}
