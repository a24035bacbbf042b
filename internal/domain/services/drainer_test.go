package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"urlsentry/internal/domain/models"
	"urlsentry/pkg/logger"
)

// fakeFeedbackQueue is an in-memory Redis list: index 0 is the head,
// the last element is the tail the drainer peeks at.
type fakeFeedbackQueue struct {
	entries []string
	held    bool
}

func (q *fakeFeedbackQueue) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	if q.held {
		return false, nil
	}
	q.held = true
	return true, nil
}

func (q *fakeFeedbackQueue) ReleaseLock(ctx context.Context, lockKey string) error {
	q.held = false
	return nil
}

func (q *fakeFeedbackQueue) QueueDepth(ctx context.Context) (int64, error) {
	return int64(len(q.entries)), nil
}

func (q *fakeFeedbackQueue) PeekFeedback(ctx context.Context, index int64) (string, error) {
	if len(q.entries) == 0 {
		return "", redis.Nil
	}
	return q.entries[len(q.entries)-1], nil
}

func (q *fakeFeedbackQueue) ConfirmFeedback(ctx context.Context) error {
	if len(q.entries) == 0 {
		return redis.Nil
	}
	q.entries = q.entries[:len(q.entries)-1]
	return nil
}

func (q *fakeFeedbackQueue) RequeueFeedback(ctx context.Context, raw string) error {
	q.entries = append([]string{raw}, q.entries...)
	q.entries = q.entries[:len(q.entries)-1]
	return nil
}

func (q *fakeFeedbackQueue) push(raw string) {
	q.entries = append([]string{raw}, q.entries...)
}

// fakeFeedbackStore claims entries by id and fails on demand, mirroring
// the transactional semantics: a failed entry is left unclaimed.
type fakeFeedbackStore struct {
	claimed map[uuid.UUID]bool
	reports []string
	failing map[string]bool
}

func newFakeFeedbackStore() *fakeFeedbackStore {
	return &fakeFeedbackStore{
		claimed: make(map[uuid.UUID]bool),
		failing: make(map[string]bool),
	}
}

func (s *fakeFeedbackStore) DrainFeedbackEntry(ctx context.Context, entry *models.FeedbackQueueEntry, modelName string) (bool, error) {
	if s.failing[entry.URL] {
		return false, errors.New("storage write failed")
	}
	if s.claimed[entry.ID] {
		return false, nil
	}
	s.claimed[entry.ID] = true
	s.reports = append(s.reports, entry.URL)
	return true, nil
}

func queuedEntry(t *testing.T, url string) (string, *models.FeedbackQueueEntry) {
	t.Helper()

	entry := &models.FeedbackQueueEntry{
		ID:           uuid.New(),
		URL:          url,
		FeedbackType: models.ReportConfirmPhishing,
		Source:       "browser_extension",
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("failed to marshal entry: %v", err)
	}
	return string(raw), entry
}

func newTestDrainer(store feedbackStore, queue feedbackQueue) *Drainer {
	return NewDrainer(store, queue, "url_classifier_standard", time.Minute, 50, logger.NewDefault())
}

func TestDrainBatchPartialFailure(t *testing.T) {
	queue := &fakeFeedbackQueue{}
	store := newFakeFeedbackStore()

	rawA, _ := queuedEntry(t, "http://a.example")
	rawB, entryB := queuedEntry(t, "http://b.example")
	rawC, _ := queuedEntry(t, "http://c.example")
	queue.push(rawA)
	queue.push(rawB)
	queue.push(rawC)

	store.failing["http://b.example"] = true

	d := newTestDrainer(store, queue)
	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	if len(result.Processed) != 2 || result.Processed[0] != "http://a.example" || result.Processed[1] != "http://c.example" {
		t.Errorf("processed = %v, want the two healthy entries", result.Processed)
	}
	if len(result.Failed) != 1 || result.Failed[0] != "http://b.example" {
		t.Errorf("failed = %v, want the failing entry only", result.Failed)
	}

	// The failed entry stays queued and unclaimed for the next pass
	if len(queue.entries) != 1 || queue.entries[0] != rawB {
		t.Errorf("queue = %v, want only the failed entry", queue.entries)
	}
	if store.claimed[entryB.ID] {
		t.Error("failed entry must not be claimed")
	}

	// Next pass, with storage healthy again, drains it
	store.failing = map[string]bool{}
	result, err = d.Drain(context.Background())
	if err != nil {
		t.Fatalf("second drain failed: %v", err)
	}
	if len(result.Processed) != 1 || result.Processed[0] != "http://b.example" {
		t.Errorf("retry processed = %v, want the previously failed entry", result.Processed)
	}
	if len(queue.entries) != 0 {
		t.Errorf("queue not empty after retry: %v", queue.entries)
	}
}

func TestDrainSecondRunOverProcessedEntries(t *testing.T) {
	queue := &fakeFeedbackQueue{}
	store := newFakeFeedbackStore()

	raw, _ := queuedEntry(t, "http://dup.example")
	queue.push(raw)

	d := newTestDrainer(store, queue)
	if _, err := d.Drain(context.Background()); err != nil {
		t.Fatalf("first drain failed: %v", err)
	}
	if len(store.reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(store.reports))
	}

	// A crash between settle and confirm can leave a duplicate copy
	queue.push(raw)
	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("second drain failed: %v", err)
	}

	if result.Skipped != 1 || len(result.Processed) != 0 {
		t.Errorf("duplicate should be skipped, got %+v", result)
	}
	if len(store.reports) != 1 {
		t.Errorf("reports = %d after replay, want still 1", len(store.reports))
	}
	if len(queue.entries) != 0 {
		t.Error("skipped duplicate must still be confirmed off the queue")
	}
}

func TestDrainUndecodableEntry(t *testing.T) {
	queue := &fakeFeedbackQueue{}
	store := newFakeFeedbackStore()
	queue.push(`{"id": not json`)

	d := newTestDrainer(store, queue)
	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	if len(result.Failed) != 1 {
		t.Errorf("failed = %v, want the poison entry", result.Failed)
	}
	if len(queue.entries) != 0 {
		t.Error("poison entry must be removed, not requeued")
	}
	if len(store.reports) != 0 {
		t.Error("poison entry must not reach storage")
	}
}

func TestDrainRespectsBatchSize(t *testing.T) {
	queue := &fakeFeedbackQueue{}
	store := newFakeFeedbackStore()
	for i := 0; i < 5; i++ {
		raw, _ := queuedEntry(t, "http://many.example")
		queue.push(raw)
	}

	d := NewDrainer(store, queue, "url_classifier_standard", time.Minute, 3, logger.NewDefault())
	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	if len(result.Processed) != 3 {
		t.Errorf("processed = %d, want batch size 3", len(result.Processed))
	}
	if len(queue.entries) != 2 {
		t.Errorf("queue = %d entries, want 2 left for the next pass", len(queue.entries))
	}
}

func TestDrainLockContention(t *testing.T) {
	queue := &fakeFeedbackQueue{held: true}
	store := newFakeFeedbackStore()
	raw, _ := queuedEntry(t, "http://locked.example")
	queue.push(raw)

	d := newTestDrainer(store, queue)
	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	if len(result.Processed) != 0 || len(result.Failed) != 0 {
		t.Errorf("locked drain must be a no-op, got %+v", result)
	}
	if len(queue.entries) != 1 {
		t.Error("locked drain must not consume the queue")
	}
}
