package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// BatchLogger buffers audit events in memory and ships them to the stream in
// batches, so request handling does not pay per-event broker latency. The
// only automatic flush trigger is the buffer reaching batchSize; Drain
// flushes whatever is left at shutdown.
//
// Calling Log after Drain is a caller-contract violation and is not guarded.
type BatchLogger struct {
	mu        sync.Mutex
	pending   []AuditEvent
	batchSize int
	publisher StreamPublisher
}

// NewBatchLogger declares the target stream best-effort: a declare failure is
// logged and swallowed so startup proceeds, and later flushes either succeed
// against a queue declared by another instance or fail individually.
func NewBatchLogger(publisher StreamPublisher, batchSize int) *BatchLogger {
	if batchSize < 1 {
		batchSize = 1
	}
	if err := publisher.EnsureStream(); err != nil {
		slog.Error("audit stream setup failed, continuing anyway", "error", err)
	}
	return &BatchLogger{
		batchSize: batchSize,
		publisher: publisher,
	}
}

// Log appends the event to the buffer and, when the buffer reaches the batch
// size, flushes synchronously before returning. The flush runs under the same
// lock as the append, so concurrent Log calls never ship an event twice or
// lose one to a racing flush; the caller that trips the threshold absorbs the
// shipping latency.
func (b *BatchLogger) Log(ctx context.Context, ev AuditEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, ev)
	if len(b.pending) >= b.batchSize {
		return b.flushLocked(ctx)
	}
	return nil
}

// Drain flushes any remaining events regardless of count and releases the
// publisher. Invoke exactly once at process shutdown.
func (b *BatchLogger) Drain(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	flushErr := b.flushLocked(ctx)
	if closeErr := b.publisher.Close(); closeErr != nil && flushErr == nil {
		return closeErr
	}
	return flushErr
}

// flushLocked swaps the buffer for an empty one, publishes the swapped-out
// events in order, then waits for full delivery. Publish failures are not
// retried here; the transport's confirm step surfaces them to the caller.
// Caller must hold b.mu.
func (b *BatchLogger) flushLocked(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}
	batch := b.pending
	b.pending = nil

	for _, ev := range batch {
		body, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal audit event %s: %w", ev.ID, err)
		}
		if err := b.publisher.Publish(ctx, body); err != nil {
			return err
		}
	}
	return b.publisher.AwaitDelivery(ctx)
}
