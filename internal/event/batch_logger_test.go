package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type fakePublisher struct {
	mu            sync.Mutex
	published     [][]byte
	ensureErr     error
	publishErr    error
	ensureCalls   int
	deliveryCalls int
	closed        bool
}

func (f *fakePublisher) EnsureStream() error {
	f.ensureCalls++
	return f.ensureErr
}

func (f *fakePublisher) Publish(_ context.Context, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, body)
	return nil
}

func (f *fakePublisher) AwaitDelivery(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveryCalls++
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func (f *fakePublisher) publishedEvents(t *testing.T) []AuditEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]AuditEvent, 0, len(f.published))
	for _, body := range f.published {
		var ev AuditEvent
		require.NoError(t, json.Unmarshal(body, &ev))
		events = append(events, ev)
	}
	return events
}

func testEvent(detail string) AuditEvent {
	return NewAuditEvent(ActionAddTariff, StatusSuccess, detail, "10.0.0.1")
}

// ============================================================================
// TESTS
// ============================================================================

func TestBatchLogger_NoFlushBelowThreshold(t *testing.T) {
	publisher := &fakePublisher{}
	logger := NewBatchLogger(publisher, 3)

	require.NoError(t, logger.Log(context.Background(), testEvent("one")))
	require.NoError(t, logger.Log(context.Background(), testEvent("two")))

	assert.Empty(t, publisher.published)
	assert.Equal(t, 0, publisher.deliveryCalls)
}

func TestBatchLogger_FlushAtThresholdInOrder(t *testing.T) {
	publisher := &fakePublisher{}
	logger := NewBatchLogger(publisher, 3)

	require.NoError(t, logger.Log(context.Background(), testEvent("one")))
	require.NoError(t, logger.Log(context.Background(), testEvent("two")))
	require.NoError(t, logger.Log(context.Background(), testEvent("three")))

	events := publisher.publishedEvents(t)
	require.Len(t, events, 3)
	assert.Equal(t, "one", events[0].Detail)
	assert.Equal(t, "two", events[1].Detail)
	assert.Equal(t, "three", events[2].Detail)
	assert.Equal(t, 1, publisher.deliveryCalls, "one forced-delivery wait per flush")

	// The buffer is empty after the flush: the next event starts a new batch.
	require.NoError(t, logger.Log(context.Background(), testEvent("four")))
	assert.Len(t, publisher.published, 3)
}

func TestBatchLogger_DrainShipsRemainder(t *testing.T) {
	publisher := &fakePublisher{}
	logger := NewBatchLogger(publisher, 3)

	require.NoError(t, logger.Log(context.Background(), testEvent("only")))
	require.NoError(t, logger.Drain(context.Background()))

	events := publisher.publishedEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, "only", events[0].Detail)
	assert.True(t, publisher.closed)
}

func TestBatchLogger_DrainEmptyBufferIsNoOp(t *testing.T) {
	publisher := &fakePublisher{}
	logger := NewBatchLogger(publisher, 3)

	require.NoError(t, logger.Drain(context.Background()))

	assert.Empty(t, publisher.published)
	assert.Equal(t, 0, publisher.deliveryCalls)
	assert.True(t, publisher.closed)
}

func TestBatchLogger_EnsureStreamFailureIsSwallowed(t *testing.T) {
	publisher := &fakePublisher{ensureErr: errors.New("broker down")}

	logger := NewBatchLogger(publisher, 3)

	require.NotNil(t, logger, "declare failure must not abort startup")
	assert.Equal(t, 1, publisher.ensureCalls)
	require.NoError(t, logger.Log(context.Background(), testEvent("still works")))
}

func TestBatchLogger_PublishFailurePropagatesToFlushCaller(t *testing.T) {
	publisher := &fakePublisher{publishErr: errors.New("publish refused")}
	logger := NewBatchLogger(publisher, 2)

	require.NoError(t, logger.Log(context.Background(), testEvent("one")))
	err := logger.Log(context.Background(), testEvent("two"))

	assert.Error(t, err, "the caller that trips the threshold sees the failure")
}

func TestBatchLogger_ConcurrentLogsLoseNothing(t *testing.T) {
	publisher := &fakePublisher{}
	logger := NewBatchLogger(publisher, 7)

	const goroutines = 20
	const perGoroutine = 25

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				_ = logger.Log(context.Background(), testEvent(fmt.Sprintf("%d-%d", g, i)))
			}
		}(g)
	}
	wg.Wait()
	require.NoError(t, logger.Drain(context.Background()))

	events := publisher.publishedEvents(t)
	require.Len(t, events, goroutines*perGoroutine, "every logged event ships exactly once")

	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		detail, ok := ev.Detail.(string)
		require.True(t, ok)
		assert.False(t, seen[detail], "event %s shipped twice", detail)
		seen[detail] = true
	}
}

func TestBatchLogger_BatchSizeOneFlushesEveryEvent(t *testing.T) {
	publisher := &fakePublisher{}
	logger := NewBatchLogger(publisher, 1)

	require.NoError(t, logger.Log(context.Background(), testEvent("a")))
	require.NoError(t, logger.Log(context.Background(), testEvent("b")))

	assert.Len(t, publisher.published, 2)
	assert.Equal(t, 2, publisher.deliveryCalls)
}
