package async

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProcessor struct {
	mu   sync.Mutex
	seen []uuid.UUID
	err  error
}

func (p *countingProcessor) Process(_ context.Context, jobID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, jobID)
	return p.err
}

func (p *countingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueueProcessesAllJobs(t *testing.T) {
	proc := &countingProcessor{}
	q := NewDispatchQueue(proc, testLogger(), WithWorkers(3), WithQueueSize(16))

	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{JobID: uuid.New(), SubmittedAt: time.Now()}))
	}
	q.Shutdown(context.Background())

	assert.Equal(t, n, proc.count())
}

func TestQueueDrainsOnShutdown(t *testing.T) {
	proc := &countingProcessor{}
	q := NewDispatchQueue(proc, testLogger(), WithWorkers(1), WithQueueSize(8))

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{JobID: uuid.New()}))
	}
	q.Shutdown(context.Background())
	assert.Equal(t, 5, proc.count(), "shutdown waits for queued work")

	// enqueue after shutdown is a logged no-op, not a panic
	require.NoError(t, q.Enqueue(context.Background(), Job{JobID: uuid.New()}))
	assert.Equal(t, 5, proc.count())
}

func TestQueueTolerantOfProcessorErrors(t *testing.T) {
	proc := &countingProcessor{err: context.DeadlineExceeded}
	q := NewDispatchQueue(proc, testLogger(), WithWorkers(2))

	for i := 0; i < 4; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{JobID: uuid.New()}))
	}
	q.Shutdown(context.Background())
	assert.Equal(t, 4, proc.count(), "a failing job never stops the workers")
}

func TestQueueShutdownIdempotent(t *testing.T) {
	q := NewDispatchQueue(&countingProcessor{}, testLogger(), WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
}
