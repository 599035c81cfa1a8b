package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one dispatch request: drive the pipeline for a job record.
type Job struct {
	JobID       uuid.UUID
	SubmittedAt time.Time
	TraceID     string
}

// Queue is the fire-and-forget boundary between upload handling and the
// orchestrator. Enqueue never blocks the caller on pipeline work.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
