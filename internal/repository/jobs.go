package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tolu-adebayo/finsight/constants"
	"github.com/tolu-adebayo/finsight/internal/entity"
)

// JobPatch is the set of job fields one state transition may change.
// Nil pointer fields are left untouched.
type JobPatch struct {
	Classification       *entity.Classification
	TrimmedKey           *string
	JSONKey              *string
	Trim                 *entity.TrimInfo
	TrimReviewedAt       *time.Time
	Provider             *entity.ProviderRefs
	AppendError          *entity.JobError
	RequiresManualFields []string
	ClearManualFields    bool
	CompletedAt          *time.Time
}

// Apply mutates j in place. The job's state is taken from the audit entry
// in UpdateState, not from the patch.
func (p JobPatch) Apply(j *entity.Job) {
	if p.Classification != nil {
		j.Classification = p.Classification
	}
	if p.TrimmedKey != nil {
		j.Storage.TrimmedKey = *p.TrimmedKey
	}
	if p.JSONKey != nil {
		j.Storage.JSONKey = *p.JSONKey
	}
	if p.Trim != nil {
		j.Trim = *p.Trim
	}
	if p.TrimReviewedAt != nil {
		j.Trim.ReviewedAt = p.TrimReviewedAt
	}
	if p.Provider != nil {
		j.Provider = *p.Provider
	}
	if p.AppendError != nil {
		j.Errors = append(j.Errors, *p.AppendError)
	}
	if p.RequiresManualFields != nil {
		j.RequiresManualFields = p.RequiresManualFields
	}
	if p.ClearManualFields {
		j.RequiresManualFields = nil
	}
	if p.CompletedAt != nil {
		j.CompletedAt = p.CompletedAt
	}
}

// JobStore is the durable record keyed by document identity. All state
// mutation goes through UpdateState: one atomic "apply patch + set state +
// append exactly one audit entry" operation with per-job compare-and-set
// semantics.
type JobStore interface {
	Create(ctx context.Context, job *entity.Job) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	// FindByIdentity returns (nil, nil) when no job matches.
	FindByIdentity(ctx context.Context, userID, fileID string) (*entity.Job, error)
	// FindByHash returns (nil, nil) when no job matches. userID plus
	// contentHash identify a processing attempt; used for duplicate-upload
	// detection and idempotent re-processing.
	FindByHash(ctx context.Context, userID, contentHash string) (*entity.Job, error)
	UpdateState(ctx context.Context, id uuid.UUID, patch JobPatch, audit entity.AuditEntry) (*entity.Job, error)
	ListByState(ctx context.Context, state constants.JobState) ([]*entity.Job, error)
	ListByUserState(ctx context.Context, userID string, state constants.JobState) ([]*entity.Job, error)
}
