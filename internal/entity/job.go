package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/tolu-adebayo/finsight/constants"
)

// Classification is the document class assigned once, before dispatch.
type Classification struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	SchemaID   string  `json:"schema_id"`
}

// StorageInfo holds the object-store keys and the content fingerprint for
// one uploaded document.
type StorageInfo struct {
	PDFKey      string `json:"pdf_key"`
	TrimmedKey  string `json:"trimmed_key,omitempty"` // set only if trim produced a reduced PDF
	JSONKey     string `json:"json_key,omitempty"`    // set on completion (or provisionally, pending manual entry)
	Size        int64  `json:"size"`
	ContentHash string `json:"content_hash"` // hex sha256 of the uploaded bytes
}

// ProviderRefs are the identifiers returned by the extraction provider.
// They are persisted as soon as submit succeeds so a crash mid-poll can
// resume the same run.
type ProviderRefs struct {
	RunID             string `json:"run_id,omitempty"`
	DocumentID        string `json:"document_id,omitempty"`
	ParseJobID        string `json:"parse_job_id,omitempty"`
	StdJobID          string `json:"std_job_id,omitempty"`
	StandardizationID string `json:"standardization_id,omitempty"`
	SchemaID          string `json:"schema_id,omitempty"`
}

// TrimInfo records the outcome of the page-trimming pre-processing step.
type TrimInfo struct {
	OriginalPageCount int        `json:"original_page_count"`
	KeptPages         []int      `json:"kept_pages,omitempty"`
	Required          bool       `json:"required"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
}

// JobError is one append-only error entry.
type JobError struct {
	Message string    `json:"message"`
	Code    string    `json:"code"`
	At      time.Time `json:"at"`
}

// AuditEntry is one append-only state-transition entry. Every transition
// appends exactly one; the audit log is the job's durable execution trace.
type AuditEntry struct {
	State constants.JobState `json:"state"`
	At    time.Time          `json:"at"`
	Note  string             `json:"note,omitempty"`
}

// Job is the durable record tracking one document's pipeline attempt.
// Mutated exclusively by the orchestrator through the job store's
// UpdateState; never deleted by this subsystem.
type Job struct {
	ID           uuid.UUID `json:"id"`
	FileID       string    `json:"file_id"` // stable, derived from the storage key
	UserID       string    `json:"user_id"`
	SessionID    string    `json:"session_id,omitempty"`
	CollectionID string    `json:"collection_id,omitempty"`
	Filename     string    `json:"filename"`

	Classification *Classification `json:"classification,omitempty"`
	Storage        StorageInfo     `json:"storage"`
	Provider       ProviderRefs    `json:"provider"`
	Trim           TrimInfo        `json:"trim"`

	State                constants.JobState `json:"state"`
	Errors               []JobError         `json:"errors,omitempty"`
	Audit                []AuditEntry       `json:"audit"`
	RequiresManualFields []string           `json:"requires_manual_fields,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"` // set exactly once, on completion
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// LastError returns the most recent error entry, or nil.
func (j *Job) LastError() *JobError {
	if len(j.Errors) == 0 {
		return nil
	}
	return &j.Errors[len(j.Errors)-1]
}

// LastAudit returns the most recent audit entry, or nil.
func (j *Job) LastAudit() *AuditEntry {
	if len(j.Audit) == 0 {
		return nil
	}
	return &j.Audit[len(j.Audit)-1]
}
