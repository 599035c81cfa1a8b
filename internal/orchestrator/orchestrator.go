package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tolu-adebayo/finsight/constants"
	"github.com/tolu-adebayo/finsight/internal/classify"
	"github.com/tolu-adebayo/finsight/internal/common"
	"github.com/tolu-adebayo/finsight/internal/docupipe"
	"github.com/tolu-adebayo/finsight/internal/entity"
	"github.com/tolu-adebayo/finsight/internal/insight"
	"github.com/tolu-adebayo/finsight/internal/inspect"
	"github.com/tolu-adebayo/finsight/internal/objectstore"
	"github.com/tolu-adebayo/finsight/internal/repository"
	"github.com/tolu-adebayo/finsight/internal/trimmer"
)

// ProviderClient is the extraction-provider surface the orchestrator
// depends on. Three idempotent calls; all retry/backoff policy lives here,
// not in the client.
type ProviderClient interface {
	Submit(ctx context.Context, req docupipe.SubmitRequest) (docupipe.SubmitResult, error)
	PollStatus(ctx context.Context, runID string) (docupipe.RunStatus, error)
	FetchResult(ctx context.Context, runID string) (json.RawMessage, error)
}

// Config carries every threshold the pipeline consumes. Nothing here is
// read from the environment inside pipeline logic.
type Config struct {
	Trim common.TrimConfig
	Poll common.PollConfig
}

// Orchestrator owns the per-document job record: it transitions job state,
// runs the trimmer pre-dispatch, drives the provider submit/poll/fetch
// protocol and routes incomplete extractions into the manual-entry path.
// Each job's run is independent; the only shared state is the job store.
type Orchestrator struct {
	cfg      Config
	jobs     repository.JobStore
	objects  objectstore.Store
	provider ProviderClient
	applier  insight.Applier
	trim     func(pdfBytes []byte, minScore int) (trimmer.Result, error)
	log      *slog.Logger
}

func New(cfg Config, jobs repository.JobStore, objects objectstore.Store, provider ProviderClient, applier insight.Applier, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Poll.InitialDelay <= 0 {
		cfg.Poll.InitialDelay = 750 * time.Millisecond
	}
	if cfg.Poll.Multiplier < 1 {
		cfg.Poll.Multiplier = 1.75
	}
	if cfg.Poll.MaxDelay <= 0 {
		cfg.Poll.MaxDelay = 8 * time.Second
	}
	if cfg.Poll.Timeout <= 0 {
		cfg.Poll.Timeout = 6 * time.Minute
	}
	if cfg.Trim.MinScore <= 0 {
		cfg.Trim.MinScore = trimmer.DefaultMinScore
	}
	if applier == nil {
		applier = &insight.LogApplier{Log: log}
	}
	return &Orchestrator{cfg: cfg, jobs: jobs, objects: objects, provider: provider, applier: applier, trim: trimmer.Trim, log: log}
}

// Process drives one job as far as it can go without human input: from
// queued through trim, dispatch, poll, fetch and inspection to a terminal
// or parked state. Safe to call again on a job already parked or terminal.
// Returns the pipeline error for failed jobs (the job record carries it
// too).
func (o *Orchestrator) Process(ctx context.Context, jobID uuid.UUID) error {
	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if rid := common.RequestIDFromContext(ctx); rid != "" {
		o.log.Info("orchestrator.process.start", "job_id", job.ID, "state", job.State, "req_id", rid)
	}

	switch job.State {
	case constants.StateQueued:
		return o.runFromQueued(ctx, job)
	case constants.StateProcessing:
		// restart recovery: resume polling the persisted run
		if job.Provider.RunID == "" {
			return o.fail(ctx, job, constants.CodeResumeLost,
				"job was processing but no provider run id is recorded", "cannot resume")
		}
		return o.poll(ctx, job)
	default:
		o.log.Warn("orchestrator.process.noop", "job_id", job.ID, "state", job.State)
		return nil
	}
}

func (o *Orchestrator) runFromQueued(ctx context.Context, job *entity.Job) error {
	pdfBytes, err := o.objects.Get(ctx, job.Storage.PDFKey)
	if err != nil {
		return o.fail(ctx, job, constants.CodeStorageError, err.Error(), "load original pdf")
	}

	res, err := o.trim(pdfBytes, o.cfg.Trim.MinScore)
	if err != nil {
		return o.fail(ctx, job, constants.CodeTrimFailed, err.Error(), "trim analysis")
	}

	cls := job.Classification
	if cls == nil {
		c := classify.Classify(res.PageTexts)
		cls = &c
	}

	trim := entity.TrimInfo{
		OriginalPageCount: res.OriginalPageCount,
		KeptPages:         res.KeptPages,
		Required:          res.OriginalPageCount > o.cfg.Trim.WarnPageCount && o.cfg.Trim.WarnPageCount > 0,
		ReviewedAt:        job.Trim.ReviewedAt, // survives the re-run after review
	}
	patch := repository.JobPatch{Classification: cls, Trim: &trim}

	dispatchBytes := pdfBytes
	if res.Trimmed != nil {
		key := objectstore.TrimmedKey(job.Storage.PDFKey)
		if err := o.objects.Put(ctx, key, res.Trimmed, objectstore.ContentTypePDF); err != nil {
			return o.fail(ctx, job, constants.CodeStorageError, err.Error(), "store trimmed pdf")
		}
		patch.TrimmedKey = &key
		dispatchBytes = res.Trimmed
	}

	if trim.Required && trim.ReviewedAt == nil {
		note := fmt.Sprintf("page count %d exceeds warn threshold %d, trim review required",
			res.OriginalPageCount, o.cfg.Trim.WarnPageCount)
		return o.transition(ctx, job, constants.StateNeedsTrim, note, patch)
	}

	sub, err := o.provider.Submit(ctx, docupipe.SubmitRequest{
		Contents: dispatchBytes,
		Filename: job.Filename,
		TypeHint: cls.Key,
	})
	if err != nil {
		return o.fail(ctx, job, constants.CodeSubmitFailed, err.Error(), "dispatch to provider")
	}

	// persist the run identifiers with the processing transition so a
	// crash mid-poll can resume the same run
	patch.Provider = &entity.ProviderRefs{
		RunID:             sub.RunID,
		DocumentID:        sub.DocumentID,
		ParseJobID:        sub.ParseJobID,
		StdJobID:          sub.StdJobID,
		StandardizationID: sub.StandardizationID,
		SchemaID:          cls.SchemaID,
	}
	if err := o.transition(ctx, job, constants.StateProcessing, "dispatched run "+sub.RunID, patch); err != nil {
		return err
	}

	return o.poll(ctx, job)
}

// poll waits for the provider run to resolve: blocking wait-with-backoff,
// initial delay multiplied each retry up to the cap, hard overall deadline.
// Context cancellation leaves the job in processing so a later resume can
// pick the run back up.
func (o *Orchestrator) poll(ctx context.Context, job *entity.Job) error {
	delay := o.cfg.Poll.InitialDelay
	deadline := time.Now().Add(o.cfg.Poll.Timeout)

	for {
		st, err := o.provider.PollStatus(ctx, job.Provider.RunID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return o.fail(ctx, job, constants.CodePollFailed, err.Error(), "status check")
		}

		switch st.State {
		case docupipe.RunFailed:
			msg := st.Error
			if msg == "" {
				msg = "provider reported run failed"
			}
			return o.fail(ctx, job, constants.CodeJobFailed, msg, "provider run failed")
		case docupipe.RunCompleted:
			return o.finish(ctx, job)
		}

		if time.Now().Add(delay).After(deadline) {
			msg := fmt.Sprintf("run %s unresolved after %s", job.Provider.RunID, o.cfg.Poll.Timeout)
			return o.fail(ctx, job, constants.CodeJobTimeout, msg, "poll deadline exceeded")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * o.cfg.Poll.Multiplier)
		if delay > o.cfg.Poll.MaxDelay {
			delay = o.cfg.Poll.MaxDelay
		}
	}
}

func (o *Orchestrator) finish(ctx context.Context, job *entity.Job) error {
	raw, err := o.provider.FetchResult(ctx, job.Provider.RunID)
	if err != nil {
		return o.fail(ctx, job, constants.CodeFetchFailed, err.Error(), "fetch result")
	}
	if err := docupipe.ValidateResult(raw); err != nil {
		return o.fail(ctx, job, constants.CodeBadResult, err.Error(), "result validation")
	}
	val, err := inspect.Parse(raw)
	if err != nil {
		return o.fail(ctx, job, constants.CodeBadResult, err.Error(), "result parse")
	}

	if n := inspect.NormalizeDates(val); n > 0 {
		o.log.Info("orchestrator.dates_normalized", "job_id", job.ID, "count", n)
	}

	classKey := ""
	if job.Classification != nil {
		classKey = job.Classification.Key
	}
	missing := inspect.MissingFields(classKey, val)

	normalized, err := json.Marshal(val)
	if err != nil {
		return o.fail(ctx, job, constants.CodeBadResult, err.Error(), "result encode")
	}
	resultKey := objectstore.ResultKey(job.Storage.PDFKey)
	if err := o.objects.Put(ctx, resultKey, normalized, objectstore.ContentTypeJSON); err != nil {
		return o.fail(ctx, job, constants.CodeStorageError, err.Error(), "store result json")
	}

	if len(missing) > 0 {
		// data-quality gap, not a failure: park for human entry with the
		// provisional result key
		patch := repository.JobPatch{JSONKey: &resultKey, RequiresManualFields: missing}
		note := fmt.Sprintf("extraction incomplete, %d field(s) need manual entry", len(missing))
		return o.transition(ctx, job, constants.StateAwaitingManualJSON, note, patch)
	}

	now := time.Now().UTC()
	patch := repository.JobPatch{JSONKey: &resultKey, CompletedAt: &now}
	if err := o.transition(ctx, job, constants.StateCompleted, "extraction completed", patch); err != nil {
		return err
	}

	o.applyInsights(ctx, job, val)
	return nil
}

// applyInsights hands the extracted sections to the analytics boundary.
// The job is already completed; an applier error is logged, not fatal.
func (o *Orchestrator) applyInsights(ctx context.Context, job *entity.Job, val *inspect.Value) {
	req := insight.ApplyRequest{
		FileID:       job.FileID,
		UserID:       job.UserID,
		SessionID:    job.SessionID,
		CollectionID: job.CollectionID,
	}
	if m, ok := val.Member("metadata"); ok {
		req.Metadata, _ = json.Marshal(m)
	}
	if m, ok := val.Member("metrics"); ok {
		req.Metrics, _ = json.Marshal(m)
	}
	if m, ok := val.Member("transactions"); ok {
		req.Transactions, _ = json.Marshal(m)
	}
	if m, ok := val.Member("narrative"); ok {
		req.Narrative, _ = m.StringValue()
	}
	if err := o.applier.ApplyExtracted(ctx, req); err != nil {
		o.log.Error("orchestrator.insight_apply_failed", "job_id", job.ID, "error", err)
	}
}

// MarkTrimReviewed clears a needs_trim park after an operator has reviewed
// the trim. The job returns to queued; the caller re-enqueues it.
func (o *Orchestrator) MarkTrimReviewed(ctx context.Context, jobID uuid.UUID) (*entity.Job, error) {
	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.State != constants.StateNeedsTrim {
		return nil, fmt.Errorf("job %s is %s, not %s: %w",
			job.ID, job.State, constants.StateNeedsTrim, common.ErrInvalidState)
	}
	now := time.Now().UTC()
	patch := repository.JobPatch{TrimReviewedAt: &now}
	if err := o.transition(ctx, job, constants.StateQueued, "trim reviewed, re-queued", patch); err != nil {
		return nil, err
	}
	return job, nil
}

// CompleteManual finishes an awaiting_manual_json job with operator-
// corrected JSON: the payload replaces the provisional result and the
// manual-field requirement is cleared.
func (o *Orchestrator) CompleteManual(ctx context.Context, jobID uuid.UUID, corrected json.RawMessage) (*entity.Job, error) {
	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.State != constants.StateAwaitingManualJSON {
		return nil, fmt.Errorf("job %s is %s, not %s: %w",
			job.ID, job.State, constants.StateAwaitingManualJSON, common.ErrInvalidState)
	}

	val, err := inspect.Parse(corrected)
	if err != nil {
		return nil, common.NewAppError(constants.CodeBadResult, "corrected payload is not valid JSON", err)
	}
	inspect.NormalizeDates(val)
	normalized, err := json.Marshal(val)
	if err != nil {
		return nil, common.NewAppError(constants.CodeBadResult, "corrected payload encode failed", err)
	}

	resultKey := objectstore.ResultKey(job.Storage.PDFKey)
	if err := o.objects.Put(ctx, resultKey, normalized, objectstore.ContentTypeJSON); err != nil {
		return nil, common.NewAppError(constants.CodeStorageError, "store corrected result", err)
	}

	now := time.Now().UTC()
	patch := repository.JobPatch{JSONKey: &resultKey, ClearManualFields: true, CompletedAt: &now}
	if err := o.transition(ctx, job, constants.StateCompleted, "manual data entered", patch); err != nil {
		return nil, err
	}

	o.applyInsights(ctx, job, val)
	return job, nil
}

// Requeue re-drives a failed job. The only retry mechanism is this
// explicit operator action; the caller re-enqueues the returned job.
func (o *Orchestrator) Requeue(ctx context.Context, jobID uuid.UUID) (*entity.Job, error) {
	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.State != constants.StateFailed {
		return nil, fmt.Errorf("job %s is %s, not %s: %w",
			job.ID, job.State, constants.StateFailed, common.ErrInvalidState)
	}
	if err := o.transition(ctx, job, constants.StateQueued, "requeued by operator", repository.JobPatch{}); err != nil {
		return nil, err
	}
	return job, nil
}

// Resume returns the jobs left queued or mid-poll by a previous process
// so the caller can re-enqueue them. Processing jobs without a recorded
// run id are failed immediately.
func (o *Orchestrator) Resume(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	queued, err := o.jobs.ListByState(ctx, constants.StateQueued)
	if err != nil {
		return nil, err
	}
	for _, job := range queued {
		ids = append(ids, job.ID)
	}

	processing, err := o.jobs.ListByState(ctx, constants.StateProcessing)
	if err != nil {
		return nil, err
	}
	for _, job := range processing {
		if job.Provider.RunID == "" {
			_ = o.fail(ctx, job, constants.CodeResumeLost,
				"job was processing but no provider run id is recorded", "cannot resume")
			continue
		}
		ids = append(ids, job.ID)
	}

	if len(ids) > 0 {
		o.log.Info("orchestrator.resume", "jobs", len(ids))
	}
	return ids, nil
}

// transition performs one audited state change: validates the edge,
// applies the patch and appends exactly one audit entry atomically.
func (o *Orchestrator) transition(ctx context.Context, job *entity.Job, to constants.JobState, note string, patch repository.JobPatch) error {
	if !constants.CanTransition(job.State, to) {
		return fmt.Errorf("job %s: %s -> %s: %w", job.ID, job.State, to, common.ErrInvalidState)
	}
	updated, err := o.jobs.UpdateState(ctx, job.ID, patch, entity.AuditEntry{
		State: to,
		At:    time.Now().UTC(),
		Note:  note,
	})
	if err != nil {
		return err
	}
	*job = *updated
	o.log.Info("orchestrator.transition", "job_id", job.ID, "state", to, "note", note)
	return nil
}

// fail moves a job to the terminal failed state with a structured error
// entry, and returns the error for the caller. No automatic retry happens;
// Requeue is the only re-drive.
func (o *Orchestrator) fail(ctx context.Context, job *entity.Job, code, message, note string) error {
	entry := entity.JobError{Message: message, Code: code, At: time.Now().UTC()}
	patch := repository.JobPatch{AppendError: &entry}
	if err := o.transition(ctx, job, constants.StateFailed, note, patch); err != nil {
		o.log.Error("orchestrator.fail_transition_error", "job_id", job.ID, "error", err)
	}
	o.log.Error("orchestrator.job_failed", "job_id", job.ID, "code", code, "message", message, "note", note)
	return common.NewAppError(code, message, nil)
}
