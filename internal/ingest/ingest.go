package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tolu-adebayo/finsight/constants"
	"github.com/tolu-adebayo/finsight/internal/entity"
	"github.com/tolu-adebayo/finsight/internal/objectstore"
	"github.com/tolu-adebayo/finsight/internal/repository"
)

// Result is the per-file ingest outcome.
type Result struct {
	Job          *entity.Job
	Deduplicated bool
	HashHex      string
}

// Request describes one uploaded document.
type Request struct {
	UserID       string
	SessionID    string
	CollectionID string
	Filename     string
	Data         []byte
}

// Ingestor stores uploaded bytes, fingerprints them and creates the queued
// job record. Re-submission of identical bytes by the same user returns the
// existing job instead of creating a duplicate attempt.
type Ingestor struct {
	jobs    repository.JobStore
	objects objectstore.Store
	log     *slog.Logger
}

func NewIngestor(jobs repository.JobStore, objects objectstore.Store, log *slog.Logger) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{jobs: jobs, objects: objects, log: log}
}

// Ingest fingerprints and stores one uploaded document and creates its job
// record in queued state. The caller enqueues the returned job for
// dispatch; a deduplicated result must not be re-enqueued unless the
// existing job has failed and the operator re-drives it.
func (i *Ingestor) Ingest(ctx context.Context, req Request) (Result, error) {
	if req.UserID == "" {
		return Result{}, fmt.Errorf("user id is required")
	}
	if len(req.Data) == 0 {
		return Result{}, fmt.Errorf("empty upload")
	}
	ext := constants.NormalizeExt(filepath.Ext(req.Filename))
	if !constants.AllowedExt(ext) {
		return Result{}, fmt.Errorf("unsupported or missing extension: %q", ext)
	}

	sum := sha256.Sum256(req.Data)
	hashHex := hex.EncodeToString(sum[:])

	// idempotent re-submission: same user + same bytes -> same attempt
	existing, err := i.jobs.FindByHash(ctx, req.UserID, hashHex)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		i.log.Info("upload deduplicated",
			"user_id", req.UserID, "job_id", existing.ID, "state", existing.State)
		return Result{Job: existing, Deduplicated: true, HashHex: hashHex}, nil
	}

	key := StorageKey(req.UserID, hashHex, req.Filename)
	if err := i.objects.Put(ctx, key, req.Data, objectstore.ContentTypePDF); err != nil {
		return Result{}, fmt.Errorf("store upload: %w", err)
	}

	now := time.Now().UTC()
	job := &entity.Job{
		ID:           uuid.New(),
		FileID:       FileIDForKey(key),
		UserID:       req.UserID,
		SessionID:    req.SessionID,
		CollectionID: req.CollectionID,
		Filename:     path.Base(req.Filename),
		Storage: entity.StorageInfo{
			PDFKey:      key,
			Size:        int64(len(req.Data)),
			ContentHash: hashHex,
		},
		State:     constants.StateQueued,
		Audit:     []entity.AuditEntry{{State: constants.StateQueued, At: now, Note: "upload received"}},
		CreatedAt: now,
	}
	if err := i.jobs.Create(ctx, job); err != nil {
		return Result{}, err
	}

	i.log.Info("upload ingested",
		"user_id", req.UserID, "job_id", job.ID, "file_id", job.FileID,
		"bytes", len(req.Data), "hash", hashHex[:12])
	return Result{Job: job, HashHex: hashHex}, nil
}

// StorageKey builds the object-store key for an upload. The hash prefix
// keeps keys stable across re-uploads of the same bytes.
func StorageKey(userID, hashHex, filename string) string {
	return path.Join("uploads", userID, hashHex[:12]+"-"+SanitizeFilename(filename))
}

// FileIDForKey derives the stable file identity from a storage key.
func FileIDForKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename reduces a user-supplied filename to key-safe characters.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." {
		name = "document.pdf"
	}
	return name
}
