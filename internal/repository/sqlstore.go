package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tolu-adebayo/finsight/constants"
	"github.com/tolu-adebayo/finsight/internal/common"
	"github.com/tolu-adebayo/finsight/internal/entity"
)

const jobsDDL = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	file_id      TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	state        TEXT NOT NULL,
	doc          TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS jobs_user_file ON jobs (user_id, file_id);
CREATE UNIQUE INDEX IF NOT EXISTS jobs_user_hash ON jobs (user_id, content_hash);
CREATE INDEX IF NOT EXISTS jobs_state ON jobs (state);
`

// SQLJobStore implements JobStore on database/sql. The full job record is
// stored as JSON in the doc column; the indexed columns exist for lookup and
// the updated_at column carries the compare-and-set token.
type SQLJobStore struct {
	db      *sql.DB
	dialect Dialect
	log     *slog.Logger
}

func NewSQLJobStore(db *sql.DB, dialect Dialect, log *slog.Logger) *SQLJobStore {
	if log == nil {
		log = slog.Default()
	}
	return &SQLJobStore{db: db, dialect: dialect, log: log}
}

// Migrate creates the jobs table and indexes if missing.
func (s *SQLJobStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(jobsDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return common.WrapError(err, "migrate jobs table")
		}
	}
	return nil
}

// bind rewrites ? placeholders to $n for postgres.
func (s *SQLJobStore) bind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLJobStore) Create(ctx context.Context, job *entity.Job) error {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	doc, err := json.Marshal(job)
	if err != nil {
		return common.WrapError(err, "marshal job")
	}
	_, err = s.db.ExecContext(ctx, s.bind(
		`INSERT INTO jobs (id, file_id, user_id, content_hash, state, doc, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		job.ID.String(), job.FileID, job.UserID, job.Storage.ContentHash,
		string(job.State), string(doc), job.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		s.log.Error("job create failed", "job_id", job.ID, "file_id", job.FileID, "err", err)
		return common.WrapError(err, "insert job")
	}
	s.log.Info("job created", "job_id", job.ID, "file_id", job.FileID, "state", job.State)
	return nil
}

func (s *SQLJobStore) Get(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	job, _, err := s.getForUpdate(ctx, id)
	return job, err
}

func (s *SQLJobStore) getForUpdate(ctx context.Context, id uuid.UUID) (*entity.Job, string, error) {
	var doc, updatedAt string
	err := s.db.QueryRowContext(ctx, s.bind(
		`SELECT doc, updated_at FROM jobs WHERE id = ?`), id.String(),
	).Scan(&doc, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, "", common.WrapError(err, "select job")
	}
	job, err := decodeJob(doc)
	if err != nil {
		return nil, "", err
	}
	return job, updatedAt, nil
}

func (s *SQLJobStore) FindByIdentity(ctx context.Context, userID, fileID string) (*entity.Job, error) {
	return s.findOne(ctx, `SELECT doc FROM jobs WHERE user_id = ? AND file_id = ?`, userID, fileID)
}

func (s *SQLJobStore) FindByHash(ctx context.Context, userID, contentHash string) (*entity.Job, error) {
	return s.findOne(ctx, `SELECT doc FROM jobs WHERE user_id = ? AND content_hash = ?`, userID, contentHash)
}

func (s *SQLJobStore) findOne(ctx context.Context, query string, args ...any) (*entity.Job, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, s.bind(query), args...).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.WrapError(err, "select job")
	}
	return decodeJob(doc)
}

// UpdateState applies the patch, sets the state from the audit entry and
// appends that entry, all in one compare-and-set write. A concurrent update
// of the same job surfaces as ErrConflict after one retry.
func (s *SQLJobStore) UpdateState(ctx context.Context, id uuid.UUID, patch JobPatch, audit entity.AuditEntry) (*entity.Job, error) {
	for attempt := 0; attempt < 2; attempt++ {
		job, token, err := s.getForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}

		patch.Apply(job)
		job.State = audit.State
		job.Audit = append(job.Audit, audit)
		job.UpdatedAt = time.Now().UTC()

		doc, err := json.Marshal(job)
		if err != nil {
			return nil, common.WrapError(err, "marshal job")
		}
		res, err := s.db.ExecContext(ctx, s.bind(
			`UPDATE jobs SET state = ?, doc = ?, updated_at = ? WHERE id = ? AND updated_at = ?`),
			string(job.State), string(doc), job.UpdatedAt.Format(time.RFC3339Nano),
			id.String(), token,
		)
		if err != nil {
			s.log.Error("job update failed", "job_id", id, "err", err)
			return nil, common.WrapError(err, "update job")
		}
		n, _ := res.RowsAffected()
		if n == 1 {
			s.log.Info("job state updated", "job_id", id, "state", job.State, "note", audit.Note)
			return job, nil
		}
		s.log.Warn("job update conflict, retrying", "job_id", id, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("job %s: %w", id, common.ErrConflict)
}

func (s *SQLJobStore) ListByState(ctx context.Context, state constants.JobState) ([]*entity.Job, error) {
	return s.list(ctx, `SELECT doc FROM jobs WHERE state = ? ORDER BY updated_at`, string(state))
}

func (s *SQLJobStore) ListByUserState(ctx context.Context, userID string, state constants.JobState) ([]*entity.Job, error) {
	return s.list(ctx, `SELECT doc FROM jobs WHERE user_id = ? AND state = ? ORDER BY updated_at`, userID, string(state))
}

func (s *SQLJobStore) list(ctx context.Context, query string, args ...any) ([]*entity.Job, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(query), args...)
	if err != nil {
		return nil, common.WrapError(err, "list jobs")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.log.Warn("close rows", "err", cerr)
		}
	}()

	var jobs []*entity.Job
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, common.WrapError(err, "scan job")
		}
		job, err := decodeJob(doc)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func decodeJob(doc string) (*entity.Job, error) {
	var job entity.Job
	if err := json.Unmarshal([]byte(doc), &job); err != nil {
		return nil, common.WrapError(err, "unmarshal job")
	}
	return &job, nil
}
