package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolu-adebayo/finsight/constants"
	"github.com/tolu-adebayo/finsight/internal/common"
	"github.com/tolu-adebayo/finsight/internal/entity"
)

func newTestStore(t *testing.T) *SQLJobStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, _, dialect, err := Open(context.Background(), Config{DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.Equal(t, DialectSQLite, dialect)

	store := NewSQLJobStore(db, dialect, logger)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func newTestJob(userID, hash string) *entity.Job {
	now := time.Now().UTC()
	return &entity.Job{
		ID:       uuid.New(),
		FileID:   "file-" + hash[:6],
		UserID:   userID,
		Filename: "statement.pdf",
		Storage: entity.StorageInfo{
			PDFKey:      "uploads/" + userID + "/" + hash[:6] + "-statement.pdf",
			Size:        1024,
			ContentHash: hash,
		},
		State:     constants.StateQueued,
		Audit:     []entity.AuditEntry{{State: constants.StateQueued, At: now, Note: "upload received"}},
		CreatedAt: now,
	}
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := newTestJob("u1", "aaaaaaaaaaaaaaaa")
	require.NoError(t, store.Create(ctx, job))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, constants.StateQueued, got.State)
	assert.Equal(t, job.Storage.PDFKey, got.Storage.PDFKey)
	require.Len(t, got.Audit, 1)
	assert.Equal(t, "upload received", got.Audit[0].Note)
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestFindByHash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := newTestJob("u1", "bbbbbbbbbbbbbbbb")
	require.NoError(t, store.Create(ctx, job))

	got, err := store.FindByHash(ctx, "u1", "bbbbbbbbbbbbbbbb")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)

	// same hash, different user: no match
	got, err = store.FindByHash(ctx, "u2", "bbbbbbbbbbbbbbbb")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindByIdentity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := newTestJob("u1", "cccccccccccccccc")
	require.NoError(t, store.Create(ctx, job))

	got, err := store.FindByIdentity(ctx, "u1", job.FileID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)

	got, err = store.FindByIdentity(ctx, "u1", "other-file")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDuplicateHashRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := newTestJob("u1", "dddddddddddddddd")
	require.NoError(t, store.Create(ctx, first))

	second := newTestJob("u1", "dddddddddddddddd")
	second.FileID = "file-other"
	require.Error(t, store.Create(ctx, second), "unique index on (user_id, content_hash) must reject")
}

func TestUpdateStateAppliesPatchAndAudit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := newTestJob("u1", "eeeeeeeeeeeeeeee")
	require.NoError(t, store.Create(ctx, job))

	refs := entity.ProviderRefs{RunID: "run-1", SchemaID: "statement-v1"}
	updated, err := store.UpdateState(ctx, job.ID,
		JobPatch{Provider: &refs},
		entity.AuditEntry{State: constants.StateProcessing, At: time.Now().UTC(), Note: "dispatched run run-1"},
	)
	require.NoError(t, err)
	assert.Equal(t, constants.StateProcessing, updated.State)
	assert.Equal(t, "run-1", updated.Provider.RunID)
	require.Len(t, updated.Audit, 2)
	assert.Equal(t, constants.StateProcessing, updated.Audit[1].State)

	// the new state is visible both in the doc and the indexed column
	listed, err := store.ListByState(ctx, constants.StateProcessing)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, job.ID, listed[0].ID)
}

func TestUpdateStateAppendsErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := newTestJob("u1", "ffffffffffffffff")
	require.NoError(t, store.Create(ctx, job))

	entry := entity.JobError{Message: "rate limited", Code: constants.CodeJobFailed, At: time.Now().UTC()}
	updated, err := store.UpdateState(ctx, job.ID,
		JobPatch{AppendError: &entry},
		entity.AuditEntry{State: constants.StateFailed, At: time.Now().UTC(), Note: "provider run failed"},
	)
	require.NoError(t, err)
	assert.Equal(t, constants.StateFailed, updated.State)
	require.NotNil(t, updated.LastError())
	assert.Equal(t, "rate limited", updated.LastError().Message)
	assert.Equal(t, constants.CodeJobFailed, updated.LastError().Code)
}

func TestUpdateStateClearsManualFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := newTestJob("u1", "1111111111111111")
	job.State = constants.StateAwaitingManualJSON
	job.RequiresManualFields = []string{"Period Date (MM/YYYY)"}
	require.NoError(t, store.Create(ctx, job))

	updated, err := store.UpdateState(ctx, job.ID,
		JobPatch{ClearManualFields: true},
		entity.AuditEntry{State: constants.StateCompleted, At: time.Now().UTC(), Note: "manual data entered"},
	)
	require.NoError(t, err)
	assert.Empty(t, updated.RequiresManualFields)
}

func TestListByUserState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := newTestJob("u1", "2222222222222222")
	b := newTestJob("u2", "3333333333333333")
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))

	jobs, err := store.ListByUserState(ctx, "u1", constants.StateQueued)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, a.ID, jobs[0].ID)
}

func TestBindRewritesPlaceholdersForPostgres(t *testing.T) {
	pg := &SQLJobStore{dialect: DialectPostgres}
	assert.Equal(t, "SELECT doc FROM jobs WHERE id = $1 AND state = $2",
		pg.bind("SELECT doc FROM jobs WHERE id = ? AND state = ?"))

	lite := &SQLJobStore{dialect: DialectSQLite}
	assert.Equal(t, "SELECT doc FROM jobs WHERE id = ?",
		lite.bind("SELECT doc FROM jobs WHERE id = ?"))
}
