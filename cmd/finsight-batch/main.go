package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lpernett/godotenv"

	"github.com/tolu-adebayo/finsight/internal/async"
	"github.com/tolu-adebayo/finsight/internal/common"
	"github.com/tolu-adebayo/finsight/internal/docupipe"
	"github.com/tolu-adebayo/finsight/internal/export"
	"github.com/tolu-adebayo/finsight/internal/ingest"
	"github.com/tolu-adebayo/finsight/internal/objectstore"
	"github.com/tolu-adebayo/finsight/internal/orchestrator"
	"github.com/tolu-adebayo/finsight/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// finsight-batch processes a directory of PDFs end to end against a local
// SQLite job store and filesystem object store, then optionally exports the
// extracted transactions to XLSX.
func main() {
	var (
		inmem = flag.Bool("inmem", false, "use an in-memory SQLite job store")
		dir   = flag.String("dir", "", "directory of PDFs to process (required)")
		user  = flag.String("user", "batch", "user id to ingest under")
		store = flag.String("store", "", "object store directory (defaults to <dir>/.finsight)")
		out   = flag.String("out", "", "output XLSX path (optional)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *store == "" {
		*store = filepath.Join(*dir, ".finsight")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if cfg.Provider.APIKey == "" || cfg.Provider.WorkflowID == "" {
		printError("Error: DOCUPIPE_API_KEY and DOCUPIPE_WORKFLOW_ID are required\n")
		os.Exit(1)
	}

	ctx := context.Background()

	dsn := filepath.Join(*store, "jobs.db")
	if *inmem {
		dsn = ":memory:"
	} else if err := os.MkdirAll(*store, 0o755); err != nil {
		logger.Error("failed to create store directory", "path", *store, "error", err)
		os.Exit(1)
	}
	db, pool, dialect, err := repository.Open(ctx, repository.Config{DSN: dsn}, logger)
	if err != nil {
		logger.Error("failed to open job store", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, pool, logger)

	jobs := repository.NewSQLJobStore(db, dialect, logger)
	if err := jobs.Migrate(ctx); err != nil {
		logger.Error("job store migration failed", "error", err)
		os.Exit(1)
	}

	objects, err := objectstore.NewFSStore(*store)
	if err != nil {
		logger.Error("failed to open object store", "error", err)
		os.Exit(1)
	}

	provider := docupipe.NewClient(docupipe.Config{
		BaseURL:     cfg.Provider.BaseURL,
		APIKey:      cfg.Provider.APIKey,
		WorkflowID:  cfg.Provider.WorkflowID,
		HTTPTimeout: cfg.Provider.HTTPTimeout,
	}, logger)

	orc := orchestrator.New(orchestrator.Config{
		Trim: cfg.Trim,
		Poll: cfg.Poll,
	}, jobs, objects, provider, nil, logger)

	queue := async.NewDispatchQueue(orc, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	ingestor := ingest.NewIngestor(jobs, objects, logger)
	results, stats, err := ingestor.IngestDirectory(ctx, *user, *dir, true)
	if err != nil {
		logger.Error("directory ingest failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ingest complete",
		"scanned", stats.Scanned, "matched", stats.Matched,
		"succeeded", stats.Succeeded, "deduplicated", stats.Deduplicated,
		"failed", stats.Failed)

	for _, res := range results {
		if res.Deduplicated {
			continue
		}
		_ = queue.Enqueue(ctx, async.Job{JobID: res.Job.ID, SubmittedAt: time.Now(), TraceID: uuid.NewString()})
	}
	queue.Shutdown(ctx)

	if *out != "" {
		svc := export.NewService(jobs, objects, logger)
		data, err := svc.ExportTransactionsXLSX(ctx, *user)
		if err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			logger.Error("write export failed", "path", *out, "error", err)
			os.Exit(1)
		}
		logger.Info("export written", "path", *out)
	}
}
