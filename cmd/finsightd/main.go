package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lpernett/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/tolu-adebayo/finsight/internal/async"
	"github.com/tolu-adebayo/finsight/internal/common"
	"github.com/tolu-adebayo/finsight/internal/docupipe"
	"github.com/tolu-adebayo/finsight/internal/insight"
	"github.com/tolu-adebayo/finsight/internal/objectstore"
	"github.com/tolu-adebayo/finsight/internal/orchestrator"
	"github.com/tolu-adebayo/finsight/internal/repository"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.HasPrefix(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, dialect, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open job store", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, pool, logger)

	if err := repository.HealthCheck(ctx, db, cfg.Database.DialTimeout, logger); err != nil {
		logger.Error("job store health check failed", "error", err)
		os.Exit(1)
	}

	jobs := repository.NewSQLJobStore(db, dialect, logger)
	if err := jobs.Migrate(ctx); err != nil {
		logger.Error("job store migration failed", "error", err)
		os.Exit(1)
	}

	objects, err := objectstore.NewMinioStore(ctx, objectstore.MinioConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to object store", "error", err)
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
	}, jobs, objects, provider, &insight.LogApplier{Log: logger}, logger)

	queue := async.NewDispatchQueue(orc, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	// re-drive jobs left queued or mid-poll by a previous process
	ids, err := orc.Resume(ctx)
	if err != nil {
		logger.Error("resume scan failed", "error", err)
	}
	for _, id := range ids {
		_ = queue.Enqueue(ctx, async.Job{JobID: id, SubmittedAt: time.Now(), TraceID: uuid.NewString()})
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	logger.Info("finsightd listening", "addr", addr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	queue.Shutdown(context.Background())
	grpcServer.GracefulStop()
}
