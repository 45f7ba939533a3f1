package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/schemaforge/schemaforge/internal/analyzer"
	"github.com/schemaforge/schemaforge/internal/classifier"
	"github.com/schemaforge/schemaforge/internal/config"
	"github.com/schemaforge/schemaforge/internal/eventlog"
	"github.com/schemaforge/schemaforge/internal/ingress"
	"github.com/schemaforge/schemaforge/internal/queue"
	"github.com/schemaforge/schemaforge/internal/readapi"
	"github.com/schemaforge/schemaforge/internal/store"
	"github.com/schemaforge/schemaforge/internal/truncator"
	"github.com/schemaforge/schemaforge/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("failed to reach database: %v", err)
	}

	storeOpts := []store.Option{store.WithDB(db)}
	if cfg.S3.Enabled {
		s3Client, err := minio.New(cfg.S3.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
			Secure: cfg.S3.UseSSL,
			Region: cfg.S3.Region,
		})
		if err != nil {
			log.Fatalf("failed to init s3 mirror client: %v", err)
		}
		storeOpts = append(storeOpts, store.WithS3Mirror(s3Client, cfg.S3.Bucket))
	}

	st, err := store.New(cfg.StoreRoot, cfg.StoreCacheEntries, cfg.MaxRawSamples, storeOpts...)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	q := queue.New(db, queue.Config{MaxAttempts: cfg.QueueMaxAttempts, BackoffDelay: cfg.QueueBackoffDelay})
	evLog := eventlog.New(db)
	broadcaster := readapi.NewBroadcaster()

	pipeline := &worker.Pipeline{
		Truncator:           truncator.New(truncator.Config{MaxLength: cfg.TruncateMaxLength, FieldNames: cfg.TruncateFields}),
		Classifier:          classifier.New(classifier.DefaultConfig()),
		Analyzer:            analyzer.New(),
		Store:               st,
		EventLog:            evLog,
		Publisher:           broadcaster,
		MaxExamplesPerMerge: cfg.MaxExamplesPerSchema,
	}
	pool := worker.NewPool(q, pipeline, cfg.QueueConcurrency, "server-1")
	pool.Shutdown = cfg.GracefulShutdown

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	go pool.Run(workerCtx)

	mux := http.NewServeMux()
	mux.Handle("/webhook", ingress.New(q))
	readapi.New(st, q, evLog, broadcaster).Mount(mux)

	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	go func() {
		slog.Info("server: listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server: listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdown)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server: forced http shutdown", "error", err)
	}

	cancelWorkers()
	time.Sleep(100 * time.Millisecond) // let the dequeue loop observe cancellation before process exit

	slog.Info("server: exited")
}
