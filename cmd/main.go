package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stockroom/inventory-portal/internal/cache"
	"github.com/stockroom/inventory-portal/internal/config"
	"github.com/stockroom/inventory-portal/internal/db"
	"github.com/stockroom/inventory-portal/internal/importer"
	"github.com/stockroom/inventory-portal/internal/kafka"
	"github.com/stockroom/inventory-portal/internal/lifecycle"
	"github.com/stockroom/inventory-portal/internal/logger"
	"github.com/stockroom/inventory-portal/internal/orderid"
	"github.com/stockroom/inventory-portal/internal/repository/postgresql"
	"github.com/stockroom/inventory-portal/internal/server"
	"github.com/stockroom/inventory-portal/internal/storage"
)

func main() {
	app := &cli.App{
		Name:           "inventory-portal",
		Usage:          "order and stock backend for the inventory portal",
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API, import workers and outbox publisher",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrateUp,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateUp(_ *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := db.Migrate(cfg.DB.URL("pgx")); err != nil {
		return err
	}
	log.Info("Migrations applied")
	return nil
}

func serve(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if cfg.DB.Migrate {
		if err := db.Migrate(cfg.DB.URL("pgx")); err != nil {
			return err
		}
		log.Info("Migrations applied")
	}

	database, err := db.NewDb(ctx, cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer database.Close()

	orderRepo := postgresql.NewOrderRepo(database)
	productRepo := postgresql.NewProductRepo(database)
	historyRepo := postgresql.NewHistoryRepo(database)
	outboxRepo := postgresql.NewOutboxTaskRepo(cfg.Outbox.MaxAttempts)

	orderCache := cache.NewOrderCache(orderRepo, log)
	stg := storage.NewStorage(database, orderRepo, productRepo, historyRepo, outboxRepo, orderCache, cfg.Kafka.OrderTopic)
	if err := stg.WarmCache(ctx); err != nil {
		log.Warn("Failed to warm order cache, continuing cold", zap.Error(err))
	}

	ids := orderid.NewGenerator()
	imp := importer.NewImporter(importer.NewNormalizer(ids), importer.NewWriter(stg, ids, log), log)
	jobs := importer.NewJobs(imp, cfg.Import.Workers, cfg.Import.QueueSize, cfg.Import.JobRetention, log)
	jobs.Start()

	manager := lifecycle.NewManager(stg, cfg.Import.StockConcurrency, log)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	publisher := kafka.NewPublisher(database, outboxRepo, producer, kafka.PublisherConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
	}, log)

	srv := server.New(server.Config{
		Port:           cfg.HTTP.Port,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		UploadDir:      cfg.Import.UploadDir,
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
	}, stg, imp, jobs, manager, log)

	g, gctx := errgroup.WithContext(ctx)
	publisher.Start(gctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Initiating graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer shutdownCancel()

		err := srv.Shutdown(shutdownCtx)
		jobs.Shutdown(shutdownCtx)
		publisher.Shutdown(shutdownCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return err
	}
	log.Info("Server gracefully stopped")
	return nil
}
