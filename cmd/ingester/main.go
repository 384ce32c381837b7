package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"title_ingester/internal/config"
	"title_ingester/internal/messaging"
	"title_ingester/internal/service"
	"title_ingester/internal/source/omdb"
	"title_ingester/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	listen := flag.Bool("listen", false, "consume ingestion requests from rabbitmq instead of ingesting the ids given as arguments")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] imdb-id...\n       %s [-config path] -listen\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	if !*listen && flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	logger.Info("connected to database")

	publisher, err := messaging.NewPublisher(messaging.PublisherConfig{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	source := omdb.New(omdb.Config{
		BaseURL:        cfg.OMDb.BaseURL,
		APIKey:         cfg.OMDb.APIKey,
		Timeout:        cfg.OMDb.Timeout,
		MaxAttempts:    cfg.OMDb.Retry.MaxAttempts,
		InitialBackoff: cfg.OMDb.Retry.InitialBackoff,
		MaxBackoff:     cfg.OMDb.Retry.MaxBackoff,
	}, logger)

	ingestService := service.NewIngestService(
		source,
		service.Stores{
			Titles:    postgres.NewTitleStore(db),
			Genres:    postgres.NewGenreStore(db),
			Languages: postgres.NewLanguageStore(db),
			Countries: postgres.NewCountryStore(db),
			People:    postgres.NewPeopleStore(db),
			Ratings:   postgres.NewRatingStore(db),
		},
		postgres.NewTransactionManager(db),
		publisher,
		logger,
		cfg.Ingest,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if !*listen {
		stats := ingestService.IngestBatch(ctx, flag.Args())
		if stats.Failed > 0 {
			os.Exit(1)
		}
		return
	}

	consumer, err := messaging.NewConsumer(messaging.ConsumerConfig{
		URL:       cfg.RabbitMQ.URL,
		QueueName: cfg.RabbitMQ.RequestQueue,
		Prefetch:  cfg.RabbitMQ.Prefetch,
		Workers:   cfg.Ingest.Workers,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	logger.Info("starting title ingester", "workers", cfg.Ingest.Workers)

	if err := consumer.Run(ctx, ingestService); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
