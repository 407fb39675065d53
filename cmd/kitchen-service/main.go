package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"kitchen-service/internal/api"
	"kitchen-service/internal/catalog"
	"kitchen-service/internal/config"
	"kitchen-service/internal/connections/database"
	"kitchen-service/internal/connections/rabbitmq"
	redisconn "kitchen-service/internal/connections/redis"
	"kitchen-service/internal/dlq"
	"kitchen-service/internal/hub"
	"kitchen-service/internal/logging"
	"kitchen-service/internal/store"
	"kitchen-service/internal/worker"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config")
	port := flag.Int("port", 0, "override http port from config")
	flag.Parse()

	if err := run(*cfgPath, *port); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath string, portOverride int) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if portOverride != 0 {
		cfg.HTTP.Port = portOverride
	}

	logger, err := logging.New("kitchen-service")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	orders := store.NewOrdersPG(db)
	if err := orders.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("postgres_connected", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Database))

	rmq, err := rabbitmq.Dial(cfg.RabbitMQ)
	if err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}
	defer rmq.Close()
	if err := rmq.Ping(); err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}
	if err := rmq.DeclareTopology(cfg.Worker.Queue, cfg.Worker.DLQ); err != nil {
		return fmt.Errorf("rabbitmq topology: %w", err)
	}
	logger.Info("rabbitmq_connected", zap.String("host", cfg.RabbitMQ.Host), zap.String("queue", cfg.Worker.Queue))

	// The catalog is best-effort: without Redis the read path simply skips
	// preparation-time annotation.
	var prepTimes api.Catalog
	if cfg.Redis.Host != "" {
		rdb, err := redisconn.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis_unavailable", zap.Error(err))
		} else {
			defer rdb.Close()
			prepTimes = catalog.NewPrepTimes(rdb, catalog.DefaultTTL)
			logger.Info("redis_connected", zap.String("host", cfg.Redis.Host))
		}
	}

	eventHub := hub.New(logger.Named("hub"))
	go eventHub.Run(ctx)

	deadLetter := dlq.NewRouter(rmq, cfg.Worker.DLQ, logger.Named("dlq"))
	ingest := worker.New(rmq, orders, eventHub, deadLetter, cfg.Worker.Queue, cfg.Worker.Prefetch, logger.Named("worker"))

	workerErr := make(chan error, 1)
	go func() { workerErr <- ingest.Run(ctx) }()

	handler := api.NewHandler(orders, eventHub, prepTimes, logger.Named("api"))
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	handler.RegisterWS(router, eventHub)

	// The display frontend is served from another origin.
	srv := api.NewServer(":"+strconv.Itoa(cfg.HTTP.Port), cors.AllowAll().Handler(router))
	logger.Info("service_started", zap.Int("port", cfg.HTTP.Port))

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Run(ctx) }()

	select {
	case err := <-workerErr:
		cancel()
		<-serveErr
		return err
	case err := <-serveErr:
		cancel()
		<-workerErr
		return err
	}
}
