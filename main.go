package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feira/internal/backend"
	"feira/internal/config"
	"feira/internal/handlers"
	"feira/internal/telemetry"
	"feira/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const serviceName = "feira-backend"

var version = "dev"

func main() {
	configFile := pflag.StringP("config", "c", os.Getenv("FEIRA_CONFIG"), "path to a config file")
	pflag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server gracefully stopped")
}

func openDB(cfg config.Server) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		dialector = sqlite.Open(cfg.DSN)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.DBDriver, err)
	}
	return db, nil
}

// server bundles the pieces run starts and stops.
type server struct {
	app     *fiber.App
	store   *backend.GORMStore
	auth    *backend.AuthService
	cleanup []func() error
}

func (s *server) close(logger *slog.Logger) {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		if err := s.cleanup[i](); err != nil {
			logger.Warn("cleanup failed", "error", err)
		}
	}
}

// buildServer wires storage, services, event delivery and HTTP routes. With
// a RabbitMQ URL, status events go through the broker and a consumer turns
// them into notifications; otherwise they are written directly.
func buildServer(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *slog.Logger) (*server, error) {
	store, err := backend.NewGORMStore(db)
	if err != nil {
		return nil, err
	}
	srv := &server{store: store, auth: backend.NewAuthService(store, cfg.Server.JWTSecret, cfg.Server.TokenTTL, logger)}

	direct := backend.NewDirectNotifier(store)
	var notifier backend.Notifier = direct
	brokerStatus := "disabled"
	if cfg.Server.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.Server.RabbitMQURL}, logger)
		if err != nil {
			return nil, err
		}
		srv.cleanup = append(srv.cleanup, mq.Close)
		err = mq.Consume(ctx, func(ctx context.Context, body []byte) error {
			return backend.HandleStatusEvent(ctx, direct, body)
		})
		if err != nil {
			srv.close(logger)
			return nil, err
		}
		notifier = backend.NewBrokerNotifier(mq, logger)
		brokerStatus = "connected"
	}

	if cfg.Server.Seed {
		if _, err := backend.Seed(ctx, store, srv.auth); err != nil {
			logger.Warn("demo data not seeded", "error", err)
		}
	}

	reg := telemetry.NewRegistry()
	srv.app = handlers.NewApp(handlers.Services{
		Auth:          srv.auth,
		Orders:        backend.NewOrderService(store, notifier, logger),
		Reviews:       backend.NewReviewService(store),
		Notifications: backend.NewNotificationService(store),
	}, handlers.AppOptions{
		Logger:        logger,
		Registry:      reg,
		ServiceName:   serviceName,
		RequestLogger: true,
		Health:        func() fiber.Map { return fiber.Map{"rabbitmq": brokerStatus, "version": version} },
	})
	return srv, nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.InitTracerProvider(ctx, serviceName, version, cfg.Server.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	db, err := openDB(cfg.Server)
	if err != nil {
		return err
	}
	srv, err := buildServer(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer srv.close(logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr, "db", cfg.Server.DBDriver)
		errCh <- srv.app.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down server")
	return srv.app.ShutdownWithTimeout(10 * time.Second)
}
