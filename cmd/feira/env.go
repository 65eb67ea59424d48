package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"feira/internal/apiclient"
	"feira/internal/config"
	"feira/internal/estimate"
	"feira/internal/models"
	"feira/internal/navresult"
	"feira/internal/repositories"
	"feira/internal/services"
	"feira/internal/session"
	"feira/internal/syncqueue"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// env is everything a command needs for the selected role.
type env struct {
	role   models.Role
	logger *slog.Logger
	in     io.Reader
	out    io.Writer

	db     *gorm.DB
	tokens session.TokenStore
	client *apiclient.Client
	queue  *syncqueue.Queue

	auth          repositories.AuthRepository
	buyer         *services.BuyerOrderService
	producer      *services.ProducerOrderService
	courier       *services.CourierService
	reviews       *services.ReviewService
	notifications *services.NotificationService
	platform      string
	messaging     *cliMessaging
	push          *services.PushTokenService

	est         estimate.Strategy
	locations   *navresult.Broker[models.Location]
	reviewForms *navresult.Broker[models.ReviewInput]
}

func openLocalDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local store %s: %w", path, err)
	}
	return db, nil
}

func newEnv(cfg config.Client, role models.Role, logger *slog.Logger, in io.Reader, out io.Writer) (*env, error) {
	db, err := openLocalDB(cfg.StorePath)
	if err != nil {
		return nil, err
	}

	var tokens session.TokenStore
	if cfg.Passphrase == "" {
		logger.Warn("client.passphrase not set, sessions are kept in memory only")
		tokens = session.NewMemoryStore()
	} else if tokens, err = session.NewSecureStore(db, cfg.Passphrase); err != nil {
		return nil, err
	}

	jobs, err := syncqueue.NewGORMStore(db)
	if err != nil {
		return nil, err
	}
	queue, err := syncqueue.New(jobs, syncqueue.Config{MaxAttempts: cfg.SyncMaxAttempts}, logger, nil)
	if err != nil {
		return nil, err
	}

	client := apiclient.New(apiclient.Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout}, tokens, role, logger)
	est := estimate.NewAddressHeuristic(nil, nil)
	buyerRepo := repositories.NewHTTPBuyerOrderRepository(client)
	producerRepo := repositories.NewHTTPProducerOrderRepository(client)
	courierRepo := repositories.NewHTTPCourierOrderRepository(client)
	notifRepo := repositories.NewHTTPNotificationRepository(client)

	var lookup services.OrderLookup = buyerRepo
	switch role {
	case models.RoleProducer:
		lookup = producerRepo
	case models.RoleCourier:
		lookup = courierRepo
	}

	e := &env{
		role:          role,
		logger:        logger,
		in:            in,
		out:           out,
		db:            db,
		tokens:        tokens,
		client:        client,
		queue:         queue,
		auth:          repositories.NewHTTPAuthRepository(client, tokens),
		buyer:         services.NewBuyerOrderService(buyerRepo, est),
		producer:      services.NewProducerOrderService(producerRepo),
		courier:       services.NewCourierService(courierRepo, est, logger),
		reviews:       services.NewReviewService(repositories.NewHTTPReviewRepository(client)),
		notifications: services.NewNotificationService(notifRepo, lookup, queue, logger),
		platform:      cfg.Platform,
		messaging:     &cliMessaging{},
		est:           est,
		locations:     navresult.NewBroker[models.Location](),
		reviewForms:   navresult.NewBroker[models.ReviewInput](),
	}
	e.push = services.NewPushTokenService(e.messaging, notifRepo, queue, cfg.Platform, logger)
	return e, nil
}

func (e *env) close() {
	sqlDB, err := e.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		e.logger.Warn("failed to close local store", "error", err)
	}
}

// cliMessaging stands in for the platform push layer: running the command is
// consent, and the token comes from the command line.
type cliMessaging struct {
	token string
}

func (m *cliMessaging) RequestPermission(context.Context) (bool, error) {
	return m.token != "", nil
}

func (m *cliMessaging) Token(context.Context) (string, error) {
	if m.token == "" {
		return "", fmt.Errorf("no push token given")
	}
	return m.token, nil
}
