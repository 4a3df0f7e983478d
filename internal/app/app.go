package app

import (
	"context"
	"fmt"
	"time"

	"github.com/NasaVasa/pricewatch/internal/config"
	"github.com/NasaVasa/pricewatch/internal/delivery/telegram"
	"github.com/NasaVasa/pricewatch/internal/delivery/web"
	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/NasaVasa/pricewatch/internal/infra/auth"
	"github.com/NasaVasa/pricewatch/internal/infra/db"
	"github.com/NasaVasa/pricewatch/internal/infra/log"
	mongostore "github.com/NasaVasa/pricewatch/internal/infra/mongo"
	"github.com/NasaVasa/pricewatch/internal/infra/quotes"
	"github.com/NasaVasa/pricewatch/internal/usecase"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	bot       *telegram.Bot
	server    *web.Server
	listener  *db.Listener
	httpAddr  string
	logger    *zap.Logger
	cleanupFn func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	policy, err := usecase.NewTriggerPolicy(cfg.TriggerPolicy)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	var stores closers
	stores.add(func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	fail := func(err error) (*App, error) {
		return failInit(stores, logger, err)
	}

	userRepo := db.NewUserRepository(dbConn)
	alertRepo := db.NewAlertRepository(dbConn)

	var notificationRepo domain.NotificationRepository
	switch cfg.NotificationStore {
	case config.StorePostgres:
		notificationRepo = db.NewNotificationRepository(dbConn)
	case config.StoreMongo:
		store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return fail(err)
		}
		stores.add(func() error {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return store.Close(closeCtx)
		})
		repo, err := mongostore.NewNotificationRepository(ctx, store)
		if err != nil {
			return fail(err)
		}
		notificationRepo = repo
	default:
		return fail(fmt.Errorf("unknown notification store %q", cfg.NotificationStore))
	}

	hub := web.NewHub(logger)
	var inApp domain.InAppPublisher
	var listener *db.Listener
	switch cfg.InAppFanout {
	case config.FanoutLocal:
		inApp = hub
	case config.FanoutPostgres:
		inApp = db.NewNotifyPublisher(dbConn, cfg.FanoutChannel)
		listener = db.NewListener(db.DSN(cfg), cfg.FanoutChannel, hub, logger)
	default:
		return fail(fmt.Errorf("unknown in-app fanout %q", cfg.InAppFanout))
	}

	api, err := telegram.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		return fail(err)
	}
	notifier := telegram.NewNotifier(api, userRepo, logger)

	quoteClient := quotes.NewClient(cfg.QuoteBaseURL, cfg.QuoteTimeout, logger)
	resolver := usecase.NewQuoteResolver(quoteClient, cfg.QuoteTimeout, cfg.QuoteConcurrency, logger)
	evaluator := usecase.NewEvaluator(alertRepo, resolver, policy, logger)
	dispatcher := usecase.NewDispatcher(notificationRepo, userRepo, notifier, inApp, cfg.NotificationIcon, logger)
	monitor := usecase.NewMonitor(evaluator, dispatcher, logger)

	userUC := usecase.NewUserUsecase(userRepo, notifier, auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL))
	alertUC := usecase.NewAlertUsecase(alertRepo)
	notificationUC := usecase.NewNotificationUsecase(notificationRepo, dispatcher)

	handlers := telegram.NewHandlers(api, userUC, alertUC, monitor, logger)
	bot := telegram.NewBot(api, handlers, cfg.TelegramPollTimeout)
	server := web.NewServer(userUC, alertUC, monitor, notificationUC, hub, web.Options{
		PollInterval: cfg.PollInterval,
		AdminToken:   cfg.AdminToken,
	}, logger)

	logger.Info("pricewatch configured",
		zap.String("trigger_policy", cfg.TriggerPolicy),
		zap.String("notification_store", cfg.NotificationStore),
		zap.String("inapp_fanout", cfg.InAppFanout),
		zap.Duration("poll_interval", cfg.PollInterval),
	)

	return &App{bot: bot, server: server, listener: listener, httpAddr: cfg.HTTPAddr, logger: logger, cleanupFn: stores.closeAll}, nil
}

// failInit releases whatever New already opened and returns err.
func failInit(stores closers, logger *zap.Logger, err error) (*App, error) {
	if cerr := stores.closeAll(); cerr != nil && logger != nil {
		logger.Warn("failed to close stores after init error", zap.Error(cerr))
	}
	return nil, err
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("pricewatch service starting")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.server.Run(groupCtx, a.httpAddr)
	})
	group.Go(func() error {
		return a.bot.Start(groupCtx)
	})
	if a.listener != nil {
		group.Go(func() error {
			return a.listener.Run(groupCtx)
		})
	}

	a.logger.Info("pricewatch service started")
	return group.Wait()
}

func (a *App) Shutdown() {
	a.logger.Info("pricewatch service shutting down")
	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close stores", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
