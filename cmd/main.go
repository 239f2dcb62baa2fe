package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/account"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/dedup"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/customer-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/jobs"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/password"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/seller"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/store"
)

const limiterCleanupSchedule = "@every 10m"

// backend bundles the stores chosen by STORE_BACKEND.
type backend struct {
	uow         store.UnitOfWork
	sessions    session.Repository
	orders      order.Repository
	sellers     seller.Repository
	sequence    events.Sequencer
	checkpoints dedup.Repository
	health      func(ctx context.Context) error
	close       func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger := logging.New("customer-service", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("open store")
	}
	defer be.close()

	hasher := password.NewBcrypt(cfg.BcryptCost)
	sessions := session.NewManager(be.sessions, cfg.SessionTTL, logger)

	// RabbitMQ is optional. Without it no events are published or consumed.
	var sink account.Events
	if cfg.RabbitMQURL != "" {
		conn, err := events.Dial(cfg.RabbitMQURL)
		if err != nil {
			logger.WithError(err).Fatal("dial rabbitmq")
		}
		defer conn.Close()

		publisher, err := events.NewPublisher(conn, be.sequence, logger)
		if err != nil {
			logger.WithError(err).Fatal("create publisher")
		}
		defer publisher.Close()
		sink = publisher

		if err := events.StartConsumers(ctx, conn, logger, events.OrderBindings(be.orders, be.checkpoints, logger)...); err != nil {
			logger.WithError(err).Fatal("start consumers")
		}
	} else {
		logger.Warn("RABBITMQ_URL not set, events disabled")
	}

	accounts := account.NewService(be.uow, be.orders, sessions, hasher, sink, logger)
	sellers := seller.NewService(be.sellers, sessions, hasher, logger)
	limiter := httpapi.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst, logger)

	scheduler := jobs.NewScheduler(logger)
	if err := scheduler.Add("session-sweep", cfg.SweepSchedule, jobs.SessionSweep(sessions)); err != nil {
		logger.WithError(err).Fatal("schedule session sweep")
	}
	if err := scheduler.Add("limiter-cleanup", limiterCleanupSchedule, jobs.LimiterCleanup(limiter, cfg.LoginRateIdle)); err != nil {
		logger.WithError(err).Fatal("schedule limiter cleanup")
	}
	scheduler.Start()

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Accounts:     accounts,
			Sellers:      sellers,
			Logger:       logger,
			AllowOrigins: cfg.AllowedOrigins(),
			Limiter:      limiter,
			Health:       be.health,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "backend": cfg.StoreBackend}).Info("customer-service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	scheduler.Stop(shutdownCtx)
}

func openBackend(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*backend, error) {
	if cfg.StoreBackend == config.BackendMemory {
		sessionRepo := session.NewMemoryRepository()
		logger.Warn("using in-memory store, data is lost on restart")
		return &backend{
			uow:         store.NewMemory(customer.NewMemoryRepository(), sessionRepo),
			sessions:    sessionRepo,
			orders:      order.NewMemoryRepository(),
			sellers:     seller.NewMemoryRepository(),
			sequence:    events.NewMemorySequence(),
			checkpoints: dedup.NewMemoryRepository(),
			close:       func() {},
		}, nil
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return nil, err
		}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &backend{
		uow:         store.NewPostgres(pool),
		sessions:    session.NewPostgresRepository(pool),
		orders:      order.NewRepository(sqlDB),
		sellers:     seller.NewPostgresRepository(pool),
		sequence:    events.NewSequenceRepository(pool),
		checkpoints: dedup.NewRepository(sqlDB),
		health:      pool.Ping,
		close: func() {
			_ = sqlDB.Close()
			pool.Close()
		},
	}, nil
}
