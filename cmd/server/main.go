package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/apiclient"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/backoffice"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/booking"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/catalog"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/config"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/customer"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/database"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/handler"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/middleware"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/queue"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/repository"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/router"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/session"
)

func newLogger(env string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if env == "prod" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

func main() {
	cfg := config.Load()
	log := newLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	var drafts booking.DraftStore
	if rdb != nil {
		defer rdb.Close()
		drafts = booking.NewRedisDraftStore(rdb, cfg.Booking.DraftTTL)
	} else {
		log.Warn("redis unreachable: drafts kept in memory, cache and rate limiting off")
		drafts = booking.NewMemoryDraftStore(cfg.Booking.DraftTTL)
	}

	var pub queue.Publisher = queue.NopPublisher{}
	if cfg.RabbitURL != "" {
		amqpPub := queue.NewAMQPPublisher(cfg.RabbitURL, log)
		defer amqpPub.Close()
		pub = amqpPub
	} else {
		log.Warn("RABBITMQ_URL not set: domain events disabled")
	}

	client := apiclient.New(cfg.BackendURL, cfg.BackendTimeout)
	sessions := repository.NewSessionRepo(db)
	journal := repository.NewSubmissionRepo(db)
	favorites := repository.NewFavoriteRepo(db)

	mgr := session.NewManager(client, sessions, cfg.JWTSecret, cfg.SessionTTL, log)
	client.OnUnauthorized = mgr.ForceLogout

	rooms := catalog.NewReader(client)
	orch := booking.NewOrchestrator(client, rooms, drafts, journal, pub,
		booking.SimulatedVerifier{Delay: cfg.Booking.VerifyDelay},
		booking.Config{MaxNights: cfg.Booking.MaxNights}, log)
	reconciler := booking.NewReconciler(client, journal, cfg.ServiceToken, cfg.Booking.ReconcileAttempts, log)
	self := customer.NewService(client, rooms, favorites, log)
	lifecycle := backoffice.NewLifecycle(client, pub, log)
	registry := backoffice.NewManager(client, log)

	// Background workers.
	go reconciler.Run(ctx, cfg.Booking.ReconcileEvery)
	go purgeSessions(ctx, sessions, log)
	if cfg.RabbitURL != "" {
		bookingLog := queue.NewBookingLog(cfg.LogDir)
		consumer := queue.NewConsumer(cfg.RabbitURL, log)
		consumer.Handle(queue.CheckoutCompletedKey, bookingLog.CheckoutCompleted)
		consumer.Handle(queue.StatusChangedKey, bookingLog.StatusChanged)
		consumer.Handle(queue.DetailFailedKey, queue.ReconcileOnDetailFailure(reconciler))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("event consumer stopped")
			}
		}()
	}

	cacheCfg := config.LoadCacheConfig()
	guards := router.Guards{
		Sessions: mgr,
		Cache:    middleware.NewRedisCache(cacheCfg, rdb),
		Limit:    middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
	}
	purge := func(ctx context.Context) error { return middleware.PurgeCache(ctx, cacheCfg, rdb) }

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	e.Use(echoMw.Recover())
	e.Use(middleware.RequestLogger(log))

	checks := []handler.Check{{Name: "mysql", Ping: db.PingContext}}
	if rdb != nil {
		checks = append(checks, handler.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }})
	}
	router.RegisterHealth(e, checks...)
	router.RegisterAuth(e, guards, handler.NewAuthHandler(mgr, cfg.Env == "prod"))
	router.RegisterCatalog(e, guards, handler.NewCatalogHandler(rooms))
	router.RegisterCustomer(e, guards, handler.NewCheckoutHandler(orch), handler.NewCustomerHandler(self))
	router.RegisterBackoffice(e, guards, handler.NewBackofficeHandler(lifecycle, registry, purge, log))

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	log.Info("stopped")
}

// purgeSessions drops sessions that expired more than a day ago.
func purgeSessions(ctx context.Context, repo *repository.SessionRepo, log *logrus.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.PurgeExpired(ctx, time.Now().Add(-24*time.Hour))
			if err != nil {
				log.WithError(err).Warn("session purge failed")
				continue
			}
			if n > 0 {
				log.WithField("rows", n).Info("expired sessions purged")
			}
		}
	}
}
