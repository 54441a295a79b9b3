package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/config"
	"github.com/mamadbah2/salonpos/internal/domain/models"
	"github.com/mamadbah2/salonpos/internal/repository/mongodb"
	"github.com/mamadbah2/salonpos/internal/scheduler"
	"github.com/mamadbah2/salonpos/internal/server/handlers"
	"github.com/mamadbah2/salonpos/internal/server/router"
	"github.com/mamadbah2/salonpos/internal/service/checkout"
	currencysvc "github.com/mamadbah2/salonpos/internal/service/currency"
	notificationsvc "github.com/mamadbah2/salonpos/internal/service/notifications"
	reportingsvc "github.com/mamadbah2/salonpos/internal/service/reporting"
	"github.com/mamadbah2/salonpos/internal/session"
	"github.com/mamadbah2/salonpos/internal/stock"
	"github.com/mamadbah2/salonpos/pkg/clients/backend"
	"github.com/mamadbah2/salonpos/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	backendClient := backend.NewClient(cfg.Backend)

	var store session.Store = session.NewMemoryStore()
	if cfg.Session.Store == config.SessionStoreMongoDB {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoRepo, err := mongodb.NewSessionRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb session store", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		store = mongoRepo
	}

	notificationSvc := notificationsvc.NewService(backendClient, baseLogger.Named("svc.notifications"))
	currencySvc := currencysvc.NewService(backendClient, cfg.Currency.Base, baseLogger.Named("svc.currency"))
	reportingSvc := reportingsvc.NewService(backendClient, baseLogger.Named("svc.reporting"))
	registry := checkout.NewRegistry(backendClient, baseLogger.Named("svc.checkout"))
	reconciler := stock.NewReconciler(backendClient, baseLogger.Named("stock.reconciler"))

	sched := scheduler.NewScheduler(location, baseLogger.Named("scheduler"))
	jobs := []scheduler.Job{
		{Name: "notifications.refresh", Schedule: cfg.Notifications.PollSchedule, Timeout: 20 * time.Second, RunOnStart: true, Run: notificationSvc.Refresh},
		{Name: "currency.refresh", Schedule: cfg.Currency.RefreshSchedule, Timeout: 30 * time.Second, RunOnStart: true, Run: currencySvc.Refresh},
	}
	for _, job := range jobs {
		if err := sched.Register(job); err != nil {
			baseLogger.Fatal("failed to register job", zap.String("job", job.Name), zap.Error(err))
		}
	}

	sessions := session.NewManager(store, backendClient, baseLogger.Named("session"))
	sessions.Subscribe(session.ListenerFuncs{
		Started: func(_ context.Context, user models.User) {
			baseLogger.Info("operator session started", zap.Int64("user_id", user.ID))
			sched.Start()
		},
		Ended: func() {
			sched.Stop()
			notificationSvc.Reset()
			registry.CloseAll()
			baseLogger.Info("operator session ended")
		},
	})

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	if err := sessions.Init(initCtx); err != nil {
		baseLogger.Warn("failed to restore session", zap.Error(err))
	}
	cancelInit()
	defer sessions.Dispose()

	engine := router.New(router.Handlers{
		Auth:          handlers.NewAuthHandler(sessions, baseLogger.Named("handlers.auth")),
		Checkout:      handlers.NewCheckoutHandler(registry, backendClient, baseLogger.Named("handlers.checkout")),
		Products:      handlers.NewProductHandler(backendClient, currencySvc, baseLogger.Named("handlers.products")),
		Stock:         handlers.NewStockHandler(backendClient, reconciler, baseLogger.Named("handlers.stock")),
		Notifications: handlers.NewNotificationHandler(notificationSvc, baseLogger.Named("handlers.notifications")),
		Reports:       handlers.NewReportHandler(reportingSvc, location, baseLogger.Named("handlers.reports")),
	}, sessions, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Backend.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
