package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/adapters"
	"github.com/JamshedLatipov/crm-sub002/internal/automation"
	"github.com/JamshedLatipov/crm-sub002/internal/deals"
	"github.com/JamshedLatipov/crm-sub002/internal/email"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	"github.com/JamshedLatipov/crm-sub002/internal/history"
	apphttp "github.com/JamshedLatipov/crm-sub002/internal/http"
	"github.com/JamshedLatipov/crm-sub002/internal/http/router"
	"github.com/JamshedLatipov/crm-sub002/internal/leads"
	"github.com/JamshedLatipov/crm-sub002/internal/notification"
	notificationsvc "github.com/JamshedLatipov/crm-sub002/internal/notification/service"
	"github.com/JamshedLatipov/crm-sub002/internal/pipeline"
	"github.com/JamshedLatipov/crm-sub002/internal/scheduler"
	"github.com/JamshedLatipov/crm-sub002/platform/config"
	"github.com/JamshedLatipov/crm-sub002/platform/db"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"
	"github.com/JamshedLatipov/crm-sub002/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	reminderClient, closeScheduler := initReminderClient(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// Nil when email is disabled; the notification outbox then holds rows.
	emailSender := email.NewSMTPSender(cfg)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	historyModule := history.NewModule(pool, cfg, log)
	pipelineModule := pipeline.NewModule(pool, val, log)
	dealsModule := deals.NewModule(pool, pipelineModule.Service(), historyModule.Service(), eventBus, val, log)
	leadsModule := leads.NewModule(pool, historyModule.Service(), reminderClient, eventBus, val, log)

	// Assign only a non-nil pointer so the interface stays nil when email is
	// disabled.
	var notificationSender notificationsvc.EmailSender
	if emailSender != nil {
		notificationSender = emailSender
	}
	notificationModule := notification.NewModule(pool, notificationSender, cfg, log)
	notificationModule.SubscribeEvents(eventBus)

	automationModule := automation.NewModule(automation.Deps{
		Pool:       pool,
		Deals:      adapters.NewAutomationDealActions(dealsModule.Service()),
		Leads:      adapters.NewAutomationLeadActions(leadsModule.Service()),
		DealReader: adapters.NewDealSnapshotReader(dealsModule.Service()),
		LeadReader: adapters.NewLeadSnapshotReader(leadsModule.Service()),
		Notifier:   adapters.NewAutomationNotifier(notificationModule.Service()),
		Reminders:  adapters.NewAutomationReminders(reminderClient),
		Activity:   adapters.NewAutomationActivityLog(historyModule.Service()),
		Config:     cfg,
		Validator:  val,
		Logger:     log,
	})
	automationModule.SubscribeEvents(eventBus)

	// Background jobs
	automationModule.StartScheduler()
	defer automationModule.StopScheduler()
	notificationModule.StartFlusher()
	defer notificationModule.StopFlusher()
	historyModule.StartCleanup()
	defer historyModule.StopCleanup()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			pipelineModule,
			dealsModule,
			leadsModule,
			historyModule,
			automationModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initReminderClient returns a nil client when redis is not configured;
// follow-up scheduling then degrades to a warn-and-skip no-op.
func initReminderClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up reminders disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
