package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JamshedLatipov/crm-sub002/internal/email"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	"github.com/JamshedLatipov/crm-sub002/internal/notification"
	notificationsvc "github.com/JamshedLatipov/crm-sub002/internal/notification/service"
	"github.com/JamshedLatipov/crm-sub002/internal/scheduler"
	"github.com/JamshedLatipov/crm-sub002/platform/config"
	"github.com/JamshedLatipov/crm-sub002/platform/db"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The scheduler binary runs the asynq worker that fires due follow-up
// reminders, plus the notification outbox flusher so reminders raised here
// reach their channels without the API process.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	emailSender := email.NewSMTPSender(cfg)
	var notificationSender notificationsvc.EmailSender
	if emailSender != nil {
		notificationSender = emailSender
	}

	notificationModule := notification.NewModule(pool, notificationSender, cfg, log)
	notificationModule.SubscribeEvents(eventBus)
	notificationModule.StartFlusher()
	defer notificationModule.StopFlusher()

	worker, err := scheduler.NewWorker(cfg, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
