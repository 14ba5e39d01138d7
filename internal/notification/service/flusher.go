package service

import (
	"context"
	"time"

	"github.com/JamshedLatipov/crm-sub002/platform/logger"
)

// Flusher periodically drains the email outbox.
type Flusher struct {
	svc      *Service
	interval time.Duration
	log      *logger.Logger

	stop    chan struct{}
	done    chan struct{}
	started bool
}

func NewFlusher(svc *Service, interval time.Duration, log *logger.Logger) *Flusher {
	return &Flusher{
		svc:      svc,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the flush loop. Calling Start more than once is a no-op.
func (f *Flusher) Start() {
	if f.started {
		return
	}
	f.started = true

	go func() {
		defer close(f.done)

		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		f.log.Info("notification flusher started", "interval", f.interval.String())
		for {
			select {
			case <-f.stop:
				return
			case <-ticker.C:
				if sent, err := f.svc.FlushEmails(context.Background()); err != nil {
					f.log.Error("notification flush failed", "error", err)
				} else if sent > 0 {
					f.log.Info("notifications flushed", "sent", sent)
				}
			}
		}
	}()
}

// Stop halts the flush loop.
func (f *Flusher) Stop() {
	if !f.started {
		return
	}
	close(f.stop)
	<-f.done
	f.log.Info("notification flusher stopped")
}
