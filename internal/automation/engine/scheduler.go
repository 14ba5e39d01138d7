package engine

import (
	"context"
	"sync"
	"time"

	"github.com/JamshedLatipov/crm-sub002/platform/logger"
)

// PeriodicScheduler fires the time-based trigger on a fixed interval. Ticks
// never overlap: when a run is still in flight the next tick is skipped
// instead of queued.
type PeriodicScheduler struct {
	dispatcher *Dispatcher
	interval   time.Duration
	log        *logger.Logger

	running sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	started bool
}

// NewPeriodicScheduler creates a scheduler that runs time-based rules every
// interval.
func NewPeriodicScheduler(dispatcher *Dispatcher, interval time.Duration, log *logger.Logger) *PeriodicScheduler {
	return &PeriodicScheduler{
		dispatcher: dispatcher,
		interval:   interval,
		log:        log,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the tick loop. Calling Start more than once is a no-op.
func (s *PeriodicScheduler) Start() {
	if s.started {
		return
	}
	s.started = true

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.log.Info("time-based rule scheduler started", "interval", s.interval.String())
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Tick(context.Background())
			}
		}
	}()
}

// Stop halts the tick loop and waits for an in-flight run to finish.
func (s *PeriodicScheduler) Stop() {
	if !s.started {
		return
	}
	close(s.stop)
	<-s.done
	s.running.Lock()
	s.running.Unlock()
	s.log.Info("time-based rule scheduler stopped")
}

// Tick runs one time-based dispatch pass, skipping when a previous pass is
// still running.
func (s *PeriodicScheduler) Tick(ctx context.Context) {
	if !s.running.TryLock() {
		s.log.Warn("time-based rule run still in progress, skipping tick")
		return
	}
	defer s.running.Unlock()

	s.dispatcher.RunTimeBasedTick(ctx)
}
