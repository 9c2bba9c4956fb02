// Package service assembles the outreach engine, the dispatch pipeline and
// storage into one runnable unit that backs the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/okian/talentflow/internal/adapters/mq/queue"
	workerpool "github.com/okian/talentflow/internal/adapters/mq/worker"
	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/adapters/repository/sqlite"
	"github.com/okian/talentflow/internal/adapters/transport"
	"github.com/okian/talentflow/internal/config"
	"github.com/okian/talentflow/internal/domain/dedupe"
	"github.com/okian/talentflow/internal/domain/outreach"
	"github.com/okian/talentflow/internal/scheduler"
	"github.com/okian/talentflow/internal/seed"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/okian/talentflow/pkg/metrics"
)

// Service runs the scheduler and the worker pool over one store and exposes
// the outreach engine for synchronous calls.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	ownsStore  bool
	engine     *outreach.Engine
	queue      *eventqueue.InMemoryQueue
	inflight   dedupe.Deduper
	pool       *workerpool.Pool
	scheduler  *scheduler.Scheduler
	transport  transport.Transport
	engineOpts []outreach.Option

	// Configuration
	workerCount  int
	queueSize    int
	inflightSize int
	tickInterval time.Duration
	driver       string
	sqlitePath   string
	seedPath     string

	// State
	started       bool
	seeded        seed.Summary
	stopScheduler context.CancelFunc
	schedulerDone chan struct{}
	stopWorkers   context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 4,
		queueSize:    10_000,
		inflightSize: 50_000,
		tickInterval: time.Minute,
		driver:       config.DriverMemory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens storage, applies the seed file and starts the scheduler and
// workers. Background loops outlive ctx; call Stop to end them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting outreach service...")

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
		s.ownsStore = true
	}

	if s.seedPath != "" {
		doc, err := seed.ReadFile(s.seedPath)
		if err != nil {
			s.closeStore(ctx)
			return err
		}
		sum, err := seed.Apply(ctx, s.store, doc, time.Now())
		if err != nil {
			s.closeStore(ctx)
			return fmt.Errorf("apply seed %s: %w", s.seedPath, err)
		}
		s.seeded = sum
		s.logger.Info(ctx, "seed applied",
			logger.String("path", s.seedPath),
			logger.Int("talents", sum.Talents),
			logger.Int("campaigns", sum.Campaigns),
			logger.Int("enrollments", sum.Enrollments),
		)
	}

	tr := s.transport
	if tr == nil {
		tr = transport.NewRouter(transport.NewLogTransport(s.logger.Named("transport")))
	}
	engineOpts := append([]outreach.Option{outreach.WithLogger(s.logger.Named("outreach"))}, s.engineOpts...)
	s.engine = outreach.New(s.store, tr, engineOpts...)

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.inflight = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.inflightSize))
	s.scheduler = scheduler.New(s.store, s.queue, s.inflight,
		scheduler.WithInterval(s.tickInterval),
		scheduler.WithLogger(s.logger.Named("scheduler")),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.engine,
		workerpool.WithLogger(s.logger.Named("worker")),
		workerpool.WithOnDone(s.scheduler.Release),
	)

	base := context.WithoutCancel(ctx)
	workerCtx, stopWorkers := context.WithCancel(base)
	s.stopWorkers = stopWorkers
	s.pool.Start(workerCtx)

	schedCtx, stopScheduler := context.WithCancel(base)
	s.stopScheduler = stopScheduler
	s.schedulerDone = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		if err := s.scheduler.Run(schedCtx); err != nil {
			s.logger.Error(schedCtx, "scheduler exited", logger.Error(err))
		}
	}(s.schedulerDone)

	s.started = true
	s.logger.Info(ctx, "outreach service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("inflightSize", s.inflightSize),
		logger.Duration("tickInterval", s.tickInterval),
		logger.String("storage", s.driver),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	switch s.driver {
	case config.DriverMemory, "":
		return repository.NewMemoryStore(), nil
	case config.DriverSQLite:
		st, err := sqlite.Open(ctx, s.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.sqlitePath))
		return st, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorage, s.driver)
	}
}

func (s *Service) closeStore(ctx context.Context) {
	if !s.ownsStore {
		return
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Error(ctx, "error closing store", logger.Error(err))
		}
	}
	s.store = nil
	s.ownsStore = false
}

// Stop stops scheduling, lets the workers drain queued jobs until ctx is
// done and closes storage the service opened.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping outreach service...")

	s.stopScheduler()
	select {
	case <-s.schedulerDone:
	case <-ctx.Done():
	}

	err := s.pool.Shutdown(ctx)
	s.stopWorkers()
	s.closeStore(ctx)

	s.started = false
	s.logger.Info(ctx, "outreach service stopped")
	return err
}

// Engine returns the outreach engine. It is nil until Start succeeds.
func (s *Service) Engine() *outreach.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Store returns the backing store. It is nil until Start succeeds.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Tick runs one scheduling pass immediately.
func (s *Service) Tick(ctx context.Context) (scheduler.TickResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return scheduler.TickResult{}, ErrNotStarted
	}
	return s.scheduler.Tick(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"inflightSize": s.inflightSize,
		"storage":      s.driver,
		"tickInterval": s.tickInterval.String(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		inflight := s.inflight.Size()

		stats["queueLength"] = queueLen
		stats["inflight"] = inflight
		stats["workers"] = s.pool.Size()
		stats["failedJobs"] = s.pool.Failed()
		stats["seeded"] = map[string]int{
			"talents":     s.seeded.Talents,
			"campaigns":   s.seeded.Campaigns,
			"enrollments": s.seeded.Enrollments,
		}

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateInflight(int(inflight))
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}
