// Package scheduler periodically turns campaign enrollments into dispatch
// jobs for the worker pool.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/talentflow/internal/domain/dedupe"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/okian/talentflow/pkg/metrics"
)

const defaultInterval = time.Minute

// ErrAlreadyRunning is returned when Run is called twice.
var ErrAlreadyRunning = errors.New("scheduler already running")

// Source lists the pairs to consider on each tick.
type Source interface {
	ListActiveCampaigns(ctx context.Context) ([]model.Campaign, error)
	ListEnrollments(ctx context.Context, campaignID string) ([]model.Enrollment, error)
}

// Queue accepts dispatch jobs without blocking.
type Queue interface {
	Enqueue(ctx context.Context, j model.Dispatch) bool
}

// TickResult summarizes one tick.
type TickResult struct {
	Campaigns int
	Enqueued  int
	// InFlight counts pairs skipped because a job for them is pending.
	InFlight int
	// Dropped counts pairs the queue rejected; they are retried next tick.
	Dropped int
	Errors  int
}

// Scheduler enqueues one job per enrolled pair of every active campaign,
// never more than one pending job per pair.
type Scheduler struct {
	source   Source
	queue    Queue
	inflight dedupe.Deduper

	interval time.Duration
	now      func() time.Time
	log      logger.Logger

	running chan struct{}
}

// New creates a Scheduler.
func New(source Source, q Queue, inflight dedupe.Deduper, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		queue:    q,
		inflight: inflight,
		interval: defaultInterval,
		now:      time.Now,
		log:      logger.Get().Named("scheduler"),
		running:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks immediately and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	select {
	case s.running <- struct{}{}:
	default:
		return ErrAlreadyRunning
	}
	defer func() { <-s.running }()

	s.log.Info(ctx, "scheduler started", logger.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			s.log.Error(ctx, "scheduler tick failed", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one scheduling pass. Failures for one campaign are logged and
// counted; only a failure to list campaigns fails the tick.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, error) {
	start := time.Now()
	var res TickResult
	defer func() {
		metrics.RecordSchedulerTick(float64(time.Since(start).Milliseconds()), res.Enqueued, res.InFlight+res.Dropped)
		metrics.UpdateInflight(int(s.inflight.Size()))
	}()

	campaigns, err := s.source.ListActiveCampaigns(ctx)
	if err != nil {
		metrics.RecordSchedulerError()
		return res, fmt.Errorf("list active campaigns: %w", err)
	}
	res.Campaigns = len(campaigns)

	now := s.now()
	for _, c := range campaigns {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		enrollments, err := s.source.ListEnrollments(ctx, c.ID)
		if err != nil {
			res.Errors++
			metrics.RecordSchedulerError()
			s.log.Warn(ctx, "list enrollments failed", logger.String("campaign_id", c.ID), logger.Error(err))
			continue
		}
		// Exhausted and abandoned pairs are enqueued too. Their decision is
		// recomputed from the campaign steps and history, both of which can
		// change, and settling them costs one read and no send.
		for _, e := range enrollments {
			job := model.Dispatch{CampaignID: c.ID, TalentID: e.TalentID, EnqueuedAt: now}
			if s.inflight.SeenAndRecord(ctx, job.Key()) {
				res.InFlight++
				continue
			}
			if !s.queue.Enqueue(ctx, job) {
				s.inflight.Unrecord(ctx, job.Key())
				res.Dropped++
				continue
			}
			res.Enqueued++
		}
	}

	if res.Dropped > 0 {
		s.log.Warn(ctx, "queue rejected dispatch jobs", logger.Int("dropped", res.Dropped))
	}
	s.log.Debug(ctx, "scheduler tick",
		logger.Int("campaigns", res.Campaigns),
		logger.Int("enqueued", res.Enqueued),
		logger.Int("in_flight", res.InFlight),
	)
	return res, nil
}

// Release marks a job finished so its pair can be scheduled again. Wire it
// as the worker pool's done hook.
func (s *Scheduler) Release(job model.Dispatch) {
	s.inflight.Unrecord(context.Background(), job.Key())
	metrics.UpdateInflight(int(s.inflight.Size()))
}
