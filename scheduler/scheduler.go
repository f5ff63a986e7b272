// Package scheduler owns the recurring aggregation timer. One instance per
// process; all state lives on the struct, nothing is package level.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/aggregator"
	"github.com/zmart-protocol/vote-backend/types"
)

const defaultInterval = 5 * time.Minute

type Status struct {
	IsRunning           bool `json:"isRunning"`
	ProposalCycleActive bool `json:"proposalCycleActive"`
	DisputeCycleActive  bool `json:"disputeCycleActive"`
}

// flight serializes aggregation cycles for one kind. The mutex is the
// single-flight guard, the counter only makes in-flight cycles observable.
type flight struct {
	mu     sync.Mutex
	active int32
}

type Scheduler struct {
	service  *aggregator.Service
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}

	proposal flight
	dispute  flight
}

func New(service *aggregator.Service, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		service:  service,
		interval: interval,
		logger:   logger.With(zap.String("service", "scheduler")),
	}
}

// Start fires one aggregation cycle for both kinds immediately, then arms the
// recurring timer. Calling Start while running is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	go s.loop(s.stopCh)
}

// Stop cancels the timer. An in-flight cycle is not aborted, only new cycles
// are prevented. Calling Stop while stopped is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return Status{
		IsRunning:           running,
		ProposalCycleActive: atomic.LoadInt32(&s.proposal.active) == 1,
		DisputeCycleActive:  atomic.LoadInt32(&s.dispute.active) == 1,
	}
}

// TriggerImmediate runs one cycle for both kinds synchronously, waiting for
// any in-flight scheduled cycle of the same kind to finish first.
func (s *Scheduler) TriggerImmediate(ctx context.Context) (map[types.VoteKind][]*types.AggregationResult, error) {
	results := make(map[types.VoteKind][]*types.AggregationResult, 2)

	proposalResults, err := s.runKind(ctx, types.KindProposal, true)
	if err != nil {
		return nil, err
	}
	results[types.KindProposal] = proposalResults

	disputeResults, err := s.runKind(ctx, types.KindDispute, true)
	if err != nil {
		return nil, err
	}
	results[types.KindDispute] = disputeResults
	return results, nil
}

func (s *Scheduler) loop(stopCh chan struct{}) {
	s.runCycle()
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-t.C:
			s.runCycle()
		}
	}
}

// runCycle is the timer-driven path. Errors are logged, never propagated: a
// failing cycle must not kill the timer. A kind whose previous cycle is still
// in flight is skipped, not queued.
func (s *Scheduler) runCycle() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("aggregation cycle panicked", zap.Any("panic", r))
		}
	}()

	ctx := context.Background()
	if _, err := s.runKind(ctx, types.KindProposal, false); err != nil {
		s.logger.Error("proposal aggregation cycle failed", zap.Error(err))
	}
	if _, err := s.runKind(ctx, types.KindDispute, false); err != nil {
		s.logger.Error("dispute aggregation cycle failed", zap.Error(err))
	}
}

func (s *Scheduler) runKind(ctx context.Context, kind types.VoteKind, wait bool) ([]*types.AggregationResult, error) {
	f := &s.proposal
	if kind == types.KindDispute {
		f = &s.dispute
	}

	if wait {
		f.mu.Lock()
	} else if !f.mu.TryLock() {
		s.logger.Warn("previous cycle still running, skipping tick",
			zap.String("kind", string(kind)))
		return nil, nil
	}
	defer f.mu.Unlock()

	atomic.StoreInt32(&f.active, 1)
	defer atomic.StoreInt32(&f.active, 0)

	if kind == types.KindDispute {
		return s.service.ProcessDisputeVotes(ctx)
	}
	return s.service.ProcessProposalVotes(ctx)
}
