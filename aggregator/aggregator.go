// Package aggregator tallies every open subject of a vote kind and settles
// the ones that meet threshold to the ledger.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/cache"
	"github.com/zmart-protocol/vote-backend/ledger"
	"github.com/zmart-protocol/vote-backend/tally"
	"github.com/zmart-protocol/vote-backend/types"
)

const defaultSettlementTimeout = 90 * time.Second

// SettlementLog records accepted settlements for audit. db.Client satisfies it.
type SettlementLog interface {
	InsertSettlement(ctx context.Context, settlement *types.Settlement) error
}

type Config struct {
	Cache   cache.Client
	Ledger  ledger.Client
	Storage SettlementLog // optional settlement audit log

	Thresholds        types.ThresholdConfig
	SettlementTimeout time.Duration

	Logger *zap.Logger
}

type Service struct {
	cache   cache.Client
	ledger  ledger.Client
	storage SettlementLog

	thresholds        types.ThresholdConfig
	settlementTimeout time.Duration

	logger *zap.Logger
}

func New(cfg Config) *Service {
	timeout := cfg.SettlementTimeout
	if timeout <= 0 {
		timeout = defaultSettlementTimeout
	}
	return &Service{
		cache:             cfg.Cache,
		ledger:            cfg.Ledger,
		storage:           cfg.Storage,
		thresholds:        cfg.Thresholds,
		settlementTimeout: timeout,
		logger:            cfg.Logger.With(zap.String("service", "aggregator")),
	}
}

func (s *Service) ProcessProposalVotes(ctx context.Context) ([]*types.AggregationResult, error) {
	return s.process(ctx, types.KindProposal)
}

func (s *Service) ProcessDisputeVotes(ctx context.Context) ([]*types.AggregationResult, error) {
	return s.process(ctx, types.KindDispute)
}

// process runs one aggregation pass for a kind. A subject's failure is
// isolated into its result; an unreachable store fails the whole pass so
// callers can tell "no open subjects" from "store down".
func (s *Service) process(ctx context.Context, kind types.VoteKind) ([]*types.AggregationResult, error) {
	subjects, err := s.cache.Subjects(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrStoreUnavailable, err)
	}

	results := make([]*types.AggregationResult, 0, len(subjects))
	for _, subjectID := range subjects {
		results = append(results, s.processSubject(ctx, kind, subjectID))
	}
	s.logger.Info("aggregation pass finished",
		zap.String("kind", string(kind)),
		zap.Int("subjects", len(results)))
	return results, nil
}

func (s *Service) processSubject(ctx context.Context, kind types.VoteKind, subjectID string) *types.AggregationResult {
	result := &types.AggregationResult{
		SubjectID: subjectID,
		Kind:      kind,
		Action:    types.ActionNone,
	}

	votes, err := s.cache.Snapshot(ctx, kind, subjectID)
	if err != nil {
		result.Error = err.Error()
		s.logger.Error("cannot snapshot votes",
			zap.String("kind", string(kind)),
			zap.String("subject", subjectID),
			zap.Error(err))
		return result
	}

	result.Tally = tally.Count(kind, votes)
	result.ThresholdMet, result.Action = tally.Decide(kind, result.Tally, s.thresholds)
	if !result.ThresholdMet {
		// votes stay in the store for the next cycle
		result.Success = true
		return result
	}

	txID, err := s.settle(ctx, kind, subjectID, result.Tally)
	if err != nil {
		// keep the vote set; the subject is retried next cycle
		result.Error = err.Error()
		s.logger.Error("settlement failed",
			zap.String("kind", string(kind)),
			zap.String("subject", subjectID),
			zap.Error(err))
		return result
	}
	result.SettlementTx = txID
	result.Success = true

	// A vote arriving between Snapshot and Clear is lost: it is counted
	// neither in the settled tally nor in a later one. Accepted tradeoff.
	if err := s.cache.Clear(ctx, kind, subjectID); err != nil {
		s.logger.Error("settled but cannot clear votes, subject will re-settle",
			zap.String("kind", string(kind)),
			zap.String("subject", subjectID),
			zap.String("tx", txID),
			zap.Error(err))
	}

	s.recordSettlement(ctx, result)
	return result
}

func (s *Service) settle(ctx context.Context, kind types.VoteKind, subjectID string, t *types.Tally) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.settlementTimeout)
	defer cancel()
	return s.ledger.Settle(ctx, kind, subjectID,
		uint32(t.Counts[kind.PositiveChoice()]),
		uint32(t.Counts[kind.NegativeChoice()]))
}

// recordSettlement writes the audit-log entry. Best effort: the ledger is
// already authoritative, a log failure must not fail the cycle.
func (s *Service) recordSettlement(ctx context.Context, result *types.AggregationResult) {
	if s.storage == nil {
		return
	}
	kind := result.Kind
	settlement := &types.Settlement{
		SubjectID:   result.SubjectID,
		Kind:        kind,
		Positive:    result.Tally.Counts[kind.PositiveChoice()],
		Negative:    result.Tally.Counts[kind.NegativeChoice()],
		TotalVotes:  result.Tally.TotalVotes,
		PositivePct: result.Tally.PositivePct,
		Action:      result.Action,
		TxID:        result.SettlementTx,
		SettledAt:   time.Now(),
	}
	if err := s.storage.InsertSettlement(ctx, settlement); err != nil {
		s.logger.Warn("cannot record settlement",
			zap.String("subject", result.SubjectID),
			zap.Error(err))
	}
}
