// Package main runs a single aggregation pass for both vote kinds and prints
// the results. Operational tool for manual settlement outside the scheduler.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/aggregator"
	"github.com/zmart-protocol/vote-backend/cache"
	"github.com/zmart-protocol/vote-backend/cfg"
	"github.com/zmart-protocol/vote-backend/ledger"
	"github.com/zmart-protocol/vote-backend/types"
)

func main() {
	if err := godotenv.Load(); err != nil {
		panic(err.Error())
	}

	serviceCfg, err := cfg.New()
	if err != nil {
		panic(err.Error())
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("cannot init logger")
	}

	cacheClient, err := cache.New(cache.Config{
		Adapter: cache.Adapter(serviceCfg.CacheEngine),
		URL:     serviceCfg.CacheURL,
		DB:      serviceCfg.CacheDB,
		VoteTTL: serviceCfg.VoteTTL,
		Logger:  logger,
	})
	if err != nil {
		logger.Panic("cannot create cache client", zap.Error(err))
	}

	ledgerClient, err := ledger.NewClient(ledger.Config{
		RPCURL:       serviceCfg.LedgerRPC,
		ProgramID:    serviceCfg.LedgerProgramID,
		AuthorityKey: serviceCfg.BackendAuthorityKey,
		Logger:       logger,
	})
	if err != nil {
		logger.Panic("cannot create ledger client", zap.Error(err))
	}

	svc := aggregator.New(aggregator.Config{
		Cache:  cacheClient,
		Ledger: ledgerClient,
		Thresholds: types.ThresholdConfig{
			ProposalApprovalPct: serviceCfg.ProposalApprovalPct,
			DisputeSupportPct:   serviceCfg.DisputeSupportPct,
			MinVotesRequired:    serviceCfg.MinVotesRequired,
		},
		SettlementTimeout: serviceCfg.SettlementTimeout,
		Logger:            logger,
	})

	ctx := context.Background()
	failed := false

	proposalResults, err := svc.ProcessProposalVotes(ctx)
	if err != nil {
		logger.Error("proposal aggregation failed", zap.Error(err))
		failed = true
	}
	disputeResults, err := svc.ProcessDisputeVotes(ctx)
	if err != nil {
		logger.Error("dispute aggregation failed", zap.Error(err))
		failed = true
	}

	out, err := json.MarshalIndent(map[types.VoteKind][]*types.AggregationResult{
		types.KindProposal: proposalResults,
		types.KindDispute:  disputeResults,
	}, "", "  ")
	if err != nil {
		logger.Panic("cannot marshal results", zap.Error(err))
	}
	fmt.Println(string(out))

	if failed {
		os.Exit(1)
	}
}
