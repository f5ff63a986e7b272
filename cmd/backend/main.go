package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/labstack/echo"
	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/aggregator"
	"github.com/zmart-protocol/vote-backend/api"
	"github.com/zmart-protocol/vote-backend/cache"
	"github.com/zmart-protocol/vote-backend/cfg"
	"github.com/zmart-protocol/vote-backend/db"
	"github.com/zmart-protocol/vote-backend/ledger"
	"github.com/zmart-protocol/vote-backend/scheduler"
	"github.com/zmart-protocol/vote-backend/server"
	"github.com/zmart-protocol/vote-backend/signature"
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

	logger, err := newLogger(serviceCfg)
	if err != nil {
		panic("cannot init logger")
	}
	logger.Info("Start vote bridge...")

	defer func() {
		if err := recover(); err != nil {
			logger.Error("cannot recover")
		}
		if err := logger.Sync(); err != nil {
			logger.Error("cannot sync log")
		}
	}()

	if err := setupSentry(serviceCfg); err != nil {
		panic(err)
	}
	defer sentry.Flush(2 * time.Second)

	cacheClient, err := cache.New(cache.Config{
		Adapter: cache.Adapter(serviceCfg.CacheEngine),
		URL:     serviceCfg.CacheURL,
		DB:      serviceCfg.CacheDB,
		IsFlush: serviceCfg.CacheIsFlush,
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

	votes := server.New().
		SetVerifier(signature.NewVerifier()).
		SetCache(cacheClient).
		SetLogger(logger.With(zap.String("service", "votes")))

	aggCfg := aggregator.Config{
		Cache:  cacheClient,
		Ledger: ledgerClient,
		Thresholds: types.ThresholdConfig{
			ProposalApprovalPct: serviceCfg.ProposalApprovalPct,
			DisputeSupportPct:   serviceCfg.DisputeSupportPct,
			MinVotesRequired:    serviceCfg.MinVotesRequired,
		},
		SettlementTimeout: serviceCfg.SettlementTimeout,
		Logger:            logger,
	}

	var dbClient db.Client
	if serviceCfg.StorageURI != "" {
		dbClient, err = db.NewClient(db.Config{
			DbAdapter: db.Adapter(serviceCfg.StorageDriver),
			DbName:    serviceCfg.StorageDB,
			URL:       serviceCfg.StorageURI,
			MinConn:   1,
			MaxConn:   4,
			Logger:    logger,
		})
		if err != nil {
			logger.Panic("cannot create storage client", zap.Error(err))
		}
		aggCfg.Storage = dbClient
	}

	svc := aggregator.New(aggCfg)
	sched := scheduler.New(svc, serviceCfg.AggregationInterval, logger)
	sched.Start()

	srv := api.NewServer().
		SetSecret(serviceCfg.HttpRequestSecret).
		SetVotes(votes).
		SetScheduler(sched).
		SetStorage(dbClient).
		SetLogger(logger.With(zap.String("service", "api")))

	e := echo.New()
	go func() {
		api.Start(e, srv, serviceCfg)
	}()

	// Wait for interrupt signal to gracefully shutdown the server.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	waitExit := make(chan bool)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for range sigCh {
			sched.Stop()
			cancel()
			if err := e.Shutdown(ctx); err != nil {
				logger.Error("cannot shutdown echo server", zap.Error(err))
			}
			waitExit <- true
		}
	}()
	<-waitExit
}

func setupSentry(cfg cfg.BridgeConfig) error {
	opts := sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.ServerMode,
	}
	if err := sentry.Init(opts); err != nil {
		return err
	}
	return nil
}
