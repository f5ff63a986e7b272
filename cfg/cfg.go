// Package cfg
package cfg

import (
	"errors"
	"os"
	"strconv"
	"time"
)

const (
	ModeDev        = "dev"
	ModeProduction = "prod"
)

type BridgeConfig struct {
	ServerMode        string
	Port              string
	HttpRequestSecret string

	LogLevel  string
	SentryDSN string

	CacheEngine  string
	CacheURL     string
	CacheDB      int
	CacheIsFlush bool

	StorageDriver string
	StorageURI    string
	StorageDB     string

	LedgerRPC           string
	LedgerProgramID     string
	BackendAuthorityKey string

	ProposalApprovalPct int
	DisputeSupportPct   int
	MinVotesRequired    int

	AggregationInterval time.Duration
	SettlementTimeout   time.Duration
	VoteTTL             time.Duration

	APIRateLimit int
}

func New() (BridgeConfig, error) {
	cacheDBStr := os.Getenv("CACHE_DB")
	cacheDB, err := strconv.Atoi(cacheDBStr)
	if err != nil {
		cacheDB = 0
	}

	cacheIsFlushStr := os.Getenv("CACHE_IS_FLUSH")
	cacheIsFlush, err := strconv.ParseBool(cacheIsFlushStr)
	if err != nil {
		cacheIsFlush = false
	}

	proposalPctStr := os.Getenv("PROPOSAL_APPROVAL_PCT")
	proposalPct, err := strconv.Atoi(proposalPctStr)
	if err != nil {
		proposalPct = 70
	}

	disputePctStr := os.Getenv("DISPUTE_SUPPORT_PCT")
	disputePct, err := strconv.Atoi(disputePctStr)
	if err != nil {
		disputePct = 60
	}

	minVotesStr := os.Getenv("MIN_VOTES_REQUIRED")
	minVotes, err := strconv.Atoi(minVotesStr)
	if err != nil {
		minVotes = 10
	}

	aggregationIntervalStr := os.Getenv("AGGREGATION_INTERVAL")
	aggregationInterval, err := time.ParseDuration(aggregationIntervalStr)
	if err != nil {
		aggregationInterval = 5 * time.Minute
	}

	settlementTimeoutStr := os.Getenv("SETTLEMENT_TIMEOUT")
	settlementTimeout, err := time.ParseDuration(settlementTimeoutStr)
	if err != nil {
		settlementTimeout = 90 * time.Second
	}

	voteTTLStr := os.Getenv("VOTE_TTL")
	voteTTL, err := time.ParseDuration(voteTTLStr)
	if err != nil {
		voteTTL = 7 * 24 * time.Hour
	}

	rateLimitStr := os.Getenv("API_RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		rateLimit = 100
	}

	ledgerRPC := os.Getenv("LEDGER_RPC_URL")
	if ledgerRPC == "" {
		return BridgeConfig{}, errors.New("missing ledger RPC URL in config")
	}
	programID := os.Getenv("LEDGER_PROGRAM_ID")
	if programID == "" {
		return BridgeConfig{}, errors.New("missing ledger program id in config")
	}

	cfg := BridgeConfig{
		ServerMode:        os.Getenv("SERVER_MODE"),
		Port:              os.Getenv("PORT"),
		HttpRequestSecret: os.Getenv("HTTP_REQUEST_SECRET"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		SentryDSN:         os.Getenv("SENTRY_DSN"),

		CacheEngine:  os.Getenv("CACHE_ENGINE"),
		CacheURL:     os.Getenv("CACHE_URI"),
		CacheDB:      cacheDB,
		CacheIsFlush: cacheIsFlush,

		StorageDriver: os.Getenv("STORAGE_DRIVER"),
		StorageURI:    os.Getenv("STORAGE_URI"),
		StorageDB:     os.Getenv("STORAGE_DB"),

		LedgerRPC:           ledgerRPC,
		LedgerProgramID:     programID,
		BackendAuthorityKey: os.Getenv("BACKEND_AUTHORITY_KEY"),

		ProposalApprovalPct: proposalPct,
		DisputeSupportPct:   disputePct,
		MinVotesRequired:    minVotes,

		AggregationInterval: aggregationInterval,
		SettlementTimeout:   settlementTimeout,
		VoteTTL:             voteTTL,

		APIRateLimit: rateLimit,
	}

	return cfg, nil
}
