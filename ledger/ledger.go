// Package ledger
package ledger

import (
	"context"

	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/types"
)

// Client commits an aggregated vote result to the on-chain program. Settle
// returns the ledger's transaction identifier once the transaction is
// accepted and confirmed; any other outcome, timeout included, is an error
// and the caller must treat the settlement as not having happened.
type Client interface {
	Settle(ctx context.Context, kind types.VoteKind, subjectID string, positive, negative uint32) (string, error)
}

type Config struct {
	RPCURL       string
	ProgramID    string
	AuthorityKey string

	Logger *zap.Logger
}

func NewClient(cfg Config) (Client, error) {
	return newSolanaClient(cfg)
}
