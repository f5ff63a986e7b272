// Package db
package db

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/types"
)

type Adapter string

const (
	MGO Adapter = "mgo"
)

type Config struct {
	DbAdapter Adapter
	DbName    string
	URL       string
	MinConn   int
	MaxConn   int

	Logger *zap.Logger
}

// Client is the settlement audit log. It records what the ledger accepted;
// it is never consulted by the aggregation path itself.
type Client interface {
	ping(ctx context.Context) error

	InsertSettlement(ctx context.Context, settlement *types.Settlement) error
	Settlements(ctx context.Context, kind types.VoteKind, page, limit int) ([]*types.Settlement, error)
}

func NewClient(cfg Config) (Client, error) {
	switch cfg.DbAdapter {
	case MGO:
		return newMongoDB(cfg)
	default:
		return nil, errors.New("invalid db config")
	}
}
