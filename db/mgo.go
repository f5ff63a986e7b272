// Package db
package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/types"
)

const (
	cSettlements = "Settlements"

	defaultListLimit = 25
	maxListLimit     = 100
)

type mongoDB struct {
	logger *zap.Logger
	client *mongo.Client
	db     *mongo.Database
}

func newMongoDB(cfg Config) (*mongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mgoOptions := options.Client()
	mgoOptions.ApplyURI(cfg.URL)
	mgoOptions.SetMinPoolSize(uint64(cfg.MinConn))
	mgoOptions.SetMaxPoolSize(uint64(cfg.MaxConn))
	mgoClient, err := mongo.Connect(ctx, mgoOptions)
	if err != nil {
		return nil, err
	}

	dbClient := &mongoDB{
		logger: cfg.Logger.With(zap.String("db", "mgo")),
		client: mgoClient,
		db:     mgoClient.Database(cfg.DbName),
	}
	if err := dbClient.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return dbClient, nil
}

func (m *mongoDB) ensureIndexes(ctx context.Context) error {
	_, err := m.db.Collection(cSettlements).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "kind", Value: 1}, {Key: "settledAt", Value: -1}},
	})
	return err
}

func (m *mongoDB) ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *mongoDB) InsertSettlement(ctx context.Context, settlement *types.Settlement) error {
	_, err := m.db.Collection(cSettlements).InsertOne(ctx, settlement)
	return err
}

func (m *mongoDB) Settlements(ctx context.Context, kind types.VoteKind, page, limit int) ([]*types.Settlement, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if page < 0 {
		page = 0
	}
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}
	opts := options.Find().
		SetSort(bson.M{"settledAt": -1}).
		SetSkip(int64(page * limit)).
		SetLimit(int64(limit))

	cursor, err := m.db.Collection(cSettlements).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var settlements []*types.Settlement
	for cursor.Next(ctx) {
		settlement := &types.Settlement{}
		if err := cursor.Decode(settlement); err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
	}
	return settlements, cursor.Err()
}
