package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	defaultAppName = "walletd"
)

// ErrNoChangeStreams is returned by Subscribe when the server is a standalone
// mongod, which cannot open change streams.
var ErrNoChangeStreams = errors.New("mongo: change streams need a replica set or sharded cluster")

// Config holds the connection settings of the session store.
type Config struct {
	URI      string
	Database string
	AppName  string
	Timeout  time.Duration
}

// Connect opens a client tagged with the daemon's app name, pings the primary
// and returns the client with the session database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	appName := cfg.AppName
	if appName == "" {
		appName = defaultAppName
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping %s: %w", appName, err)
	}
	return client, client.Database(cfg.Database), nil
}

// CheckChangeStreams asks the server for its topology and fails with
// ErrNoChangeStreams on a standalone deployment.
func CheckChangeStreams(ctx context.Context, db *mongo.Database) error {
	var hello bson.M
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return fmt.Errorf("mongo hello: %w", err)
	}
	return changeStreamTopology(hello)
}

// changeStreamTopology inspects a hello reply: replica set members report
// setName, mongos routers report msg "isdbgrid".
func changeStreamTopology(hello bson.M) error {
	if name, _ := hello["setName"].(string); name != "" {
		return nil
	}
	if msg, _ := hello["msg"].(string); msg == "isdbgrid" {
		return nil
	}
	return ErrNoChangeStreams
}
