package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/ports"
	"github.com/fedawallet/wallet-client/internal/infrastructure/db/mongo"
	"github.com/fedawallet/wallet-client/internal/infrastructure/db/redis"
	"github.com/fedawallet/wallet-client/internal/infrastructure/storage"
	"github.com/fedawallet/wallet-client/internal/pkg/config"
)

// sessionStorage is what every STORAGE_DRIVER provides.
type sessionStorage interface {
	ports.Storage
	ports.ChangeFeed
	ports.Pinger
	Close() error
}

// openStorage builds the configured storage. The returned cleanup closes it
// together with any client it had to open.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (sessionStorage, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		s := storage.NewMemory(log)
		return s, func() { _ = s.Close() }, nil

	case "file":
		s, err := storage.NewFile(cfg.Storage.Path, cfg.Storage.Passphrase, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open session file: %w", err)
		}
		return s, func() { _ = s.Close() }, nil

	case "redis":
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		s := redis.NewStore(client, cfg.Storage.Namespace, log)
		return s, func() {
			_ = s.Close()
			_ = client.Close()
		}, nil

	case "mongo":
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: "walletd"})
		if err != nil {
			return nil, nil, err
		}
		s := mongo.NewStore(db, cfg.Mongo.Collection, cfg.Storage.Namespace, log)
		return s, func() {
			_ = s.Close()
			_ = client.Disconnect(context.Background())
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
