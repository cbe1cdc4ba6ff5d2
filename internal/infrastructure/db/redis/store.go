package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/ports"
	"github.com/fedawallet/wallet-client/internal/infrastructure/queue"
	"github.com/fedawallet/wallet-client/internal/pkg/metrics"
)

// Store implements ports.Storage on a Redis hash and announces every write on
// a pub/sub channel, so several daemons sharing one Redis follow each other.
// Key layout:
//
//	<namespace>:session   hash of storage keys
//	<namespace>:changes   pub/sub channel of change notices
type Store struct {
	client  *redis.Client
	hash    string
	channel string
	origin  string
	log     zerolog.Logger

	feed      *queue.Dispatcher
	subOnce   sync.Once
	subErr    error
	pubsub    *redis.PubSub
	closeOnce sync.Once
}

var (
	_ ports.Storage    = (*Store)(nil)
	_ ports.ChangeFeed = (*Store)(nil)
	_ ports.Pinger     = (*Store)(nil)
)

// notice is the pub/sub payload.
type notice struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted,omitempty"`
	Origin  string `json:"origin"`
}

// NewStore wraps client. namespace prefixes every Redis key.
func NewStore(client *redis.Client, namespace string, log zerolog.Logger) *Store {
	return &Store{
		client:  client,
		hash:    namespace + ":session",
		channel: namespace + ":changes",
		origin:  uuid.NewString(),
		log:     log,
		feed:    queue.NewDispatcher(log),
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.hash, key, value)
		p.Publish(ctx, s.channel, s.encode(notice{Key: key}))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, s.hash, keys...)
		for _, k := range keys {
			p.Publish(ctx, s.channel, s.encode(notice{Key: k, Deleted: true}))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Subscribe delivers writes made by other Store instances on the same namespace.
func (s *Store) Subscribe(ctx context.Context, fn func(ports.Change)) (func(), error) {
	s.subOnce.Do(func() { s.subErr = s.listen() })
	if s.subErr != nil {
		return func() {}, s.subErr
	}
	return s.feed.Subscribe(ctx, fn)
}

// Close stops the pub/sub listener. The Redis client is owned by the caller.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.feed.Close()
		if s.pubsub != nil {
			err = s.pubsub.Close()
		}
	})
	return err
}

func (s *Store) listen() error {
	ctx := context.Background()
	ps := s.client.Subscribe(ctx, s.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("redis subscribe %s: %w", s.channel, err)
	}
	s.pubsub = ps

	go func() {
		for msg := range ps.Channel() {
			var n notice
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				s.log.Warn().Err(err).Msg("malformed storage change notice")
				continue
			}
			if n.Origin == s.origin {
				continue
			}
			metrics.StorageChangesTotal.WithLabelValues("redis").Inc()
			s.feed.Publish(ports.Change{Key: n.Key, Deleted: n.Deleted, Origin: n.Origin})
		}
	}()
	return nil
}

func (s *Store) encode(n notice) string {
	n.Origin = s.origin
	raw, _ := json.Marshal(n)
	return string(raw)
}
