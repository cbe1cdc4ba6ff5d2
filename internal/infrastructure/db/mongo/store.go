package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fedawallet/wallet-client/internal/core/ports"
	"github.com/fedawallet/wallet-client/internal/infrastructure/queue"
	"github.com/fedawallet/wallet-client/internal/pkg/metrics"
)

// Store implements ports.Storage on a MongoDB collection, one document per key.
// Deletes are soft (deleted=true) so that the change stream always carries the
// writer's origin. Subscribe needs a replica set or sharded cluster.
type Store struct {
	coll      *mongo.Collection
	namespace string
	origin    string
	log       zerolog.Logger

	feed      *queue.Dispatcher
	watchOnce sync.Once
	watchErr  error
	stop      context.CancelFunc
}

var (
	_ ports.Storage    = (*Store)(nil)
	_ ports.ChangeFeed = (*Store)(nil)
	_ ports.Pinger     = (*Store)(nil)
)

type kvDocument struct {
	ID        string    `bson:"_id"`
	Namespace string    `bson:"ns"`
	Key       string    `bson:"key"`
	Value     string    `bson:"value,omitempty"`
	Deleted   bool      `bson:"deleted"`
	Origin    string    `bson:"origin"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewStore uses collection of db; namespace separates daemons sharing it.
func NewStore(db *mongo.Database, collection, namespace string, log zerolog.Logger) *Store {
	return &Store{
		coll:      db.Collection(collection),
		namespace: namespace,
		origin:    uuid.NewString(),
		log:       log,
		feed:      queue.NewDispatcher(log),
	}
}

func (s *Store) id(key string) string {
	return s.namespace + ":" + key
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var doc kvDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": s.id(key), "deleted": bson.M{"$ne": true}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mongo get %s: %w", key, err)
	}
	return doc.Value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	update := bson.M{"$set": bson.M{
		"ns":         s.namespace,
		"key":        key,
		"value":      value,
		"deleted":    false,
		"origin":     s.origin,
		"updated_at": time.Now().UTC(),
	}}
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": s.id(key)}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("mongo set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = s.id(k)
	}
	filter := bson.M{"_id": bson.M{"$in": ids}, "deleted": bson.M{"$ne": true}}
	update := bson.M{
		"$set":   bson.M{"deleted": true, "origin": s.origin, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"value": ""},
	}
	if _, err := s.coll.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.coll.Database().RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

// Subscribe delivers writes made by other Store instances on the same
// namespace, read from a change stream. On a standalone server it fails with
// ErrNoChangeStreams.
func (s *Store) Subscribe(ctx context.Context, fn func(ports.Change)) (func(), error) {
	s.watchOnce.Do(func() { s.watchErr = s.watch() })
	if s.watchErr != nil {
		return func() {}, s.watchErr
	}
	return s.feed.Subscribe(ctx, fn)
}

// Close stops the change stream. The client is owned by the caller.
func (s *Store) Close() error {
	s.feed.Close()
	if s.stop != nil {
		s.stop()
	}
	return nil
}

func (s *Store) watch() error {
	checkCtx, cancelCheck := context.WithTimeout(context.Background(), defaultTimeout)
	err := CheckChangeStreams(checkCtx, s.coll.Database())
	cancelCheck()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType":   bson.M{"$in": bson.A{"insert", "update", "replace"}},
			"fullDocument.ns": s.namespace,
		}}},
	}
	stream, err := s.coll.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return fmt.Errorf("mongo watch: %w", err)
	}
	s.stop = cancel

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var ev struct {
				FullDocument kvDocument `bson:"fullDocument"`
			}
			if err := stream.Decode(&ev); err != nil {
				s.log.Warn().Err(err).Msg("malformed change stream event")
				continue
			}
			doc := ev.FullDocument
			if doc.Origin == s.origin {
				continue
			}
			metrics.StorageChangesTotal.WithLabelValues("mongo").Inc()
			s.feed.Publish(ports.Change{Key: doc.Key, Deleted: doc.Deleted, Origin: doc.Origin})
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("mongo change stream stopped")
		}
	}()
	return nil
}
