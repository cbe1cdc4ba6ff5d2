// Package storage holds the local ports.Storage adapters: an in-process map
// shared between instances and an (optionally encrypted) JSON file. Redis and
// MongoDB adapters live under infrastructure/db.
package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/ports"
	"github.com/fedawallet/wallet-client/internal/infrastructure/queue"
	"github.com/fedawallet/wallet-client/internal/pkg/metrics"
)

// memoryHub is the state shared by every Memory attached to it.
type memoryHub struct {
	mu   sync.RWMutex
	data map[string]string
	feed *queue.Dispatcher
}

// Memory is an in-process Storage. Instances created with Attach share data
// the way browser tabs share local storage, and each one sees the others'
// writes through Subscribe.
type Memory struct {
	hub    *memoryHub
	origin string
}

var (
	_ ports.Storage    = (*Memory)(nil)
	_ ports.ChangeFeed = (*Memory)(nil)
)

// NewMemory creates an empty in-memory storage.
func NewMemory(log zerolog.Logger) *Memory {
	hub := &memoryHub{data: make(map[string]string), feed: queue.NewDispatcher(log)}
	return &Memory{hub: hub, origin: uuid.NewString()}
}

// Attach returns another client of the same storage.
func (m *Memory) Attach() *Memory {
	return &Memory{hub: m.hub, origin: uuid.NewString()}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.hub.mu.RLock()
	defer m.hub.mu.RUnlock()
	v, ok := m.hub.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.hub.mu.Lock()
	m.hub.data[key] = value
	m.hub.mu.Unlock()
	m.hub.feed.Publish(ports.Change{Key: key, Origin: m.origin})
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	removed := make([]string, 0, len(keys))
	m.hub.mu.Lock()
	for _, k := range keys {
		if _, ok := m.hub.data[k]; ok {
			delete(m.hub.data, k)
			removed = append(removed, k)
		}
	}
	m.hub.mu.Unlock()
	for _, k := range removed {
		m.hub.feed.Publish(ports.Change{Key: k, Deleted: true, Origin: m.origin})
	}
	return nil
}

// Subscribe delivers writes made through other instances of the same hub.
func (m *Memory) Subscribe(ctx context.Context, fn func(ports.Change)) (func(), error) {
	return m.hub.feed.Subscribe(ctx, func(ch ports.Change) {
		if ch.Origin == m.origin {
			return
		}
		metrics.StorageChangesTotal.WithLabelValues("memory").Inc()
		fn(ch)
	})
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close stops change delivery for every attached instance.
func (m *Memory) Close() error {
	m.hub.feed.Close()
	return nil
}
