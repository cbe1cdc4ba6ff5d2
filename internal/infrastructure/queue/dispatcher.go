package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/ports"
)

const channelBuffer = 256

// ErrClosed is returned by Subscribe once the dispatcher has been closed.
var ErrClosed = errors.New("change dispatcher closed")

// Dispatcher fans storage changes out to subscribers. Each subscriber owns a
// buffered channel drained by its own goroutine, so changes reach a given
// subscriber in publication order and a slow subscriber never delays another.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
	closed bool
	log    zerolog.Logger
}

type subscriber struct {
	ch   chan ports.Change
	done chan struct{}
	once sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{subs: make(map[int]*subscriber), log: log}
}

var _ ports.ChangeFeed = (*Dispatcher)(nil)

// Subscribe registers fn until ctx is done or the returned cancel is called.
func (d *Dispatcher) Subscribe(ctx context.Context, fn func(ports.Change)) (func(), error) {
	sub := &subscriber{ch: make(chan ports.Change, channelBuffer), done: make(chan struct{})}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return func() {}, ErrClosed
	}
	id := d.nextID
	d.nextID++
	d.subs[id] = sub
	d.mu.Unlock()

	go d.runSubscriber(ctx, id, sub, fn)

	return func() { d.remove(id) }, nil
}

// Publish hands ch to every subscriber. It blocks only while a subscriber's
// buffer is full.
func (d *Dispatcher) Publish(ch ports.Change) {
	d.mu.RLock()
	subs := make([]*subscriber, 0, len(d.subs))
	for _, s := range d.subs {
		subs = append(subs, s)
	}
	d.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.ch <- ch:
		case <-s.done:
		}
	}
}

// Close stops every subscriber. Later Subscribe calls fail.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	subs := d.subs
	d.subs = make(map[int]*subscriber)
	d.mu.Unlock()
	for _, s := range subs {
		s.stop()
	}
}

func (d *Dispatcher) remove(id int) {
	d.mu.Lock()
	sub, ok := d.subs[id]
	delete(d.subs, id)
	d.mu.Unlock()
	if ok {
		sub.stop()
	}
}

func (d *Dispatcher) runSubscriber(ctx context.Context, id int, sub *subscriber, fn func(ports.Change)) {
	defer d.remove(id)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case ch := <-sub.ch:
			d.deliver(id, fn, ch)
		}
	}
}

func (d *Dispatcher) deliver(id int, fn func(ports.Change), ch ports.Change) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("key", ch.Key).Int("subscriber", id).Msg("change subscriber panicked")
		}
	}()
	fn(ch)
}
