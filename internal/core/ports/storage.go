package ports

import "context"

// Storage is the key-value cache the sessions persist to. It plays the role of
// browser local storage: string values, absent keys are a normal state.
type Storage interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Change describes a key written or removed by another storage client.
type Change struct {
	Key     string
	Deleted bool
	// Origin identifies the writer; empty when the transport cannot tell.
	Origin string
}

// ChangeFeed delivers out-of-band key changes, i.e. writes performed by another
// process, tab or device sharing the same storage. Writes made through the
// subscribing instance itself are not delivered.
type ChangeFeed interface {
	// Subscribe registers fn until ctx is done or the returned cancel is called.
	Subscribe(ctx context.Context, fn func(Change)) (cancel func(), err error)
}

// Pinger is implemented by storage adapters that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
