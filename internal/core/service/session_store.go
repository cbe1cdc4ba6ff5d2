package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/ports"
)

// SessionStore is the single source of truth for the end-user session. Every
// mutation goes through one of its methods, which update memory and storage
// together and then notify observers. Storage failures are logged and never
// surface to callers: memory stays authoritative for the running process.
type SessionStore struct {
	storage ports.Storage
	logger  zerolog.Logger
	now     func() time.Time

	// wmu serialises writers so memory and storage change in the same order.
	wmu     sync.Mutex
	mu      sync.RWMutex
	session domain.Session

	observers *observerSet[domain.Session]
}

func NewSessionStore(storage ports.Storage, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		storage:   storage,
		logger:    logger,
		now:       time.Now,
		observers: newObserverSet[domain.Session](),
	}
}

// Load reads the persisted session into memory and returns it. It never fails:
// missing or unreadable keys load as nil. A JWT token whose exp claim has
// passed is treated as absent and the stored session is cleared.
func (s *SessionStore) Load(ctx context.Context) domain.Session {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	var loaded domain.Session
	loaded.Token = s.readString(ctx, domain.KeyToken)
	if raw := s.readString(ctx, domain.KeyUser); raw != "" {
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.logger.Warn().Err(err).Msg("stored user is not valid JSON; ignoring")
		} else {
			loaded.User = &u
		}
	}
	if raw := s.readString(ctx, domain.KeyAccount); raw != "" {
		var a domain.Account
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			s.logger.Warn().Err(err).Msg("stored account is not valid JSON; ignoring")
		} else {
			loaded.Account = &a
		}
	}

	if loaded.Token != "" {
		if claims, ok := domain.ParseTokenClaims(loaded.Token); ok && claims.Expired(s.now()) {
			s.logger.Info().Msg("stored token expired; clearing session")
			s.deleteKeys(ctx, domain.KeyToken, domain.KeyUser, domain.KeyAccount)
			loaded = domain.Session{}
		}
	}

	s.set(loaded)
	return s.Snapshot()
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.session)
}

// Token returns the current bearer token, "" when logged out.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// Commit replaces the whole session at once. Auth flows call it only after the
// profile sync succeeded, so token, user and account are always set together.
func (s *SessionStore) Commit(ctx context.Context, token string, user *domain.User, account *domain.Account) {
	s.wmu.Lock()
	next := domain.Session{Token: token, User: user.Clone(), Account: account.Clone()}
	s.writeString(ctx, domain.KeyToken, token)
	s.writeJSON(ctx, domain.KeyUser, next.User)
	s.writeJSON(ctx, domain.KeyAccount, next.Account)
	s.set(next)
	s.wmu.Unlock()
	s.notify()
}

// Persist stores a freshly synced user and account for the current token. It
// is a no-op when logged out.
func (s *SessionStore) Persist(ctx context.Context, user *domain.User, account *domain.Account) {
	s.PersistFor(ctx, s.Token(), user, account)
}

// PersistFor is Persist guarded by the token the data was fetched with: if the
// session moved on meanwhile (logout, another login) the result is stale and
// dropped. Reports whether it was applied.
func (s *SessionStore) PersistFor(ctx context.Context, token string, user *domain.User, account *domain.Account) bool {
	s.wmu.Lock()
	cur := s.Snapshot()
	if token == "" || cur.Token != token {
		s.wmu.Unlock()
		s.logger.Debug().Msg("discarding profile sync for a stale token")
		return false
	}
	cur.User = user.Clone()
	cur.Account = account.Clone()
	s.writeJSON(ctx, domain.KeyUser, cur.User)
	s.writeJSON(ctx, domain.KeyAccount, cur.Account)
	s.set(cur)
	s.wmu.Unlock()
	s.notify()
	return true
}

// Clear removes token, user and account from memory and storage.
func (s *SessionStore) Clear(ctx context.Context) {
	s.wmu.Lock()
	s.deleteKeys(ctx, domain.KeyToken, domain.KeyUser, domain.KeyAccount)
	s.set(domain.Session{})
	s.wmu.Unlock()
	s.notify()
}

// DropOnUnauthorized clears the session when err is a 401/403 answer to a
// call made with token, provided that token is still the current one.
func (s *SessionStore) DropOnUnauthorized(ctx context.Context, token string, err error) bool {
	if !domain.IsUnauthorized(err) || token == "" || s.Token() != token {
		return false
	}
	s.logger.Warn().Err(err).Msg("backend rejected the session token; logging out")
	s.Clear(ctx)
	return true
}

// UpdateBalance replaces the cached balance. No-op without an account.
func (s *SessionStore) UpdateBalance(ctx context.Context, balance decimal.Decimal) bool {
	_, ok := s.mutateAccount(ctx, "", func(a *domain.Account) { a.Balance = balance })
	return ok
}

// AdjustBalance adds delta to the cached balance in one step and returns the
// new value. No-op without an account.
func (s *SessionStore) AdjustBalance(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, bool) {
	return s.AdjustBalanceFor(ctx, "", delta)
}

// AdjustBalanceFor is AdjustBalance restricted to the session holding token,
// so a late payment result never credits a different login. An empty token
// matches any session.
func (s *SessionStore) AdjustBalanceFor(ctx context.Context, token string, delta decimal.Decimal) (decimal.Decimal, bool) {
	return s.mutateAccount(ctx, token, func(a *domain.Account) { a.Balance = a.Balance.Add(delta) })
}

func (s *SessionStore) mutateAccount(ctx context.Context, token string, fn func(*domain.Account)) (decimal.Decimal, bool) {
	s.wmu.Lock()
	cur := s.Snapshot()
	if cur.Account == nil || (token != "" && cur.Token != token) {
		s.wmu.Unlock()
		return decimal.Zero, false
	}
	fn(cur.Account)
	s.writeJSON(ctx, domain.KeyAccount, cur.Account)
	s.set(cur)
	balance := cur.Account.Balance
	s.wmu.Unlock()
	s.notify()
	return balance, true
}

// UpdateUser merges the non-nil fields of patch into the cached user. No-op
// without a user.
func (s *SessionStore) UpdateUser(ctx context.Context, patch domain.UserPatch) bool {
	s.wmu.Lock()
	cur := s.Snapshot()
	if cur.User == nil {
		s.wmu.Unlock()
		return false
	}
	cur.User = patch.Apply(cur.User)
	s.writeJSON(ctx, domain.KeyUser, cur.User)
	s.set(cur)
	s.wmu.Unlock()
	s.notify()
	return true
}

// Subscribe registers fn to receive a snapshot after every mutation. The
// returned func unregisters it.
func (s *SessionStore) Subscribe(fn func(domain.Session)) func() {
	return s.observers.add(fn)
}

func (s *SessionStore) set(next domain.Session) {
	s.mu.Lock()
	s.session = next
	s.mu.Unlock()
}

func (s *SessionStore) notify() {
	s.observers.publish(s.Snapshot())
}

func (s *SessionStore) readString(ctx context.Context, key string) string {
	v, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("storage read failed")
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (s *SessionStore) writeString(ctx context.Context, key, value string) {
	if err := s.storage.Set(ctx, key, value); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("storage write failed")
	}
}

func (s *SessionStore) writeJSON(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("encode for storage failed")
		return
	}
	s.writeString(ctx, key, string(raw))
}

func (s *SessionStore) deleteKeys(ctx context.Context, keys ...string) {
	if err := s.storage.Delete(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("storage delete failed")
	}
}

func copySession(in domain.Session) domain.Session {
	return domain.Session{Token: in.Token, User: in.User.Clone(), Account: in.Account.Clone()}
}

// observerSet is a small registry of in-process callbacks.
type observerSet[T any] struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(T)
}

func newObserverSet[T any]() *observerSet[T] {
	return &observerSet[T]{fns: make(map[int]func(T))}
}

func (o *observerSet[T]) add(fn func(T)) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.fns[id] = fn
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		delete(o.fns, id)
		o.mu.Unlock()
	}
}

func (o *observerSet[T]) publish(v T) {
	o.mu.Lock()
	fns := make([]func(T), 0, len(o.fns))
	for _, fn := range o.fns {
		fns = append(fns, fn)
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}
