package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fedawallet/wallet-client/internal/core/domain"
)

func seededStore(t *testing.T) (*SessionStore, *mapStorage) {
	t.Helper()
	st := newMapStorage()
	store := NewSessionStore(st, zerolog.Nop())
	store.Commit(context.Background(), "tok",
		&domain.User{ID: "u1", Email: "a@x.com", FullName: "Alice", Role: domain.RoleUser},
		&domain.Account{ID: "acc", UserID: "u1", Balance: decimal.NewFromInt(10000), Currency: "XOF"})
	return store, st
}

func TestSessionStore_UpdateBalanceLastWriteWins(t *testing.T) {
	store, _ := seededStore(t)
	ctx := context.Background()

	store.UpdateBalance(ctx, decimal.NewFromInt(300))
	store.UpdateBalance(ctx, decimal.NewFromInt(700))

	if got := store.Snapshot().Account.Balance; !got.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("expected 700, got %s", got)
	}

	reloaded := NewSessionStore(store.storage, zerolog.Nop()).Load(ctx)
	if !reloaded.Account.Balance.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("persisted balance should be 700, got %s", reloaded.Account.Balance)
	}
}

func TestSessionStore_UpdateBalanceWithoutAccountIsNoop(t *testing.T) {
	store := NewSessionStore(newMapStorage(), zerolog.Nop())
	if store.UpdateBalance(context.Background(), decimal.NewFromInt(5)) {
		t.Fatal("expected no-op without account")
	}
	if store.Snapshot().Account != nil {
		t.Fatal("account must stay nil")
	}
}

func TestSessionStore_ClearThenLoad(t *testing.T) {
	store, st := seededStore(t)
	ctx := context.Background()

	store.Clear(ctx)
	s := store.Load(ctx)
	if s.Token != "" || s.User != nil || s.Account != nil {
		t.Fatalf("expected empty session, got %+v", s)
	}
	for _, k := range []string{domain.KeyToken, domain.KeyUser, domain.KeyAccount} {
		if st.has(k) {
			t.Fatalf("key %s still stored", k)
		}
	}
}

func TestSessionStore_LoadToleratesGarbage(t *testing.T) {
	st := newMapStorage()
	st.data[domain.KeyToken] = "opaque"
	st.data[domain.KeyUser] = "{not json"
	st.data[domain.KeyAccount] = `{"id":"acc","balance":12.5,"currency":"XOF"}`

	s := NewSessionStore(st, zerolog.Nop()).Load(context.Background())
	if s.Token != "opaque" || s.User != nil {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.Account == nil || !s.Account.Balance.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("numeric stored balance not decoded: %+v", s.Account)
	}
}

func TestSessionStore_LoadDropsExpiredJWT(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("irrelevant"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	st := newMapStorage()
	st.data[domain.KeyToken] = expired
	st.data[domain.KeyUser] = `{"id":"u1"}`

	s := NewSessionStore(st, zerolog.Nop()).Load(context.Background())
	if s.Authenticated() || s.User != nil {
		t.Fatalf("expired session must not load: %+v", s)
	}
	if st.has(domain.KeyToken) || st.has(domain.KeyUser) {
		t.Fatal("expired session must be removed from storage")
	}
}

func TestSessionStore_UpdateUserMergesFields(t *testing.T) {
	store, _ := seededStore(t)
	name := "Alice B."
	active := true

	store.UpdateUser(context.Background(), domain.UserPatch{FullName: &name, IsActive: &active})

	u := store.Snapshot().User
	if u.FullName != "Alice B." || u.Email != "a@x.com" || u.IsActive == nil || !*u.IsActive {
		t.Fatalf("unexpected user after patch: %+v", u)
	}
}

func TestSessionStore_StorageFailureIsSwallowed(t *testing.T) {
	store, st := seededStore(t)
	st.failSet = errStub

	store.UpdateBalance(context.Background(), decimal.NewFromInt(1))
	if !store.Snapshot().Account.Balance.Equal(decimal.NewFromInt(1)) {
		t.Fatal("memory must be updated even when storage fails")
	}
}

func TestSessionStore_PersistForStaleToken(t *testing.T) {
	store, _ := seededStore(t)
	ctx := context.Background()

	if store.PersistFor(ctx, "old-token", &domain.User{ID: "other"}, &domain.Account{ID: "x"}) {
		t.Fatal("stale result must be dropped")
	}
	if store.Snapshot().User.ID != "u1" {
		t.Fatal("session overwritten by stale sync")
	}
}

func TestSessionStore_SubscribeAndSnapshotIsolation(t *testing.T) {
	store, _ := seededStore(t)
	var seen []domain.Session
	cancel := store.Subscribe(func(s domain.Session) { seen = append(seen, s) })

	store.UpdateBalance(context.Background(), decimal.NewFromInt(1))
	cancel()
	store.UpdateBalance(context.Background(), decimal.NewFromInt(2))

	if len(seen) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(seen))
	}

	snap := store.Snapshot()
	snap.User.FullName = "mutated"
	if store.Snapshot().User.FullName == "mutated" {
		t.Fatal("snapshot must not alias store state")
	}
}

func TestSessionStore_AdjustBalanceForOtherToken(t *testing.T) {
	store, _ := seededStore(t)
	if _, ok := store.AdjustBalanceFor(context.Background(), "someone-else", decimal.NewFromInt(5)); ok {
		t.Fatal("credit for another session must be refused")
	}
	b, ok := store.AdjustBalanceFor(context.Background(), "tok", decimal.NewFromInt(5))
	if !ok || !b.Equal(decimal.NewFromInt(10005)) {
		t.Fatalf("expected 10005, got %s (%v)", b, ok)
	}
}
