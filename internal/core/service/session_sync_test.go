package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fedawallet/wallet-client/internal/core/domain"
)

func TestSessionSync_ReconcilePersists(t *testing.T) {
	f := newFixture()
	f.storage.data[domain.KeyToken] = "stored-tok"
	f.store.Load(context.Background())
	f.backend.dashboard = mustPayload(`{"balance":"321"}`)

	if err := f.sync.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	s := f.store.Snapshot()
	if !s.Complete() || !s.Account.Balance.Equal(decimal.NewFromInt(321)) {
		t.Fatalf("unexpected session: %+v", s)
	}
	if !f.storage.has(domain.KeyAccount) {
		t.Fatal("account must be persisted")
	}
}

func TestSessionSync_ReconcileFailureClears(t *testing.T) {
	for name, err := range map[string]error{"network": errStub, "forbidden": forbidden} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.storage.data[domain.KeyToken] = "stored-tok"
			f.storage.data[domain.KeyUser] = `{"id":"u1"}`
			f.store.Load(context.Background())
			f.backend.meErr = err

			if f.sync.Reconcile(context.Background()) == nil {
				t.Fatal("expected error")
			}
			if f.store.Snapshot().Authenticated() || f.storage.has(domain.KeyUser) {
				t.Fatal("failed reconciliation must clear the session")
			}
		})
	}
}

func TestSessionSync_ReconcileWithoutToken(t *testing.T) {
	f := newFixture()
	f.backend.meErr = errStub
	if err := f.sync.Reconcile(context.Background()); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
