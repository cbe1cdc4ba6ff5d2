package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/ports"
)

// SyncResult is the normalised outcome of one profile + dashboard round trip.
type SyncResult struct {
	User      *domain.User
	Account   *domain.Account
	Dashboard domain.Dashboard
}

// SessionSync fetches the remote profile and dashboard and normalises them.
type SessionSync struct {
	users    ports.UserAPI
	payments ports.PaymentAPI
	store    *SessionStore
	logger   zerolog.Logger
}

func NewSessionSync(users ports.UserAPI, payments ports.PaymentAPI, store *SessionStore, logger zerolog.Logger) *SessionSync {
	return &SessionSync{users: users, payments: payments, store: store, logger: logger}
}

// Fetch issues GET /users/me and GET /payments/dashboard concurrently with the
// given token. Both must succeed.
func (s *SessionSync) Fetch(ctx context.Context, token string, fb ProfileFallback) (*SyncResult, error) {
	var me, dashboard ports.Payload

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		me, err = s.users.Me(gctx, token)
		if err != nil {
			return fmt.Errorf("fetch profile: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		dashboard, err = s.payments.Dashboard(gctx, token)
		if err != nil {
			return fmt.Errorf("fetch dashboard: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	user, account := NormalizeProfile(me, dashboard, fb)
	return &SyncResult{
		User:      user,
		Account:   account,
		Dashboard: NormalizeDashboard(dashboard, user.ID),
	}, nil
}

// Reconcile refreshes a session restored from storage. Any failure, including
// a network error, ends the session: a stored token is only trusted once the
// backend has accepted it again. It is a no-op when no token is stored.
func (s *SessionSync) Reconcile(ctx context.Context) error {
	token := s.store.Token()
	if token == "" {
		return nil
	}

	cached := s.store.Snapshot()
	var fb ProfileFallback
	if cached.User != nil {
		fb.Email = cached.User.Email
	}

	res, err := s.Fetch(ctx, token, fb)
	if err != nil {
		if s.store.Token() == token {
			s.logger.Warn().Err(err).Msg("session reconciliation failed; logging out")
			s.store.Clear(ctx)
		}
		return fmt.Errorf("reconcile session: %w", err)
	}

	if s.store.PersistFor(ctx, token, res.User, res.Account) {
		s.logger.Info().Str("user_id", res.User.ID).Msg("session reconciled")
	}
	return nil
}
