package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/domain"
)

// StatusCheck asks the backend for the current status of one payment.
type StatusCheck func(ctx context.Context) (domain.PaymentStatus, error)

// Poller repeats a StatusCheck until it reports a terminal status. The first
// check runs immediately, the next ones on every Interval tick. A check that
// returns after the loop stopped is ignored.
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration
	Logger   zerolog.Logger
}

// Run returns the terminal status, domain.ErrPollTimeout once Timeout elapsed,
// the parent context error when cancelled, or the check error when the backend
// rejected the token. Other check errors are logged and retried.
func (p Poller) Run(parent context.Context, check StatusCheck) (domain.PaymentStatus, error) {
	if p.Interval <= 0 || p.Timeout <= 0 {
		return domain.StatusPending, domain.NewValidationError("poller", "interval and timeout must be positive")
	}
	ctx, cancel := context.WithTimeout(parent, p.Timeout)
	defer cancel()

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		status, err := check(ctx)
		if ctx.Err() != nil {
			return domain.StatusPending, p.stopErr(parent)
		}

		switch {
		case err != nil && domain.IsUnauthorized(err):
			return domain.StatusPending, err
		case err != nil:
			p.Logger.Warn().Err(err).Int("attempt", attempt).Msg("status check failed; retrying")
		case status.Terminal():
			p.Logger.Debug().Int("attempt", attempt).Str("status", string(status)).Msg("payment settled")
			return status, nil
		}

		select {
		case <-ctx.Done():
			return domain.StatusPending, p.stopErr(parent)
		case <-ticker.C:
		}
	}
}

func (p Poller) stopErr(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return domain.ErrPollTimeout
}

// IsPollStop reports whether err only means the poll loop stopped early.
func IsPollStop(err error) bool {
	return errors.Is(err, domain.ErrPollTimeout) || errors.Is(err, context.Canceled)
}
