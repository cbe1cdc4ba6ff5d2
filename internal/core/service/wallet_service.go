package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/ports"
	"github.com/fedawallet/wallet-client/internal/pkg/validate"
)

// MinRechargeAmount is the smallest mobile-money recharge accepted, in XOF.
var MinRechargeAmount = decimal.NewFromInt(500)

type RechargeInput struct {
	Amount      decimal.Decimal `json:"amount"`
	CallbackURL string          `json:"callbackUrl" validate:"omitempty,url"`
}

type TransferInput struct {
	ReceiverPhone string          `json:"receiverPhone" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Network       string          `json:"network"`
	Description   string          `json:"description" validate:"max=255"`
}

// CallbackParams are the query parameters of the provider redirect.
type CallbackParams struct {
	Status        string
	TransactionID string
	Reference     string
}

// CallbackResult is the settled outcome of a provider redirect.
type CallbackResult struct {
	Status        domain.PaymentStatus `json:"status"`
	TransactionID string               `json:"transactionId,omitempty"`
	Reference     string               `json:"reference,omitempty"`
	Balance       *decimal.Decimal     `json:"balance,omitempty"`
}

// RechargeState is what the wallet knows about one tracked recharge.
type RechargeState struct {
	Intent    domain.RechargeIntent `json:"intent"`
	Status    domain.PaymentStatus  `json:"status"`
	Credited  bool                  `json:"credited"`
	Error     string                `json:"error,omitempty"`
	StartedAt time.Time             `json:"startedAt"`
}

// WalletOptions tunes the polling loops.
type WalletOptions struct {
	RechargePoll    Poller
	TransactionPoll Poller
	// Retention is how long a settled recharge stays queryable. A recharge
	// that never settles is dropped Retention after its poll would have
	// timed out.
	Retention time.Duration
}

const defaultRechargeRetention = 30 * time.Minute

// DefaultWalletOptions returns the production polling cadence.
func DefaultWalletOptions(logger zerolog.Logger) WalletOptions {
	return WalletOptions{
		RechargePoll:    Poller{Interval: 10 * time.Second, Timeout: 5 * time.Minute, Logger: logger},
		TransactionPoll: Poller{Interval: 5 * time.Second, Timeout: 2 * time.Minute, Logger: logger},
		Retention:       defaultRechargeRetention,
	}
}

// WalletService runs the money-moving flows and applies their optimistic
// balance updates: cached ± amount as soon as the backend reports success,
// without waiting for a dashboard refetch.
type WalletService struct {
	payments ports.PaymentAPI
	store    *SessionStore
	opts     WalletOptions
	logger   zerolog.Logger

	mu        sync.Mutex
	recharges map[string]*trackedRecharge

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

type trackedRecharge struct {
	state     RechargeState
	token     string
	cancel    context.CancelFunc
	credit    sync.Once
	settledAt time.Time
}

func NewWalletService(payments ports.PaymentAPI, store *SessionStore, opts WalletOptions, logger zerolog.Logger) *WalletService {
	if opts.Retention <= 0 {
		opts.Retention = defaultRechargeRetention
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WalletService{
		payments:  payments,
		store:     store,
		opts:      opts,
		logger:    logger,
		recharges: make(map[string]*trackedRecharge),
		baseCtx:   ctx,
		stop:      cancel,
	}
}

// Close stops every background poll and waits for them to return.
func (s *WalletService) Close() {
	s.stop()
	s.wg.Wait()
}

// StartRecharge validates the amount and opens a recharge with the provider.
// The amount is rounded to a whole XOF after the minimum check.
func (s *WalletService) StartRecharge(ctx context.Context, in RechargeInput) (domain.RechargeIntent, error) {
	if err := validate.Struct(in); err != nil {
		return domain.RechargeIntent{}, err
	}
	if !in.Amount.IsPositive() {
		return domain.RechargeIntent{}, domain.NewValidationError("amount", "amount must be greater than 0")
	}
	if in.Amount.LessThan(MinRechargeAmount) {
		return domain.RechargeIntent{}, domain.NewValidationError("amount", "minimum recharge is "+MinRechargeAmount.String()+" XOF")
	}
	token := s.store.Token()
	if token == "" {
		return domain.RechargeIntent{}, domain.ErrNotAuthenticated
	}

	amount := in.Amount.Round(0).IntPart()
	payload, err := s.payments.InitRecharge(ctx, token, ports.RechargeRequest{
		Amount:         amount,
		CallbackURL:    in.CallbackURL,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		s.store.DropOnUnauthorized(ctx, token, err)
		return domain.RechargeIntent{}, fmt.Errorf("init recharge: %w", err)
	}

	intent := NormalizeRechargeIntent(payload, amount)
	if intent.PaymentID == "" {
		return domain.RechargeIntent{}, fmt.Errorf("init recharge: backend returned no payment id")
	}
	s.track(intent, token)
	s.logger.Info().
		Str("payment_id", intent.PaymentID).
		Str("reference", intent.Reference).
		Int64("amount", amount).
		Msg("recharge initiated")
	return intent, nil
}

// AwaitRecharge polls the recharge status until it settles and credits the
// cached balance on success. It blocks; see WatchRecharge for the background
// variant.
func (s *WalletService) AwaitRecharge(ctx context.Context, paymentID string) (RechargeState, error) {
	tr, ok := s.lookup(paymentID)
	if !ok {
		return RechargeState{}, domain.ErrRechargeNotFound
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if tr.state.Status.Terminal() {
		state := tr.state
		s.mu.Unlock()
		cancel()
		return state, nil
	}
	if tr.cancel != nil {
		tr.cancel()
	}
	tr.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	status, err := s.opts.RechargePoll.Run(ctx, func(ctx context.Context) (domain.PaymentStatus, error) {
		payload, err := s.payments.RechargeStatus(ctx, tr.token, paymentID)
		if err != nil {
			return domain.StatusPending, err
		}
		return statusOf(payload), nil
	})
	return s.settle(ctx, tr, status, err)
}

// WatchRecharge runs AwaitRecharge in the background, bounded by the poll
// timeout and by Close.
func (s *WalletService) WatchRecharge(paymentID string) error {
	if _, ok := s.lookup(paymentID); !ok {
		return domain.ErrRechargeNotFound
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		state, err := s.AwaitRecharge(s.baseCtx, paymentID)
		switch {
		case errors.Is(err, context.Canceled):
			s.logger.Debug().Str("payment_id", paymentID).Msg("recharge watch stopped")
			return
		case err != nil:
			s.logger.Warn().Err(err).Str("payment_id", paymentID).Msg("recharge did not complete")
			return
		}
		s.logger.Info().Str("payment_id", paymentID).Str("status", string(state.Status)).Msg("recharge settled")
	}()
	return nil
}

// CancelRecharge stops the poll of a tracked recharge. A status that arrives
// afterwards is ignored.
func (s *WalletService) CancelRecharge(paymentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.recharges[paymentID]
	if !ok || tr.cancel == nil {
		return false
	}
	tr.cancel()
	return true
}

// Recharge returns the state of a tracked recharge.
func (s *WalletService) Recharge(paymentID string) (RechargeState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.recharges[paymentID]
	if !ok {
		return RechargeState{}, false
	}
	return tr.state, true
}

// ConfirmRecharge applies the optimistic credit for a recharge reported
// successful outside a tracked poll.
func (s *WalletService) ConfirmRecharge(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.NewValidationError("amount", "amount must be greater than 0")
	}
	balance, ok := s.store.AdjustBalance(ctx, amount)
	if !ok {
		return decimal.Zero, domain.ErrNotAuthenticated
	}
	return balance, nil
}

// Transfer sends funds to another user by phone number and debits the cached
// balance once the backend accepted it.
func (s *WalletService) Transfer(ctx context.Context, in TransferInput) (domain.TransferReceipt, error) {
	in.ReceiverPhone = strings.TrimSpace(in.ReceiverPhone)
	if err := validate.Struct(in); err != nil {
		return domain.TransferReceipt{}, err
	}
	if !in.Amount.IsPositive() {
		return domain.TransferReceipt{}, domain.NewValidationError("amount", "amount must be greater than 0")
	}

	session := s.store.Snapshot()
	if !session.Authenticated() {
		return domain.TransferReceipt{}, domain.ErrNotAuthenticated
	}
	if session.Account == nil || in.Amount.GreaterThan(session.Account.Balance) {
		return domain.TransferReceipt{}, domain.ErrInsufficientBalance
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = "Transfer of " + in.Amount.String() + " XOF"
	}
	payload, err := s.payments.Transfer(ctx, session.Token, ports.TransferRequest{
		Network:        in.Network,
		ReceiverPhone:  in.ReceiverPhone,
		Amount:         in.Amount,
		Description:    description,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		s.store.DropOnUnauthorized(ctx, session.Token, err)
		return domain.TransferReceipt{}, fmt.Errorf("transfer: %w", err)
	}

	balance, _ := s.store.AdjustBalanceFor(ctx, session.Token, in.Amount.Neg())
	receipt := domain.TransferReceipt{
		Reference: stringOr(payload, "", "reference", "id", "transactionId"),
		Amount:    in.Amount,
		Balance:   balance,
	}
	s.logger.Info().Str("reference", receipt.Reference).Str("amount", in.Amount.String()).Msg("transfer sent")
	return receipt, nil
}

// Refresh refetches the dashboard; the backend balance overwrites the cache.
func (s *WalletService) Refresh(ctx context.Context) (domain.Dashboard, error) {
	session := s.store.Snapshot()
	if !session.Authenticated() {
		return domain.Dashboard{}, domain.ErrNotAuthenticated
	}
	userID := ""
	if session.User != nil {
		userID = session.User.ID
	}

	payload, err := s.payments.Dashboard(ctx, session.Token)
	if err != nil {
		s.store.DropOnUnauthorized(ctx, session.Token, err)
		return domain.Dashboard{}, fmt.Errorf("refresh dashboard: %w", err)
	}
	dashboard := NormalizeDashboard(payload, userID)
	if dashboard.HasBalance && s.store.Token() == session.Token {
		s.store.UpdateBalance(ctx, dashboard.Balance)
	}
	return dashboard, nil
}

// History returns the dashboard transactions, newest first. filter is empty,
// "all" or one of recharge, transfer, receive.
func (s *WalletService) History(ctx context.Context, filter string) ([]domain.Transaction, error) {
	var want domain.TransactionType
	if f := strings.TrimSpace(filter); f != "" && !strings.EqualFold(f, "all") {
		t, ok := domain.ParseTransactionType(f)
		if !ok {
			return nil, domain.NewValidationError("type", "type must be one of: all, recharge, transfer, receive")
		}
		want = t
	}

	dashboard, err := s.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if want == "" {
		return dashboard.Transactions, nil
	}
	out := make([]domain.Transaction, 0, len(dashboard.Transactions))
	for _, tx := range dashboard.Transactions {
		if tx.Type == want {
			out = append(out, tx)
		}
	}
	return out, nil
}

// ReceiveCode returns the QR payload other users scan to pay the current user.
func (s *WalletService) ReceiveCode() (domain.ReceiveCode, error) {
	session := s.store.Snapshot()
	if !session.Authenticated() || session.User == nil {
		return domain.ReceiveCode{}, domain.ErrNotAuthenticated
	}
	return domain.NewReceiveCode(session.User, time.Now()), nil
}

// ScanReceiveCode turns scanned QR text into a transfer recipient.
func (s *WalletService) ScanReceiveCode(raw string) (domain.ReceiveCode, error) {
	code, err := domain.ParseReceiveCode(raw)
	if err != nil {
		return domain.ReceiveCode{}, err
	}
	session := s.store.Snapshot()
	if !session.Authenticated() {
		return domain.ReceiveCode{}, domain.ErrNotAuthenticated
	}
	if u := session.User; u != nil && ((code.UserID != "" && code.UserID == u.ID) || (u.PhoneNumber != "" && code.PhoneNumber == u.PhoneNumber)) {
		return domain.ReceiveCode{}, domain.NewValidationError("payload", "this QR code is your own")
	}
	return code, nil
}

// HandleProviderCallback settles the provider redirect. "declined"/"canceled"
// are taken as given. Any other status, "approved" included, only reaches the
// query string and is confirmed through the transaction status before a credit
// is applied. A tracked recharge is credited at most once whichever path
// settles it first; an untracked success refreshes the balance from the
// backend instead.
func (s *WalletService) HandleProviderCallback(ctx context.Context, p CallbackParams) (CallbackResult, error) {
	res := CallbackResult{TransactionID: p.TransactionID, Reference: p.Reference}
	token := s.store.Token()
	tr, tracked := s.lookupByProvider(p.TransactionID, p.Reference)

	switch strings.ToLower(strings.TrimSpace(p.Status)) {
	case "declined", "canceled", "cancelled":
		res.Status = domain.StatusFailed
	default:
		txID := p.TransactionID
		if txID == "" && tracked {
			txID = tr.state.Intent.TransactionID
		}
		if txID == "" {
			return res, domain.NewValidationError("transaction_id", "transaction_id is required")
		}
		if token == "" {
			return res, domain.ErrNotAuthenticated
		}
		status, err := s.opts.TransactionPoll.Run(ctx, func(ctx context.Context) (domain.PaymentStatus, error) {
			payload, err := s.payments.TransactionStatus(ctx, token, txID)
			if err != nil {
				return domain.StatusPending, err
			}
			return statusOf(payload), nil
		})
		if err != nil {
			s.store.DropOnUnauthorized(ctx, token, err)
			return res, fmt.Errorf("confirm transaction: %w", err)
		}
		res.Status = status
		res.TransactionID = txID
	}

	if tracked {
		state, _ := s.settle(ctx, tr, res.Status, nil)
		if state.Credited {
			if snap := s.store.Snapshot(); snap.Account != nil {
				b := snap.Account.Balance
				res.Balance = &b
			}
		}
	} else if res.Status == domain.StatusCompleted && token != "" {
		if dashboard, err := s.Refresh(ctx); err == nil && dashboard.HasBalance {
			b := dashboard.Balance
			res.Balance = &b
		}
	}

	s.logger.Info().
		Str("transaction_id", p.TransactionID).
		Str("reference", p.Reference).
		Str("status", string(res.Status)).
		Bool("tracked", tracked).
		Msg("provider callback handled")
	if res.Status == domain.StatusFailed {
		return res, domain.ErrPaymentFailed
	}
	return res, nil
}

// settle records the outcome of a tracked recharge and applies the credit at
// most once.
func (s *WalletService) settle(ctx context.Context, tr *trackedRecharge, status domain.PaymentStatus, pollErr error) (RechargeState, error) {
	if pollErr != nil {
		s.mu.Lock()
		if !tr.state.Status.Terminal() {
			tr.state.Error = domain.UserMessage(pollErr)
		}
		state := tr.state
		s.mu.Unlock()
		if state.Status.Terminal() {
			return state, nil
		}
		s.store.DropOnUnauthorized(ctx, tr.token, pollErr)
		return state, fmt.Errorf("await recharge: %w", pollErr)
	}

	s.mu.Lock()
	if tr.state.Status.Terminal() {
		state := tr.state
		s.mu.Unlock()
		return state, nil
	}
	tr.state.Status = status
	tr.state.Error = ""
	tr.settledAt = time.Now()
	if tr.cancel != nil {
		tr.cancel()
	}
	s.mu.Unlock()

	if status == domain.StatusCompleted {
		tr.credit.Do(func() {
			// ctx may be the poll context cancelled above; the write must still land.
			if _, ok := s.store.AdjustBalanceFor(context.WithoutCancel(ctx), tr.token, tr.state.Intent.Amount); ok {
				s.mu.Lock()
				tr.state.Credited = true
				s.mu.Unlock()
			}
		})
	}

	s.mu.Lock()
	state := tr.state
	s.mu.Unlock()
	if status == domain.StatusFailed {
		return state, domain.ErrPaymentFailed
	}
	return state, nil
}

func (s *WalletService) track(intent domain.RechargeIntent, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(time.Now())
	s.recharges[intent.PaymentID] = &trackedRecharge{
		token: token,
		state: RechargeState{Intent: intent, Status: domain.StatusPending, StartedAt: time.Now().UTC()},
	}
}

// pruneLocked forgets recharges settled more than Retention ago and those
// whose poll has long expired. Callers hold mu.
func (s *WalletService) pruneLocked(now time.Time) {
	abandonAfter := s.opts.RechargePoll.Timeout + s.opts.Retention
	for id, tr := range s.recharges {
		settled := tr.state.Status.Terminal() && now.Sub(tr.settledAt) > s.opts.Retention
		abandoned := !tr.state.Status.Terminal() && now.Sub(tr.state.StartedAt) > abandonAfter
		if settled || abandoned {
			if tr.cancel != nil {
				tr.cancel()
			}
			delete(s.recharges, id)
		}
	}
}

func (s *WalletService) lookup(paymentID string) (*trackedRecharge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.recharges[paymentID]
	return tr, ok
}

func (s *WalletService) lookupByProvider(transactionID, reference string) (*trackedRecharge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tr := range s.recharges {
		intent := tr.state.Intent
		if (transactionID != "" && intent.TransactionID == transactionID) ||
			(reference != "" && intent.Reference == reference) {
			return tr, true
		}
	}
	return nil, false
}
