package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/ports"
	"github.com/fedawallet/wallet-client/internal/pkg/validate"
)

// DefaultStatsDays is the statistics window of the admin dashboard.
const DefaultStatsDays = 30

type PaymentConfigInput struct {
	Provider  string `json:"provider"`
	APIKey    string `json:"apiKey" validate:"required,startswith=pk_"`
	SecretKey string `json:"secretKey" validate:"required,startswith=sk_"`
}

// AdminService runs the admin console operations. Every call uses the admin
// token and hands its failures to AdminSession, which invalidates on 401/403.
type AdminService struct {
	api              ports.AdminAPI
	session          *AdminSession
	dashboardTimeout time.Duration
	logger           zerolog.Logger
}

func NewAdminService(api ports.AdminAPI, session *AdminSession, dashboardTimeout time.Duration, logger zerolog.Logger) *AdminService {
	if dashboardTimeout <= 0 {
		dashboardTimeout = 10 * time.Second
	}
	return &AdminService{api: api, session: session, dashboardTimeout: dashboardTimeout, logger: logger}
}

// Dashboard loads stats, transactions, payments, users and the payment config
// in parallel. The whole load is bounded by the dashboard timeout; exceeding
// it yields domain.ErrTimeout so the caller can offer a retry.
func (s *AdminService) Dashboard(ctx context.Context, days int) (*domain.AdminDashboard, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = DefaultStatsDays
	}

	ctx, cancel := context.WithTimeout(ctx, s.dashboardTimeout)
	defer cancel()

	out := &domain.AdminDashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		payload, err := s.api.Stats(gctx, token, days)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		out.Stats = normalizeStats(payload, days)
		return nil
	})
	g.Go(func() error {
		raw, err := s.api.Transactions(gctx, token)
		if err != nil {
			return fmt.Errorf("transactions: %w", err)
		}
		out.Transactions = normalizeTransactions(raw, "")
		return nil
	})
	g.Go(func() error {
		raw, err := s.api.Payments(gctx, token)
		if err != nil {
			return fmt.Errorf("payments: %w", err)
		}
		out.Payments = normalizePayments(raw)
		return nil
	})
	g.Go(func() error {
		raw, err := s.api.Users(gctx, token)
		if err != nil {
			return fmt.Errorf("users: %w", err)
		}
		out.Users = normalizeUsers(raw)
		return nil
	})
	g.Go(func() error {
		raw, err := s.api.PaymentConfigs(gctx, token)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if cfg, ok := SelectPaymentConfig(normalizePaymentConfigs(raw)); ok {
			out.Config = cfg
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.session.RecordFailure(ctx, "/admin/dashboard", domain.ErrTimeout)
			return nil, domain.ErrTimeout
		}
		return nil, s.session.Fail(ctx, token, "", fmt.Errorf("admin dashboard: %w", err))
	}
	return out, nil
}

func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	raw, err := s.api.Users(ctx, token)
	if err != nil {
		return nil, s.session.Fail(ctx, token, "/admin/users", fmt.Errorf("list users: %w", err))
	}
	return normalizeUsers(raw), nil
}

// SetUserStatus activates or deactivates an end user.
func (s *AdminService) SetUserStatus(ctx context.Context, userID string, active bool) (*domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.NewValidationError("id", "id is required")
	}
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	payload, err := s.api.SetUserStatus(ctx, token, userID, active)
	if err != nil {
		return nil, s.session.Fail(ctx, token, "/admin/users/"+userID+"/status", fmt.Errorf("set user status: %w", err))
	}

	profile := firstObject(payload, "user", "data")
	if profile == nil {
		profile = payload
	}
	user := normalizeUser(profile, ProfileFallback{})
	if user.ID == domain.SyntheticID {
		user.ID = userID
	}
	user.IsActive = &active
	s.logger.Info().Str("user_id", userID).Bool("active", active).Msg("user status changed")
	return user, nil
}

func (s *AdminService) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	raw, err := s.api.Transactions(ctx, token)
	if err != nil {
		return nil, s.session.Fail(ctx, token, "/admin/transactions", fmt.Errorf("list transactions: %w", err))
	}
	return normalizeTransactions(raw, ""), nil
}

func (s *AdminService) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	raw, err := s.api.Payments(ctx, token)
	if err != nil {
		return nil, s.session.Fail(ctx, token, "/admin/payments", fmt.Errorf("list payments: %w", err))
	}
	return normalizePayments(raw), nil
}

func (s *AdminService) Stats(ctx context.Context, days int) (*domain.AdminStats, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = DefaultStatsDays
	}
	payload, err := s.api.Stats(ctx, token, days)
	if err != nil {
		return nil, s.session.Fail(ctx, token, "/admin/stats", fmt.Errorf("stats: %w", err))
	}
	return normalizeStats(payload, days), nil
}

// PaymentConfig returns the FedaPay configuration, or the first one stored.
func (s *AdminService) PaymentConfig(ctx context.Context) (*domain.PaymentConfig, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	raw, err := s.api.PaymentConfigs(ctx, token)
	if err != nil {
		return nil, s.session.Fail(ctx, token, "/admin/config", fmt.Errorf("payment config: %w", err))
	}
	cfg, ok := SelectPaymentConfig(normalizePaymentConfigs(raw))
	if !ok {
		return nil, domain.ErrNoPaymentConfig
	}
	return cfg, nil
}

// SavePaymentConfig stores provider credentials. Keys must look like
// pk_... and sk_...; the provider defaults to FedaPay.
func (s *AdminService) SavePaymentConfig(ctx context.Context, in PaymentConfigInput) (*domain.PaymentConfig, error) {
	in.APIKey = strings.TrimSpace(in.APIKey)
	in.SecretKey = strings.TrimSpace(in.SecretKey)
	in.Provider = strings.ToUpper(strings.TrimSpace(in.Provider))
	if in.Provider == "" {
		in.Provider = domain.ProviderFedaPay
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	token, err := s.token()
	if err != nil {
		return nil, err
	}

	payload, err := s.api.SavePaymentConfig(ctx, token, in.Provider, in.APIKey, in.SecretKey)
	if err != nil {
		return nil, s.session.Fail(ctx, token, "/admin/config", fmt.Errorf("save payment config: %w", err))
	}

	cfg := &domain.PaymentConfig{
		ID:        stringOr(payload, "", "id"),
		Provider:  in.Provider,
		APIKey:    in.APIKey,
		SecretKey: in.SecretKey,
	}
	cfg.Environment = cfg.DetectEnvironment()
	s.logger.Info().Str("provider", cfg.Provider).Str("environment", cfg.Environment).Msg("payment config saved")
	return cfg, nil
}

func (s *AdminService) token() (string, error) {
	token := s.session.Token()
	if token == "" {
		return "", domain.ErrNotAuthenticated
	}
	return token, nil
}
