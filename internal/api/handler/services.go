package handler

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/service"
)

// SessionService is the end-user session surface the handlers need.
type SessionService interface {
	Session() domain.Session
	Login(ctx context.Context, in service.LoginInput) (domain.Session, error)
	Signup(ctx context.Context, in service.SignupInput) (domain.Session, error)
	GoogleLogin(ctx context.Context, token string) (domain.Session, error)
	Logout(ctx context.Context)
	Refresh(ctx context.Context) (domain.Session, error)
	UpdateProfile(ctx context.Context, in service.ProfileInput) (*domain.User, error)
	ChangePassword(ctx context.Context, in service.ChangePasswordInput) error
	UploadAvatar(ctx context.Context, in service.AvatarInput) (*domain.User, error)
}

// WalletService is the money-moving surface.
type WalletService interface {
	StartRecharge(ctx context.Context, in service.RechargeInput) (domain.RechargeIntent, error)
	WatchRecharge(paymentID string) error
	AwaitRecharge(ctx context.Context, paymentID string) (service.RechargeState, error)
	CancelRecharge(paymentID string) bool
	Recharge(paymentID string) (service.RechargeState, bool)
	ConfirmRecharge(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)
	Transfer(ctx context.Context, in service.TransferInput) (domain.TransferReceipt, error)
	Refresh(ctx context.Context) (domain.Dashboard, error)
	History(ctx context.Context, filter string) ([]domain.Transaction, error)
	HandleProviderCallback(ctx context.Context, p service.CallbackParams) (service.CallbackResult, error)
	ReceiveCode() (domain.ReceiveCode, error)
	ScanReceiveCode(raw string) (domain.ReceiveCode, error)
}

// AdminSessionService is the administrator session surface.
type AdminSessionService interface {
	Snapshot() domain.AdminSnapshot
	Login(ctx context.Context, in service.AdminLoginInput) (domain.AdminSnapshot, error)
	Register(ctx context.Context, in service.AdminRegisterInput) (domain.AdminSnapshot, error)
	Logout(ctx context.Context)
	FetchProfile(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, in service.AdminProfileInput) (*domain.User, error)
	ChangePassword(ctx context.Context, in service.ChangePasswordInput) error
	LastFailure(ctx context.Context) (*service.AdminFailure, bool)
}

// AdminConsoleService is the admin console surface.
type AdminConsoleService interface {
	Dashboard(ctx context.Context, days int) (*domain.AdminDashboard, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	SetUserStatus(ctx context.Context, userID string, active bool) (*domain.User, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	ListPayments(ctx context.Context) ([]domain.Payment, error)
	Stats(ctx context.Context, days int) (*domain.AdminStats, error)
	PaymentConfig(ctx context.Context) (*domain.PaymentConfig, error)
	SavePaymentConfig(ctx context.Context, in service.PaymentConfigInput) (*domain.PaymentConfig, error)
}

var (
	_ SessionService      = (*service.AuthService)(nil)
	_ WalletService       = (*service.WalletService)(nil)
	_ AdminSessionService = (*service.AdminSession)(nil)
	_ AdminConsoleService = (*service.AdminService)(nil)
)
