package ports

import (
	"context"
	"io"

	"github.com/shopspring/decimal"
)

// Payload is a decoded JSON object as returned by the backend. Its shape is not
// guaranteed; the service layer normalises it.
type Payload = map[string]any

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Email           string
	Password        string
	FullName        string
	Phone           string
	ProfileImageURL string
}

// AdminRegisterInput is the body of POST /admin/auth/register.
type AdminRegisterInput struct {
	Email    string
	Password string
	Phone    string
	Secret   string
}

// ProfileUpdateInput is the body of PUT /users/me and PUT /admin/profile.
type ProfileUpdateInput struct {
	FullName    string
	Phone       string
	PhoneNumber string
}

// AvatarUpload is the file part of POST /users/upload-avatar.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// ChangePasswordInput is the body of PUT /users/change-password and
// PUT /admin/change-password.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// RechargeRequest is the body of POST /payments/fedapay/recharge.
type RechargeRequest struct {
	Amount         int64
	CallbackURL    string
	IdempotencyKey string
}

// TransferRequest is the body of POST /transactions/transfer.
type TransferRequest struct {
	Network        string
	ReceiverPhone  string
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey string
}

// AuthAPI exchanges credentials for bearer tokens.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, in RegisterInput) (Payload, error)
}

// UserAPI reads and updates the end-user profile. Every call carries the token explicitly
// so a flow can use a token it has not committed yet.
type UserAPI interface {
	Me(ctx context.Context, token string) (Payload, error)
	UpdateProfile(ctx context.Context, token string, in ProfileUpdateInput) (Payload, error)
	ChangePassword(ctx context.Context, token string, in ChangePasswordInput) error
	UploadAvatar(ctx context.Context, token string, file AvatarUpload) (Payload, error)
}

// PaymentAPI covers the dashboard, mobile-money recharges and transfers.
type PaymentAPI interface {
	Dashboard(ctx context.Context, token string) (Payload, error)
	InitRecharge(ctx context.Context, token string, req RechargeRequest) (Payload, error)
	RechargeStatus(ctx context.Context, token, paymentID string) (Payload, error)
	TransactionStatus(ctx context.Context, token, transactionID string) (Payload, error)
	Transfer(ctx context.Context, token string, req TransferRequest) (Payload, error)
}

// AdminAPI covers the /admin endpoints. List endpoints return the raw decoded
// body because the backend answers either a bare array or an enveloped one.
type AdminAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, in AdminRegisterInput) (Payload, error)
	Profile(ctx context.Context, token string) (Payload, error)
	UpdateProfile(ctx context.Context, token string, in ProfileUpdateInput) (Payload, error)
	ChangePassword(ctx context.Context, token string, in ChangePasswordInput) error
	Users(ctx context.Context, token string) (any, error)
	SetUserStatus(ctx context.Context, token, userID string, active bool) (Payload, error)
	Transactions(ctx context.Context, token string) (any, error)
	Payments(ctx context.Context, token string) (any, error)
	Stats(ctx context.Context, token string, days int) (Payload, error)
	PaymentConfigs(ctx context.Context, token string) (any, error)
	SavePaymentConfig(ctx context.Context, token, provider, apiKey, secretKey string) (Payload, error)
}

// HealthChecker reports whether the backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
