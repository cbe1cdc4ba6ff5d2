package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/ports"
)

// AdminClient calls the /admin endpoints with the admin token. It has its own
// timeout so a slow console never blocks end-user calls.
type AdminClient struct {
	c *Client
}

var _ ports.AdminAPI = (*AdminClient)(nil)

func NewAdminClient(baseURL string, timeout time.Duration, logger zerolog.Logger, opts ...Option) *AdminClient {
	return &AdminClient{c: newClient("admin", baseURL, timeout, logger, opts...)}
}

type adminRegisterBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Secret   string `json:"secret"`
}

type statusBody struct {
	IsActive bool `json:"isActive"`
}

type paymentConfigBody struct {
	Provider  string `json:"provider"`
	APIKey    string `json:"apiKey"`
	SecretKey string `json:"secretKey"`
}

func (a *AdminClient) Login(ctx context.Context, email, password string) (string, error) {
	return a.c.login(ctx, "/admin/auth/login", email, password)
}

func (a *AdminClient) Register(ctx context.Context, in ports.AdminRegisterInput) (ports.Payload, error) {
	return a.c.object(ctx, request{method: http.MethodPost, route: "/admin/auth/register", body: adminRegisterBody(in)})
}

func (a *AdminClient) Profile(ctx context.Context, token string) (ports.Payload, error) {
	return a.c.object(ctx, request{method: http.MethodGet, route: "/admin/profile", token: token})
}

func (a *AdminClient) UpdateProfile(ctx context.Context, token string, in ports.ProfileUpdateInput) (ports.Payload, error) {
	return a.c.object(ctx, request{method: http.MethodPut, route: "/admin/profile", token: token, body: profileBody(in)})
}

func (a *AdminClient) ChangePassword(ctx context.Context, token string, in ports.ChangePasswordInput) error {
	return a.c.do(ctx, request{method: http.MethodPut, route: "/admin/change-password", token: token, body: passwordBody(in)}, nil)
}

func (a *AdminClient) Users(ctx context.Context, token string) (any, error) {
	return a.c.raw(ctx, request{method: http.MethodGet, route: "/admin/users", token: token})
}

func (a *AdminClient) SetUserStatus(ctx context.Context, token, userID string, active bool) (ports.Payload, error) {
	return a.c.object(ctx, request{
		method: http.MethodPatch,
		route:  "/admin/users/:id/status",
		path:   "/admin/users/" + url.PathEscape(userID) + "/status",
		token:  token,
		body:   statusBody{IsActive: active},
	})
}

func (a *AdminClient) Transactions(ctx context.Context, token string) (any, error) {
	return a.c.raw(ctx, request{method: http.MethodGet, route: "/admin/transactions", token: token})
}

func (a *AdminClient) Payments(ctx context.Context, token string) (any, error) {
	return a.c.raw(ctx, request{method: http.MethodGet, route: "/admin/payments", token: token})
}

func (a *AdminClient) Stats(ctx context.Context, token string, days int) (ports.Payload, error) {
	r := request{method: http.MethodGet, route: "/admin/stats", token: token}
	if days > 0 {
		r.query = url.Values{"days": {strconv.Itoa(days)}}
	}
	return a.c.object(ctx, r)
}

func (a *AdminClient) PaymentConfigs(ctx context.Context, token string) (any, error) {
	return a.c.raw(ctx, request{method: http.MethodGet, route: "/admin/config", token: token})
}

func (a *AdminClient) SavePaymentConfig(ctx context.Context, token, provider, apiKey, secretKey string) (ports.Payload, error) {
	return a.c.object(ctx, request{
		method: http.MethodPost,
		route:  "/admin/config",
		token:  token,
		body:   paymentConfigBody{Provider: provider, APIKey: apiKey, SecretKey: secretKey},
	})
}
