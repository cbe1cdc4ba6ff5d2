package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/fedawallet/wallet-client/internal/core/ports"
)

var errNoToken = errors.New("login response carried no access token")

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerBody struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	FullName        string `json:"fullName,omitempty"`
	Phone           string `json:"phone,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

type profileBody struct {
	FullName    string `json:"fullName,omitempty"`
	Phone       string `json:"phone,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type passwordBody struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type rechargeBody struct {
	Amount      int64  `json:"amount"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

type transferBody struct {
	Network       string      `json:"network,omitempty"`
	ReceiverPhone string      `json:"receiverPhone"`
	Amount        json.Number `json:"amount"`
	Description   string      `json:"description,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.login(ctx, "/auth/login", email, password)
}

func (c *Client) login(ctx context.Context, route, email, password string) (string, error) {
	p, err := c.object(ctx, request{method: http.MethodPost, route: route, body: credentials{email, password}})
	if err != nil {
		return "", err
	}
	token, ok := tokenFrom(p)
	if !ok {
		return "", errNoToken
	}
	return token, nil
}

func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (ports.Payload, error) {
	return c.object(ctx, request{method: http.MethodPost, route: "/auth/register", body: registerBody{
		Email:           in.Email,
		Password:        in.Password,
		FullName:        in.FullName,
		Phone:           in.Phone,
		ProfileImageURL: in.ProfileImageURL,
	}})
}

func (c *Client) Me(ctx context.Context, token string) (ports.Payload, error) {
	return c.object(ctx, request{method: http.MethodGet, route: "/users/me", token: token})
}

func (c *Client) UpdateProfile(ctx context.Context, token string, in ports.ProfileUpdateInput) (ports.Payload, error) {
	return c.object(ctx, request{method: http.MethodPut, route: "/users/me", token: token, body: profileBody(in)})
}

func (c *Client) ChangePassword(ctx context.Context, token string, in ports.ChangePasswordInput) error {
	return c.do(ctx, request{method: http.MethodPut, route: "/users/change-password", token: token, body: passwordBody(in)}, nil)
}

func (c *Client) UploadAvatar(ctx context.Context, token string, file ports.AvatarUpload) (ports.Payload, error) {
	return c.object(ctx, request{
		method: http.MethodPost,
		route:  "/users/upload-avatar",
		token:  token,
		upload: &multipartFile{field: "file", filename: file.Filename, contentType: file.ContentType, content: file.Content},
	})
}

func (c *Client) Dashboard(ctx context.Context, token string) (ports.Payload, error) {
	return c.object(ctx, request{method: http.MethodGet, route: "/payments/dashboard", token: token})
}

func (c *Client) InitRecharge(ctx context.Context, token string, req ports.RechargeRequest) (ports.Payload, error) {
	return c.object(ctx, request{
		method:         http.MethodPost,
		route:          "/payments/fedapay/recharge",
		token:          token,
		body:           rechargeBody{Amount: req.Amount, CallbackURL: req.CallbackURL},
		idempotencyKey: c.keyOr(req.IdempotencyKey),
	})
}

func (c *Client) RechargeStatus(ctx context.Context, token, paymentID string) (ports.Payload, error) {
	return c.object(ctx, request{
		method: http.MethodGet,
		route:  "/payments/fedapay/status/recharge/:id",
		path:   "/payments/fedapay/status/recharge/" + url.PathEscape(paymentID),
		token:  token,
	})
}

func (c *Client) TransactionStatus(ctx context.Context, token, transactionID string) (ports.Payload, error) {
	return c.object(ctx, request{
		method: http.MethodGet,
		route:  "/payments/fedapay/status/transaction/:id",
		path:   "/payments/fedapay/status/transaction/" + url.PathEscape(transactionID),
		token:  token,
	})
}

func (c *Client) Transfer(ctx context.Context, token string, req ports.TransferRequest) (ports.Payload, error) {
	return c.object(ctx, request{
		method: http.MethodPost,
		route:  "/transactions/transfer",
		token:  token,
		body: transferBody{
			Network:       req.Network,
			ReceiverPhone: req.ReceiverPhone,
			Amount:        json.Number(req.Amount.String()),
			Description:   req.Description,
		},
		idempotencyKey: c.keyOr(req.IdempotencyKey),
	})
}
