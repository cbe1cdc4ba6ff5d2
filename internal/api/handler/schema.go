package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/service"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Session ---

type sessionResponse struct {
	Authenticated bool            `json:"authenticated"`
	User          *domain.User    `json:"user,omitempty"`
	Account       *domain.Account `json:"account,omitempty"`
	ExpiresAt     *time.Time      `json:"expiresAt,omitempty"`
}

func newSessionResponse(s domain.Session) sessionResponse {
	resp := sessionResponse{
		Authenticated: s.Authenticated(),
		User:          s.User,
		Account:       s.Account,
	}
	if claims, ok := domain.ParseTokenClaims(s.Token); ok {
		resp.ExpiresAt = claims.ExpiresAt
	}
	return resp
}


// --- Wallet ---

type walletResponse struct {
	Balance      *decimal.Decimal     `json:"balance,omitempty"`
	Currency     string               `json:"currency"`
	Transactions []domain.Transaction `json:"transactions"`
	Payments     []domain.Payment     `json:"payments"`
}

type rechargeResponse struct {
	Intent   domain.RechargeIntent `json:"intent"`
	Watching bool                  `json:"watching"`
	Links    rechargeLinks         `json:"_links"`
}

type rechargeLinks struct {
	Self    string `json:"self"`
	Payment string `json:"payment,omitempty"`
}

type confirmRechargeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type historyResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
}

type receiveCodeResponse struct {
	// Code is the text to render as a QR code.
	Code    string             `json:"code"`
	Payload domain.ReceiveCode `json:"payload"`
}

type scanCodeRequest struct {
	Payload string `json:"payload" validate:"required"`
}

type callbackResponse struct {
	service.CallbackResult
	Message string `json:"message"`
}

// --- Admin ---

type adminSessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	Admin         *domain.User `json:"admin,omitempty"`
}

func newAdminSessionResponse(s domain.AdminSnapshot) adminSessionResponse {
	return adminSessionResponse{Authenticated: s.Authenticated(), Admin: s.Admin}
}

type userStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type usersResponse struct {
	Users []domain.User `json:"users"`
	Count int           `json:"count"`
}

type transactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
}

type paymentsResponse struct {
	Payments []domain.Payment `json:"payments"`
	Count    int              `json:"count"`
}

type lastErrorResponse struct {
	Recorded bool                  `json:"recorded"`
	Failure  *service.AdminFailure `json:"failure,omitempty"`
}
