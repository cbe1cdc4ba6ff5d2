package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/service"
	"github.com/fedawallet/wallet-client/internal/pkg/metrics"
)

// WalletHandler exposes balance, history, recharges and transfers.
type WalletHandler struct {
	wallet      WalletService
	sessions    SessionService
	callbackURL string
}

// NewWalletHandler builds the handler. callbackURL is sent to the provider
// when a recharge request does not carry its own.
func NewWalletHandler(wallet WalletService, sessions SessionService, callbackURL string) *WalletHandler {
	return &WalletHandler{wallet: wallet, sessions: sessions, callbackURL: callbackURL}
}

// Get refetches the dashboard; the backend balance replaces the cached one.
//
// @Summary      Wallet overview
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  walletResponse
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /wallet [get]
func (h *WalletHandler) Get(c echo.Context) error {
	dashboard, err := h.wallet.Refresh(c.Request().Context())
	if err != nil {
		return err
	}

	resp := walletResponse{
		Currency:     domain.DefaultCurrency,
		Transactions: dashboard.Transactions,
		Payments:     dashboard.Payments,
	}
	if account := h.sessions.Session().Account; account != nil {
		b := account.Balance
		resp.Balance = &b
		resp.Currency = account.Currency
	}
	return c.JSON(http.StatusOK, resp)
}

// History lists transactions newest first.
//
// @Summary      Transaction history
// @Tags         wallet
// @Produce      json
// @Param        type  query     string  false  "all, recharge, transfer or receive"
// @Success      200   {object}  historyResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /wallet/history [get]
func (h *WalletHandler) History(c echo.Context) error {
	txs, err := h.wallet.History(c.Request().Context(), c.QueryParam("type"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, historyResponse{Transactions: txs, Count: len(txs)})
}

// StartRecharge opens a mobile-money recharge and polls it in the background.
//
// @Summary      Start a recharge
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        body  body      service.RechargeInput  true  "Amount in XOF"
// @Success      202   {object}  rechargeResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /wallet/recharge [post]
func (h *WalletHandler) StartRecharge(c echo.Context) error {
	var req service.RechargeInput
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.CallbackURL == "" {
		req.CallbackURL = h.callbackURL
	}

	intent, err := h.wallet.StartRecharge(c.Request().Context(), req)
	if err != nil {
		return err
	}
	metrics.RechargesTotal.WithLabelValues("started").Inc()

	watching := h.wallet.WatchRecharge(intent.PaymentID) == nil
	return c.JSON(http.StatusAccepted, rechargeResponse{
		Intent:   intent,
		Watching: watching,
		Links: rechargeLinks{
			Self:    "/wallet/recharge/" + intent.PaymentID,
			Payment: intent.PaymentURL,
		},
	})
}

// GetRecharge returns what is known about a tracked recharge.
//
// @Summary      Recharge state
// @Tags         wallet
// @Produce      json
// @Param        id   path      string  true  "Payment id"
// @Success      200  {object}  service.RechargeState
// @Failure      404  {object}  errorResponse
// @Router       /wallet/recharge/{id} [get]
func (h *WalletHandler) GetRecharge(c echo.Context) error {
	state, ok := h.wallet.Recharge(c.Param("id"))
	if !ok {
		return domain.ErrRechargeNotFound
	}
	return c.JSON(http.StatusOK, state)
}

// AwaitRecharge blocks until the recharge settles or the poll times out.
//
// @Summary      Wait for a recharge
// @Tags         wallet
// @Produce      json
// @Param        id   path      string  true  "Payment id"
// @Success      200  {object}  service.RechargeState
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Failure      504  {object}  errorResponse
// @Router       /wallet/recharge/{id}/await [post]
func (h *WalletHandler) AwaitRecharge(c echo.Context) error {
	state, err := h.wallet.AwaitRecharge(c.Request().Context(), c.Param("id"))
	switch {
	case err == nil:
		metrics.RechargesTotal.WithLabelValues(string(state.Status)).Inc()
	case errors.Is(err, domain.ErrPaymentFailed):
		metrics.RechargesTotal.WithLabelValues(string(domain.StatusFailed)).Inc()
	case errors.Is(err, domain.ErrPollTimeout):
		metrics.RechargesTotal.WithLabelValues("timeout").Inc()
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// CancelRecharge stops polling a recharge. The payment itself is not cancelled.
//
// @Summary      Stop following a recharge
// @Tags         wallet
// @Param        id   path  string  true  "Payment id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /wallet/recharge/{id} [delete]
func (h *WalletHandler) CancelRecharge(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.wallet.Recharge(id); !ok {
		return domain.ErrRechargeNotFound
	}
	h.wallet.CancelRecharge(id)
	return c.NoContent(http.StatusNoContent)
}

// ConfirmRecharge credits the cached balance for a recharge confirmed elsewhere.
//
// @Summary      Confirm a recharge
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        body  body      confirmRechargeRequest  true  "Credited amount"
// @Success      200   {object}  balanceResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /wallet/recharge/confirm [post]
func (h *WalletHandler) ConfirmRecharge(c echo.Context) error {
	var req confirmRechargeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	balance, err := h.wallet.ConfirmRecharge(c.Request().Context(), req.Amount)
	if err != nil {
		return err
	}
	metrics.RechargesTotal.WithLabelValues(string(domain.StatusCompleted)).Inc()
	return c.JSON(http.StatusOK, balanceResponse{Balance: balance})
}

// Transfer sends funds to another user by phone number.
//
// @Summary      Transfer funds
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        body  body      service.TransferInput  true  "Receiver and amount"
// @Success      200   {object}  domain.TransferReceipt
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /wallet/transfer [post]
func (h *WalletHandler) Transfer(c echo.Context) error {
	var req service.TransferInput
	if err := bind(c, &req); err != nil {
		return err
	}

	receipt, err := h.wallet.Transfer(c.Request().Context(), req)
	if err != nil {
		metrics.TransfersTotal.WithLabelValues(transferResult(err)).Inc()
		return err
	}
	metrics.TransfersTotal.WithLabelValues("completed").Inc()
	return c.JSON(http.StatusOK, receipt)
}

// ReceiveCode returns the QR payload other users scan to pay this wallet.
//
// @Summary      Receive-money QR code
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  receiveCodeResponse
// @Failure      401  {object}  errorResponse
// @Router       /wallet/receive-code [get]
func (h *WalletHandler) ReceiveCode(c echo.Context) error {
	code, err := h.wallet.ReceiveCode()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, receiveCodeResponse{Code: code.Encode(), Payload: code})
}

// ScanReceiveCode decodes scanned QR text into a transfer recipient.
//
// @Summary      Decode a scanned QR code
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        body  body      scanCodeRequest  true  "Scanned QR text"
// @Success      200   {object}  domain.ReceiveCode
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /wallet/receive-code/scan [post]
func (h *WalletHandler) ScanReceiveCode(c echo.Context) error {
	var req scanCodeRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	code, err := h.wallet.ScanReceiveCode(req.Payload)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, code)
}

// ProviderCallback settles the redirect the payment provider sends the payer to.
//
// @Summary      Payment provider callback
// @Tags         wallet
// @Produce      json
// @Param        status          query     string  false  "approved, declined, canceled or pending"
// @Param        transaction_id  query     string  false  "Provider transaction id"
// @Param        id              query     string  false  "Alias of transaction_id"
// @Param        reference       query     string  false  "Provider reference"
// @Success      200             {object}  callbackResponse
// @Failure      422             {object}  callbackResponse
// @Router       /fedapay/callback [get]
func (h *WalletHandler) ProviderCallback(c echo.Context) error {
	params := service.CallbackParams{
		Status:        c.QueryParam("status"),
		TransactionID: c.QueryParam("transaction_id"),
		Reference:     c.QueryParam("reference"),
	}
	if params.TransactionID == "" {
		params.TransactionID = c.QueryParam("id")
	}

	res, err := h.wallet.HandleProviderCallback(c.Request().Context(), params)
	if errors.Is(err, domain.ErrPaymentFailed) {
		metrics.RechargesTotal.WithLabelValues(string(domain.StatusFailed)).Inc()
		return c.JSON(http.StatusUnprocessableEntity, callbackResponse{CallbackResult: res, Message: "payment was not completed"})
	}
	if err != nil {
		return err
	}

	msg := "payment is still pending"
	if res.Status == domain.StatusCompleted {
		metrics.RechargesTotal.WithLabelValues(string(domain.StatusCompleted)).Inc()
		msg = "payment completed"
	}
	return c.JSON(http.StatusOK, callbackResponse{CallbackResult: res, Message: msg})
}

func transferResult(err error) string {
	var apiErr *domain.APIError
	switch {
	case domain.IsValidation(err), errors.Is(err, domain.ErrInsufficientBalance):
		return "rejected"
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		return "rejected"
	}
	return "error"
}
