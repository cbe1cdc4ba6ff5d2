package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the canonical kind of a wallet movement.
type TransactionType string

const (
	TxRecharge TransactionType = "recharge"
	TxTransfer TransactionType = "transfer"
	TxReceive  TransactionType = "receive"
)

// ParseTransactionType maps the backend spellings (recharge/RECHARGE/DEPOSIT,
// transfer/TRANSFER/SEND, receive/RECEIVED) onto a TransactionType.
func ParseTransactionType(raw string) (TransactionType, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "RECHARGE", "DEPOSIT", "TOPUP", "TOP_UP":
		return TxRecharge, true
	case "TRANSFER", "SEND", "SENT":
		return TxTransfer, true
	case "RECEIVE", "RECEIVED", "INCOMING":
		return TxReceive, true
	}
	return "", false
}

// Credit reports whether the movement increases the balance.
func (t TransactionType) Credit() bool {
	return t == TxRecharge || t == TxReceive
}

// PaymentStatus is the canonical status of a transaction or provider payment.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
)

// ParsePaymentStatus maps backend and provider status strings onto a PaymentStatus.
// Anything not recognised as terminal is pending.
func ParsePaymentStatus(raw string) PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS", "SUCCEEDED", "COMPLETED", "COMPLETE", "APPROVED", "TRANSFERRED":
		return StatusCompleted
	case "FAILED", "FAILURE", "DECLINED", "CANCELED", "CANCELLED", "EXPIRED", "REFUNDED":
		return StatusFailed
	}
	return StatusPending
}

// Terminal reports whether no further status change is expected.
func (s PaymentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction is a normalised history entry. It is created by the backend; the
// client only reads it or reflects its effect on Account.Balance.
type Transaction struct {
	ID               string          `json:"id"`
	Type             TransactionType `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Status           PaymentStatus   `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
	Reference        string          `json:"reference,omitempty"`
	Description      string          `json:"description,omitempty"`
	CounterpartName  string          `json:"counterpartName,omitempty"`
	CounterpartPhone string          `json:"counterpartPhone,omitempty"`
}

// Payment is a provider payment record (recharges through FedaPay).
type Payment struct {
	ID        string          `json:"id"`
	Provider  string          `json:"provider"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	Status    PaymentStatus   `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UserID    string          `json:"userId,omitempty"`
	UserEmail string          `json:"userEmail,omitempty"`
}

// Dashboard is the normalised payments dashboard of the current user.
type Dashboard struct {
	Balance      decimal.Decimal `json:"balance"`
	HasBalance   bool            `json:"-"`
	Transactions []Transaction   `json:"transactions"`
	Payments     []Payment       `json:"payments"`
}

// RechargeIntent is what the backend returns when a mobile-money recharge is initiated.
type RechargeIntent struct {
	PaymentID     string          `json:"paymentId"`
	Reference     string          `json:"reference"`
	TransactionID string          `json:"transactionId"`
	PaymentURL    string          `json:"paymentUrl,omitempty"`
	Environment   string          `json:"environment,omitempty"`
	Operator      string          `json:"operator,omitempty"`
	Message       string          `json:"message,omitempty"`
	Status        PaymentStatus   `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
}

// TransferReceipt is the backend acknowledgement of a transfer.
type TransferReceipt struct {
	Reference string          `json:"reference,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
}
