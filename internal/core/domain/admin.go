package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProviderFedaPay is the payment provider configured by default.
const ProviderFedaPay = "FEDAPAY"

// DailyStats is one point of the admin statistics series.
type DailyStats struct {
	Date               string          `json:"date"`
	TransactionsCount  int64           `json:"transactionsCount"`
	TransactionsAmount decimal.Decimal `json:"transactionsAmount"`
	RechargesCount     int64           `json:"rechargesCount"`
	RechargesAmount    decimal.Decimal `json:"rechargesAmount"`
	VolumeAmount       decimal.Decimal `json:"volumeAmount"`
}

// AdminStats is the aggregate statistics block of the admin console.
type AdminStats struct {
	TotalUsers         int64           `json:"totalUsers"`
	TotalTransactions  int64           `json:"totalTransactions"`
	TotalRecharges     int64           `json:"totalRecharges"`
	TransactionsVolume decimal.Decimal `json:"transactionsVolume"`
	RechargesVolume    decimal.Decimal `json:"rechargesVolume"`
	TotalVolume        decimal.Decimal `json:"totalVolume"`
	Daily              []DailyStats    `json:"daily"`
	RangeDays          int             `json:"rangeDays"`
	RangeStart         *time.Time      `json:"rangeStart,omitempty"`
	RangeEnd           *time.Time      `json:"rangeEnd,omitempty"`
}

// PaymentConfig holds the provider credentials managed from the admin console.
type PaymentConfig struct {
	ID          string `json:"id,omitempty"`
	Provider    string `json:"provider"`
	APIKey      string `json:"apiKey"`
	SecretKey   string `json:"secretKey"`
	Environment string `json:"environment,omitempty"`
}

// DetectEnvironment derives the provider environment from the key prefixes.
func (c PaymentConfig) DetectEnvironment() string {
	if c.Environment != "" {
		return c.Environment
	}
	if strings.HasPrefix(c.APIKey, "pk_live") {
		return "live"
	}
	return "sandbox"
}

// AdminDashboard aggregates everything the admin console shows on one screen.
type AdminDashboard struct {
	Stats        *AdminStats    `json:"stats"`
	Transactions []Transaction  `json:"transactions"`
	Payments     []Payment      `json:"payments"`
	Users        []User         `json:"users"`
	Config       *PaymentConfig `json:"config"`
}
