package service

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/ports"
)

// ProfileFallback carries values a flow already knows (what the user typed at
// login or signup). They are used only when the backend omits the field.
type ProfileFallback struct {
	Email    string
	FullName string
	Phone    string
}

// NormalizeProfile merges a GET /users/me payload and a GET /payments/dashboard
// payload into a User/Account pair. It never fails: missing fields take safe
// defaults. For each field the first present candidate wins:
//
//	profile object   me.user → me.profile → me
//	wallet object    me.account → me.wallet → me.accountData
//	                 → profile.account → profile.wallet → profile.accountData
//	User.ID          profile.id → profile.userId → "me"
//	User.Email       profile.email → fallback.Email → ""
//	User.FullName    profile.fullName → profile.name → fallback.FullName → User.Email
//	User.PhoneNumber profile.phoneNumber → profile.phone → fallback.Phone → ""
//	User.Role        profile.role → USER
//	Account.ID       wallet.id → wallet.accountId → "me"
//	Account.UserID   wallet.userId → User.ID
//	Account.Balance  dashboard.balance → wallet.balance → profile.balance → 0
//	Account.Currency wallet.currency → profile.currency → "XOF"
//
// The dashboard balance always overrides a balance embedded in the profile.
func NormalizeProfile(me, dashboard ports.Payload, fb ProfileFallback) (*domain.User, *domain.Account) {
	profile := firstObject(me, "user", "profile")
	if profile == nil {
		profile = me
	}
	wallet := firstObject(me, "account", "wallet", "accountData")
	if wallet == nil {
		wallet = firstObject(profile, "account", "wallet", "accountData")
	}

	user := normalizeUser(profile, fb)

	account := &domain.Account{
		ID:       stringOr(wallet, domain.SyntheticID, "id", "accountId"),
		UserID:   stringOr(wallet, user.ID, "userId"),
		Currency: domain.DefaultCurrency,
	}
	if cur, ok := firstString(wallet, "currency"); ok && cur != "" {
		account.Currency = cur
	} else if cur, ok := firstString(profile, "currency"); ok && cur != "" {
		account.Currency = cur
	}

	switch {
	case hasDecimal(dashboard, "balance"):
		account.Balance, _ = firstDecimal(dashboard, "balance")
	case hasDecimal(wallet, "balance"):
		account.Balance, _ = firstDecimal(wallet, "balance")
	case hasDecimal(profile, "balance"):
		account.Balance, _ = firstDecimal(profile, "balance")
	default:
		account.Balance = decimal.Zero
	}

	return user, account
}

// normalizeUser maps one user-shaped object onto a User.
func normalizeUser(profile map[string]any, fb ProfileFallback) *domain.User {
	user := &domain.User{
		ID:   stringOr(profile, domain.SyntheticID, "id", "userId", "_id"),
		Role: domain.RoleUser,
	}

	user.Email = stringOr(profile, fb.Email, "email")
	user.FullName = stringOr(profile, "", "fullName", "name")
	if user.FullName == "" {
		user.FullName = fb.FullName
	}
	if user.FullName == "" {
		user.FullName = user.Email
	}
	user.PhoneNumber = stringOr(profile, fb.Phone, "phoneNumber", "phone")

	if img, ok := firstString(profile, "profileImageUrl"); ok {
		user.ProfileImageURL = &img
	}
	if active, ok := profile["isActive"].(bool); ok {
		user.IsActive = &active
	}
	if role, ok := firstString(profile, "role"); ok {
		user.Role = domain.ParseRole(role)
	}
	if created, ok := firstTime(profile, "createdAt", "created_at"); ok {
		user.CreatedAt = &created
	}
	return user
}

// NormalizeDashboard maps GET /payments/dashboard onto a Dashboard. currentUserID is
// used to tell incoming transfers apart from outgoing ones.
func NormalizeDashboard(payload ports.Payload, currentUserID string) domain.Dashboard {
	var d domain.Dashboard
	d.Balance, d.HasBalance = firstDecimal(payload, "balance")
	d.Transactions = normalizeTransactions(payload["transactions"], currentUserID)
	d.Payments = normalizePayments(payload["payments"])
	return d
}

func normalizeTransactions(raw any, currentUserID string) []domain.Transaction {
	items := asList(raw, "transactions")
	out := make([]domain.Transaction, 0, len(items))
	for _, item := range items {
		if tx, ok := normalizeTransaction(item, currentUserID); ok {
			out = append(out, tx)
		}
	}
	sortTransactions(out)
	return out
}

// normalizeTransaction maps one backend transaction. Entries whose type is not
// recognised are dropped so no caller branches on raw backend strings.
func normalizeTransaction(m map[string]any, currentUserID string) (domain.Transaction, bool) {
	rawType, _ := firstString(m, "type", "kind")
	txType, ok := domain.ParseTransactionType(rawType)
	if !ok {
		return domain.Transaction{}, false
	}

	receiverID, _ := firstString(m, "receiverId", "recipientId", "toUserId")
	if receiver := firstObject(m, "receiver", "recipient"); receiver != nil && receiverID == "" {
		receiverID, _ = firstString(receiver, "id", "userId")
	}
	direction, _ := firstString(m, "direction")
	if txType == domain.TxTransfer {
		switch strings.ToLower(direction) {
		case "in", "incoming", "credit":
			txType = domain.TxReceive
		default:
			if currentUserID != "" && currentUserID != domain.SyntheticID && receiverID == currentUserID {
				txType = domain.TxReceive
			}
		}
	}

	status, _ := firstString(m, "status")
	tx := domain.Transaction{
		ID:          stringOr(m, "", "id", "transactionId", "_id"),
		Type:        txType,
		Status:      domain.ParsePaymentStatus(status),
		Reference:   stringOr(m, "", "reference"),
		Description: stringOr(m, "", "description", "reason"),
	}
	tx.Amount, _ = firstDecimal(m, "amount")
	tx.CreatedAt, _ = firstTime(m, "createdAt", "created_at", "date")

	party := "receiver"
	if txType == domain.TxReceive {
		party = "sender"
	}
	tx.CounterpartName = stringOr(m, "", party+"Name", party+"FullName")
	tx.CounterpartPhone = stringOr(m, "", party+"Phone")
	if nested := firstObject(m, party); nested != nil {
		if tx.CounterpartName == "" {
			tx.CounterpartName = stringOr(nested, "", "fullName", "name", "email")
		}
		if tx.CounterpartPhone == "" {
			tx.CounterpartPhone = stringOr(nested, "", "phoneNumber", "phone")
		}
	}
	if tx.CounterpartPhone == "" && txType == domain.TxTransfer {
		tx.CounterpartPhone = stringOr(m, "", "recipientPhone")
	}
	return tx, true
}

func normalizePayments(raw any) []domain.Payment {
	items := asList(raw, "payments")
	out := make([]domain.Payment, 0, len(items))
	for _, m := range items {
		status, _ := firstString(m, "status")
		p := domain.Payment{
			ID:        stringOr(m, "", "id", "paymentId", "_id"),
			Provider:  strings.ToUpper(stringOr(m, "", "provider")),
			Reference: stringOr(m, "", "reference"),
			Status:    domain.ParsePaymentStatus(status),
			UserID:    stringOr(m, "", "userId"),
		}
		p.Amount, _ = firstDecimal(m, "amount")
		p.CreatedAt, _ = firstTime(m, "createdAt", "created_at")
		if u := firstObject(m, "user"); u != nil {
			if p.UserID == "" {
				p.UserID = stringOr(u, "", "id")
			}
			p.UserEmail = stringOr(u, "", "email")
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func normalizeUsers(raw any) []domain.User {
	items := asList(raw, "users")
	out := make([]domain.User, 0, len(items))
	for _, m := range items {
		u := normalizeUser(m, ProfileFallback{})
		if u.IsActive == nil {
			if active, ok := firstBool(m, "isActive", "active", "enabled"); ok {
				u.IsActive = &active
			}
		}
		out = append(out, *u)
	}
	return out
}

// NormalizeRechargeIntent maps the answer of POST /payments/fedapay/recharge.
func NormalizeRechargeIntent(payload ports.Payload, amount int64) domain.RechargeIntent {
	status, _ := firstString(payload, "status")
	return domain.RechargeIntent{
		PaymentID:     stringOr(payload, "", "paymentId", "id"),
		Reference:     stringOr(payload, "", "reference"),
		TransactionID: stringOr(payload, "", "transactionId"),
		PaymentURL:    stringOr(payload, "", "paymentUrl", "url"),
		Environment:   stringOr(payload, "", "environment"),
		Operator:      stringOr(payload, "", "operatorName", "mobileOperator"),
		Message:       stringOr(payload, "", "message"),
		Status:        domain.ParsePaymentStatus(status),
		Amount:        decimal.NewFromInt(amount),
	}
}

// statusOf extracts the payment status of a status-endpoint answer, probing the
// top level then the "data", "payment" and "transaction" envelopes.
func statusOf(payload ports.Payload) domain.PaymentStatus {
	if s, ok := firstString(payload, "status"); ok {
		return domain.ParsePaymentStatus(s)
	}
	if inner := firstObject(payload, "data", "payment", "transaction"); inner != nil {
		if s, ok := firstString(inner, "status"); ok {
			return domain.ParsePaymentStatus(s)
		}
	}
	return domain.StatusPending
}

func normalizeStats(payload ports.Payload, days int) *domain.AdminStats {
	stats := &domain.AdminStats{RangeDays: days}
	stats.TotalUsers, _ = firstInt(payload, "totalUsers")
	stats.TotalTransactions, _ = firstInt(payload, "totalTransactions")
	stats.TotalRecharges, _ = firstInt(payload, "totalRecharges")
	if vol := firstObject(payload, "volume"); vol != nil {
		stats.TransactionsVolume, _ = firstDecimal(vol, "transactions")
		stats.RechargesVolume, _ = firstDecimal(vol, "recharges")
		stats.TotalVolume, _ = firstDecimal(vol, "total")
	}
	if rng := firstObject(payload, "range"); rng != nil {
		if d, ok := firstInt(rng, "days"); ok {
			stats.RangeDays = int(d)
		}
		if t, ok := firstTime(rng, "start"); ok {
			stats.RangeStart = &t
		}
		if t, ok := firstTime(rng, "end"); ok {
			stats.RangeEnd = &t
		}
	}
	for _, m := range asList(payload["daily"], "daily") {
		var ds domain.DailyStats
		ds.Date = stringOr(m, "", "date")
		ds.TransactionsCount, _ = firstInt(m, "transactionsCount")
		ds.TransactionsAmount, _ = firstDecimal(m, "transactionsAmount")
		ds.RechargesCount, _ = firstInt(m, "rechargesCount")
		ds.RechargesAmount, _ = firstDecimal(m, "rechargesAmount")
		ds.VolumeAmount, _ = firstDecimal(m, "volumeAmount")
		stats.Daily = append(stats.Daily, ds)
	}
	return stats
}

func normalizePaymentConfigs(raw any) []domain.PaymentConfig {
	items := asList(raw, "configs")
	if len(items) == 0 {
		if m, ok := raw.(map[string]any); ok && (m["apiKey"] != nil || m["api_key"] != nil) {
			items = []map[string]any{m}
		}
	}
	out := make([]domain.PaymentConfig, 0, len(items))
	for _, m := range items {
		out = append(out, domain.PaymentConfig{
			ID:          stringOr(m, "", "id"),
			Provider:    strings.ToUpper(stringOr(m, "", "provider")),
			APIKey:      stringOr(m, "", "apiKey", "api_key"),
			SecretKey:   stringOr(m, "", "secretKey", "secret_key"),
			Environment: stringOr(m, "", "environment"),
		})
	}
	return out
}

// SelectPaymentConfig prefers the FedaPay entry, else the first one.
func SelectPaymentConfig(configs []domain.PaymentConfig) (*domain.PaymentConfig, bool) {
	if len(configs) == 0 {
		return nil, false
	}
	for i := range configs {
		if strings.EqualFold(configs[i].Provider, domain.ProviderFedaPay) {
			c := configs[i]
			return &c, true
		}
	}
	c := configs[0]
	return &c, true
}

func sortTransactions(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
}

// --- probing helpers ----------------------------------------------------------

func present(m map[string]any, key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok && v != nil
}

func firstObject(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if v, ok := present(m, k); ok {
			if obj, ok := v.(map[string]any); ok {
				return obj
			}
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := present(m, k); ok {
			if s, ok := asString(v); ok {
				return s, true
			}
		}
	}
	return "", false
}

func stringOr(m map[string]any, def string, keys ...string) string {
	if s, ok := firstString(m, keys...); ok {
		return s
	}
	return def
}

func firstDecimal(m map[string]any, keys ...string) (decimal.Decimal, bool) {
	for _, k := range keys {
		if v, ok := present(m, k); ok {
			if d, ok := asDecimal(v); ok {
				return d, true
			}
		}
	}
	return decimal.Zero, false
}

func hasDecimal(m map[string]any, key string) bool {
	_, ok := firstDecimal(m, key)
	return ok
}

func firstInt(m map[string]any, keys ...string) (int64, bool) {
	d, ok := firstDecimal(m, keys...)
	if !ok {
		return 0, false
	}
	return d.IntPart(), true
}

func firstTime(m map[string]any, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		s, ok := firstString(m, k)
		if !ok {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// firstBool is lenient: admin listings report flags as booleans, 0/1 or
// "true"/"false".
func firstBool(m map[string]any, keys ...string) (bool, bool) {
	for _, k := range keys {
		v, ok := present(m, k)
		if !ok {
			continue
		}
		switch x := v.(type) {
		case bool:
			return x, true
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
				return b, true
			}
		default:
			if d, ok := asDecimal(x); ok && (d.IsZero() || d.Equal(decimal.NewFromInt(1))) {
				return !d.IsZero(), true
			}
		}
	}
	return false, false
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		return d, err == nil
	case decimal.Decimal:
		return x, true
	}
	return decimal.Zero, false
}

// asList accepts a bare JSON array or an object wrapping one under "data",
// "items" or the given resource key.
func asList(v any, resource string) []map[string]any {
	switch x := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(x))
		for _, item := range x {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case []map[string]any:
		return x
	case map[string]any:
		for _, key := range []string{"data", "items", resource} {
			if inner, ok := present(x, key); ok {
				if list := asList(inner, ""); len(list) > 0 {
					return list
				}
			}
		}
	}
	return nil
}
