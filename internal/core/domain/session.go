package domain

import "github.com/shopspring/decimal"

// DefaultCurrency is used whenever the backend omits the wallet currency.
const DefaultCurrency = "XOF"

// SyntheticID stands in for identifiers the backend did not return.
const SyntheticID = "me"

// Persisted storage keys. Absence of a key means "not logged in".
const (
	KeyToken        = "token"
	KeyUser         = "user"
	KeyAccount      = "account"
	KeyAdminToken   = "admin_token"
	KeyAdmin        = "admin"
	KeyAdminLastErr = "admin_api_last_error"
)

// Account is the cached wallet snapshot of the current user. Balance is a
// read-optimised projection; the backend value always wins on reconciliation.
type Account struct {
	ID       string          `json:"id"`
	UserID   string          `json:"userId"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// Clone returns a copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// Session is a point-in-time copy of the end-user session.
// User and Account may be nil while Token is set (cached state before the first sync).
type Session struct {
	Token   string   `json:"-"`
	User    *User    `json:"user"`
	Account *Account `json:"account"`
}

// Authenticated reports whether a bearer token is held.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Complete reports whether token, user and account are all present.
func (s Session) Complete() bool {
	return s.Token != "" && s.User != nil && s.Account != nil
}

// AdminSnapshot is a point-in-time copy of the administrative session.
type AdminSnapshot struct {
	Token string `json:"-"`
	Admin *User  `json:"admin"`
}

// Authenticated reports whether an admin token is held.
func (s AdminSnapshot) Authenticated() bool {
	return s.Token != ""
}
