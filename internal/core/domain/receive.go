package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ReceiveCode is the payload of the "receive money" QR code: enough for the
// payer to prefill a transfer to this user.
type ReceiveCode struct {
	UserID      string `json:"userId"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	// Timestamp is in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// NewReceiveCode builds the code of u at now.
func NewReceiveCode(u *User, now time.Time) ReceiveCode {
	return ReceiveCode{
		UserID:      u.ID,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Timestamp:   now.UnixMilli(),
	}
}

// Encode returns the JSON text rendered in the QR code.
func (c ReceiveCode) Encode() string {
	raw, _ := json.Marshal(c)
	return string(raw)
}

// ParseReceiveCode decodes scanned QR text. A code without a phone number
// cannot address a transfer and is rejected.
func ParseReceiveCode(raw string) (ReceiveCode, error) {
	var c ReceiveCode
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &c); err != nil {
		return ReceiveCode{}, NewValidationError("payload", "invalid QR code")
	}
	c.PhoneNumber = strings.TrimSpace(c.PhoneNumber)
	if c.PhoneNumber == "" {
		return ReceiveCode{}, NewValidationError("payload", "QR code carries no phone number")
	}
	return c, nil
}
