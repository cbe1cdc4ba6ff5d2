package domain

import (
	"testing"
	"time"
)

func TestReceiveCode_RoundTrip(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	code := NewReceiveCode(&User{ID: "u1", FullName: "Ama K", PhoneNumber: "+22990000000"}, now)

	got, err := ParseReceiveCode(code.Encode())
	if err != nil {
		t.Fatalf("ParseReceiveCode returned error: %v", err)
	}
	if got != code || got.Timestamp != 1_700_000_000_123 {
		t.Fatalf("expected %+v, got %+v", code, got)
	}
}

func TestParseReceiveCode_Rejects(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"userId":"u1","phoneNumber":"  "}`, `["+229"]`} {
		if _, err := ParseReceiveCode(raw); !IsValidation(err) {
			t.Fatalf("ParseReceiveCode(%q): expected validation error, got %v", raw, err)
		}
	}
}

func TestParseReceiveCode_TrimsPhone(t *testing.T) {
	c, err := ParseReceiveCode(` {"userId":"u2","fullName":"Kofi","phoneNumber":" +22891000000 ","timestamp":1} `)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.PhoneNumber != "+22891000000" || c.FullName != "Kofi" {
		t.Fatalf("unexpected code: %+v", c)
	}
}
