package domain

import "testing"

func TestUserPatch_ApplyLeavesOriginalUntouched(t *testing.T) {
	img := "https://cdn.example/a.png"
	u := &User{ID: "u1", FullName: "Ama", PhoneNumber: "+22990000000", ProfileImageURL: &img}

	name := "Ama K"
	active := false
	out := UserPatch{FullName: &name, IsActive: &active}.Apply(u)

	if out.FullName != "Ama K" || out.PhoneNumber != "+22990000000" || out.IsActive == nil || *out.IsActive {
		t.Fatalf("unexpected merge: %+v", out)
	}
	if u.FullName != "Ama" || u.IsActive != nil {
		t.Fatalf("original modified: %+v", u)
	}
	*out.ProfileImageURL = "changed"
	if *u.ProfileImageURL != img {
		t.Fatal("Apply must deep-copy pointer fields")
	}
}

func TestUserPatch_ApplyNil(t *testing.T) {
	name := "x"
	if (UserPatch{FullName: &name}).Apply(nil) != nil {
		t.Fatal("patching no user yields no user")
	}
}

func TestUserPatch_Empty(t *testing.T) {
	if !(UserPatch{}).Empty() {
		t.Fatal("zero patch must be empty")
	}
	phone := "+229"
	if (UserPatch{PhoneNumber: &phone}).Empty() {
		t.Fatal("patch with a field is not empty")
	}
}

func TestParseRole(t *testing.T) {
	if ParseRole(" admin ") != RoleAdmin || ParseRole("USER") != RoleUser || ParseRole("superuser") != RoleUser {
		t.Fatal("unexpected role mapping")
	}
}

func TestPaymentConfig_DetectEnvironment(t *testing.T) {
	cases := []struct {
		cfg  PaymentConfig
		want string
	}{
		{PaymentConfig{APIKey: "pk_live_abc"}, "live"},
		{PaymentConfig{APIKey: "pk_sandbox_abc"}, "sandbox"},
		{PaymentConfig{APIKey: "pk_live_abc", Environment: "sandbox"}, "sandbox"},
	}
	for _, tc := range cases {
		if got := tc.cfg.DetectEnvironment(); got != tc.want {
			t.Fatalf("DetectEnvironment(%+v) = %q, want %q", tc.cfg, got, tc.want)
		}
	}
}
