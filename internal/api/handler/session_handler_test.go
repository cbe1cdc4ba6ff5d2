package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/service"
)

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestSessionHandler_Login_Success(t *testing.T) {
	stub := &stubSessions{
		loginFn: func(ctx context.Context, in service.LoginInput) (domain.Session, error) {
			if in.Email != "ama@example.com" || in.Password != "secret" {
				t.Fatalf("unexpected args: %+v", in)
			}
			return domain.Session{
				Token: "opaque",
				User:  &domain.User{ID: "u1", Email: in.Email, Role: domain.RoleUser},
				Account: &domain.Account{
					ID: "acc-1", UserID: "u1", Currency: domain.DefaultCurrency,
				},
			}, nil
		},
	}
	h := NewSessionHandler(stub)

	c, rec := newContext(http.MethodPost, "/session/login", `{"email":"ama@example.com","password":"secret"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decode(t, rec)
	if resp["authenticated"] != true {
		t.Fatalf("expected authenticated session, got %+v", resp)
	}
	if _, leaked := resp["token"]; leaked {
		t.Fatal("token must never be rendered")
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["id"] != "u1" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
}

func TestSessionHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubSessions{
		loginFn: func(context.Context, service.LoginInput) (domain.Session, error) {
			t.Fatal("should not be called")
			return domain.Session{}, nil
		},
	}
	c, _ := newContext(http.MethodPost, "/session/login", "not-json")

	err := NewSessionHandler(stub).Login(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestSessionHandler_Login_ServiceErrorIsReturned(t *testing.T) {
	backendErr := &domain.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials", Path: "/auth/login"}
	stub := &stubSessions{
		loginFn: func(context.Context, service.LoginInput) (domain.Session, error) {
			return domain.Session{}, backendErr
		},
	}
	c, _ := newContext(http.MethodPost, "/session/login", `{"email":"a@b.co","password":"x"}`)

	if err := NewSessionHandler(stub).Login(c); !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error to propagate, got %v", err)
	}
}

func TestSessionHandler_Signup_Created(t *testing.T) {
	stub := &stubSessions{
		signupFn: func(ctx context.Context, in service.SignupInput) (domain.Session, error) {
			if in.FullName != "Ama K" || in.PhoneNumber != "+22990000000" {
				t.Fatalf("unexpected args: %+v", in)
			}
			return domain.Session{Token: "t", User: &domain.User{ID: "u2"}}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/session/signup",
		`{"email":"a@b.co","password":"secret1","fullName":"Ama K","phoneNumber":"+22990000000"}`)

	if err := NewSessionHandler(stub).Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestSessionHandler_GetReportsAnonymous(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/session", "")
	if err := NewSessionHandler(&stubSessions{}).Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["authenticated"] != false {
		t.Fatalf("expected anonymous session, got %+v", resp)
	}
	if _, ok := resp["user"]; ok {
		t.Fatalf("anonymous session must not carry a user: %+v", resp)
	}
}

func TestSessionHandler_GoogleCallbackPassesToken(t *testing.T) {
	var got string
	stub := &stubSessions{
		googleFn: func(ctx context.Context, token string) (domain.Session, error) {
			got = token
			return domain.Session{Token: token}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/auth/google/callback?token=abc.def", "")

	if err := NewSessionHandler(stub).GoogleCallback(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != "abc.def" || rec.Code != http.StatusOK {
		t.Fatalf("unexpected token %q / status %d", got, rec.Code)
	}
}

func TestSessionHandler_Logout(t *testing.T) {
	stub := &stubSessions{}
	c, rec := newContext(http.MethodPost, "/session/logout", "")

	if err := NewSessionHandler(stub).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || stub.logoutCalls != 1 {
		t.Fatalf("expected 204 and one logout, got %d / %d", rec.Code, stub.logoutCalls)
	}
}

func TestSessionHandler_UpdateProfileKeepsAbsentFieldsNil(t *testing.T) {
	stub := &stubSessions{
		profileFn: func(ctx context.Context, in service.ProfileInput) (*domain.User, error) {
			if in.FullName == nil || *in.FullName != "New Name" {
				t.Fatalf("fullName not bound: %+v", in)
			}
			if in.PhoneNumber != nil {
				t.Fatalf("absent phoneNumber must stay nil")
			}
			return &domain.User{ID: "u1", FullName: *in.FullName}, nil
		},
	}
	c, rec := newContext(http.MethodPatch, "/session/profile", `{"fullName":"New Name"}`)

	if err := NewSessionHandler(stub).UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if decode(t, rec)["fullName"] != "New Name" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func avatarRequest(t *testing.T, contentType, content string) echo.Context {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="me.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/session/avatar", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestSessionHandler_UploadAvatarPassesFile(t *testing.T) {
	url := "https://cdn.example/me.png"
	stub := &stubSessions{
		avatarFn: func(ctx context.Context, in service.AvatarInput) (*domain.User, error) {
			raw, _ := io.ReadAll(in.Content)
			if in.Filename != "me.png" || in.ContentType != "image/png" || in.Size != 4 || string(raw) != "\x89PNG" {
				t.Fatalf("unexpected input: %+v content=%q", in, raw)
			}
			return &domain.User{ID: "u1", ProfileImageURL: &url}, nil
		},
	}
	c := avatarRequest(t, "image/png", "\x89PNG")

	if err := NewSessionHandler(stub).UploadAvatar(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	rec := c.Response().Writer.(*httptest.ResponseRecorder)
	if decode(t, rec)["profileImageUrl"] != url {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestSessionHandler_UploadAvatarRequiresFile(t *testing.T) {
	stub := &stubSessions{
		avatarFn: func(context.Context, service.AvatarInput) (*domain.User, error) {
			t.Fatal("service must not be called without a file")
			return nil, nil
		},
	}
	c, _ := newContext(http.MethodPost, "/session/avatar", `{}`)

	err := NewSessionHandler(stub).UploadAvatar(c)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
