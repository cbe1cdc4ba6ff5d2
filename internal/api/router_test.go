package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/ports"
	"github.com/fedawallet/wallet-client/internal/core/service"
	"github.com/fedawallet/wallet-client/internal/infrastructure/backend"
	"github.com/fedawallet/wallet-client/internal/infrastructure/storage"
)

const testAPIKey = "daemon-key"

var (
	routerOnce sync.Once
	testRouter *echo.Echo
)

// fakeBackend answers the handful of backend routes the login and wallet
// flows hit. It lives for the whole test binary, like the shared router.
func fakeBackend() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", onlyMethod(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok-1"}`))
	}))
	mux.HandleFunc("/users/me", onlyMethod(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1","email":"ama@example.com","fullName":"Ama","role":"USER"}`))
	}))
	mux.HandleFunc("/payments/dashboard", onlyMethod(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balance":1500,"transactions":[],"payments":[]}`))
	}))
	return httptest.NewServer(mux)
}

// onlyMethod mirrors Go 1.22 "METHOD /path" mux patterns on older toolchains:
// GET also accepts HEAD, anything else is answered with 405.
func onlyMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// router builds the daemon once per test binary: echoprometheus registers its
// collectors globally and refuses a second registration.
func router(t *testing.T) *echo.Echo {
	t.Helper()
	routerOnce.Do(func() {
		log := zerolog.Nop()
		srv := fakeBackend()
		mem := storage.NewMemory(log)

		client := backend.NewClient(srv.URL, 2*time.Second, log)
		adminClient := backend.NewAdminClient(srv.URL, 2*time.Second, log)

		store := service.NewSessionStore(mem, log)
		syncer := service.NewSessionSync(client, client, store, log)
		adminSession := service.NewAdminSession(adminClient, mem, log)

		testRouter = NewRouter(Dependencies{
			Sessions:     service.NewAuthService(client, client, store, syncer, log),
			Wallet:       service.NewWalletService(client, store, service.DefaultWalletOptions(log), log),
			AdminSession: adminSession,
			AdminConsole: service.NewAdminService(adminClient, adminSession, time.Second, log),
			Health:       map[string]ports.Pinger{"backend": client, "storage": mem},
			APIKey:       testAPIKey,
			CallbackURL:  "http://localhost:8787/fedapay/callback",
			Logger:       log,
		})
	})
	return testRouter
}

func serve(t *testing.T, method, target, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if authed {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}
	rec := httptest.NewRecorder()
	router(t).ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicProbes(t *testing.T) {
	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if rec := serve(t, http.MethodGet, path, "", false); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d (%s)", path, rec.Code, rec.Body.String())
		}
	}
}

func TestRouter_APIKeyRequired(t *testing.T) {
	if rec := serve(t, http.MethodGet, "/session", "", false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without api key, got %d", rec.Code)
	}
	if rec := serve(t, http.MethodGet, "/session", "", true); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with api key, got %d", rec.Code)
	}
}

func TestRouter_SessionRoutesNeedLogin(t *testing.T) {
	serve(t, http.MethodPost, "/session/logout", "", true)

	rec := serve(t, http.MethodGet, "/wallet", "", true)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "not authenticated" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	if rec := serve(t, http.MethodGet, "/admin/users", "", true); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on admin console without admin session, got %d", rec.Code)
	}
}

func TestRouter_LoginThenWallet(t *testing.T) {
	rec := serve(t, http.MethodPost, "/session/login", `{"email":"ama@example.com","password":"secret"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	defer serve(t, http.MethodPost, "/session/logout", "", true)

	rec = serve(t, http.MethodGet, "/wallet", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("wallet: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["balance"] != "1500" || body["currency"] != "XOF" {
		t.Fatalf("unexpected wallet body: %+v", body)
	}
}

func TestRouter_LoginValidation(t *testing.T) {
	rec := serve(t, http.MethodPost, "/session/login", `{"email":"not-an-email","password":"x"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
}
