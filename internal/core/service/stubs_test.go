package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory storage stub
// ---------------------------------------------------------------------------

type mapStorage struct {
	mu      sync.Mutex
	data    map[string]string
	failSet error
	subs    []func(ports.Change)
	// ctxAware makes writes fail on a done context, like the network drivers.
	ctxAware bool
}

func newMapStorage() *mapStorage {
	return &mapStorage{data: make(map[string]string)}
}

func (m *mapStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapStorage) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	if m.ctxAware && ctx.Err() != nil {
		return ctx.Err()
	}
	m.data[key] = value
	return nil
}

func (m *mapStorage) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *mapStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// Subscribe makes mapStorage usable as a ports.ChangeFeed; external writes are
// simulated with externalSet and externalDelete.
func (m *mapStorage) Subscribe(_ context.Context, fn func(ports.Change)) (func(), error) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
	return func() {}, nil
}

// externalSet writes as another process would and notifies subscribers.
func (m *mapStorage) externalSet(key, value string) {
	m.mu.Lock()
	m.data[key] = value
	subs := append([]func(ports.Change){}, m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(ports.Change{Key: key, Origin: "other"})
	}
}

func (m *mapStorage) externalDelete(key string) {
	m.mu.Lock()
	delete(m.data, key)
	subs := append([]func(ports.Change){}, m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(ports.Change{Key: key, Deleted: true, Origin: "other"})
	}
}

// ---------------------------------------------------------------------------
// Backend stub
// ---------------------------------------------------------------------------

func mustPayload(raw string) ports.Payload {
	var p ports.Payload
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		panic(err)
	}
	return p
}

func mustAny(raw string) any {
	var v any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		panic(err)
	}
	return v
}

func apiErr(status int, msg string) error {
	return &domain.APIError{Status: status, Message: msg, Path: "/stub"}
}

var errStub = errors.New("stub failure")

type stubBackend struct {
	mu sync.Mutex

	loginToken  string
	loginErr    error
	registerErr error
	registered  []ports.RegisterInput

	me           ports.Payload
	meErr        error
	dashboard    ports.Payload
	dashboardErr error

	profileUpdates []ports.ProfileUpdateInput
	updateErr      error
	passwordErr    error

	avatarResp    ports.Payload
	avatarErr     error
	avatarContent []string

	rechargeResp ports.Payload
	rechargeErr  error
	recharges    []ports.RechargeRequest

	// statusSeq is consumed one entry per status call; the last entry repeats.
	statusSeq   []string
	statusErr   error
	statusCalls atomic.Int32

	transferResp ports.Payload
	transferErr  error
	transfers    []ports.TransferRequest

	adminToken    string
	adminLoginErr error
	adminProfile  ports.Payload
	adminErr      error
	adminUsers    any
	adminTxs      any
	adminPayments any
	adminStats    ports.Payload
	adminConfigs  any
	savedConfig   []string
	statusChanges map[string]bool
	adminPassword []ports.ChangePasswordInput
	// adminBlock makes every admin list call wait for ctx to be done.
	adminBlock bool
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		loginToken: "tok-1",
		me:         mustPayload(`{"id":"u1","email":"a@x.com","fullName":"Alice"}`),
		dashboard:  mustPayload(`{"balance":10000,"transactions":[],"payments":[]}`),
		adminToken: "admin-tok",
	}
}

func (b *stubBackend) Login(_ context.Context, email, password string) (string, error) {
	if b.loginErr != nil {
		return "", b.loginErr
	}
	return b.loginToken, nil
}

func (b *stubBackend) Register(_ context.Context, in ports.RegisterInput) (ports.Payload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.registerErr != nil {
		return nil, b.registerErr
	}
	b.registered = append(b.registered, in)
	return ports.Payload{"message": "ok", "userId": "u1"}, nil
}

func (b *stubBackend) Me(_ context.Context, token string) (ports.Payload, error) {
	if b.meErr != nil {
		return nil, b.meErr
	}
	return b.me, nil
}

func (b *stubBackend) UpdateProfile(_ context.Context, token string, in ports.ProfileUpdateInput) (ports.Payload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updateErr != nil {
		return nil, b.updateErr
	}
	b.profileUpdates = append(b.profileUpdates, in)
	return ports.Payload{"fullName": in.FullName, "phone": in.Phone}, nil
}

func (b *stubBackend) ChangePassword(_ context.Context, token string, in ports.ChangePasswordInput) error {
	return b.passwordErr
}

func (b *stubBackend) UploadAvatar(_ context.Context, token string, file ports.AvatarUpload) (ports.Payload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.avatarErr != nil {
		return nil, b.avatarErr
	}
	raw, _ := io.ReadAll(file.Content)
	b.avatarContent = append(b.avatarContent, string(raw))
	if b.avatarResp != nil {
		return b.avatarResp, nil
	}
	return ports.Payload{"profileImageUrl": "https://cdn.example/" + file.Filename}, nil
}

func (b *stubBackend) Dashboard(_ context.Context, token string) (ports.Payload, error) {
	if b.dashboardErr != nil {
		return nil, b.dashboardErr
	}
	return b.dashboard, nil
}

func (b *stubBackend) InitRecharge(_ context.Context, token string, req ports.RechargeRequest) (ports.Payload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rechargeErr != nil {
		return nil, b.rechargeErr
	}
	b.recharges = append(b.recharges, req)
	if b.rechargeResp != nil {
		return b.rechargeResp, nil
	}
	return mustPayload(`{"paymentId":"pay-1","reference":"ref-1","transactionId":42,"status":"pending"}`), nil
}

func (b *stubBackend) nextStatus() (ports.Payload, error) {
	n := int(b.statusCalls.Add(1))
	if b.statusErr != nil {
		return nil, b.statusErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.statusSeq) == 0 {
		return ports.Payload{"status": "pending"}, nil
	}
	idx := n - 1
	if idx >= len(b.statusSeq) {
		idx = len(b.statusSeq) - 1
	}
	return ports.Payload{"status": b.statusSeq[idx]}, nil
}

func (b *stubBackend) RechargeStatus(_ context.Context, token, paymentID string) (ports.Payload, error) {
	return b.nextStatus()
}

func (b *stubBackend) TransactionStatus(_ context.Context, token, transactionID string) (ports.Payload, error) {
	return b.nextStatus()
}

func (b *stubBackend) Transfer(_ context.Context, token string, req ports.TransferRequest) (ports.Payload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.transferErr != nil {
		return nil, b.transferErr
	}
	b.transfers = append(b.transfers, req)
	if b.transferResp != nil {
		return b.transferResp, nil
	}
	return ports.Payload{"reference": "tr-1"}, nil
}

// stubAdmin adapts stubBackend to ports.AdminAPI, whose Login/Register/
// UpdateProfile signatures overlap with the end-user ones.
type stubAdmin struct{ b *stubBackend }

func (a stubAdmin) Login(_ context.Context, email, password string) (string, error) {
	if a.b.adminLoginErr != nil {
		return "", a.b.adminLoginErr
	}
	return a.b.adminToken, nil
}

func (a stubAdmin) Register(_ context.Context, in ports.AdminRegisterInput) (ports.Payload, error) {
	return ports.Payload{"userId": "adm1"}, a.b.adminErr
}

func (a stubAdmin) Profile(_ context.Context, token string) (ports.Payload, error) {
	if a.b.adminErr != nil {
		return nil, a.b.adminErr
	}
	if a.b.adminProfile != nil {
		return a.b.adminProfile, nil
	}
	return mustPayload(`{"id":"adm1","email":"root@x.com","fullName":"Root"}`), nil
}

func (a stubAdmin) UpdateProfile(_ context.Context, token string, in ports.ProfileUpdateInput) (ports.Payload, error) {
	if a.b.adminErr != nil {
		return nil, a.b.adminErr
	}
	return ports.Payload{"fullName": in.FullName}, nil
}

func (a stubAdmin) ChangePassword(_ context.Context, token string, in ports.ChangePasswordInput) error {
	if a.b.adminErr != nil {
		return a.b.adminErr
	}
	a.b.mu.Lock()
	a.b.adminPassword = append(a.b.adminPassword, in)
	a.b.mu.Unlock()
	return nil
}

func (a stubAdmin) list(ctx context.Context, v any) (any, error) {
	if a.b.adminBlock {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if a.b.adminErr != nil {
		return nil, a.b.adminErr
	}
	return v, nil
}

func (a stubAdmin) Users(ctx context.Context, token string) (any, error) {
	return a.list(ctx, a.b.adminUsers)
}

func (a stubAdmin) SetUserStatus(_ context.Context, token, userID string, active bool) (ports.Payload, error) {
	if a.b.adminErr != nil {
		return nil, a.b.adminErr
	}
	a.b.mu.Lock()
	if a.b.statusChanges == nil {
		a.b.statusChanges = map[string]bool{}
	}
	a.b.statusChanges[userID] = active
	a.b.mu.Unlock()
	return ports.Payload{"id": userID, "isActive": active}, nil
}

func (a stubAdmin) Transactions(ctx context.Context, token string) (any, error) {
	return a.list(ctx, a.b.adminTxs)
}

func (a stubAdmin) Payments(ctx context.Context, token string) (any, error) {
	return a.list(ctx, a.b.adminPayments)
}

func (a stubAdmin) Stats(ctx context.Context, token string, days int) (ports.Payload, error) {
	v, err := a.list(ctx, a.b.adminStats)
	if err != nil {
		return nil, err
	}
	p, _ := v.(ports.Payload)
	return p, nil
}

func (a stubAdmin) PaymentConfigs(ctx context.Context, token string) (any, error) {
	return a.list(ctx, a.b.adminConfigs)
}

func (a stubAdmin) SavePaymentConfig(_ context.Context, token, provider, apiKey, secretKey string) (ports.Payload, error) {
	if a.b.adminErr != nil {
		return nil, a.b.adminErr
	}
	a.b.mu.Lock()
	a.b.savedConfig = []string{provider, apiKey, secretKey}
	a.b.mu.Unlock()
	return ports.Payload{"id": "cfg-1"}, nil
}

// ---------------------------------------------------------------------------
// Wiring helpers
// ---------------------------------------------------------------------------

type fixture struct {
	storage *mapStorage
	backend *stubBackend
	store   *SessionStore
	sync    *SessionSync
	auth    *AuthService
	wallet  *WalletService
	admin   *AdminSession
	console *AdminService
}

func newFixture() *fixture {
	log := zerolog.Nop()
	f := &fixture{storage: newMapStorage(), backend: newStubBackend()}
	f.store = NewSessionStore(f.storage, log)
	f.sync = NewSessionSync(f.backend, f.backend, f.store, log)
	f.auth = NewAuthService(f.backend, f.backend, f.store, f.sync, log)
	f.wallet = NewWalletService(f.backend, f.store, fastWalletOptions(), log)
	f.admin = NewAdminSession(stubAdmin{f.backend}, f.storage, log)
	f.console = NewAdminService(stubAdmin{f.backend}, f.admin, 200*msec, log)
	return f
}

func (f *fixture) login() {
	if _, err := f.auth.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "pw123456"}); err != nil {
		panic(err)
	}
}

const msec = time.Millisecond

func fastWalletOptions() WalletOptions {
	return WalletOptions{
		RechargePoll:    Poller{Interval: 5 * msec, Timeout: 300 * msec, Logger: zerolog.Nop()},
		TransactionPoll: Poller{Interval: 5 * msec, Timeout: 300 * msec, Logger: zerolog.Nop()},
	}
}

var unauthorized = apiErr(http.StatusUnauthorized, "Unauthorized")
var forbidden = apiErr(http.StatusForbidden, "Forbidden")
