package handler

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/service"
)

type stubSessions struct {
	session     domain.Session
	loginFn     func(ctx context.Context, in service.LoginInput) (domain.Session, error)
	signupFn    func(ctx context.Context, in service.SignupInput) (domain.Session, error)
	googleFn    func(ctx context.Context, token string) (domain.Session, error)
	refreshFn   func(ctx context.Context) (domain.Session, error)
	profileFn   func(ctx context.Context, in service.ProfileInput) (*domain.User, error)
	passwordFn  func(ctx context.Context, in service.ChangePasswordInput) error
	avatarFn    func(ctx context.Context, in service.AvatarInput) (*domain.User, error)
	logoutCalls int
}

func (s *stubSessions) Session() domain.Session { return s.session }
func (s *stubSessions) Login(ctx context.Context, in service.LoginInput) (domain.Session, error) {
	return s.loginFn(ctx, in)
}
func (s *stubSessions) Signup(ctx context.Context, in service.SignupInput) (domain.Session, error) {
	return s.signupFn(ctx, in)
}
func (s *stubSessions) GoogleLogin(ctx context.Context, token string) (domain.Session, error) {
	return s.googleFn(ctx, token)
}
func (s *stubSessions) Logout(context.Context) { s.logoutCalls++ }
func (s *stubSessions) Refresh(ctx context.Context) (domain.Session, error) {
	return s.refreshFn(ctx)
}
func (s *stubSessions) UpdateProfile(ctx context.Context, in service.ProfileInput) (*domain.User, error) {
	return s.profileFn(ctx, in)
}
func (s *stubSessions) ChangePassword(ctx context.Context, in service.ChangePasswordInput) error {
	return s.passwordFn(ctx, in)
}
func (s *stubSessions) UploadAvatar(ctx context.Context, in service.AvatarInput) (*domain.User, error) {
	return s.avatarFn(ctx, in)
}

type stubWallet struct {
	startFn    func(ctx context.Context, in service.RechargeInput) (domain.RechargeIntent, error)
	awaitFn    func(ctx context.Context, id string) (service.RechargeState, error)
	confirmFn  func(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)
	transferFn func(ctx context.Context, in service.TransferInput) (domain.TransferReceipt, error)
	refreshFn  func(ctx context.Context) (domain.Dashboard, error)
	historyFn  func(ctx context.Context, filter string) ([]domain.Transaction, error)
	callbackFn func(ctx context.Context, p service.CallbackParams) (service.CallbackResult, error)
	receive    domain.ReceiveCode
	scanFn     func(raw string) (domain.ReceiveCode, error)
	recharges  map[string]service.RechargeState
	watched    []string
	cancelled  []string
}

func (s *stubWallet) StartRecharge(ctx context.Context, in service.RechargeInput) (domain.RechargeIntent, error) {
	return s.startFn(ctx, in)
}
func (s *stubWallet) WatchRecharge(id string) error {
	s.watched = append(s.watched, id)
	return nil
}
func (s *stubWallet) AwaitRecharge(ctx context.Context, id string) (service.RechargeState, error) {
	return s.awaitFn(ctx, id)
}
func (s *stubWallet) CancelRecharge(id string) bool {
	s.cancelled = append(s.cancelled, id)
	return true
}
func (s *stubWallet) Recharge(id string) (service.RechargeState, bool) {
	st, ok := s.recharges[id]
	return st, ok
}
func (s *stubWallet) ConfirmRecharge(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.confirmFn(ctx, amount)
}
func (s *stubWallet) Transfer(ctx context.Context, in service.TransferInput) (domain.TransferReceipt, error) {
	return s.transferFn(ctx, in)
}
func (s *stubWallet) Refresh(ctx context.Context) (domain.Dashboard, error) {
	return s.refreshFn(ctx)
}
func (s *stubWallet) History(ctx context.Context, filter string) ([]domain.Transaction, error) {
	return s.historyFn(ctx, filter)
}
func (s *stubWallet) HandleProviderCallback(ctx context.Context, p service.CallbackParams) (service.CallbackResult, error) {
	return s.callbackFn(ctx, p)
}
func (s *stubWallet) ReceiveCode() (domain.ReceiveCode, error) { return s.receive, nil }
func (s *stubWallet) ScanReceiveCode(raw string) (domain.ReceiveCode, error) {
	return s.scanFn(raw)
}

type stubAdminSession struct {
	snap      domain.AdminSnapshot
	loginFn   func(ctx context.Context, in service.AdminLoginInput) (domain.AdminSnapshot, error)
	failure   *service.AdminFailure
	logouts   int
	profileFn func(ctx context.Context, in service.AdminProfileInput) (*domain.User, error)
	passwords []service.ChangePasswordInput
}

func (s *stubAdminSession) Snapshot() domain.AdminSnapshot { return s.snap }
func (s *stubAdminSession) Login(ctx context.Context, in service.AdminLoginInput) (domain.AdminSnapshot, error) {
	return s.loginFn(ctx, in)
}
func (s *stubAdminSession) Register(ctx context.Context, in service.AdminRegisterInput) (domain.AdminSnapshot, error) {
	return s.loginFn(ctx, service.AdminLoginInput{Email: in.Email, Password: in.Password})
}
func (s *stubAdminSession) Logout(context.Context) { s.logouts++ }
func (s *stubAdminSession) FetchProfile(context.Context) (*domain.User, error) {
	return s.snap.Admin, nil
}
func (s *stubAdminSession) UpdateProfile(ctx context.Context, in service.AdminProfileInput) (*domain.User, error) {
	return s.profileFn(ctx, in)
}
func (s *stubAdminSession) ChangePassword(_ context.Context, in service.ChangePasswordInput) error {
	s.passwords = append(s.passwords, in)
	return nil
}
func (s *stubAdminSession) LastFailure(context.Context) (*service.AdminFailure, bool) {
	return s.failure, s.failure != nil
}

type stubConsole struct {
	dashboardFn func(ctx context.Context, days int) (*domain.AdminDashboard, error)
	statsFn     func(ctx context.Context, days int) (*domain.AdminStats, error)
	statusFn    func(ctx context.Context, id string, active bool) (*domain.User, error)
	users       []domain.User
	txs         []domain.Transaction
	payments    []domain.Payment
	config      *domain.PaymentConfig
	configErr   error
	saveFn      func(ctx context.Context, in service.PaymentConfigInput) (*domain.PaymentConfig, error)
}

func (s *stubConsole) Dashboard(ctx context.Context, days int) (*domain.AdminDashboard, error) {
	return s.dashboardFn(ctx, days)
}
func (s *stubConsole) ListUsers(context.Context) ([]domain.User, error) { return s.users, nil }
func (s *stubConsole) SetUserStatus(ctx context.Context, id string, active bool) (*domain.User, error) {
	return s.statusFn(ctx, id, active)
}
func (s *stubConsole) ListTransactions(context.Context) ([]domain.Transaction, error) {
	return s.txs, nil
}
func (s *stubConsole) ListPayments(context.Context) ([]domain.Payment, error) {
	return s.payments, nil
}
func (s *stubConsole) Stats(ctx context.Context, days int) (*domain.AdminStats, error) {
	return s.statsFn(ctx, days)
}
func (s *stubConsole) PaymentConfig(context.Context) (*domain.PaymentConfig, error) {
	return s.config, s.configErr
}
func (s *stubConsole) SavePaymentConfig(ctx context.Context, in service.PaymentConfigInput) (*domain.PaymentConfig, error) {
	return s.saveFn(ctx, in)
}
