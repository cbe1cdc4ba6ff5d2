package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/ports"
	"github.com/fedawallet/wallet-client/internal/pkg/validate"
)

type AdminLoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AdminRegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"required,phone"`
	Secret   string `json:"secret" validate:"required"`
}

type AdminProfileInput struct {
	FullName    string `json:"fullName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,phone"`
}

// AdminFailure is the diagnostic record kept under admin_api_last_error.
type AdminFailure struct {
	Path      string    `json:"url"`
	Status    *int      `json:"status"`
	Message   string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// AdminSession owns the administrator token, independent from the end-user
// session. Any 401/403 on an admin call invalidates it. Other processes that
// share the storage are followed through a ports.ChangeFeed.
type AdminSession struct {
	api     ports.AdminAPI
	storage ports.Storage
	logger  zerolog.Logger
	now     func() time.Time

	wmu  sync.Mutex
	mu   sync.RWMutex
	snap domain.AdminSnapshot

	observers *observerSet[domain.AdminSnapshot]
}

func NewAdminSession(api ports.AdminAPI, storage ports.Storage, logger zerolog.Logger) *AdminSession {
	return &AdminSession{
		api:       api,
		storage:   storage,
		logger:    logger,
		now:       time.Now,
		observers: newObserverSet[domain.AdminSnapshot](),
	}
}

// Load reads admin_token and admin from storage. Expired JWTs are dropped.
func (s *AdminSession) Load(ctx context.Context) domain.AdminSnapshot {
	s.wmu.Lock()
	snap := s.read(ctx)
	if snap.Token != "" {
		if claims, ok := domain.ParseTokenClaims(snap.Token); ok && claims.Expired(s.now()) {
			s.logger.Info().Msg("stored admin token expired; clearing")
			s.remove(ctx)
			snap = domain.AdminSnapshot{}
		}
	}
	s.set(snap)
	s.wmu.Unlock()
	return s.Snapshot()
}

func (s *AdminSession) Snapshot() domain.AdminSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.AdminSnapshot{Token: s.snap.Token, Admin: s.snap.Admin.Clone()}
}

func (s *AdminSession) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Token
}

// Login stores the admin token then loads the admin profile. A profile
// failure other than 401/403 keeps the session: the token alone grants access.
func (s *AdminSession) Login(ctx context.Context, in AdminLoginInput) (domain.AdminSnapshot, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return domain.AdminSnapshot{}, err
	}
	token, err := s.api.Login(ctx, in.Email, in.Password)
	if err != nil {
		s.RecordFailure(ctx, "", err)
		return domain.AdminSnapshot{}, fmt.Errorf("admin login: %w", err)
	}

	s.wmu.Lock()
	if err := s.storage.Set(ctx, domain.KeyAdminToken, token); err != nil {
		s.logger.Warn().Err(err).Msg("storage write failed")
	}
	s.set(domain.AdminSnapshot{Token: token})
	s.wmu.Unlock()
	s.notify()

	if _, err := s.FetchProfile(ctx); err != nil {
		if domain.IsUnauthorized(err) {
			return domain.AdminSnapshot{}, err
		}
		s.logger.Warn().Err(err).Msg("admin profile unavailable after login")
		s.setAdmin(ctx, &domain.User{ID: domain.SyntheticID, Email: in.Email, FullName: in.Email, Role: domain.RoleAdmin})
	}
	s.logger.Info().Msg("admin session established")
	return s.Snapshot(), nil
}

// Register creates an administrator with the shared secret, then logs in.
func (s *AdminSession) Register(ctx context.Context, in AdminRegisterInput) (domain.AdminSnapshot, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Secret = strings.TrimSpace(in.Secret)
	if err := validate.Struct(in); err != nil {
		return domain.AdminSnapshot{}, err
	}
	if _, err := s.api.Register(ctx, ports.AdminRegisterInput{
		Email:    in.Email,
		Password: in.Password,
		Phone:    strings.TrimSpace(in.Phone),
		Secret:   in.Secret,
	}); err != nil {
		s.RecordFailure(ctx, "", err)
		return domain.AdminSnapshot{}, fmt.Errorf("admin register: %w", err)
	}
	return s.Login(ctx, AdminLoginInput{Email: in.Email, Password: in.Password})
}

// Logout always succeeds.
func (s *AdminSession) Logout(ctx context.Context) {
	s.Invalidate(ctx)
}

// Invalidate drops the admin token and profile from memory and storage.
func (s *AdminSession) Invalidate(ctx context.Context) {
	s.wmu.Lock()
	s.remove(ctx)
	s.set(domain.AdminSnapshot{})
	s.wmu.Unlock()
	s.notify()
}

// FetchProfile loads GET /admin/profile and caches it under "admin".
func (s *AdminSession) FetchProfile(ctx context.Context) (*domain.User, error) {
	token := s.Token()
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	payload, err := s.api.Profile(ctx, token)
	if err != nil {
		s.Fail(ctx, token, "/admin/profile", err)
		return nil, fmt.Errorf("admin profile: %w", err)
	}
	admin := adminFromPayload(payload)
	if s.Token() == token {
		s.setAdmin(ctx, admin)
	}
	return admin.Clone(), nil
}

// UpdateProfile saves PUT /admin/profile and merges the result.
func (s *AdminSession) UpdateProfile(ctx context.Context, in AdminProfileInput) (*domain.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	token := s.Token()
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	payload, err := s.api.UpdateProfile(ctx, token, ports.ProfileUpdateInput{
		FullName:    strings.TrimSpace(in.FullName),
		Phone:       strings.TrimSpace(in.PhoneNumber),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	})
	if err != nil {
		s.Fail(ctx, token, "/admin/profile", err)
		return nil, fmt.Errorf("update admin profile: %w", err)
	}

	cur := s.Snapshot().Admin
	if cur == nil {
		cur = adminFromPayload(payload)
	}
	name := strings.TrimSpace(in.FullName)
	phone := strings.TrimSpace(in.PhoneNumber)
	updated := domain.UserPatch{FullName: &name, PhoneNumber: &phone}.Apply(cur)
	if s.Token() == token {
		s.setAdmin(ctx, updated)
	}
	return updated, nil
}

// ChangePassword forwards PUT /admin/change-password; nothing is cached.
func (s *AdminSession) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	token := s.Token()
	if token == "" {
		return domain.ErrNotAuthenticated
	}
	if err := s.api.ChangePassword(ctx, token, ports.ChangePasswordInput{
		CurrentPassword: in.CurrentPassword,
		NewPassword:     in.NewPassword,
	}); err != nil {
		s.Fail(ctx, token, "/admin/change-password", err)
		return fmt.Errorf("change admin password: %w", err)
	}
	return nil
}

// Fail records an admin call failure and invalidates the session on 401/403
// if token is still the current one. It returns err unchanged.
func (s *AdminSession) Fail(ctx context.Context, token, path string, err error) error {
	s.RecordFailure(ctx, path, err)
	if domain.IsUnauthorized(err) && token != "" && s.Token() == token {
		s.logger.Warn().Err(err).Msg("admin token rejected; invalidating admin session")
		s.Invalidate(ctx)
	}
	return err
}

// RecordFailure stores the last admin API failure for diagnostics.
func (s *AdminSession) RecordFailure(ctx context.Context, path string, err error) {
	if err == nil || domain.IsValidation(err) {
		return
	}
	rec := AdminFailure{Path: path, Message: domain.UserMessage(err), Timestamp: s.now().UTC()}
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		rec.Status = &status
		if rec.Path == "" {
			rec.Path = apiErr.Path
		}
	}
	raw, mErr := json.Marshal(rec)
	if mErr != nil {
		return
	}
	// The failing call's context is often already done; the record must still land.
	if sErr := s.storage.Set(context.WithoutCancel(ctx), domain.KeyAdminLastErr, string(raw)); sErr != nil {
		s.logger.Debug().Err(sErr).Msg("could not record admin failure")
	}
}

// LastFailure returns the recorded admin failure, if any.
func (s *AdminSession) LastFailure(ctx context.Context) (*AdminFailure, bool) {
	raw, ok, err := s.storage.Get(ctx, domain.KeyAdminLastErr)
	if err != nil || !ok {
		return nil, false
	}
	var rec AdminFailure
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

// OnChange registers fn for every admin session change, local or external.
func (s *AdminSession) OnChange(fn func(domain.AdminSnapshot)) func() {
	return s.observers.add(fn)
}

// Watch follows admin_token and admin changes made by other clients of the
// same storage, reloading the snapshot when they happen.
func (s *AdminSession) Watch(ctx context.Context, feed ports.ChangeFeed) (func(), error) {
	return feed.Subscribe(ctx, func(ch ports.Change) {
		if ch.Key != domain.KeyAdminToken && ch.Key != domain.KeyAdmin {
			return
		}
		s.wmu.Lock()
		prev := s.Token()
		next := s.read(ctx)
		s.set(next)
		s.wmu.Unlock()

		s.logger.Info().
			Str("key", ch.Key).
			Bool("authenticated", next.Token != "").
			Bool("token_changed", prev != next.Token).
			Msg("admin session changed externally")
		s.notify()
	})
}

func (s *AdminSession) setAdmin(ctx context.Context, admin *domain.User) {
	s.wmu.Lock()
	if raw, err := json.Marshal(admin); err == nil {
		if err := s.storage.Set(ctx, domain.KeyAdmin, string(raw)); err != nil {
			s.logger.Warn().Err(err).Msg("storage write failed")
		}
	}
	s.mu.Lock()
	s.snap.Admin = admin.Clone()
	s.mu.Unlock()
	s.wmu.Unlock()
	s.notify()
}

func (s *AdminSession) read(ctx context.Context) domain.AdminSnapshot {
	var snap domain.AdminSnapshot
	token, ok, err := s.storage.Get(ctx, domain.KeyAdminToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("storage read failed")
		return snap
	}
	if !ok || token == "" {
		return snap
	}
	snap.Token = token
	if raw, ok, err := s.storage.Get(ctx, domain.KeyAdmin); err == nil && ok {
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			snap.Admin = &u
		}
	}
	return snap
}

func (s *AdminSession) remove(ctx context.Context) {
	if err := s.storage.Delete(ctx, domain.KeyAdminToken, domain.KeyAdmin); err != nil {
		s.logger.Warn().Err(err).Msg("storage delete failed")
	}
}

func (s *AdminSession) set(snap domain.AdminSnapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func (s *AdminSession) notify() {
	s.observers.publish(s.Snapshot())
}

func adminFromPayload(payload ports.Payload) *domain.User {
	profile := firstObject(payload, "admin", "user", "profile")
	if profile == nil {
		profile = payload
	}
	u := normalizeUser(profile, ProfileFallback{})
	if _, ok := firstString(profile, "role"); !ok {
		u.Role = domain.RoleAdmin
	}
	return u
}
