package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/ports"
	"github.com/fedawallet/wallet-client/internal/pkg/validate"
)

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	FullName        string `json:"fullName" validate:"required"`
	PhoneNumber     string `json:"phoneNumber" validate:"required,phone"`
	ProfileImageURL string `json:"profileImageUrl" validate:"omitempty,url"`
}

type ProfileInput struct {
	FullName    *string `json:"fullName" validate:"omitempty,min=1"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,phone"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// MaxAvatarSize is the largest profile picture accepted, in bytes.
const MaxAvatarSize = 5 << 20

// AvatarInput is a profile picture to upload.
type AvatarInput struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// AuthService runs the end-user authentication flows. A session is committed
// only once the profile sync succeeded, so callers never observe a token
// without its user and account.
type AuthService struct {
	auth   ports.AuthAPI
	users  ports.UserAPI
	store  *SessionStore
	sync   *SessionSync
	logger zerolog.Logger
}

func NewAuthService(auth ports.AuthAPI, users ports.UserAPI, store *SessionStore, sync *SessionSync, logger zerolog.Logger) *AuthService {
	return &AuthService{auth: auth, users: users, store: store, sync: sync, logger: logger}
}

// Login exchanges credentials for a token, fetches the profile with it and
// commits the session. On any failure the previous session is left untouched.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (domain.Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return domain.Session{}, err
	}

	token, err := s.auth.Login(ctx, in.Email, in.Password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}
	return s.establish(ctx, token, ProfileFallback{Email: in.Email})
}

// Signup registers the account then logs in with the same credentials.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (domain.Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return domain.Session{}, err
	}

	if _, err := s.auth.Register(ctx, ports.RegisterInput{
		Email:           in.Email,
		Password:        in.Password,
		FullName:        in.FullName,
		Phone:           in.PhoneNumber,
		ProfileImageURL: in.ProfileImageURL,
	}); err != nil {
		return domain.Session{}, fmt.Errorf("register: %w", err)
	}

	token, err := s.auth.Login(ctx, in.Email, in.Password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("login after register: %w", err)
	}
	return s.establish(ctx, token, ProfileFallback{
		Email:    in.Email,
		FullName: in.FullName,
		Phone:    in.PhoneNumber,
	})
}

// GoogleLogin adopts a token issued by the OAuth redirect.
func (s *AuthService) GoogleLogin(ctx context.Context, token string) (domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Session{}, domain.NewValidationError("token", "token is required")
	}
	return s.establish(ctx, token, ProfileFallback{})
}

func (s *AuthService) establish(ctx context.Context, token string, fb ProfileFallback) (domain.Session, error) {
	res, err := s.sync.Fetch(ctx, token, fb)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load profile: %w", err)
	}
	s.store.Commit(ctx, token, res.User, res.Account)
	s.logger.Info().Str("user_id", res.User.ID).Msg("session established")
	return s.store.Snapshot(), nil
}

// Logout always succeeds.
func (s *AuthService) Logout(ctx context.Context) {
	s.store.Clear(ctx)
	s.logger.Info().Msg("session closed")
}

// Session returns the current snapshot.
func (s *AuthService) Session() domain.Session {
	return s.store.Snapshot()
}

// Refresh re-syncs the profile and dashboard for the current token. A 401/403
// ends the session; other failures keep the cached state.
func (s *AuthService) Refresh(ctx context.Context) (domain.Session, error) {
	token := s.store.Token()
	if token == "" {
		return domain.Session{}, domain.ErrNotAuthenticated
	}
	cached := s.store.Snapshot()
	var fb ProfileFallback
	if cached.User != nil {
		fb = ProfileFallback{Email: cached.User.Email, FullName: cached.User.FullName, Phone: cached.User.PhoneNumber}
	}

	res, err := s.sync.Fetch(ctx, token, fb)
	if err != nil {
		s.store.DropOnUnauthorized(ctx, token, err)
		return s.store.Snapshot(), fmt.Errorf("refresh session: %w", err)
	}
	s.store.PersistFor(ctx, token, res.User, res.Account)
	return s.store.Snapshot(), nil
}

// UpdateProfile saves the editable profile fields remotely, then merges them
// into the cached user.
func (s *AuthService) UpdateProfile(ctx context.Context, in ProfileInput) (*domain.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	token := s.store.Token()
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}

	cached := s.store.Snapshot()
	body := ports.ProfileUpdateInput{}
	if cached.User != nil {
		body.FullName = cached.User.FullName
		body.Phone = cached.User.PhoneNumber
	}
	if in.FullName != nil {
		body.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.PhoneNumber != nil {
		body.Phone = strings.TrimSpace(*in.PhoneNumber)
	}
	body.PhoneNumber = body.Phone

	payload, err := s.users.UpdateProfile(ctx, token, body)
	if err != nil {
		s.store.DropOnUnauthorized(ctx, token, err)
		return nil, fmt.Errorf("update profile: %w", err)
	}

	patch := domain.UserPatch{FullName: &body.FullName, PhoneNumber: &body.Phone}
	updated := firstObject(payload, "user", "profile")
	if updated == nil {
		updated = payload
	}
	if img, ok := firstString(updated, "profileImageUrl"); ok {
		patch.ProfileImageURL = &img
	}
	s.store.UpdateUser(ctx, patch)
	return s.store.Snapshot().User, nil
}

// ChangePassword forwards the change to the backend; nothing is cached.
func (s *AuthService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	token := s.store.Token()
	if token == "" {
		return domain.ErrNotAuthenticated
	}
	if err := s.users.ChangePassword(ctx, token, ports.ChangePasswordInput{
		CurrentPassword: in.CurrentPassword,
		NewPassword:     in.NewPassword,
	}); err != nil {
		s.store.DropOnUnauthorized(ctx, token, err)
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// UploadAvatar sends a new profile picture and stores the URL the backend
// returns on the cached user.
func (s *AuthService) UploadAvatar(ctx context.Context, in AvatarInput) (*domain.User, error) {
	if in.Content == nil || in.Size <= 0 {
		return nil, domain.NewValidationError("file", "file is required")
	}
	if in.Size > MaxAvatarSize {
		return nil, domain.NewValidationError("file", "image must not exceed 5MB")
	}
	if !strings.HasPrefix(strings.ToLower(in.ContentType), "image/") {
		return nil, domain.NewValidationError("file", "file must be an image")
	}
	token := s.store.Token()
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}

	payload, err := s.users.UploadAvatar(ctx, token, ports.AvatarUpload{
		Filename:    in.Filename,
		ContentType: in.ContentType,
		Content:     in.Content,
	})
	if err != nil {
		s.store.DropOnUnauthorized(ctx, token, err)
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	updated := firstObject(payload, "user", "profile", "data")
	if updated == nil {
		updated = payload
	}
	img, ok := firstString(updated, "profileImageUrl", "url")
	if !ok {
		return nil, fmt.Errorf("upload avatar: backend returned no image url")
	}
	if s.store.Token() == token {
		s.store.UpdateUser(ctx, domain.UserPatch{ProfileImageURL: &img})
	}
	return s.store.Snapshot().User, nil
}
