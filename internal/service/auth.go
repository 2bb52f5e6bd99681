package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/cookies"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/events"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/logging"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/metrics"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/models"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/repo"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/session"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/tokens"
)

const minPasswordLen = 6

type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ComparePassword(u *models.User, plain string) (bool, error)
}

type SessionStore interface {
	Put(ctx context.Context, userID, refreshToken string) error
	Delete(ctx context.Context, userID string) error
	Rotate(ctx context.Context, userID, expected, next string) error
}

type TokenCodec interface {
	Issue(userID string) (tokens.Pair, error)
	Verify(token string, class tokens.Class) (string, error)
}

type AuthService struct {
	Users    UserStore
	Sessions SessionStore
	Tokens   TokenCodec
	Events   events.Publisher
	Metrics  metrics.Recorder
}

// AuthResult is what a successful signup, login or refresh hands to the transport.
type AuthResult struct {
	User   models.UserSummary
	Tokens tokens.Pair
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (in *SignupInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return validation("Please fill all fields")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return validation("invalid email address")
	}
	if len(in.Password) < minPasswordLen {
		return validation("password must be at least 6 characters long")
	}
	return nil
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (res *AuthResult, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")
	defer func() { s.Metrics.AuthOperation("signup", err) }()

	if err := in.validate(); err != nil {
		l.Warn("signup_failed", "status", 400, "reason", err.Error())
		return nil, err
	}

	user := &models.User{Name: in.Name, Email: in.Email, Password: in.Password}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			l.Warn("signup_failed", "status", 400, "reason", "email already registered")
			return nil, ErrDuplicateEmail
		}
		l.Error("signup_failed", "status", 500, "reason", "cannot create user", "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	res, err = s.startSession(ctx, user)
	if err != nil {
		l.Error("signup_failed", "status", 500, "reason", "cannot start session", "error", err)
		// Drop the account so a retry with the same email is not a duplicate.
		if derr := s.Users.DeleteUser(ctx, user.ID); derr != nil {
			l.Error("signup_rollback_failed", "user_id", user.ID, "error", derr)
			return nil, errors.Join(err, fmt.Errorf("delete user: %w", derr))
		}
		return nil, err
	}

	s.publish(ctx, events.TopicUser, user.ID.String(), events.New(events.UserRegistered, user.ID.String(), res.User))
	l.Info("signup_success", "user_id", user.ID)
	return res, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (res *AuthResult, err error) {
	email = normalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)
	defer func() { s.Metrics.AuthOperation("login", err) }()

	if email == "" || password == "" {
		l.Warn("login_failed", "status", 400, "reason", "missing credentials")
		return nil, validation("Please fill all fields")
	}

	user, err := s.Users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 404, "reason", "user not found")
			return nil, ErrNotFound
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := s.Users.ComparePassword(user, password)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "password comparison failed", "error", err)
		return nil, ErrPasswordCompare
	}
	if !ok {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	res, err = s.startSession(ctx, user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot start session", "error", err)
		return nil, err
	}

	s.publish(ctx, events.TopicUser, user.ID.String(), events.New(events.UserLoggedIn, user.ID.String(), nil))
	l.Info("login_success", "user_id", user.ID)
	return res, nil
}

// Logout drops the session named by refresh when it verifies. A missing or
// invalid token is not an error; only a store failure is.
func (s *AuthService) Logout(ctx context.Context, refresh cookies.Token) (err error) {
	l := logging.FromContext(ctx).With("svc", "auth.logout")
	defer func() { s.Metrics.AuthOperation("logout", err) }()

	if !refresh.Present {
		l.Info("logout_success", "reason", "no refresh token")
		return nil
	}

	userID, err := s.Tokens.Verify(refresh.Value, tokens.Refresh)
	if err != nil {
		l.Info("logout_success", "reason", "refresh token did not verify")
		return nil
	}

	if err := s.Sessions.Delete(ctx, userID); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot delete session", "error", err)
		return fmt.Errorf("delete session: %w", err)
	}

	s.publish(ctx, events.TopicUser, userID, events.New(events.UserLoggedOut, userID, nil))
	l.Info("logout_success", "user_id", userID)
	return nil
}

// Refresh exchanges the current refresh token for a brand-new pair. The old
// token stops being accepted the moment this succeeds.
func (s *AuthService) Refresh(ctx context.Context, refresh cookies.Token) (res *AuthResult, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")
	defer func() { s.Metrics.AuthOperation("refresh", err) }()

	if !refresh.Present {
		l.Warn("refresh_failed", "status", 401, "reason", "no refresh token")
		return nil, ErrUnauthorized
	}

	userID, err := s.Tokens.Verify(refresh.Value, tokens.Refresh)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token did not verify", "error", err)
		return nil, ErrInvalidToken
	}

	pair, err := s.Tokens.Issue(userID)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	if err := s.Sessions.Rotate(ctx, userID, refresh.Value, pair.RefreshToken); err != nil {
		if errors.Is(err, session.ErrMismatch) {
			l.Warn("refresh_failed", "status", 403, "reason", "refresh token superseded", "user_id", userID)
			return nil, ErrTokenSuperseded
		}
		l.Error("refresh_failed", "status", 500, "reason", "cannot rotate session", "error", err)
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	l.Info("refresh_success", "user_id", userID)
	return &AuthResult{Tokens: pair}, nil
}

// Authenticate resolves the access cookie to a user. Every failure is ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, access cookies.Token) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.authenticate")

	if !access.Present || access.Value == "" {
		return nil, fmt.Errorf("%w: no access token provided", ErrUnauthorized)
	}
	sub, err := s.Tokens.Verify(access.Value, tokens.Access)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ErrUnauthorized)
	}
	user, err := s.Users.FindUserByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			l.Error("authenticate_failed", "status", 401, "reason", "cannot load user", "error", err)
		}
		return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
	}
	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (models.UserSummary, error) {
	if userID == uuid.Nil {
		return models.UserSummary{}, ErrUnauthorized
	}
	user, err := s.Users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.UserSummary{}, ErrUnauthorized
		}
		return models.UserSummary{}, fmt.Errorf("find user: %w", err)
	}
	return user.Summary(), nil
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	pair, err := s.Tokens.Issue(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.Sessions.Put(ctx, user.ID.String(), pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &AuthResult{User: user.Summary(), Tokens: pair}, nil
}

func (s *AuthService) publish(ctx context.Context, topic, key string, ev events.Event) {
	if err := s.Events.Publish(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
