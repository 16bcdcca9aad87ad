package service

import (
	"context"
	"time"

	"github.com/Payphone-Digital/account-service/internal/constants"
	"github.com/Payphone-Digital/account-service/internal/dto"
	apperrors "github.com/Payphone-Digital/account-service/internal/errors"
	"github.com/Payphone-Digital/account-service/internal/model"
	"github.com/Payphone-Digital/account-service/internal/repository"
	ctxutil "github.com/Payphone-Digital/account-service/pkg/context"
	"github.com/Payphone-Digital/account-service/pkg/logger"
)

type AuthService struct {
	users    UserStore
	sessions SessionStore
	tokens   *TokenService
	hasher   PasswordHasher
	cache    SessionCache
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthService wires the session flow. cache may be nil.
func NewAuthService(users UserStore, sessions SessionStore, tokens *TokenService, hasher PasswordHasher, cache SessionCache, ttl time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		cache:    cache,
		ttl:      ttl,
		now:      utcNow,
	}
}

// Login checks the credentials of an active user and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Login")

	if email == "" {
		logger.LogAuth(0, "login", false)
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.users.FindUser(ctx, repository.UserFilter{Email: email, Status: activeStatus()})
	if err != nil {
		if isNotFound(err) {
			logger.LogAuth(0, "login", false)
			return nil, apperrors.ErrInvalidCredentials
		}
		logger.ErrorWithContext(ctx, "Failed to load user for login").Err(err).Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	ok, err := s.hasher.Check(user.Password, password)
	if err != nil {
		logger.ErrorWithContext(ctx, "Stored password hash unusable").
			Uint("user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !ok {
		logger.LogAuth(user.ID, "login", false)
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.now()
	expiration := now.Add(s.ttl)
	roles := []string{constants.RoleUser}

	token, err := s.tokens.Issue(user, roles, expiration)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	session := &model.Session{
		UserID:     user.ID,
		Token:      token,
		Expiration: expiration,
		Roles:      roles,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.LogAuth(user.ID, "login", true)

	return &dto.LoginResponse{Token: token, Expiration: expiration}, nil
}

// Logout ends the live session holding token. Ending an unknown or already
// ended session fails with ErrSessionNotFound.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx = ctxutil.WithFunction(ctx, "service", "Logout")

	if token == "" {
		return apperrors.ErrSessionNotFound
	}

	now := s.now()
	session, err := s.sessions.FindSession(ctx, repository.SessionFilter{Token: token, LiveAt: &now})
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrSessionNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.sessions.UpdateSession(ctx, session.ID, now); err != nil {
		if isNotFound(err) {
			return apperrors.ErrSessionNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if s.cache != nil {
		s.cache.Delete(ctx, token)
	}

	logger.LogAuth(session.UserID, "logout", true)
	return nil
}

// ValidateToken resolves token to the identity of its live session.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*dto.Identity, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "ValidateToken")

	if token == "" {
		return nil, apperrors.ErrInvalidToken
	}

	now := s.now()

	if s.cache != nil {
		if identity, ok := s.cache.Get(ctx, token); ok && now.Before(identity.ExpiresAt) {
			// Another instance may have ended the session.
			if _, err := s.liveSession(ctx, token, now); err != nil {
				s.cache.Delete(ctx, token)
				return nil, err
			}
			return identity, nil
		}
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		logger.DebugWithContext(ctx, "Token rejected").Err(err).Log()
		return nil, apperrors.ErrInvalidToken
	}

	session, err := s.liveSession(ctx, token, now)
	if err != nil {
		return nil, err
	}

	if !now.Before(claims.ExpiresAt()) {
		return nil, apperrors.ErrInvalidToken
	}

	expiresAt := session.Expiration
	if claims.ExpiresAt().Before(expiresAt) {
		expiresAt = claims.ExpiresAt()
	}

	identity := &dto.Identity{
		UserID:    session.UserID,
		Name:      claims.Name,
		Email:     claims.Email,
		Roles:     []string(session.Roles),
		ExpiresAt: expiresAt,
	}

	if s.cache != nil {
		s.cache.Set(ctx, token, identity, expiresAt.Sub(now))
	}

	return identity, nil
}

func (s *AuthService) liveSession(ctx context.Context, token string, now time.Time) (*model.Session, error) {
	session, err := s.sessions.FindSession(ctx, repository.SessionFilter{Token: token, LiveAt: &now})
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return session, nil
}
