package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio/internal/config"
	"portfolio/internal/domain"
	"portfolio/internal/metrics"
	"portfolio/internal/util"
	apperrors "portfolio/pkg/errors"
)

// Identity is the authenticated admin carried through a request
type Identity struct {
	UserID   uint
	Username string
	IsAdmin  bool
}

type identityKey struct{}

// WithIdentity returns a context carrying id
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, if any
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// Session is an issued login session
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  *Identity
}

// AuthService implements admin login and session checks
type AuthService struct {
	db        *gorm.DB
	cfg       *config.AuthConfig
	log       *zap.Logger
	now       func() time.Time
	checkHash func(password, hash string) bool
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB, cfg *config.AuthConfig, log *zap.Logger) *AuthService {
	return &AuthService{db: db, cfg: cfg, log: log.Named("auth"), now: time.Now, checkHash: util.CheckPasswordHash}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// missingUserHash is compared against when the username does not exist so
// unknown and known accounts take the same time to reject.
func missingUserHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = util.HashPassword("portfolio-missing-user")
	})
	return dummyHash
}

var errBadCredentials = apperrors.New(apperrors.ErrCodeUnauthorized, "Invalid username or password")

// Login checks credentials and issues a session token. Only active admin
// accounts may log in. remember extends the session lifetime.
func (s *AuthService) Login(ctx context.Context, username, password string, remember bool) (*Session, error) {
	username = strings.TrimSpace(username)
	log := s.log.With(zap.String("username", username))

	if username == "" || password == "" {
		metrics.RecordAuthAttempt(false)
		return nil, errBadCredentials
	}

	var user domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		metrics.RecordAuthAttempt(false)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.checkHash(password, missingUserHash())
			log.Info("login failed: unknown user")
			return nil, errBadCredentials
		}
		log.Error("login failed: database error", zap.Error(err))
		return nil, NewInternalError("failed to load user", err)
	}

	if !s.checkHash(password, user.PasswordHash) {
		log.Info("login failed: invalid password")
		metrics.RecordAuthAttempt(false)
		return nil, errBadCredentials
	}
	if !user.IsActive || !user.IsAdmin {
		log.Info("login failed: account is not an active admin")
		metrics.RecordAuthAttempt(false)
		return nil, errBadCredentials
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		log.Warn("failed to record last login", zap.Error(err))
	}

	ttl := s.cfg.SessionTTL
	if remember {
		ttl = s.cfg.RememberTTL
	}
	token, err := util.GenerateToken(s.cfg.SecretKey, &user, ttl)
	if err != nil {
		log.Error("login failed: token generation error", zap.Error(err))
		return nil, NewInternalError("failed to issue session", err)
	}

	log.Info("login successful", zap.Uint("id", user.ID), zap.Bool("remember", remember))
	metrics.RecordAuthAttempt(true)

	return &Session{
		Token:     token,
		ExpiresAt: now.Add(ttl),
		Identity:  &Identity{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin},
	}, nil
}

// Authenticate resolves a session token to an identity. The account is
// re-read so that deactivated users lose access immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := util.ValidateToken(s.cfg.SecretKey, token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnauthorized, "invalid or expired session", err)
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnauthorized, "invalid session subject", err)
	}

	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "user not found")
		}
		return nil, NewInternalError("failed to load user", err)
	}
	if !user.IsActive {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "user account is inactive")
	}
	if !user.IsAdmin {
		return nil, apperrors.New(apperrors.ErrCodeForbidden, "admin access required")
	}

	return &Identity{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}, nil
}

// Logout records the end of a session. Tokens are stateless; the caller
// clears the cookie.
func (s *AuthService) Logout(ctx context.Context) {
	if id, ok := IdentityFrom(ctx); ok {
		s.log.Info("logout", zap.String("username", id.Username), zap.Uint("id", id.UserID))
	}
}
