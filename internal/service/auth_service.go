package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dealflow/internal/audit"
	"dealflow/internal/model"
	"dealflow/internal/observability/metrics"
	"dealflow/internal/repository"
	"dealflow/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      session.User `json:"user"`
}

// LoginResult is what a successful Authenticate hands back to the caller.
type LoginResult struct {
	TokenResponse
	Session *session.Session `json:"-"`
}

type AuthConfig struct {
	JWTSecret  []byte
	TokenTTL   time.Duration
	LoginDelay time.Duration // simulated latency, applied to every attempt
}

// AuthService establishes, resolves and ends sessions.
type AuthService interface {
	Authenticate(ctx context.Context, req LoginRequest) (*LoginResult, error)
	ResolveToken(ctx context.Context, token string) (*session.Session, error)
	CurrentUser(ctx context.Context, sessionID string) (*session.Session, error)
	EndSession(ctx context.Context, sess *session.Session) error
}

type authService struct {
	users      repository.UserRepository
	knownUsers repository.KnownUserRepository
	sessions   *session.Manager
	cfg        AuthConfig
	audit      *audit.Logger
	logger     *slog.Logger
	now        func() time.Time
}

func NewAuthService(users repository.UserRepository, knownUsers repository.KnownUserRepository, sessions *session.Manager, cfg AuthConfig, auditLog *audit.Logger, logger *slog.Logger) AuthService {
	return &authService{
		users:      users,
		knownUsers: knownUsers,
		sessions:   sessions,
		cfg:        cfg,
		audit:      auditLog,
		logger:     logger,
		now:        time.Now,
	}
}

// Authenticate checks the pair against the roster. The delay runs before the
// lookup and ignores ctx cancellation, so every caller gets an answer.
// A failed attempt never touches existing sessions.
func (s *authService) Authenticate(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	start := s.now()
	if s.cfg.LoginDelay > 0 {
		time.Sleep(s.cfg.LoginDelay)
	}

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			metrics.ObserveLogin("error", s.now().Sub(start))
			return nil, err
		}
		return nil, s.loginFailed(ctx, req.Username, start)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.loginFailed(ctx, req.Username, start)
	}

	sess, err := s.sessions.Create(ctx, session.FromModel(user))
	if err != nil {
		metrics.ObserveLogin("error", s.now().Sub(start))
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	if err := s.knownUsers.Upsert(ctx, &model.KnownUser{
		UserID:       user.ID,
		Username:     user.Username,
		Name:         user.Name,
		Role:         user.Role,
		Region:       user.Region,
		FirstLoginAt: now,
		LastLoginAt:  now,
	}); err != nil {
		_ = s.sessions.End(ctx, sess.ID)
		metrics.ObserveLogin("error", s.now().Sub(start))
		return nil, fmt.Errorf("failed to record known user: %w", err)
	}

	expiresAt := now.Add(s.cfg.TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"sid":  sess.ID,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	})
	tokenString, err := token.SignedString(s.cfg.JWTSecret)
	if err != nil {
		_ = s.sessions.End(ctx, sess.ID)
		return nil, errors.New("failed to generate token")
	}

	metrics.ObserveLogin("success", s.now().Sub(start))
	metrics.SessionCreated()
	s.audit.LogAuth(ctx, user.ID.String(), audit.ActionLogin, "success", "")

	return &LoginResult{
		TokenResponse: TokenResponse{Token: tokenString, ExpiresAt: expiresAt, User: sess.User},
		Session:       sess,
	}, nil
}

func (s *authService) loginFailed(ctx context.Context, username string, start time.Time) error {
	metrics.ObserveLogin("invalid_credentials", s.now().Sub(start))
	s.audit.LogAuth(ctx, "", audit.ActionLoginFailed, "failed", "username="+username)
	return ErrInvalidCredentials
}

// ResolveToken verifies the token signature and returns the session it names.
func (s *authService) ResolveToken(ctx context.Context, tokenString string) (*session.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.cfg.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}
	sid, _ := claims["sid"].(string)
	sub, _ := claims["sub"].(string)

	sess, err := s.CurrentUser(ctx, sid)
	if err != nil {
		return nil, err
	}
	if sess.User.ID.String() != sub {
		return nil, ErrUnauthenticated
	}
	return sess, nil
}

// CurrentUser returns the established session or ErrUnauthenticated.
func (s *authService) CurrentUser(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if sess.Expired(s.now()) {
		_ = s.sessions.End(ctx, sess.ID)
		metrics.SessionEnded(metrics.SessionExpired)
		return nil, ErrUnauthenticated
	}
	return sess, nil
}

// EndSession clears the session from every store.
func (s *authService) EndSession(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return ErrUnauthenticated
	}
	if err := s.sessions.End(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	metrics.SessionEnded(metrics.SessionLogout)
	s.audit.LogAuth(ctx, sess.User.ID.String(), audit.ActionLogout, "success", "")
	return nil
}
