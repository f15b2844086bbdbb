package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/biblioteca-api/internal/models"
	"github.com/noah-isme/biblioteca-api/pkg/config"
	appErrors "github.com/noah-isme/biblioteca-api/pkg/errors"
)

const minSecretLength = 32

// SessionService issues and parses the signed session cookie. The
// cookie value is an HS256 JWT whose subject is a random session id;
// the server keeps no session state beyond the captcha store keyed by
// that id.
type SessionService struct {
	secret     []byte
	lifetime   time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

// NewSessionService validates the configured secret. Production
// refuses to start with a weak or missing secret; development falls
// back to a random one-boot secret with a warning.
func NewSessionService(cfg config.SessionConfig, env string, log *zap.Logger) (*SessionService, error) {
	secret := cfg.Secret
	if len(secret) < minSecretLength {
		if env == config.EnvProduction {
			return nil, fmt.Errorf("SESSION_SECRET must be at least %d characters in production", minSecretLength)
		}
		generated, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate development secret: %w", err)
		}
		secret = generated
		if log != nil {
			log.Warn("SESSION_SECRET is weak or unset, generated a temporary secret; sessions will not survive restarts")
		}
	}

	lifetime := cfg.Lifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "catalog_session"
	}

	return &SessionService{
		secret:     []byte(secret),
		lifetime:   lifetime,
		cookieName: cookieName,
		secure:     cfg.SecureCookie,
		now:        time.Now,
	}, nil
}

// Issue creates a fresh session and its signed cookie value.
func (s *SessionService) Issue() (*models.Session, string, error) {
	now := s.now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.lifetime),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sess.ID,
		IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, "", fmt.Errorf("sign session token: %w", err)
	}

	return sess, signed, nil
}

// Parse validates a cookie value and returns the session it names.
func (s *SessionService) Parse(tokenString string) (*models.Session, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrSessionInvalid, "")
	}

	sess := &models.Session{ID: claims.Subject}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}

	return sess, nil
}

// CookieName returns the configured cookie name.
func (s *SessionService) CookieName() string { return s.cookieName }

// Lifetime returns the session lifetime.
func (s *SessionService) Lifetime() time.Duration { return s.lifetime }

// Secure reports whether the cookie should be HTTPS-only.
func (s *SessionService) Secure() bool { return s.secure }

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
