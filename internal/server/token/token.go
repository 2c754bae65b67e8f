// Package token issues and verifies the signed access and refresh tokens
// used by the HTTP API.
//
// Both kinds are HS256 JWTs signed with the same configured secret. They
// carry the same identity claims and differ only in lifetime and in the
// "typ" claim, which Verify checks so a refresh token is never accepted
// where an access token is expected.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/folio/internal/ids"
	"github.com/iudanet/folio/internal/models"
)

const (
	// DefaultAccessTTL время жизни access token по умолчанию
	DefaultAccessTTL = time.Hour
	// DefaultRefreshTTL время жизни refresh token по умолчанию
	DefaultRefreshTTL = 7 * 24 * time.Hour
	// DefaultIssuer значение claim "iss"
	DefaultIssuer = "folio"
)

var (
	// ErrMissingSecret returned by NewService when no signing secret is configured.
	ErrMissingSecret = errors.New("token signing secret is not configured")

	// ErrInvalidToken covers every verification failure: bad signature,
	// wrong algorithm, expired, wrong issuer, wrong kind, missing subject.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Kind различает access и refresh токены
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the identity carried by a token.
type Claims struct {
	UserID string
	Name   string
	Role   models.Role
}

// Parsed is a decoded token.
type Parsed struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string // jti
	Kind      Kind
	Claims
}

// IssuedAtPrecise returns the issue time with millisecond precision taken
// from the ULID jti. The "iat" claim has only second precision. If the jti
// is not a ULID or disagrees with "iat", IssuedAt is returned.
func (p *Parsed) IssuedAtPrecise() time.Time {
	at, err := ids.Time(p.ID)
	if err != nil {
		return p.IssuedAt
	}
	// jti должен попадать в ту же секунду, что и iat
	if at.Before(p.IssuedAt) || !at.Before(p.IssuedAt.Add(time.Second)) {
		return p.IssuedAt
	}
	return at
}

// Config содержит параметры для Service
type Config struct {
	Now        func() time.Time
	Issuer     string
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service issues and verifies tokens. It is immutable after construction and
// safe for concurrent use.
type Service struct {
	now        func() time.Time
	issuer     string
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// jwtClaims wire format
type jwtClaims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	Kind Kind   `json:"typ"`
	jwt.RegisteredClaims
}

// NewService creates a token service. An empty secret is an error; there is
// no fallback secret.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}

	s := &Service{
		secret:     append([]byte(nil), cfg.Secret...),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}
	if s.issuer == "" {
		s.issuer = DefaultIssuer
	}
	if s.accessTTL <= 0 {
		s.accessTTL = DefaultAccessTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = DefaultRefreshTTL
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s, nil
}

// AccessTTL returns the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

// RefreshTTL returns the configured refresh token lifetime.
func (s *Service) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// IssueAccessToken signs a short-lived access token and returns it with its expiry.
func (s *Service) IssueAccessToken(c Claims) (string, time.Time, error) {
	return s.issue(c, KindAccess, s.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token and returns it with its expiry.
func (s *Service) IssueRefreshToken(c Claims) (string, time.Time, error) {
	return s.issue(c, KindRefresh, s.refreshTTL)
}

func (s *Service) issue(c Claims, kind Kind, ttl time.Duration) (string, time.Time, error) {
	if c.UserID == "" {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: user id is required", kind)
	}

	now := s.now()
	expiresAt := now.Add(ttl)

	claims := jwtClaims{
		// Пустая роль никогда не превращается в admin
		Role: string(c.Role.Normalize()),
		Name: c.Name,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ids.NewAt(now),
			Subject:   c.UserID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks signature, algorithm, issuer, expiry and kind. Every failure
// wraps ErrInvalidToken.
func (s *Service) Verify(tokenString string, kind Kind) (*Parsed, error) {
	claims := &jwtClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			// Проверяем что используется правильный алгоритм подписи
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.Kind)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject missing", ErrInvalidToken)
	}

	return toParsed(claims), nil
}

// DecodeUnsafe parses claims WITHOUT verifying the signature or expiry.
// Only for diagnostics and logging; never use the result for authorization.
func (s *Service) DecodeUnsafe(tokenString string) (*Parsed, bool) {
	claims := &jwtClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, false
	}
	return toParsed(claims), true
}

func toParsed(c *jwtClaims) *Parsed {
	p := &Parsed{
		ID:   c.ID,
		Kind: c.Kind,
		Claims: Claims{
			UserID: c.Subject,
			Name:   c.Name,
			Role:   models.Role(c.Role).Normalize(),
		},
	}
	if c.IssuedAt != nil {
		p.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}
