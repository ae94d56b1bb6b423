package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Identity is the caller resolved from a token.
type Identity struct {
	UserID uuid.UUID
	Phone  string
	Role   string
}

type Claims struct {
	UserID string    `json:"userId"`
	Phone  string    `json:"phone"`
	Role   string    `json:"role"`
	Type   TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Identity converts validated claims back into an Identity.
func (c *Claims) Identity() (Identity, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: id, Phone: c.Phone, Role: c.Role}, nil
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

type JWTService interface {
	GenerateAccessToken(id Identity) (string, error)
	GenerateRefreshToken(id Identity) (string, error)
	ValidateAccessToken(token string) (*Claims, error)
	ValidateRefreshToken(token string) (*Claims, error)
}

type Option func(*jwtService)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(s *jwtService) {
		s.now = now
	}
}

type jwtService struct {
	cfg Config
	now func() time.Time
}

func NewJWTService(cfg Config, opts ...Option) JWTService {
	s := &jwtService{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *jwtService) GenerateAccessToken(id Identity) (string, error) {
	return s.sign(id, AccessToken, s.cfg.AccessSecret, s.cfg.AccessTTL)
}

func (s *jwtService) GenerateRefreshToken(id Identity) (string, error) {
	return s.sign(id, RefreshToken, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
}

func (s *jwtService) ValidateAccessToken(token string) (*Claims, error) {
	return s.parse(token, AccessToken, s.cfg.AccessSecret)
}

func (s *jwtService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.parse(token, RefreshToken, s.cfg.RefreshSecret)
}

func (s *jwtService) sign(id Identity, typ TokenType, secret string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: id.UserID.String(),
		Phone:  id.Phone,
		Role:   id.Role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			Subject:   id.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (s *jwtService) parse(token string, typ TokenType, secret string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims.Type != typ {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
