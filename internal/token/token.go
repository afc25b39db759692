package token

import (
	"errors"
	"time"

	"club_service/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Type tags every token the service signs. An endpoint that expects one
// type rejects all others regardless of signature validity.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
	TypeReset   Type = "reset_pass"
)

var (
	// ErrInvalidToken is the single failure returned by Parse. Signature
	// mismatch, malformed payload and expiry are deliberately not
	// distinguished for the caller.
	ErrInvalidToken = errors.New("invalid token")

	ErrMissingJTI = errors.New("refresh token requires a jti")
)

type Claims struct {
	jwt.RegisteredClaims
	TokenType Type   `json:"type"`
	UserID    int64  `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	UserType  string `json:"user_type,omitempty"`
}

// JTI returns the revocation handle embedded in a refresh token.
func (c Claims) JTI() string {
	return c.ID
}

// Service issues and verifies signed, typed, expiring tokens. It keeps no
// state of its own and is safe for concurrent use.
type Service struct {
	secret []byte
	issuer string
}

func NewService(secret, issuer string) *Service {
	return &Service{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// NewAccess mints a short-lived bearer token carrying the user's claims.
func (s *Service) NewAccess(u models.User, ttl time.Duration) (string, error) {
	return s.sign(Claims{
		RegisteredClaims: s.registered(ttl, ""),
		TokenType:        TypeAccess,
		UserID:           u.ID,
		Username:         u.Username,
		Email:            u.Email,
		UserType:         u.UserType,
	})
}

// NewRefresh mints a long-lived token bound to jti, the handle later used
// for server-side revocation lookups.
func (s *Service) NewRefresh(u models.User, jti string, ttl time.Duration) (string, error) {
	if jti == "" {
		return "", ErrMissingJTI
	}

	return s.sign(Claims{
		RegisteredClaims: s.registered(ttl, jti),
		TokenType:        TypeRefresh,
		UserID:           u.ID,
		Username:         u.Username,
		Email:            u.Email,
		UserType:         u.UserType,
	})
}

// NewReset mints a short-lived token carrying only the email being reset,
// so the verify and submit steps re-derive it from the claims instead of
// trusting client input.
func (s *Service) NewReset(email string, ttl time.Duration) (string, error) {
	return s.sign(Claims{
		RegisteredClaims: s.registered(ttl, ""),
		TokenType:        TypeReset,
		Email:            email,
	})
}

// Parse verifies the signature, issuer and expiry and returns the decoded
// claims. It fails closed: every problem maps to ErrInvalidToken.
func (s *Service) Parse(raw string) (Claims, error) {
	claims := Claims{}

	parsed, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

func (s *Service) sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return t.SignedString(s.secret)
}

func (s *Service) registered(ttl time.Duration, jti string) jwt.RegisteredClaims {
	now := time.Now().UTC()

	return jwt.RegisteredClaims{
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        jti,
	}
}
