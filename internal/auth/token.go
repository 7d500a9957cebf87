package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/pkg/crypto"
)

// DefaultTokenTTL is used when Issue is called without a positive ttl.
const DefaultTokenTTL = time.Hour

// Claims are the session token claims.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 session tokens.
type TokenIssuer struct {
	secret     []byte
	defaultTTL time.Duration
	issuer     string
	now        func() time.Time
}

// NewTokenIssuer creates an issuer. The secret must be at least
// crypto.MinTokenSecretLength characters. A non-positive defaultTTL uses DefaultTokenTTL.
func NewTokenIssuer(secret string, defaultTTL time.Duration, issuer string) (*TokenIssuer, error) {
	if err := crypto.CheckTokenSecret(secret); err != nil {
		return nil, err
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTokenTTL
	}

	return &TokenIssuer{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		issuer:     issuer,
		now:        time.Now,
	}, nil
}

// Issue signs a token for the user valid for ttl.
func (t *TokenIssuer) Issue(userID, username string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = t.defaultTTL
	}
	now := t.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, algorithm and expiry of token. On success it
// returns the claims and a refreshed token with a fresh default lifetime.
func (t *TokenIssuer) Verify(token string) (*Claims, string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, "", domain.ErrInvalidToken
	}

	refreshed, err := t.Issue(claims.UserID, claims.Username, t.defaultTTL)
	if err != nil {
		return nil, "", err
	}
	return claims, refreshed, nil
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
