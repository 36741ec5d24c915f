// Package session issues and verifies the signed tokens that carry a
// resolved admin identity between requests. Tokens are HS256 JWTs whose
// jti is registered in a revocation store, so logout takes effect before
// expiry.
package session

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"biometric-device-console/internal/directory"
	"biometric-device-console/internal/storage"
)

var tokenSignatureAlg = jwt.SigningMethodHS256

var (
	// Token did not pass validation
	ErrInvalidToken     = errors.New("invalid token")
	ErrNonValidToken    = errors.New("token did not pass validation")
	ErrInvalidClaimType = errors.New("invalid claim type")
	ErrRevokedToken     = errors.New("token has been revoked")
)

type AuthClaims struct {
	Username string       `json:"username"`
	Role     storage.Role `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	nonces *nonceStore
	logger *slog.Logger
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		nonces: newNonceStore(time.Minute),
		logger: slog.With("component", "session"),
	}
}

func (m *Manager) Close() {
	m.nonces.Close()
}

// Issue creates a token for a freshly authenticated caller.
func (m *Manager) Issue(caller directory.Caller) (string, time.Time, error) {
	nonce := uuid.NewString()
	expiry := time.Now().UTC().Add(m.ttl)

	claims := &AuthClaims{
		Username: caller.Username,
		Role:     caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nonce,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}

	token := jwt.NewWithClaims(tokenSignatureAlg, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	m.nonces.Put(nonce, m.ttl)
	return signed, expiry, nil
}

func decodeJWT[T jwt.Claims](secret []byte, tokenString string, claimsType T) (T, error) {
	var zero T

	parsedToken, err := jwt.ParseWithClaims(tokenString, claimsType, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{tokenSignatureAlg.Alg()}))

	if err != nil {
		return zero, err
	} else if parsedToken == nil || !parsedToken.Valid {
		return zero, ErrNonValidToken
	} else if claims, ok := parsedToken.Claims.(T); ok {
		return claims, nil
	}

	return zero, ErrInvalidClaimType
}

// Verify resolves a token back into a caller identity. The role comes
// from the signed claims, never from anything client-supplied.
func (m *Manager) Verify(tokenString string) (*directory.Caller, error) {
	claims, err := decodeJWT(m.secret, tokenString, &AuthClaims{})
	if err != nil {
		return nil, err
	}

	if !m.nonces.Exists(claims.ID) {
		return nil, ErrRevokedToken
	}

	return &directory.Caller{Username: claims.Username, Role: claims.Role}, nil
}

// Revoke invalidates the token's nonce. Invalid tokens are ignored; there
// is nothing to revoke for them.
func (m *Manager) Revoke(tokenString string) {
	claims, err := decodeJWT(m.secret, tokenString, &AuthClaims{})
	if err != nil {
		m.logger.Debug("Revoke called with undecodable token", "error", err)
		return
	}
	m.nonces.Consume(claims.ID)
}
