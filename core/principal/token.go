package principal

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ryitech/institute/core"
)

var (
	// errors
	ErrNoToken      = errors.New("not authorized, no token, please login")
	ErrInvalidToken = errors.New("invalid token, authorization failed")
	ErrTokenExpired = errors.New("token expired, please login again")

	signingMethod = jwt.SigningMethodHS256
)

// Claims is the payload carried by both session and reset tokens: the opaque
// principal ID (subject) and its role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenManager signs and verifies session and password-reset tokens.
// The two kinds use distinct secrets and lifetimes; a reset token never
// authenticates a request and a session token never resets a password.
type TokenManager struct {
	conf *core.Config
}

func NewTokenManager(conf *core.Config) *TokenManager {
	return &TokenManager{conf: conf}
}

func (tm *TokenManager) make(p Principal, key []byte, delta time.Duration) (string, error) {
	now := nowFunc().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tm.conf.AppName,
			Subject:   p.PrincipalID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(delta)),
		},
		Role: p.Role(),
	}
	return jwt.NewWithClaims(signingMethod, claims).SignedString(key)
}

func (tm *TokenManager) verify(token string, key []byte) (*Claims, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{signingMethod.Alg()}), jwt.WithTimeFunc(func() time.Time {
		return nowFunc()
	}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// MakeSessionToken issues the 30-day login token.
func (tm *TokenManager) MakeSessionToken(p Principal) (string, error) {
	return tm.make(p, tm.conf.SecretKey, tm.conf.Server.SessionTokenDelta)
}

// VerifySessionToken resolves a session token to its claims.
func (tm *TokenManager) VerifySessionToken(token string) (*Claims, error) {
	return tm.verify(token, tm.conf.SecretKey)
}

// MakeResetToken issues the short-lived password-reset token.
func (tm *TokenManager) MakeResetToken(p Principal) (string, error) {
	return tm.make(p, tm.conf.ResetSecretKey, tm.conf.Server.ResetTokenDelta)
}

// VerifyResetToken resolves a reset token to its claims.
func (tm *TokenManager) VerifyResetToken(token string) (*Claims, error) {
	return tm.verify(token, tm.conf.ResetSecretKey)
}
