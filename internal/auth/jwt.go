package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTokenTTL is the lifetime of an access token.
	AccessTokenTTL = 15 * time.Minute
	// RefreshTokenTTL is the lifetime of a refresh token.
	RefreshTokenTTL = 24 * time.Hour
)

// ErrInvalidToken is returned when a token is malformed, expired, or signed
// with the wrong key.
var ErrInvalidToken = errors.New("invalid token")

// Claims defines the JWT claims structure.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies access and refresh tokens. Access and
// refresh tokens are signed with separate secrets. The service is stateless:
// issued tokens are never persisted, and logout only clears the client-side
// cookie.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewTokenService creates a TokenService from the two signing secrets.
func NewTokenService(accessSecret, refreshSecret string) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

// IssueAccessToken creates a short-lived access token for a user.
func (ts *TokenService) IssueAccessToken(userID string) (string, error) {
	return ts.issue(userID, AccessTokenTTL, ts.accessSecret)
}

// IssueRefreshToken creates a long-lived refresh token for a user. Refresh
// tokens are delivered only via an HTTP-only cookie, never in a JSON body.
func (ts *TokenService) IssueRefreshToken(userID string) (string, error) {
	return ts.issue(userID, RefreshTokenTTL, ts.refreshSecret)
}

func (ts *TokenService) issue(userID string, ttl time.Duration, secret []byte) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyAccess parses and validates an access token.
func (ts *TokenService) VerifyAccess(tokenStr string) (*Claims, error) {
	return verify(tokenStr, ts.accessSecret)
}

// VerifyRefresh parses and validates a refresh token.
func (ts *TokenService) VerifyRefresh(tokenStr string) (*Claims, error) {
	return verify(tokenStr, ts.refreshSecret)
}

// Refresh validates a refresh token and mints a new access token for the
// same user.
func (ts *TokenService) Refresh(refreshToken string) (string, error) {
	claims, err := ts.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	return ts.IssueAccessToken(claims.UserID)
}

func verify(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
