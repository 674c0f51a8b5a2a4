package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MAB12-Star/hotel-management/domain"
	"github.com/golang-jwt/jwt/v5"
)

var ErrNoCredentials = fmt.Errorf("%w: no session token", domain.ErrAuthentication)

// Resolver maps a request's session token to the signed-in user ID.
// Tokens are HS256 JWTs whose subject is the user ID.
type Resolver struct {
	secret     []byte
	cookieName string
}

func NewResolver(secret, cookieName string) *Resolver {
	return &Resolver{secret: []byte(secret), cookieName: cookieName}
}

func (r *Resolver) Resolve(req *http.Request) (string, error) {
	token := bearerToken(req)
	if token == "" && r.cookieName != "" {
		if c, err := req.Cookie(r.cookieName); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return "", ErrNoCredentials
	}
	return r.ParseToken(token)
}

func (r *Resolver) ParseToken(tokenStr string) (string, error) {
	if len(r.secret) == 0 {
		return "", fmt.Errorf("%w: resolver has no signing secret", domain.ErrAuthentication)
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", domain.ErrAuthentication)
	}
	return claims.Subject, nil
}

// Issue signs a session token for userID. Used by the token CLI command and tests.
func (r *Resolver) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

func bearerToken(req *http.Request) string {
	parts := strings.Fields(req.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
