package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

// CallerHeader carries the caller address when token authentication is disabled
const CallerHeader = "X-Caller"

var errNoCaller = errors.New("caller identity is required")

type authenticator struct {
	secret []byte
}

func newAuthenticator(secret string) authenticator {
	if secret == "" {
		return authenticator{}
	}

	return authenticator{secret: []byte(secret)}
}

func (a authenticator) caller(r *http.Request) (model.Address, error) {
	if a.secret == nil {
		value := r.Header.Get(CallerHeader)
		if value == "" {
			return "", errNoCaller
		}

		return model.ParseAddress(value)
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errNoCaller
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return "", errors.Wrap(err, "invalid token")
	}

	return model.ParseAddress(claims.Subject)
}

// IssueToken signs a bearer token identifying the given address, zero ttl never expires
func IssueToken(secret string, address model.Address, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("token secret is empty")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  string(address),
		IssuedAt: jwt.NewNumericDate(now),
	}

	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
