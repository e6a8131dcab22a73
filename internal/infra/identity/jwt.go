// Package identity verifies and issues HS256 bearer tokens standing in for
// an external identity provider.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lessonloop/internal/domain"
)

// Claims are the identity fields carried in a token.
type Claims struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// JWT signs and verifies tokens with a shared secret.
type JWT struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWT(secret, issuer string) *JWT {
	return &JWT{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Verify parses token and returns the identity it vouches for.
func (j *JWT) Verify(_ context.Context, token string) (domain.Identity, error) {
	if len(j.secret) == 0 {
		return domain.Identity{}, domain.Upstream("Identity provider is not configured", nil)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return domain.Identity{}, err
	}
	if !parsed.Valid || claims.UID == "" {
		return domain.Identity{}, errors.New("token carries no uid")
	}
	return domain.Identity{UID: claims.UID, Email: claims.Email, EmailVerified: claims.EmailVerified}, nil
}

// Issue mints a token for identity valid for ttl.
func (j *JWT) Issue(identity domain.Identity, ttl time.Duration) (string, error) {
	if len(j.secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := j.now()
	claims := Claims{
		UID:           identity.UID,
		Email:         identity.Email,
		EmailVerified: identity.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   identity.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}
