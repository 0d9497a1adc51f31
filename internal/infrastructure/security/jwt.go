package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

// Claims is what the test API needs to know about a caller.
type Claims struct {
	Subject string
	Role    domain.Role
	Exp     time.Time
}

// JWTSigner issues and verifies the HS256 tokens that guard the test API.
type JWTSigner struct {
	secret []byte
	issuer string
}

func NewJWTSigner(secret, issuer string) *JWTSigner {
	return &JWTSigner{secret: []byte(secret), issuer: issuer}
}

type harnessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) Sign(subject string, role domain.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := harnessClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

func (s *JWTSigner) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, domain.ErrTokenMissing()
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &harnessClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, domain.ErrTokenExpired()
		}
		return Claims{}, domain.ErrTokenInvalid()
	}

	c, ok := parsed.Claims.(*harnessClaims)
	if !ok || !parsed.Valid || !domain.Role(c.Role).Valid() {
		return Claims{}, domain.ErrTokenInvalid()
	}

	var exp time.Time
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Time
	}
	return Claims{Subject: c.Subject, Role: domain.Role(c.Role), Exp: exp}, nil
}
