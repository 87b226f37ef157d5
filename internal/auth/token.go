package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried by every access token. On top of the
// registered claims it embeds the flattened authority set as a single
// comma-joined string, which Validate parses once into a typed slice.
type Claims struct {
	jwt.RegisteredClaims
	AuthorityClaim string `json:"authorities,omitempty"`

	authorities []Authority // parsed by Validate, not serialized
}

// Subject returns the token subject (the user's email). An empty
// subject yields ErrMissingClaim.
func (c *Claims) Subject() (string, error) {
	if c.RegisteredClaims.Subject == "" {
		return "", ErrMissingClaim
	}
	return c.RegisteredClaims.Subject, nil
}

// Authorities returns the authority set parsed at validation time.
func (c *Claims) Authorities() []Authority {
	return c.authorities
}

// Claim exposes named access to the string claims embedded in the
// token. Unknown or empty claims yield ErrMissingClaim.
func (c *Claims) Claim(name string) (string, error) {
	var v string
	switch name {
	case "sub":
		v = c.RegisteredClaims.Subject
	case "iss":
		v = c.RegisteredClaims.Issuer
	case "authorities":
		v = c.AuthorityClaim
	}
	if v == "" {
		return "", ErrMissingClaim
	}
	return v, nil
}

// TokenService signs and verifies HS256 access tokens. The signing
// key is established at startup and held read-only for the process
// lifetime; the service itself keeps no other state, so a single
// instance is safe for concurrent use.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService builds a TokenService with a TTL given in minutes,
// matching the ACCESS_TOKEN_TTL_MIN configuration value.
func NewTokenService(secret, issuer string, ttlMin int) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    time.Duration(ttlMin) * time.Minute,
	}
}

// CreateToken signs a token for the subject carrying the flattened
// authority set. Claims are deterministic given subject, authorities
// and the current time: iat=now, exp=now+TTL.
func (ts *TokenService) CreateToken(subject string, authorities []Authority) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		AuthorityClaim: JoinAuthorities(authorities),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
}

// ValidateToken verifies signature, algorithm, issuer and expiry with
// no leeway. Expired-but-well-formed tokens map to ErrTokenExpired,
// everything else to ErrTokenInvalid; both mean "reject", the split
// exists for diagnostics only.
func (ts *TokenService) ValidateToken(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if ts.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return ts.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	claims.authorities = SplitAuthorities(claims.AuthorityClaim)
	return claims, nil
}
