package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minSecretLength = 32

const (
	claimSubject   = "sub"
	claimUserID    = "id"
	claimRoles     = "roles"
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
	claimType      = "typ"
)

// TokenType tells access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var reservedClaims = map[string]struct{}{
	claimSubject:   {},
	claimUserID:    {},
	claimRoles:     {},
	claimIssuedAt:  {},
	claimExpiresAt: {},
	claimType:      {},
}

var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// Claims is the decoded payload of an access or refresh token.
type Claims struct {
	// Subject is the principal's email.
	Subject string
	// UserID is the principal's numeric id, carried as a JSON number.
	UserID int64
	// Roles holds role names. Empty for refresh tokens.
	Roles []string
	// IssuedAt is zero when the token carries no iat claim.
	IssuedAt time.Time
	// ExpiresAt is the expiry at second precision.
	ExpiresAt time.Time
	// Type is the typ claim. Empty for tokens minted without one.
	Type TokenType
	// Custom holds any non-reserved claims.
	Custom map[string]any
}

// Kind reports what the token may be used for. An explicit typ claim wins;
// untyped tokens are access tokens only when they carry roles.
func (c Claims) Kind() TokenType {
	if c.Type != "" {
		return c.Type
	}
	if len(c.Roles) > 0 {
		return TokenAccess
	}
	return TokenRefresh
}

// Codec signs claim sets into compact JWS strings and verifies them back.
// The key is fixed at construction; a Codec is safe for concurrent use.
type Codec struct {
	key    []byte
	method *jwt.SigningMethodHMAC
	parser *jwt.Parser
}

// NewCodec derives the signing key from secret. The HMAC variant follows
// the key length: 64 bytes or more sign with HS512, 48 or more with HS384,
// anything shorter with HS256.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	return &Codec{
		key:    key,
		method: methodForKey(key),
		parser: jwt.NewParser(
			jwt.WithValidMethods(hmacMethods),
			jwt.WithoutClaimsValidation(),
			jwt.WithJSONNumber(),
		),
	}, nil
}

// Algorithm returns the JWS alg used for signing.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Encode signs claims with an expiry of expiresAt.
func (c *Codec) Encode(claims Claims, expiresAt time.Time) (string, error) {
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: subject is required", ErrMalformed)
	}

	payload := jwt.MapClaims{}
	for name, value := range claims.Custom {
		if _, reserved := reservedClaims[name]; reserved {
			continue
		}
		payload[name] = value
	}
	payload[claimSubject] = claims.Subject
	payload[claimUserID] = claims.UserID
	if len(claims.Roles) > 0 {
		payload[claimRoles] = claims.Roles
	}
	if claims.Type != "" {
		payload[claimType] = string(claims.Type)
	}
	if !claims.IssuedAt.IsZero() {
		payload[claimIssuedAt] = jwt.NewNumericDate(claims.IssuedAt)
	}
	payload[claimExpiresAt] = jwt.NewNumericDate(expiresAt)

	return jwt.NewWithClaims(c.method, payload).SignedString(c.key)
}

// Decode verifies the signature of token and returns its claims.
// Expiry is not checked here; callers compare Claims.ExpiresAt themselves.
func (c *Codec) Decode(token string) (Claims, error) {
	payload := jwt.MapClaims{}
	_, err := c.parser.ParseWithClaims(token, payload, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		return Claims{}, classifyParseError(err)
	}
	return claimsFromPayload(payload)
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func claimsFromPayload(payload jwt.MapClaims) (Claims, error) {
	var claims Claims

	subject, err := payload.GetSubject()
	if err != nil || subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	claims.Subject = subject

	rawID, ok := payload[claimUserID].(json.Number)
	if !ok {
		return Claims{}, fmt.Errorf("%w: id claim must be a number", ErrMalformed)
	}
	claims.UserID, err = rawID.Int64()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: id claim must be an integer", ErrMalformed)
	}

	if rawRoles, present := payload[claimRoles]; present {
		list, ok := rawRoles.([]any)
		if !ok {
			return Claims{}, fmt.Errorf("%w: roles claim must be a list", ErrMalformed)
		}
		claims.Roles = make([]string, 0, len(list))
		for _, item := range list {
			name, ok := item.(string)
			if !ok {
				return Claims{}, fmt.Errorf("%w: role names must be strings", ErrMalformed)
			}
			claims.Roles = append(claims.Roles, name)
		}
	}

	if rawType, present := payload[claimType]; present {
		kind, ok := rawType.(string)
		if !ok || (TokenType(kind) != TokenAccess && TokenType(kind) != TokenRefresh) {
			return Claims{}, fmt.Errorf("%w: unknown token type", ErrMalformed)
		}
		claims.Type = TokenType(kind)
	}

	exp, err := payload.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, fmt.Errorf("%w: missing expiry", ErrMalformed)
	}
	claims.ExpiresAt = exp.Time

	iat, err := payload.GetIssuedAt()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: invalid issued-at", ErrMalformed)
	}
	if iat != nil {
		claims.IssuedAt = iat.Time
	}

	for name, value := range payload {
		if _, reserved := reservedClaims[name]; reserved {
			continue
		}
		if claims.Custom == nil {
			claims.Custom = make(map[string]any)
		}
		claims.Custom[name] = value
	}

	return claims, nil
}

func methodForKey(key []byte) *jwt.SigningMethodHMAC {
	switch {
	case len(key) >= 64:
		return jwt.SigningMethodHS512
	case len(key) >= 48:
		return jwt.SigningMethodHS384
	default:
		return jwt.SigningMethodHS256
	}
}
