package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/apiserver/internal/testutils"
)

func mustCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	codec, err := NewCodec([]byte(secret))
	require.NoError(t, err)
	return codec
}

// payloadOf decodes the middle segment of a compact token without verifying it.
func payloadOf(t *testing.T, token string) map[string]any {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	payload := map[string]any{}
	require.NoError(t, dec.Decode(&payload))
	return payload
}

func TestNewCodecRejectsShortSecret(t *testing.T) {
	_, err := NewCodec([]byte("too-short"))
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewCodec(nil)
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestCodecAlgorithmFollowsKeyLength(t *testing.T) {
	tests := []struct {
		length int
		want   string
	}{
		{32, "HS256"},
		{47, "HS256"},
		{48, "HS384"},
		{63, "HS384"},
		{64, "HS512"},
		{128, "HS512"},
	}
	for _, tt := range tests {
		codec := mustCodec(t, strings.Repeat("k", tt.length))
		assert.Equal(t, tt.want, codec.Algorithm(), "key length %d", tt.length)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := mustCodec(t, testutils.Secret)
	issued := time.Unix(1_700_000_000, 0)
	expires := issued.Add(time.Hour)

	token, err := codec.Encode(Claims{
		Subject:  "ada@example.com",
		UserID:   42,
		Roles:    []string{"USER", "ADMIN"},
		IssuedAt: issued,
		Custom:   map[string]any{"tenant": "blue", "sub": "ignored"},
	}, expires)
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Subject)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, []string{"USER", "ADMIN"}, claims.Roles)
	assert.True(t, claims.IssuedAt.Equal(issued))
	assert.True(t, claims.ExpiresAt.Equal(expires))
	assert.Equal(t, map[string]any{"tenant": "blue"}, claims.Custom)
}

func TestCodecEncodesIDAsNumber(t *testing.T) {
	codec := mustCodec(t, testutils.Secret)
	token, err := codec.Encode(Claims{Subject: "ada@example.com", UserID: 7}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	payload := payloadOf(t, token)
	id, ok := payload["id"].(json.Number)
	require.True(t, ok, "id claim should be a JSON number, got %T", payload["id"])
	assert.Equal(t, "7", id.String())

	_, hasRoles := payload["roles"]
	assert.False(t, hasRoles, "empty roles are omitted")
}

func TestCodecRequiresSubject(t *testing.T) {
	codec := mustCodec(t, testutils.Secret)
	_, err := codec.Encode(Claims{UserID: 1}, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCodecDecodeDoesNotCheckExpiry(t *testing.T) {
	codec := mustCodec(t, testutils.Secret)
	expired := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	token, err := codec.Encode(Claims{Subject: "ada@example.com", UserID: 1}, expired)
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Equal(expired))
}

func TestCodecRejectsForeignKey(t *testing.T) {
	k1 := mustCodec(t, testutils.Secret)
	k2 := mustCodec(t, testutils.OtherSecret)

	token, err := k1.Encode(Claims{Subject: "ada@example.com", UserID: 1}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = k2.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCodecRejectsTamperedPayload(t *testing.T) {
	codec := mustCodec(t, testutils.Secret)
	token, err := codec.Encode(Claims{Subject: "ada@example.com", UserID: 1}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	forged, err := codec.Encode(Claims{Subject: "ada@example.com", UserID: 2}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forged, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	_, err = codec.Decode(tampered)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCodecRejectsMalformedTokens(t *testing.T) {
	codec := mustCodec(t, testutils.Secret)
	for _, token := range []string{
		"",
		"not-a-token",
		"a.b",
		"a.b.c",
		"@@@.###.$$$",
	} {
		_, err := codec.Decode(token)
		assert.ErrorIs(t, err, ErrMalformed, "token %q", token)
	}
}

func TestCodecRejectsNoneAlgorithm(t *testing.T) {
	codec := mustCodec(t, testutils.Secret)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "ada@example.com",
		"id":  1,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Decode(unsigned)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCodecRejectsInvalidClaimShapes(t *testing.T) {
	codec := mustCodec(t, testutils.Secret)
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"string id", jwt.MapClaims{"sub": "ada@example.com", "id": "42", "exp": exp}},
		{"fractional id", jwt.MapClaims{"sub": "ada@example.com", "id": 4.5, "exp": exp}},
		{"missing id", jwt.MapClaims{"sub": "ada@example.com", "exp": exp}},
		{"missing subject", jwt.MapClaims{"id": 1, "exp": exp}},
		{"missing expiry", jwt.MapClaims{"sub": "ada@example.com", "id": 1}},
		{"roles not a list", jwt.MapClaims{"sub": "ada@example.com", "id": 1, "exp": exp, "roles": "ADMIN"}},
		{"role not a string", jwt.MapClaims{"sub": "ada@example.com", "id": 1, "exp": exp, "roles": []any{1}}},
		{"unknown type", jwt.MapClaims{"sub": "ada@example.com", "id": 1, "exp": exp, "typ": "session"}},
		{"type not a string", jwt.MapClaims{"sub": "ada@example.com", "id": 1, "exp": exp, "typ": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString([]byte(testutils.Secret))
			require.NoError(t, err)

			_, err = codec.Decode(token)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestCodecAcceptsAnyHMACVariant(t *testing.T) {
	codec := mustCodec(t, testutils.Secret)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "ada@example.com",
		"id":  3,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testutils.Secret))
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
}

func TestCodecCarriesTokenType(t *testing.T) {
	codec := mustCodec(t, testutils.Secret)
	expires := time.Now().Add(time.Hour)

	token, err := codec.Encode(Claims{Subject: "ada@example.com", UserID: 1, Type: TokenRefresh}, expires)
	require.NoError(t, err)
	assert.Equal(t, "refresh", payloadOf(t, token)["typ"])

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, TokenRefresh, claims.Type)

	// A caller-supplied typ in Custom cannot override the real one.
	token, err = codec.Encode(Claims{
		Subject: "ada@example.com",
		UserID:  1,
		Type:    TokenRefresh,
		Custom:  map[string]any{"typ": "access"},
	}, expires)
	require.NoError(t, err)
	claims, err = codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, TokenRefresh, claims.Type)
	assert.Empty(t, claims.Custom)
}

func TestClaimsKind(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		want   TokenType
	}{
		{"typed access", Claims{Type: TokenAccess}, TokenAccess},
		{"typed refresh with roles", Claims{Type: TokenRefresh, Roles: []string{"USER"}}, TokenRefresh},
		{"untyped with roles", Claims{Roles: []string{"USER"}}, TokenAccess},
		{"untyped without roles", Claims{}, TokenRefresh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.claims.Kind())
		})
	}
}
