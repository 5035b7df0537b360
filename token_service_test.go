package wiki_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-wiki"
)

const testSigningKey = "test-signing-key-that-is-long-enough"

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestNewTokenService_Defaults(t *testing.T) {
	ts := wiki.NewTokenService([]byte(testSigningKey), 0)
	assert.Equal(t, 30*time.Minute, ts.TokenExpiration())

	ts = wiki.NewTokenService([]byte(testSigningKey), time.Hour)
	assert.Equal(t, time.Hour, ts.TokenExpiration())
}

func TestTokenService_GenerateAndValidate(t *testing.T) {
	clk := newClock()
	ts := wiki.NewTokenService([]byte(testSigningKey), 0).
		WithClock(clk.Now).
		WithLogger(wiki.NopLogger())

	token, err := ts.Generate("ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", claims.Subject())
	assert.NotEmpty(t, claims.TokenID())
	assert.True(t, clk.now.Equal(claims.IssuedAt()), "iat %s", claims.IssuedAt())
	assert.True(t, clk.now.Add(wiki.DefaultTokenExpiration).Equal(claims.Expires()), "exp %s", claims.Expires())

	subject, err := ts.ExtractSubject(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", subject)
}

func TestTokenService_SignClaimsFillsTimes(t *testing.T) {
	clk := newClock()
	ts := wiki.NewTokenService([]byte(testSigningKey), time.Hour).
		WithClock(clk.Now).
		WithLogger(wiki.NopLogger())

	claims := &wiki.Claims{}
	claims.RegisteredClaims.Subject = "ada@example.com"

	token, err := ts.SignClaims(claims)
	require.NoError(t, err)

	require.NotNil(t, claims.RegisteredClaims.IssuedAt)
	require.NotNil(t, claims.RegisteredClaims.ExpiresAt)
	assert.NotEmpty(t, claims.TokenID())

	decoded, err := ts.Validate(token)
	require.NoError(t, err)
	assert.True(t, clk.now.Equal(decoded.IssuedAt()), "iat %s", decoded.IssuedAt())
	assert.True(t, clk.now.Add(time.Hour).Equal(decoded.Expires()), "exp %s", decoded.Expires())
	assert.Equal(t, claims.TokenID(), decoded.TokenID())

	_, err = ts.SignClaims(nil)
	assert.Error(t, err)
}

func TestTokenService_SignClaimsKeepsExplicitTimes(t *testing.T) {
	clk := newClock()
	ts := wiki.NewTokenService([]byte(testSigningKey), 0).WithClock(clk.Now)

	issued := clk.now.Add(-time.Minute)
	claims := &wiki.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "ada@example.com",
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(5 * time.Minute)),
	}}

	token, err := ts.SignClaims(claims)
	require.NoError(t, err)

	decoded, err := ts.Validate(token)
	require.NoError(t, err)
	assert.True(t, issued.Equal(decoded.IssuedAt()))
	assert.True(t, issued.Add(5*time.Minute).Equal(decoded.Expires()))
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	clk := newClock()
	ts := wiki.NewTokenService([]byte(testSigningKey), 0).WithClock(clk.Now)

	a, err := ts.Generate("ada@example.com")
	require.NoError(t, err)
	b, err := ts.Generate("ada@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestTokenService_Expiry(t *testing.T) {
	clk := newClock()
	ts := wiki.NewTokenService([]byte(testSigningKey), 0).
		WithClock(clk.Now).
		WithLogger(wiki.NopLogger())

	token, err := ts.GenerateWithTTL("ada@example.com", time.Second)
	require.NoError(t, err)

	_, err = ts.Validate(token)
	require.NoError(t, err)

	clk.Advance(2 * time.Second)

	_, err = ts.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, wiki.ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	assert.Equal(t, "Could not validate credentials", err.(*wiki.Error).Detail())
}

func TestTokenService_InvalidTokens(t *testing.T) {
	clk := newClock()
	ts := wiki.NewTokenService([]byte(testSigningKey), 0).
		WithClock(clk.Now).
		WithLogger(wiki.NopLogger())

	other := wiki.NewTokenService([]byte("another-signing-key-of-some-length"), 0).WithClock(clk.Now)
	foreign, err := other.Generate("ada@example.com")
	require.NoError(t, err)

	hs512, err := wiki.NewTokenService([]byte(testSigningKey), 0).WithClock(clk.Now).WithSigningMethod("HS512")
	require.NoError(t, err)
	wrongAlg, err := hs512.Generate("ada@example.com")
	require.NoError(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ada@example.com"})
	noExpToken, err := noExp.SignedString([]byte(testSigningKey))
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "ada@example.com",
		"exp": clk.now.Add(time.Hour).Unix(),
	})
	unsignedToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: foreign},
		{name: "wrong algorithm", token: wrongAlg},
		{name: "missing exp", token: noExpToken},
		{name: "alg none", token: unsignedToken},
		{name: "malformed", token: "not.a.token"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.Validate(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, wiki.ErrInvalidToken)
			assert.Equal(t, 401, wiki.HTTPStatus(err))

			_, err = ts.ExtractSubject(tt.token)
			assert.ErrorIs(t, err, wiki.ErrInvalidToken)
		})
	}
}

func TestTokenService_ExtractSubject_Missing(t *testing.T) {
	clk := newClock()
	ts := wiki.NewTokenService([]byte(testSigningKey), 0).WithClock(clk.Now)

	token, err := ts.SignClaims(&wiki.Claims{})
	require.NoError(t, err)

	_, err = ts.Validate(token)
	require.NoError(t, err)

	_, err = ts.ExtractSubject(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, wiki.ErrUsernameNotFound)
	assert.False(t, errors.Is(err, wiki.ErrInvalidToken))
}

func TestTokenService_GenerateRequiresSubject(t *testing.T) {
	ts := wiki.NewTokenService([]byte(testSigningKey), 0)

	_, err := ts.Generate("  ")
	assert.ErrorIs(t, err, wiki.ErrValidation)
}

func TestTokenService_SigningMethods(t *testing.T) {
	ts := wiki.NewTokenService([]byte(testSigningKey), 0)

	_, err := ts.WithSigningMethod("RS256")
	assert.Error(t, err)

	_, err = ts.WithSigningMethod("hs384")
	assert.NoError(t, err)

	token, err := ts.Generate("ada@example.com")
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, &jwt.RegisteredClaims{})
	require.NoError(t, err)
	assert.Equal(t, "HS384", parsed.Method.Alg())
}
