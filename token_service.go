package wiki

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiration is the lifetime of tokens issued without an explicit one
const DefaultTokenExpiration = 30 * time.Minute

// TokenTypeBearer is the token_type reported to clients
const TokenTypeBearer = "bearer"

// Token is the login response body
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenService issues and validates HMAC signed tokens
type TokenService struct {
	signingKey      []byte
	method          jwt.SigningMethod
	tokenExpiration time.Duration
	issuer          string
	now             func() time.Time
	logger          Logger
}

// NewTokenService creates a HS256 token service. A zero expiration uses
// DefaultTokenExpiration.
func NewTokenService(signingKey []byte, tokenExpiration time.Duration) *TokenService {
	if tokenExpiration <= 0 {
		tokenExpiration = DefaultTokenExpiration
	}
	return &TokenService{
		signingKey:      signingKey,
		method:          jwt.SigningMethodHS256,
		tokenExpiration: tokenExpiration,
		now:             time.Now,
		logger:          defLogger{},
	}
}

// NewTokenServiceFromConfig builds a TokenService from Config
func NewTokenServiceFromConfig(cfg Config) (*TokenService, error) {
	if strings.TrimSpace(cfg.GetSigningKey()) == "" {
		return nil, errors.New("token service: signing key is required")
	}

	ts := NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetTokenExpiration()).
		WithIssuer(cfg.GetIssuer())

	if m := cfg.GetSigningMethod(); m != "" {
		if _, err := ts.WithSigningMethod(m); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// WithSigningMethod accepts HS256, HS384 or HS512
func (ts *TokenService) WithSigningMethod(alg string) (*TokenService, error) {
	method, ok := jwt.GetSigningMethod(strings.ToUpper(alg)).(*jwt.SigningMethodHMAC)
	if !ok {
		return ts, fmt.Errorf("token service: unsupported signing method %q", alg)
	}
	ts.method = method
	return ts, nil
}

func (ts *TokenService) WithIssuer(issuer string) *TokenService {
	ts.issuer = issuer
	return ts
}

// WithClock replaces the time source used to stamp and check tokens
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		ts.now = now
	}
	return ts
}

func (ts *TokenService) WithLogger(l Logger) *TokenService {
	ts.logger = resolveLogger(l)
	return ts
}

// TokenExpiration is the default lifetime
func (ts *TokenService) TokenExpiration() time.Duration {
	return ts.tokenExpiration
}

// Generate issues a token for subject with the default lifetime
func (ts *TokenService) Generate(subject string) (string, error) {
	return ts.GenerateWithTTL(subject, ts.tokenExpiration)
}

// GenerateWithTTL issues a token for subject that expires after ttl
func (ts *TokenService) GenerateWithTTL(subject string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", NewValidationError("token subject is required", nil)
	}

	now := ts.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return ts.SignClaims(claims)
}

// SignClaims signs claims, filling iat, exp and jti when unset.
func (ts *TokenService) SignClaims(claims *Claims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil")
	}

	now := ts.now()
	registered := &claims.RegisteredClaims
	if registered.IssuedAt == nil {
		registered.IssuedAt = jwt.NewNumericDate(now)
	}
	if registered.ExpiresAt == nil {
		registered.ExpiresAt = jwt.NewNumericDate(now.Add(ts.tokenExpiration))
	}
	ensureTokenID(registered)

	token := jwt.NewWithClaims(ts.method, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}

	return signedString, nil
}

// Validate checks signature, algorithm and expiry. Every failure is an
// InvalidTokenError; the cause is only logged.
func (ts *TokenService) Validate(tokenString string) (*Claims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{ts.method.Alg()}),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			ts.logger.Debug("TokenService validate rejected expired token")
		} else {
			ts.logger.Debug("TokenService validate rejected token", "error", err)
		}
		return nil, NewInvalidTokenError(err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, NewInvalidTokenError(nil)
}

// ExtractSubject validates tokenString and returns its sub claim. A token
// without a subject is a UsernameNotFound error.
func (ts *TokenService) ExtractSubject(tokenString string) (string, error) {
	claims, err := ts.Validate(tokenString)
	if err != nil {
		return "", err
	}

	subject := strings.TrimSpace(claims.Subject())
	if subject == "" {
		return "", &Error{Kind: KindUsernameNotFound, Message: ErrUsernameNotFound.Message}
	}
	return subject, nil
}
