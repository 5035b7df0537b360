// Package bearer is a fiber middleware that pulls a bearer token from the
// request, resolves it through a caller supplied Resolver and stores the
// result in the request locals.
package bearer

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	defaultTokenLookup = "header:" + fiber.HeaderAuthorization
	// ErrMissingOrMalformed is returned when no token could be extracted
	ErrMissingOrMalformed = errors.New("missing or malformed bearer token")
)

// Resolver turns a raw token into the value stored under ContextKey
type Resolver func(ctx context.Context, token string) (any, error)

type Config struct {
	// Filter skips the middleware when it returns true
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler
	// Resolver is required
	Resolver   Resolver
	ContextKey string
	// TokenLookup is a comma separated list of source:name pairs, e.g.
	// "header:Authorization,query:access_token,cookie:jwt"
	TokenLookup string
	AuthScheme  string
	// Realm is sent in the WWW-Authenticate challenge when set
	Realm string
}

func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractRawToken(c, extractors)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		value, err := cfg.Resolver(c.UserContext(), raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, value)

		return cfg.SuccessHandler(c)
	}
}

// Challenge sets the WWW-Authenticate header for scheme
func Challenge(c *fiber.Ctx, scheme, realm string) {
	value := scheme
	if realm != "" {
		value += ` realm="` + realm + `"`
	}
	c.Set(fiber.HeaderWWWAuthenticate, value)
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Resolver == nil {
		panic("WIKI: bearer middleware configuration: Resolver is required.")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ErrorHandler == nil {
		scheme, realm := cfg.AuthScheme, cfg.Realm
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			Challenge(c, scheme, realm)
			if errors.Is(err, ErrMissingOrMalformed) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Not authenticated"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Could not validate credentials"})
		}
	}

	return cfg
}

func (cfg *Config) getExtractors() []Extractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

// ExtractRawToken returns the first token any extractor finds
func ExtractRawToken(c *fiber.Ctx, extractors []Extractor) (string, error) {
	raw, err := "", ErrMissingOrMalformed

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

type Extractor func(c *fiber.Ctx) (string, error)

func GetExtractors(tokenLookup string, authSchemes ...string) []Extractor {
	extractors := make([]Extractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	// header:Authorization,cookie:jwt,query:access_token,param:token
	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, fromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, fromQuery(parts[1]))
		case "param":
			extractors = append(extractors, fromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, fromCookie(parts[1]))
		}
	}

	return extractors
}

// fromHeader extracts "<scheme> <token>" from header, scheme compared case
// insensitively.
func fromHeader(header string, authScheme string) Extractor {
	authScheme = strings.TrimSpace(authScheme)
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		l := len(authScheme)
		if l == 0 {
			return "", ErrMissingOrMalformed
		}
		if len(a) > l+1 && a[l] == ' ' && strings.EqualFold(a[:l], authScheme) {
			if token := strings.TrimSpace(a[l:]); token != "" {
				return token, nil
			}
		}
		return "", ErrMissingOrMalformed
	}
}

func fromQuery(param string) Extractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}

func fromParam(param string) Extractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Params(param)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}

func fromCookie(name string) Extractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}
