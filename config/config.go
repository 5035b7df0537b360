// Package config loads the wiki server settings from defaults, an optional
// JSON or YAML file, WIKI_ prefixed environment variables and command-line
// flags, in that order of precedence.
package config

import (
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// EnvDevelopment relaxes the signing key length check
const EnvDevelopment = "development"

const minSigningKeyLength = 32

// BaseConfig is the root of every setting the server reads
type BaseConfig struct {
	App         App         `koanf:"app" json:"app"`
	Server      Server      `koanf:"server" json:"server"`
	Persistence Persistence `koanf:"persistence" json:"persistence"`
	Auth        Auth        `koanf:"auth" json:"auth"`
	Logging     Logging     `koanf:"logging" json:"logging"`
}

type App struct {
	Env string `koanf:"env" json:"env"`
}

type Server struct {
	Name            string        `koanf:"name" json:"name"`
	Address         string        `koanf:"address" json:"address"`
	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`
	BodyLimit       int           `koanf:"body_limit" json:"body_limit"`
}

type Persistence struct {
	DSN            string `koanf:"dsn" json:"dsn"`
	Debug          bool   `koanf:"debug" json:"debug"`
	MaxOpenConns   int    `koanf:"max_open_conns" json:"max_open_conns"`
	MigrateOnStart bool   `koanf:"migrate_on_start" json:"migrate_on_start"`
}

type Auth struct {
	SigningKey      string        `koanf:"signing_key" json:"signing_key"`
	SigningMethod   string        `koanf:"signing_method" json:"signing_method"`
	TokenExpiration time.Duration `koanf:"token_expiration" json:"token_expiration"`
	Issuer          string        `koanf:"issuer" json:"issuer"`
	ContextKey      string        `koanf:"context_key" json:"context_key"`
	TokenLookup     string        `koanf:"token_lookup" json:"token_lookup"`
	AuthScheme      string        `koanf:"auth_scheme" json:"auth_scheme"`
}

type Logging struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
}

func (c BaseConfig) GetApp() App                 { return c.App }
func (c BaseConfig) GetServer() Server           { return c.Server }
func (c BaseConfig) GetPersistence() Persistence { return c.Persistence }
func (c BaseConfig) GetAuth() Auth               { return c.Auth }
func (c BaseConfig) GetLogging() Logging         { return c.Logging }

// IsDevelopment reports whether the app runs in the development env
func (c BaseConfig) IsDevelopment() bool {
	return strings.EqualFold(c.App.Env, EnvDevelopment)
}

func (s Server) GetAppName() string                { return s.Name }
func (s Server) GetAddress() string                { return s.Address }
func (s Server) GetReadTimeout() time.Duration     { return s.ReadTimeout }
func (s Server) GetWriteTimeout() time.Duration    { return s.WriteTimeout }
func (s Server) GetIdleTimeout() time.Duration     { return s.IdleTimeout }
func (s Server) GetShutdownTimeout() time.Duration { return s.ShutdownTimeout }
func (s Server) GetBodyLimit() int                 { return s.BodyLimit }

func (p Persistence) GetDSN() string          { return p.DSN }
func (p Persistence) GetDebug() bool          { return p.Debug }
func (p Persistence) GetMaxOpenConns() int    { return p.MaxOpenConns }
func (p Persistence) GetMigrateOnStart() bool { return p.MigrateOnStart }

func (a Auth) GetSigningKey() string             { return a.SigningKey }
func (a Auth) GetSigningMethod() string          { return a.SigningMethod }
func (a Auth) GetTokenExpiration() time.Duration { return a.TokenExpiration }
func (a Auth) GetIssuer() string                 { return a.Issuer }
func (a Auth) GetContextKey() string             { return a.ContextKey }
func (a Auth) GetTokenLookup() string            { return a.TokenLookup }
func (a Auth) GetAuthScheme() string             { return a.AuthScheme }

func (l Logging) GetLevel() string  { return l.Level }
func (l Logging) GetFormat() string { return l.Format }

// Validate checks the settings the server cannot start without
func (c BaseConfig) Validate() error {
	keyRules := []validation.Rule{validation.Required}
	if !c.IsDevelopment() {
		keyRules = append(keyRules, validation.RuneLength(minSigningKeyLength, 0))
	}

	return validation.Errors{
		"auth": validation.ValidateStruct(&c.Auth,
			validation.Field(&c.Auth.SigningKey, keyRules...),
			validation.Field(&c.Auth.SigningMethod, validation.Required, validation.In("HS256", "HS384", "HS512")),
			validation.Field(&c.Auth.TokenExpiration, validation.Required, validation.Min(time.Second)),
		),
		"persistence": validation.ValidateStruct(&c.Persistence,
			validation.Field(&c.Persistence.DSN, validation.Required),
			validation.Field(&c.Persistence.MaxOpenConns, validation.Min(0)),
		),
		"server": validation.ValidateStruct(&c.Server,
			validation.Field(&c.Server.Address, validation.Required),
		),
		"logging": validation.ValidateStruct(&c.Logging,
			validation.Field(&c.Logging.Format, validation.In("text", "json")),
			validation.Field(&c.Logging.Level, validation.In("debug", "info", "warn", "warning", "error")),
		),
	}.Filter()
}

const mask = "redacted"

// Masked returns a copy safe to print: the signing key and any DSN password
// are replaced.
func (c BaseConfig) Masked() BaseConfig {
	out := c
	if out.Auth.SigningKey != "" {
		out.Auth.SigningKey = mask
	}
	out.Persistence.DSN = maskDSN(out.Persistence.DSN)
	return out
}

func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); !ok {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), mask)
	return u.String()
}
