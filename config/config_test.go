package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longKey = "0123456789abcdef0123456789abcdef"

func defaultConfig() BaseConfig {
	return BaseConfig{
		App: App{Env: EnvDevelopment},
		Server: Server{
			Name:            "wiki",
			Address:         ":8000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			BodyLimit:       1 << 20,
		},
		Persistence: Persistence{
			DSN:            "file:wiki.db?_pragma=foreign_keys(1)",
			MigrateOnStart: true,
		},
		Auth: Auth{
			SigningMethod:   "HS256",
			TokenExpiration: 30 * time.Minute,
			ContextKey:      "user",
			TokenLookup:     "header:Authorization",
			AuthScheme:      "Bearer",
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	if diff := cmp.Diff(defaultConfig(), *cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Layers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wiki.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"app:",
		"  env: production",
		"server:",
		"  address: \":9000\"",
		"auth:",
		"  issuer: wiki-file",
		"  token_expiration: 45m",
		"logging:",
		"  format: json",
	}, "\n")), 0o600))

	t.Setenv("WIKI_AUTH__SIGNING_KEY", longKey)
	t.Setenv("WIKI_AUTH__ISSUER", "wiki-env")
	t.Setenv("WIKI_PERSISTENCE__MAX_OPEN_CONNS", "8")

	fs := NewFlagSet("test")
	require.NoError(t, fs.Parse([]string{"--config", path, "--addr", ":9100", "--migrate=false"}))

	cfg, err := Load(fs)
	require.NoError(t, err)

	want := defaultConfig()
	want.App.Env = "production"
	want.Server.Address = ":9100"
	want.Auth.SigningKey = longKey
	want.Auth.Issuer = "wiki-env"
	want.Auth.TokenExpiration = 45 * time.Minute
	want.Persistence.MaxOpenConns = 8
	want.Persistence.MigrateOnStart = false
	want.Logging.Format = "json"

	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Fatalf("layered config mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, cfg.Validate())
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wiki.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"persistence":{"dsn":"postgres://wiki:secret@db:5432/wiki"}}`), 0o600))

	t.Setenv("WIKI_CONFIG", path)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://wiki:secret@db:5432/wiki", cfg.GetPersistence().GetDSN())
}

func TestLoad_UnsupportedFile(t *testing.T) {
	fs := NewFlagSet("test")
	require.NoError(t, fs.Parse([]string{"--config", "wiki.ini"}))

	_, err := Load(fs)
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestValidate(t *testing.T) {
	valid := defaultConfig()
	valid.Auth.SigningKey = "short-dev-key"
	require.NoError(t, valid.Validate())

	tests := map[string]func(c *BaseConfig){
		"missing key":           func(c *BaseConfig) { c.Auth.SigningKey = "" },
		"short key outside dev": func(c *BaseConfig) { c.App.Env = "production" },
		"asymmetric method":     func(c *BaseConfig) { c.Auth.SigningMethod = "RS256" },
		"zero lifetime":         func(c *BaseConfig) { c.Auth.TokenExpiration = 0 },
		"missing dsn":           func(c *BaseConfig) { c.Persistence.DSN = "" },
		"unknown log format":    func(c *BaseConfig) { c.Logging.Format = "xml" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMasked(t *testing.T) {
	cfg := defaultConfig()
	cfg.Auth.SigningKey = longKey
	cfg.Persistence.DSN = "postgres://wiki:secret@db:5432/wiki?sslmode=disable"

	masked := cfg.Masked()
	assert.Equal(t, "redacted", masked.Auth.SigningKey)
	assert.Equal(t, "postgres://wiki:redacted@db:5432/wiki?sslmode=disable", masked.Persistence.DSN)
	assert.Equal(t, longKey, cfg.Auth.SigningKey)

	cfg.Persistence.DSN = "file:wiki.db"
	assert.Equal(t, "file:wiki.db", cfg.Masked().Persistence.DSN)
}

func TestAuthGetters(t *testing.T) {
	auth := defaultConfig().GetAuth()
	assert.Equal(t, "HS256", auth.GetSigningMethod())
	assert.Equal(t, 30*time.Minute, auth.GetTokenExpiration())
	assert.Equal(t, "user", auth.GetContextKey())
	assert.Equal(t, "header:Authorization", auth.GetTokenLookup())
	assert.Equal(t, "Bearer", auth.GetAuthScheme())
}
