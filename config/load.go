package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is stripped from environment variables; a double underscore
// separates nesting levels, e.g. WIKI_AUTH__SIGNING_KEY is auth.signing_key.
const EnvPrefix = "WIKI_"

const delim = "."

// Defaults are the lowest precedence layer
func Defaults() map[string]any {
	return map[string]any{
		"app.env":                      EnvDevelopment,
		"server.name":                  "wiki",
		"server.address":               ":8000",
		"server.read_timeout":          10 * time.Second,
		"server.write_timeout":         10 * time.Second,
		"server.idle_timeout":          60 * time.Second,
		"server.shutdown_timeout":      10 * time.Second,
		"server.body_limit":            1 << 20,
		"persistence.dsn":              "file:wiki.db?_pragma=foreign_keys(1)",
		"persistence.debug":            false,
		"persistence.max_open_conns":   0,
		"persistence.migrate_on_start": true,
		"auth.signing_method":          "HS256",
		"auth.token_expiration":        30 * time.Minute,
		"auth.context_key":             "user",
		"auth.token_lookup":            "header:Authorization",
		"auth.auth_scheme":             "Bearer",
		"logging.level":                "info",
		"logging.format":               "text",
	}
}

// flagKeys maps command-line flag names to config keys
var flagKeys = map[string]string{
	"addr":       "server.address",
	"dsn":        "persistence.dsn",
	"env":        "app.env",
	"log-level":  "logging.level",
	"log-format": "logging.format",
	"db-debug":   "persistence.debug",
	"migrate":    "persistence.migrate_on_start",
}

// NewFlagSet returns the flags Load understands. Callers may add their own
// before parsing.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "path to a JSON or YAML config file")
	fs.String("addr", "", "HTTP listen address")
	fs.String("dsn", "", "database DSN, postgres:// or a sqlite path")
	fs.String("env", "", "app environment")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "text or json")
	fs.Bool("db-debug", false, "log every SQL query")
	fs.Bool("migrate", true, "apply migrations on start")
	return fs
}

// Load builds a BaseConfig from defaults, the file named by --config or
// WIKI_CONFIG, the environment and fs. fs must already be parsed; nil skips
// the flag layer.
func Load(fs *pflag.FlagSet) (*BaseConfig, error) {
	k := koanf.New(delim)

	if err := k.Load(confmap.Provider(Defaults(), delim), nil); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	path := os.Getenv(EnvPrefix + "CONFIG")
	if fs != nil {
		if p, err := fs.GetString("config"); err == nil && p != "" {
			path = p
		}
	}

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, delim, envKey), nil); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, delim, k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("config flags: %w", err)
		}
	}

	cfg := &BaseConfig{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}

	return cfg, nil
}

// MustLoad is Load followed by Validate, panicking on either failure
func MustLoad(fs *pflag.FlagSet) *BaseConfig {
	cfg, err := Load(fs)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}
	return cfg
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", delim)
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, fmt.Errorf("config file %s: unsupported extension", path)
	}
}
