package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/wellcheck/internal/domain/model"
)

// EnvConfigFile names the env var holding the optional YAML config path.
const EnvConfigFile = "WELLCHECK_CONFIG"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if WELLCHECK_CONFIG is set
//  3. env (prefix WELLCHECK_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// WELLCHECK_MODEL_PATH -> model_path (flat keys)
	envProvider := env.Provider("WELLCHECK_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "wellcheck_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	// The file path itself is not a config key.
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated and required keys.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.ModelBackend {
	case BackendTree:
		if c.ModelPath == "" {
			return fmt.Errorf("%w: model_path is required for the tree backend", ErrInvalidConfig)
		}
	case BackendRemote:
		if c.ModelURL == "" {
			return fmt.Errorf("%w: model_url is required for the remote backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: model_backend %q", ErrInvalidConfig, c.ModelBackend)
	}
	if _, err := model.ParseEncoding(c.QuestionnaireEncoding); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.ModelTimeoutMS <= 0 || c.AlertTimeoutMS <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if c.AlertTextLimit <= 0 {
		return fmt.Errorf("%w: alert_text_limit must be positive", ErrInvalidConfig)
	}
	return nil
}

// Encoding returns the validated questionnaire encoding.
func (c *Config) Encoding() model.Encoding {
	enc, err := model.ParseEncoding(c.QuestionnaireEncoding)
	if err != nil {
		return model.EncodingOrdinal
	}
	return enc
}
