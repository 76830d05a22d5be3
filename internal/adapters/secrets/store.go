// Package secrets resolves credentials at call time from an optional YAML
// secrets file and the environment. Nothing is cached, so rotated values are
// picked up by the next lookup.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Well-known keys.
const (
	KeyTelegramBotToken = "telegram.bot_token"
	KeyTelegramChatID   = "telegram.chat_id"
)

// Store looks up secret values.
type Store interface {
	Lookup(ctx context.Context, key string) (string, error)
}

// FileEnvStore layers environment variables over a YAML file.
//
// A key such as telegram.bot_token is read from the file as
//
//	telegram:
//	  bot_token: "..."
//
// and from the environment as TELEGRAM_BOT_TOKEN, which wins.
type FileEnvStore struct {
	path     string
	prefixes []string
}

// Option applies a configuration option to the FileEnvStore.
type Option func(*FileEnvStore)

// WithFile sets the YAML secrets file. A path that does not exist is skipped.
func WithFile(path string) Option {
	return func(s *FileEnvStore) {
		s.path = path
	}
}

// WithEnvPrefixes sets the top-level sections that may come from env vars.
func WithEnvPrefixes(prefixes ...string) Option {
	return func(s *FileEnvStore) {
		s.prefixes = prefixes
	}
}

// NewFileEnvStore constructs a store reading the telegram section by default.
func NewFileEnvStore(opts ...Option) *FileEnvStore {
	s := &FileEnvStore{prefixes: []string{"telegram"}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup loads the sources and returns the trimmed value for key.
func (s *FileEnvStore) Lookup(_ context.Context, key string) (string, error) {
	k, err := s.load()
	if err != nil {
		return "", err
	}
	v := strings.TrimSpace(k.String(key))
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissing, key)
	}
	return v, nil
}

func (s *FileEnvStore) load() (*koanf.Koanf, error) {
	k := koanf.New(".")

	if s.path != "" {
		if _, err := os.Stat(s.path); err == nil {
			if err := k.Load(file.Provider(s.path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
	}

	// TELEGRAM_BOT_TOKEN -> telegram.bot_token
	for _, p := range s.prefixes {
		envPrefix := strings.ToUpper(p) + "_"
		section := strings.ToLower(p)
		provider := env.Provider(envPrefix, ".", func(name string) string {
			return section + "." + strings.ToLower(strings.TrimPrefix(name, envPrefix))
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
	}
	return k, nil
}

// Static is a fixed in-memory store, used by the probe CLI and tests.
type Static map[string]string

// Lookup returns the value for key or ErrMissing.
func (s Static) Lookup(_ context.Context, key string) (string, error) {
	v := strings.TrimSpace(s[key])
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissing, key)
	}
	return v, nil
}
