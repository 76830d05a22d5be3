// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and WELLCHECK_* env vars over the defaults.
// - External errors are wrapped with this package's sentinels.
package config

import "time"

// Model backends.
const (
	BackendTree   = "tree"
	BackendRemote = "remote"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ModelBackend selects the classifier implementation: tree or remote.
	ModelBackend string `koanf:"model_backend"`

	// ModelPath is the exported tree artifact used by the tree backend.
	ModelPath string `koanf:"model_path"`

	// ModelURL is the base URL of the prediction sidecar used by the remote backend.
	ModelURL string `koanf:"model_url"`

	// ModelTimeoutMS bounds each remote prediction.
	ModelTimeoutMS int `koanf:"model_timeout_ms"`

	// QuestionnaireEncoding is ordinal or raw and must match the artifact.
	QuestionnaireEncoding string `koanf:"questionnaire_encoding"`

	// SecretsFile is an optional YAML file holding the telegram section.
	SecretsFile string `koanf:"secrets_file"`

	// AlertEndpoint overrides the Bot API endpoint format.
	AlertEndpoint string `koanf:"alert_endpoint"`

	// AlertTimeoutMS bounds each alert delivery.
	AlertTimeoutMS int `koanf:"alert_timeout_ms"`

	// AlertTextLimit caps the free text copied into an alert.
	AlertTextLimit int `koanf:"alert_text_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		ModelBackend:          BackendTree,
		ModelPath:             "models/stress_tree.yaml",
		ModelTimeoutMS:        5_000,
		QuestionnaireEncoding: "ordinal",
		SecretsFile:           "secrets.yaml",
		AlertTimeoutMS:        10_000,
		AlertTextLimit:        300,
	}
}

// ModelTimeout returns ModelTimeoutMS as a duration.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutMS) * time.Millisecond
}

// AlertTimeout returns AlertTimeoutMS as a duration.
func (c *Config) AlertTimeout() time.Duration {
	return time.Duration(c.AlertTimeoutMS) * time.Millisecond
}
