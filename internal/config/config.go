// Package config provides the configuration schema, loader, and provider registry
// for the Lectern lecture-notes service.
package config

// LogLevel controls log verbosity for the Lectern server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Lectern.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Upload    UploadConfig    `yaml:"upload"`
	Generate  GenerateConfig  `yaml:"generate"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Feedback  FeedbackConfig  `yaml:"feedback"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig holds network and logging settings for the Lectern server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	// STT selects the speech-to-text backend.
	STT ProviderEntry `yaml:"stt"`

	// Generator selects the study-material generator. The name "heuristic"
	// runs fully offline; everything else resolves to a model backend with
	// the heuristic retained as a fallback.
	Generator ProviderEntry `yaml:"generator"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "whisper", "gemini").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// APIKeys lists additional keys rotated through when the provider
	// reports quota exhaustion. APIKey, when set, is tried first.
	APIKeys []string `yaml:"api_keys"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gemini-2.0-flash").
	Model string `yaml:"model"`

	// Language is the spoken-language hint passed to STT backends ("en", "de", ...).
	Language string `yaml:"language"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// UploadConfig bounds what the server accepts per audio upload.
type UploadConfig struct {
	// MaxBytes is the largest accepted upload body. Default: 25 MiB.
	MaxBytes int64 `yaml:"max_bytes"`

	// MaxClipSeconds caps how much audio is transcribed per upload.
	// Default: 30. Zero disables the cap.
	MaxClipSeconds int `yaml:"max_clip_seconds"`

	// FFmpegPath locates the ffmpeg binary used to decode non-WAV uploads.
	// Default: "ffmpeg" resolved via PATH.
	FFmpegPath string `yaml:"ffmpeg_path"`
}

// GenerateConfig tunes model-backed study-material generation.
type GenerateConfig struct {
	// MaxTokens bounds completion length. Zero uses the provider default.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the sampling temperature in [0, 2].
	Temperature float64 `yaml:"temperature"`
}

// SessionsConfig controls study-session lifetime.
type SessionsConfig struct {
	// TTLMinutes is how long an idle session survives. Default: 120.
	TTLMinutes int `yaml:"ttl_minutes"`

	// SweepSeconds is the period between expiry sweeps. Default: 300.
	SweepSeconds int `yaml:"sweep_seconds"`
}

// FeedbackConfig locates the feedback log.
type FeedbackConfig struct {
	// Path is the flat file feedback is appended to. Default: "feedback_log.txt".
	Path string `yaml:"path"`
}

// IngestConfig configures the optional watch-folder ingester, which picks up
// audio files dropped into a directory and writes generated notes next to
// them without going through the HTTP API.
type IngestConfig struct {
	// Enabled turns the ingester on.
	Enabled bool `yaml:"enabled"`

	// WatchDir is the directory watched for new audio files.
	WatchDir string `yaml:"watch_dir"`

	// OutputDir receives the generated notes files. Defaults to WatchDir.
	OutputDir string `yaml:"output_dir"`
}
