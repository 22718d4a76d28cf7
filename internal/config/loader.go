package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":       {"whisper", "whisper-native", "openai"},
	"generator": {"heuristic", "gemini", "openai", "anthropic", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and validates
// the result. Useful in tests where configs are constructed from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in the documented default values for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Providers.Generator.Name == "" {
		cfg.Providers.Generator.Name = "heuristic"
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 25 << 20
	}
	if cfg.Upload.MaxClipSeconds == 0 {
		cfg.Upload.MaxClipSeconds = 30
	}
	if cfg.Upload.FFmpegPath == "" {
		cfg.Upload.FFmpegPath = "ffmpeg"
	}
	if cfg.Sessions.TTLMinutes == 0 {
		cfg.Sessions.TTLMinutes = 120
	}
	if cfg.Sessions.SweepSeconds == 0 {
		cfg.Sessions.SweepSeconds = 300
	}
	if cfg.Feedback.Path == "" {
		cfg.Feedback.Path = "feedback_log.txt"
	}
	if cfg.Ingest.OutputDir == "" {
		cfg.Ingest.OutputDir = cfg.Ingest.WatchDir
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("generator", cfg.Providers.Generator.Name)

	if cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt.name is required"))
	}
	if cfg.Providers.Generator.Name == "heuristic" {
		if cfg.Providers.Generator.APIKey != "" || len(cfg.Providers.Generator.APIKeys) > 0 {
			slog.Warn("providers.generator api keys are ignored for the heuristic generator")
		}
	}

	// Upload limits
	if cfg.Upload.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("upload.max_bytes %d must not be negative", cfg.Upload.MaxBytes))
	}
	if cfg.Upload.MaxClipSeconds < 0 {
		errs = append(errs, fmt.Errorf("upload.max_clip_seconds %d must not be negative", cfg.Upload.MaxClipSeconds))
	}

	// Generation
	if cfg.Generate.Temperature < 0 || cfg.Generate.Temperature > 2 {
		errs = append(errs, fmt.Errorf("generate.temperature %.2f is out of range [0, 2]", cfg.Generate.Temperature))
	}
	if cfg.Generate.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("generate.max_tokens %d must not be negative", cfg.Generate.MaxTokens))
	}

	// Sessions
	if cfg.Sessions.TTLMinutes < 0 {
		errs = append(errs, fmt.Errorf("sessions.ttl_minutes %d must not be negative", cfg.Sessions.TTLMinutes))
	}
	if cfg.Sessions.SweepSeconds < 0 {
		errs = append(errs, fmt.Errorf("sessions.sweep_seconds %d must not be negative", cfg.Sessions.SweepSeconds))
	}

	// Ingest
	if cfg.Ingest.Enabled && cfg.Ingest.WatchDir == "" {
		errs = append(errs, errors.New("ingest.watch_dir is required when ingest.enabled is true"))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
