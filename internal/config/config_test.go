package config_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/lectern/internal/config"
	genmock "github.com/MrWong99/lectern/pkg/provider/gen/mock"
	"github.com/MrWong99/lectern/pkg/provider/gen"
	"github.com/MrWong99/lectern/pkg/provider/stt"
	sttmock "github.com/MrWong99/lectern/pkg/provider/stt/mock"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":8080"
  log_level: info

providers:
  stt:
    name: whisper
    base_url: http://localhost:9000
    model: base.en
    language: en
  generator:
    name: gemini
    api_key: g-test
    api_keys:
      - g-backup-1
      - g-backup-2
    model: gemini-2.0-flash

upload:
  max_bytes: 10485760
  max_clip_seconds: 30
  ffmpeg_path: /usr/bin/ffmpeg

generate:
  max_tokens: 512
  temperature: 0.2

sessions:
  ttl_minutes: 60
  sweep_seconds: 120

feedback:
  path: /var/lib/lectern/feedback_log.txt

ingest:
  enabled: true
  watch_dir: /srv/lectures/in
  output_dir: /srv/lectures/out
`

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("server.listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("server.log_level: got %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
	if cfg.Providers.STT.Name != "whisper" {
		t.Errorf("providers.stt.name: got %q, want %q", cfg.Providers.STT.Name, "whisper")
	}
	if cfg.Providers.Generator.Name != "gemini" {
		t.Errorf("providers.generator.name: got %q", cfg.Providers.Generator.Name)
	}
	if len(cfg.Providers.Generator.APIKeys) != 2 {
		t.Errorf("providers.generator.api_keys: got %d, want 2", len(cfg.Providers.Generator.APIKeys))
	}
	if cfg.Upload.MaxBytes != 10485760 {
		t.Errorf("upload.max_bytes: got %d", cfg.Upload.MaxBytes)
	}
	if cfg.Sessions.TTLMinutes != 60 {
		t.Errorf("sessions.ttl_minutes: got %d, want 60", cfg.Sessions.TTLMinutes)
	}
	if cfg.Feedback.Path != "/var/lib/lectern/feedback_log.txt" {
		t.Errorf("feedback.path: got %q", cfg.Feedback.Path)
	}
	if !cfg.Ingest.Enabled || cfg.Ingest.WatchDir != "/srv/lectures/in" {
		t.Errorf("ingest: got %+v", cfg.Ingest)
	}
}

func TestLoadFromReader_AppliesDefaults(t *testing.T) {
	yaml := `
providers:
  stt:
    name: whisper
    base_url: http://localhost:9000
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("default listen_addr: got %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("default log_level: got %q", cfg.Server.LogLevel)
	}
	if cfg.Providers.Generator.Name != "heuristic" {
		t.Errorf("default generator: got %q", cfg.Providers.Generator.Name)
	}
	if cfg.Upload.MaxBytes != 25<<20 {
		t.Errorf("default max_bytes: got %d", cfg.Upload.MaxBytes)
	}
	if cfg.Upload.MaxClipSeconds != 30 {
		t.Errorf("default max_clip_seconds: got %d", cfg.Upload.MaxClipSeconds)
	}
	if cfg.Upload.FFmpegPath != "ffmpeg" {
		t.Errorf("default ffmpeg_path: got %q", cfg.Upload.FFmpegPath)
	}
	if cfg.Sessions.TTLMinutes != 120 || cfg.Sessions.SweepSeconds != 300 {
		t.Errorf("default sessions: %+v", cfg.Sessions)
	}
	if cfg.Feedback.Path != "feedback_log.txt" {
		t.Errorf("default feedback path: got %q", cfg.Feedback.Path)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	yaml := `
providers:
  stt:
    name: whisper
  summarizer:
    name: gemini
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

// ── Validation ────────────────────────────────────────────────────────────────

func TestValidate_InvalidLogLevel(t *testing.T) {
	yaml := `
server:
  log_level: verbose
providers:
  stt:
    name: whisper
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log_level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_MissingSTTProvider(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("{}"))
	if err == nil {
		t.Fatal("expected error for missing stt provider, got nil")
	}
	if !strings.Contains(err.Error(), "providers.stt.name") {
		t.Errorf("error should mention providers.stt.name, got: %v", err)
	}
}

func TestValidate_IncompleteTLS(t *testing.T) {
	yaml := `
server:
  tls:
    cert_file: /etc/lectern/cert.pem
providers:
  stt:
    name: whisper
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for incomplete tls, got nil")
	}
}

func TestValidate_TemperatureOutOfRange(t *testing.T) {
	yaml := `
providers:
  stt:
    name: whisper
generate:
  temperature: 3.5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for out-of-range temperature, got nil")
	}
	if !strings.Contains(err.Error(), "temperature") {
		t.Errorf("error should mention temperature, got: %v", err)
	}
}

func TestValidate_NegativeUploadLimits(t *testing.T) {
	yaml := `
providers:
  stt:
    name: whisper
upload:
  max_bytes: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative max_bytes, got nil")
	}
}

func TestValidate_IngestRequiresWatchDir(t *testing.T) {
	yaml := `
providers:
  stt:
    name: whisper
ingest:
  enabled: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for ingest without watch_dir, got nil")
	}
	if !strings.Contains(err.Error(), "watch_dir") {
		t.Errorf("error should mention watch_dir, got: %v", err)
	}
}

// ── Registry ─────────────────────────────────────────────────────────────────

func TestRegistry_UnknownSTT(t *testing.T) {
	reg := config.NewRegistry()
	_, err := reg.CreateSTT(config.ProviderEntry{Name: "nonexistent"})
	if err == nil {
		t.Fatal("expected error for unknown STT provider")
	}
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got: %v", err)
	}
}

func TestRegistry_UnknownGenerator(t *testing.T) {
	reg := config.NewRegistry()
	_, err := reg.CreateGenerator(config.ProviderEntry{Name: "nonexistent"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got: %v", err)
	}
}

func TestRegistry_RegisteredSTT(t *testing.T) {
	reg := config.NewRegistry()
	want := &sttmock.Provider{}
	reg.RegisterSTT("stub", func(e config.ProviderEntry) (stt.Provider, error) {
		return want, nil
	})
	got, err := reg.CreateSTT(config.ProviderEntry{Name: "stub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("returned provider is not the expected instance")
	}
}

func TestRegistry_RegisteredGenerator(t *testing.T) {
	reg := config.NewRegistry()
	want := &genmock.Provider{}
	reg.RegisterGenerator("stub", func(e config.ProviderEntry) (gen.Provider, error) {
		return want, nil
	})
	got, err := reg.CreateGenerator(config.ProviderEntry{Name: "stub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("returned provider is not the expected instance")
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	reg := config.NewRegistry()
	wantErr := errors.New("factory boom")
	reg.RegisterGenerator("broken", func(e config.ProviderEntry) (gen.Provider, error) {
		return nil, wantErr
	})
	_, err := reg.CreateGenerator(config.ProviderEntry{Name: "broken"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected factory error %v, got %v", wantErr, err)
	}
}
