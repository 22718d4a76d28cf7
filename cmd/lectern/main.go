// Command lectern is the lecture voice-to-notes web server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/lectern/internal/config"
	"github.com/MrWong99/lectern/internal/feedback"
	"github.com/MrWong99/lectern/internal/generate"
	"github.com/MrWong99/lectern/internal/health"
	"github.com/MrWong99/lectern/internal/ingest"
	"github.com/MrWong99/lectern/internal/observe"
	"github.com/MrWong99/lectern/internal/pipeline"
	"github.com/MrWong99/lectern/internal/resilience"
	"github.com/MrWong99/lectern/internal/server"
	"github.com/MrWong99/lectern/internal/session"
	"github.com/MrWong99/lectern/pkg/audio"
	"github.com/MrWong99/lectern/pkg/provider/gen"
	genanyllm "github.com/MrWong99/lectern/pkg/provider/gen/anyllm"
	gengemini "github.com/MrWong99/lectern/pkg/provider/gen/gemini"
	"github.com/MrWong99/lectern/pkg/provider/stt"
	sttopenai "github.com/MrWong99/lectern/pkg/provider/stt/openai"
	"github.com/MrWong99/lectern/pkg/provider/stt/whisper"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "lectern: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "lectern: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logLevel := new(slog.LevelVar)
	logLevel.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("lectern starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "lectern"})
	if err != nil {
		slog.Error("telemetry init failed", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	sttProvider, err := buildSTTProvider(cfg, reg, metrics)
	if err != nil {
		slog.Error("failed to build stt provider", "err", err)
		return 1
	}
	generator, err := buildGenerator(cfg, reg, metrics)
	if err != nil {
		slog.Error("failed to build generator", "err", err)
		return 1
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	decoder := audio.NewDecoder(audio.WithFFmpegPath(cfg.Upload.FFmpegPath))
	processor := pipeline.NewProcessor(decoder, sttProvider,
		pipeline.WithMaxClipDuration(time.Duration(cfg.Upload.MaxClipSeconds)*time.Second),
		pipeline.WithMetrics(metrics),
	)

	// ── Sessions ──────────────────────────────────────────────────────────────
	sessions := session.NewStore(
		session.WithTTL(time.Duration(cfg.Sessions.TTLMinutes)*time.Minute),
		session.WithSweepInterval(time.Duration(cfg.Sessions.SweepSeconds)*time.Second),
		session.WithMetrics(metrics),
	)
	sessions.Start(ctx)
	defer sessions.Stop()

	// ── Feedback ──────────────────────────────────────────────────────────────
	feedbackStore := feedback.NewFileStore(cfg.Feedback.Path)

	// ── HTTP server ───────────────────────────────────────────────────────────
	serverOpts := []server.Option{
		server.WithMaxUploadBytes(cfg.Upload.MaxBytes),
		server.WithMetrics(metrics),
		server.WithHealthCheckers(
			health.FFmpegCheck(cfg.Upload.FFmpegPath),
			health.DirWritableCheck("feedback", cfg.Feedback.Path),
		),
	}
	if cfg.Server.TLS != nil {
		serverOpts = append(serverOpts, server.WithTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile))
	}
	srv := server.New(cfg.Server.ListenAddr, sessions, processor, generator, feedbackStore, serverOpts...)

	// ── Config watcher ────────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		applyConfigChange(logLevel, old, new)
	})
	if err != nil {
		slog.Warn("config watcher unavailable, hot reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	printStartupSummary(cfg)
	slog.Info("server ready — press Ctrl+C to shut down")

	// ── Run ───────────────────────────────────────────────────────────────────
	g, runCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(runCtx)
	})
	if cfg.Ingest.Enabled {
		folderWatcher := ingest.New(cfg.Ingest.WatchDir, cfg.Ingest.OutputDir, processor, generator)
		g.Go(func() error {
			return folderWatcher.Run(runCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// builtinProviders maps provider category names to the implementations that
// ship with Lectern. Used for startup logging.
var builtinProviders = map[string][]string{
	"stt":       {"whisper", "whisper-native", "openai"},
	"generator": {"heuristic", "gemini", "openai", "anthropic", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if entry.Language != "" {
			opts = append(opts, whisper.WithLanguage(entry.Language))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.NativeOption
		if entry.Language != "" {
			opts = append(opts, whisper.WithNativeLanguage(entry.Language))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []sttopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, sttopenai.WithBaseURL(entry.BaseURL))
		}
		return sttopenai.New(entry.APIKey, entry.Model, opts...)
	})

	// ── Generator ─────────────────────────────────────────────────────────────
	// gemini has its own client with API-key rotation; everything else goes
	// through any-llm with the shared APIKey + BaseURL pattern.

	reg.RegisterGenerator("gemini", func(entry config.ProviderEntry) (gen.Provider, error) {
		keys := entry.APIKeys
		if len(keys) == 0 && entry.APIKey != "" {
			keys = []string{entry.APIKey}
		}
		var opts []gengemini.Option
		if entry.Model != "" {
			opts = append(opts, gengemini.WithModel(entry.Model))
		}
		return gengemini.New(keys, opts...)
	})

	for _, providerName := range []string{
		"openai", "anthropic", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterGenerator(providerName, func(entry config.ProviderEntry) (gen.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return genanyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterGenerator("ollama", func(entry config.ProviderEntry) (gen.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return genanyllm.NewOllama(entry.Model, opts...)
	})

	// Debug log of all registered providers.
	for kind, names := range builtinProviders {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// buildSTTProvider instantiates the configured STT backend and wraps it in a
// circuit-breaker fallback group.
func buildSTTProvider(cfg *config.Config, reg *config.Registry, metrics *observe.Metrics) (stt.Provider, error) {
	entry := cfg.Providers.STT
	p, err := reg.CreateSTT(entry)
	if err != nil {
		return nil, fmt.Errorf("create stt provider %q: %w", entry.Name, err)
	}
	slog.Info("provider created", "kind", "stt", "name", entry.Name)
	return resilience.NewSTTFallback(p, entry.Name, resilience.FallbackConfig{Metrics: metrics}), nil
}

// buildGenerator instantiates the configured study material generator. Any
// model-backed generator degrades to the offline heuristic composer when the
// backend is unreachable; "heuristic" uses the composer directly.
func buildGenerator(cfg *config.Config, reg *config.Registry, metrics *observe.Metrics) (generate.Generator, error) {
	entry := cfg.Providers.Generator
	if entry.Name == "" || entry.Name == "heuristic" {
		slog.Info("provider created", "kind", "generator", "name", "heuristic")
		return generate.NewHeuristic(), nil
	}

	p, err := reg.CreateGenerator(entry)
	if err != nil {
		return nil, fmt.Errorf("create generator %q: %w", entry.Name, err)
	}
	slog.Info("provider created", "kind", "generator", "name", entry.Name, "model", entry.Model)

	resilient := resilience.NewGenFallback(p, entry.Name, resilience.FallbackConfig{Metrics: metrics})
	llm := generate.NewLLM(resilient, generate.LLMConfig{
		MaxTokens:   cfg.Generate.MaxTokens,
		Temperature: cfg.Generate.Temperature,
	}, generate.WithMetrics(metrics))
	return generate.NewFallback(llm, generate.NewHeuristic()), nil
}

// applyConfigChange hot-applies what can be hot-applied and logs the rest.
func applyConfigChange(logLevel *slog.LevelVar, old, new *config.Config) {
	d := config.Diff(old, new)

	if d.LogLevelChanged {
		logLevel.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level updated", "level", d.NewLogLevel)
	}
	if d.GenerateChanged {
		slog.Info("generation settings updated",
			"max_tokens", d.NewGenerate.MaxTokens,
			"temperature", d.NewGenerate.Temperature)
	}
	if d.UploadLimitsChanged {
		slog.Info("upload limits updated",
			"max_bytes", d.NewUpload.MaxBytes,
			"max_clip_seconds", d.NewUpload.MaxClipSeconds)
	}
	if d.ProvidersChanged {
		slog.Warn("provider configuration changed — restart required to apply")
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          Lectern — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("Generator", cfg.Providers.Generator.Name, cfg.Providers.Generator.Model)
	if cfg.Ingest.Enabled {
		printRow("Ingest dir", cfg.Ingest.WatchDir)
	} else {
		printRow("Ingest dir", "(disabled)")
	}
	printRow("Feedback log", cfg.Feedback.Path)
	printRow("Listen addr", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	printRow(kind, value)
}

func printRow(label, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", label, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
