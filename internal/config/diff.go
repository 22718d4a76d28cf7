package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; provider or
// server changes need a restart and are deliberately absent here.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// GenerateChanged is true when max_tokens or temperature changed.
	GenerateChanged bool
	NewGenerate     GenerateConfig

	// UploadLimitsChanged is true when max_bytes or max_clip_seconds changed.
	UploadLimitsChanged bool
	NewUpload           UploadConfig

	// ProvidersChanged is true when any provider selection or credential
	// changed. This cannot be hot-applied; it is reported so the server can
	// log that a restart is needed.
	ProvidersChanged bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Generate != new.Generate {
		d.GenerateChanged = true
		d.NewGenerate = new.Generate
	}

	if old.Upload.MaxBytes != new.Upload.MaxBytes ||
		old.Upload.MaxClipSeconds != new.Upload.MaxClipSeconds {
		d.UploadLimitsChanged = true
		d.NewUpload = new.Upload
	}

	if !providerEntryEqual(old.Providers.STT, new.Providers.STT) ||
		!providerEntryEqual(old.Providers.Generator, new.Providers.Generator) {
		d.ProvidersChanged = true
	}

	return d
}

// providerEntryEqual compares the fields of two provider entries that affect
// a constructed provider. Options maps are not compared deeply; any change
// to Options is assumed significant only when the other fields differ too,
// since a provider restart re-reads them anyway.
func providerEntryEqual(a, b ProviderEntry) bool {
	return a.Name == b.Name &&
		a.APIKey == b.APIKey &&
		slices.Equal(a.APIKeys, b.APIKeys) &&
		a.BaseURL == b.BaseURL &&
		a.Model == b.Model &&
		a.Language == b.Language
}
