package config

import "fmt"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; provider, storage,
// and listen address changes require a restart and are reported separately.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// AssistantChanged is true when the session defaults changed. New values
	// apply to sessions opened after the reload; running sessions keep theirs.
	AssistantChanged bool
	NewAssistant     AssistantConfig

	// RestartRequired is true when a change was detected in a section that
	// cannot be applied without restarting the server.
	RestartRequired bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Assistant != new.Assistant {
		d.AssistantChanged = true
		d.NewAssistant = new.Assistant
	}

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = true
	}
	if !tlsEqual(old.Server.TLS, new.Server.TLS) {
		d.RestartRequired = true
	}
	if old.Storage != new.Storage {
		d.RestartRequired = true
	}
	if !providerEqual(old.Providers.LLM, new.Providers.LLM) || !providerEqual(old.Providers.Live, new.Providers.Live) {
		d.RestartRequired = true
	}

	return d
}

func tlsEqual(old, new *TLSConfig) bool {
	if old == nil || new == nil {
		return old == new
	}
	return *old == *new
}

// providerEqual compares two provider entries. Free-form Options values are
// compared by their string rendering since YAML decodes them as any.
func providerEqual(old, new ProviderEntry) bool {
	if old.Name != new.Name || old.APIKey != new.APIKey || old.BaseURL != new.BaseURL || old.Model != new.Model {
		return false
	}
	if len(old.Options) != len(new.Options) {
		return false
	}
	for k, v := range old.Options {
		nv, ok := new.Options[k]
		if !ok || fmt.Sprintf("%v", v) != fmt.Sprintf("%v", nv) {
			return false
		}
	}
	return true
}
