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

// ValidProviderNames lists known provider names per pipeline stage.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":   {"openai", "deepgram"},
	"judge": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"tts":   {"openai", "elevenlabs"},
}

// keyEnvVars maps provider names to the environment variable conventionally
// holding their API key. The loader uses it to fill empty api_key fields.
var keyEnvVars = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"gemini":     "GEMINI_API_KEY",
	"deepgram":   "DEEPGRAM_API_KEY",
	"elevenlabs": "ELEVENLABS_API_KEY",
	"deepseek":   "DEEPSEEK_API_KEY",
	"mistral":    "MISTRAL_API_KEY",
	"groq":       "GROQ_API_KEY",
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
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

// LoadFromReader decodes a YAML config from r, fills API keys from the
// environment, applies defaults, and validates the result. Useful in tests
// where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	fillAPIKeys(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with all defaults applied and API keys pulled
// from the environment. Used when no config file exists: a party host with
// just OPENAI_API_KEY exported gets a working server.
func Default() *Config {
	cfg := &Config{
		Providers: ProvidersConfig{
			STT:   []ProviderEntry{{Name: "openai"}},
			Judge: []ProviderEntry{{Name: "openai"}},
			TTS:   []ProviderEntry{{Name: "openai"}},
		},
	}
	ApplyDefaults(cfg)
	fillAPIKeys(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with working defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8000"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "static"
	}
	if cfg.Game.DoorCount <= 0 {
		cfg.Game.DoorCount = 3
	}
}

// fillAPIKeys resolves empty api_key fields from each provider's
// conventional environment variable.
func fillAPIKeys(cfg *Config) {
	for _, chain := range [][]ProviderEntry{cfg.Providers.STT, cfg.Providers.Judge, cfg.Providers.TTS} {
		for i := range chain {
			if chain[i].APIKey != "" {
				continue
			}
			if env, ok := keyEnvVars[chain[i].Name]; ok {
				chain[i].APIKey = os.Getenv(env)
			}
		}
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Game.DoorCount < 1 || cfg.Game.DoorCount > 10 {
		errs = append(errs, fmt.Errorf("game.door_count %d is out of range [1, 10]", cfg.Game.DoorCount))
	}

	for kind, chain := range map[string][]ProviderEntry{
		"stt":   cfg.Providers.STT,
		"judge": cfg.Providers.Judge,
		"tts":   cfg.Providers.TTS,
	} {
		for i, entry := range chain {
			if entry.Name == "" {
				errs = append(errs, fmt.Errorf("providers.%s[%d].name is required", kind, i))
				continue
			}
			validateProviderName(kind, entry.Name)
		}
	}

	if len(cfg.Providers.STT) == 0 {
		slog.Warn("no STT provider configured; wish uploads will be rejected")
	}
	if len(cfg.Providers.Judge) == 0 {
		slog.Warn("no judge provider configured; rules fall back to the built-in set and wishes cannot be adjudicated")
	}
	if len(cfg.Providers.TTS) == 0 {
		slog.Warn("no TTS provider configured; the game runs with subtitle text only")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}

// SlogLevel converts the configured [LogLevel] to a [slog.Level].
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
