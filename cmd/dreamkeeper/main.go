// Command dreamkeeper is the Dreamkeeper game server: it receives recorded
// wishes from the game client, judges them against the current door law, and
// answers with a verdict plus narrated audio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/hypnagogia/dreamkeeper/internal/audiocache"
	"github.com/hypnagogia/dreamkeeper/internal/config"
	"github.com/hypnagogia/dreamkeeper/internal/game"
	"github.com/hypnagogia/dreamkeeper/internal/health"
	"github.com/hypnagogia/dreamkeeper/internal/httpapi"
	"github.com/hypnagogia/dreamkeeper/internal/observe"
	"github.com/hypnagogia/dreamkeeper/internal/resilience"
	"github.com/hypnagogia/dreamkeeper/internal/wishlog"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/judge"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/judge/anyllm"
	oaijudge "github.com/hypnagogia/dreamkeeper/pkg/provider/judge/openai"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/stt"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/stt/deepgram"
	oaistt "github.com/hypnagogia/dreamkeeper/pkg/provider/stt/openai"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/tts"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/tts/elevenlabs"
	oaitts "github.com/hypnagogia/dreamkeeper/pkg/provider/tts/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// API keys commonly live in a .env during development. Missing file is
	// fine.
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dreamkeeper: %v\n", err)
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("dreamkeeper starting",
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"doors", cfg.Game.DoorCount,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry providers with the Prometheus bridge for /metrics.
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "dreamkeeper",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sdCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(sdCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	sttChain, judgeChain, ttsChain := buildProviderChains(cfg, reg)

	// Missing API keys degrade the affected stage instead of aborting startup:
	// the server comes up, rules fall back to the built-in set, and wish
	// requests answer with a stage-failure error until a key is provided.
	var sttProv stt.Provider = sttChain
	if sttChain == nil {
		slog.Warn("no usable STT provider; wishes will fail until one is configured")
		sttProv = unavailableSTT{}
	}
	var judgeProv judge.Provider = judgeChain
	if judgeChain == nil {
		slog.Warn("no usable judge provider; wishes will fail until one is configured")
		judgeProv = unavailableJudge{}
	}

	session := game.NewSession()

	cache, err := audiocache.New(cfg.Server.StaticDir)
	if err != nil {
		slog.Error("failed to create audio cache", "err", err)
		return 1
	}

	wishes, checkers, cleanup, err := buildWishLog(ctx, cfg)
	if err != nil {
		slog.Error("failed to open wish log", "err", err)
		return 1
	}
	defer cleanup()
	checkers = append(checkers, cacheChecker(cache))

	adj, err := game.NewAdjudicator(game.AdjudicatorConfig{
		STT:     sttProv,
		Judge:   judgeProv,
		TTS:     ttsProviderOrNil(ttsChain),
		Session: session,
		Cache:   cache,
		Voice:   tts.Voice{ID: cfg.Game.VoiceID},
		Timeouts: game.StageTimeouts{
			STT:   cfg.Timeouts.STT.Std(),
			Judge: cfg.Timeouts.Judge.Std(),
			TTS:   cfg.Timeouts.TTS.Std(),
		},
		Logger: logger,
	})
	if err != nil {
		slog.Error("failed to build wish pipeline", "err", err)
		return 1
	}

	server := httpapi.New(httpapi.ServerConfig{
		Session:     session,
		Adjudicator: adj,
		Rules:       game.NewRuleGenerator(judgeProv, logger),
		Cache:       cache,
		WishLog:     wishes,
		Health:      health.New(checkers...),
		DoorCount:   cfg.Game.DoorCount,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server ready", "addr", cfg.Server.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			return 1
		}
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received, stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// loadConfig reads the config file, falling back to environment-driven
// defaults when the file does not exist. A host with only OPENAI_API_KEY
// exported gets a working single-provider setup.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		return config.Default(), nil
	}
	return nil, err
}

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── STT ──────────────────────────────────────────────────────────────

	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []oaistt.Option
		if entry.Model != "" {
			opts = append(opts, oaistt.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, oaistt.WithBaseURL(entry.BaseURL))
		}
		return oaistt.New(entry.APIKey, opts...)
	})

	reg.RegisterSTT("deepgram", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithBaseURL(entry.BaseURL))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	// ── Judge ────────────────────────────────────────────────────────────
	// openai gets the native structured-output client; the other vendors go
	// through any-llm with schema-in-prompt coercion.

	reg.RegisterJudge("openai", func(entry config.ProviderEntry) (judge.Provider, error) {
		var opts []oaijudge.Option
		if entry.Model != "" {
			opts = append(opts, oaijudge.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, oaijudge.WithBaseURL(entry.BaseURL))
		}
		return oaijudge.New(entry.APIKey, opts...)
	})

	for _, vendor := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterJudge(vendor, func(entry config.ProviderEntry) (judge.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(vendor, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API
	// key.
	reg.RegisterJudge("ollama", func(entry config.ProviderEntry) (judge.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── TTS ──────────────────────────────────────────────────────────────

	reg.RegisterTTS("openai", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []oaitts.Option
		if entry.Model != "" {
			opts = append(opts, oaitts.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, oaitts.WithBaseURL(entry.BaseURL))
		}
		return oaitts.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})
}

// buildProviderChains instantiates every configured provider and assembles
// the fallback chains. An entry with no API key or a failing constructor is
// skipped with a warning; a stage with no usable entries yields nil.
func buildProviderChains(cfg *config.Config, reg *config.Registry) (*resilience.STTFallback, *resilience.JudgeFallback, *resilience.TTSFallback) {
	fbCfg := resilience.FallbackConfig{}

	var sttChain *resilience.STTFallback
	for _, entry := range cfg.Providers.STT {
		p, err := reg.CreateSTT(entry)
		if err != nil {
			slog.Warn("skipping stt provider", "name", entry.Name, "err", err)
			continue
		}
		if sttChain == nil {
			sttChain = resilience.NewSTTFallback(p, entry.Name, fbCfg)
		} else {
			sttChain.AddFallback(entry.Name, p)
		}
		slog.Info("provider created", "kind", "stt", "name", entry.Name)
	}

	var judgeChain *resilience.JudgeFallback
	for _, entry := range cfg.Providers.Judge {
		p, err := reg.CreateJudge(entry)
		if err != nil {
			slog.Warn("skipping judge provider", "name", entry.Name, "err", err)
			continue
		}
		if judgeChain == nil {
			judgeChain = resilience.NewJudgeFallback(p, entry.Name, fbCfg)
		} else {
			judgeChain.AddFallback(entry.Name, p)
		}
		slog.Info("provider created", "kind", "judge", "name", entry.Name)
	}

	var ttsChain *resilience.TTSFallback
	for _, entry := range cfg.Providers.TTS {
		p, err := reg.CreateTTS(entry)
		if err != nil {
			slog.Warn("skipping tts provider", "name", entry.Name, "err", err)
			continue
		}
		if ttsChain == nil {
			ttsChain = resilience.NewTTSFallback(p, entry.Name, fbCfg)
		} else {
			ttsChain.AddFallback(entry.Name, p)
		}
		slog.Info("provider created", "kind", "tts", "name", entry.Name)
	}

	return sttChain, judgeChain, ttsChain
}

// unavailableSTT and unavailableJudge stand in for a stage with no configured
// backend. Every call errors, which surfaces as transcription_failed or
// judgment_failed on the wire, and lets the rule generator fall back to the
// built-in set.
type unavailableSTT struct{}

func (unavailableSTT) Transcribe(context.Context, stt.Request) (string, error) {
	return "", errors.New("no speech-to-text backend configured")
}

type unavailableJudge struct{}

func (unavailableJudge) Complete(context.Context, judge.Request) ([]byte, error) {
	return nil, errors.New("no judgment backend configured")
}

// ttsProviderOrNil avoids storing a typed nil in the pipeline's tts.Provider
// interface field.
func ttsProviderOrNil(chain *resilience.TTSFallback) tts.Provider {
	if chain == nil {
		return nil
	}
	return chain
}

// buildWishLog opens the configured wish log and returns it with its
// readiness checkers and a cleanup function.
func buildWishLog(ctx context.Context, cfg *config.Config) (wishlog.Store, []health.Checker, func(), error) {
	if cfg.WishLog.PostgresDSN == "" {
		return wishlog.NewMemStore(), nil, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.WishLog.PostgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	store := wishlog.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	checkers := []health.Checker{{
		Name:  "wishlog",
		Check: pool.Ping,
	}}
	slog.Info("wish log backed by postgres")
	return store, checkers, pool.Close, nil
}

// cacheChecker reports readiness of the clip directory by writing and
// removing a marker file.
func cacheChecker(cache *audiocache.Cache) health.Checker {
	return health.Checker{
		Name: "audio_cache",
		Check: func(context.Context) error {
			marker := filepath.Join(cache.Dir(), ".healthcheck")
			if err := os.WriteFile(marker, nil, 0o644); err != nil {
				return err
			}
			return os.Remove(marker)
		},
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level.SlogLevel(),
	}))
}
