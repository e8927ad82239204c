// Package httpapi exposes the game's HTTP surface: the wish pipeline, rule
// and hint delivery, narration endpoints, static clip serving, and the
// operational routes (health, metrics).
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hypnagogia/dreamkeeper/internal/audiocache"
	"github.com/hypnagogia/dreamkeeper/internal/game"
	"github.com/hypnagogia/dreamkeeper/internal/health"
	"github.com/hypnagogia/dreamkeeper/internal/observe"
	"github.com/hypnagogia/dreamkeeper/internal/wishlog"
)

// introClipName is the fixed cache name of the opening narration, synthesized
// once and reused for every /intro call.
const introClipName = "intro.mp3"

// ServerConfig wires a [Server].
type ServerConfig struct {
	Session     *game.Session
	Adjudicator *game.Adjudicator
	Rules       *game.RuleGenerator
	Cache       *audiocache.Cache
	WishLog     wishlog.Store
	Health      *health.Handler
	DoorCount   int

	Metrics *observe.Metrics
	Logger  *slog.Logger
}

// Server holds the handler dependencies and builds the router.
type Server struct {
	session   *game.Session
	adj       *game.Adjudicator
	rules     *game.RuleGenerator
	cache     *audiocache.Cache
	wishes    wishlog.Store
	health    *health.Handler
	doorCount int
	metrics   *observe.Metrics
	logger    *slog.Logger
}

// New creates a [Server]. All fields of cfg except Health are required.
func New(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Health == nil {
		cfg.Health = health.New()
	}
	if cfg.DoorCount <= 0 {
		cfg.DoorCount = game.DefaultDoorCount
	}
	return &Server{
		session:   cfg.Session,
		adj:       cfg.Adjudicator,
		rules:     cfg.Rules,
		cache:     cfg.Cache,
		wishes:    cfg.WishLog,
		health:    cfg.Health,
		doorCount: cfg.DoorCount,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// Router assembles the chi router with all game and operational routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(observe.Middleware(s.metrics))

	r.Get("/get_rules", s.handleGetRules)
	r.Get("/get_hint", s.handleGetHint)
	r.Post("/process_wish", s.handleProcessWish)
	r.Get("/intro", s.handleIntro)
	r.Get("/room_transition", s.handleRoomTransition)
	r.Post("/reset", s.handleReset)
	r.Post("/generate_rules", s.handleGenerateRules)
	r.Get("/wishes", s.handleListWishes)

	fileServer := http.StripPrefix(audiocache.URLPrefix,
		http.FileServer(http.Dir(s.cache.Dir())))
	r.Get(audiocache.URLPrefix+"*", fileServer.ServeHTTP)

	s.health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
