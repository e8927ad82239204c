package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"golang.org/x/sync/errgroup"

	"github.com/hypnagogia/dreamkeeper/internal/audiocache"
	"github.com/hypnagogia/dreamkeeper/internal/observe"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/judge"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/stt"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/tts"
)

// Error kinds reported to the game client. The client switches its failure
// narration on Kind, so values are part of the wire contract.
const (
	KindBadRequest    = "bad_request"
	KindTranscription = "transcription_failed"
	KindJudgment      = "judgment_failed"
	KindInternal      = "internal"
)

// Error is a pipeline failure with a client-facing kind.
type Error struct {
	Kind string
	Err  error
}

func (e *Error) Error() string {
	return e.Kind + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func pipelineErr(kind string, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// StageTimeouts bounds each provider call inside one wish. Zero fields take
// the defaults.
type StageTimeouts struct {
	STT   time.Duration
	Judge time.Duration
	TTS   time.Duration
}

func (t *StageTimeouts) applyDefaults() {
	if t.STT <= 0 {
		t.STT = 30 * time.Second
	}
	if t.Judge <= 0 {
		t.Judge = 30 * time.Second
	}
	if t.TTS <= 0 {
		t.TTS = 60 * time.Second
	}
}

// Outcome is the full result of one processed wish. The verdict is embedded
// so its fields serialize at the top level of the response, where the game
// client reads them.
type Outcome struct {
	Verdict

	// Transcript is what the speech recogniser heard.
	Transcript string `json:"transcript"`

	// AudioURLDrop points at the drop-voice clip. Empty when synthesis
	// failed (the client falls back to showing the text line).
	AudioURLDrop string `json:"audio_url_drop,omitempty"`

	// AudioURLCongrats points at the door-reaction clip.
	AudioURLCongrats string `json:"audio_url_congrats,omitempty"`

	// AudioURL aliases whichever clip applies, for clients that play a
	// single narration line.
	AudioURL string `json:"audio_url,omitempty"`

	// CurrentDoor is the 1-based door the player faces after this wish.
	CurrentDoor int `json:"current_door"`

	// GameComplete is true once the final door has opened.
	GameComplete bool `json:"game_complete"`
}

// AdjudicatorConfig wires an [Adjudicator].
type AdjudicatorConfig struct {
	STT      stt.Provider
	Judge    judge.Provider
	TTS      tts.Provider // nil disables narration synthesis
	Session  *Session
	Cache    *audiocache.Cache
	Voice    tts.Voice
	Timeouts StageTimeouts

	// TempDir is where uploaded recordings are staged. Empty means the
	// system temp dir.
	TempDir string

	Metrics *observe.Metrics
	Logger  *slog.Logger
}

// Adjudicator runs the wish pipeline: transcribe the recording, judge the
// wish against the current door law, repair the verdict, synthesize the
// narration, and commit the result to the session.
type Adjudicator struct {
	stt      stt.Provider
	judge    judge.Provider
	tts      tts.Provider
	session  *Session
	cache    *audiocache.Cache
	voice    tts.Voice
	timeouts StageTimeouts
	tempDir  string
	metrics  *observe.Metrics
	logger   *slog.Logger
	schema   *jsonschema.Schema
}

// NewAdjudicator validates cfg and builds an [Adjudicator].
func NewAdjudicator(cfg AdjudicatorConfig) (*Adjudicator, error) {
	if cfg.STT == nil {
		return nil, fmt.Errorf("adjudicator: STT provider is required")
	}
	if cfg.Judge == nil {
		return nil, fmt.Errorf("adjudicator: judge provider is required")
	}
	if cfg.Session == nil {
		return nil, fmt.Errorf("adjudicator: session is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("adjudicator: audio cache is required")
	}
	cfg.Timeouts.applyDefaults()
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	reflector := jsonschema.Reflector{DoNotReference: true}
	return &Adjudicator{
		stt:      cfg.STT,
		judge:    cfg.Judge,
		tts:      cfg.TTS,
		session:  cfg.Session,
		cache:    cfg.Cache,
		voice:    cfg.Voice,
		timeouts: cfg.Timeouts,
		tempDir:  cfg.TempDir,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		schema:   reflector.Reflect(&Verdict{}),
	}, nil
}

// ProcessWish runs the full pipeline for one uploaded recording against the
// given door. lawOverride, when non-empty, replaces the installed door law
// for this wish only (the client sends it during playtesting).
func (a *Adjudicator) ProcessWish(ctx context.Context, doorID int, audio []byte, filename, contentType, lawOverride string) (*Outcome, error) {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "wish.process")
	defer span.End()
	log := observe.Logger(ctx).With("door", doorID)

	if len(audio) == 0 {
		return nil, pipelineErr(KindBadRequest, fmt.Errorf("empty audio upload"))
	}
	if !a.session.HasRules() {
		return nil, pipelineErr(KindBadRequest, fmt.Errorf("no rules installed; call get_rules first"))
	}

	law := lawOverride
	if law == "" {
		var err error
		law, err = a.session.Law(doorID)
		if err != nil {
			return nil, pipelineErr(KindBadRequest, err)
		}
	} else if doorID < 1 || doorID > a.session.DoorCount() {
		return nil, pipelineErr(KindBadRequest,
			fmt.Errorf("%w: %d of %d", ErrDoorOutOfRange, doorID, a.session.DoorCount()))
	}

	// The staged recording is removed on every exit path, success or
	// failure.
	tmpPath, err := a.stageUpload(audio, filename)
	if err != nil {
		return nil, pipelineErr(KindInternal, err)
	}
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	transcript, err := a.transcribe(ctx, audio, filename, contentType)
	if err != nil {
		log.Error("transcription failed", "error", err)
		return nil, pipelineErr(KindTranscription, err)
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, pipelineErr(KindTranscription, fmt.Errorf("no speech recognised"))
	}
	log.Info("wish transcribed", "transcript", transcript)

	verdict, err := a.adjudicate(ctx, law, doorID, transcript)
	if err != nil {
		log.Error("judgment failed", "error", err)
		return nil, pipelineErr(KindJudgment, err)
	}

	// Completion is decided before the commit so the final clip can carry
	// the closing narration.
	willComplete := verdict.DoorOpen &&
		doorID == a.session.DoorCount() &&
		doorID == a.session.CurrentDoor() &&
		!a.session.Completed()
	if willComplete {
		verdict.CongratsVoice = verdict.CongratsVoice + " " + CompletionLine
	}

	dropURL, congratsURL := a.synthesizeNarration(ctx, verdict.DropVoice, verdict.CongratsVoice)

	nextDoor, _ := a.session.RecordWish(verdict.ObjectName, doorID, verdict.DoorOpen)
	complete := a.session.Completed()

	a.metrics.RecordWish(ctx, verdict.DoorOpen)
	if verdict.DoorOpen {
		a.metrics.RecordDoorOpened(ctx, doorID)
	}
	a.metrics.WishDuration.Record(ctx, time.Since(start).Seconds())
	log.Info("wish adjudicated",
		"object", verdict.ObjectName,
		"door_open", verdict.DoorOpen,
		"next_door", nextDoor,
		"complete", complete,
		"duration", time.Since(start),
	)

	audioURL := dropURL
	if audioURL == "" {
		audioURL = congratsURL
	}
	return &Outcome{
		Verdict:          verdict,
		Transcript:       transcript,
		AudioURLDrop:     dropURL,
		AudioURLCongrats: congratsURL,
		AudioURL:         audioURL,
		CurrentDoor:      nextDoor,
		GameComplete:     complete,
	}, nil
}

// stageUpload writes the recording to a temp file and returns its path.
func (a *Adjudicator) stageUpload(audio []byte, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".wav"
	}
	f, err := os.CreateTemp(a.tempDir, "wish-*"+ext)
	if err != nil {
		return "", fmt.Errorf("staging upload: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(audio); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("staging upload: %w", err)
	}
	return f.Name(), nil
}

func (a *Adjudicator) transcribe(ctx context.Context, audio []byte, filename, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.STT)
	defer cancel()
	ctx, span := observe.StartSpan(ctx, "wish.stt")
	defer span.End()

	start := time.Now()
	text, err := a.stt.Transcribe(ctx, stt.Request{
		Audio:       audio,
		Filename:    filename,
		ContentType: contentType,
	})
	a.metrics.STTDuration.Record(ctx, time.Since(start).Seconds())
	return text, err
}

// adjudicate asks the judge for a verdict and repairs it into catalog-safe
// form.
func (a *Adjudicator) adjudicate(ctx context.Context, law string, doorID int, transcript string) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Judge)
	defer cancel()
	ctx, span := observe.StartSpan(ctx, "wish.judge")
	defer span.End()

	userText := "The player's wish: " + transcript
	if history := a.session.History(); len(history) > 0 {
		userText += "\nAlready granted this dream: " + strings.Join(history, ", ") + "."
	}

	start := time.Now()
	raw, err := a.judge.Complete(ctx, judge.Request{
		SystemPrompt: JudgeSystemPrompt(law, doorID, a.session.DoorCount()),
		UserText:     userText,
		SchemaName:   "wish_verdict",
		Schema:       a.schema,
		Temperature:  0.8,
	})
	a.metrics.JudgeDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return Verdict{}, err
	}

	var v Verdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return Verdict{}, fmt.Errorf("verdict did not parse: %w", err)
	}
	Normalize(&v)
	return v, nil
}

// synthesizeNarration renders both voice lines in parallel and caches the
// clips. Synthesis failure is non-fatal: the affected URL comes back empty
// and the client falls back to showing the text line.
func (a *Adjudicator) synthesizeNarration(ctx context.Context, dropLine, congratsLine string) (dropURL, congratsURL string) {
	if a.tts == nil {
		return "", ""
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.TTS)
	defer cancel()
	ctx, span := observe.StartSpan(ctx, "wish.tts")
	defer span.End()

	start := time.Now()
	var g errgroup.Group
	g.Go(func() error {
		url, err := a.synthesizeClip(ctx, dropLine)
		if err != nil {
			return err
		}
		dropURL = url
		return nil
	})
	g.Go(func() error {
		url, err := a.synthesizeClip(ctx, congratsLine)
		if err != nil {
			return err
		}
		congratsURL = url
		return nil
	})
	if err := g.Wait(); err != nil {
		observe.Logger(ctx).Warn("narration synthesis failed", "error", err)
		a.metrics.RecordProviderError(ctx, "tts", "synthesis")
	}
	a.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	return dropURL, congratsURL
}

// SynthesizeClip renders one narration line to a cached clip and returns its
// URL. Exposed for the HTTP layer's hint, intro, and transition endpoints.
func (a *Adjudicator) SynthesizeClip(ctx context.Context, text string) (string, error) {
	if a.tts == nil {
		return "", fmt.Errorf("no synthesis backend configured")
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.TTS)
	defer cancel()
	return a.synthesizeClip(ctx, text)
}

// SynthesizeClipNamed is like [Adjudicator.SynthesizeClip] but stores the
// clip under a fixed name so callers can reuse it across requests.
func (a *Adjudicator) SynthesizeClipNamed(ctx context.Context, name, text string) (string, error) {
	if a.tts == nil {
		return "", fmt.Errorf("no synthesis backend configured")
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.TTS)
	defer cancel()
	clip, err := a.tts.Synthesize(ctx, text, a.voice)
	if err != nil {
		return "", err
	}
	return a.cache.PutNamed(name, clip)
}

func (a *Adjudicator) synthesizeClip(ctx context.Context, text string) (string, error) {
	clip, err := a.tts.Synthesize(ctx, text, a.voice)
	if err != nil {
		return "", err
	}
	return a.cache.Put(clip, a.tts.Format())
}

// AudioFormat returns the clip format of the synthesis backend, "mp3" when
// none is configured.
func (a *Adjudicator) AudioFormat() string {
	if a.tts == nil {
		return "mp3"
	}
	return a.tts.Format()
}
