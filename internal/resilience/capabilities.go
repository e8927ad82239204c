package resilience

import (
	"context"

	"github.com/hypnagogia/dreamkeeper/pkg/provider/judge"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/stt"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/tts"
)

// STTFallback implements [stt.Provider] with automatic failover across
// multiple transcription backends. Each backend has its own circuit breaker.
type STTFallback struct {
	group *FallbackGroup[stt.Provider]
}

var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred
// backend.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	return &STTFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional STT provider as a fallback.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// Transcribe submits the recording to the first healthy backend.
func (f *STTFallback) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	return ExecuteWithResult(f.group, func(p stt.Provider) (string, error) {
		return p.Transcribe(ctx, req)
	})
}

// JudgeFallback implements [judge.Provider] with automatic failover across
// multiple completion backends. A backend whose reply cannot be coerced into
// valid JSON returns an error from Complete, which counts as a backend
// failure here and moves the chain to the next entry.
type JudgeFallback struct {
	group *FallbackGroup[judge.Provider]
}

var _ judge.Provider = (*JudgeFallback)(nil)

// NewJudgeFallback creates a [JudgeFallback] with primary as the preferred
// backend.
func NewJudgeFallback(primary judge.Provider, primaryName string, cfg FallbackConfig) *JudgeFallback {
	return &JudgeFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional judge provider as a fallback.
func (f *JudgeFallback) AddFallback(name string, provider judge.Provider) {
	f.group.AddFallback(name, provider)
}

// Complete submits the request to the first healthy backend.
func (f *JudgeFallback) Complete(ctx context.Context, req judge.Request) ([]byte, error) {
	return ExecuteWithResult(f.group, func(p judge.Provider) ([]byte, error) {
		return p.Complete(ctx, req)
	})
}

// TTSFallback implements [tts.Provider] with automatic failover across
// multiple synthesis backends. Exhaustion of the whole chain is non-fatal to
// the wish pipeline — callers degrade to a text-only narration line.
type TTSFallback struct {
	group *FallbackGroup[tts.Provider]
}

var _ tts.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a [TTSFallback] with primary as the preferred
// backend.
func NewTTSFallback(primary tts.Provider, primaryName string, cfg FallbackConfig) *TTSFallback {
	return &TTSFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional TTS provider as a fallback.
func (f *TTSFallback) AddFallback(name string, provider tts.Provider) {
	f.group.AddFallback(name, provider)
}

// Synthesize renders the line using the first healthy backend.
func (f *TTSFallback) Synthesize(ctx context.Context, text string, voice tts.Voice) ([]byte, error) {
	return ExecuteWithResult(f.group, func(p tts.Provider) ([]byte, error) {
		return p.Synthesize(ctx, text, voice)
	})
}

// Format returns the clip format of the primary backend. All configured
// backends are expected to produce the same container format.
func (f *TTSFallback) Format() string {
	if len(f.group.entries) > 0 {
		return f.group.entries[0].value.Format()
	}
	return "mp3"
}
