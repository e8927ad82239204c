// Package tts defines the Provider interface for text-to-speech backends.
//
// A TTS provider wraps a synthesis service (e.g. OpenAI speech or ElevenLabs)
// and produces one complete encoded clip per narration line. The game serves
// clips as static files, so providers return the full clip rather than a
// stream; streaming transports are drained internally.
//
// Implementations must be safe for concurrent use and must honour context
// cancellation.
package tts

import "context"

// Voice selects the synthesis voice.
type Voice struct {
	// ID is the provider-specific voice identifier (e.g. "onyx" for OpenAI,
	// a voice UUID for ElevenLabs). Providers fall back to a default voice
	// when empty.
	ID string
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize renders text as one complete audio clip.
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)

	// Format returns the file extension of clips produced by Synthesize
	// (e.g. "mp3"). Constant for the lifetime of the provider.
	Format() string
}
