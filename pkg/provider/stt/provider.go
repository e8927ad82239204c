// Package stt defines the Provider interface for speech-to-text backends.
//
// An STT provider wraps a hosted transcription service (e.g. OpenAI Whisper
// or Deepgram) behind a single batch call: a wish arrives as one complete
// recording, so there is no streaming session to manage — the provider takes
// the full clip and returns the recognised text.
//
// Implementations must be safe for concurrent use and must honour context
// cancellation.
package stt

import "context"

// Request describes one recording to transcribe.
type Request struct {
	// Audio is the complete encoded recording (typically RIFF/WAV from the
	// game client's microphone capture).
	Audio []byte

	// Filename is the client-supplied name of the upload; providers that
	// build multipart requests use it as the part filename. May be empty.
	Filename string

	// ContentType is the MIME type of Audio (e.g. "audio/wav"). Providers
	// may ignore it if the service sniffs the container format itself.
	ContentType string

	// Language is an optional BCP-47 hint (e.g. "en"). Empty lets the
	// provider auto-detect.
	Language string
}

// Provider is the abstraction over any batch STT backend.
type Provider interface {
	// Transcribe submits the recording and returns the recognised text.
	// An empty transcript with a nil error is a valid result (silence).
	Transcribe(ctx context.Context, req Request) (string, error)
}
