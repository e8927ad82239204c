package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/hypnagogia/dreamkeeper/pkg/provider/stt"
	sttmock "github.com/hypnagogia/dreamkeeper/pkg/provider/stt/mock"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/tts"
	ttsmock "github.com/hypnagogia/dreamkeeper/pkg/provider/tts/mock"
)

func TestSTTFallback_FailsOverToSecondary(t *testing.T) {
	primary := &sttmock.Provider{
		TranscribeFunc: func(ctx context.Context, req stt.Request) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	secondary := &sttmock.Provider{
		TranscribeFunc: func(ctx context.Context, req stt.Request) (string, error) {
			return "i wish for a red ball", nil
		},
	}

	chain := NewSTTFallback(primary, "primary", FallbackConfig{})
	chain.AddFallback("secondary", secondary)

	got, err := chain.Transcribe(context.Background(), stt.Request{Audio: []byte("wav")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "i wish for a red ball" {
		t.Fatalf("transcript = %q", got)
	}
	if len(primary.Calls()) != 1 || len(secondary.Calls()) != 1 {
		t.Fatalf("call counts = %d/%d, want 1/1", len(primary.Calls()), len(secondary.Calls()))
	}
}

func TestSTTFallback_AllExhausted(t *testing.T) {
	failing := &sttmock.Provider{
		TranscribeFunc: func(ctx context.Context, req stt.Request) (string, error) {
			return "", errors.New("down")
		},
	}
	chain := NewSTTFallback(failing, "only", FallbackConfig{})

	_, err := chain.Transcribe(context.Background(), stt.Request{Audio: []byte("wav")})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestTTSFallback_FormatFromPrimary(t *testing.T) {
	chain := NewTTSFallback(&ttsmock.Provider{}, "mock", FallbackConfig{})
	if chain.Format() != "mp3" {
		t.Fatalf("Format = %q, want mp3", chain.Format())
	}

	clip, err := chain.Synthesize(context.Background(), "hello", tts.Voice{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clip) == 0 {
		t.Fatal("empty clip")
	}
}
