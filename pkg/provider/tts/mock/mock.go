// Package mock provides a configurable tts.Provider test double.
package mock

import (
	"context"
	"sync"

	"github.com/hypnagogia/dreamkeeper/pkg/provider/tts"
)

// Provider implements tts.Provider with a pluggable function.
type Provider struct {
	// SynthesizeFunc is invoked by Synthesize. When nil, Synthesize returns
	// a small fake clip.
	SynthesizeFunc func(ctx context.Context, text string, voice tts.Voice) ([]byte, error)

	mu    sync.Mutex
	calls []string
}

var _ tts.Provider = (*Provider)(nil)

// Synthesize implements tts.Provider and records the text.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.Voice) ([]byte, error) {
	p.mu.Lock()
	p.calls = append(p.calls, text)
	p.mu.Unlock()

	if p.SynthesizeFunc == nil {
		return []byte("clip:" + text), nil
	}
	return p.SynthesizeFunc(ctx, text, voice)
}

// Format implements tts.Provider.
func (p *Provider) Format() string { return "mp3" }

// Calls returns a copy of all synthesized texts in order.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}
