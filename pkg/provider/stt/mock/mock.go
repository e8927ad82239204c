// Package mock provides a configurable stt.Provider test double.
package mock

import (
	"context"
	"sync"

	"github.com/hypnagogia/dreamkeeper/pkg/provider/stt"
)

// Provider implements stt.Provider with a pluggable function.
type Provider struct {
	// TranscribeFunc is invoked by Transcribe. When nil, Transcribe returns
	// ("", nil).
	TranscribeFunc func(ctx context.Context, req stt.Request) (string, error)

	mu    sync.Mutex
	calls []stt.Request
}

var _ stt.Provider = (*Provider)(nil)

// Transcribe implements stt.Provider and records the request.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()

	if p.TranscribeFunc == nil {
		return "", nil
	}
	return p.TranscribeFunc(ctx, req)
}

// Calls returns a copy of all recorded requests.
func (p *Provider) Calls() []stt.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]stt.Request, len(p.calls))
	copy(out, p.calls)
	return out
}
