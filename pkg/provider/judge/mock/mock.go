// Package mock provides a configurable judge.Provider test double.
package mock

import (
	"context"
	"sync"

	"github.com/hypnagogia/dreamkeeper/pkg/provider/judge"
)

// Provider implements judge.Provider with a pluggable function.
type Provider struct {
	// CompleteFunc is invoked by Complete. When nil, Complete returns
	// ("{}", nil).
	CompleteFunc func(ctx context.Context, req judge.Request) ([]byte, error)

	mu    sync.Mutex
	calls []judge.Request
}

var _ judge.Provider = (*Provider)(nil)

// Complete implements judge.Provider and records the request.
func (p *Provider) Complete(ctx context.Context, req judge.Request) ([]byte, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()

	if p.CompleteFunc == nil {
		return []byte("{}"), nil
	}
	return p.CompleteFunc(ctx, req)
}

// Calls returns a copy of all recorded requests.
func (p *Provider) Calls() []judge.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]judge.Request, len(p.calls))
	copy(out, p.calls)
	return out
}
