package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Source loads a complete catalog from some backing store.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context) (*Catalog, error)

func (f SourceFunc) Load(ctx context.Context) (*Catalog, error) { return f(ctx) }

// Provider holds the currently loaded catalog and reloads it on demand.
// A singleflight.Group coalesces concurrent loads so a burst of first
// requests hits the backing store once.
type Provider struct {
	src Source

	mu       sync.RWMutex
	current  *Catalog
	loadedAt time.Time

	group singleflight.Group
}

// NewProvider creates a provider; nothing is loaded until Get or Reload.
func NewProvider(src Source) *Provider {
	return &Provider{src: src}
}

// Get returns the loaded catalog, loading it on first use.
func (p *Provider) Get(ctx context.Context) (*Catalog, error) {
	p.mu.RLock()
	c := p.current
	p.mu.RUnlock()
	if c != nil {
		return c, nil
	}
	return p.load(ctx)
}

// Reload fetches a fresh catalog and swaps it in. Searches already running
// keep the catalog they started with.
func (p *Provider) Reload(ctx context.Context) (*Catalog, error) {
	return p.load(ctx)
}

// LoadedAt reports when the current catalog was swapped in (zero if never).
func (p *Provider) LoadedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loadedAt
}

func (p *Provider) load(ctx context.Context) (*Catalog, error) {
	v, err, _ := p.group.Do("catalog", func() (interface{}, error) {
		c, err := p.src.Load(ctx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.current = c
		p.loadedAt = time.Now()
		p.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}
