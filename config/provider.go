package config

import "sync"

// Provider hands out the current configuration and swaps it atomically on
// reload. Handlers call Get on every request, so a reload takes effect
// without a restart.
type Provider struct {
	mu  sync.RWMutex
	cfg *Config
}

func NewProvider(cfg *Config) *Provider {
	return &Provider{cfg: cfg}
}

// Get returns the current configuration. The returned pointer must be
// treated as read only.
func (p *Provider) Get() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// Update replaces the current configuration.
func (p *Provider) Update(cfg *Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
}
