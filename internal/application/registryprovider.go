package application

import (
	"sync"
	"time"

	"github.com/noisebridge/baron/internal/domain/model"
)

// RegistryProvider holds the authoritative credential registry and lets the
// loader swap in a freshly built one without disturbing readers. The swap is a
// single pointer replacement under a write lock, so a reader sees either the
// old registry or the new one, never a partial set.
type RegistryProvider struct {
	mu         sync.RWMutex
	registry   *model.Registry
	reloadedAt time.Time
}

// NewRegistryProvider creates a provider with the given initial registry.
// registry may be nil before the first successful load.
func NewRegistryProvider(registry *model.Registry) *RegistryProvider {
	return &RegistryProvider{registry: registry}
}

// Get returns the current registry. Callers should check for nil if no load
// has succeeded yet.
func (p *RegistryProvider) Get() *model.Registry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.registry
}

// Replace installs registry as the authoritative set and records when it
// happened.
func (p *RegistryProvider) Replace(registry *model.Registry, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registry = registry
	p.reloadedAt = at
}

// ReloadedAt returns the time of the last Replace, or the zero time.
func (p *RegistryProvider) ReloadedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reloadedAt
}
