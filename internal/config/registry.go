package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/lectern/pkg/provider/gen"
	"github.com/MrWong99/lectern/pkg/provider/stt"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	stt       map[string]func(ProviderEntry) (stt.Provider, error)
	generator map[string]func(ProviderEntry) (gen.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		stt:       make(map[string]func(ProviderEntry) (stt.Provider, error)),
		generator: make(map[string]func(ProviderEntry) (gen.Provider, error)),
	}
}

// RegisterSTT registers an STT provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterSTT(name string, factory func(ProviderEntry) (stt.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stt[name] = factory
}

// RegisterGenerator registers a text-generation provider factory under name.
func (r *Registry) RegisterGenerator(name string, factory func(ProviderEntry) (gen.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generator[name] = factory
}

// CreateSTT instantiates an STT provider using the factory registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateSTT(entry ProviderEntry) (stt.Provider, error) {
	r.mu.RLock()
	factory, ok := r.stt[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: stt/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateGenerator instantiates a text-generation provider using the factory
// registered under entry.Name.
func (r *Registry) CreateGenerator(entry ProviderEntry) (gen.Provider, error) {
	r.mu.RLock()
	factory, ok := r.generator[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: generator/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
