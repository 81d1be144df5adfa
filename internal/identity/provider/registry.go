package provider

import "fmt"

// Registry holds all configured identity providers and allows lookup by
// provider name. Registration is explicit: providers are handed to the
// constructor by the host, never self-registered at import time.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers the given identity providers by name.
// A provider with a name seen earlier in the list replaces it.
func NewRegistry(list ...Provider) *Registry {
	m := make(map[string]Provider)
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the identity provider by name or an error if not registered.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown identity provider: %s", name)
	}
	return p, nil
}
