package oauth

import (
	"fmt"
	"sort"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
)

// Registry holds the configured providers by name.
type Registry struct {
	providers map[domain.OAuthProvider]Provider
}

func NewRegistry(list ...Provider) *Registry {
	m := make(map[domain.OAuthProvider]Provider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Providers holds the configuration for every supported provider.
type Providers struct {
	Google    Config
	GitHub    Config
	Microsoft Config
}

// NewRegistryFromConfig registers every provider whose credentials are set.
func NewRegistryFromConfig(c Providers) *Registry {
	var list []Provider
	if c.Google.Enabled() {
		list = append(list, NewGoogle(c.Google))
	}
	if c.GitHub.Enabled() {
		list = append(list, NewGitHub(c.GitHub))
	}
	if c.Microsoft.Enabled() {
		list = append(list, NewMicrosoft(c.Microsoft))
	}
	return NewRegistry(list...)
}

func (r *Registry) Get(name domain.OAuthProvider) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// All returns the configured providers ordered by name.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Configured returns the provider names ordered by name.
func (r *Registry) Configured() []domain.OAuthProvider {
	all := r.All()
	out := make([]domain.OAuthProvider, len(all))
	for i, p := range all {
		out[i] = p.Name()
	}
	return out
}

// DisplayName returns the label for a configured provider, or "".
func (r *Registry) DisplayName(name domain.OAuthProvider) string {
	if p, ok := r.providers[name]; ok {
		return p.DisplayName()
	}
	return ""
}
