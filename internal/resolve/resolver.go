// Package resolve rewrites site URLs stored in the feeds database into the
// feed URLs those sites publish.
package resolve

import (
	"context"
	"net/http"
)

// Resolver maps a site URL to a feed URL for one host.
type Resolver interface {
	// Name returns the resolver name for identification
	Name() string

	// CanHandle returns true if this resolver can rewrite the given URL
	CanHandle(url string) bool

	// Resolve returns the feed URL for url. It may perform HTTP requests.
	Resolve(ctx context.Context, url string, client *http.Client) (string, error)

	// Priority decides between resolvers that can handle the same URL (higher wins)
	Priority() int
}

// Registry manages all registered resolvers
type Registry struct {
	resolvers []Resolver
	client    *http.Client
}

// NewRegistry creates an empty registry. Resolvers making requests use client.
func NewRegistry(client *http.Client) *Registry {
	if client == nil {
		client = http.DefaultClient
	}
	return &Registry{
		resolvers: make([]Resolver, 0),
		client:    client,
	}
}

// DefaultRegistry returns a registry with the built-in site resolvers.
func DefaultRegistry(client *http.Client) *Registry {
	r := NewRegistry(client)
	r.Register(NewRedditResolver())
	r.Register(NewYouTubeResolver())
	return r
}

// Register adds a resolver to the registry
func (r *Registry) Register(resolver Resolver) {
	r.resolvers = append(r.resolvers, resolver)
}

// Find returns the highest-priority resolver that can handle url, or nil.
func (r *Registry) Find(url string) Resolver {
	var best Resolver
	highestPriority := -1

	for _, resolver := range r.resolvers {
		if resolver.CanHandle(url) && resolver.Priority() > highestPriority {
			best = resolver
			highestPriority = resolver.Priority()
		}
	}

	return best
}

// Resolve returns the feed URL for url, or url itself when no resolver applies.
func (r *Registry) Resolve(ctx context.Context, url string) (string, error) {
	resolver := r.Find(url)
	if resolver == nil {
		return url, nil
	}
	return resolver.Resolve(ctx, url, r.client)
}

// List returns all registered resolvers
func (r *Registry) List() []Resolver {
	return append([]Resolver(nil), r.resolvers...)
}
