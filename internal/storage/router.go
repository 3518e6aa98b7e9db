package storage

import (
	"context"
	"fmt"
	"strings"

	"docparse/internal/domain"
	"docparse/internal/port"
)

// Router dispatches a location to a loader by its URI scheme. Locations
// without a scheme go to the fallback loader.
type Router struct {
	fallback port.DocumentLoader
	schemes  map[string]port.DocumentLoader
}

// NewRouter creates a Router that sends scheme-less locations to fallback.
func NewRouter(fallback port.DocumentLoader) *Router {
	return &Router{fallback: fallback, schemes: map[string]port.DocumentLoader{}}
}

// Handle registers loader for locations of the form "<scheme>://...".
func (r *Router) Handle(scheme string, loader port.DocumentLoader) {
	r.schemes[strings.ToLower(scheme)] = loader
}

// Scheme returns the URI scheme of location, or "" when it has none.
func Scheme(location string) string {
	i := strings.Index(location, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(location[:i])
}

func (r *Router) Load(ctx context.Context, location string) (*domain.Document, error) {
	scheme := Scheme(location)
	if scheme == "" {
		if r.fallback == nil {
			return nil, fmt.Errorf("%w: no loader for %s", domain.ErrInvalidInput, location)
		}
		return r.fallback.Load(ctx, location)
	}
	loader, ok := r.schemes[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported location scheme %q", domain.ErrInvalidInput, scheme)
	}
	return loader.Load(ctx, location)
}
