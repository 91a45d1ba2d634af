package providers

import (
	"fmt"
	"log/slog"

	"github.com/alex-user-go/placeomat/internal/apperr"
	"github.com/alex-user-go/placeomat/internal/config"
)

// Constructor builds a provider for a single request.
type Constructor func() (Provider, error)

// Registry holds provider constructors in registration order.
type Registry struct {
	names []string
	ctors map[string]Constructor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a constructor under name. Registering a name twice replaces
// the constructor but keeps its original position.
func (r *Registry) Register(name string, ctor Constructor) {
	if _, ok := r.ctors[name]; !ok {
		r.names = append(r.names, name)
	}
	r.ctors[name] = ctor
}

// Names returns provider names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Lookup returns the constructor registered under name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	ctor, ok := r.ctors[name]
	return ctor, ok
}

// FromConfig registers every provider in the table, in table order.
// The API key is read from the environment each time a provider is constructed.
func FromConfig(providers []config.ProviderConfig, client *HTTPClient, logger *slog.Logger) (*Registry, error) {
	r := NewRegistry()

	for _, pc := range providers {
		var build func(key string) Provider
		switch pc.Name {
		case "google":
			build = func(key string) Provider { return NewGoogle(pc, key, client, logger) }
		case "yelp":
			build = func(key string) Provider { return NewYelp(pc, key, client, logger) }
		default:
			return nil, fmt.Errorf("no implementation for provider %q", pc.Name)
		}

		r.Register(pc.Name, func() (Provider, error) {
			key, err := config.LookupKey(pc.KeyEnv)
			if err != nil {
				return nil, apperr.Configuration("missing credential for "+pc.Name, err).WithOp("create provider")
			}
			return build(key), nil
		})
	}

	return r, nil
}
