package feature

import (
	"fmt"
	"sort"

	"github.com/mkedata/crosswalk/internal/common"
	"github.com/mkedata/crosswalk/internal/service"
)

// Registry resolves feature names to implementations. The built-in catalog
// is registered on construction; additional features may be registered
// before materialization begins.
type Registry struct {
	features map[string]service.Feature
}

// NewRegistry creates a registry preloaded with the built-in catalog.
func NewRegistry() *Registry {
	r := &Registry{features: make(map[string]service.Feature)}
	for _, f := range catalog() {
		// The catalog is code-defined; a bad entry is a programming error.
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a feature, keyed by its column name. The contract is
// validated here so a malformed feature fails fast, before any compute.
func (r *Registry) Register(f service.Feature) error {
	meta := f.Meta()
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("cannot register feature: %w", err)
	}
	if _, exists := r.features[meta.Column]; exists {
		return fmt.Errorf("%w: %s", common.ErrDuplicateEntry, meta.Column)
	}
	r.features[meta.Column] = f
	return nil
}

// Lookup resolves a feature name.
func (r *Registry) Lookup(name string) (service.Feature, error) {
	f, ok := r.features[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownFeature, name)
	}
	return f, nil
}

// Names returns every registered feature name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.features))
	for name := range r.features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
