package builder

import (
	"fmt"
	"sync"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// Factory returns a fresh, zero-valued Builder for one scheme.
type Factory func() Builder

var (
	mu       sync.RWMutex
	registry = make(map[access.Scheme]Factory)
)

// Register associates scheme with a Builder factory. Backend packages
// call this from an init() function, the same self-registration pattern
// the teacher used for its storage backends.
func Register(scheme access.Scheme, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[scheme] = factory
}

// New looks up the Factory registered for scheme and returns a fresh
// Builder. It returns a BackendConfigInvalid *errors.Error if no backend
// has registered that scheme.
func New(scheme access.Scheme) (Builder, error) {
	mu.RLock()
	factory, ok := registry[scheme]
	mu.RUnlock()
	if !ok {
		return nil, apperrors.New(apperrors.BackendConfigInvalid,
			fmt.Sprintf("no backend registered for scheme %q", scheme)).
			WithOperation("builder.New")
	}
	return factory(), nil
}

// Schemes returns every scheme currently registered, for diagnostics and
// tests.
func Schemes() []access.Scheme {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]access.Scheme, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	return out
}
