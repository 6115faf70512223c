// Package builder provides the pluggable-backend construction surface:
// a Builder interface every backend implements, and a Scheme-keyed
// registry tying those implementations to configuration. Grounded on
// original_source/src/builder.rs's Builder trait (SCHEME const,
// from_map/from_env/build) and on the teacher's internal/config
// YAML+env layering for FromYAML.
package builder

import (
	"fmt"
	"os"
	"strings"

	"github.com/objectfs/objectfs/pkg/access"
)

// Builder constructs an access.Accessor from configuration. Each backend
// package registers exactly one Builder implementation under its Scheme.
type Builder interface {
	// Scheme returns the backend this Builder constructs.
	Scheme() access.Scheme

	// FromMap populates the builder from a flat string-keyed
	// configuration map (mirroring the Rust from_map contract).
	FromMap(m map[string]string) Builder

	// Build consumes the builder's configuration and constructs the
	// backend's Accessor.
	Build() (access.Accessor, error)
}

// FromEnv constructs and populates a fresh Builder for scheme from
// environment variables prefixed "OPENDAL_<SCHEME>_", the Rust
// original's convention; OPENDAL_S3_BUCKET=x sets the "bucket" key.
func FromEnv(scheme access.Scheme) (Builder, error) {
	b, err := New(scheme)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("OPENDAL_%s_", strings.ToUpper(string(scheme)))
	m := make(map[string]string)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToUpper(parts[0])
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, prefix))
		m[name] = parts[1]
	}

	return b.FromMap(m), nil
}
