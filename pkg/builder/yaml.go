package builder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// backendConfig is one entry of a multi-backend YAML config file, the
// same shape as the teacher's internal/config.Configuration sections:
// a scheme name plus a flat string-keyed options map that feeds
// Builder.FromMap directly.
type backendConfig struct {
	Scheme  string            `yaml:"scheme"`
	Options map[string]string `yaml:"options"`
}

type configFile struct {
	Backends map[string]backendConfig `yaml:"backends"`
}

// FromYAML reads a YAML config file declaring one or more named backends
// and returns a ready-to-use Builder for the named entry, following the
// teacher's gopkg.in/yaml.v2-based configuration layering.
func FromYAML(path, name string) (Builder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.New(apperrors.BackendConfigInvalid,
			fmt.Sprintf("reading config file %q: %s", path, err)).
			WithOperation("builder.FromYAML").WithSource(err)
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.New(apperrors.BackendConfigInvalid,
			fmt.Sprintf("parsing config file %q: %s", path, err)).
			WithOperation("builder.FromYAML").WithSource(err)
	}

	entry, ok := cfg.Backends[name]
	if !ok {
		return nil, apperrors.New(apperrors.BackendConfigInvalid,
			fmt.Sprintf("no backend named %q in %q", name, path)).
			WithOperation("builder.FromYAML")
	}

	b, err := New(access.Scheme(entry.Scheme))
	if err != nil {
		return nil, err
	}
	return b.FromMap(entry.Options), nil
}
