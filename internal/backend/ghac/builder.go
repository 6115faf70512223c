package ghac

import (
	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/builder"
)

type GhacBuilder struct {
	cfg  Config
	root string
}

func (b *GhacBuilder) Scheme() access.Scheme { return access.SchemeGhac }

func (b *GhacBuilder) FromMap(m map[string]string) builder.Builder {
	if v, ok := m["endpoint"]; ok {
		b.cfg.Endpoint = v
	}
	if v, ok := m["token"]; ok {
		b.cfg.Token = v
	}
	if v, ok := m["version"]; ok {
		b.cfg.Version = v
	}
	if v, ok := m["root"]; ok {
		b.root = v
	}
	return b
}

func (b *GhacBuilder) Build() (access.Accessor, error) {
	return NewBackend(b.cfg, b.root)
}

func init() {
	builder.Register(access.SchemeGhac, func() builder.Builder {
		return &GhacBuilder{}
	})
}
