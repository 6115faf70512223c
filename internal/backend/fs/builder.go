package fs

import (
	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/builder"
)

// Config holds fs backend configuration.
type Config struct {
	// Dir is the real directory on disk backing the access-layer root.
	Dir  string
	Root string
}

type FsBuilder struct {
	cfg Config
}

func (b *FsBuilder) Scheme() access.Scheme { return access.SchemeFs }

func (b *FsBuilder) FromMap(m map[string]string) builder.Builder {
	if dir, ok := m["dir"]; ok {
		b.cfg.Dir = dir
	}
	if root, ok := m["root"]; ok {
		b.cfg.Root = root
	}
	return b
}

func (b *FsBuilder) Build() (access.Accessor, error) {
	return New(b.cfg.Dir, b.cfg.Root), nil
}

func init() {
	builder.Register(access.SchemeFs, func() builder.Builder {
		return &FsBuilder{}
	})
}
