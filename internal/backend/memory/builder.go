package memory

import (
	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/builder"
)

// Config holds memory backend configuration.
type Config struct {
	Root string
}

// MemoryBuilder constructs a memory Backend. Kept separate from Config
// so FromMap can be called multiple times without losing prior state,
// matching the Rust Builder::from_map contract.
type MemoryBuilder struct {
	cfg Config
}

func (b *MemoryBuilder) Scheme() access.Scheme { return access.SchemeMemory }

func (b *MemoryBuilder) FromMap(m map[string]string) builder.Builder {
	if root, ok := m["root"]; ok {
		b.cfg.Root = root
	}
	return b
}

func (b *MemoryBuilder) Build() (access.Accessor, error) {
	return New(b.cfg.Root), nil
}

func init() {
	builder.Register(access.SchemeMemory, func() builder.Builder {
		return &MemoryBuilder{}
	})
}
