package ipmfs

import (
	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/builder"
)

type IpmfsBuilder struct {
	cfg  Config
	root string
}

func (b *IpmfsBuilder) Scheme() access.Scheme { return access.SchemeIpmfs }

func (b *IpmfsBuilder) FromMap(m map[string]string) builder.Builder {
	if v, ok := m["endpoint"]; ok {
		b.cfg.Endpoint = v
	}
	if v, ok := m["root"]; ok {
		b.root = v
	}
	return b
}

func (b *IpmfsBuilder) Build() (access.Accessor, error) {
	return NewBackend(b.cfg, b.root)
}

func init() {
	builder.Register(access.SchemeIpmfs, func() builder.Builder {
		return &IpmfsBuilder{}
	})
}
