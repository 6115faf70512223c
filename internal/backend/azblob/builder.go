package azblob

import (
	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/builder"
)

// AzblobBuilder constructs a Backend for either the azblob or azdfs
// scheme, keyed by which scheme registered it.
type AzblobBuilder struct {
	scheme access.Scheme
	cfg    Config
	root   string
}

func (b *AzblobBuilder) Scheme() access.Scheme { return b.scheme }

func (b *AzblobBuilder) FromMap(m map[string]string) builder.Builder {
	if v, ok := m["account_name"]; ok {
		b.cfg.AccountName = v
	}
	if v, ok := m["account_key"]; ok {
		b.cfg.AccountKey = v
	}
	if v, ok := m["container"]; ok {
		b.cfg.ContainerName = v
	}
	if v, ok := m["endpoint"]; ok {
		b.cfg.Endpoint = v
	}
	if v, ok := m["root"]; ok {
		b.root = v
	}
	return b
}

func (b *AzblobBuilder) Build() (access.Accessor, error) {
	cfg := b.cfg
	cfg.Hierarchical = b.scheme == access.SchemeAzdfs
	return NewBackend(cfg, b.root)
}

func init() {
	builder.Register(access.SchemeAzblob, func() builder.Builder {
		return &AzblobBuilder{scheme: access.SchemeAzblob}
	})
	builder.Register(access.SchemeAzdfs, func() builder.Builder {
		return &AzblobBuilder{scheme: access.SchemeAzdfs}
	})
}
