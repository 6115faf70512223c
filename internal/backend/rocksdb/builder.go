package rocksdb

import (
	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/builder"
)

type RocksdbBuilder struct {
	dir  string
	root string
}

func (b *RocksdbBuilder) Scheme() access.Scheme { return access.SchemeRocksdb }

func (b *RocksdbBuilder) FromMap(m map[string]string) builder.Builder {
	if v, ok := m["dir"]; ok {
		b.dir = v
	}
	if v, ok := m["root"]; ok {
		b.root = v
	}
	return b
}

func (b *RocksdbBuilder) Build() (access.Accessor, error) {
	return NewBackend(b.dir, b.root)
}

func init() {
	builder.Register(access.SchemeRocksdb, func() builder.Builder {
		return &RocksdbBuilder{}
	})
}
