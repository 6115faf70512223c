package hdfs

import (
	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/builder"
)

type HdfsBuilder struct {
	nameNode string
	root     string
}

func (b *HdfsBuilder) Scheme() access.Scheme { return access.SchemeHdfs }

func (b *HdfsBuilder) FromMap(m map[string]string) builder.Builder {
	if v, ok := m["name_node"]; ok {
		b.nameNode = v
	}
	if v, ok := m["root"]; ok {
		b.root = v
	}
	return b
}

func (b *HdfsBuilder) Build() (access.Accessor, error) {
	return NewBackend(b.nameNode, b.root)
}

func init() {
	builder.Register(access.SchemeHdfs, func() builder.Builder {
		return &HdfsBuilder{}
	})
}
