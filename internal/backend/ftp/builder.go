package ftp

import (
	"time"

	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/builder"
)

type FtpBuilder struct {
	cfg  Config
	root string
}

func (b *FtpBuilder) Scheme() access.Scheme { return access.SchemeFtp }

func (b *FtpBuilder) FromMap(m map[string]string) builder.Builder {
	if v, ok := m["addr"]; ok {
		b.cfg.Addr = v
	}
	if v, ok := m["user"]; ok {
		b.cfg.User = v
	}
	if v, ok := m["password"]; ok {
		b.cfg.Password = v
	}
	if v, ok := m["root"]; ok {
		b.root = v
	}
	if v, ok := m["timeout"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			b.cfg.Timeout = d
		}
	}
	return b
}

func (b *FtpBuilder) Build() (access.Accessor, error) {
	return NewBackend(b.cfg, b.root)
}

func init() {
	builder.Register(access.SchemeFtp, func() builder.Builder {
		return &FtpBuilder{}
	})
}
