package redis

import (
	"strconv"

	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/builder"
)

type RedisBuilder struct {
	cfg  Config
	root string
}

func (b *RedisBuilder) Scheme() access.Scheme { return access.SchemeRedis }

func (b *RedisBuilder) FromMap(m map[string]string) builder.Builder {
	if v, ok := m["endpoint"]; ok {
		b.cfg.Endpoint = v
	}
	if v, ok := m["password"]; ok {
		b.cfg.Password = v
	}
	if v, ok := m["db"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			b.cfg.DB = n
		}
	}
	if v, ok := m["root"]; ok {
		b.root = v
	}
	return b
}

func (b *RedisBuilder) Build() (access.Accessor, error) {
	return NewBackend(b.cfg, b.root)
}

func init() {
	builder.Register(access.SchemeRedis, func() builder.Builder {
		return &RedisBuilder{}
	})
}
