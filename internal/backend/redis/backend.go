// Package redis implements an Accessor over a Redis key-value store,
// grounded on grafana-tempo/pkg/cache/redis_client_test.go for the
// go-redis/v8 client-construction shape (single endpoint vs. a
// comma-joined list selecting cluster mode) and on
// original_source/src/services/redis/backend.rs for the operation
// semantics: object bytes stored under their path as the key, and
// directory listing approximated via a key-prefix KEYS query since Redis has
// no native hierarchy.
package redis

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// Config holds the settings needed to connect to a Redis deployment.
// Endpoint may be a single "host:port" or a comma-separated list, in
// which case the backend connects in cluster mode.
type Config struct {
	Endpoint string
	Password string
	DB       int
}

// client is the subset of *goredis.Client / *goredis.ClusterClient
// this backend depends on, letting a single Backend type serve both
// deployment modes.
type client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Keys(ctx context.Context, pattern string) *goredis.StringSliceCmd
	Close() error
}

// Backend is an access.Accessor over Redis. Because Redis has no
// native directory concept, directories are represented implicitly:
// List matches by key prefix, while Stat only finds stored keys (always
// reported as ModeFile) and returns ObjectNotFound for a path that only
// has children.
type Backend struct {
	rdb  client
	root string
}

// NewBackend dials a Redis endpoint (or comma-separated cluster
// endpoints) and returns a Backend rooted at root.
func NewBackend(cfg Config, root string) (*Backend, error) {
	if cfg.Endpoint == "" {
		return nil, apperrors.New(apperrors.BackendConfigInvalid, "redis requires an endpoint").WithOperation("NewBackend")
	}

	addrs := strings.Split(cfg.Endpoint, ",")
	var rdb client
	if len(addrs) > 1 {
		rdb = goredis.NewClusterClient(&goredis.ClusterOptions{
			Addrs:    addrs,
			Password: cfg.Password,
		})
	} else {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:     addrs[0],
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	return &Backend{rdb: rdb, root: access.NormalizeRoot(root)}, nil
}

func (b *Backend) Metadata() access.AccessorMetadata {
	return access.AccessorMetadata{
		Scheme: access.SchemeRedis,
		Root:   b.root,
		Name:   "redis",
		Capabilities: access.Capabilities(0).With(
			access.CapRead, access.CapWrite, access.CapList,
		),
		Hints: access.Hints{ReadIsSeekable: true},
	}
}

func (b *Backend) key(p string) (string, error) {
	abs, err := access.AbsPath(b.root, p)
	if err != nil {
		return "", err
	}
	return abs, nil
}

func wrapRedis(err error, operation, p string) error {
	if err == nil || err == goredis.Nil {
		return nil
	}
	return apperrors.New(apperrors.Unexpected, err.Error()).WithOperation(operation).WithContext("path", p).WithSource(err).WithTemporary()
}

func (b *Backend) Create(ctx context.Context, p string, args access.OpCreate) (access.RpCreate, error) {
	if args.Mode == access.ModeDir {
		return access.RpCreate{}, nil
	}
	key, err := b.key(p)
	if err != nil {
		return access.RpCreate{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Create")
	}
	if err := b.rdb.Set(ctx, key, []byte{}, 0).Err(); err != nil {
		return access.RpCreate{}, wrapRedis(err, "Create", p)
	}
	return access.RpCreate{}, nil
}

func (b *Backend) Read(ctx context.Context, p string, args access.OpRead) (access.RpRead, access.Reader, error) {
	key, err := b.key(p)
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Read")
	}

	data, err := b.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.ObjectNotFound, "object not found").
			WithOperation("Read").WithContext("path", p)
	}
	if err != nil {
		return access.RpRead{}, nil, wrapRedis(err, "Read", p)
	}

	start := args.Range.Offset
	end := int64(len(data))
	if args.Range.Size != nil {
		if want := start + *args.Range.Size; want < end {
			end = want
		}
	}
	if start > int64(len(data)) {
		start = int64(len(data))
	}
	if end < start {
		end = start
	}

	return access.RpRead{Size: end - start}, access.NewBytesReader(data[start:end]), nil
}

func (b *Backend) Write(ctx context.Context, p string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	key, err := b.key(p)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write")
	}

	data, err := readAll(r)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, "reading body").WithOperation("Write").WithSource(err)
	}

	if err := b.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return access.RpWrite{}, wrapRedis(err, "Write", p)
	}
	return access.RpWrite{BytesWritten: int64(len(data))}, nil
}

func readAll(r access.Reader) ([]byte, error) {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf, nil
			}
			return buf, err
		}
	}
}

func (b *Backend) Stat(ctx context.Context, p string, args access.OpStat) (access.RpStat, error) {
	key, err := b.key(p)
	if err != nil {
		return access.RpStat{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Stat")
	}

	n, err := b.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return access.RpStat{}, apperrors.New(apperrors.ObjectNotFound, "object not found").WithOperation("Stat").WithContext("path", p)
	}
	if err != nil {
		return access.RpStat{}, wrapRedis(err, "Stat", p)
	}

	return access.RpStat{Metadata: access.ObjectMetadata{
		Mode:          access.ModeFile,
		ContentLength: int64(len(n)),
		Complete:      true,
	}}, nil
}

func (b *Backend) Delete(ctx context.Context, p string, args access.OpDelete) (access.RpDelete, error) {
	key, err := b.key(p)
	if err != nil {
		return access.RpDelete{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Delete")
	}
	if err := b.rdb.Del(ctx, key).Err(); err != nil {
		return access.RpDelete{}, wrapRedis(err, "Delete", p)
	}
	return access.RpDelete{}, nil
}

func (b *Backend) List(ctx context.Context, p string, args access.OpList) (access.RpList, access.Pager, error) {
	key, err := b.key(p)
	if err != nil {
		return access.RpList{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("List")
	}

	pattern := strings.TrimSuffix(key, "/") + "/*"
	keys, err := b.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return access.RpList{}, nil, wrapRedis(err, "List", p)
	}

	trimmed := strings.TrimSuffix(p, "/")
	prefixLen := len(strings.TrimSuffix(key, "/")) + 1
	out := make([]access.ObjectEntry, 0, len(keys))
	for _, k := range keys {
		if len(k) <= prefixLen {
			continue
		}
		rest := k[prefixLen:]
		name := rest
		mode := access.ModeFile
		if idx := strings.Index(rest, "/"); idx >= 0 {
			name = rest[:idx]
			mode = access.ModeDir
		}
		rel := trimmed
		if rel != "" {
			rel += "/"
		}
		rel += name
		if mode == access.ModeDir {
			rel += "/"
		}
		out = append(out, access.ObjectEntry{Path: rel, Metadata: access.ObjectMetadata{Mode: mode}})
	}

	dedup := make(map[string]access.ObjectEntry, len(out))
	for _, e := range out {
		dedup[e.Path] = e
	}
	out = out[:0]
	for _, e := range dedup {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	return access.RpList{}, access.NewSlicePager([][]access.ObjectEntry{out}), nil
}

func (b *Backend) Presign(ctx context.Context, p string, args access.OpPresign) (access.RpPresign, error) {
	return access.RpPresign{}, apperrors.New(apperrors.Unsupported, "redis backend does not support presigning").
		WithOperation("Presign").WithContext("path", p)
}

func (b *Backend) CreateMultipart(ctx context.Context, p string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	return access.RpCreateMultipart{}, apperrors.New(apperrors.Unsupported, "redis backend does not support multipart uploads").
		WithOperation("CreateMultipart").WithContext("path", p)
}

func (b *Backend) WriteMultipart(ctx context.Context, p string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	return access.RpWriteMultipart{}, apperrors.New(apperrors.Unsupported, "redis backend does not support multipart uploads").
		WithOperation("WriteMultipart").WithContext("path", p)
}

func (b *Backend) CompleteMultipart(ctx context.Context, p string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	return access.RpCompleteMultipart{}, apperrors.New(apperrors.Unsupported, "redis backend does not support multipart uploads").
		WithOperation("CompleteMultipart").WithContext("path", p)
}

func (b *Backend) AbortMultipart(ctx context.Context, p string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	return access.RpAbortMultipart{}, apperrors.New(apperrors.Unsupported, "redis backend does not support multipart uploads").
		WithOperation("AbortMultipart").WithContext("path", p)
}

// Close releases the backend's Redis client connections.
func (b *Backend) Close() error {
	return b.rdb.Close()
}
