// Package rocksdb implements an Accessor over an embedded key-value
// store, grounded on original_source/src/services/rocksdb/backend.rs
// for the operation shapes (object bytes keyed by their full path, with
// a Txn-per-operation transaction boundary) and on
// marmos91-dittofs/pkg/metadata/store/badger/crud.go for the Go idiom
// of driving badger.Txn via View/Update closures and prefix iterators.
// Despite the scheme's name, this uses github.com/dgraph-io/badger/v4:
// cgo rocksdb bindings are not part of the retrieved dependency pack,
// and badger is the pack's only embedded, pure-Go KV engine (see
// DESIGN.md).
package rocksdb

import (
	"bytes"
	"context"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// Backend is an access.Accessor over a badger database, storing each
// object's bytes under the key "d:" followed by its absolute path. No
// other metadata (mode, mtime) is stored.
type Backend struct {
	db   *badger.DB
	root string
}

// NewBackend opens (or creates) a badger database at dir.
func NewBackend(dir, root string) (*Backend, error) {
	if dir == "" {
		return nil, apperrors.New(apperrors.BackendConfigInvalid, "rocksdb backend requires a dir").WithOperation("NewBackend")
	}

	opts := badger.DefaultOptions(dir)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, apperrors.New(apperrors.BackendConfigInvalid, "opening badger database").WithOperation("NewBackend").WithSource(err)
	}

	return &Backend{db: db, root: access.NormalizeRoot(root)}, nil
}

func (b *Backend) Metadata() access.AccessorMetadata {
	return access.AccessorMetadata{
		Scheme: access.SchemeRocksdb,
		Root:   b.root,
		Name:   "rocksdb",
		Capabilities: access.Capabilities(0).With(
			access.CapRead, access.CapWrite, access.CapList,
		),
		Hints: access.Hints{ReadIsSeekable: true},
	}
}

func (b *Backend) abs(p string) (string, error) {
	return access.AbsPath(b.root, p)
}

func dataKey(abs string) []byte { return []byte("d:" + abs) }
func dirPrefix(abs string) []byte {
	if !strings.HasSuffix(abs, "/") {
		abs += "/"
	}
	return []byte("d:" + abs)
}

func (b *Backend) Create(ctx context.Context, p string, args access.OpCreate) (access.RpCreate, error) {
	abs, err := b.abs(p)
	if err != nil {
		return access.RpCreate{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Create")
	}

	if args.Mode == access.ModeDir {
		return access.RpCreate{}, nil
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get(dataKey(abs))
		if getErr == nil {
			return nil
		}
		if getErr != badger.ErrKeyNotFound {
			return getErr
		}
		return txn.Set(dataKey(abs), nil)
	})
	if err != nil {
		return access.RpCreate{}, apperrors.New(apperrors.Unexpected, "creating object").WithOperation("Create").WithContext("path", p).WithSource(err)
	}
	return access.RpCreate{}, nil
}

func (b *Backend) Read(ctx context.Context, p string, args access.OpRead) (access.RpRead, access.Reader, error) {
	abs, err := b.abs(p)
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Read")
	}

	var data []byte
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dataKey(abs))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return access.RpRead{}, nil, apperrors.New(apperrors.ObjectNotFound, "object not found").
			WithOperation("Read").WithContext("path", p)
	}
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, "reading object").WithOperation("Read").WithContext("path", p).WithSource(err)
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
	abs, err := b.abs(p)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write")
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, "reading body").WithOperation("Write").WithSource(err)
	}
	data := buf.Bytes()

	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dataKey(abs), data)
	}); err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, "writing object").WithOperation("Write").WithContext("path", p).WithSource(err)
	}
	return access.RpWrite{BytesWritten: int64(len(data))}, nil
}

func (b *Backend) Stat(ctx context.Context, p string, args access.OpStat) (access.RpStat, error) {
	abs, err := b.abs(p)
	if err != nil {
		return access.RpStat{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Stat")
	}

	var size int64
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dataKey(abs))
		if err != nil {
			return err
		}
		size = item.ValueSize()
		return nil
	})
	if err == badger.ErrKeyNotFound {
		return access.RpStat{}, apperrors.New(apperrors.ObjectNotFound, "object not found").WithOperation("Stat").WithContext("path", p)
	}
	if err != nil {
		return access.RpStat{}, apperrors.New(apperrors.Unexpected, "stat object").WithOperation("Stat").WithContext("path", p).WithSource(err)
	}

	return access.RpStat{Metadata: access.ObjectMetadata{
		Mode:          access.ModeFile,
		ContentLength: size,
		Complete:      true,
	}}, nil
}

func (b *Backend) Delete(ctx context.Context, p string, args access.OpDelete) (access.RpDelete, error) {
	abs, err := b.abs(p)
	if err != nil {
		return access.RpDelete{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Delete")
	}

	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(dataKey(abs))
	}); err != nil {
		return access.RpDelete{}, apperrors.New(apperrors.Unexpected, "deleting object").WithOperation("Delete").WithContext("path", p).WithSource(err)
	}
	return access.RpDelete{}, nil
}

func (b *Backend) List(ctx context.Context, p string, args access.OpList) (access.RpList, access.Pager, error) {
	abs, err := b.abs(p)
	if err != nil {
		return access.RpList{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("List")
	}

	prefix := dirPrefix(abs)
	seen := make(map[string]access.ObjectEntry)

	err = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			rest := strings.TrimPrefix(key, string(prefix))
			fullAbs := strings.TrimPrefix(key, "d:")
			if idx := strings.Index(rest, "/"); idx >= 0 {
				childAbs := string(prefix) + rest[:idx+1]
				childRel := access.RelPath(b.root, strings.TrimPrefix(childAbs, "d:"))
				seen[childRel] = access.ObjectEntry{Path: childRel, Metadata: access.ObjectMetadata{Mode: access.ModeDir}}
				continue
			}
			rel := access.RelPath(b.root, fullAbs)
			seen[rel] = access.ObjectEntry{Path: rel, Metadata: access.ObjectMetadata{
				Mode:          access.ModeFile,
				ContentLength: it.Item().ValueSize(),
				Complete:      false,
			}}
		}
		return nil
	})
	if err != nil {
		return access.RpList{}, nil, apperrors.New(apperrors.Unexpected, "listing").WithOperation("List").WithContext("path", p).WithSource(err)
	}

	out := make([]access.ObjectEntry, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	return access.RpList{}, access.NewSlicePager([][]access.ObjectEntry{out}), nil
}

func (b *Backend) Presign(ctx context.Context, p string, args access.OpPresign) (access.RpPresign, error) {
	return access.RpPresign{}, apperrors.New(apperrors.Unsupported, "rocksdb backend does not support presigning").
		WithOperation("Presign").WithContext("path", p)
}

func (b *Backend) CreateMultipart(ctx context.Context, p string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	return access.RpCreateMultipart{}, apperrors.New(apperrors.Unsupported, "rocksdb backend does not support multipart uploads").
		WithOperation("CreateMultipart").WithContext("path", p)
}

func (b *Backend) WriteMultipart(ctx context.Context, p string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	return access.RpWriteMultipart{}, apperrors.New(apperrors.Unsupported, "rocksdb backend does not support multipart uploads").
		WithOperation("WriteMultipart").WithContext("path", p)
}

func (b *Backend) CompleteMultipart(ctx context.Context, p string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	return access.RpCompleteMultipart{}, apperrors.New(apperrors.Unsupported, "rocksdb backend does not support multipart uploads").
		WithOperation("CompleteMultipart").WithContext("path", p)
}

func (b *Backend) AbortMultipart(ctx context.Context, p string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	return access.RpAbortMultipart{}, apperrors.New(apperrors.Unsupported, "rocksdb backend does not support multipart uploads").
		WithOperation("AbortMultipart").WithContext("path", p)
}

// Close flushes and closes the underlying badger database.
func (b *Backend) Close() error {
	return b.db.Close()
}
