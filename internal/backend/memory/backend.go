// Package memory implements an in-process, in-memory Accessor. It backs
// unit tests and the backendtest conformance harness; no external
// library is involved because there is nothing to wire a dependency
// to — the entire backend is a guarded map.
package memory

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

type object struct {
	mode    access.ObjectMode
	data    []byte
	modTime time.Time
}

// Backend is an access.Accessor over an in-memory map, safe for
// concurrent use.
type Backend struct {
	mu      sync.RWMutex
	root    string
	objects map[string]*object
}

// New constructs a memory Backend rooted at root.
func New(root string) *Backend {
	return &Backend{
		root:    access.NormalizeRoot(root),
		objects: make(map[string]*object),
	}
}

func (b *Backend) Metadata() access.AccessorMetadata {
	return access.AccessorMetadata{
		Scheme: access.SchemeMemory,
		Root:   b.root,
		Name:   "memory",
		Capabilities: access.Capabilities(0).With(
			access.CapRead, access.CapWrite, access.CapList,
		),
		Hints: access.Hints{ReadIsSeekable: true},
	}
}

func (b *Backend) abs(path string) (string, error) {
	return access.AbsPath(b.root, path)
}

func (b *Backend) Create(ctx context.Context, path string, args access.OpCreate) (access.RpCreate, error) {
	abs, err := b.abs(path)
	if err != nil {
		return access.RpCreate{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Create")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.objects[abs]; ok && existing.mode != args.Mode {
		return access.RpCreate{}, apperrors.New(apperrors.ObjectAlreadyExists, "path exists with a different mode").
			WithOperation("Create").WithContext("path", path)
	}
	b.objects[abs] = &object{mode: args.Mode, modTime: now()}
	return access.RpCreate{}, nil
}

func (b *Backend) Read(ctx context.Context, path string, args access.OpRead) (access.RpRead, access.Reader, error) {
	abs, err := b.abs(path)
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Read")
	}

	b.mu.RLock()
	obj, ok := b.objects[abs]
	b.mu.RUnlock()
	if !ok {
		return access.RpRead{}, nil, apperrors.New(apperrors.ObjectNotFound, "object not found").
			WithOperation("Read").WithContext("path", path)
	}

	start := args.Range.Offset
	end := int64(len(obj.data))
	if args.Range.Size != nil {
		if want := start + *args.Range.Size; want < end {
			end = want
		}
	}
	if start > int64(len(obj.data)) {
		start = int64(len(obj.data))
	}
	if end < start {
		end = start
	}

	slice := obj.data[start:end]
	return access.RpRead{Size: int64(len(slice))}, access.NewBytesReader(slice), nil
}

func (b *Backend) Write(ctx context.Context, path string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	abs, err := b.abs(path)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write")
	}

	data, err := readAll(r)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, "reading body").WithOperation("Write").WithSource(err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[abs] = &object{mode: access.ModeFile, data: data, modTime: now()}
	return access.RpWrite{BytesWritten: int64(len(data))}, nil
}

func (b *Backend) Stat(ctx context.Context, path string, args access.OpStat) (access.RpStat, error) {
	abs, err := b.abs(path)
	if err != nil {
		return access.RpStat{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Stat")
	}

	b.mu.RLock()
	obj, ok := b.objects[abs]
	b.mu.RUnlock()
	if !ok {
		return access.RpStat{}, apperrors.New(apperrors.ObjectNotFound, "object not found").
			WithOperation("Stat").WithContext("path", path)
	}

	return access.RpStat{Metadata: access.ObjectMetadata{
		Mode:          obj.mode,
		ContentLength: int64(len(obj.data)),
		LastModified:  obj.modTime,
		Complete:      true,
	}}, nil
}

func (b *Backend) Delete(ctx context.Context, path string, args access.OpDelete) (access.RpDelete, error) {
	abs, err := b.abs(path)
	if err != nil {
		return access.RpDelete{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Delete")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, abs)
	return access.RpDelete{}, nil
}

func (b *Backend) List(ctx context.Context, path string, args access.OpList) (access.RpList, access.Pager, error) {
	abs, err := b.abs(path)
	if err != nil {
		return access.RpList{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("List")
	}
	if !strings.HasSuffix(abs, "/") {
		abs += "/"
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[string]access.ObjectEntry)
	for key, obj := range b.objects {
		if !strings.HasPrefix(key, abs) {
			continue
		}
		rest := strings.TrimPrefix(key, abs)
		rel := access.RelPath(b.root, key)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			childAbs := abs + rest[:idx+1]
			childRel := access.RelPath(b.root, childAbs)
			seen[childRel] = access.ObjectEntry{Path: childRel, Metadata: access.ObjectMetadata{Mode: access.ModeDir}}
			continue
		}
		seen[rel] = access.ObjectEntry{Path: rel, Metadata: access.ObjectMetadata{
			Mode:          obj.mode,
			ContentLength: int64(len(obj.data)),
			LastModified:  obj.modTime,
			Complete:      true,
		}}
	}

	entries := make([]access.ObjectEntry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return access.RpList{}, access.NewSlicePager([][]access.ObjectEntry{entries}), nil
}

func (b *Backend) Presign(ctx context.Context, path string, args access.OpPresign) (access.RpPresign, error) {
	return access.RpPresign{}, apperrors.New(apperrors.Unsupported, "memory backend does not support presigning").
		WithOperation("Presign").WithContext("path", path)
}

func (b *Backend) CreateMultipart(ctx context.Context, path string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	return access.RpCreateMultipart{}, apperrors.New(apperrors.Unsupported, "memory backend does not support multipart uploads").
		WithOperation("CreateMultipart").WithContext("path", path)
}

func (b *Backend) WriteMultipart(ctx context.Context, path string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	return access.RpWriteMultipart{}, apperrors.New(apperrors.Unsupported, "memory backend does not support multipart uploads").
		WithOperation("WriteMultipart").WithContext("path", path)
}

func (b *Backend) CompleteMultipart(ctx context.Context, path string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	return access.RpCompleteMultipart{}, apperrors.New(apperrors.Unsupported, "memory backend does not support multipart uploads").
		WithOperation("CompleteMultipart").WithContext("path", path)
}

func (b *Backend) AbortMultipart(ctx context.Context, path string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	return access.RpAbortMultipart{}, apperrors.New(apperrors.Unsupported, "memory backend does not support multipart uploads").
		WithOperation("AbortMultipart").WithContext("path", path)
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
			if err == io.EOF {
				return buf, nil
			}
			return buf, err
		}
	}
}

var nowFunc = time.Now

func now() time.Time { return nowFunc() }
