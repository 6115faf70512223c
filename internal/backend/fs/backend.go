// Package fs implements an Accessor over the local filesystem, grounded
// on the teacher's pkg/utils/path.go traversal guard (ValidatePath,
// SecureJoin) generalized to the access-layer's path semantics. It uses
// only the standard library: no pack repo wraps local file I/O with a
// third-party library, and the teacher's own filesystem layer is
// stdlib os/io throughout.
package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// Backend is an access.Accessor rooted at a local directory.
type Backend struct {
	root   string
	fsRoot string // absolute filesystem path corresponding to access root "/"
}

// New constructs a fs Backend. fsRoot is the real directory on disk;
// root is the logical object-path root (usually "/").
func New(fsRoot, root string) *Backend {
	return &Backend{root: access.NormalizeRoot(root), fsRoot: filepath.Clean(fsRoot)}
}

func (b *Backend) Metadata() access.AccessorMetadata {
	return access.AccessorMetadata{
		Scheme: access.SchemeFs,
		Root:   b.root,
		Name:   "fs",
		Capabilities: access.Capabilities(0).With(
			access.CapRead, access.CapWrite, access.CapList,
		),
		Hints: access.Hints{ReadIsSeekable: true},
	}
}

// realPath maps an object path to an absolute path on disk, rejecting
// any attempt to escape fsRoot.
func (b *Backend) realPath(path string) (string, error) {
	absObj, err := access.AbsPath(b.root, path)
	if err != nil {
		return "", err
	}
	rel := strings.TrimPrefix(absObj, b.root)
	real := filepath.Join(b.fsRoot, filepath.FromSlash(rel))
	if !strings.HasPrefix(real, b.fsRoot) {
		return "", &access.PathError{Path: path, Reason: "escapes filesystem root"}
	}
	return real, nil
}

func wrapOS(err error, operation, path string) error {
	if err == nil {
		return nil
	}
	kind := apperrors.Unexpected
	switch {
	case os.IsNotExist(err):
		kind = apperrors.ObjectNotFound
	case os.IsPermission(err):
		kind = apperrors.ObjectPermissionDenied
	case os.IsExist(err):
		kind = apperrors.ObjectAlreadyExists
	}
	return apperrors.New(kind, err.Error()).WithOperation(operation).WithContext("path", path).WithSource(err)
}

func (b *Backend) Create(ctx context.Context, path string, args access.OpCreate) (access.RpCreate, error) {
	real, err := b.realPath(path)
	if err != nil {
		return access.RpCreate{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Create")
	}

	if args.Mode == access.ModeDir {
		if err := os.MkdirAll(real, 0o755); err != nil {
			return access.RpCreate{}, wrapOS(err, "Create", path)
		}
		return access.RpCreate{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(real), 0o755); err != nil {
		return access.RpCreate{}, wrapOS(err, "Create", path)
	}
	f, err := os.OpenFile(real, os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return access.RpCreate{}, nil
		}
		return access.RpCreate{}, wrapOS(err, "Create", path)
	}
	f.Close()
	return access.RpCreate{}, nil
}

func (b *Backend) Read(ctx context.Context, path string, args access.OpRead) (access.RpRead, access.Reader, error) {
	real, err := b.realPath(path)
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Read")
	}

	f, err := os.Open(real)
	if err != nil {
		return access.RpRead{}, nil, wrapOS(err, "Read", path)
	}

	if args.Range.Offset > 0 {
		if _, err := f.Seek(args.Range.Offset, io.SeekStart); err != nil {
			f.Close()
			return access.RpRead{}, nil, wrapOS(err, "Read", path)
		}
	}

	var r access.Reader = &fileReader{f: f}
	size := int64(-1)
	if args.Range.Size != nil {
		size = *args.Range.Size
		r = &fileReader{f: f, limit: size, limited: true}
	}
	return access.RpRead{Size: size}, r, nil
}

type fileReader struct {
	f       *os.File
	limit   int64
	limited bool
	read    int64
}

func (r *fileReader) Read(p []byte) (int, error) {
	if r.limited {
		remaining := r.limit - r.read
		if remaining <= 0 {
			return 0, io.EOF
		}
		if int64(len(p)) > remaining {
			p = p[:remaining]
		}
	}
	n, err := r.f.Read(p)
	r.read += int64(n)
	return n, err
}

func (r *fileReader) Close() error { return r.f.Close() }

func (b *Backend) Write(ctx context.Context, path string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	real, err := b.realPath(path)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write")
	}

	if err := os.MkdirAll(filepath.Dir(real), 0o755); err != nil {
		return access.RpWrite{}, wrapOS(err, "Write", path)
	}

	f, err := os.Create(real)
	if err != nil {
		return access.RpWrite{}, wrapOS(err, "Write", path)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return access.RpWrite{}, wrapOS(err, "Write", path)
	}
	return access.RpWrite{BytesWritten: n}, nil
}

func (b *Backend) Stat(ctx context.Context, path string, args access.OpStat) (access.RpStat, error) {
	real, err := b.realPath(path)
	if err != nil {
		return access.RpStat{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Stat")
	}

	info, err := os.Stat(real)
	if err != nil {
		return access.RpStat{}, wrapOS(err, "Stat", path)
	}

	mode := access.ModeFile
	if info.IsDir() {
		mode = access.ModeDir
	}
	return access.RpStat{Metadata: access.ObjectMetadata{
		Mode:          mode,
		ContentLength: info.Size(),
		LastModified:  info.ModTime(),
		Complete:      true,
	}}, nil
}

func (b *Backend) Delete(ctx context.Context, path string, args access.OpDelete) (access.RpDelete, error) {
	real, err := b.realPath(path)
	if err != nil {
		return access.RpDelete{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Delete")
	}

	if err := os.RemoveAll(real); err != nil {
		return access.RpDelete{}, wrapOS(err, "Delete", path)
	}
	return access.RpDelete{}, nil
}

func (b *Backend) List(ctx context.Context, path string, args access.OpList) (access.RpList, access.Pager, error) {
	real, err := b.realPath(path)
	if err != nil {
		return access.RpList{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("List")
	}

	entries, err := os.ReadDir(real)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing directories list as empty (spec.md §9 Open Question a).
			return access.RpList{}, access.NewSlicePager(nil), nil
		}
		return access.RpList{}, nil, wrapOS(err, "List", path)
	}

	out := make([]access.ObjectEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		mode := access.ModeFile
		relChild := strings.TrimSuffix(path, "/")
		if relChild != "" {
			relChild += "/"
		}
		relChild += e.Name()
		if e.IsDir() {
			mode = access.ModeDir
			relChild += "/"
		}
		out = append(out, access.ObjectEntry{Path: relChild, Metadata: access.ObjectMetadata{
			Mode:          mode,
			ContentLength: info.Size(),
			LastModified:  info.ModTime(),
			Complete:      true,
		}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	return access.RpList{}, access.NewSlicePager([][]access.ObjectEntry{out}), nil
}

func (b *Backend) Presign(ctx context.Context, path string, args access.OpPresign) (access.RpPresign, error) {
	return access.RpPresign{}, apperrors.New(apperrors.Unsupported, "fs backend does not support presigning").
		WithOperation("Presign").WithContext("path", path)
}

func (b *Backend) CreateMultipart(ctx context.Context, path string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	return access.RpCreateMultipart{}, apperrors.New(apperrors.Unsupported, "fs backend does not support multipart uploads").
		WithOperation("CreateMultipart").WithContext("path", path)
}

func (b *Backend) WriteMultipart(ctx context.Context, path string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	return access.RpWriteMultipart{}, apperrors.New(apperrors.Unsupported, "fs backend does not support multipart uploads").
		WithOperation("WriteMultipart").WithContext("path", path)
}

func (b *Backend) CompleteMultipart(ctx context.Context, path string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	return access.RpCompleteMultipart{}, apperrors.New(apperrors.Unsupported, "fs backend does not support multipart uploads").
		WithOperation("CompleteMultipart").WithContext("path", path)
}

func (b *Backend) AbortMultipart(ctx context.Context, path string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	return access.RpAbortMultipart{}, apperrors.New(apperrors.Unsupported, "fs backend does not support multipart uploads").
		WithOperation("AbortMultipart").WithContext("path", path)
}
