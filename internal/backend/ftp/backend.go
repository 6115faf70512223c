// Package ftp implements an Accessor over a plain FTP server, grounded
// on original_source/src/services/ftp/err.rs for its retryable-error
// classification (421 "too many connections" replies and connection
// errors containing "EOF" retry; file-unavailable replies become a
// permanent not-found) using
// github.com/jlaffaye/ftp, the client the example pack pulls in via
// rclone's go.mod.
package ftp

import (
	"context"
	"errors"
	"io"
	"net/textproto"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// Config holds the settings needed to dial and authenticate an FTP
// server.
type Config struct {
	Addr     string
	User     string
	Password string
	Timeout  time.Duration
}

// Backend is an access.Accessor over a single FTP connection.
//
// jlaffaye/ftp connections are not safe for concurrent use; callers
// driving this backend from multiple goroutines should wrap it in the
// ConcurrentLimitLayer with permits=1, matching the single in-flight
// command assumption of the underlying control connection.
type Backend struct {
	conn *ftp.ServerConn
	root string
}

// NewBackend dials addr, authenticates, and returns a Backend rooted at
// root.
func NewBackend(cfg Config, root string) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, apperrors.New(apperrors.BackendConfigInvalid, "ftp requires an addr").WithOperation("NewBackend")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	conn, err := ftp.Dial(cfg.Addr, ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, apperrors.New(apperrors.BackendConfigInvalid, "dialing ftp server").WithOperation("NewBackend").WithSource(err)
	}

	if cfg.User != "" {
		if err := conn.Login(cfg.User, cfg.Password); err != nil {
			return nil, apperrors.New(apperrors.BackendConfigInvalid, "ftp login failed").WithOperation("NewBackend").WithSource(err)
		}
	}

	return &Backend{conn: conn, root: access.NormalizeRoot(root)}, nil
}

func (b *Backend) Metadata() access.AccessorMetadata {
	return access.AccessorMetadata{
		Scheme: access.SchemeFtp,
		Root:   b.root,
		Name:   "ftp",
		Capabilities: access.Capabilities(0).With(
			access.CapRead, access.CapWrite, access.CapList,
		),
		Hints: access.Hints{ReadIsSeekable: false},
	}
}

func (b *Backend) abs(p string) (string, error) {
	return access.AbsPath(b.root, p)
}

// wrapFTP classifies a jlaffaye/ftp error the way the Rust FtpError
// mapping does: 421 replies and non-reply errors whose text contains
// "EOF" are temporary, a file-unavailable reply is a permanent
// not-found, everything else falls back to Unexpected/Permanent.
func wrapFTP(err error, operation, p string) error {
	if err == nil {
		return nil
	}
	kind := apperrors.Unexpected
	status := apperrors.Permanent

	var tErr *textproto.Error
	if errors.As(err, &tErr) {
		switch tErr.Code {
		case 421: // too many connections from this address, retryable
			status = apperrors.Temporary
		case 550: // file unavailable
			kind = apperrors.ObjectNotFound
		}
	} else if strings.Contains(err.Error(), "EOF") {
		status = apperrors.Temporary
	}

	e := apperrors.New(kind, err.Error()).WithOperation(operation).WithContext("path", p).WithSource(err)
	if status == apperrors.Temporary {
		e = e.WithTemporary()
	}
	return e
}

func (b *Backend) Create(ctx context.Context, p string, args access.OpCreate) (access.RpCreate, error) {
	abs, err := b.abs(p)
	if err != nil {
		return access.RpCreate{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Create")
	}

	if args.Mode == access.ModeDir {
		if err := b.conn.MakeDir(abs); err != nil {
			return access.RpCreate{}, wrapFTP(err, "Create", p)
		}
		return access.RpCreate{}, nil
	}

	if err := b.conn.Stor(abs, strings.NewReader("")); err != nil {
		return access.RpCreate{}, wrapFTP(err, "Create", p)
	}
	return access.RpCreate{}, nil
}

func (b *Backend) Read(ctx context.Context, p string, args access.OpRead) (access.RpRead, access.Reader, error) {
	abs, err := b.abs(p)
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Read")
	}

	resp, err := b.conn.RetrFrom(abs, uint64(args.Range.Offset))
	if err != nil {
		return access.RpRead{}, nil, wrapFTP(err, "Read", p)
	}

	size := int64(-1)
	if args.Range.Size != nil {
		size = *args.Range.Size
		return access.RpRead{Size: size}, &limitedReader{r: resp, remaining: size}, nil
	}
	return access.RpRead{Size: size}, resp, nil
}

type limitedReader struct {
	r         *ftp.Response
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}

func (l *limitedReader) Close() error { return l.r.Close() }

func (b *Backend) Write(ctx context.Context, p string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	abs, err := b.abs(p)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write")
	}

	if dir := path.Dir(abs); dir != "." && dir != "/" {
		_ = b.conn.MakeDir(dir)
	}

	counting := &countingReader{inner: r}
	if err := b.conn.Stor(abs, counting); err != nil {
		return access.RpWrite{}, wrapFTP(err, "Write", p)
	}
	return access.RpWrite{BytesWritten: counting.n}, nil
}

type countingReader struct {
	inner access.Reader
	n     int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.inner.Read(p)
	c.n += int64(n)
	return n, err
}

func (b *Backend) Stat(ctx context.Context, p string, args access.OpStat) (access.RpStat, error) {
	abs, err := b.abs(p)
	if err != nil {
		return access.RpStat{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Stat")
	}

	entry, err := b.conn.GetEntry(abs)
	if err != nil {
		return access.RpStat{}, wrapFTP(err, "Stat", p)
	}

	mode := access.ModeFile
	if entry.Type == ftp.EntryTypeFolder {
		mode = access.ModeDir
	}
	return access.RpStat{Metadata: access.ObjectMetadata{
		Mode:          mode,
		ContentLength: int64(entry.Size),
		LastModified:  entry.Time,
		Complete:      true,
	}}, nil
}

func (b *Backend) Delete(ctx context.Context, p string, args access.OpDelete) (access.RpDelete, error) {
	abs, err := b.abs(p)
	if err != nil {
		return access.RpDelete{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Delete")
	}

	entry, statErr := b.conn.GetEntry(abs)
	if statErr != nil {
		return access.RpDelete{}, nil
	}

	if entry.Type == ftp.EntryTypeFolder {
		err = b.conn.RemoveDirRecur(abs)
	} else {
		err = b.conn.Delete(abs)
	}
	if err != nil {
		return access.RpDelete{}, wrapFTP(err, "Delete", p)
	}
	return access.RpDelete{}, nil
}

func (b *Backend) List(ctx context.Context, p string, args access.OpList) (access.RpList, access.Pager, error) {
	abs, err := b.abs(p)
	if err != nil {
		return access.RpList{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("List")
	}

	entries, err := b.conn.List(abs)
	if err != nil {
		return access.RpList{}, access.NewSlicePager(nil), nil
	}

	out := make([]access.ObjectEntry, 0, len(entries))
	trimmed := strings.TrimSuffix(p, "/")
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		rel := trimmed
		if rel != "" {
			rel += "/"
		}
		rel += e.Name
		mode := access.ModeFile
		if e.Type == ftp.EntryTypeFolder {
			mode = access.ModeDir
			rel += "/"
		}
		out = append(out, access.ObjectEntry{Path: rel, Metadata: access.ObjectMetadata{
			Mode:          mode,
			ContentLength: int64(e.Size),
			LastModified:  e.Time,
			Complete:      true,
		}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	return access.RpList{}, access.NewSlicePager([][]access.ObjectEntry{out}), nil
}

func (b *Backend) Presign(ctx context.Context, p string, args access.OpPresign) (access.RpPresign, error) {
	return access.RpPresign{}, apperrors.New(apperrors.Unsupported, "ftp backend does not support presigning").
		WithOperation("Presign").WithContext("path", p)
}

func (b *Backend) CreateMultipart(ctx context.Context, p string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	return access.RpCreateMultipart{}, apperrors.New(apperrors.Unsupported, "ftp backend does not support multipart uploads").
		WithOperation("CreateMultipart").WithContext("path", p)
}

func (b *Backend) WriteMultipart(ctx context.Context, p string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	return access.RpWriteMultipart{}, apperrors.New(apperrors.Unsupported, "ftp backend does not support multipart uploads").
		WithOperation("WriteMultipart").WithContext("path", p)
}

func (b *Backend) CompleteMultipart(ctx context.Context, p string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	return access.RpCompleteMultipart{}, apperrors.New(apperrors.Unsupported, "ftp backend does not support multipart uploads").
		WithOperation("CompleteMultipart").WithContext("path", p)
}

func (b *Backend) AbortMultipart(ctx context.Context, p string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	return access.RpAbortMultipart{}, apperrors.New(apperrors.Unsupported, "ftp backend does not support multipart uploads").
		WithOperation("AbortMultipart").WithContext("path", p)
}

// Close releases the backend's FTP control connection.
func (b *Backend) Close() error {
	return b.conn.Quit()
}
