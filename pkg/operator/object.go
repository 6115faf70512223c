package operator

import (
	"context"
	"io"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// Reader opens path for reading the half-open range [rng.Offset,
// rng.End()) and returns a plain io.ReadCloser, adapting away the
// RpRead metadata that most callers don't need.
func (o *Operator) Reader(ctx context.Context, path string, rng access.Range) (io.ReadCloser, error) {
	_, r, err := o.acc.Read(ctx, path, access.OpRead{Range: rng})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ReadAll reads the entirety of path into memory. Intended for small
// objects (configuration, manifests); large objects should use Reader
// directly to stream.
func (o *Operator) ReadAll(ctx context.Context, path string) ([]byte, error) {
	r, err := o.Reader(ctx, path, access.Range{})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Writer returns a WriteCloser that uploads to path as a single Write
// call once Close is invoked, buffering the body in memory. Backends
// that require knowing args.Size up front need the size before any byte
// is flushed, so this implementation buffers rather than streaming.
// Callers uploading large objects should use the multipart API instead.
func (o *Operator) Writer(ctx context.Context, path string, contentType string) io.WriteCloser {
	return &objectWriter{ctx: ctx, op: o, path: path, contentType: contentType}
}

type objectWriter struct {
	ctx         context.Context
	op          *Operator
	path        string
	contentType string
	buf         []byte
}

func (w *objectWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *objectWriter) Close() error {
	_, err := w.op.acc.Write(w.ctx, w.path, access.OpWrite{
		Size:        int64(len(w.buf)),
		ContentType: w.contentType,
	}, access.NewBytesReader(w.buf))
	return err
}

// WriteAll is a convenience for uploading an in-memory byte slice in one
// call.
func (o *Operator) WriteAll(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := o.acc.Write(ctx, path, access.OpWrite{
		Size:        int64(len(data)),
		ContentType: contentType,
	}, access.NewBytesReader(data))
	return err
}

// MultipartUpload drives a create/write-parts/complete sequence,
// aborting on any failure so a caller never leaks an open upload ID.
// parts are uploaded sequentially in the order given; part numbering
// starts at 1, matching every backend's multipart convention.
func (o *Operator) MultipartUpload(ctx context.Context, path, contentType string, parts [][]byte) error {
	if err := o.requireCapability(access.CapMultipart, "CreateMultipart"); err != nil {
		return err
	}
	created, err := o.acc.CreateMultipart(ctx, path, access.OpCreateMultipart{ContentType: contentType})
	if err != nil {
		return err
	}
	uploadID := created.UploadID

	completed := make([]access.MultipartPart, 0, len(parts))
	for i, body := range parts {
		partNumber := i + 1
		rp, err := o.acc.WriteMultipart(ctx, path, access.OpWriteMultipart{
			UploadID:   uploadID,
			PartNumber: partNumber,
			Size:       int64(len(body)),
		}, access.NewBytesReader(body))
		if err != nil {
			o.abortMultipart(ctx, path, uploadID)
			return err
		}
		completed = append(completed, access.MultipartPart{PartNumber: partNumber, ETag: rp.ETag})
	}

	if _, err := o.acc.CompleteMultipart(ctx, path, access.OpCompleteMultipart{
		UploadID: uploadID,
		Parts:    completed,
	}); err != nil {
		o.abortMultipart(ctx, path, uploadID)
		return err
	}
	return nil
}

func (o *Operator) abortMultipart(ctx context.Context, path, uploadID string) {
	_, _ = o.acc.AbortMultipart(ctx, path, access.OpAbortMultipart{UploadID: uploadID})
}

// Object is a cheap handle bundling an Operator with a fixed path, for
// callers that operate on the same path repeatedly and would rather not
// thread it through every call. It carries no state of its own beyond
// the path; every method delegates straight to the Operator.
type Object struct {
	op   *Operator
	path string
}

// Object returns a handle bound to path.
func (o *Operator) Object(path string) *Object {
	return &Object{op: o, path: path}
}

// Path returns the path this handle is bound to.
func (h *Object) Path() string { return h.path }

// Stat returns the object's metadata.
func (h *Object) Stat(ctx context.Context) (access.ObjectMetadata, error) {
	return h.op.Stat(ctx, h.path)
}

// Read opens the object for reading the given range.
func (h *Object) Read(ctx context.Context, rng access.Range) (io.ReadCloser, error) {
	return h.op.Reader(ctx, h.path, rng)
}

// ReadAll reads the entire object into memory.
func (h *Object) ReadAll(ctx context.Context) ([]byte, error) {
	return h.op.ReadAll(ctx, h.path)
}

// Write uploads data as the object's entire content.
func (h *Object) Write(ctx context.Context, data []byte, contentType string) error {
	return h.op.WriteAll(ctx, h.path, data, contentType)
}

// Writer returns a WriteCloser that uploads to this object on Close.
func (h *Object) Writer(ctx context.Context, contentType string) io.WriteCloser {
	return h.op.Writer(ctx, h.path, contentType)
}

// Create makes an empty file or directory at this path.
func (h *Object) Create(ctx context.Context, mode access.ObjectMode) error {
	return h.op.Create(ctx, h.path, mode)
}

// Delete removes the object. Deleting a missing object is not an error.
func (h *Object) Delete(ctx context.Context) error {
	return h.op.Delete(ctx, h.path)
}

// List enumerates the object's direct children, treating this handle's
// path as a directory.
func (h *Object) List(ctx context.Context) ([]access.ObjectEntry, error) {
	return h.op.List(ctx, h.path)
}

// IsNotFound reports whether err represents a missing object.
func IsNotFound(err error) bool {
	return apperrors.Is(err, apperrors.ObjectNotFound)
}

// IsAlreadyExists reports whether err represents a name collision.
func IsAlreadyExists(err error) bool {
	return apperrors.Is(err, apperrors.ObjectAlreadyExists)
}
