package layer

import (
	"context"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// ErrorContextLayer stamps every error an inner Accessor returns with the
// operation name and object path, so a caller sees accurate provenance
// regardless of which backend produced the error. Grounded on
// original_source/src/layers/error_context.rs.
type ErrorContextLayer struct{}

func NewErrorContextLayer() *ErrorContextLayer { return &ErrorContextLayer{} }

func (l *ErrorContextLayer) Layer(inner access.Accessor) access.Accessor {
	return &errorContextAccessor{base{inner: inner}}
}

type errorContextAccessor struct{ base }

func annotate(err error, operation, path string) error {
	if err == nil {
		return nil
	}
	if e, ok := apperrors.As(err); ok {
		e.WithOperation(operation).WithContext("path", path)
	}
	return err
}

func (a *errorContextAccessor) Create(ctx context.Context, path string, args access.OpCreate) (access.RpCreate, error) {
	rp, err := a.inner.Create(ctx, path, args)
	return rp, annotate(err, "Create", path)
}

func (a *errorContextAccessor) Read(ctx context.Context, path string, args access.OpRead) (access.RpRead, access.Reader, error) {
	rp, r, err := a.inner.Read(ctx, path, args)
	return rp, r, annotate(err, "Read", path)
}

func (a *errorContextAccessor) Write(ctx context.Context, path string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	rp, err := a.inner.Write(ctx, path, args, r)
	return rp, annotate(err, "Write", path)
}

func (a *errorContextAccessor) Stat(ctx context.Context, path string, args access.OpStat) (access.RpStat, error) {
	rp, err := a.inner.Stat(ctx, path, args)
	return rp, annotate(err, "Stat", path)
}

func (a *errorContextAccessor) Delete(ctx context.Context, path string, args access.OpDelete) (access.RpDelete, error) {
	rp, err := a.inner.Delete(ctx, path, args)
	return rp, annotate(err, "Delete", path)
}

func (a *errorContextAccessor) List(ctx context.Context, path string, args access.OpList) (access.RpList, access.Pager, error) {
	rp, p, err := a.inner.List(ctx, path, args)
	return rp, p, annotate(err, "List", path)
}

func (a *errorContextAccessor) Presign(ctx context.Context, path string, args access.OpPresign) (access.RpPresign, error) {
	rp, err := a.inner.Presign(ctx, path, args)
	return rp, annotate(err, "Presign", path)
}

func (a *errorContextAccessor) CreateMultipart(ctx context.Context, path string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	rp, err := a.inner.CreateMultipart(ctx, path, args)
	return rp, annotate(err, "CreateMultipart", path)
}

func (a *errorContextAccessor) WriteMultipart(ctx context.Context, path string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	rp, err := a.inner.WriteMultipart(ctx, path, args, r)
	return rp, annotate(err, "WriteMultipart", path)
}

func (a *errorContextAccessor) CompleteMultipart(ctx context.Context, path string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	rp, err := a.inner.CompleteMultipart(ctx, path, args)
	return rp, annotate(err, "CompleteMultipart", path)
}

func (a *errorContextAccessor) AbortMultipart(ctx context.Context, path string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	rp, err := a.inner.AbortMultipart(ctx, path, args)
	return rp, annotate(err, "AbortMultipart", path)
}
