package layer

import (
	"context"

	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/retry"
)

// RetryLayer wraps every call of the inner Accessor except Write and
// WriteMultipart (which pass straight through) in a retry.Retryer, so a
// Temporary error (a dropped connection, a
// throttled request) is retried with backoff before the caller ever
// sees it. Read and List retry only the call that opens the stream:
// once a Reader or Pager is handed back, byte-level retry is the
// caller's responsibility (the teacher's own S3 backend follows this
// same open-retries, stream-doesn't boundary in internal/storage/s3).
type RetryLayer struct {
	Config retry.Config
}

// NewRetryLayer returns a Layer that retries Temporary errors using cfg.
func NewRetryLayer(cfg retry.Config) *RetryLayer {
	return &RetryLayer{Config: cfg}
}

func (l *RetryLayer) Layer(inner access.Accessor) access.Accessor {
	return &retryAccessor{base: base{inner: inner}, retryer: retry.New(l.Config)}
}

type retryAccessor struct {
	base
	retryer *retry.Retryer
}

func (a *retryAccessor) Create(ctx context.Context, path string, args access.OpCreate) (access.RpCreate, error) {
	var rp access.RpCreate
	err := a.retryer.DoWithContext(ctx, func(ctx context.Context) error {
		var err error
		rp, err = a.inner.Create(ctx, path, args)
		return err
	})
	return rp, err
}

func (a *retryAccessor) Read(ctx context.Context, path string, args access.OpRead) (access.RpRead, access.Reader, error) {
	var rp access.RpRead
	var r access.Reader
	err := a.retryer.DoWithContext(ctx, func(ctx context.Context) error {
		var err error
		rp, r, err = a.inner.Read(ctx, path, args)
		return err
	})
	return rp, r, err
}

func (a *retryAccessor) Write(ctx context.Context, path string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	// A Reader can only be consumed once, so Write is not retried here:
	// retrying a partially-consumed body would silently corrupt the
	// upload. Callers that need retry-on-write must supply a Reader
	// that can be rewound (access.SeekableReader) and retry at their
	// own layer.
	return a.inner.Write(ctx, path, args, r)
}

func (a *retryAccessor) Stat(ctx context.Context, path string, args access.OpStat) (access.RpStat, error) {
	var rp access.RpStat
	err := a.retryer.DoWithContext(ctx, func(ctx context.Context) error {
		var err error
		rp, err = a.inner.Stat(ctx, path, args)
		return err
	})
	return rp, err
}

func (a *retryAccessor) Delete(ctx context.Context, path string, args access.OpDelete) (access.RpDelete, error) {
	var rp access.RpDelete
	err := a.retryer.DoWithContext(ctx, func(ctx context.Context) error {
		var err error
		rp, err = a.inner.Delete(ctx, path, args)
		return err
	})
	return rp, err
}

func (a *retryAccessor) List(ctx context.Context, path string, args access.OpList) (access.RpList, access.Pager, error) {
	var rp access.RpList
	var p access.Pager
	err := a.retryer.DoWithContext(ctx, func(ctx context.Context) error {
		var err error
		rp, p, err = a.inner.List(ctx, path, args)
		return err
	})
	return rp, p, err
}

func (a *retryAccessor) Presign(ctx context.Context, path string, args access.OpPresign) (access.RpPresign, error) {
	var rp access.RpPresign
	err := a.retryer.DoWithContext(ctx, func(ctx context.Context) error {
		var err error
		rp, err = a.inner.Presign(ctx, path, args)
		return err
	})
	return rp, err
}

func (a *retryAccessor) CreateMultipart(ctx context.Context, path string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	var rp access.RpCreateMultipart
	err := a.retryer.DoWithContext(ctx, func(ctx context.Context) error {
		var err error
		rp, err = a.inner.CreateMultipart(ctx, path, args)
		return err
	})
	return rp, err
}

func (a *retryAccessor) WriteMultipart(ctx context.Context, path string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	return a.inner.WriteMultipart(ctx, path, args, r)
}

func (a *retryAccessor) CompleteMultipart(ctx context.Context, path string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	var rp access.RpCompleteMultipart
	err := a.retryer.DoWithContext(ctx, func(ctx context.Context) error {
		var err error
		rp, err = a.inner.CompleteMultipart(ctx, path, args)
		return err
	})
	return rp, err
}

func (a *retryAccessor) AbortMultipart(ctx context.Context, path string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	var rp access.RpAbortMultipart
	err := a.retryer.DoWithContext(ctx, func(ctx context.Context) error {
		var err error
		rp, err = a.inner.AbortMultipart(ctx, path, args)
		return err
	})
	return rp, err
}
