package layer

import (
	"context"
	"log/slog"
	"time"

	"github.com/objectfs/objectfs/pkg/access"
)

// LoggingLayer logs every call against the inner Accessor using
// log/slog, following the teacher's own internal/storage/s3/backend.go
// precedent (`slog.Default().With("component", "s3-backend", ...)`,
// `logger.Debug("CargoShip optimized upload completed", ...)`).
type LoggingLayer struct {
	Logger *slog.Logger
}

// NewLoggingLayer wraps logger, or slog.Default if logger is nil.
func NewLoggingLayer(logger *slog.Logger) *LoggingLayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingLayer{Logger: logger}
}

func (l *LoggingLayer) Layer(inner access.Accessor) access.Accessor {
	return &loggingAccessor{
		base: base{inner: inner},
		log:  l.Logger.With("component", "access"),
	}
}

type loggingAccessor struct {
	base
	log *slog.Logger
}

func (a *loggingAccessor) logCall(operation, path string, start time.Time, err error) {
	duration := time.Since(start)
	if err != nil {
		a.log.Error("operation failed",
			"operation", operation, "path", path,
			"duration_ms", duration.Milliseconds(), "error", err.Error())
		return
	}
	a.log.Debug("operation completed",
		"operation", operation, "path", path,
		"duration_ms", duration.Milliseconds())
}

func (a *loggingAccessor) Create(ctx context.Context, path string, args access.OpCreate) (access.RpCreate, error) {
	start := time.Now()
	rp, err := a.inner.Create(ctx, path, args)
	a.logCall("Create", path, start, err)
	return rp, err
}

func (a *loggingAccessor) Read(ctx context.Context, path string, args access.OpRead) (access.RpRead, access.Reader, error) {
	start := time.Now()
	rp, r, err := a.inner.Read(ctx, path, args)
	a.logCall("Read", path, start, err)
	return rp, r, err
}

func (a *loggingAccessor) Write(ctx context.Context, path string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	start := time.Now()
	rp, err := a.inner.Write(ctx, path, args, r)
	a.logCall("Write", path, start, err)
	return rp, err
}

func (a *loggingAccessor) Stat(ctx context.Context, path string, args access.OpStat) (access.RpStat, error) {
	start := time.Now()
	rp, err := a.inner.Stat(ctx, path, args)
	a.logCall("Stat", path, start, err)
	return rp, err
}

func (a *loggingAccessor) Delete(ctx context.Context, path string, args access.OpDelete) (access.RpDelete, error) {
	start := time.Now()
	rp, err := a.inner.Delete(ctx, path, args)
	a.logCall("Delete", path, start, err)
	return rp, err
}

func (a *loggingAccessor) List(ctx context.Context, path string, args access.OpList) (access.RpList, access.Pager, error) {
	start := time.Now()
	rp, p, err := a.inner.List(ctx, path, args)
	a.logCall("List", path, start, err)
	return rp, p, err
}

func (a *loggingAccessor) Presign(ctx context.Context, path string, args access.OpPresign) (access.RpPresign, error) {
	start := time.Now()
	rp, err := a.inner.Presign(ctx, path, args)
	a.logCall("Presign", path, start, err)
	return rp, err
}

func (a *loggingAccessor) CreateMultipart(ctx context.Context, path string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	start := time.Now()
	rp, err := a.inner.CreateMultipart(ctx, path, args)
	a.logCall("CreateMultipart", path, start, err)
	return rp, err
}

func (a *loggingAccessor) WriteMultipart(ctx context.Context, path string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	start := time.Now()
	rp, err := a.inner.WriteMultipart(ctx, path, args, r)
	a.logCall("WriteMultipart", path, start, err)
	return rp, err
}

func (a *loggingAccessor) CompleteMultipart(ctx context.Context, path string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	start := time.Now()
	rp, err := a.inner.CompleteMultipart(ctx, path, args)
	a.logCall("CompleteMultipart", path, start, err)
	return rp, err
}

func (a *loggingAccessor) AbortMultipart(ctx context.Context, path string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	start := time.Now()
	rp, err := a.inner.AbortMultipart(ctx, path, args)
	a.logCall("AbortMultipart", path, start, err)
	return rp, err
}
