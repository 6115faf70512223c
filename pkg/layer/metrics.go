package layer

import (
	"context"
	"time"

	"github.com/objectfs/objectfs/internal/metrics"
	"github.com/objectfs/objectfs/pkg/access"
)

// MetricsLayer records every call against the inner Accessor through the
// project's Prometheus collector (internal/metrics.Collector), grounded
// on the teacher's own metrics subsystem.
type MetricsLayer struct {
	Collector *metrics.Collector
}

// NewMetricsLayer wraps collector. collector must already be started by
// the caller (Operator construction does not start/stop it).
func NewMetricsLayer(collector *metrics.Collector) *MetricsLayer {
	return &MetricsLayer{Collector: collector}
}

func (l *MetricsLayer) Layer(inner access.Accessor) access.Accessor {
	return &metricsAccessor{base: base{inner: inner}, collector: l.Collector}
}

type metricsAccessor struct {
	base
	collector *metrics.Collector
}

func (a *metricsAccessor) record(operation string, start time.Time, size int64, err error) {
	if a.collector == nil {
		return
	}
	a.collector.RecordOperation(operation, time.Since(start), size, err == nil)
	if err != nil {
		a.collector.RecordError(operation, err)
	}
}

func (a *metricsAccessor) Create(ctx context.Context, path string, args access.OpCreate) (access.RpCreate, error) {
	start := time.Now()
	rp, err := a.inner.Create(ctx, path, args)
	a.record("Create", start, 0, err)
	return rp, err
}

func (a *metricsAccessor) Read(ctx context.Context, path string, args access.OpRead) (access.RpRead, access.Reader, error) {
	start := time.Now()
	rp, r, err := a.inner.Read(ctx, path, args)
	a.record("Read", start, rp.Size, err)
	return rp, r, err
}

func (a *metricsAccessor) Write(ctx context.Context, path string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	start := time.Now()
	rp, err := a.inner.Write(ctx, path, args, r)
	a.record("Write", start, rp.BytesWritten, err)
	return rp, err
}

func (a *metricsAccessor) Stat(ctx context.Context, path string, args access.OpStat) (access.RpStat, error) {
	start := time.Now()
	rp, err := a.inner.Stat(ctx, path, args)
	a.record("Stat", start, 0, err)
	return rp, err
}

func (a *metricsAccessor) Delete(ctx context.Context, path string, args access.OpDelete) (access.RpDelete, error) {
	start := time.Now()
	rp, err := a.inner.Delete(ctx, path, args)
	a.record("Delete", start, 0, err)
	return rp, err
}

func (a *metricsAccessor) List(ctx context.Context, path string, args access.OpList) (access.RpList, access.Pager, error) {
	start := time.Now()
	rp, p, err := a.inner.List(ctx, path, args)
	a.record("List", start, 0, err)
	return rp, p, err
}

func (a *metricsAccessor) Presign(ctx context.Context, path string, args access.OpPresign) (access.RpPresign, error) {
	start := time.Now()
	rp, err := a.inner.Presign(ctx, path, args)
	a.record("Presign", start, 0, err)
	return rp, err
}

func (a *metricsAccessor) CreateMultipart(ctx context.Context, path string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	start := time.Now()
	rp, err := a.inner.CreateMultipart(ctx, path, args)
	a.record("CreateMultipart", start, 0, err)
	return rp, err
}

func (a *metricsAccessor) WriteMultipart(ctx context.Context, path string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	start := time.Now()
	rp, err := a.inner.WriteMultipart(ctx, path, args, r)
	a.record("WriteMultipart", start, args.Size, err)
	return rp, err
}

func (a *metricsAccessor) CompleteMultipart(ctx context.Context, path string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	start := time.Now()
	rp, err := a.inner.CompleteMultipart(ctx, path, args)
	a.record("CompleteMultipart", start, 0, err)
	return rp, err
}

func (a *metricsAccessor) AbortMultipart(ctx context.Context, path string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	start := time.Now()
	rp, err := a.inner.AbortMultipart(ctx, path, args)
	a.record("AbortMultipart", start, 0, err)
	return rp, err
}
