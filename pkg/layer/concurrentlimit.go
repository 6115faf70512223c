package layer

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/objectfs/objectfs/pkg/access"
)

// ConcurrentLimitLayer bounds the number of in-flight operations against
// the wrapped Accessor. Read and List acquire their permit for the
// lifetime of the returned Reader/Pager (released on Close), exactly
// mirroring the owned-permit pattern the Rust original holds via
// OwnedSemaphorePermit; every other operation acquires and releases
// around a single call.
type ConcurrentLimitLayer struct {
	Permits int64
}

// NewConcurrentLimitLayer returns a Layer allowing at most permits
// concurrent operations against the wrapped Accessor.
func NewConcurrentLimitLayer(permits int64) *ConcurrentLimitLayer {
	return &ConcurrentLimitLayer{Permits: permits}
}

func (l *ConcurrentLimitLayer) Layer(inner access.Accessor) access.Accessor {
	return &concurrentLimitAccessor{
		base: base{inner: inner},
		sem:  semaphore.NewWeighted(l.Permits),
	}
}

type concurrentLimitAccessor struct {
	base
	sem *semaphore.Weighted
}

func (a *concurrentLimitAccessor) Create(ctx context.Context, path string, args access.OpCreate) (access.RpCreate, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return access.RpCreate{}, err
	}
	defer a.sem.Release(1)
	return a.inner.Create(ctx, path, args)
}

func (a *concurrentLimitAccessor) Read(ctx context.Context, path string, args access.OpRead) (access.RpRead, access.Reader, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return access.RpRead{}, nil, err
	}
	rp, r, err := a.inner.Read(ctx, path, args)
	if err != nil {
		a.sem.Release(1)
		return rp, nil, err
	}
	return rp, wrapConcurrentLimitReader(r, a.sem), nil
}

func (a *concurrentLimitAccessor) Write(ctx context.Context, path string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return access.RpWrite{}, err
	}
	defer a.sem.Release(1)
	return a.inner.Write(ctx, path, args, r)
}

func (a *concurrentLimitAccessor) Stat(ctx context.Context, path string, args access.OpStat) (access.RpStat, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return access.RpStat{}, err
	}
	defer a.sem.Release(1)
	return a.inner.Stat(ctx, path, args)
}

func (a *concurrentLimitAccessor) Delete(ctx context.Context, path string, args access.OpDelete) (access.RpDelete, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return access.RpDelete{}, err
	}
	defer a.sem.Release(1)
	return a.inner.Delete(ctx, path, args)
}

func (a *concurrentLimitAccessor) List(ctx context.Context, path string, args access.OpList) (access.RpList, access.Pager, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return access.RpList{}, nil, err
	}
	rp, p, err := a.inner.List(ctx, path, args)
	if err != nil {
		a.sem.Release(1)
		return rp, nil, err
	}
	return rp, &concurrentLimitPager{inner: p, sem: a.sem}, nil
}

func (a *concurrentLimitAccessor) Presign(ctx context.Context, path string, args access.OpPresign) (access.RpPresign, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return access.RpPresign{}, err
	}
	defer a.sem.Release(1)
	return a.inner.Presign(ctx, path, args)
}

func (a *concurrentLimitAccessor) CreateMultipart(ctx context.Context, path string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return access.RpCreateMultipart{}, err
	}
	defer a.sem.Release(1)
	return a.inner.CreateMultipart(ctx, path, args)
}

func (a *concurrentLimitAccessor) WriteMultipart(ctx context.Context, path string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return access.RpWriteMultipart{}, err
	}
	defer a.sem.Release(1)
	return a.inner.WriteMultipart(ctx, path, args, r)
}

func (a *concurrentLimitAccessor) CompleteMultipart(ctx context.Context, path string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return access.RpCompleteMultipart{}, err
	}
	defer a.sem.Release(1)
	return a.inner.CompleteMultipart(ctx, path, args)
}

func (a *concurrentLimitAccessor) AbortMultipart(ctx context.Context, path string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return access.RpAbortMultipart{}, err
	}
	defer a.sem.Release(1)
	return a.inner.AbortMultipart(ctx, path, args)
}

// concurrentLimitReader holds its semaphore permit until Close, the same
// lifetime the owned permit has in the Rust original.
type concurrentLimitReader struct {
	inner access.Reader
	sem   *semaphore.Weighted
}

func (r *concurrentLimitReader) Read(p []byte) (int, error) { return r.inner.Read(p) }

func (r *concurrentLimitReader) Close() error {
	err := r.inner.Close()
	r.sem.Release(1)
	return err
}

// concurrentLimitSeekableReader additionally forwards Seek, so a caller
// that type-asserts the wrapped Reader to access.SeekableReader still
// finds the capability the inner Reader advertised.
type concurrentLimitSeekableReader struct {
	concurrentLimitReader
	seeker access.SeekableReader
}

func (r *concurrentLimitSeekableReader) Seek(offset int64, whence int) (int64, error) {
	return r.seeker.Seek(offset, whence)
}

// concurrentLimitChunkReader additionally forwards Next, so a caller that
// type-asserts the wrapped Reader to access.ChunkReader still finds the
// capability the inner Reader advertised.
type concurrentLimitChunkReader struct {
	concurrentLimitReader
	chunker access.ChunkReader
}

func (r *concurrentLimitChunkReader) Next() ([]byte, error) { return r.chunker.Next() }

// wrapConcurrentLimitReader preserves whichever optional Reader
// capabilities inner implements (SeekableReader, ChunkReader) on the
// permit-holding wrapper, since layers above this one probe for those
// capabilities with a type assertion.
func wrapConcurrentLimitReader(inner access.Reader, sem *semaphore.Weighted) access.Reader {
	base := concurrentLimitReader{inner: inner, sem: sem}
	switch rdr := inner.(type) {
	case access.SeekableReader:
		return &concurrentLimitSeekableReader{concurrentLimitReader: base, seeker: rdr}
	case access.ChunkReader:
		return &concurrentLimitChunkReader{concurrentLimitReader: base, chunker: rdr}
	default:
		return &base
	}
}

type concurrentLimitPager struct {
	inner access.Pager
	sem   *semaphore.Weighted
}

func (p *concurrentLimitPager) NextPage(ctx context.Context) ([]access.ObjectEntry, error) {
	return p.inner.NextPage(ctx)
}

func (p *concurrentLimitPager) Close() error {
	err := p.inner.Close()
	p.sem.Release(1)
	return err
}
