package layer

import (
	"context"

	"github.com/objectfs/objectfs/internal/circuit"
	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// CircuitBreakerLayer stops calling a backend operation that keeps failing
// with Temporary errors, returning an ObjectRateLimited Temporary error
// immediately instead of piling retries on a dependency that is already
// down. It keeps one
// breaker per operation name, so a failing List doesn't trip Read.
//
// Complements RetryLayer rather than replacing it: retry absorbs a single
// flaky call, the breaker stops the flood once flakiness becomes an
// outage. Compose RetryLayer inside CircuitBreakerLayer so a request that
// does get through still benefits from backoff.
type CircuitBreakerLayer struct {
	Config circuit.Config
}

// NewCircuitBreakerLayer returns a Layer using cfg for every per-operation
// breaker it creates. A zero Config applies circuit's defaults (trip after
// 20 requests with a >=50% failure rate, 60s open period).
func NewCircuitBreakerLayer(cfg circuit.Config) *CircuitBreakerLayer {
	if cfg.IsSuccessful == nil {
		cfg.IsSuccessful = isSuccessful
	}
	return &CircuitBreakerLayer{Config: cfg}
}

// isSuccessful only counts Temporary errors as breaker failures: a
// permanent error like ObjectNotFound reflects the request, not the
// backend's health, and should not move the breaker toward open.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	e, ok := apperrors.As(err)
	if !ok {
		return false
	}
	return !e.IsTemporary()
}

func (l *CircuitBreakerLayer) Layer(inner access.Accessor) access.Accessor {
	return &circuitAccessor{base: base{inner: inner}, breakers: circuit.NewManager(l.Config)}
}

type circuitAccessor struct {
	base
	breakers *circuit.Manager
}

func (a *circuitAccessor) guard(name string, fn func() error) error {
	return a.breakers.GetBreaker(name).Execute(fn)
}

func (a *circuitAccessor) Create(ctx context.Context, path string, args access.OpCreate) (access.RpCreate, error) {
	var rp access.RpCreate
	err := a.guard("Create", func() error {
		var err error
		rp, err = a.inner.Create(ctx, path, args)
		return err
	})
	return rp, unwrapOpenState(err, "Create", path)
}

func (a *circuitAccessor) Read(ctx context.Context, path string, args access.OpRead) (access.RpRead, access.Reader, error) {
	var rp access.RpRead
	var r access.Reader
	err := a.guard("Read", func() error {
		var err error
		rp, r, err = a.inner.Read(ctx, path, args)
		return err
	})
	return rp, r, unwrapOpenState(err, "Read", path)
}

func (a *circuitAccessor) Write(ctx context.Context, path string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	var rp access.RpWrite
	err := a.guard("Write", func() error {
		var err error
		rp, err = a.inner.Write(ctx, path, args, r)
		return err
	})
	return rp, unwrapOpenState(err, "Write", path)
}

func (a *circuitAccessor) Stat(ctx context.Context, path string, args access.OpStat) (access.RpStat, error) {
	var rp access.RpStat
	err := a.guard("Stat", func() error {
		var err error
		rp, err = a.inner.Stat(ctx, path, args)
		return err
	})
	return rp, unwrapOpenState(err, "Stat", path)
}

func (a *circuitAccessor) Delete(ctx context.Context, path string, args access.OpDelete) (access.RpDelete, error) {
	var rp access.RpDelete
	err := a.guard("Delete", func() error {
		var err error
		rp, err = a.inner.Delete(ctx, path, args)
		return err
	})
	return rp, unwrapOpenState(err, "Delete", path)
}

func (a *circuitAccessor) List(ctx context.Context, path string, args access.OpList) (access.RpList, access.Pager, error) {
	var rp access.RpList
	var p access.Pager
	err := a.guard("List", func() error {
		var err error
		rp, p, err = a.inner.List(ctx, path, args)
		return err
	})
	return rp, p, unwrapOpenState(err, "List", path)
}

func (a *circuitAccessor) Presign(ctx context.Context, path string, args access.OpPresign) (access.RpPresign, error) {
	var rp access.RpPresign
	err := a.guard("Presign", func() error {
		var err error
		rp, err = a.inner.Presign(ctx, path, args)
		return err
	})
	return rp, unwrapOpenState(err, "Presign", path)
}

func (a *circuitAccessor) CreateMultipart(ctx context.Context, path string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	var rp access.RpCreateMultipart
	err := a.guard("CreateMultipart", func() error {
		var err error
		rp, err = a.inner.CreateMultipart(ctx, path, args)
		return err
	})
	return rp, unwrapOpenState(err, "CreateMultipart", path)
}

func (a *circuitAccessor) WriteMultipart(ctx context.Context, path string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	return a.inner.WriteMultipart(ctx, path, args, r)
}

func (a *circuitAccessor) CompleteMultipart(ctx context.Context, path string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	var rp access.RpCompleteMultipart
	err := a.guard("CompleteMultipart", func() error {
		var err error
		rp, err = a.inner.CompleteMultipart(ctx, path, args)
		return err
	})
	return rp, unwrapOpenState(err, "CompleteMultipart", path)
}

func (a *circuitAccessor) AbortMultipart(ctx context.Context, path string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	var rp access.RpAbortMultipart
	err := a.guard("AbortMultipart", func() error {
		var err error
		rp, err = a.inner.AbortMultipart(ctx, path, args)
		return err
	})
	return rp, unwrapOpenState(err, "AbortMultipart", path)
}

// unwrapOpenState turns circuit.ErrOpenState into the same *errors.Error
// shape every other failure in this module returns, rather than leaking an
// internal sentinel error to callers comparing against apperrors.Kind.
func unwrapOpenState(err error, operation, path string) error {
	if err != circuit.ErrOpenState && err != circuit.ErrTooManyRequests {
		return err
	}
	return apperrors.New(apperrors.ObjectRateLimited, "circuit breaker open for "+operation).
		WithOperation(operation).
		WithContext("path", path).
		WithTemporary()
}
