// Package access defines the backend-facing contract every object storage
// backend implements (Accessor), the value types that flow across it
// (operation arguments/results, metadata, capabilities), and the streaming
// abstractions (Reader, Pager) that flow back out. It corresponds to the
// "raw" layer of the access-layer design: callers normally reach it through
// pkg/operator rather than calling an Accessor directly.
package access

import "context"

// Accessor is the uniform backend interface. Every method but Metadata may
// suspend on its context; Metadata is pure and synchronous. Implementations
// must be safe for concurrent use by multiple goroutines.
//
// Every method that fails returns an *errors.Error (see pkg/errors); this
// package does not import pkg/errors to avoid a cycle; backends and layers
// that wrap Accessor are expected to return *errors.Error values through
// the plain `error` return type here.
type Accessor interface {
	// Metadata describes this Accessor instance. It never suspends and
	// never fails.
	Metadata() AccessorMetadata

	// Create makes an empty file or directory. Idempotent: creating an
	// existing entity of the same mode succeeds.
	Create(ctx context.Context, path string, args OpCreate) (RpCreate, error)

	// Read opens a byte source for a half-open range. The returned
	// RpRead.Size must equal the number of bytes the Reader will produce.
	Read(ctx context.Context, path string, args OpRead) (RpRead, Reader, error)

	// Write consumes r fully. Backends may require args.Size up front.
	Write(ctx context.Context, path string, args OpWrite, r Reader) (RpWrite, error)

	// Stat returns ObjectNotFound if path is absent.
	Stat(ctx context.Context, path string, args OpStat) (RpStat, error)

	// Delete is idempotent: deleting a missing object returns success.
	Delete(ctx context.Context, path string, args OpDelete) (RpDelete, error)

	// List enumerates the direct children of a directory path.
	// ObjectNotFound may be mapped to an empty Pager; see each backend's
	// doc comment for which behavior it chose.
	List(ctx context.Context, path string, args OpList) (RpList, Pager, error)

	// Presign produces a time-bounded pre-authenticated URL. Only valid
	// where CapPresign is advertised.
	Presign(ctx context.Context, path string, args OpPresign) (RpPresign, error)

	CreateMultipart(ctx context.Context, path string, args OpCreateMultipart) (RpCreateMultipart, error)
	WriteMultipart(ctx context.Context, path string, args OpWriteMultipart, r Reader) (RpWriteMultipart, error)
	CompleteMultipart(ctx context.Context, path string, args OpCompleteMultipart) (RpCompleteMultipart, error)
	AbortMultipart(ctx context.Context, path string, args OpAbortMultipart) (RpAbortMultipart, error)
}
