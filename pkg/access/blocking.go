package access

import "context"

// Blocking adapts an Accessor to a context-free, synchronous call style for
// callers that don't want to thread a context through every call site. It
// does not drive its own runtime: Go's goroutines already give every
// Accessor both a blocking and a concurrent calling convention, so Blocking
// is a thin convenience wrapper around context.Background(), not a second
// implementation of the contract (see SPEC_FULL.md §1 for the reasoning).
//
// Backends that are inherently synchronous (the fs and rocksdb backends,
// for example) are never forced through any async scheduling overhead by
// this wrapper: their Accessor methods run the same code whether called
// directly or through Blocking.
type Blocking struct {
	Inner Accessor
}

func (b Blocking) Create(path string, args OpCreate) (RpCreate, error) {
	return b.Inner.Create(context.Background(), path, args)
}

func (b Blocking) Read(path string, args OpRead) (RpRead, Reader, error) {
	return b.Inner.Read(context.Background(), path, args)
}

func (b Blocking) Write(path string, args OpWrite, r Reader) (RpWrite, error) {
	return b.Inner.Write(context.Background(), path, args, r)
}

func (b Blocking) Stat(path string, args OpStat) (RpStat, error) {
	return b.Inner.Stat(context.Background(), path, args)
}

func (b Blocking) Delete(path string, args OpDelete) (RpDelete, error) {
	return b.Inner.Delete(context.Background(), path, args)
}

func (b Blocking) List(path string, args OpList) (RpList, Pager, error) {
	return b.Inner.List(context.Background(), path, args)
}
