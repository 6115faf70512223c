// Package operator provides the facade callers normally interact with:
// a layered Accessor plus the I/O-shaped convenience methods (Reader,
// Writer) that adapt the raw access.Accessor contract to the standard
// library's io.Reader/io.Writer. Grounded on the teacher's top-level
// filesystem-facing entry points (the object the FUSE layer called into)
// and on the "Operator" facade described throughout SPEC_FULL.md §4.
package operator

import (
	"context"
	"fmt"
	"time"

	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/builder"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
	"github.com/objectfs/objectfs/pkg/layer"
)

// Operator wraps a fully layered Accessor and exposes the spec's
// object-level operations plus io.Reader/io.Writer adapters.
type Operator struct {
	acc access.Accessor
}

// New wraps an already-constructed Accessor directly, with no layers
// applied. Use Layer to add cross-cutting behavior afterward.
func New(acc access.Accessor) *Operator {
	return &Operator{acc: acc}
}

// Create builds an Operator from a registered Builder for scheme,
// configured from a flat options map, mirroring the Rust original's
// Operator::from_map::<Service>(map).
func Create(scheme access.Scheme, options map[string]string) (*Operator, error) {
	b, err := builder.New(scheme)
	if err != nil {
		return nil, err
	}
	acc, err := b.FromMap(options).Build()
	if err != nil {
		return nil, err
	}
	return New(acc), nil
}

// FromEnv builds an Operator from a registered Builder for scheme,
// configured from environment variables.
func FromEnv(scheme access.Scheme) (*Operator, error) {
	b, err := builder.FromEnv(scheme)
	if err != nil {
		return nil, err
	}
	acc, err := b.Build()
	if err != nil {
		return nil, err
	}
	return New(acc), nil
}

// Layer returns a new Operator with layers applied outside-in: the first
// layer given is the outermost wrapper a caller's request passes through.
func (o *Operator) Layer(layers ...layer.Layer) *Operator {
	return &Operator{acc: layer.Chain(o.acc, layers...)}
}

// Accessor exposes the underlying, fully layered Accessor for callers
// that need the raw contract (backend conformance tests, for instance).
func (o *Operator) Accessor() access.Accessor { return o.acc }

// Metadata describes the wrapped Accessor.
func (o *Operator) Metadata() access.AccessorMetadata { return o.acc.Metadata() }

// Create makes an empty file or directory at path.
func (o *Operator) Create(ctx context.Context, path string, mode access.ObjectMode) error {
	_, err := o.acc.Create(ctx, path, access.OpCreate{Mode: mode})
	return err
}

// Stat returns the metadata for path.
func (o *Operator) Stat(ctx context.Context, path string) (access.ObjectMetadata, error) {
	rp, err := o.acc.Stat(ctx, path, access.OpStat{})
	if err != nil {
		return access.ObjectMetadata{}, err
	}
	return rp.Metadata, nil
}

// Delete removes path. Deleting a missing object is not an error.
func (o *Operator) Delete(ctx context.Context, path string) error {
	_, err := o.acc.Delete(ctx, path, access.OpDelete{})
	return err
}

// List enumerates the direct children of path, draining the full Pager.
func (o *Operator) List(ctx context.Context, path string) ([]access.ObjectEntry, error) {
	if err := o.requireCapability(access.CapList, "List"); err != nil {
		return nil, err
	}
	_, pager, err := o.acc.List(ctx, path, access.OpList{})
	if err != nil {
		return nil, err
	}
	defer pager.Close()
	return access.CollectAll(ctx, pager)
}

// Presign produces a time-bounded pre-authenticated URL for path.
func (o *Operator) Presign(ctx context.Context, path string, op access.PresignOperation, expire time.Duration) (access.RpPresign, error) {
	if err := o.requireCapability(access.CapPresign, "Presign"); err != nil {
		return access.RpPresign{}, err
	}
	return o.acc.Presign(ctx, path, access.OpPresign{Op: op, Expire: expire})
}

// requireCapability returns an Unsupported error without ever calling the
// wrapped Accessor when its advertised Capabilities lack want, per the
// facade's duty (spec §4.6/§7) to short-circuit unsupported operations
// rather than let each backend reject them individually.
func (o *Operator) requireCapability(want access.Capability, operation string) error {
	caps := o.acc.Metadata().Capabilities
	if caps.Has(want) {
		return nil
	}
	return apperrors.New(apperrors.Unsupported,
		fmt.Sprintf("%s not supported: scheme %q advertises capabilities %s",
			operation, o.acc.Metadata().Scheme, caps)).
		WithOperation(operation)
}
