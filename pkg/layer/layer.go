// Package layer provides the cross-cutting wrapper chain around an
// access.Accessor: concurrency limiting, retry, error-context
// enrichment, logging, metrics, tracing, and an immutable listing
// overlay. Layers compose outside-in: the first Layer passed to
// Operator.Layer becomes the outermost wrapper, matching the order a
// caller's request actually passes through them.
package layer

import "github.com/objectfs/objectfs/pkg/access"

// Layer wraps an Accessor with one cross-cutting concern, returning a new
// Accessor that the next layer (or the caller) sees as if it were the
// backend itself.
type Layer interface {
	Layer(inner access.Accessor) access.Accessor
}

// Chain applies layers in order, with layers[0] ending up outermost: the
// call Chain(inner, a, b) produces a.Layer(b.Layer(inner)), so a request
// enters a, then b, then inner.
func Chain(inner access.Accessor, layers ...Layer) access.Accessor {
	acc := inner
	for i := len(layers) - 1; i >= 0; i-- {
		acc = layers[i].Layer(acc)
	}
	return acc
}

// base embeds an inner Accessor and forwards Metadata unmodified. Layers
// that only need to intercept a handful of methods embed base and
// override the rest, rather than repeating every passthrough method.
type base struct {
	inner access.Accessor
}

func (b base) Metadata() access.AccessorMetadata { return b.inner.Metadata() }
