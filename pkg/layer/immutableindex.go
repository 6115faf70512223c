package layer

import (
	"context"
	"sort"
	"strings"

	"github.com/objectfs/objectfs/pkg/access"
)

// ImmutableIndexLayer overlays a precomputed, append-only listing over a
// backend whose native List is expensive, eventually consistent, or
// entirely unsupported (the ghac and ipmfs backends, for example).
// Every other operation passes straight through to the wrapped Accessor;
// only List and the CapList bit in Metadata are served from the index.
// Grounded on the Layer declared as ImmutableIndexLayer in
// original_source/src/layers/mod.rs; its body was filtered out of the
// retrieval pack, so this implementation follows the name and the
// spec's own description of a listing overlay rather than the Rust
// source line for line.
type ImmutableIndexLayer struct {
	Paths []string
}

// NewImmutableIndexLayer builds a layer serving List from a fixed set of
// paths, sorted once up front.
func NewImmutableIndexLayer(paths []string) *ImmutableIndexLayer {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	return &ImmutableIndexLayer{Paths: sorted}
}

func (l *ImmutableIndexLayer) Layer(inner access.Accessor) access.Accessor {
	return &immutableIndexAccessor{base: base{inner: inner}, index: l}
}

type immutableIndexAccessor struct {
	base
	index *ImmutableIndexLayer
}

func (a *immutableIndexAccessor) Metadata() access.AccessorMetadata {
	md := a.inner.Metadata()
	md.Capabilities = md.Capabilities.With(access.CapList)
	return md
}

// List merges the inner accessor's own listing (if it supports one; a
// backend with CapList unset, or one whose call simply fails, just
// contributes nothing) with the direct children of path found in the
// precomputed index, deduplicating by path so a backend that lists
// fine for some prefixes and not others still gets index coverage for
// the rest.
func (a *immutableIndexAccessor) List(ctx context.Context, path string, args access.OpList) (access.RpList, access.Pager, error) {
	prefix := path
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	seen := make(map[string]bool)
	var entries []access.ObjectEntry

	if a.inner.Metadata().Capabilities.Has(access.CapList) {
		if _, innerPager, err := a.inner.List(ctx, path, args); err == nil {
			if inner, err := access.CollectAll(ctx, innerPager); err == nil {
				for _, e := range inner {
					seen[e.Path] = true
					entries = append(entries, e)
				}
			}
		}
	}

	for _, p := range a.index.Paths {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if rest == "" {
			continue
		}
		if idx := strings.Index(rest, "/"); idx >= 0 {
			child := prefix + rest[:idx+1]
			if !seen[child] {
				seen[child] = true
				entries = append(entries, access.ObjectEntry{Path: child, Metadata: access.ObjectMetadata{Mode: access.ModeDir}})
			}
			continue
		}
		if !seen[p] {
			seen[p] = true
			entries = append(entries, access.ObjectEntry{Path: p, Metadata: access.ObjectMetadata{Mode: access.ModeFile}})
		}
	}

	return access.RpList{}, access.NewSlicePager([][]access.ObjectEntry{entries}), nil
}
