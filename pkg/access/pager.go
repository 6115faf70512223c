package access

import (
	"context"
	"io"
)

// Pager yields pages of ObjectEntry produced by a List call. NextPage
// returns io.EOF once the backend signals no continuation; ordering across
// pages (and within a page, across backends) is not guaranteed.
//
// Continuation state is internal to the implementation; callers only ever
// call NextPage until it returns io.EOF or an error.
type Pager interface {
	NextPage(ctx context.Context) ([]ObjectEntry, error)
	Close() error
}

// SlicePager is a Pager over a precomputed, already-paginated slice of
// pages. It is the backbone every in-process backend (memory, fs,
// ImmutableIndex) builds its Pager from.
type SlicePager struct {
	pages [][]ObjectEntry
	pos   int
}

// NewSlicePager returns a Pager over pages, a slice of pages, each
// themselves a slice of entries, already split to the caller's page size.
func NewSlicePager(pages [][]ObjectEntry) *SlicePager {
	return &SlicePager{pages: pages}
}

func (p *SlicePager) NextPage(ctx context.Context) ([]ObjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.pos >= len(p.pages) {
		return nil, io.EOF
	}
	page := p.pages[p.pos]
	p.pos++
	return page, nil
}

func (p *SlicePager) Close() error { return nil }

// CollectAll drains a Pager to completion, concatenating every page. It is
// a convenience for callers and tests that don't need to stream.
func CollectAll(ctx context.Context, p Pager) ([]ObjectEntry, error) {
	var out []ObjectEntry
	for {
		page, err := p.NextPage(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, page...)
	}
}
