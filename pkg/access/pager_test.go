package access

import (
	"context"
	"io"
	"testing"
)

func TestSlicePagerNextPage(t *testing.T) {
	pages := [][]ObjectEntry{
		{{Path: "a"}, {Path: "b"}},
		{{Path: "c"}},
	}
	p := NewSlicePager(pages)
	ctx := context.Background()

	page, err := p.NextPage(ctx)
	if err != nil || len(page) != 2 {
		t.Fatalf("first page = %v, %v", page, err)
	}
	page, err = p.NextPage(ctx)
	if err != nil || len(page) != 1 {
		t.Fatalf("second page = %v, %v", page, err)
	}
	if _, err := p.NextPage(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestCollectAll(t *testing.T) {
	pages := [][]ObjectEntry{
		{{Path: "a"}},
		{{Path: "b"}, {Path: "c"}},
	}
	entries, err := CollectAll(context.Background(), NewSlicePager(pages))
	if err != nil {
		t.Fatalf("CollectAll: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
}
