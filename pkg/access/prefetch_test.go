package access

import (
	"context"
	"errors"
	"testing"
)

// fakeListAccessor implements just enough of Accessor for FanOutList's
// tests: List over a fixed, in-memory directory map. Every other method
// panics via the nil embedded Accessor if called, which none of these
// tests do.
type fakeListAccessor struct {
	Accessor
	dirs   map[string][]ObjectEntry
	failOn string
}

func (f *fakeListAccessor) List(ctx context.Context, path string, args OpList) (RpList, Pager, error) {
	if path == f.failOn {
		return RpList{}, nil, errors.New("injected list failure")
	}
	return RpList{}, NewSlicePager([][]ObjectEntry{f.dirs[path]}), nil
}

func TestFanOutListCollectsEveryPath(t *testing.T) {
	acc := &fakeListAccessor{dirs: map[string][]ObjectEntry{
		"a": {{Path: "a/1"}, {Path: "a/2"}},
		"b": {{Path: "b/1"}},
		"c": {},
	}}

	got, err := FanOutList(context.Background(), acc, []string{"a", "b", "c"}, 2)
	if err != nil {
		t.Fatalf("FanOutList: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d paths, want 3: %v", len(got), got)
	}
	if len(got["a"]) != 2 || len(got["b"]) != 1 || len(got["c"]) != 0 {
		t.Errorf("unexpected entry counts: %v", got)
	}
}

func TestFanOutListPropagatesFailure(t *testing.T) {
	acc := &fakeListAccessor{
		dirs:   map[string][]ObjectEntry{"a": {{Path: "a/1"}}},
		failOn: "b",
	}

	if _, err := FanOutList(context.Background(), acc, []string{"a", "b"}, 2); err == nil {
		t.Fatal("expected the failing path's error to surface")
	}
}

func TestFanOutListDefaultsConcurrency(t *testing.T) {
	acc := &fakeListAccessor{dirs: map[string][]ObjectEntry{"a": {{Path: "a/1"}}}}

	got, err := FanOutList(context.Background(), acc, []string{"a"}, 0)
	if err != nil {
		t.Fatalf("FanOutList: %v", err)
	}
	if len(got["a"]) != 1 {
		t.Errorf("got %v, want one entry under a", got)
	}
}
