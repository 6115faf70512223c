// Package backendtest is a conformance suite shared across
// access.Accessor implementations, grounded on
// grafana-tempo/tempodb/backend/test/backend_test.go's pattern of
// exercising a backend's public contract against fixtures rather than
// its internals. Run drives the Testable Properties every backend must
// satisfy regardless of storage medium: create/read/write round-trip,
// ranged reads, idempotent create/delete, and list containment.
package backendtest

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// Run exercises acc against the shared conformance suite. newAccessor is
// invoked once per sub-test so tests don't share mutated state.
func Run(t *testing.T, newAccessor func() access.Accessor) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newAccessor()) })
	t.Run("RangeRead", func(t *testing.T) { testRangeRead(t, newAccessor()) })
	t.Run("IdempotentDelete", func(t *testing.T) { testIdempotentDelete(t, newAccessor()) })
	t.Run("IdempotentCreate", func(t *testing.T) { testIdempotentCreate(t, newAccessor()) })
	t.Run("StatNotFound", func(t *testing.T) { testStatNotFound(t, newAccessor()) })
	t.Run("ListContainment", func(t *testing.T) { testListContainment(t, newAccessor()) })
}

func testRoundTrip(t *testing.T, acc access.Accessor) {
	ctx := context.Background()
	body := []byte("the quick brown fox jumps over the lazy dog")

	_, err := acc.Write(ctx, "round-trip.txt", access.OpWrite{Size: int64(len(body))}, access.NewBytesReader(body))
	require.NoError(t, err)

	rp, r, err := acc.Read(ctx, "round-trip.txt", access.OpRead{})
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	if rp.Size >= 0 {
		assert.Equal(t, int64(len(body)), rp.Size)
	}

	stat, err := acc.Stat(ctx, "round-trip.txt", access.OpStat{})
	require.NoError(t, err)
	assert.Equal(t, access.ModeFile, stat.Metadata.Mode)
	assert.Equal(t, int64(len(body)), stat.Metadata.ContentLength)
}

func testRangeRead(t *testing.T, acc access.Accessor) {
	ctx := context.Background()
	body := []byte("0123456789abcdef")

	_, err := acc.Write(ctx, "range.txt", access.OpWrite{Size: int64(len(body))}, access.NewBytesReader(body))
	require.NoError(t, err)

	size := int64(4)
	_, r, err := acc.Read(ctx, "range.txt", access.OpRead{Range: access.Range{Offset: 2, Size: &size}})
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(body[2:6], got))
}

func testIdempotentDelete(t *testing.T, acc access.Accessor) {
	ctx := context.Background()

	_, err := acc.Write(ctx, "to-delete.txt", access.OpWrite{}, access.NewBytesReader([]byte("x")))
	require.NoError(t, err)

	_, err = acc.Delete(ctx, "to-delete.txt", access.OpDelete{})
	require.NoError(t, err)

	// Deleting an already-missing object must still succeed.
	_, err = acc.Delete(ctx, "to-delete.txt", access.OpDelete{})
	require.NoError(t, err)

	_, err = acc.Stat(ctx, "to-delete.txt", access.OpStat{})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ObjectNotFound))
}

func testIdempotentCreate(t *testing.T, acc access.Accessor) {
	ctx := context.Background()

	_, err := acc.Create(ctx, "dir", access.OpCreate{Mode: access.ModeDir})
	require.NoError(t, err)

	// Creating the same directory again must still succeed.
	_, err = acc.Create(ctx, "dir", access.OpCreate{Mode: access.ModeDir})
	require.NoError(t, err)
}

func testStatNotFound(t *testing.T, acc access.Accessor) {
	ctx := context.Background()

	_, err := acc.Stat(ctx, "never-written.txt", access.OpStat{})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ObjectNotFound))
}

func testListContainment(t *testing.T, acc access.Accessor) {
	ctx := context.Background()

	_, err := acc.Write(ctx, "list-dir/a.txt", access.OpWrite{}, access.NewBytesReader([]byte("a")))
	require.NoError(t, err)
	_, err = acc.Write(ctx, "list-dir/b.txt", access.OpWrite{}, access.NewBytesReader([]byte("b")))
	require.NoError(t, err)

	_, pager, err := acc.List(ctx, "list-dir", access.OpList{})
	require.NoError(t, err)

	entries, err := access.CollectAll(ctx, pager)
	require.NoError(t, err)

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Path] = true
	}
	assert.True(t, names["list-dir/a.txt"], "expected list-dir/a.txt in %v", entries)
	assert.True(t, names["list-dir/b.txt"], "expected list-dir/b.txt in %v", entries)
}
