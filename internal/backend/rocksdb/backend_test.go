package rocksdb

import (
	"testing"

	"github.com/objectfs/objectfs/internal/backendtest"
	"github.com/objectfs/objectfs/pkg/access"
)

func TestConformance(t *testing.T) {
	backendtest.Run(t, func() access.Accessor {
		dir := t.TempDir()
		b, err := NewBackend(dir, "/")
		if err != nil {
			t.Fatalf("NewBackend: %v", err)
		}
		t.Cleanup(func() { _ = b.Close() })
		return b
	})
}
