package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/objectfs/objectfs/internal/backendtest"
	"github.com/objectfs/objectfs/pkg/access"
)

// TestConformance runs the shared backend suite against a real go-redis
// client talking to an in-process miniredis server, the same fake-
// transport approach grafana-tempo uses for its own Redis client tests.
func TestConformance(t *testing.T) {
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(server.Close)

	backendtest.Run(t, func() access.Accessor {
		b, err := NewBackend(Config{Endpoint: server.Addr()}, "/")
		if err != nil {
			t.Fatalf("NewBackend: %v", err)
		}
		t.Cleanup(func() { _ = b.Close() })
		return b
	})
}
