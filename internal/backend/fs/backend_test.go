package fs

import (
	"testing"

	"github.com/objectfs/objectfs/internal/backendtest"
	"github.com/objectfs/objectfs/pkg/access"
)

func TestConformance(t *testing.T) {
	backendtest.Run(t, func() access.Accessor {
		return New(t.TempDir(), "/")
	})
}
