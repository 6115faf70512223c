package layer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/objectfs/objectfs/internal/backend/memory"
	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
	"github.com/objectfs/objectfs/pkg/layer"
)

func TestErrorContextLayerAnnotatesNotFound(t *testing.T) {
	acc := layer.NewErrorContextLayer().Layer(memory.New("/"))

	_, err := acc.Stat(context.Background(), "missing.txt", access.OpStat{})
	if err == nil {
		t.Fatal("expected an error for a missing object")
	}

	e, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if e.Operation() != "Stat" {
		t.Errorf("Operation() = %q, want Stat", e.Operation())
	}
	if !strings.Contains(e.Error(), "missing.txt") {
		t.Errorf("Error() = %q, want it to mention the object path", e.Error())
	}
}
