package layer_test

import (
	"context"
	"testing"
	"time"

	"github.com/objectfs/objectfs/internal/backend/memory"
	"github.com/objectfs/objectfs/internal/circuit"
	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
	"github.com/objectfs/objectfs/pkg/layer"
)

// failingAccessor always returns a Temporary Unexpected error from Stat,
// so a CircuitBreakerLayer wrapping it has something to trip on.
type failingAccessor struct {
	access.Accessor
	calls int
}

func (f *failingAccessor) Stat(ctx context.Context, path string, args access.OpStat) (access.RpStat, error) {
	f.calls++
	return access.RpStat{}, apperrors.New(apperrors.Unexpected, "backend down").WithOperation("Stat").WithTemporary()
}

func TestCircuitBreakerLayerOpensAfterFailures(t *testing.T) {
	inner := &failingAccessor{Accessor: memory.New("/")}
	cfg := circuit.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts circuit.Counts) bool { return counts.ConsecutiveFailures >= 2 },
	}
	acc := layer.NewCircuitBreakerLayer(cfg).Layer(inner)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := acc.Stat(ctx, "f.txt", access.OpStat{}); err == nil {
			t.Fatal("expected the injected failure to surface")
		}
	}

	callsBeforeOpen := inner.calls
	_, err := acc.Stat(ctx, "f.txt", access.OpStat{})
	if err == nil {
		t.Fatal("expected an error once the breaker is open")
	}
	e, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if !apperrors.Is(err, apperrors.ObjectRateLimited) {
		t.Errorf("Kind() = %v, want ObjectRateLimited", e.Kind())
	}
	if inner.calls != callsBeforeOpen {
		t.Errorf("inner Stat was called again after the breaker opened: %d -> %d", callsBeforeOpen, inner.calls)
	}
}

func TestCircuitBreakerLayerPassesThroughSuccess(t *testing.T) {
	inner := memory.New("/")
	acc := layer.NewCircuitBreakerLayer(circuit.Config{}).Layer(inner)
	ctx := context.Background()

	if _, err := acc.Write(ctx, "f.txt", access.OpWrite{}, access.NewBytesReader([]byte("x"))); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := acc.Stat(ctx, "f.txt", access.OpStat{}); err != nil {
		t.Fatalf("Stat: %v", err)
	}
}
