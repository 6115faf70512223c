package operator_test

import (
	"context"
	"testing"

	"github.com/objectfs/objectfs/internal/backend/memory"
	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/operator"
)

func TestWriteAllReadAll(t *testing.T) {
	op := operator.New(memory.New("/"))
	ctx := context.Background()

	if err := op.WriteAll(ctx, "greeting.txt", []byte("hello"), "text/plain"); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	got, err := op.ReadAll(ctx, "greeting.txt")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("ReadAll = %q, want hello", got)
	}
}

func TestWriterClosesToSingleWrite(t *testing.T) {
	op := operator.New(memory.New("/"))
	ctx := context.Background()

	w := op.Writer(ctx, "streamed.txt", "text/plain")
	if _, err := w.Write([]byte("ab")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := w.Write([]byte("cd")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := op.ReadAll(ctx, "streamed.txt")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "abcd" {
		t.Errorf("ReadAll = %q, want abcd", got)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	op := operator.New(memory.New("/"))
	ctx := context.Background()

	if err := op.WriteAll(ctx, "f.txt", []byte("x"), ""); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if err := op.Delete(ctx, "f.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := op.Delete(ctx, "f.txt"); err != nil {
		t.Fatalf("second Delete should also succeed: %v", err)
	}
}

func TestStatIsNotFound(t *testing.T) {
	op := operator.New(memory.New("/"))

	_, err := op.Stat(context.Background(), "missing.txt")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !operator.IsNotFound(err) {
		t.Errorf("IsNotFound(err) = false, want true for %v", err)
	}
}

func TestList(t *testing.T) {
	op := operator.New(memory.New("/"))
	ctx := context.Background()

	if err := op.WriteAll(ctx, "dir/a.txt", []byte("a"), ""); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if err := op.WriteAll(ctx, "dir/b.txt", []byte("b"), ""); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	entries, err := op.List(ctx, "dir")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %v", len(entries), entries)
	}
}

func TestMetadataReflectsAccessor(t *testing.T) {
	op := operator.New(memory.New("/"))
	if op.Metadata().Scheme != access.SchemeMemory {
		t.Errorf("Metadata().Scheme = %v, want %v", op.Metadata().Scheme, access.SchemeMemory)
	}
}
