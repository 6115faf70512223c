package operator_test

import (
	"context"
	"testing"

	"github.com/objectfs/objectfs/internal/backend/memory"
	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
	"github.com/objectfs/objectfs/pkg/operator"
)

// fakeMultipartAccessor adds an in-memory multipart implementation on top
// of the memory backend (which reports multipart as Unsupported), so
// MultipartUpload's orchestration can be exercised without a real
// network-backed backend.
type fakeMultipartAccessor struct {
	access.Accessor
	parts      map[string][][]byte
	failOnPart int // 0 disables, 1-indexed otherwise
	aborted    bool
}

// Metadata advertises CapMultipart on top of the embedded memory backend's
// capabilities, so the operator facade's capability short-circuit doesn't
// reject calls meant to reach the fake multipart methods below.
func (f *fakeMultipartAccessor) Metadata() access.AccessorMetadata {
	m := f.Accessor.Metadata()
	m.Capabilities = m.Capabilities.With(access.CapMultipart)
	return m
}

func (f *fakeMultipartAccessor) CreateMultipart(ctx context.Context, path string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	f.parts = make(map[string][][]byte)
	return access.RpCreateMultipart{UploadID: "upload-1"}, nil
}

func (f *fakeMultipartAccessor) WriteMultipart(ctx context.Context, path string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	if f.failOnPart == args.PartNumber {
		return access.RpWriteMultipart{}, apperrors.New(apperrors.Unexpected, "injected part failure").WithOperation("WriteMultipart")
	}
	data := make([]byte, args.Size)
	_, _ = r.Read(data)
	f.parts[args.UploadID] = append(f.parts[args.UploadID], data)
	return access.RpWriteMultipart{ETag: "etag"}, nil
}

func (f *fakeMultipartAccessor) CompleteMultipart(ctx context.Context, path string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	return access.RpCompleteMultipart{}, nil
}

func (f *fakeMultipartAccessor) AbortMultipart(ctx context.Context, path string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	f.aborted = true
	return access.RpAbortMultipart{}, nil
}

func TestMultipartUploadSucceeds(t *testing.T) {
	fake := &fakeMultipartAccessor{Accessor: memory.New("/")}
	op := operator.New(fake)

	err := op.MultipartUpload(context.Background(), "big.bin", "application/octet-stream", [][]byte{
		[]byte("part-one"), []byte("part-two"),
	})
	if err != nil {
		t.Fatalf("MultipartUpload: %v", err)
	}
	if fake.aborted {
		t.Error("did not expect an abort on a successful upload")
	}
}

func TestMultipartUploadAbortsOnPartFailure(t *testing.T) {
	fake := &fakeMultipartAccessor{Accessor: memory.New("/"), failOnPart: 2}
	op := operator.New(fake)

	err := op.MultipartUpload(context.Background(), "big.bin", "application/octet-stream", [][]byte{
		[]byte("part-one"), []byte("part-two"),
	})
	if err == nil {
		t.Fatal("expected the injected part failure to surface")
	}
	if !fake.aborted {
		t.Error("expected MultipartUpload to abort the upload on part failure")
	}
}

func TestObjectHandleDelegatesToOperator(t *testing.T) {
	op := operator.New(memory.New("/"))
	ctx := context.Background()
	obj := op.Object("config.json")

	if obj.Path() != "config.json" {
		t.Fatalf("Path() = %q, want config.json", obj.Path())
	}

	if err := obj.Write(ctx, []byte(`{"ok":true}`), "application/json"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := obj.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Errorf("ReadAll = %q, want {\"ok\":true}", got)
	}

	meta, err := obj.Stat(ctx)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if meta.ContentLength != int64(len(got)) {
		t.Errorf("Stat ContentLength = %d, want %d", meta.ContentLength, len(got))
	}

	if err := obj.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := obj.Stat(ctx); !apperrors.Is(err, apperrors.ObjectNotFound) {
		t.Errorf("expected ObjectNotFound after Delete, got %v", err)
	}
}

func TestObjectHandleList(t *testing.T) {
	op := operator.New(memory.New("/"))
	ctx := context.Background()

	if err := op.WriteAll(ctx, "dir/a.txt", []byte("a"), ""); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if err := op.WriteAll(ctx, "dir/b.txt", []byte("b"), ""); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	entries, err := op.Object("dir").List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries, want 2: %v", len(entries), entries)
	}
}
