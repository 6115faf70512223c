package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/objectfs/objectfs/pkg/access"
)

func TestFromYAML(t *testing.T) {
	Register(access.SchemeCustom, func() Builder { return &fakeBuilder{} })

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "backends:\n  primary:\n    scheme: custom\n    options:\n      root: /data\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}

	b, err := FromYAML(path, "primary")
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	fb, ok := b.(*fakeBuilder)
	if !ok {
		t.Fatalf("expected *fakeBuilder, got %T", b)
	}
	if fb.m["root"] != "/data" {
		t.Errorf("root option = %q, want /data", fb.m["root"])
	}
}

func TestFromYAMLMissingBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("backends:\n  primary:\n    scheme: custom\n"), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}

	if _, err := FromYAML(path, "missing"); err == nil {
		t.Fatal("expected error for missing backend name")
	}
}
