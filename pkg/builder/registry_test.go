package builder

import (
	"testing"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

type fakeBuilder struct {
	m map[string]string
}

func (b *fakeBuilder) Scheme() access.Scheme { return access.SchemeCustom }

func (b *fakeBuilder) FromMap(m map[string]string) Builder {
	b.m = m
	return b
}

func (b *fakeBuilder) Build() (access.Accessor, error) {
	return nil, nil
}

func TestRegisterAndNew(t *testing.T) {
	Register(access.SchemeCustom, func() Builder { return &fakeBuilder{} })

	b, err := New(access.SchemeCustom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Scheme() != access.SchemeCustom {
		t.Fatalf("Scheme() = %v, want %v", b.Scheme(), access.SchemeCustom)
	}

	found := false
	for _, s := range Schemes() {
		if s == access.SchemeCustom {
			found = true
		}
	}
	if !found {
		t.Error("expected SchemeCustom in Schemes()")
	}
}

func TestNewUnregisteredScheme(t *testing.T) {
	_, err := New(access.Scheme("no-such-scheme"))
	if err == nil {
		t.Fatal("expected error for unregistered scheme")
	}
	if !apperrors.Is(err, apperrors.BackendConfigInvalid) {
		t.Errorf("expected BackendConfigInvalid, got %v", err)
	}
}
