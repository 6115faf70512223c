package access

import "testing"

func TestCapabilitiesHasWith(t *testing.T) {
	caps := Capabilities(0).With(CapRead, CapList)

	if !caps.Has(CapRead) {
		t.Error("expected CapRead to be set")
	}
	if !caps.Has(CapList) {
		t.Error("expected CapList to be set")
	}
	if caps.Has(CapWrite) {
		t.Error("did not expect CapWrite to be set")
	}
	if !caps.Has(CapRead | CapList) {
		t.Error("expected combined mask to be satisfied")
	}
}

func TestCapabilitiesString(t *testing.T) {
	if got := Capabilities(0).String(); got != "(none)" {
		t.Errorf("empty Capabilities.String() = %q, want (none)", got)
	}
	caps := Capabilities(0).With(CapRead, CapWrite)
	if got := caps.String(); got != "Read|Write" {
		t.Errorf("Capabilities.String() = %q, want Read|Write", got)
	}
}

func TestSchemeString(t *testing.T) {
	if SchemeS3.String() != "s3" {
		t.Errorf("SchemeS3.String() = %q, want s3", SchemeS3.String())
	}
}
