package access

import (
	"fmt"
	"time"
)

// ObjectMode is a closed enum distinguishing files from directories.
type ObjectMode int

const (
	ModeUnknown ObjectMode = iota
	ModeFile
	ModeDir
)

func (m ObjectMode) String() string {
	switch m {
	case ModeFile:
		return "file"
	case ModeDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Hints carries backend capability hints that are not booleans on
// Capabilities but still influence how callers should drive an Accessor.
type Hints struct {
	// ReadIsSeekable reports whether Readers returned by this backend
	// support Seek. When false, callers must not type-assert io.Seeker.
	ReadIsSeekable bool
}

// AccessorMetadata describes a backend instance. It is immutable after the
// Accessor is constructed by its Builder.
type AccessorMetadata struct {
	Scheme       Scheme
	Root         string
	Name         string
	Capabilities Capabilities
	Hints        Hints
}

func (m AccessorMetadata) String() string {
	return fmt.Sprintf("%s(root=%s, name=%s, caps=%s)", m.Scheme, m.Root, m.Name, m.Capabilities)
}

// ObjectMetadata is the metadata record returned by Stat and embedded in
// ObjectEntry during listing.
//
// Invariant: when Complete is true, every field the backend is capable of
// producing is populated. When false, the record was inferred during a list
// call and consumers needing authoritative metadata must call Stat.
type ObjectMetadata struct {
	Mode          ObjectMode
	ContentLength int64
	ContentMD5    string
	ContentType   string
	ETag          string
	LastModified  time.Time
	Complete      bool
}

func (m ObjectMetadata) String() string {
	status := "partial"
	if m.Complete {
		status = "complete"
	}
	return fmt.Sprintf("%s(%s, size=%d, etag=%s)", m.Mode, status, m.ContentLength, m.ETag)
}

// ObjectEntry is one result row produced by a Pager.
type ObjectEntry struct {
	Path     string
	Metadata ObjectMetadata
}
