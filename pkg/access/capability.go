package access

// Capability is a single feature flag a backend may advertise.
type Capability uint32

const (
	CapRead Capability = 1 << iota
	CapWrite
	CapList
	CapPresign
	CapMultipart
	CapBlocking
)

// Capabilities is a bitset of Capability flags.
type Capabilities uint32

// Has reports whether every flag in want is set.
func (c Capabilities) Has(want Capability) bool {
	return uint32(c)&uint32(want) == uint32(want)
}

// With returns a copy of c with the given flags set.
func (c Capabilities) With(flags ...Capability) Capabilities {
	for _, f := range flags {
		c |= Capabilities(f)
	}
	return c
}

func (c Capabilities) String() string {
	names := []struct {
		flag Capability
		name string
	}{
		{CapRead, "Read"},
		{CapWrite, "Write"},
		{CapList, "List"},
		{CapPresign, "Presign"},
		{CapMultipart, "Multipart"},
		{CapBlocking, "Blocking"},
	}
	out := ""
	for _, n := range names {
		if c.Has(n.flag) {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "(none)"
	}
	return out
}
