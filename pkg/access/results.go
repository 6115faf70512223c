package access

// RpCreate is the postcondition of a successful Create call.
type RpCreate struct{}

// RpRead is the postcondition of a successful Read call. Size must equal
// the number of bytes the returned Reader will produce.
type RpRead struct {
	Size int64
}

// RpWrite is the postcondition of a successful Write call.
type RpWrite struct {
	BytesWritten int64
}

// RpStat is the postcondition of a successful Stat call.
type RpStat struct {
	Metadata ObjectMetadata
}

// RpDelete is the postcondition of a successful Delete call.
type RpDelete struct{}

// RpList is the postcondition of a successful List call.
type RpList struct{}

// RpPresign is the postcondition of a successful Presign call.
type RpPresign struct {
	Method  string
	URI     string
	Headers map[string]string
}

// RpCreateMultipart is the postcondition of CreateMultipart.
type RpCreateMultipart struct {
	UploadID string
}

// RpWriteMultipart is the postcondition of WriteMultipart.
type RpWriteMultipart struct {
	ETag string
}

// RpCompleteMultipart is the postcondition of CompleteMultipart.
type RpCompleteMultipart struct {
	ETag string
}

// RpAbortMultipart is the postcondition of AbortMultipart.
type RpAbortMultipart struct{}
