package s3

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/objectfs/objectfs/internal/backendtest"
	"github.com/objectfs/objectfs/pkg/access"
)

// fakeS3 is a minimal path-style S3 stand-in, just enough XML/REST
// surface for aws-sdk-go-v2 to round-trip PutObject/GetObject/
// HeadObject/DeleteObject/ListObjectsV2 against, the way grafana-tempo's
// own s3_test.go drives its client against an httptest.Server rather
// than live AWS.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: make(map[string][]byte)}
}

func (f *fakeS3) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(f.handle))
}

// prefix strips the leading "/<bucket>/" path-style prefix to recover
// the object key.
func (f *fakeS3) stripPrefix(urlPath string) (string, bool) {
	p := strings.TrimPrefix(urlPath, "/"+f.bucket+"/")
	if p == urlPath {
		return "", false
	}
	return p, true
}

func (f *fakeS3) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/"+f.bucket && r.URL.Query().Get("list-type") == "2" {
		f.handleList(w, r)
		return
	}

	key, ok := f.stripPrefix(r.URL.Path)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPut:
		f.handlePut(w, r, key)
	case http.MethodGet:
		f.handleGet(w, r, key)
	case http.MethodHead:
		f.handleHead(w, key)
	case http.MethodDelete:
		f.handleDelete(w, key)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) handlePut(w http.ResponseWriter, r *http.Request, key string) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	f.mu.Lock()
	f.objects[key] = data
	f.mu.Unlock()

	w.Header().Set("ETag", `"fake-etag"`)
	w.WriteHeader(http.StatusOK)
}

func (f *fakeS3) handleGet(w http.ResponseWriter, r *http.Request, key string) {
	f.mu.Lock()
	data, ok := f.objects[key]
	f.mu.Unlock()
	if !ok {
		writeNoSuchKey(w, key)
		return
	}

	start, end := 0, len(data)
	if rng := r.Header.Get("Range"); rng != "" {
		fmt.Sscanf(rng, "bytes=%d-%d", &start, &end)
		end++
		if end > len(data) {
			end = len(data)
		}
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", end-start))
	w.WriteHeader(http.StatusOK)
	w.Write(data[start:end])
}

func (f *fakeS3) handleHead(w http.ResponseWriter, key string) {
	f.mu.Lock()
	data, ok := f.objects[key]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Header().Set("ETag", `"fake-etag"`)
	w.WriteHeader(http.StatusOK)
}

func (f *fakeS3) handleDelete(w http.ResponseWriter, key string) {
	f.mu.Lock()
	delete(f.objects, key)
	f.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

type listObjectsXML struct {
	XMLName        xml.Name `xml:"ListBucketResult"`
	Name           string   `xml:"Name"`
	Prefix         string   `xml:"Prefix"`
	IsTruncated    bool     `xml:"IsTruncated"`
	Contents       []xmlObject
	CommonPrefixes []xmlCommonPrefix `xml:"CommonPrefixes"`
}

type xmlObject struct {
	Key  string `xml:"Key"`
	Size int64  `xml:"Size"`
	ETag string `xml:"ETag"`
}

type xmlCommonPrefix struct {
	Prefix string `xml:"Prefix"`
}

func (f *fakeS3) handleList(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	f.mu.Lock()
	defer f.mu.Unlock()

	result := listObjectsXML{Name: f.bucket, Prefix: prefix}
	seenDirs := make(map[string]bool)
	for key, data := range f.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			dir := prefix + rest[:idx+1]
			if !seenDirs[dir] {
				seenDirs[dir] = true
				result.CommonPrefixes = append(result.CommonPrefixes, xmlCommonPrefix{Prefix: dir})
			}
			continue
		}
		result.Contents = append(result.Contents, xmlObject{Key: key, Size: int64(len(data)), ETag: `"fake-etag"`})
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(result)
}

func writeNoSuchKey(w http.ResponseWriter, key string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>%s</Key></Error>`, key)
}

func TestConformance(t *testing.T) {
	fake := newFakeS3("test-bucket")
	srv := fake.server()
	t.Cleanup(srv.Close)

	backendtest.Run(t, func() access.Accessor {
		b, err := NewBackend(context.Background(), "test-bucket", "/", Config{
			Region:          "us-east-1",
			Endpoint:        srv.URL,
			ForcePathStyle:  true,
			AccessKeyID:     "test-access-key",
			SecretAccessKey: "test-secret-key",
		})
		if err != nil {
			t.Fatalf("NewBackend: %v", err)
		}
		return b
	})
}
