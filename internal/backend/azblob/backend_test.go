package azblob

import (
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

// fakeAzure is a minimal stand-in for Azure Blob Storage's REST
// surface, enough to drive container.Client through Put/Get/
// GetProperties/Delete/ListBlobsHierarchy against an httptest.Server
// instead of a live storage account, the same approach tempo's own
// azure backend tests use against Azurite.
type fakeAzure struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeAzure() *fakeAzure {
	return &fakeAzure{blobs: make(map[string][]byte)}
}

func (f *fakeAzure) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(f.handle))
}

func (f *fakeAzure) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("restype") == "container" && r.URL.Query().Get("comp") == "list" {
		f.handleListBlobs(w, r)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/fake-container/")

	switch r.Method {
	case http.MethodPut:
		f.handlePut(w, r, name)
	case http.MethodGet:
		f.handleGet(w, r, name)
	case http.MethodHead:
		f.handleHead(w, name)
	case http.MethodDelete:
		f.handleDelete(w, name)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeAzure) handlePut(w http.ResponseWriter, r *http.Request, name string) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	f.mu.Lock()
	f.blobs[name] = data
	f.mu.Unlock()

	w.Header().Set("ETag", `"fake-etag"`)
	w.Header().Set("Last-Modified", "Mon, 01 Jan 2024 00:00:00 GMT")
	w.WriteHeader(http.StatusCreated)
}

func (f *fakeAzure) handleGet(w http.ResponseWriter, r *http.Request, name string) {
	f.mu.Lock()
	data, ok := f.blobs[name]
	f.mu.Unlock()
	if !ok {
		writeBlobNotFound(w)
		return
	}

	start, end := 0, len(data)
	rng := r.Header.Get("x-ms-range")
	if rng == "" {
		rng = r.Header.Get("Range")
	}
	status := http.StatusOK
	if rng != "" {
		fmt.Sscanf(rng, "bytes=%d-%d", &start, &end)
		end++
		if end > len(data) {
			end = len(data)
		}
		status = http.StatusPartialContent
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", end-start))
	w.Header().Set("ETag", `"fake-etag"`)
	w.Header().Set("Last-Modified", "Mon, 01 Jan 2024 00:00:00 GMT")
	w.WriteHeader(status)
	w.Write(data[start:end])
}

func (f *fakeAzure) handleHead(w http.ResponseWriter, name string) {
	f.mu.Lock()
	data, ok := f.blobs[name]
	f.mu.Unlock()
	if !ok {
		writeBlobNotFound(w)
		return
	}
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Header().Set("ETag", `"fake-etag"`)
	w.Header().Set("Last-Modified", "Mon, 01 Jan 2024 00:00:00 GMT")
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
}

func (f *fakeAzure) handleDelete(w http.ResponseWriter, name string) {
	f.mu.Lock()
	_, ok := f.blobs[name]
	delete(f.blobs, name)
	f.mu.Unlock()
	if !ok {
		writeBlobNotFound(w)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type enumerationResults struct {
	XMLName xml.Name `xml:"EnumerationResults"`
	Blobs   blobsXML `xml:"Blobs"`
}

type blobsXML struct {
	Blob       []blobXML       `xml:"Blob"`
	BlobPrefix []blobPrefixXML `xml:"BlobPrefix"`
}

type blobXML struct {
	Name       string       `xml:"Name"`
	Properties blobPropsXML `xml:"Properties"`
}

type blobPropsXML struct {
	ContentLength int64 `xml:"Content-Length"`
}

type blobPrefixXML struct {
	Name string `xml:"Name"`
}

func (f *fakeAzure) handleListBlobs(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	delimiter := r.URL.Query().Get("delimiter")

	f.mu.Lock()
	defer f.mu.Unlock()

	var result enumerationResults
	seenPrefixes := make(map[string]bool)
	for name, data := range f.blobs {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		if delimiter != "" {
			if idx := strings.Index(rest, delimiter); idx >= 0 {
				sub := prefix + rest[:idx+len(delimiter)]
				if !seenPrefixes[sub] {
					seenPrefixes[sub] = true
					result.Blobs.BlobPrefix = append(result.Blobs.BlobPrefix, blobPrefixXML{Name: sub})
				}
				continue
			}
		}
		result.Blobs.Blob = append(result.Blobs.Blob, blobXML{Name: name, Properties: blobPropsXML{ContentLength: int64(len(data))}})
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(result)
}

func writeBlobNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("x-ms-error-code", "BlobNotFound")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>BlobNotFound</Code><Message>The specified blob does not exist.</Message></Error>`))
}

func TestConformance(t *testing.T) {
	fake := newFakeAzure()
	srv := fake.server()
	t.Cleanup(srv.Close)

	backendtest.Run(t, func() access.Accessor {
		b, err := NewBackend(Config{
			AccountName:   "fakeaccount",
			AccountKey:    "ZmFrZS1hY2NvdW50LWtleQ==",
			ContainerName: "fake-container",
			Endpoint:      srv.URL + "/fake-container",
		}, "/")
		if err != nil {
			t.Fatalf("NewBackend: %v", err)
		}
		return b
	})
}
