package ipmfs

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/objectfs/objectfs/internal/backendtest"
	"github.com/objectfs/objectfs/pkg/access"
)

// fakeKubo is a minimal stand-in for Kubo's MFS RPC API
// (/api/v0/files/*), enough to drive a Backend through the full
// create/read/write/stat/rm/ls surface the way a real node would.
type fakeKubo struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
}

func newFakeKubo() *fakeKubo {
	return &fakeKubo{
		files: make(map[string][]byte),
		dirs:  map[string]bool{"/": true},
	}
}

func (f *fakeKubo) mkdirParents(p string) {
	for d := path.Dir(p); d != "/" && d != "."; d = path.Dir(d) {
		f.dirs[d] = true
	}
	f.dirs["/"] = true
}

func (f *fakeKubo) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/files/mkdir", f.handleMkdir)
	mux.HandleFunc("/api/v0/files/write", f.handleWrite)
	mux.HandleFunc("/api/v0/files/read", f.handleRead)
	mux.HandleFunc("/api/v0/files/stat", f.handleStat)
	mux.HandleFunc("/api/v0/files/rm", f.handleRm)
	mux.HandleFunc("/api/v0/files/ls", f.handleLs)
	return httptest.NewServer(mux)
}

func writeIpfsError(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusInternalServerError)
	b, _ := json.Marshal(map[string]interface{}{"Message": msg, "Code": 0, "Type": "error"})
	w.Write(b)
}

func (f *fakeKubo) handleMkdir(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("arg")
	f.mu.Lock()
	f.dirs[p] = true
	f.mkdirParents(p)
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeKubo) handleWrite(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("arg")
	mr, err := r.MultipartReader()
	if err != nil {
		writeIpfsError(w, err.Error())
		return
	}
	part, err := mr.NextPart()
	if err != nil {
		writeIpfsError(w, err.Error())
		return
	}
	data, err := io.ReadAll(part)
	if err != nil {
		writeIpfsError(w, err.Error())
		return
	}

	f.mu.Lock()
	f.files[p] = data
	f.mkdirParents(p)
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeKubo) handleRead(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("arg")

	f.mu.Lock()
	data, ok := f.files[p]
	f.mu.Unlock()
	if !ok {
		writeIpfsError(w, "file does not exist")
		return
	}

	offset := int64(0)
	if s := r.URL.Query().Get("offset"); s != "" {
		offset, _ = strconv.ParseInt(s, 10, 64)
	}
	end := int64(len(data))
	if s := r.URL.Query().Get("count"); s != "" {
		count, _ := strconv.ParseInt(s, 10, 64)
		if offset+count < end {
			end = offset + count
		}
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	if end > int64(len(data)) {
		end = int64(len(data))
	}

	w.WriteHeader(http.StatusOK)
	w.Write(data[offset:end])
}

func (f *fakeKubo) handleStat(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("arg")

	f.mu.Lock()
	data, isFile := f.files[p]
	_, isDir := f.dirs[p]
	f.mu.Unlock()

	if !isFile && !isDir {
		writeIpfsError(w, "file does not exist")
		return
	}

	typ := "file"
	size := int64(len(data))
	if isDir && !isFile {
		typ = "directory"
		size = 0
	}
	resp, _ := json.Marshal(map[string]interface{}{"Size": size, "Type": typ})
	w.Header().Set("Content-Type", "application/json")
	w.Write(resp)
}

func (f *fakeKubo) handleRm(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("arg")
	f.mu.Lock()
	delete(f.files, p)
	delete(f.dirs, p)
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeKubo) handleLs(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("arg")
	prefix := strings.TrimSuffix(p, "/") + "/"

	f.mu.Lock()
	defer f.mu.Unlock()

	type entry struct {
		Name string `json:"Name"`
		Type int    `json:"Type"`
		Size int64  `json:"Size"`
	}
	var entries []entry
	seen := make(map[string]bool)
	for fp, data := range f.files {
		if !strings.HasPrefix(fp, prefix) {
			continue
		}
		rest := strings.TrimPrefix(fp, prefix)
		if strings.Contains(rest, "/") || seen[rest] {
			continue
		}
		seen[rest] = true
		entries = append(entries, entry{Name: rest, Type: 2, Size: int64(len(data))})
	}
	for d := range f.dirs {
		if d == p || !strings.HasPrefix(d, prefix) {
			continue
		}
		rest := strings.TrimPrefix(d, prefix)
		if strings.Contains(rest, "/") || seen[rest] {
			continue
		}
		seen[rest] = true
		entries = append(entries, entry{Name: rest, Type: 1})
	}

	resp, _ := json.Marshal(map[string]interface{}{"Entries": entries})
	w.Header().Set("Content-Type", "application/json")
	w.Write(resp)
}

func TestConformance(t *testing.T) {
	fake := newFakeKubo()
	srv := fake.server()
	t.Cleanup(srv.Close)

	backendtest.Run(t, func() access.Accessor {
		b, err := NewBackend(Config{Endpoint: srv.URL}, "/")
		if err != nil {
			t.Fatalf("NewBackend: %v", err)
		}
		return b
	})
}
