// Package ipmfs implements an Accessor over Kubo's Mutable File System
// HTTP RPC API, grounded on original_source/src/services/ipmfs/error.rs
// for its error-classification shape: a 500 response carrying an
// IpfsError JSON body whose Message is "file does not exist" maps to
// ObjectNotFound, while 502/503/504 are retryable. Kubo's RPC API is a
// small bespoke multipart/JSON protocol with no ecosystem Go client in
// the retrieved pack, so this backend talks to it directly over stdlib
// net/http (see DESIGN.md).
package ipmfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// Config holds the settings needed to reach a Kubo RPC endpoint, e.g.
// "http://127.0.0.1:5001".
type Config struct {
	Endpoint string
}

// Backend is an access.Accessor over Kubo's MFS RPC API
// (/api/v0/files/*).
type Backend struct {
	httpClient *http.Client
	endpoint   string
	root       string
}

// NewBackend returns a Backend talking to cfg.Endpoint.
func NewBackend(cfg Config, root string) (*Backend, error) {
	if cfg.Endpoint == "" {
		return nil, apperrors.New(apperrors.BackendConfigInvalid, "ipmfs requires an endpoint").WithOperation("NewBackend")
	}
	return &Backend{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		root:       access.NormalizeRoot(root),
	}, nil
}

func (b *Backend) Metadata() access.AccessorMetadata {
	return access.AccessorMetadata{
		Scheme: access.SchemeIpmfs,
		Root:   b.root,
		Name:   "ipmfs",
		Capabilities: access.Capabilities(0).With(
			access.CapRead, access.CapWrite, access.CapList,
		),
		Hints: access.Hints{ReadIsSeekable: false},
	}
}

func (b *Backend) mfsPath(p string) (string, error) {
	return access.AbsPath(b.root, p)
}

type ipfsError struct {
	Message string `json:"Message"`
	Code    int    `json:"Code"`
	Type    string `json:"Type"`
}

// wrapIpmfs classifies a Kubo RPC error response the way the Rust
// parse_error does: only a 500 with a recognized IpfsError message
// carries semantic meaning, everything else falls back on status code.
func wrapIpmfs(status int, body []byte, operation, p string) error {
	kind := apperrors.Unexpected
	temporary := false

	var ie ipfsError
	hasIe := json.Unmarshal(body, &ie) == nil && ie.Message != ""

	switch status {
	case http.StatusInternalServerError:
		if hasIe && ie.Message == "file does not exist" {
			kind = apperrors.ObjectNotFound
		}
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		temporary = true
	}

	msg := string(body)
	if hasIe {
		msg = fmt.Sprintf("%s (code=%d type=%s)", ie.Message, ie.Code, ie.Type)
	}
	e := apperrors.New(kind, msg).WithOperation(operation).WithContext("path", p)
	if temporary {
		e = e.WithTemporary()
	}
	return e
}

func (b *Backend) call(ctx context.Context, apiPath string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	u := b.endpoint + apiPath
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return b.httpClient.Do(req)
}

func (b *Backend) Create(ctx context.Context, p string, args access.OpCreate) (access.RpCreate, error) {
	mfsPath, err := b.mfsPath(p)
	if err != nil {
		return access.RpCreate{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Create")
	}

	var resp *http.Response
	if args.Mode == access.ModeDir {
		resp, err = b.call(ctx, "/api/v0/files/mkdir", url.Values{"arg": {mfsPath}, "parents": {"true"}}, nil, "")
	} else {
		// files/write with an empty body creates the file at mfsPath.
		resp, err = b.writeBody(ctx, mfsPath, strings.NewReader(""), true)
	}
	if err != nil {
		return access.RpCreate{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Create").WithTemporary()
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return access.RpCreate{}, wrapIpmfs(resp.StatusCode, body, "Create", p)
	}
	return access.RpCreate{}, nil
}

func (b *Backend) writeBody(ctx context.Context, mfsPath string, r io.Reader, create bool) (*http.Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("data", "data")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	q := url.Values{"arg": {mfsPath}, "truncate": {"true"}}
	if create {
		q.Set("create", "true")
	}
	return b.call(ctx, "/api/v0/files/write", q, &buf, mw.FormDataContentType())
}

func (b *Backend) Read(ctx context.Context, p string, args access.OpRead) (access.RpRead, access.Reader, error) {
	mfsPath, err := b.mfsPath(p)
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Read")
	}

	q := url.Values{"arg": {mfsPath}}
	if args.Range.Offset != 0 {
		q.Set("offset", fmt.Sprintf("%d", args.Range.Offset))
	}
	if args.Range.Size != nil {
		q.Set("count", fmt.Sprintf("%d", *args.Range.Size))
	}

	resp, err := b.call(ctx, "/api/v0/files/read", q, nil, "")
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Read").WithTemporary()
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return access.RpRead{}, nil, wrapIpmfs(resp.StatusCode, body, "Read", p)
	}

	return access.RpRead{Size: resp.ContentLength}, resp.Body, nil
}

func (b *Backend) Write(ctx context.Context, p string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	mfsPath, err := b.mfsPath(p)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write")
	}

	counting := &countingReader{inner: r}
	resp, err := b.writeBody(ctx, mfsPath, counting, true)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write").WithTemporary()
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return access.RpWrite{}, wrapIpmfs(resp.StatusCode, body, "Write", p)
	}
	return access.RpWrite{BytesWritten: counting.n}, nil
}

type countingReader struct {
	inner io.Reader
	n     int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.inner.Read(p)
	c.n += int64(n)
	return n, err
}

type statResult struct {
	Size int64  `json:"Size"`
	Type string `json:"Type"`
}

func (b *Backend) Stat(ctx context.Context, p string, args access.OpStat) (access.RpStat, error) {
	mfsPath, err := b.mfsPath(p)
	if err != nil {
		return access.RpStat{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Stat")
	}

	resp, err := b.call(ctx, "/api/v0/files/stat", url.Values{"arg": {mfsPath}}, nil, "")
	if err != nil {
		return access.RpStat{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Stat").WithTemporary()
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return access.RpStat{}, wrapIpmfs(resp.StatusCode, body, "Stat", p)
	}

	var stat statResult
	if err := json.Unmarshal(body, &stat); err != nil {
		return access.RpStat{}, apperrors.New(apperrors.Unexpected, "decoding stat response").WithOperation("Stat").WithSource(err)
	}

	mode := access.ModeFile
	if stat.Type == "directory" {
		mode = access.ModeDir
	}
	return access.RpStat{Metadata: access.ObjectMetadata{
		Mode:          mode,
		ContentLength: stat.Size,
		Complete:      true,
	}}, nil
}

func (b *Backend) Delete(ctx context.Context, p string, args access.OpDelete) (access.RpDelete, error) {
	mfsPath, err := b.mfsPath(p)
	if err != nil {
		return access.RpDelete{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Delete")
	}

	resp, err := b.call(ctx, "/api/v0/files/rm", url.Values{"arg": {mfsPath}, "recursive": {"true"}, "force": {"true"}}, nil, "")
	if err != nil {
		return access.RpDelete{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Delete").WithTemporary()
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		werr := wrapIpmfs(resp.StatusCode, body, "Delete", p)
		if apperrors.Is(werr, apperrors.ObjectNotFound) {
			return access.RpDelete{}, nil
		}
		return access.RpDelete{}, werr
	}
	return access.RpDelete{}, nil
}

type lsEntry struct {
	Name string `json:"Name"`
	Type int    `json:"Type"`
	Size int64  `json:"Size"`
}

type lsResult struct {
	Entries []lsEntry `json:"Entries"`
}

func (b *Backend) List(ctx context.Context, p string, args access.OpList) (access.RpList, access.Pager, error) {
	mfsPath, err := b.mfsPath(p)
	if err != nil {
		return access.RpList{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("List")
	}

	resp, err := b.call(ctx, "/api/v0/files/ls", url.Values{"arg": {mfsPath}, "long": {"true"}}, nil, "")
	if err != nil {
		return access.RpList{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("List").WithTemporary()
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		werr := wrapIpmfs(resp.StatusCode, body, "List", p)
		if apperrors.Is(werr, apperrors.ObjectNotFound) {
			return access.RpList{}, access.NewSlicePager(nil), nil
		}
		return access.RpList{}, nil, werr
	}

	var ls lsResult
	if err := json.Unmarshal(body, &ls); err != nil {
		return access.RpList{}, nil, apperrors.New(apperrors.Unexpected, "decoding ls response").WithOperation("List").WithSource(err)
	}

	trimmed := strings.TrimSuffix(p, "/")
	out := make([]access.ObjectEntry, 0, len(ls.Entries))
	for _, e := range ls.Entries {
		rel := trimmed
		if rel != "" {
			rel += "/"
		}
		rel += e.Name
		mode := access.ModeFile
		if e.Type == 1 { // Kubo's "directory" UnixFS type code
			mode = access.ModeDir
			rel += "/"
		}
		out = append(out, access.ObjectEntry{Path: rel, Metadata: access.ObjectMetadata{
			Mode:          mode,
			ContentLength: e.Size,
			Complete:      false,
		}})
	}

	return access.RpList{}, access.NewSlicePager([][]access.ObjectEntry{out}), nil
}

func (b *Backend) Presign(ctx context.Context, p string, args access.OpPresign) (access.RpPresign, error) {
	return access.RpPresign{}, apperrors.New(apperrors.Unsupported, "ipmfs backend does not support presigning").
		WithOperation("Presign").WithContext("path", p)
}

func (b *Backend) CreateMultipart(ctx context.Context, p string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	return access.RpCreateMultipart{}, apperrors.New(apperrors.Unsupported, "ipmfs backend does not support multipart uploads").
		WithOperation("CreateMultipart").WithContext("path", p)
}

func (b *Backend) WriteMultipart(ctx context.Context, p string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	return access.RpWriteMultipart{}, apperrors.New(apperrors.Unsupported, "ipmfs backend does not support multipart uploads").
		WithOperation("WriteMultipart").WithContext("path", p)
}

func (b *Backend) CompleteMultipart(ctx context.Context, p string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	return access.RpCompleteMultipart{}, apperrors.New(apperrors.Unsupported, "ipmfs backend does not support multipart uploads").
		WithOperation("CompleteMultipart").WithContext("path", p)
}

func (b *Backend) AbortMultipart(ctx context.Context, p string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	return access.RpAbortMultipart{}, apperrors.New(apperrors.Unsupported, "ipmfs backend does not support multipart uploads").
		WithOperation("AbortMultipart").WithContext("path", p)
}
