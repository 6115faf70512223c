// Package ghac implements an Accessor over the GitHub Actions Cache
// REST API, grounded on original_source/src/services/ghac/error.rs for
// the HTTP-status-to-Kind mapping (404/204 not-found, 409 conflict,
// 403 permission-denied, 429 rate-limited-and-retryable, 5xx
// retryable). The Actions Cache service has no ecosystem Go client in
// the retrieved pack and speaks a small bespoke JSON protocol, so this
// backend talks to it directly over stdlib net/http (see DESIGN.md).
package ghac

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// Config holds the settings needed to reach the Actions Cache service.
// Endpoint and Token mirror the ACTIONS_CACHE_URL/ACTIONS_RUNTIME_TOKEN
// environment variables GitHub injects into workflow runs.
type Config struct {
	Endpoint string
	Token    string
	Version  string
}

// Backend is an access.Accessor over the GitHub Actions Cache REST
// API. Objects are addressed by cache key; there is no hierarchical
// namespace, and List always returns an empty pager.
type Backend struct {
	httpClient *http.Client
	endpoint   string
	token      string
	version    string
	root       string
}

// NewBackend returns a Backend talking to cfg.Endpoint.
func NewBackend(cfg Config, root string) (*Backend, error) {
	if cfg.Endpoint == "" {
		return nil, apperrors.New(apperrors.BackendConfigInvalid, "ghac requires an endpoint").WithOperation("NewBackend")
	}
	version := cfg.Version
	if version == "" {
		version = "06d2ba6"
	}
	return &Backend{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		token:      cfg.Token,
		version:    version,
		root:       access.NormalizeRoot(root),
	}, nil
}

func (b *Backend) Metadata() access.AccessorMetadata {
	return access.AccessorMetadata{
		Scheme: access.SchemeGhac,
		Root:   b.root,
		Name:   "ghac",
		Capabilities: access.Capabilities(0).With(
			access.CapRead, access.CapWrite, access.CapList,
		),
		Hints: access.Hints{ReadIsSeekable: false},
	}
}

func (b *Backend) cacheKey(p string) (string, error) {
	abs, err := access.AbsPath(b.root, p)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(abs, "/"), nil
}

func (b *Backend) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.endpoint+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
	req.Header.Set("Accept", "application/json;api-version="+b.version)
	return req, nil
}

// wrapGhac classifies an Actions Cache HTTP response the way the Rust
// parse_error does, by status code alone.
func wrapGhac(status int, bodyMsg, operation, p string) error {
	kind := apperrors.Unexpected
	temporary := false
	switch status {
	case http.StatusNotFound, http.StatusNoContent:
		kind = apperrors.ObjectNotFound
	case http.StatusConflict:
		kind = apperrors.ObjectAlreadyExists
	case http.StatusForbidden:
		kind = apperrors.ObjectPermissionDenied
	case http.StatusTooManyRequests:
		kind = apperrors.ObjectRateLimited
		temporary = true
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		temporary = true
	}
	e := apperrors.New(kind, bodyMsg).WithOperation(operation).WithContext("path", p).WithContext("status", strconv.Itoa(status))
	if temporary {
		e = e.WithTemporary()
	}
	return e
}

type cacheEntry struct {
	CacheKey        string `json:"cacheKey"`
	ArchiveLocation string `json:"archiveLocation"`
}

func (b *Backend) lookup(ctx context.Context, key string) (*cacheEntry, error) {
	req, err := b.newRequest(ctx, http.MethodGet, "/_apis/artifactcache/cache?keys="+url.QueryEscape(key), nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("lookup").WithTemporary()
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, wrapGhac(resp.StatusCode, string(body), "lookup", key)
	}

	var entry cacheEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, apperrors.New(apperrors.Unexpected, "decoding cache entry").WithOperation("lookup").WithSource(err)
	}
	return &entry, nil
}

func (b *Backend) Create(ctx context.Context, p string, args access.OpCreate) (access.RpCreate, error) {
	if args.Mode == access.ModeDir {
		return access.RpCreate{}, nil
	}
	_, err := b.Write(ctx, p, access.OpWrite{}, access.NewBytesReader(nil))
	if err != nil {
		return access.RpCreate{}, err
	}
	return access.RpCreate{}, nil
}

func (b *Backend) Read(ctx context.Context, p string, args access.OpRead) (access.RpRead, access.Reader, error) {
	key, err := b.cacheKey(p)
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Read")
	}

	entry, err := b.lookup(ctx, key)
	if err != nil {
		return access.RpRead{}, nil, err
	}
	if entry == nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.ObjectNotFound, "cache entry not found").
			WithOperation("Read").WithContext("path", p)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.ArchiveLocation, nil)
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Read")
	}
	if args.Range.Offset != 0 || args.Range.Size != nil {
		req.Header.Set("Range", rangeHeader(args.Range))
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Read").WithTemporary()
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return access.RpRead{}, nil, wrapGhac(resp.StatusCode, string(body), "Read", p)
	}

	return access.RpRead{Size: resp.ContentLength}, resp.Body, nil
}

func rangeHeader(r access.Range) string {
	if r.Size == nil {
		return fmt.Sprintf("bytes=%d-", r.Offset)
	}
	return fmt.Sprintf("bytes=%d-%d", r.Offset, r.End())
}

func (b *Backend) Write(ctx context.Context, p string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	key, err := b.cacheKey(p)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, "reading body").WithOperation("Write").WithSource(err)
	}

	reserveBody, _ := json.Marshal(map[string]interface{}{
		"key":       key,
		"version":   b.version,
		"cacheSize": len(data),
	})
	req, err := b.newRequest(ctx, http.MethodPost, "/_apis/artifactcache/caches", bytes.NewReader(reserveBody))
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write").WithTemporary()
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return access.RpWrite{}, wrapGhac(resp.StatusCode, string(body), "Write", p)
	}

	var reserved struct {
		CacheID int64 `json:"cacheId"`
	}
	if err := json.Unmarshal(body, &reserved); err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, "decoding cache reservation").WithOperation("Write").WithSource(err)
	}

	uploadPath := fmt.Sprintf("/_apis/artifactcache/caches/%d", reserved.CacheID)
	uploadReq, err := b.newRequest(ctx, http.MethodPatch, uploadPath, bytes.NewReader(data))
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write")
	}
	uploadReq.Header.Set("Content-Type", "application/octet-stream")
	uploadReq.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/*", len(data)-1))
	uploadResp, err := b.httpClient.Do(uploadReq)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write").WithTemporary()
	}
	uploadBody, _ := io.ReadAll(uploadResp.Body)
	uploadResp.Body.Close()
	if uploadResp.StatusCode != http.StatusNoContent && uploadResp.StatusCode != http.StatusOK {
		return access.RpWrite{}, wrapGhac(uploadResp.StatusCode, string(uploadBody), "Write", p)
	}

	commitBody, _ := json.Marshal(map[string]interface{}{"size": len(data)})
	commitReq, err := b.newRequest(ctx, http.MethodPost, uploadPath, bytes.NewReader(commitBody))
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write")
	}
	commitReq.Header.Set("Content-Type", "application/json")
	commitResp, err := b.httpClient.Do(commitReq)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write").WithTemporary()
	}
	commitRespBody, _ := io.ReadAll(commitResp.Body)
	commitResp.Body.Close()
	if commitResp.StatusCode != http.StatusNoContent && commitResp.StatusCode != http.StatusOK {
		return access.RpWrite{}, wrapGhac(commitResp.StatusCode, string(commitRespBody), "Write", p)
	}

	return access.RpWrite{BytesWritten: int64(len(data))}, nil
}

func (b *Backend) Stat(ctx context.Context, p string, args access.OpStat) (access.RpStat, error) {
	key, err := b.cacheKey(p)
	if err != nil {
		return access.RpStat{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Stat")
	}
	entry, err := b.lookup(ctx, key)
	if err != nil {
		return access.RpStat{}, err
	}
	if entry == nil {
		return access.RpStat{}, apperrors.New(apperrors.ObjectNotFound, "cache entry not found").WithOperation("Stat").WithContext("path", p)
	}
	return access.RpStat{Metadata: access.ObjectMetadata{Mode: access.ModeFile, Complete: false}}, nil
}

func (b *Backend) Delete(ctx context.Context, p string, args access.OpDelete) (access.RpDelete, error) {
	return access.RpDelete{}, apperrors.New(apperrors.Unsupported, "ghac does not support deleting cache entries").
		WithOperation("Delete").WithContext("path", p)
}

func (b *Backend) List(ctx context.Context, p string, args access.OpList) (access.RpList, access.Pager, error) {
	return access.RpList{}, access.NewSlicePager(nil), nil
}

func (b *Backend) Presign(ctx context.Context, p string, args access.OpPresign) (access.RpPresign, error) {
	return access.RpPresign{}, apperrors.New(apperrors.Unsupported, "ghac backend does not support presigning").
		WithOperation("Presign").WithContext("path", p)
}

func (b *Backend) CreateMultipart(ctx context.Context, p string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	return access.RpCreateMultipart{}, apperrors.New(apperrors.Unsupported, "ghac backend does not support multipart uploads").
		WithOperation("CreateMultipart").WithContext("path", p)
}

func (b *Backend) WriteMultipart(ctx context.Context, p string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	return access.RpWriteMultipart{}, apperrors.New(apperrors.Unsupported, "ghac backend does not support multipart uploads").
		WithOperation("WriteMultipart").WithContext("path", p)
}

func (b *Backend) CompleteMultipart(ctx context.Context, p string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	return access.RpCompleteMultipart{}, apperrors.New(apperrors.Unsupported, "ghac backend does not support multipart uploads").
		WithOperation("CompleteMultipart").WithContext("path", p)
}

func (b *Backend) AbortMultipart(ctx context.Context, p string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	return access.RpAbortMultipart{}, apperrors.New(apperrors.Unsupported, "ghac backend does not support multipart uploads").
		WithOperation("AbortMultipart").WithContext("path", p)
}
