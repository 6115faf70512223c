// Package azblob implements an Accessor over Azure Blob Storage,
// grounded on tempo's tempodb/backend/azure package (container.Client
// construction, block-blob upload/download, hierarchical listing via
// NewListBlobsHierarchyPager) and original_source/src/services/azblob
// for its error-kind mapping. The azdfs scheme shares this backend
// through Config.Hierarchical; listing is the same for both schemes.
package azblob

import (
	"context"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

const dirSep = "/"

// Config holds the settings needed to construct a Backend.
type Config struct {
	AccountName   string
	AccountKey    string
	ContainerName string
	Endpoint      string
	// Hierarchical makes the backend report the azdfs scheme and makes
	// Create(ModeDir) use the directory path as given, without appending
	// a "/" marker. It does not change how List enumerates blobs.
	Hierarchical bool
}

// Backend is an access.Accessor backed by an Azure Storage container.
type Backend struct {
	client       *container.Client
	scheme       access.Scheme
	root         string
	hierarchical bool
}

// NewBackend constructs a Backend against containerName, authenticating
// with a shared key when AccountKey is set and falling back to
// DefaultAzureCredential otherwise (the same two-path credential
// selection tempo's azure.Config supports).
func NewBackend(cfg Config, root string) (*Backend, error) {
	if cfg.AccountName == "" || cfg.ContainerName == "" {
		return nil, apperrors.New(apperrors.BackendConfigInvalid, "azblob requires account_name and container_name").WithOperation("NewBackend")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://" + cfg.AccountName + ".blob.core.windows.net/" + cfg.ContainerName
	}

	var c *container.Client
	var err error
	if cfg.AccountKey != "" {
		cred, credErr := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if credErr != nil {
			return nil, apperrors.New(apperrors.BackendConfigInvalid, "building shared key credential").WithOperation("NewBackend").WithSource(credErr)
		}
		c, err = container.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	} else {
		var cred *azidentity.DefaultAzureCredential
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err == nil {
			c, err = container.NewClient(endpoint, cred, nil)
		}
	}
	if err != nil {
		return nil, apperrors.New(apperrors.BackendConfigInvalid, "constructing azure container client").WithOperation("NewBackend").WithSource(err)
	}

	scheme := access.SchemeAzblob
	if cfg.Hierarchical {
		scheme = access.SchemeAzdfs
	}

	return &Backend{client: c, scheme: scheme, root: access.NormalizeRoot(root), hierarchical: cfg.Hierarchical}, nil
}

func (b *Backend) Metadata() access.AccessorMetadata {
	return access.AccessorMetadata{
		Scheme: b.scheme,
		Root:   b.root,
		Name:   "azblob",
		Capabilities: access.Capabilities(0).With(
			access.CapRead, access.CapWrite, access.CapList,
		),
		Hints: access.Hints{ReadIsSeekable: false},
	}
}

func (b *Backend) blobName(path string) (string, error) {
	abs, err := access.AbsPath(b.root, path)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(abs, "/"), nil
}

func wrapAzure(err error, operation, name string) error {
	if err == nil {
		return nil
	}
	kind := apperrors.Unexpected
	status := apperrors.Permanent
	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound), bloberror.HasCode(err, bloberror.ContainerNotFound):
		kind = apperrors.ObjectNotFound
	case bloberror.HasCode(err, bloberror.BlobAlreadyExists):
		kind = apperrors.ObjectAlreadyExists
	case bloberror.HasCode(err, bloberror.AuthorizationFailure), bloberror.HasCode(err, bloberror.InsufficientAccountPermissions):
		kind = apperrors.ObjectPermissionDenied
	case bloberror.HasCode(err, bloberror.ServerBusy):
		kind = apperrors.ObjectRateLimited
		status = apperrors.Temporary
	}
	e := apperrors.New(kind, err.Error()).WithOperation(operation).WithContext("blob", name).WithSource(err)
	if status == apperrors.Temporary {
		e = e.WithTemporary()
	}
	return e
}

func (b *Backend) Create(ctx context.Context, path string, args access.OpCreate) (access.RpCreate, error) {
	name, err := b.blobName(path)
	if err != nil {
		return access.RpCreate{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Create")
	}
	if args.Mode == access.ModeDir && !b.hierarchical {
		if !strings.HasSuffix(name, dirSep) {
			name += dirSep
		}
	}
	blobClient := b.client.NewBlockBlobClient(name)
	_, err = blobClient.UploadBuffer(ctx, nil, nil)
	if err != nil {
		return access.RpCreate{}, wrapAzure(err, "Create", name)
	}
	return access.RpCreate{}, nil
}

func (b *Backend) Read(ctx context.Context, path string, args access.OpRead) (access.RpRead, access.Reader, error) {
	name, err := b.blobName(path)
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Read")
	}

	blobClient := b.client.NewBlobClient(name)
	count := int64(0)
	if args.Range.Size != nil {
		count = *args.Range.Size
	}
	resp, err := blobClient.DownloadStream(ctx, &blob.DownloadStreamOptions{
		Range: blob.HTTPRange{Offset: args.Range.Offset, Count: count},
	})
	if err != nil {
		return access.RpRead{}, nil, wrapAzure(err, "Read", name)
	}

	size := int64(-1)
	if resp.ContentLength != nil {
		size = *resp.ContentLength
	}
	return access.RpRead{Size: size}, resp.Body, nil
}

func (b *Backend) Write(ctx context.Context, path string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	name, err := b.blobName(path)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write")
	}

	blobClient := b.client.NewBlockBlobClient(name)
	_, err = blobClient.UploadStream(ctx, r, &blockblob.UploadStreamOptions{})
	if err != nil {
		return access.RpWrite{}, wrapAzure(err, "Write", name)
	}
	return access.RpWrite{BytesWritten: args.Size}, nil
}

func (b *Backend) Stat(ctx context.Context, path string, args access.OpStat) (access.RpStat, error) {
	name, err := b.blobName(path)
	if err != nil {
		return access.RpStat{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Stat")
	}

	blobClient := b.client.NewBlobClient(name)
	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		return access.RpStat{}, wrapAzure(err, "Stat", name)
	}

	mode := access.ModeFile
	if strings.HasSuffix(name, dirSep) {
		mode = access.ModeDir
	}
	meta := access.ObjectMetadata{Mode: mode, Complete: true}
	if props.ContentLength != nil {
		meta.ContentLength = *props.ContentLength
	}
	if props.LastModified != nil {
		meta.LastModified = *props.LastModified
	}
	if props.ETag != nil {
		meta.ETag = string(*props.ETag)
	}
	if props.ContentType != nil {
		meta.ContentType = *props.ContentType
	}
	return access.RpStat{Metadata: meta}, nil
}

func (b *Backend) Delete(ctx context.Context, path string, args access.OpDelete) (access.RpDelete, error) {
	name, err := b.blobName(path)
	if err != nil {
		return access.RpDelete{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Delete")
	}

	blobClient := b.client.NewBlobClient(name)
	include := blob.DeleteSnapshotsOptionTypeInclude
	_, err = blobClient.Delete(ctx, &blob.DeleteOptions{DeleteSnapshots: &include})
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return access.RpDelete{}, wrapAzure(err, "Delete", name)
	}
	return access.RpDelete{}, nil
}

func (b *Backend) List(ctx context.Context, path string, args access.OpList) (access.RpList, access.Pager, error) {
	prefix, err := b.blobName(path)
	if err != nil {
		return access.RpList{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("List")
	}
	if prefix != "" && !strings.HasSuffix(prefix, dirSep) {
		prefix += dirSep
	}

	pager := b.client.NewListBlobsHierarchyPager(dirSep, &container.ListBlobsHierarchyOptions{Prefix: &prefix})
	return access.RpList{}, &listPager{b: b, prefix: prefix, pager: pager}, nil
}

type listPager struct {
	b      *Backend
	prefix string
	pager  *container.ListBlobsHierarchyPager
}

func (p *listPager) NextPage(ctx context.Context) ([]access.ObjectEntry, error) {
	if !p.pager.More() {
		return nil, io.EOF
	}
	page, err := p.pager.NextPage(ctx)
	if err != nil {
		return nil, wrapAzure(err, "List", p.prefix)
	}

	entries := make([]access.ObjectEntry, 0, len(page.Segment.BlobItems)+len(page.Segment.BlobPrefixes))
	for _, bp := range page.Segment.BlobPrefixes {
		if bp.Name == nil {
			continue
		}
		rel := access.RelPath(p.b.root, "/"+*bp.Name)
		entries = append(entries, access.ObjectEntry{Path: rel, Metadata: access.ObjectMetadata{Mode: access.ModeDir}})
	}
	for _, item := range page.Segment.BlobItems {
		if item.Name == nil {
			continue
		}
		rel := access.RelPath(p.b.root, "/"+*item.Name)
		meta := access.ObjectMetadata{Mode: access.ModeFile, Complete: false}
		if item.Properties != nil {
			if item.Properties.ContentLength != nil {
				meta.ContentLength = *item.Properties.ContentLength
			}
			if item.Properties.LastModified != nil {
				meta.LastModified = *item.Properties.LastModified
			}
			if item.Properties.ETag != nil {
				meta.ETag = string(*item.Properties.ETag)
			}
		}
		entries = append(entries, access.ObjectEntry{Path: rel, Metadata: meta})
	}
	return entries, nil
}

func (p *listPager) Close() error { return nil }

func (b *Backend) Presign(ctx context.Context, path string, args access.OpPresign) (access.RpPresign, error) {
	return access.RpPresign{}, apperrors.New(apperrors.Unsupported, "azblob backend does not support presigning yet").
		WithOperation("Presign").WithContext("path", path)
}

func (b *Backend) CreateMultipart(ctx context.Context, path string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	return access.RpCreateMultipart{}, apperrors.New(apperrors.Unsupported, "azblob uses block-blob staging, not multipart upload IDs").
		WithOperation("CreateMultipart").WithContext("path", path)
}

func (b *Backend) WriteMultipart(ctx context.Context, path string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	return access.RpWriteMultipart{}, apperrors.New(apperrors.Unsupported, "azblob uses block-blob staging, not multipart upload IDs").
		WithOperation("WriteMultipart").WithContext("path", path)
}

func (b *Backend) CompleteMultipart(ctx context.Context, path string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	return access.RpCompleteMultipart{}, apperrors.New(apperrors.Unsupported, "azblob uses block-blob staging, not multipart upload IDs").
		WithOperation("CompleteMultipart").WithContext("path", path)
}

func (b *Backend) AbortMultipart(ctx context.Context, path string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	return access.RpAbortMultipart{}, apperrors.New(apperrors.Unsupported, "azblob uses block-blob staging, not multipart upload IDs").
		WithOperation("AbortMultipart").WithContext("path", path)
}
