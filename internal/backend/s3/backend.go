// Package s3 implements an Accessor over Amazon S3 and S3-compatible
// object stores, grounded on the teacher's internal/storage/s3 backend:
// same aws-sdk-go-v2 client construction (region/endpoint/path-style/
// accelerate options via config.LoadDefaultConfig and s3.NewFromConfig)
// and the same per-operation API call shapes (GetObject/PutObject/
// HeadObject/ListObjectsV2/DeleteObject). The teacher's CargoShip
// transporter, connection pool, and rolling-average metrics are not
// carried forward; see DESIGN.md for why.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// Config holds the settings needed to construct a Backend.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	ForcePathStyle  bool
	MaxRetries      int
	UseAccelerate   bool
	UseDualStack    bool
	PresignExpire   time.Duration
}

// Backend is an access.Accessor backed by an S3-compatible bucket.
type Backend struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	root          string
	presignExpire time.Duration
}

// NewBackend loads AWS configuration and constructs a Backend for bucket.
func NewBackend(ctx context.Context, bucket, root string, cfg Config) (*Backend, error) {
	if bucket == "" {
		return nil, apperrors.New(apperrors.BackendConfigInvalid, "s3 bucket name is required").WithOperation("NewBackend")
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRetryMaxAttempts(maxRetries),
	}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken,
		)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperrors.New(apperrors.BackendConfigInvalid, "loading AWS config").WithOperation("NewBackend").WithSource(err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
		if cfg.UseAccelerate {
			o.UseAccelerate = true
		}
		if cfg.UseDualStack {
			o.UseDualstack = true
		}
	})

	presignExpire := cfg.PresignExpire
	if presignExpire == 0 {
		presignExpire = 15 * time.Minute
	}

	return &Backend{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        bucket,
		root:          access.NormalizeRoot(root),
		presignExpire: presignExpire,
	}, nil
}

func (b *Backend) Metadata() access.AccessorMetadata {
	return access.AccessorMetadata{
		Scheme: access.SchemeS3,
		Root:   b.root,
		Name:   "s3:" + b.bucket,
		Capabilities: access.Capabilities(0).With(
			access.CapRead, access.CapWrite, access.CapList,
			access.CapPresign, access.CapMultipart,
		),
		Hints: access.Hints{ReadIsSeekable: false},
	}
}

// key maps an object path to an S3 key relative to the bucket, stripping
// the leading slash S3 keys never carry.
func (b *Backend) key(path string) (string, error) {
	abs, err := access.AbsPath(b.root, path)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(abs, "/"), nil
}

func wrapS3(err error, operation, key string) error {
	if err == nil {
		return nil
	}
	kind := apperrors.Unexpected
	status := apperrors.Permanent
	switch {
	case isErrorType[*s3types.NoSuchKey](err), isErrorType[*s3types.NotFound](err):
		kind = apperrors.ObjectNotFound
	case isErrorType[*s3types.NoSuchBucket](err):
		kind = apperrors.BackendConfigInvalid
	default:
		var ae smithyAPIError
		if errors.As(err, &ae) {
			switch ae.ErrorCode() {
			case "AccessDenied":
				kind = apperrors.ObjectPermissionDenied
			case "SlowDown", "RequestLimitExceeded", "TooManyRequests":
				kind = apperrors.ObjectRateLimited
				status = apperrors.Temporary
			case "InternalError", "ServiceUnavailable":
				status = apperrors.Temporary
			}
		}
	}
	e := apperrors.New(kind, err.Error()).WithOperation(operation).WithContext("key", key).WithSource(err)
	if status == apperrors.Temporary {
		e = e.WithTemporary()
	}
	return e
}

// smithyAPIError mirrors the smithy-go APIError interface without
// importing the package directly, since only ErrorCode is needed.
type smithyAPIError interface {
	error
	ErrorCode() string
}

func (b *Backend) Create(ctx context.Context, path string, args access.OpCreate) (access.RpCreate, error) {
	k, err := b.key(path)
	if err != nil {
		return access.RpCreate{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Create")
	}
	if args.Mode == access.ModeDir {
		if !strings.HasSuffix(k, "/") {
			k += "/"
		}
	}
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(k),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return access.RpCreate{}, wrapS3(err, "Create", k)
	}
	return access.RpCreate{}, nil
}

func (b *Backend) Read(ctx context.Context, path string, args access.OpRead) (access.RpRead, access.Reader, error) {
	k, err := b.key(path)
	if err != nil {
		return access.RpRead{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Read")
	}

	var rangeHeader *string
	if args.Range.Offset > 0 || args.Range.Size != nil {
		if args.Range.Size != nil {
			rangeHeader = aws.String(fmt.Sprintf("bytes=%d-%d", args.Range.Offset, args.Range.Offset+*args.Range.Size-1))
		} else {
			rangeHeader = aws.String(fmt.Sprintf("bytes=%d-", args.Range.Offset))
		}
	}

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(k),
		Range:  rangeHeader,
	})
	if err != nil {
		return access.RpRead{}, nil, wrapS3(err, "Read", k)
	}

	return access.RpRead{Size: aws.ToInt64(out.ContentLength)}, out.Body, nil
}

func (b *Backend) Write(ctx context.Context, path string, args access.OpWrite, r access.Reader) (access.RpWrite, error) {
	k, err := b.key(path)
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Write")
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBufferedWrite(args.Size)))
	if err != nil {
		return access.RpWrite{}, apperrors.New(apperrors.Unexpected, "reading body").WithOperation("Write").WithSource(err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(k),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if args.ContentType != "" {
		input.ContentType = aws.String(args.ContentType)
	}

	_, err = b.client.PutObject(ctx, input)
	if err != nil {
		return access.RpWrite{}, wrapS3(err, "Write", k)
	}
	return access.RpWrite{BytesWritten: int64(len(data))}, nil
}

// maxBufferedWrite caps the in-memory buffer for Write at the declared
// size, or a generous default when the caller did not declare one.
func maxBufferedWrite(declared int64) int64 {
	if declared > 0 {
		return declared
	}
	return 256 << 20
}

func (b *Backend) Stat(ctx context.Context, path string, args access.OpStat) (access.RpStat, error) {
	k, err := b.key(path)
	if err != nil {
		return access.RpStat{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Stat")
	}

	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		return access.RpStat{}, wrapS3(err, "Stat", k)
	}

	mode := access.ModeFile
	if strings.HasSuffix(k, "/") {
		mode = access.ModeDir
	}
	return access.RpStat{Metadata: access.ObjectMetadata{
		Mode:          mode,
		ContentLength: aws.ToInt64(out.ContentLength),
		ContentType:   aws.ToString(out.ContentType),
		ETag:          strings.Trim(aws.ToString(out.ETag), `"`),
		LastModified:  aws.ToTime(out.LastModified),
		Complete:      true,
	}}, nil
}

func (b *Backend) Delete(ctx context.Context, path string, args access.OpDelete) (access.RpDelete, error) {
	k, err := b.key(path)
	if err != nil {
		return access.RpDelete{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Delete")
	}

	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		return access.RpDelete{}, wrapS3(err, "Delete", k)
	}
	return access.RpDelete{}, nil
}

func (b *Backend) List(ctx context.Context, path string, args access.OpList) (access.RpList, access.Pager, error) {
	prefix, err := b.key(path)
	if err != nil {
		return access.RpList{}, nil, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("List")
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return access.RpList{}, &listPager{b: b, prefix: prefix, limit: args.Limit}, nil
}

type listPager struct {
	b            *Backend
	prefix       string
	limit        int
	done         bool
	continuation *string
}

func (p *listPager) NextPage(ctx context.Context) ([]access.ObjectEntry, error) {
	if p.done {
		return nil, io.EOF
	}

	input := &s3.ListObjectsV2Input{
		Bucket:            aws.String(p.b.bucket),
		Prefix:            aws.String(p.prefix),
		Delimiter:         aws.String("/"),
		ContinuationToken: p.continuation,
	}
	if p.limit > 0 {
		input.MaxKeys = aws.Int32(int32(p.limit))
	}

	out, err := p.b.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, wrapS3(err, "List", p.prefix)
	}

	entries := make([]access.ObjectEntry, 0, len(out.Contents)+len(out.CommonPrefixes))
	for _, cp := range out.CommonPrefixes {
		rel := access.RelPath(p.b.root, "/"+aws.ToString(cp.Prefix))
		entries = append(entries, access.ObjectEntry{Path: rel, Metadata: access.ObjectMetadata{Mode: access.ModeDir}})
	}
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if key == p.prefix {
			continue
		}
		rel := access.RelPath(p.b.root, "/"+key)
		entries = append(entries, access.ObjectEntry{Path: rel, Metadata: access.ObjectMetadata{
			Mode:          access.ModeFile,
			ContentLength: aws.ToInt64(obj.Size),
			ETag:          strings.Trim(aws.ToString(obj.ETag), `"`),
			LastModified:  aws.ToTime(obj.LastModified),
			Complete:      false,
		}})
	}

	if aws.ToBool(out.IsTruncated) {
		p.continuation = out.NextContinuationToken
	} else {
		p.done = true
	}
	return entries, nil
}

func (p *listPager) Close() error { p.done = true; return nil }

func (b *Backend) Presign(ctx context.Context, path string, args access.OpPresign) (access.RpPresign, error) {
	k, err := b.key(path)
	if err != nil {
		return access.RpPresign{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("Presign")
	}

	expire := args.Expire
	if expire <= 0 {
		expire = b.presignExpire
	}

	switch args.Op {
	case access.PresignRead:
		req, err := b.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(k),
		}, s3.WithPresignExpires(expire))
		if err != nil {
			return access.RpPresign{}, wrapS3(err, "Presign", k)
		}
		return access.RpPresign{Method: req.Method, URI: req.URL, Headers: req.SignedHeader}, nil
	case access.PresignWrite:
		req, err := b.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(k),
		}, s3.WithPresignExpires(expire))
		if err != nil {
			return access.RpPresign{}, wrapS3(err, "Presign", k)
		}
		return access.RpPresign{Method: req.Method, URI: req.URL, Headers: req.SignedHeader}, nil
	default:
		return access.RpPresign{}, apperrors.New(apperrors.Unsupported, "unknown presign operation").WithOperation("Presign")
	}
}

func (b *Backend) CreateMultipart(ctx context.Context, path string, args access.OpCreateMultipart) (access.RpCreateMultipart, error) {
	k, err := b.key(path)
	if err != nil {
		return access.RpCreateMultipart{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("CreateMultipart")
	}

	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(k),
	}
	if args.ContentType != "" {
		input.ContentType = aws.String(args.ContentType)
	}

	out, err := b.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return access.RpCreateMultipart{}, wrapS3(err, "CreateMultipart", k)
	}
	return access.RpCreateMultipart{UploadID: aws.ToString(out.UploadId)}, nil
}

func (b *Backend) WriteMultipart(ctx context.Context, path string, args access.OpWriteMultipart, r access.Reader) (access.RpWriteMultipart, error) {
	k, err := b.key(path)
	if err != nil {
		return access.RpWriteMultipart{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("WriteMultipart")
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBufferedWrite(args.Size)))
	if err != nil {
		return access.RpWriteMultipart{}, apperrors.New(apperrors.Unexpected, "reading part body").WithOperation("WriteMultipart").WithSource(err)
	}

	out, err := b.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(k),
		UploadId:      aws.String(args.UploadID),
		PartNumber:    aws.Int32(int32(args.PartNumber)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return access.RpWriteMultipart{}, wrapS3(err, "WriteMultipart", k)
	}
	return access.RpWriteMultipart{ETag: strings.Trim(aws.ToString(out.ETag), `"`)}, nil
}

func (b *Backend) CompleteMultipart(ctx context.Context, path string, args access.OpCompleteMultipart) (access.RpCompleteMultipart, error) {
	k, err := b.key(path)
	if err != nil {
		return access.RpCompleteMultipart{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("CompleteMultipart")
	}

	parts := make([]s3types.CompletedPart, 0, len(args.Parts))
	for _, p := range args.Parts {
		parts = append(parts, s3types.CompletedPart{
			PartNumber: aws.Int32(int32(p.PartNumber)),
			ETag:       aws.String(`"` + p.ETag + `"`),
		})
	}

	out, err := b.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(b.bucket),
		Key:             aws.String(k),
		UploadId:        aws.String(args.UploadID),
		MultipartUpload: &s3types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		return access.RpCompleteMultipart{}, wrapS3(err, "CompleteMultipart", k)
	}
	return access.RpCompleteMultipart{ETag: strings.Trim(aws.ToString(out.ETag), `"`)}, nil
}

func (b *Backend) AbortMultipart(ctx context.Context, path string, args access.OpAbortMultipart) (access.RpAbortMultipart, error) {
	k, err := b.key(path)
	if err != nil {
		return access.RpAbortMultipart{}, apperrors.New(apperrors.Unexpected, err.Error()).WithOperation("AbortMultipart")
	}

	_, err = b.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(b.bucket),
		Key:      aws.String(k),
		UploadId: aws.String(args.UploadID),
	})
	if err != nil {
		return access.RpAbortMultipart{}, wrapS3(err, "AbortMultipart", k)
	}
	return access.RpAbortMultipart{}, nil
}

// isErrorType reports whether err (or an error it wraps) is of type T,
// matching the teacher's translateError helper.
func isErrorType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
