package s3

import (
	"context"
	"strconv"

	"github.com/objectfs/objectfs/pkg/access"
	"github.com/objectfs/objectfs/pkg/builder"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// S3Builder constructs a Backend from a map of string options, matching
// the Rust Builder trait's from_map contract (options keyed "bucket",
// "region", "endpoint", "root", "force_path_style").
type S3Builder struct {
	cfg    Config
	bucket string
	root   string
}

func (b *S3Builder) Scheme() access.Scheme { return access.SchemeS3 }

func (b *S3Builder) FromMap(m map[string]string) builder.Builder {
	if v, ok := m["bucket"]; ok {
		b.bucket = v
	}
	if v, ok := m["root"]; ok {
		b.root = v
	}
	if v, ok := m["region"]; ok {
		b.cfg.Region = v
	}
	if v, ok := m["endpoint"]; ok {
		b.cfg.Endpoint = v
	}
	if v, ok := m["access_key_id"]; ok {
		b.cfg.AccessKeyID = v
	}
	if v, ok := m["secret_access_key"]; ok {
		b.cfg.SecretAccessKey = v
	}
	if v, ok := m["session_token"]; ok {
		b.cfg.SessionToken = v
	}
	if v, ok := m["force_path_style"]; ok {
		b.cfg.ForcePathStyle, _ = strconv.ParseBool(v)
	}
	if v, ok := m["use_accelerate"]; ok {
		b.cfg.UseAccelerate, _ = strconv.ParseBool(v)
	}
	if v, ok := m["use_dual_stack"]; ok {
		b.cfg.UseDualStack, _ = strconv.ParseBool(v)
	}
	if v, ok := m["max_retries"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			b.cfg.MaxRetries = n
		}
	}
	return b
}

func (b *S3Builder) Build() (access.Accessor, error) {
	if b.bucket == "" {
		return nil, apperrors.New(apperrors.BackendConfigInvalid, "s3 builder requires a bucket option").WithOperation("Build")
	}
	return NewBackend(context.Background(), b.bucket, b.root, b.cfg)
}

func init() {
	builder.Register(access.SchemeS3, func() builder.Builder {
		return &S3Builder{}
	})
}
