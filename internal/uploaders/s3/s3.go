package s3

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

type putter interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Archiver copies finished downloads into a bucket, keeping their layout
// relative to the output root.
type Archiver struct {
	bucket   string
	prefix   string
	uploader putter
}

func New(ctx context.Context, bucket, prefix, profile string) (*Archiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRetryMode("adaptive")}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %v", err)
	}
	return &Archiver{
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		uploader: manager.NewUploader(s3.NewFromConfig(cfg)),
	}, nil
}

func (a *Archiver) Key(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)
	if a.prefix == "" {
		return rel
	}
	return a.prefix + "/" + rel
}

func (a *Archiver) Archive(ctx context.Context, root, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file %s: %w", path, err)
	}
	defer f.Close()
	key := a.Key(root, path)
	log.Debug().Str("op", "s3/archive").Msgf("Uploading %s to s3://%s/%s", path, a.bucket, key)
	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   f,
		ACL:    types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	log.Info().Str("op", "s3/archive").Msgf("Uploaded s3://%s/%s", a.bucket, key)
	return nil
}
