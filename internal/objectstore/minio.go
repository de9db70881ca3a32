package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/damacus/iron-drive/internal/services"
	"github.com/minio/minio-go/v7"
)

// MinioGateway implements Gateway on a single bucket through minio-go.
type MinioGateway struct {
	client services.MinioClient
	bucket string
	region string
}

func NewMinioGateway(client services.MinioClient, bucket, region string) *MinioGateway {
	return &MinioGateway{client: client, bucket: bucket, region: region}
}

// EnsureBucket creates the bucket when it is missing.
func (g *MinioGateway) EnsureBucket(ctx context.Context) error {
	exists, err := g.client.BucketExists(ctx, g.bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket %s: %w", ErrBackend, g.bucket, err)
	}
	if exists {
		return nil
	}
	if err := g.client.MakeBucket(ctx, g.bucket, minio.MakeBucketOptions{Region: g.region}); err != nil {
		return fmt.Errorf("%w: create bucket %s: %w", ErrBackend, g.bucket, err)
	}
	return nil
}

func (g *MinioGateway) List(ctx context.Context, prefix string, recursive bool) ([]Object, error) {
	infos, err := g.client.ListObjects(ctx, g.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrBackend, prefix, err)
	}

	objects := make([]Object, 0, len(infos))
	for _, info := range infos {
		objects = append(objects, Object{
			Key:  info.Key,
			Size: info.Size,
			// with a delimiter, anything below prefix ending in "/" is rolled up
			CommonPrefix: !recursive && info.Key != prefix && isDirKey(info.Key),
		})
	}
	return objects, nil
}

func (g *MinioGateway) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.Stat(ctx, key)
	return existsFromStat(err)
}

func (g *MinioGateway) Stat(ctx context.Context, key string) (int64, error) {
	info, err := g.client.StatObject(ctx, g.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, g.translate("stat", key, err)
	}
	return info.Size, nil
}

func (g *MinioGateway) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := g.client.PutObject(ctx, g.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentTypeOrDefault(contentType),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrBackend, key, err)
	}
	return nil
}

func (g *MinioGateway) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, _, err := g.client.GetObjectReader(ctx, g.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, g.translate("get", key, err)
	}
	return reader, nil
}

func (g *MinioGateway) Remove(ctx context.Context, key string) error {
	if err := g.client.RemoveObject(ctx, g.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrBackend, key, err)
	}
	return nil
}

func (g *MinioGateway) RemoveBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	failures := g.client.RemoveObjects(ctx, g.bucket, keys)
	if len(failures) > 0 {
		first := failures[0]
		return fmt.Errorf("%w: remove %s (%d of %d failed): %w", ErrBackend, first.ObjectName, len(failures), len(keys), first.Err)
	}
	return nil
}

func (g *MinioGateway) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := g.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: g.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: g.bucket, Object: srcKey},
	)
	if err != nil {
		return g.translate("copy", srcKey+" -> "+dstKey, err)
	}
	return nil
}

// HasAnyObjectUnder stops listing at the first key below prefix.
func (g *MinioGateway) HasAnyObjectUnder(ctx context.Context, prefix string) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := g.client.ListObjectsChannel(ctx, g.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
		MaxKeys:   2,
	})
	for obj := range objects {
		if obj.Err != nil {
			return false, fmt.Errorf("%w: list %s: %w", ErrBackend, prefix, obj.Err)
		}
		if obj.Key != prefix {
			return true, nil
		}
	}
	return false, nil
}

func (g *MinioGateway) translate(op, key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject", "NotFound":
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrBackend, op, key, err)
}

func isDirKey(key string) bool {
	return len(key) > 0 && key[len(key)-1] == '/'
}
