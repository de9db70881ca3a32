package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/samber/lo"
)

// maxDeleteBatch is the S3 limit for a single DeleteObjects request.
const maxDeleteBatch = 1000

// S3Config configures an S3Gateway.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Gateway implements Gateway with the AWS SDK against any S3-compatible store.
type S3Gateway struct {
	client *s3.Client
	bucket string
}

func NewS3Gateway(ctx context.Context, cfg S3Config) (*S3Gateway, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg.Endpoint, cfg.UseSSL))
		}
		o.UsePathStyle = true
	})

	return &S3Gateway{client: client, bucket: cfg.Bucket}, nil
}

func endpointURL(endpoint string, useSSL bool) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// EnsureBucket creates the bucket when it is missing.
func (g *S3Gateway) EnsureBucket(ctx context.Context) error {
	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(g.bucket)})
	if err == nil {
		return nil
	}
	var missing *types.NotFound
	if !errors.As(err, &missing) {
		return fmt.Errorf("%w: check bucket %s: %w", ErrBackend, g.bucket, err)
	}
	if _, createErr := g.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(g.bucket)}); createErr != nil {
		return fmt.Errorf("%w: bucket %s does not exist and cannot create: %w", ErrBackend, g.bucket, createErr)
	}
	return nil
}

func (g *S3Gateway) List(ctx context.Context, prefix string, recursive bool) ([]Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket),
		Prefix: aws.String(prefix),
	}
	if !recursive {
		input.Delimiter = aws.String("/")
	}

	var objects []Object
	paginator := s3.NewListObjectsV2Paginator(g.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %w", ErrBackend, prefix, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, Object{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)})
		}
		for _, cp := range page.CommonPrefixes {
			objects = append(objects, Object{Key: aws.ToString(cp.Prefix), CommonPrefix: true})
		}
	}

	// S3 returns contents and common prefixes separately; interleave them by key
	sort.SliceStable(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (g *S3Gateway) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.Stat(ctx, key)
	return existsFromStat(err)
}

func (g *S3Gateway) Stat(ctx context.Context, key string) (int64, error) {
	out, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, translateS3("stat", key, err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

func (g *S3Gateway) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(g.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentTypeOrDefault(contentType)),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrBackend, key, err)
	}
	return nil
}

func (g *S3Gateway) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translateS3("get", key, err)
	}
	return out.Body, nil
}

func (g *S3Gateway) Remove(ctx context.Context, key string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrBackend, key, err)
	}
	return nil
}

// RemoveBatch sends every chunk even after a failure so the batch stays best effort.
func (g *S3Gateway) RemoveBatch(ctx context.Context, keys []string) error {
	var first error
	for _, chunk := range lo.Chunk(keys, maxDeleteBatch) {
		out, err := g.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(g.bucket),
			Delete: &types.Delete{
				Objects: lo.Map(chunk, func(key string, _ int) types.ObjectIdentifier {
					return types.ObjectIdentifier{Key: aws.String(key)}
				}),
				Quiet: aws.Bool(true),
			},
		})
		if err != nil {
			if first == nil {
				first = fmt.Errorf("%w: batch remove: %w", ErrBackend, err)
			}
			continue
		}
		if len(out.Errors) > 0 && first == nil {
			e := out.Errors[0]
			first = fmt.Errorf("%w: remove %s: %s %s", ErrBackend, aws.ToString(e.Key), aws.ToString(e.Code), aws.ToString(e.Message))
		}
	}
	return first
}

func (g *S3Gateway) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := g.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(g.bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(copySource(g.bucket, srcKey)),
	})
	if err != nil {
		return translateS3("copy", srcKey+" -> "+dstKey, err)
	}
	return nil
}

func (g *S3Gateway) HasAnyObjectUnder(ctx context.Context, prefix string) (bool, error) {
	out, err := g.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(g.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(2),
	})
	if err != nil {
		return false, fmt.Errorf("%w: list %s: %w", ErrBackend, prefix, err)
	}
	for _, obj := range out.Contents {
		if aws.ToString(obj.Key) != prefix {
			return true, nil
		}
	}
	return false, nil
}

func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

func translateS3(op, key string, err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrBackend, op, key, err)
}
