package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMinioClient struct {
	mock.Mock
}

func (m *MockMinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockMinioClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *MockMinioClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]minio.ObjectInfo), args.Error(1)
}

func (m *MockMinioClient) ListObjectsChannel(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucketName, opts)
	return args.Get(0).(<-chan minio.ObjectInfo)
}

func (m *MockMinioClient) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *MockMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockMinioClient) GetObjectReader(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, int64, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(int64), args.Error(2)
}

func (m *MockMinioClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Error(0)
}

func (m *MockMinioClient) RemoveObjects(ctx context.Context, bucketName string, objectNames []string) []minio.RemoveObjectError {
	args := m.Called(ctx, bucketName, objectNames)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]minio.RemoveObjectError)
}

func (m *MockMinioClient) CopyObject(ctx context.Context, dst minio.CopyDestOptions, src minio.CopySrcOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, dst, src)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func noSuchKey() error {
	return minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
}

func TestMinioGateway_StatTranslatesNotFound(t *testing.T) {
	client := new(MockMinioClient)
	client.On("StatObject", mock.Anything, "drive", "missing", mock.Anything).Return(minio.ObjectInfo{}, noSuchKey())
	client.On("StatObject", mock.Anything, "drive", "broken", mock.Anything).Return(minio.ObjectInfo{}, errors.New("connection reset"))
	client.On("StatObject", mock.Anything, "drive", "present", mock.Anything).Return(minio.ObjectInfo{Key: "present", Size: 7}, nil)

	gw := NewMinioGateway(client, "drive", "")
	ctx := context.Background()

	_, err := gw.Stat(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = gw.Stat(ctx, "broken")
	assert.ErrorIs(t, err, ErrBackend)
	assert.NotErrorIs(t, err, ErrNotFound)

	size, err := gw.Stat(ctx, "present")
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)

	ok, err := gw.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = gw.Exists(ctx, "broken")
	assert.ErrorIs(t, err, ErrBackend)
}

func TestMinioGateway_ListMarksCommonPrefixes(t *testing.T) {
	client := new(MockMinioClient)
	client.On("ListObjects", mock.Anything, "drive", minio.ListObjectsOptions{Prefix: "u/", Recursive: false}).
		Return([]minio.ObjectInfo{
			{Key: "u/"},
			{Key: "u/a.txt", Size: 3},
			{Key: "u/docs/"},
		}, nil)

	objects, err := NewMinioGateway(client, "drive", "").List(context.Background(), "u/", false)
	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.False(t, objects[0].CommonPrefix, "self marker is not a common prefix")
	assert.False(t, objects[1].IsDir())
	assert.True(t, objects[2].CommonPrefix)
}

func TestMinioGateway_PutDefaultsContentType(t *testing.T) {
	client := new(MockMinioClient)
	client.On("PutObject", mock.Anything, "drive", "k", mock.Anything, int64(1),
		minio.PutObjectOptions{ContentType: "application/octet-stream"}).Return(minio.UploadInfo{}, nil)

	err := NewMinioGateway(client, "drive", "").Put(context.Background(), "k", strings.NewReader("x"), 1, " ")
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestMinioGateway_RemoveBatchReportsFirstFailure(t *testing.T) {
	client := new(MockMinioClient)
	keys := []string{"a", "b", "c"}
	client.On("RemoveObjects", mock.Anything, "drive", keys).Return([]minio.RemoveObjectError{
		{ObjectName: "b", Err: errors.New("access denied")},
		{ObjectName: "c", Err: errors.New("access denied")},
	})

	err := NewMinioGateway(client, "drive", "").RemoveBatch(context.Background(), keys)
	assert.ErrorIs(t, err, ErrBackend)
	assert.Contains(t, err.Error(), "remove b")
}

func TestMinioGateway_RemoveBatchEmptyIsNoop(t *testing.T) {
	client := new(MockMinioClient)
	require.NoError(t, NewMinioGateway(client, "drive", "").RemoveBatch(context.Background(), nil))
	client.AssertNotCalled(t, "RemoveObjects", mock.Anything, mock.Anything, mock.Anything)
}

func TestMinioGateway_Copy(t *testing.T) {
	client := new(MockMinioClient)
	client.On("CopyObject", mock.Anything,
		minio.CopyDestOptions{Bucket: "drive", Object: "dst"},
		minio.CopySrcOptions{Bucket: "drive", Object: "src"},
	).Return(minio.UploadInfo{}, nil)
	client.On("CopyObject", mock.Anything,
		minio.CopyDestOptions{Bucket: "drive", Object: "dst2"},
		minio.CopySrcOptions{Bucket: "drive", Object: "gone"},
	).Return(minio.UploadInfo{}, noSuchKey())

	gw := NewMinioGateway(client, "drive", "")
	require.NoError(t, gw.Copy(context.Background(), "src", "dst"))
	assert.ErrorIs(t, gw.Copy(context.Background(), "gone", "dst2"), ErrNotFound)
}

func existenceProbeOptions(prefix string) minio.ListObjectsOptions {
	return minio.ListObjectsOptions{Prefix: prefix, Recursive: true, MaxKeys: 2}
}

func closedListing(objects ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(objects))
	for _, obj := range objects {
		ch <- obj
	}
	close(ch)
	return ch
}

func TestMinioGateway_HasAnyObjectUnder(t *testing.T) {
	t.Run("marker only", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("ListObjectsChannel", mock.Anything, "drive", existenceProbeOptions("u/docs/")).
			Return(closedListing(minio.ObjectInfo{Key: "u/docs/"}))

		ok, err := NewMinioGateway(client, "drive", "").HasAnyObjectUnder(context.Background(), "u/docs/")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("listing error", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("ListObjectsChannel", mock.Anything, "drive", existenceProbeOptions("u/docs/")).
			Return(closedListing(minio.ObjectInfo{Err: errors.New("access denied")}))

		_, err := NewMinioGateway(client, "drive", "").HasAnyObjectUnder(context.Background(), "u/docs/")
		assert.ErrorIs(t, err, ErrBackend)
	})
}

func TestMinioGateway_HasAnyObjectUnderStopsAtFirstDescendant(t *testing.T) {
	const total = 5000
	ch := make(chan minio.ObjectInfo)
	sent := 0
	done := make(chan struct{})

	client := new(MockMinioClient)
	client.On("ListObjectsChannel", mock.Anything, "drive", existenceProbeOptions("u/big/")).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			go func() {
				defer close(done)
				defer close(ch)
				keys := append([]string{"u/big/"}, make([]string, total)...)
				for i := 1; i < len(keys); i++ {
					keys[i] = fmt.Sprintf("u/big/f%05d", i)
				}
				for _, key := range keys {
					select {
					case ch <- minio.ObjectInfo{Key: key}:
						sent++
					case <-ctx.Done():
						return
					}
				}
			}()
		}).
		Return((<-chan minio.ObjectInfo)(ch))

	ok, err := NewMinioGateway(client, "drive", "").HasAnyObjectUnder(context.Background(), "u/big/")
	require.NoError(t, err)
	assert.True(t, ok)

	<-done
	assert.LessOrEqual(t, sent, 3, "listing should stop once a descendant is seen")
	client.AssertExpectations(t)
}

func TestMinioGateway_EnsureBucket(t *testing.T) {
	t.Run("creates missing bucket", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("BucketExists", mock.Anything, "drive").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "drive", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)

		require.NoError(t, NewMinioGateway(client, "drive", "us-east-1").EnsureBucket(context.Background()))
		client.AssertExpectations(t)
	})

	t.Run("leaves existing bucket", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("BucketExists", mock.Anything, "drive").Return(true, nil)

		require.NoError(t, NewMinioGateway(client, "drive", "").EnsureBucket(context.Background()))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})
}
