package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/contactbook/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockS3Client struct {
	mock.Mock
}

func result[T any](args mock.Arguments) (*T, error) {
	out, _ := args.Get(0).(*T)
	return out, args.Error(1)
}

func (m *MockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return result[s3.HeadObjectOutput](m.Called(ctx, params))
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return result[s3.GetObjectOutput](m.Called(ctx, params))
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return result[s3.PutObjectOutput](m.Called(ctx, params))
}

func (m *MockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return result[s3.DeleteObjectOutput](m.Called(ctx, params))
}

func (m *MockS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return result[s3.ListObjectsV2Output](m.Called(ctx, params))
}

func (m *MockS3Client) UploadPart(ctx context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return result[s3.UploadPartOutput](m.Called(ctx, params))
}

func (m *MockS3Client) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return result[s3.CreateMultipartUploadOutput](m.Called(ctx, params))
}

func (m *MockS3Client) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return result[s3.CompleteMultipartUploadOutput](m.Called(ctx, params))
}

func (m *MockS3Client) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return result[s3.AbortMultipartUploadOutput](m.Called(ctx, params))
}

func TestStore_Open(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	t.Run("NotFound", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "prefix/foo"
		})).Return(nil, &types.NotFound{}).Once()

		_, err := store.Open(context.Background(), "foo")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("OtherError", func(t *testing.T) {
		boom := errors.New("boom")
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Key == "prefix/err"
		})).Return(nil, boom).Once()

		_, err := store.Open(context.Background(), "err")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Success", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "prefix/bar"
		})).Return(&s3.HeadObjectOutput{
			ContentLength: aws.Int64(100),
		}, nil).Once()

		blob, err := store.Open(context.Background(), "bar")
		require.NoError(t, err)
		assert.Equal(t, int64(100), blob.Size())
	})

	mockClient.AssertExpectations(t)
}

func TestStore_Put(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	var body string
	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "prefix/snapshot"
	})).Run(func(args mock.Arguments) {
		input := args.Get(1).(*s3.PutObjectInput)
		b, _ := io.ReadAll(input.Body)
		body = string(b)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, store.Put(context.Background(), "snapshot", []byte("content")))
	assert.Equal(t, "content", body)
	mockClient.AssertExpectations(t)
}

func TestStore_Delete(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	mockClient.On("DeleteObject", mock.Anything, mock.MatchedBy(func(input *s3.DeleteObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "prefix/del"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	mockClient.On("DeleteObject", mock.Anything, mock.MatchedBy(func(input *s3.DeleteObjectInput) bool {
		return *input.Key == "prefix/gone"
	})).Return(nil, &types.NoSuchKey{}).Once()

	assert.NoError(t, store.Delete(context.Background(), "del"))
	assert.NoError(t, store.Delete(context.Background(), "gone"))
	mockClient.AssertExpectations(t)
}

func TestStore_List_Pagination(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix/")

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return *input.Prefix == "prefix" && input.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		Contents:              []types.Object{{Key: aws.String("prefix/2")}},
	}, nil).Once()

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken != nil && *input.ContinuationToken == "token"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("prefix/dir/1")}},
	}, nil).Once()

	keys, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "dir/1"}, keys)
	mockClient.AssertExpectations(t)
}

func TestBlob_ReadAt(t *testing.T) {
	mockClient := new(MockS3Client)
	blob := &s3Blob{client: mockClient, bucket: "b", key: "k", size: 10}
	ctx := context.Background()

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Range == "bytes=0-4"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("hello")),
	}, nil).Once()

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	t.Run("Tail", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Range == "bytes=7-9"
		})).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("rld")),
		}, nil).Once()

		buf := make([]byte, 8)
		n, err := blob.ReadAt(ctx, buf, 7)
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, "rld", string(buf[:n]))
	})

	t.Run("PastEnd", func(t *testing.T) {
		_, err := blob.ReadAt(ctx, make([]byte, 1), 10)
		assert.ErrorIs(t, err, io.EOF)
	})
}
