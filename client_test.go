package objstore

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandcloud/objstore/billing"
	oserrors "github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/internal/testutil"
	"github.com/strandcloud/objstore/ostypes"
)

func newMockedClient(mock *testutil.MockS3Client, opts ...ostypes.Option) *Client {
	return NewWithClient(mock, &testutil.MockPresignClient{}, opts...)
}

func TestClient_Upload_InvalidTargetsRejected(t *testing.T) {
	tests := []struct {
		name   string
		bucket string
		key    string
	}{
		{name: "bad bucket", bucket: "NO", key: "key"},
		{name: "empty key", bucket: "bucket", key: ""},
		{name: "traversal key", bucket: "bucket", key: "../secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			mock := &testutil.MockS3Client{}
			mock.PutObjectFunc = func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
				called = true
				return &s3.PutObjectOutput{}, nil
			}

			c := newMockedClient(mock)
			_, err := c.Upload(context.Background(), tt.bucket, tt.key, strings.NewReader("x"))
			require.Error(t, err)
			assert.False(t, called)
			assert.True(t, oserrors.Metrics(err).IsZero())
		})
	}
}

func TestClient_Upload_SniffsContentType(t *testing.T) {
	var gotContentType string
	mock := &testutil.MockS3Client{}
	mock.PutObjectFunc = func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		gotContentType = aws.ToString(input.ContentType)
		return &s3.PutObjectOutput{ETag: aws.String("etag")}, nil
	}

	c := newMockedClient(mock)
	_, err := c.Upload(context.Background(), "bucket", "data.json",
		bytes.NewReader([]byte(`{"a":1}`)))
	require.NoError(t, err)
	assert.Contains(t, gotContentType, "json")
}

func TestClient_Exists(t *testing.T) {
	t.Run("object present", func(t *testing.T) {
		mock := &testutil.MockS3Client{}
		mock.HeadObjectFunc = func(ctx context.Context, input *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			return &s3.HeadObjectOutput{}, nil
		}
		ok, err := newMockedClient(mock).Exists(context.Background(), "bucket", "key")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("object missing is not an error", func(t *testing.T) {
		mock := &testutil.MockS3Client{}
		mock.HeadObjectFunc = func(ctx context.Context, input *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			return nil, &s3types.NotFound{}
		}
		ok, err := newMockedClient(mock).Exists(context.Background(), "bucket", "key")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("transport failure surfaces", func(t *testing.T) {
		mock := &testutil.MockS3Client{}
		mock.HeadObjectFunc = func(ctx context.Context, input *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			return nil, stderrors.New("503")
		}
		_, err := newMockedClient(mock).Exists(context.Background(), "bucket", "key")
		require.Error(t, err)
		assert.Equal(t, uint64(1), oserrors.Metrics(err).ClassB)
	})
}

func TestClient_GetMetadata(t *testing.T) {
	mock := &testutil.MockS3Client{}
	mock.HeadObjectFunc = func(ctx context.Context, input *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return &s3.HeadObjectOutput{
			ContentType:   aws.String("text/plain"),
			ContentLength: aws.Int64(42),
			ETag:          aws.String("etag"),
			Metadata:      map[string]string{"owner": "billing"},
		}, nil
	}

	meta, err := newMockedClient(mock).GetMetadata(context.Background(), "bucket", "key")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", meta.ContentType)
	assert.Equal(t, int64(42), meta.ContentLength)
	assert.Equal(t, "billing", meta.Metadata["owner"])
	assert.Equal(t, billing.OperationResult{ClassB: 1}, meta.Metrics)
}

func TestClient_Delete_SingleKey(t *testing.T) {
	mock := &testutil.MockS3Client{}
	mock.DeleteObjectFunc = func(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		assert.Equal(t, "key", aws.ToString(input.Key))
		return &s3.DeleteObjectOutput{}, nil
	}

	result, err := newMockedClient(mock).Delete(context.Background(), "bucket", "key")
	require.NoError(t, err)
	assert.Equal(t, []string{"key"}, result.Deleted)
	assert.Equal(t, billing.OperationResult{ClassA: 1}, result.Metrics)
}

func TestClient_Get_ReturnsBodyAndMetrics(t *testing.T) {
	mock := &testutil.MockS3Client{}
	mock.GetObjectFunc = func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return &s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("payload")),
		}, nil
	}

	data, result, err := newMockedClient(mock).Get(context.Background(), "bucket", "key")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, int64(len("payload")), result.Metrics.EgressBytes)
}

func TestClient_Move(t *testing.T) {
	t.Run("copy then delete", func(t *testing.T) {
		var copied, deleted bool
		mock := &testutil.MockS3Client{}
		mock.CopyObjectFunc = func(ctx context.Context, input *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
			copied = true
			assert.Equal(t, "src-bucket/src-key", aws.ToString(input.CopySource))
			assert.Equal(t, "dst-bucket", aws.ToString(input.Bucket))
			return &s3.CopyObjectOutput{
				CopyObjectResult: &s3types.CopyObjectResult{ETag: aws.String("etag")},
			}, nil
		}
		mock.DeleteObjectFunc = func(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
			deleted = true
			assert.Equal(t, "src-bucket", aws.ToString(input.Bucket))
			return &s3.DeleteObjectOutput{}, nil
		}

		result, err := newMockedClient(mock).Move(
			context.Background(), "src-bucket", "src-key", "dst-bucket", "dst-key")
		require.NoError(t, err)
		assert.True(t, copied)
		assert.True(t, deleted)
		// One copy + one delete, both Class A.
		assert.Equal(t, uint64(2), result.Metrics.ClassA)
	})

	t.Run("failed delete keeps both objects and combined metrics", func(t *testing.T) {
		mock := &testutil.MockS3Client{}
		mock.CopyObjectFunc = func(ctx context.Context, input *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
			return &s3.CopyObjectOutput{}, nil
		}
		deleteErr := stderrors.New("delete failed")
		mock.DeleteObjectFunc = func(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
			return nil, deleteErr
		}

		_, err := newMockedClient(mock).Move(
			context.Background(), "src-bucket", "src-key", "dst-bucket", "dst-key")
		require.Error(t, err)
		assert.ErrorIs(t, err, deleteErr)
		assert.Equal(t, uint64(2), oserrors.Metrics(err).ClassA)
	})
}

func TestClient_CollectorSeesAllOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := billing.NewCollector(reg)

	mock := &testutil.MockS3Client{}
	mock.GetObjectFunc = func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("abc"))}, nil
	}
	mock.DeleteObjectFunc = func(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return nil, stderrors.New("boom")
	}

	c := newMockedClient(mock, WithCollector(collector))

	_, err := c.Download(context.Background(), "bucket", "key", io.Discard)
	require.NoError(t, err)

	// Failed operations feed the collector too.
	_, err = c.Delete(context.Background(), "bucket", "key")
	require.Error(t, err)

	assert.Equal(t, 1.0, counterValue(t, reg, "objstore_class_a_operations_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "objstore_class_b_operations_total"))
	assert.Equal(t, 3.0, counterValue(t, reg, "objstore_egress_bytes_total"))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestClient_PresignUploadParts_RootValidation(t *testing.T) {
	c := newMockedClient(&testutil.MockS3Client{})

	_, err := c.PresignUploadParts(context.Background(), "bucket", "key", "",
		[]int64{5 * 1024 * 1024}, WithPresignExpiry(0))
	require.Error(t, err)
	assert.True(t, oserrors.IsValidation(err))
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  ostypes.ClientConfig
		want string
	}{
		{
			name: "explicit endpoint wins",
			cfg:  ostypes.ClientConfig{Endpoint: "http://localhost:9000", Account: "acme"},
			want: "http://localhost:9000",
		},
		{
			name: "derived from account",
			cfg:  ostypes.ClientConfig{Account: "acme"},
			want: "https://acme.r2.cloudflarestorage.com",
		},
		{
			name: "derived with jurisdiction",
			cfg:  ostypes.ClientConfig{Account: "acme", Jurisdiction: "eu"},
			want: "https://acme.eu.r2.cloudflarestorage.com",
		},
		{
			name: "nothing to derive from",
			cfg:  ostypes.ClientConfig{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveEndpoint(&tt.cfg))
		})
	}
}

func TestSniffContentType_FallsBackToExtension(t *testing.T) {
	type readerOnly struct{ io.Reader }
	got := sniffContentType("report.pdf", readerOnly{strings.NewReader("x")})
	assert.Equal(t, "application/pdf", got)

	got = sniffContentType("unknown.zzz", readerOnly{strings.NewReader("x")})
	assert.Equal(t, DefaultContentType, got)
}
