package download

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
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandcloud/objstore/billing"
	oserrors "github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/internal/testutil"
)

func TestDownloader_Download(t *testing.T) {
	content := "object body content"

	mock := &testutil.MockS3Client{}
	mock.GetObjectFunc = func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		assert.Equal(t, "bucket", aws.ToString(input.Bucket))
		assert.Equal(t, "key", aws.ToString(input.Key))
		return &s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader(content)),
			ETag: aws.String("etag"),
		}, nil
	}

	var buf bytes.Buffer
	d := New(mock, zerolog.Nop())
	result, err := d.Download(context.Background(), "bucket", "key", &buf)
	require.NoError(t, err)

	assert.Equal(t, content, buf.String())
	assert.Equal(t, billing.OperationResult{
		ClassB:      1,
		EgressBytes: int64(len(content)),
	}, result.Metrics)
	assert.Equal(t, "etag", result.ETag)
}

func TestDownloader_Download_NotFound(t *testing.T) {
	mock := &testutil.MockS3Client{}
	mock.GetObjectFunc = func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return nil, &s3types.NoSuchKey{}
	}

	d := New(mock, zerolog.Nop())
	_, err := d.Download(context.Background(), "bucket", "missing", io.Discard)
	require.Error(t, err)
	assert.True(t, oserrors.IsObjectNotFound(err))
	// The attempted read is still a billed Class B call.
	assert.Equal(t, uint64(1), oserrors.Metrics(err).ClassB)
}

// failingReader yields some bytes and then an error, mimicking a connection
// dropped mid-stream.
type failingReader struct {
	data []byte
	err  error
	pos  int
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.pos < len(f.data) {
		n := copy(p, f.data[f.pos:])
		f.pos += n
		return n, nil
	}
	return 0, f.err
}

func TestDownloader_Download_PartialEgressOnStreamFailure(t *testing.T) {
	streamErr := stderrors.New("connection reset")
	mock := &testutil.MockS3Client{}
	mock.GetObjectFunc = func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return &s3.GetObjectOutput{
			Body: io.NopCloser(&failingReader{data: make([]byte, 1024), err: streamErr}),
		}, nil
	}

	var buf bytes.Buffer
	d := New(mock, zerolog.Nop())
	_, err := d.Download(context.Background(), "bucket", "key", &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, streamErr)

	// The 1024 bytes that arrived before the failure count as egress.
	metrics := oserrors.Metrics(err)
	assert.Equal(t, uint64(1), metrics.ClassB)
	assert.Equal(t, int64(1024), metrics.EgressBytes)
}
