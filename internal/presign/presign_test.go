package presign

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oserrors "github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/internal/testutil"
	"github.com/strandcloud/objstore/ostypes"
)

const mib = int64(1024 * 1024)

func TestGenerator_PutObject(t *testing.T) {
	mock := &testutil.MockPresignClient{}
	mock.PresignPutObjectFunc = func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		assert.Equal(t, "bucket", aws.ToString(input.Bucket))
		assert.Equal(t, "key", aws.ToString(input.Key))
		assert.Equal(t, "application/json", aws.ToString(input.ContentType))
		assert.Equal(t, int64(1024), aws.ToInt64(input.ContentLength))
		return &v4.PresignedHTTPRequest{
			URL:    "https://signed.example/put",
			Method: "PUT",
		}, nil
	}

	g := New(mock)
	req, err := g.PutObject(context.Background(), "bucket", "key",
		"application/json", 1024, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "https://signed.example/put", req.URL)
	assert.Equal(t, "PUT", req.Method)
}

func TestGenerator_PutObject_LengthValidation(t *testing.T) {
	g := New(&testutil.MockPresignClient{})

	_, err := g.PutObject(context.Background(), "bucket", "key", "", 0, 0)
	require.Error(t, err)
	assert.True(t, oserrors.IsValidation(err))

	_, err = g.PutObject(context.Background(), "bucket", "key", "",
		ostypes.MaxSinglePutSize+1, 0)
	require.Error(t, err)
	assert.True(t, oserrors.IsValidation(err))
}

func TestGenerator_UploadPart_Validation(t *testing.T) {
	tests := []struct {
		name       string
		partNumber int32
		size       int64
		wantErr    bool
	}{
		{name: "valid", partNumber: 1, size: 5 * mib},
		{name: "last possible part number", partNumber: 10000, size: 5 * mib},
		{name: "part number zero", partNumber: 0, size: 5 * mib, wantErr: true},
		{name: "part number over the limit", partNumber: 10001, size: 5 * mib, wantErr: true},
		{name: "zero size", partNumber: 1, size: 0, wantErr: true},
		{name: "size over the part maximum", partNumber: 1, size: ostypes.MaxPartSize + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(&testutil.MockPresignClient{})
			_, err := g.UploadPart(context.Background(), "bucket", "key", "upload-1",
				tt.partNumber, tt.size, 0)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, oserrors.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerator_UploadParts_ValidLayout(t *testing.T) {
	var signedParts []int32
	mock := &testutil.MockPresignClient{}
	mock.PresignUploadPartFunc = func(ctx context.Context, input *s3.UploadPartInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		signedParts = append(signedParts, aws.ToInt32(input.PartNumber))
		return &v4.PresignedHTTPRequest{
			URL:    fmt.Sprintf("https://signed.example/part-%d", aws.ToInt32(input.PartNumber)),
			Method: "PUT",
		}, nil
	}

	g := New(mock)
	reqs, err := g.UploadParts(context.Background(), "bucket", "key", "upload-1",
		[]int64{5 * mib, 5 * mib, 3 * mib}, 0)
	require.NoError(t, err)

	require.Len(t, reqs, 3)
	assert.Equal(t, []int32{1, 2, 3}, signedParts)
	assert.Equal(t, "https://signed.example/part-3", reqs[2].URL)
}

func TestGenerator_UploadParts_InvalidLayoutMintsNothing(t *testing.T) {
	var signed int
	mock := &testutil.MockPresignClient{}
	mock.PresignUploadPartFunc = func(ctx context.Context, input *s3.UploadPartInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		signed++
		return &v4.PresignedHTTPRequest{}, nil
	}

	g := New(mock)
	reqs, err := g.UploadParts(context.Background(), "bucket", "key", "upload-1",
		[]int64{5 * mib, 6 * mib, 3 * mib}, 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, oserrors.ErrInvalidPartLayout)
	assert.Nil(t, reqs, "a rejected layout must not yield a partial URL set")
	assert.Equal(t, 0, signed)
}
