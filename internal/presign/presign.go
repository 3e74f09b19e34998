// Package presign mints presigned upload URLs.
//
// Presigning is pure local computation over the credentials: no network call
// is issued and no billing units are accrued. The party that later executes
// the URL pays for that request.
package presign

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/internal/s3api"
	"github.com/strandcloud/objstore/internal/validation"
	"github.com/strandcloud/objstore/ostypes"
)

// DefaultExpiry is the URL lifetime used when the caller does not set one.
const DefaultExpiry = 15 * time.Minute

// Generator mints presigned requests.
type Generator struct {
	presigner s3api.PresignAPI
}

// New creates a Generator with the given presigning client.
func New(presigner s3api.PresignAPI) *Generator {
	return &Generator{presigner: presigner}
}

// PutObject mints a presigned single-request upload URL. The signature
// covers the content type and length, so the executing party must send
// exactly those values.
func (g *Generator) PutObject(
	ctx context.Context,
	bucket, key, contentType string,
	contentLength int64,
	expiry time.Duration,
) (*ostypes.PresignedRequest, error) {
	if contentLength <= 0 || contentLength > ostypes.MaxSinglePutSize {
		return nil, errors.NewValidationError("presignPut",
			fmt.Sprintf("content length %d is outside the single-request range", contentLength),
			errors.ErrInvalidInput)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		ContentLength: aws.Int64(contentLength),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := g.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(normalizeExpiry(expiry)))
	if err != nil {
		return nil, errors.NewError("presignPut", err).WithBucket(bucket).WithKey(key)
	}
	return &ostypes.PresignedRequest{
		URL:          req.URL,
		Method:       req.Method,
		SignedHeader: req.SignedHeader,
	}, nil
}

// UploadPart mints a presigned URL for one part of an open multipart
// session. The part number must be within the per-upload limit and the size
// within the provider's part range; layout uniformity across parts is the
// caller's concern (see UploadParts).
func (g *Generator) UploadPart(
	ctx context.Context,
	bucket, key, uploadID string,
	partNumber int32,
	size int64,
	expiry time.Duration,
) (*ostypes.PresignedRequest, error) {
	if partNumber < 1 || int(partNumber) > ostypes.MaxPartsPerUpload {
		return nil, errors.NewValidationError("presignUploadPart",
			fmt.Sprintf("part number %d is outside [1, %d]", partNumber, ostypes.MaxPartsPerUpload),
			errors.ErrInvalidInput)
	}
	if size <= 0 || size > ostypes.MaxPartSize {
		return nil, errors.NewValidationError("presignUploadPart",
			fmt.Sprintf("part size %d is outside the allowed range", size),
			errors.ErrInvalidPartLayout)
	}

	req, err := g.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(partNumber),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(normalizeExpiry(expiry)))
	if err != nil {
		return nil, errors.NewError("presignUploadPart", err).WithBucket(bucket).WithKey(key)
	}
	return &ostypes.PresignedRequest{
		URL:          req.URL,
		Method:       req.Method,
		SignedHeader: req.SignedHeader,
	}, nil
}

// UploadParts mints one presigned URL per part for an open multipart
// session. sizes[i] is the exact length of part i+1. The whole layout is
// validated against the provider's uniformity contract before any URL is
// minted: on rejection no URLs are returned at all, so a caller can never
// hand out a partially usable set.
func (g *Generator) UploadParts(
	ctx context.Context,
	bucket, key, uploadID string,
	sizes []int64,
	expiry time.Duration,
) ([]ostypes.PresignedRequest, error) {
	if err := validation.ValidatePartLayout("presignUploadParts", sizes); err != nil {
		return nil, err
	}

	reqs := make([]ostypes.PresignedRequest, 0, len(sizes))
	for i, size := range sizes {
		req, err := g.UploadPart(ctx, bucket, key, uploadID, int32(i+1), size, expiry)
		if err != nil {
			return nil, errors.NewError("presignUploadParts", err).
				WithBucket(bucket).WithKey(key).
				WithMessage(fmt.Sprintf("signing part %d", i+1))
		}
		reqs = append(reqs, *req)
	}
	return reqs, nil
}

func normalizeExpiry(expiry time.Duration) time.Duration {
	if expiry <= 0 {
		return DefaultExpiry
	}
	return expiry
}
