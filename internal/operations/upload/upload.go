// Package upload implements upload orchestration.
//
// The orchestrator picks the protocol by payload size: below the multipart
// threshold a single PUT is cheaper (one Class A call); at or above it the
// payload goes through the multipart coordinator. The decision is made once,
// from the source size, before any network call.
package upload

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/strandcloud/objstore/billing"
	"github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/internal/s3api"
	"github.com/strandcloud/objstore/internal/transfer/multipart"
	"github.com/strandcloud/objstore/ostypes"
)

// Uploader orchestrates uploads, delegating large payloads to the multipart
// coordinator.
type Uploader struct {
	client    s3api.S3API
	multipart *multipart.Coordinator
	log       zerolog.Logger
}

// New creates an Uploader with the given transport client.
func New(client s3api.S3API, log zerolog.Logger) *Uploader {
	return &Uploader{
		client:    client,
		multipart: multipart.New(client, log),
		log:       log,
	}
}

// Upload stores src as bucket/key. The source must be seekable: the size is
// measured by seeking to the end, and multipart parts are read at offsets.
// Payloads under the multipart threshold go up in a single PUT; everything
// else goes through the multipart protocol.
//
// Size-limit violations are rejected before any network call, with zero
// accrued metrics.
func (u *Uploader) Upload(
	ctx context.Context,
	bucket, key string,
	src io.Reader,
	cfg ostypes.UploadConfig,
) (*ostypes.UploadResult, error) {
	seeker, ok := src.(io.ReadSeeker)
	if !ok {
		return nil, errors.NewValidationError("upload",
			"source does not support seeking", errors.ErrUnseekableSource)
	}

	size, err := sourceSize(seeker)
	if err != nil {
		return nil, errors.NewError("upload", err).
			WithBucket(bucket).WithKey(key).WithMessage("measuring source size")
	}

	if size > ostypes.MaxMultipartObjectSize {
		return nil, errors.NewValidationError("upload",
			fmt.Sprintf("payload size %s exceeds the %s object limit",
				humanize.IBytes(uint64(size)), humanize.IBytes(uint64(ostypes.MaxMultipartObjectSize))),
			errors.ErrObjectTooLarge)
	}

	if size < ostypes.MultipartThreshold {
		return u.putSingle(ctx, bucket, key, seeker, size, cfg)
	}
	return u.multipart.Upload(ctx, bucket, key, seeker, size, cfg)
}

// putSingle uploads the payload in one PUT request. One Class A call and the
// full payload's ingress are accrued before the request is issued.
func (u *Uploader) putSingle(
	ctx context.Context,
	bucket, key string,
	src io.ReadSeeker,
	size int64,
	cfg ostypes.UploadConfig,
) (*ostypes.UploadResult, error) {
	metrics := billing.OperationResult{ClassA: 1, IngressBytes: size}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          src,
		ContentLength: aws.Int64(size),
	}
	if cfg.ContentType != "" {
		input.ContentType = aws.String(cfg.ContentType)
	}
	if len(cfg.Metadata) > 0 {
		input.Metadata = cfg.Metadata
	}
	if cfg.StorageClass != "" {
		input.StorageClass = s3types.StorageClass(cfg.StorageClass)
	}

	out, err := u.client.PutObject(ctx, input)
	if err != nil {
		return nil, errors.NewError("upload", s3api.Classify(err)).
			WithBucket(bucket).WithKey(key).WithMetrics(metrics)
	}

	return &ostypes.UploadResult{
		Key:     key,
		Size:    size,
		ETag:    aws.ToString(out.ETag),
		Metrics: metrics,
	}, nil
}

// sourceSize measures a seekable source and rewinds it to the start.
func sourceSize(src io.ReadSeeker) (int64, error) {
	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seeking to end: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding: %w", err)
	}
	return size, nil
}

// SingleLimit validates a payload for the single-PUT path used by callers
// that bypass the multipart protocol entirely.
func SingleLimit(size int64) error {
	if size > ostypes.MaxSinglePutSize {
		return errors.NewValidationError("put",
			fmt.Sprintf("payload size %s exceeds the %s single-request limit",
				humanize.IBytes(uint64(size)), humanize.IBytes(uint64(ostypes.MaxSinglePutSize))),
			errors.ErrObjectTooLarge)
	}
	return nil
}

// Put uploads the payload in one PUT request regardless of size, up to the
// provider's single-request limit. Callers that know their payloads are
// small use this to skip the protocol decision.
func (u *Uploader) Put(
	ctx context.Context,
	bucket, key string,
	src io.ReadSeeker,
	cfg ostypes.UploadConfig,
) (*ostypes.UploadResult, error) {
	size, err := sourceSize(src)
	if err != nil {
		return nil, errors.NewError("put", err).
			WithBucket(bucket).WithKey(key).WithMessage("measuring source size")
	}
	if err := SingleLimit(size); err != nil {
		return nil, err
	}
	return u.putSingle(ctx, bucket, key, src, size, cfg)
}
