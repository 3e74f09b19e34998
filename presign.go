package objstore

import (
	"context"

	oserrors "github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/ostypes"
)

// PresignPut mints a presigned single-request upload URL for bucket/key.
// The signature covers the content type and length: whoever executes the
// URL must send exactly those values or the service rejects the request.
//
// Minting is local computation; no call is issued and nothing is billed.
// The executing party pays for the eventual PUT.
func (c *Client) PresignPut(
	ctx context.Context,
	bucket, key, contentType string,
	contentLength int64,
	opts ...ostypes.PresignOption,
) (*ostypes.PresignedRequest, error) {
	if err := c.validateTarget("presignPut", bucket, key); err != nil {
		return nil, err
	}
	cfg := presignConfig(opts)
	return c.signer.PutObject(ctx, bucket, key, contentType, contentLength, cfg.Expiry)
}

// PresignUploadPart mints a presigned URL for one part of an open multipart
// session. The caller is responsible for the layout contract across parts;
// use PresignUploadParts to have it enforced.
func (c *Client) PresignUploadPart(
	ctx context.Context,
	bucket, key, uploadID string,
	partNumber int32,
	size int64,
	opts ...ostypes.PresignOption,
) (*ostypes.PresignedRequest, error) {
	if err := c.validateTarget("presignUploadPart", bucket, key); err != nil {
		return nil, err
	}
	if uploadID == "" {
		return nil, oserrors.NewValidationError("presignUploadPart",
			"upload ID cannot be empty", oserrors.ErrInvalidInput)
	}
	cfg := presignConfig(opts)
	return c.signer.UploadPart(ctx, bucket, key, uploadID, partNumber, size, cfg.Expiry)
}

// PresignUploadParts mints one URL per part for an open multipart session,
// where sizes[i] is the exact length of part i+1. The layout must satisfy
// the provider's uniformity contract: all parts except the last share one
// size within the allowed part range, and the last is no larger than that.
// An invalid layout is rejected up front and no URLs are returned at all.
func (c *Client) PresignUploadParts(
	ctx context.Context,
	bucket, key, uploadID string,
	sizes []int64,
	opts ...ostypes.PresignOption,
) ([]ostypes.PresignedRequest, error) {
	if err := c.validateTarget("presignUploadParts", bucket, key); err != nil {
		return nil, err
	}
	if uploadID == "" {
		return nil, oserrors.NewValidationError("presignUploadParts",
			"upload ID cannot be empty", oserrors.ErrInvalidInput)
	}
	cfg := presignConfig(opts)
	return c.signer.UploadParts(ctx, bucket, key, uploadID, sizes, cfg.Expiry)
}

func presignConfig(opts []ostypes.PresignOption) ostypes.PresignOptionConfig {
	var cfg ostypes.PresignOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
