package s3api

import (
	stderrors "errors"
	"fmt"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/strandcloud/objstore/errors"
)

// Classify maps service error responses onto the package sentinels so
// callers can use errors.Is instead of matching wire-protocol error codes.
// Errors with no sentinel equivalent pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var noSuchKey *s3types.NoSuchKey
	if stderrors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err)
	}
	var noSuchBucket *s3types.NoSuchBucket
	if stderrors.As(err, &noSuchBucket) {
		return fmt.Errorf("%w: %w", errors.ErrBucketNotFound, err)
	}
	var notFound *s3types.NotFound
	if stderrors.As(err, &notFound) {
		return fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err)
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %w", errors.ErrBucketNotFound, err)
		case "AccessDenied":
			return fmt.Errorf("%w: %w", errors.ErrAccessDenied, err)
		}
	}
	return err
}
