// Package copy implements server-side object copies. The bytes never pass
// through the client, so a copy accrues one Class A call and no transfer.
package copy

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/strandcloud/objstore/billing"
	"github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/internal/s3api"
	"github.com/strandcloud/objstore/ostypes"
)

// Copier performs server-side copy operations.
type Copier struct {
	client s3api.S3API
}

// New creates a Copier with the given transport client.
func New(client s3api.S3API) *Copier {
	return &Copier{client: client}
}

// Copy duplicates srcBucket/srcKey as dstBucket/dstKey server-side.
func (c *Copier) Copy(
	ctx context.Context,
	srcBucket, srcKey, dstBucket, dstKey string,
) (*ostypes.UploadResult, error) {
	metrics := billing.OperationResult{ClassA: 1}

	source := srcBucket + "/" + srcKey
	out, err := c.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(source),
	})
	if err != nil {
		return nil, errors.NewError("copy", s3api.Classify(err)).
			WithBucket(dstBucket).WithKey(dstKey).WithMetrics(metrics)
	}

	result := &ostypes.UploadResult{
		Key:     dstKey,
		Metrics: metrics,
	}
	if out.CopyObjectResult != nil {
		result.ETag = aws.ToString(out.CopyObjectResult.ETag)
	}
	return result, nil
}
