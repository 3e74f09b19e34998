// Package download implements object retrieval.
//
// A download is one Class B call plus egress for every body byte received.
// The egress counter tracks bytes actually written to the destination, so a
// copy that fails mid-stream still reports what was transferred.
package download

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/strandcloud/objstore/billing"
	"github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/internal/pool"
	"github.com/strandcloud/objstore/internal/s3api"
	"github.com/strandcloud/objstore/ostypes"
)

// Downloader performs download operations.
type Downloader struct {
	client s3api.S3API
	log    zerolog.Logger
}

// New creates a Downloader with the given transport client.
func New(client s3api.S3API, log zerolog.Logger) *Downloader {
	return &Downloader{client: client, log: log}
}

// Download retrieves bucket/key and streams the body into w. The Class B
// call is accrued before the request is issued; egress accrues as bytes
// reach w, including on a copy that fails partway through.
func (d *Downloader) Download(
	ctx context.Context,
	bucket, key string,
	w io.Writer,
) (*ostypes.DownloadResult, error) {
	metrics := billing.OperationResult{ClassB: 1}

	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.NewError("download", s3api.Classify(err)).
			WithBucket(bucket).WithKey(key).WithMetrics(metrics)
	}
	defer func() { _ = out.Body.Close() }()

	buf := pool.GetCopyBuffer()
	defer pool.PutCopyBuffer(buf)

	written, err := io.CopyBuffer(w, out.Body, buf)
	metrics.EgressBytes = written
	if err != nil {
		return nil, errors.NewError("download", err).
			WithBucket(bucket).WithKey(key).WithMetrics(metrics).
			WithMessage("streaming object body")
	}

	return &ostypes.DownloadResult{
		Key:     key,
		Size:    written,
		ETag:    aws.ToString(out.ETag),
		Metrics: metrics,
	}, nil
}
