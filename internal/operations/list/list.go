// Package list implements object and part listing with billing accounting.
//
// The storage service bills every listing request as a Class A call, so the
// collector here counts each page before it is fetched: a page that fails
// was still attempted and still billed. Failed collections never discard
// what earlier pages returned.
package list

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/strandcloud/objstore/billing"
	"github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/internal/s3api"
	"github.com/strandcloud/objstore/ostypes"
)

// Lister performs listing operations against the storage service.
type Lister struct {
	client s3api.S3API
}

// New creates a Lister with the given transport client.
func New(client s3api.S3API) *Lister {
	return &Lister{client: client}
}

// page is one fetched page of a paginated listing.
type page[T any] struct {
	items     []T
	nextToken string
	truncated bool
}

// collect drains a paginated listing. fetch is called once per page with the
// continuation token of the previous page (empty for the first). One Class A
// call is accrued per attempted page, before the page is fetched. On any
// failure the items gathered so far are returned alongside a *errors.ListError
// carrying the accrued metrics.
//
// A truncated page without a continuation token would refetch itself forever;
// collect abandons the listing instead and reports ErrPaginationInconsistent.
func collect[T any](
	ctx context.Context,
	op, bucket string,
	fetch func(ctx context.Context, token string) (page[T], error),
) ([]T, billing.OperationResult, error) {
	var (
		items   []T
		metrics billing.OperationResult
		token   string
	)
	for {
		if err := ctx.Err(); err != nil {
			return items, metrics, &errors.ListError{
				Op: op, Bucket: bucket, Collected: len(items), Metrics: metrics, Err: err,
			}
		}

		metrics.ClassA++
		pg, err := fetch(ctx, token)
		if err != nil {
			return items, metrics, &errors.ListError{
				Op: op, Bucket: bucket, Collected: len(items), Metrics: metrics, Err: err,
			}
		}
		items = append(items, pg.items...)

		if !pg.truncated {
			return items, metrics, nil
		}
		if pg.nextToken == "" {
			return items, metrics, &errors.ListError{
				Op: op, Bucket: bucket, Collected: len(items), Metrics: metrics,
				Err: errors.ErrPaginationInconsistent,
			}
		}
		token = pg.nextToken
	}
}

// ObjectPage fetches a single page of objects. Exactly one Class A call is
// accrued, success or not; on failure the returned error carries it.
func (l *Lister) ObjectPage(
	ctx context.Context,
	bucket string,
	cfg ostypes.ListOptionConfig,
) (*ostypes.ListResult, error) {
	metrics := billing.OperationResult{ClassA: 1}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if cfg.Prefix != "" {
		input.Prefix = aws.String(cfg.Prefix)
	}
	if cfg.MaxKeys > 0 {
		input.MaxKeys = aws.Int32(min(cfg.MaxKeys, ostypes.MaxKeysPerPage))
	}
	if cfg.ContinuationToken != "" {
		input.ContinuationToken = aws.String(cfg.ContinuationToken)
	} else if cfg.StartAfter != "" {
		input.StartAfter = aws.String(cfg.StartAfter)
	}

	out, err := l.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, errors.NewError("list", err).WithBucket(bucket).WithMetrics(metrics)
	}

	result := &ostypes.ListResult{
		Objects:     make([]ostypes.Object, 0, len(out.Contents)),
		IsTruncated: aws.ToBool(out.IsTruncated),
		Metrics:     metrics,
	}
	for _, obj := range out.Contents {
		result.Objects = append(result.Objects, objectFromContents(obj))
	}
	if out.NextContinuationToken != nil {
		result.NextContinuationToken = *out.NextContinuationToken
	}
	return result, nil
}

// Objects drains every page of a bucket listing and returns all objects.
// On failure the objects collected before the failing page are returned
// alongside the error.
func (l *Lister) Objects(
	ctx context.Context,
	bucket, prefix string,
) ([]ostypes.Object, billing.OperationResult, error) {
	return collect(ctx, "listAllObjects", bucket,
		func(ctx context.Context, token string) (page[ostypes.Object], error) {
			input := &s3.ListObjectsV2Input{
				Bucket:  aws.String(bucket),
				MaxKeys: aws.Int32(ostypes.MaxKeysPerPage),
			}
			if prefix != "" {
				input.Prefix = aws.String(prefix)
			}
			if token != "" {
				input.ContinuationToken = aws.String(token)
			}

			out, err := l.client.ListObjectsV2(ctx, input)
			if err != nil {
				return page[ostypes.Object]{}, err
			}

			pg := page[ostypes.Object]{
				items:     make([]ostypes.Object, 0, len(out.Contents)),
				truncated: aws.ToBool(out.IsTruncated),
			}
			for _, obj := range out.Contents {
				pg.items = append(pg.items, objectFromContents(obj))
			}
			if out.NextContinuationToken != nil {
				pg.nextToken = *out.NextContinuationToken
			}
			return pg, nil
		})
}

// Parts drains every page of an open multipart upload's part listing.
// Parts are transient session state: they exist only until the upload is
// completed or aborted.
func (l *Lister) Parts(
	ctx context.Context,
	bucket, key, uploadID string,
) ([]ostypes.Part, billing.OperationResult, error) {
	return collect(ctx, "listParts", bucket,
		func(ctx context.Context, token string) (page[ostypes.Part], error) {
			input := &s3.ListPartsInput{
				Bucket:   aws.String(bucket),
				Key:      aws.String(key),
				UploadId: aws.String(uploadID),
			}
			if token != "" {
				input.PartNumberMarker = aws.String(token)
			}

			out, err := l.client.ListParts(ctx, input)
			if err != nil {
				return page[ostypes.Part]{}, err
			}

			pg := page[ostypes.Part]{
				items:     make([]ostypes.Part, 0, len(out.Parts)),
				truncated: aws.ToBool(out.IsTruncated),
			}
			for _, p := range out.Parts {
				pg.items = append(pg.items, ostypes.Part{
					PartNumber: aws.ToInt32(p.PartNumber),
					ETag:       aws.ToString(p.ETag),
					Size:       aws.ToInt64(p.Size),
				})
			}
			if out.NextPartNumberMarker != nil {
				pg.nextToken = *out.NextPartNumberMarker
			}
			return pg, nil
		})
}

func objectFromContents(obj s3types.Object) ostypes.Object {
	return ostypes.Object{
		Key:          aws.ToString(obj.Key),
		Size:         aws.ToInt64(obj.Size),
		LastModified: aws.ToTime(obj.LastModified),
		ETag:         aws.ToString(obj.ETag),
		StorageClass: string(obj.StorageClass),
	}
}
