// Package delete implements bulk object deletion.
//
// The service accepts at most 1000 keys per delete request and bills each
// request as a single Class A call regardless of how many keys it carries.
// Batching therefore matters for cost: 2500 keys cost three calls, not 2500.
package delete

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/strandcloud/objstore/billing"
	"github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/internal/s3api"
	"github.com/strandcloud/objstore/ostypes"
)

// BatchDeleter performs bulk delete operations.
type BatchDeleter struct {
	client s3api.S3API
	log    zerolog.Logger
}

// New creates a BatchDeleter with the given transport client.
func New(client s3api.S3API, log zerolog.Logger) *BatchDeleter {
	return &BatchDeleter{client: client, log: log}
}

// Delete removes the given keys from bucket, splitting them into requests of
// at most ostypes.MaxKeysPerDelete keys. Duplicate keys are collapsed before
// batching. An empty key set is a no-op costing nothing.
//
// Each batch accrues one Class A call before it is issued. When a whole
// request fails at the transport level, every key in it is recorded as
// failed. With continueOnError true every batch is attempted and all
// failures are aggregated into one *errors.BatchError; with false the first
// failing batch ends the operation, leaving later batches unattempted and
// unbilled.
//
// The returned DeleteResult is non-nil even on error and holds the confirmed
// deletions plus the full accrued metrics.
func (d *BatchDeleter) Delete(
	ctx context.Context,
	bucket string,
	keys []string,
	continueOnError bool,
) (*ostypes.DeleteResult, error) {
	result := &ostypes.DeleteResult{}

	unique := dedupe(keys)
	if len(unique) == 0 {
		return result, nil
	}

	var (
		failedKeys []string
		failedSeen = make(map[string]struct{})
		causes     []error
	)
	recordFailure := func(key string, cause error) {
		if _, ok := failedSeen[key]; ok {
			return
		}
		failedSeen[key] = struct{}{}
		failedKeys = append(failedKeys, key)
		if cause != nil {
			causes = append(causes, cause)
		}
	}

	for start := 0; start < len(unique); start += ostypes.MaxKeysPerDelete {
		if err := ctx.Err(); err != nil {
			causes = append(causes, err)
			return result, &errors.BatchError{
				Op: "deleteMany", Bucket: bucket,
				FailedKeys: failedKeys, Metrics: result.Metrics, Causes: causes,
			}
		}

		end := min(start+ostypes.MaxKeysPerDelete, len(unique))
		batch := unique[start:end]

		objects := make([]s3types.ObjectIdentifier, len(batch))
		for i, key := range batch {
			objects[i] = s3types.ObjectIdentifier{Key: aws.String(key)}
		}

		result.Metrics.ClassA++
		out, err := d.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(false),
			},
		})
		if err != nil {
			// The whole request failed; every key in it failed with it.
			for _, key := range batch {
				recordFailure(key, nil)
			}
			causes = append(causes, err)
			d.log.Warn().Err(err).Str("bucket", bucket).Int("keys", len(batch)).
				Msg("delete batch failed")
			if !continueOnError {
				return result, &errors.BatchError{
					Op: "deleteMany", Bucket: bucket,
					FailedKeys: failedKeys, Metrics: result.Metrics, Causes: causes,
				}
			}
			continue
		}

		for _, deleted := range out.Deleted {
			result.Deleted = append(result.Deleted, aws.ToString(deleted.Key))
		}
		for _, keyErr := range out.Errors {
			key := aws.ToString(keyErr.Key)
			recordFailure(key, fmt.Errorf("delete %s: %s: %s",
				key, aws.ToString(keyErr.Code), aws.ToString(keyErr.Message)))
		}
		if len(out.Errors) > 0 && !continueOnError {
			return result, &errors.BatchError{
				Op: "deleteMany", Bucket: bucket,
				FailedKeys: failedKeys, Metrics: result.Metrics, Causes: causes,
			}
		}
	}

	if len(failedKeys) > 0 {
		return result, &errors.BatchError{
			Op: "deleteMany", Bucket: bucket,
			FailedKeys: failedKeys, Metrics: result.Metrics, Causes: causes,
		}
	}
	return result, nil
}

// Metrics returns the billing footprint of deleting n distinct keys without
// performing the deletion. Useful for cost estimation.
func Metrics(n int) billing.OperationResult {
	if n <= 0 {
		return billing.OperationResult{}
	}
	batches := (n + ostypes.MaxKeysPerDelete - 1) / ostypes.MaxKeysPerDelete
	return billing.OperationResult{ClassA: uint64(batches)}
}

// dedupe collapses duplicate keys, preserving first-seen order, and drops
// empty keys.
func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
