// Package clear implements bucket clearing: repeatedly list a page of
// objects and bulk-delete it until the bucket (or prefix) is empty.
//
// Clearing is not atomic. Objects written concurrently may survive, and a
// page listed at the start may be partially gone by the time it is deleted;
// bulk delete treats missing keys as deleted, so that is harmless.
package clear

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/strandcloud/objstore/errors"
	deleteops "github.com/strandcloud/objstore/internal/operations/delete"
	"github.com/strandcloud/objstore/internal/operations/list"
	"github.com/strandcloud/objstore/ostypes"
)

// Clearer empties buckets page by page.
type Clearer struct {
	lister  *list.Lister
	deleter *deleteops.BatchDeleter
	log     zerolog.Logger
}

// New creates a Clearer from a lister and a batch deleter.
func New(lister *list.Lister, deleter *deleteops.BatchDeleter, log zerolog.Logger) *Clearer {
	return &Clearer{lister: lister, deleter: deleter, log: log}
}

// Clear deletes every object under prefix in bucket. An empty prefix clears
// the whole bucket. Each iteration lists one page (one Class A call) and
// bulk-deletes its keys; the loop runs until a page comes back empty and
// untruncated.
//
// With continueOnError true, per-key failures are collected and the loop
// moves on; with false the first failure ends the operation. Either way, a
// page in which every key failed to delete terminates the loop immediately:
// relisting would return the same keys and the loop would never finish.
//
// The returned ClearResult is non-nil even on error and carries the deletion
// count, page count and full accrued metrics.
func (c *Clearer) Clear(
	ctx context.Context,
	bucket, prefix string,
	continueOnError bool,
) (*ostypes.ClearResult, error) {
	result := &ostypes.ClearResult{}

	var (
		failedKeys []string
		failedSeen = make(map[string]struct{})
		causes     []error
	)
	merge := func(keys []string, errs []error) {
		for _, key := range keys {
			if _, ok := failedSeen[key]; ok {
				continue
			}
			failedSeen[key] = struct{}{}
			failedKeys = append(failedKeys, key)
		}
		causes = append(causes, errs...)
	}
	aggregate := func(cause error) error {
		if cause != nil {
			causes = append(causes, cause)
		}
		return &errors.BatchError{
			Op: "clearBucket", Bucket: bucket,
			FailedKeys: failedKeys, Metrics: result.Metrics, Causes: causes,
		}
	}

	token := ""
	for {
		if err := ctx.Err(); err != nil {
			return result, aggregate(err)
		}

		page, err := c.lister.ObjectPage(ctx, bucket, ostypes.ListOptionConfig{
			Prefix:            prefix,
			MaxKeys:           ostypes.MaxKeysPerPage,
			ContinuationToken: token,
		})
		if err != nil {
			// The failed page was still attempted and billed.
			result.Metrics = result.Metrics.Add(errors.Metrics(err))
			return result, aggregate(fmt.Errorf("listing page %d: %w", result.Pages+1, err))
		}
		result.Pages++
		result.Metrics = result.Metrics.Add(page.Metrics)

		if len(page.Objects) == 0 {
			if !page.IsTruncated {
				break
			}
			// An empty page may still be truncated; follow its token like
			// any other page. Only a missing token is inconsistent.
			if page.NextContinuationToken == "" {
				return result, aggregate(errors.ErrPaginationInconsistent)
			}
			token = page.NextContinuationToken
			continue
		}

		keys := make([]string, len(page.Objects))
		for i, obj := range page.Objects {
			keys[i] = obj.Key
		}

		del, delErr := c.deleter.Delete(ctx, bucket, keys, continueOnError)
		result.Deleted += len(del.Deleted)
		result.Metrics = result.Metrics.Add(del.Metrics)

		if delErr != nil {
			var batchErr *errors.BatchError
			if !stderrors.As(delErr, &batchErr) {
				return result, aggregate(delErr)
			}
			merge(batchErr.FailedKeys, batchErr.Causes)
			if !continueOnError {
				return result, aggregate(nil)
			}
			if len(batchErr.FailedKeys) == len(keys) {
				// Nothing in this page went away; relisting would loop forever.
				c.log.Warn().Str("bucket", bucket).Int("keys", len(keys)).
					Msg("entire page failed to delete, abandoning clear")
				return result, aggregate(nil)
			}
		}

		if !page.IsTruncated {
			break
		}
		if page.NextContinuationToken == "" {
			return result, aggregate(errors.ErrPaginationInconsistent)
		}
		token = page.NextContinuationToken
	}

	if len(failedKeys) > 0 {
		return result, aggregate(nil)
	}
	return result, nil
}
