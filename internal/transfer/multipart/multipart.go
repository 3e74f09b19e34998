// Package multipart implements the multipart upload protocol.
//
// A multipart upload is a session: initiate, upload parts at fixed offsets,
// then complete. Completion stitches the parts into one object and discards
// the session; abort discards the session and every uploaded part. A session
// that is neither completed nor aborted keeps accumulating stored-part
// charges on the service side, so the coordinator aborts on any transport
// failure rather than leaving the session dangling.
//
// Cancellation is the one deliberate exception: a cancelled context returns
// without aborting, whether the cancellation is observed between parts or
// surfaces as an in-flight call's own error, because the caller may intend
// to resume. The upload ID is included in the error message so the session
// can be aborted or resumed out of band.
package multipart

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/strandcloud/objstore/billing"
	"github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/internal/s3api"
	"github.com/strandcloud/objstore/internal/validation"
	"github.com/strandcloud/objstore/ostypes"
)

// sessionState tracks where a multipart session is in its lifecycle.
type sessionState int

const (
	stateInitiating sessionState = iota
	stateUploadingParts
	stateCompleting
	stateDone
	stateAborting
	stateFailed
)

func (s sessionState) String() string {
	switch s {
	case stateInitiating:
		return "initiating"
	case stateUploadingParts:
		return "uploading-parts"
	case stateCompleting:
		return "completing"
	case stateDone:
		return "done"
	case stateAborting:
		return "aborting"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Coordinator drives multipart upload sessions.
type Coordinator struct {
	client s3api.S3API
	log    zerolog.Logger
}

// New creates a Coordinator with the given transport client.
func New(client s3api.S3API, log zerolog.Logger) *Coordinator {
	return &Coordinator{client: client, log: log}
}

// session is the in-flight state of one multipart upload.
type session struct {
	bucket   string
	key      string
	uploadID string
	parts    []s3types.CompletedPart
	metrics  billing.OperationResult
	state    sessionState
}

// Upload stores src as bucket/key via the multipart protocol. totalSize must
// be the exact source length; parts are cut at cfg.PartSize (clamped to the
// provider's range) and the final part carries the remainder.
//
// Billing: initiate, each part, complete, and abort are one Class A call
// each, accrued before the call is issued. Ingress accrues per part as it is
// attempted; on success the total is reconciled to exactly totalSize.
//
// On transport failure the session is aborted best-effort and the original
// cause is returned with the metrics accrued so far (including the abort
// attempt). On context cancellation the session is left open; see the
// package comment.
func (c *Coordinator) Upload(
	ctx context.Context,
	bucket, key string,
	src io.ReadSeeker,
	totalSize int64,
	cfg ostypes.UploadConfig,
) (*ostypes.UploadResult, error) {
	partSize := validation.ClampPartSize(cfg.PartSize)
	if err := validation.ValidateMultipartSize("upload", totalSize, partSize); err != nil {
		return nil, err
	}
	numParts := validation.PartCount(totalSize, partSize)

	sess := &session{bucket: bucket, key: key, state: stateInitiating}

	if err := c.initiate(ctx, sess, cfg); err != nil {
		// Nothing to abort: no session exists unless initiation succeeded.
		sess.state = stateFailed
		return nil, errors.NewError("upload", err).
			WithBucket(bucket).WithKey(key).WithMetrics(sess.metrics)
	}

	c.log.Debug().Str("bucket", bucket).Str("key", key).
		Str("upload_id", sess.uploadID).Int("parts", numParts).
		Int64("part_size", partSize).Msg("multipart upload initiated")

	sess.state = stateUploadingParts
	for partNum := 1; partNum <= numParts; partNum++ {
		if err := ctx.Err(); err != nil {
			return nil, c.leaveOpen(sess, err)
		}

		offset := int64(partNum-1) * partSize
		length := partSize
		if remaining := totalSize - offset; remaining < length {
			length = remaining
		}

		if err := c.uploadPart(ctx, sess, src, int32(partNum), offset, length); err != nil {
			if cancelled(ctx, err) {
				return nil, c.leaveOpen(sess, err)
			}
			return nil, c.abortAndWrap(ctx, sess, err)
		}
	}

	sess.state = stateCompleting
	etag, err := c.complete(ctx, sess)
	if err != nil {
		if cancelled(ctx, err) {
			return nil, c.leaveOpen(sess, err)
		}
		return nil, c.abortAndWrap(ctx, sess, err)
	}
	sess.state = stateDone

	// Per-part accounting already sums to totalSize; pin it explicitly so a
	// successful upload always reports exactly the payload length.
	sess.metrics.IngressBytes = totalSize

	return &ostypes.UploadResult{
		Key:     key,
		Size:    totalSize,
		ETag:    etag,
		Metrics: sess.metrics,
	}, nil
}

// initiate opens the multipart session and records its upload ID.
func (c *Coordinator) initiate(ctx context.Context, sess *session, cfg ostypes.UploadConfig) error {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(sess.bucket),
		Key:    aws.String(sess.key),
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

	sess.metrics.ClassA++
	out, err := c.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return fmt.Errorf("initiating multipart upload: %w", s3api.Classify(err))
	}
	sess.uploadID = aws.ToString(out.UploadId)
	return nil
}

// uploadPart sends one part cut from src at the given offset. The Class A
// call and the part's ingress are accrued before the request is issued.
func (c *Coordinator) uploadPart(
	ctx context.Context,
	sess *session,
	src io.ReadSeeker,
	partNum int32,
	offset, length int64,
) error {
	if _, err := src.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to part %d at offset %d: %w", partNum, offset, err)
	}

	sess.metrics.ClassA++
	sess.metrics.IngressBytes += length
	out, err := c.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(sess.bucket),
		Key:           aws.String(sess.key),
		UploadId:      aws.String(sess.uploadID),
		PartNumber:    aws.Int32(partNum),
		Body:          io.LimitReader(src, length),
		ContentLength: aws.Int64(length),
	})
	if err != nil {
		return fmt.Errorf("uploading part %d: %w", partNum, err)
	}

	sess.parts = append(sess.parts, s3types.CompletedPart{
		ETag:       out.ETag,
		PartNumber: aws.Int32(partNum),
	})
	return nil
}

// complete stitches the uploaded parts into the final object.
func (c *Coordinator) complete(ctx context.Context, sess *session) (string, error) {
	sess.metrics.ClassA++
	out, err := c.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(sess.bucket),
		Key:      aws.String(sess.key),
		UploadId: aws.String(sess.uploadID),
		MultipartUpload: &s3types.CompletedMultipartUpload{
			Parts: sess.parts,
		},
	})
	if err != nil {
		return "", fmt.Errorf("completing multipart upload: %w", err)
	}
	return aws.ToString(out.ETag), nil
}

// cancelled reports whether err stems from the caller's context rather than
// the transport. A cancellation observed mid-call looks like any other call
// failure, so the triggering error is inspected alongside the context.
func cancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, context.DeadlineExceeded)
}

// leaveOpen returns cause with the accrued metrics, deliberately without
// aborting: the caller may resume. The upload ID is surfaced so the session
// can be dealt with out of band.
func (c *Coordinator) leaveOpen(sess *session, cause error) error {
	return errors.NewError("upload", cause).
		WithBucket(sess.bucket).WithKey(sess.key).WithMetrics(sess.metrics).
		WithMessage(fmt.Sprintf("cancelled with multipart session %s open", sess.uploadID))
}

// abortAndWrap aborts the session best-effort and returns cause wrapped with
// the session's full metrics. The abort attempt itself is billed. An abort
// failure is logged, never returned: the original cause always wins.
func (c *Coordinator) abortAndWrap(ctx context.Context, sess *session, cause error) error {
	sess.state = stateAborting
	sess.metrics.ClassA++

	// The triggering context may already be dead; abort with a fresh one so
	// cleanup still reaches the service.
	abortCtx := ctx
	if ctx.Err() != nil {
		abortCtx = context.WithoutCancel(ctx)
	}

	_, abortErr := c.client.AbortMultipartUpload(abortCtx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(sess.bucket),
		Key:      aws.String(sess.key),
		UploadId: aws.String(sess.uploadID),
	})
	if abortErr != nil {
		c.log.Warn().Err(abortErr).
			Str("bucket", sess.bucket).Str("key", sess.key).
			Str("upload_id", sess.uploadID).
			Str("state", sess.state.String()).
			Msg("failed to abort multipart upload, session left dangling")
	}
	sess.state = stateFailed

	return errors.NewError("upload", cause).
		WithBucket(sess.bucket).WithKey(sess.key).WithMetrics(sess.metrics)
}
