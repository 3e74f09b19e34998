// Package errors provides the error taxonomy for object storage operations.
//
// Four kinds of failure exist. A ValidationError is a pre-flight contract
// violation: no network call was issued and no billing units were accrued.
// An Error is a single failed call carrying the billing units accrued up to
// the failure. A BatchError reports a multi-item call in which some items
// failed. A ListError reports a paginated listing that failed mid-stream;
// the items gathered before the failure are returned alongside it by the
// operation, never discarded.
package errors

import (
	"errors"
	"fmt"

	"github.com/strandcloud/objstore/billing"
)

// Error represents a failed storage call with context about the operation.
// Metrics holds the billing units accrued before and including the failed
// attempt, so callers can account for partially executed operations.
type Error struct {
	// Op is the operation that failed (e.g. "upload", "deleteMany").
	Op string

	// Bucket is the bucket name (if applicable).
	Bucket string

	// Key is the object key (if applicable).
	Key string

	// Metrics holds the billing units accrued up to the failure.
	Metrics billing.OperationResult

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("objstore.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("objstore.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("objstore.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("objstore.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMetrics attaches the billing units accrued up to the failure.
func (e *Error) WithMetrics(m billing.OperationResult) *Error {
	e.Metrics = m
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// ValidationError reports a pre-flight contract violation. By definition no
// network call was issued, so it never carries billing units.
type ValidationError struct {
	// Op is the operation whose input was rejected.
	Op string

	// Reason describes the violated constraint.
	Reason string

	// Err is the sentinel classifying the violation.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("objstore.%s: %s", e.Op, e.Reason)
}

// Unwrap returns the sentinel for errors.Is checks.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError classified by sentinel.
func NewValidationError(op, reason string, sentinel error) *ValidationError {
	return &ValidationError{Op: op, Reason: reason, Err: sentinel}
}

// BatchError reports a multi-item call in which some but not all items
// succeeded. Successful items contribute only to Metrics; FailedKeys holds
// every failed key exactly once, in first-seen order.
type BatchError struct {
	// Op is the operation that failed.
	Op string

	// Bucket is the bucket the batch targeted.
	Bucket string

	// FailedKeys holds the deduplicated keys that failed.
	FailedKeys []string

	// Metrics holds the billing units accrued across all attempted batches.
	Metrics billing.OperationResult

	// Causes holds the underlying per-batch and per-key errors.
	Causes []error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	return fmt.Sprintf("objstore.%s bucket %s: %d object(s) failed: %v",
		e.Op, e.Bucket, len(e.FailedKeys), errors.Join(e.Causes...))
}

// Unwrap exposes the causes for errors.Is/As matching.
func (e *BatchError) Unwrap() []error {
	return e.Causes
}

// ListError reports a paginated listing that failed mid-stream. The partial
// collection gathered before the failure is returned by the operation
// alongside this error; Collected records its length.
type ListError struct {
	// Op is the listing operation that failed.
	Op string

	// Bucket is the bucket being listed.
	Bucket string

	// Collected is the number of items gathered before the failure.
	Collected int

	// Metrics holds the billing units accrued across all attempted pages.
	Metrics billing.OperationResult

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ListError) Error() string {
	return fmt.Sprintf("objstore.%s bucket %s: failed after %d item(s): %v",
		e.Op, e.Bucket, e.Collected, e.Err)
}

// Unwrap returns the underlying error.
func (e *ListError) Unwrap() error {
	return e.Err
}

// Sentinel errors for common failures. Use errors.Is to test for them.
var (
	// ErrObjectNotFound indicates that the requested object does not exist.
	ErrObjectNotFound = errors.New("objstore: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist.
	ErrBucketNotFound = errors.New("objstore: bucket not found")

	// ErrAccessDenied indicates that access to the resource is denied.
	ErrAccessDenied = errors.New("objstore: access denied")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("objstore: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid.
	ErrInvalidBucketName = errors.New("objstore: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid.
	ErrInvalidObjectKey = errors.New("objstore: invalid object key")

	// ErrObjectTooLarge indicates a payload over the multipart object limit.
	ErrObjectTooLarge = errors.New("objstore: object exceeds the maximum multipart object size")

	// ErrTooManyParts indicates a part layout over the per-upload part limit.
	ErrTooManyParts = errors.New("objstore: part count exceeds the per-upload limit")

	// ErrUnseekableSource indicates a multipart source that cannot seek.
	// Multipart uploads place each part at an offset; a source that cannot
	// seek would have to be buffered whole, which the client refuses to do.
	ErrUnseekableSource = errors.New("objstore: multipart upload requires a seekable source")

	// ErrInvalidPartLayout indicates part sizes violating the uniformity
	// contract for presigned part URLs.
	ErrInvalidPartLayout = errors.New("objstore: part sizes violate the uniformity contract")

	// ErrPaginationInconsistent indicates a truncated listing response that
	// omitted its continuation marker. Retrying would refetch the same page
	// forever, so the listing is abandoned instead.
	ErrPaginationInconsistent = errors.New("objstore: truncated listing without a continuation marker")
)

// IsObjectNotFound reports whether err indicates a missing object.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsBucketNotFound reports whether err indicates a missing bucket.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// IsValidation reports whether err is a pre-flight validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Metrics extracts the partial billing units carried by err, if any.
// It understands all error types of this package; any other error yields a
// zero result.
func Metrics(err error) billing.OperationResult {
	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr.Metrics
	}
	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		return batchErr.Metrics
	}
	var listErr *ListError
	if errors.As(err, &listErr) {
		return listErr.Metrics
	}
	return billing.OperationResult{}
}
