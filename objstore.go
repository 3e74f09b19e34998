package objstore

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/strandcloud/objstore/billing"
	oserrors "github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/internal/pool"
	"github.com/strandcloud/objstore/internal/s3api"
	"github.com/strandcloud/objstore/internal/validation"
	"github.com/strandcloud/objstore/ostypes"
)

// Upload stores the contents of reader as bucket/key. The reader must be
// seekable; payloads below the multipart threshold go up in a single PUT and
// everything else through the multipart protocol. The protocol choice is an
// internal detail; the result and billing metrics describe what actually
// happened.
//
// The result's Metrics field reports every attempted call and ingress byte.
// On failure the returned error carries the partial metrics; extract them
// with errors.Metrics.
//
// Example:
//
//	f, _ := os.Open("backup.tar")
//	result, err := client.Upload(ctx, "backups", "2026/08/backup.tar", f)
//	if err != nil {
//	    return err
//	}
//	log.Printf("uploaded %d bytes, %d class A calls", result.Size, result.Metrics.ClassA)
func (c *Client) Upload(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	opts ...ostypes.UploadOption,
) (*ostypes.UploadResult, error) {
	if err := c.validateTarget("upload", bucket, key); err != nil {
		return nil, err
	}

	cfg := c.uploadConfig(opts)
	if cfg.ContentType == "" {
		cfg.ContentType = sniffContentType(key, reader)
	}

	start := time.Now()
	result, err := c.uploader.Upload(ctx, bucket, key, reader, cfg)
	if err != nil {
		return nil, c.fail(err)
	}
	result.Duration = time.Since(start)
	c.observe(result.Metrics)
	return result, nil
}

// UploadFile uploads a local file to bucket/key. The file is read through
// the client's filesystem abstraction, its size decides the upload protocol,
// and its content determines the content type unless WithContentType is set.
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...ostypes.UploadOption,
) (*ostypes.UploadResult, error) {
	if err := c.validateTarget("uploadFile", bucket, key); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, oserrors.NewValidationError("uploadFile",
			"file path cannot be empty", oserrors.ErrInvalidInput)
	}

	fsys := c.filesystem()
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, oserrors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
	}
	if info.IsDir() {
		return nil, oserrors.NewValidationError("uploadFile",
			"path points to a directory, not a file", oserrors.ErrInvalidInput)
	}

	cfg := c.uploadConfig(opts)
	if cfg.ContentType == "" {
		cfg.ContentType = c.detectContentType(path)
	}

	file, err := fsys.Open(path)
	if err != nil {
		return nil, oserrors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
	}
	defer func() { _ = file.Close() }()

	start := time.Now()
	result, err := c.uploader.Upload(ctx, bucket, key, file, cfg)
	if err != nil {
		return nil, c.fail(err)
	}
	result.Duration = time.Since(start)
	c.observe(result.Metrics)
	return result, nil
}

// Put stores data as bucket/key in a single PUT request regardless of size,
// up to the provider's single-request limit. Exactly one Class A call.
func (c *Client) Put(
	ctx context.Context,
	bucket, key string,
	data []byte,
	opts ...ostypes.UploadOption,
) (*ostypes.UploadResult, error) {
	if err := c.validateTarget("put", bucket, key); err != nil {
		return nil, err
	}

	cfg := c.uploadConfig(opts)
	if cfg.ContentType == "" {
		if mt := mimetype.Detect(data); mt != nil {
			cfg.ContentType = mt.String()
		} else {
			cfg.ContentType = DefaultContentType
		}
	}

	start := time.Now()
	result, err := c.uploader.Put(ctx, bucket, key, bytes.NewReader(data), cfg)
	if err != nil {
		return nil, c.fail(err)
	}
	result.Duration = time.Since(start)
	c.observe(result.Metrics)
	return result, nil
}

// Download retrieves bucket/key and streams the body into w without
// buffering the whole object. One Class B call; egress accrues per byte
// written, so a stream that fails partway reports what was transferred.
func (c *Client) Download(
	ctx context.Context,
	bucket, key string,
	w io.Writer,
) (*ostypes.DownloadResult, error) {
	if err := c.validateTarget("download", bucket, key); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := c.downloader.Download(ctx, bucket, key, w)
	if err != nil {
		return nil, c.fail(err)
	}
	result.Duration = time.Since(start)
	c.observe(result.Metrics)
	return result, nil
}

// DownloadFile downloads bucket/key into a local file, created or truncated
// through the client's filesystem abstraction.
func (c *Client) DownloadFile(
	ctx context.Context,
	bucket, key, path string,
) (*ostypes.DownloadResult, error) {
	if err := c.validateTarget("downloadFile", bucket, key); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, oserrors.NewValidationError("downloadFile",
			"file path cannot be empty", oserrors.ErrInvalidInput)
	}

	file, err := c.filesystem().Create(path)
	if err != nil {
		return nil, oserrors.NewError("downloadFile", err).WithBucket(bucket).WithKey(key)
	}
	defer func() { _ = file.Close() }()

	start := time.Now()
	result, err := c.downloader.Download(ctx, bucket, key, file)
	if err != nil {
		return nil, c.fail(err)
	}
	result.Duration = time.Since(start)
	c.observe(result.Metrics)
	return result, nil
}

// Get retrieves bucket/key fully into memory. Only use for objects known to
// be small; large objects belong in Download or DownloadFile. The returned
// DownloadResult carries the billing metrics.
func (c *Client) Get(
	ctx context.Context,
	bucket, key string,
) ([]byte, *ostypes.DownloadResult, error) {
	var buf bytes.Buffer
	result, err := c.Download(ctx, bucket, key, &buf)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), result, nil
}

// Exists reports whether bucket/key exists. Exactly one Class B call is
// accrued, found or not; a missing object is not an error.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if err := c.validateTarget("exists", bucket, key); err != nil {
		return false, err
	}

	metrics := billing.OperationResult{ClassB: 1}
	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	c.observe(metrics)
	if err != nil {
		if classified := s3api.Classify(err); oserrors.IsObjectNotFound(classified) {
			return false, nil
		}
		return false, oserrors.NewError("exists", s3api.Classify(err)).
			WithBucket(bucket).WithKey(key).WithMetrics(metrics)
	}
	return true, nil
}

// GetMetadata retrieves object metadata without the body. One Class B call.
func (c *Client) GetMetadata(
	ctx context.Context,
	bucket, key string,
) (*ostypes.ObjectMetadata, error) {
	if err := c.validateTarget("getMetadata", bucket, key); err != nil {
		return nil, err
	}

	metrics := billing.OperationResult{ClassB: 1}
	out, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, c.fail(oserrors.NewError("getMetadata", s3api.Classify(err)).
			WithBucket(bucket).WithKey(key).WithMetrics(metrics))
	}
	c.observe(metrics)

	return &ostypes.ObjectMetadata{
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
		LastModified:  aws.ToTime(out.LastModified),
		ETag:          aws.ToString(out.ETag),
		Metadata:      out.Metadata,
		Metrics:       metrics,
	}, nil
}

// List fetches one page of objects in bucket. Use WithPrefix, WithMaxKeys,
// WithStartAfter and WithContinuationToken to control the page; the result
// carries the token for the next one. One Class A call per page.
func (c *Client) List(
	ctx context.Context,
	bucket string,
	opts ...ostypes.ListOption,
) (*ostypes.ListResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}

	var cfg ostypes.ListOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	result, err := c.lister.ObjectPage(ctx, bucket, cfg)
	if err != nil {
		return nil, c.fail(err)
	}
	result.Duration = time.Since(start)
	c.observe(result.Metrics)
	return result, nil
}

// ListAll drains every page of a bucket listing and returns all objects
// under prefix (the whole bucket when prefix is empty). One Class A call per
// attempted page. On failure the objects collected before the failing page
// are returned alongside the error, which carries the accrued metrics.
func (c *Client) ListAll(
	ctx context.Context,
	bucket, prefix string,
) ([]ostypes.Object, billing.OperationResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, billing.OperationResult{}, err
	}

	objects, metrics, err := c.lister.Objects(ctx, bucket, prefix)
	c.observe(metrics)
	return objects, metrics, err
}

// ListParts lists the parts uploaded so far in an open multipart session.
// Parts are transient: they exist only until the session is completed or
// aborted. One Class A call per attempted page.
func (c *Client) ListParts(
	ctx context.Context,
	bucket, key, uploadID string,
) ([]ostypes.Part, billing.OperationResult, error) {
	if err := c.validateTarget("listParts", bucket, key); err != nil {
		return nil, billing.OperationResult{}, err
	}
	if uploadID == "" {
		return nil, billing.OperationResult{}, oserrors.NewValidationError("listParts",
			"upload ID cannot be empty", oserrors.ErrInvalidInput)
	}

	parts, metrics, err := c.lister.Parts(ctx, bucket, key, uploadID)
	c.observe(metrics)
	return parts, metrics, err
}

// Delete removes a single object. One Class A call. Deletion is idempotent:
// removing a key that does not exist succeeds.
func (c *Client) Delete(ctx context.Context, bucket, key string) (*ostypes.DeleteResult, error) {
	if err := c.validateTarget("delete", bucket, key); err != nil {
		return nil, err
	}

	start := time.Now()
	metrics := billing.OperationResult{ClassA: 1}
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, c.fail(oserrors.NewError("delete", s3api.Classify(err)).
			WithBucket(bucket).WithKey(key).WithMetrics(metrics))
	}
	c.observe(metrics)

	return &ostypes.DeleteResult{
		Deleted:  []string{key},
		Metrics:  metrics,
		Duration: time.Since(start),
	}, nil
}

// DeleteMany removes a set of keys using bulk delete requests of up to 1000
// keys each; each request is one Class A call no matter how many keys it
// carries. Duplicates are collapsed. On partial failure the result holds
// what succeeded and the error (a *errors.BatchError) names every failed
// key; the policy for continuing past failures is set with
// WithContinueOnError.
func (c *Client) DeleteMany(
	ctx context.Context,
	bucket string,
	keys []string,
	opts ...ostypes.DeleteOption,
) (*ostypes.DeleteResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}

	var cfg ostypes.DeleteOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	result, err := c.deleter.Delete(ctx, bucket, keys, cfg.ContinueOnError)
	result.Duration = time.Since(start)
	c.observe(result.Metrics)
	if err != nil {
		return result, err
	}
	return result, nil
}

// ClearBucket deletes every object in bucket, or under WithClearPrefix,
// by alternating listing pages with bulk deletes until the bucket is empty.
// A page in which nothing could be deleted terminates the loop rather than
// relisting the same keys forever.
func (c *Client) ClearBucket(
	ctx context.Context,
	bucket string,
	opts ...ostypes.DeleteOption,
) (*ostypes.ClearResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}

	var cfg ostypes.DeleteOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	result, err := c.clearer.Clear(ctx, bucket, cfg.Prefix, cfg.ContinueOnError)
	result.Duration = time.Since(start)
	c.observe(result.Metrics)
	if err != nil {
		return result, err
	}
	return result, nil
}

// Copy duplicates srcBucket/srcKey as dstBucket/dstKey server-side. The
// object bytes never pass through the client: one Class A call, no ingress,
// no egress.
func (c *Client) Copy(
	ctx context.Context,
	srcBucket, srcKey, dstBucket, dstKey string,
) (*ostypes.UploadResult, error) {
	if err := c.validateTarget("copy", srcBucket, srcKey); err != nil {
		return nil, err
	}
	if err := c.validateTarget("copy", dstBucket, dstKey); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := c.copier.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey)
	if err != nil {
		return nil, c.fail(err)
	}
	result.Duration = time.Since(start)
	c.observe(result.Metrics)
	return result, nil
}

// Move copies srcBucket/srcKey to dstBucket/dstKey server-side and then
// deletes the source: two Class A calls. A failed delete leaves both
// objects in place and is reported with the combined metrics.
func (c *Client) Move(
	ctx context.Context,
	srcBucket, srcKey, dstBucket, dstKey string,
) (*ostypes.UploadResult, error) {
	result, err := c.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey)
	if err != nil {
		return nil, err
	}

	delRes, err := c.Delete(ctx, srcBucket, srcKey)
	if err != nil {
		combined := result.Metrics.Add(oserrors.Metrics(err))
		return nil, oserrors.NewError("move", err).
			WithBucket(srcBucket).WithKey(srcKey).WithMetrics(combined).
			WithMessage("copied but failed to delete source")
	}
	result.Metrics = result.Metrics.Add(delRes.Metrics)
	return result, nil
}

// uploadConfig folds per-call upload options over the client defaults.
func (c *Client) uploadConfig(opts []ostypes.UploadOption) ostypes.UploadConfig {
	optCfg := ostypes.UploadOptionConfig{
		PartSize: c.cfg.PartSize,
	}
	for _, opt := range opts {
		opt(&optCfg)
	}
	return ostypes.UploadConfig{
		ContentType:  optCfg.ContentType,
		Metadata:     optCfg.Metadata,
		StorageClass: optCfg.StorageClass,
		PartSize:     optCfg.PartSize,
	}
}

// validateTarget checks a bucket/key pair before any network call. A
// rejection here means nothing was attempted and nothing was billed.
func (c *Client) validateTarget(op, bucket, key string) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return oserrors.NewError(op, err).WithBucket(bucket)
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return oserrors.NewError(op, err).WithBucket(bucket).WithKey(key)
	}
	return nil
}

// sniffContentType detects the content type of an upload source. Seekable
// sources are sniffed from their first bytes and rewound; everything else
// falls back to the key's extension.
func sniffContentType(key string, reader io.Reader) string {
	rs, ok := reader.(io.ReadSeeker)
	if !ok {
		return detectContentTypeFromExtension(key)
	}

	buf := pool.GetSmallBuffer()
	defer pool.PutSmallBuffer(buf)

	n, _ := rs.Read(buf[:sniffLen])
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return detectContentTypeFromExtension(key)
	}
	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil {
			return mt.String()
		}
	}
	return detectContentTypeFromExtension(key)
}
