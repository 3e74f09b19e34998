// Package ostypes provides shared type definitions for the objstore module.
package ostypes

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/rs/zerolog"

	"github.com/strandcloud/objstore/billing"
)

// StorageClass represents the storage class for objects.
type StorageClass string

// Predefined storage classes.
const (
	// StorageClassStandard is the default storage class.
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassStandardIA provides infrequent access storage.
	StorageClassStandardIA StorageClass = "STANDARD_IA"
)

// Object represents a stored object with its basic metadata.
type Object struct {
	// Key is the object key (path).
	Key string

	// Size is the object size in bytes.
	Size int64

	// LastModified is when the object was last modified.
	LastModified time.Time

	// ETag is the entity tag the service assigned to the object.
	ETag string

	// StorageClass is the object's storage class.
	StorageClass string
}

// Part describes one completed part of a multipart upload. Parts exist only
// for the lifetime of a multipart session; the completion call consumes
// them and neither completion nor abort leaves any part behind.
type Part struct {
	// PartNumber is the 1-based position of the part.
	PartNumber int32

	// ETag is the entity tag the service assigned to the part.
	ETag string

	// Size is the part size in bytes.
	Size int64
}

// ObjectMetadata contains detailed metadata about a stored object.
type ObjectMetadata struct {
	// ContentType is the MIME type of the object.
	ContentType string

	// ContentLength is the size of the object in bytes.
	ContentLength int64

	// LastModified is when the object was last modified.
	LastModified time.Time

	// ETag is the entity tag for the object.
	ETag string

	// Metadata contains user-defined metadata.
	Metadata map[string]string

	// Metrics holds the billing units the lookup accrued.
	Metrics billing.OperationResult
}

// UploadConfig holds configuration for upload operations.
type UploadConfig struct {
	ContentType  string
	Metadata     map[string]string
	StorageClass StorageClass
	PartSize     int64
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Key is the object key that was uploaded.
	Key string

	// Size is the size of the uploaded object in bytes.
	Size int64

	// ETag is the entity tag for the uploaded object.
	ETag string

	// VersionID is the version ID if versioning is enabled.
	VersionID string

	// Metrics holds the billing units the upload accrued.
	Metrics billing.OperationResult

	// Duration is how long the upload took.
	Duration time.Duration
}

// DownloadResult contains the result of a download operation.
type DownloadResult struct {
	// Key is the object key that was downloaded.
	Key string

	// Size is the size of the downloaded object in bytes.
	Size int64

	// ETag is the entity tag for the downloaded object.
	ETag string

	// Metrics holds the billing units the download accrued.
	Metrics billing.OperationResult

	// Duration is how long the download took.
	Duration time.Duration
}

// DeleteResult contains the result of a bulk delete operation. On partial
// failure it is returned alongside a BatchError and holds whatever
// succeeded plus the full accrued metrics.
type DeleteResult struct {
	// Deleted holds the keys the service confirmed as deleted.
	Deleted []string

	// Metrics holds the billing units accrued across all batches.
	Metrics billing.OperationResult

	// Duration is how long the operation took.
	Duration time.Duration
}

// ClearResult contains the result of a bucket-clearing operation.
type ClearResult struct {
	// Deleted is the number of objects removed.
	Deleted int

	// Pages is the number of listing pages processed.
	Pages int

	// Metrics holds the billing units accrued across the whole loop.
	Metrics billing.OperationResult

	// Duration is how long the operation took.
	Duration time.Duration
}

// ListResult contains one page of a listing operation.
type ListResult struct {
	// Objects contains the listed objects.
	Objects []Object

	// IsTruncated indicates whether more results exist.
	IsTruncated bool

	// NextContinuationToken is the token for the next page.
	NextContinuationToken string

	// Metrics holds the billing units the listing accrued.
	Metrics billing.OperationResult

	// Duration is how long the operation took.
	Duration time.Duration
}

// PresignedRequest is a signed, time-limited request a client may execute
// without holding credentials. The caller must send exactly the signed
// method, URL and headers or the service rejects the request.
type PresignedRequest struct {
	// URL is the signed request URL, including query-string auth.
	URL string

	// Method is the HTTP method the signature covers.
	Method string

	// SignedHeader holds headers covered by the signature. The request
	// must carry these values verbatim.
	SignedHeader http.Header
}

// Configuration types for functional options.

// ClientConfig holds configuration for the objstore client.
type ClientConfig struct {
	Account         string
	Jurisdiction    string
	Endpoint        string
	MaxRetries      int
	Timeout         time.Duration
	PartSize        int64
	ForcePathStyle  bool
	CustomAWSConfig *aws.Config
	HTTPClient      *http.Client
	Credentials     aws.CredentialsProvider
	Filesystem      fs.Filesystem
	Logger          *zerolog.Logger
	Collector       *billing.Collector
}

// UploadOptionConfig holds per-upload configuration via functional options.
type UploadOptionConfig struct {
	ContentType  string
	Metadata     map[string]string
	StorageClass StorageClass
	PartSize     int64
}

// ListOptionConfig holds per-listing configuration via functional options.
type ListOptionConfig struct {
	Prefix            string
	MaxKeys           int32
	StartAfter        string
	ContinuationToken string
}

// DeleteOptionConfig holds per-delete configuration via functional options.
type DeleteOptionConfig struct {
	// ContinueOnError selects the partial-failure policy: true processes
	// every batch and aggregates all failures; false stops at the first
	// failing batch.
	ContinueOnError bool

	// Prefix restricts bucket clearing to keys under this prefix.
	// Ignored by DeleteMany.
	Prefix string
}

// PresignOptionConfig holds per-presign configuration.
type PresignOptionConfig struct {
	Expiry time.Duration
}

// Option is a functional option for configuring the client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for upload operations.
	UploadOption func(*UploadOptionConfig)
	// ListOption is a functional option for list operations.
	ListOption func(*ListOptionConfig)
	// DeleteOption is a functional option for bulk delete and clear operations.
	DeleteOption func(*DeleteOptionConfig)
	// PresignOption is a functional option for presigning operations.
	PresignOption func(*PresignOptionConfig)
)
