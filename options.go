package objstore

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/rs/zerolog"

	"github.com/strandcloud/objstore/billing"
	"github.com/strandcloud/objstore/ostypes"
)

// Client options.

// WithAccount sets the account the client operates under. Together with the
// jurisdiction it determines the service endpoint.
func WithAccount(account string) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.Account = account
	}
}

// WithJurisdiction pins the client to a data-residency jurisdiction
// (e.g. "eu"). Empty means the default jurisdiction.
func WithJurisdiction(jurisdiction string) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.Jurisdiction = jurisdiction
	}
}

// WithEndpoint overrides the derived service endpoint. Useful for local
// S3-compatible stands.
func WithEndpoint(endpoint string) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithStaticCredentials configures a fixed access key pair.
func WithStaticCredentials(accessKeyID, secretAccessKey string) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.Credentials = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")
	}
}

// WithCredentials configures a custom credentials provider.
func WithCredentials(provider aws.CredentialsProvider) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.Credentials = provider
	}
}

// WithAWSConfig supplies a fully prepared SDK configuration, bypassing the
// default loading chain entirely.
func WithAWSConfig(cfg *aws.Config) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.CustomAWSConfig = cfg
	}
}

// WithMaxRetries sets the maximum number of retry attempts per call.
func WithMaxRetries(maxRetries int) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(timeout time.Duration) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client, taking precedence over
// WithTimeout.
func WithHTTPClient(client *http.Client) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.HTTPClient = client
	}
}

// WithForcePathStyle forces path-style addressing. Required by some
// S3-compatible services and most local stands.
func WithForcePathStyle(force bool) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.ForcePathStyle = force
	}
}

// WithPartSize sets the default multipart part size for uploads. Values
// outside the provider's range are clamped at upload time.
func WithPartSize(partSize int64) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.PartSize = partSize
	}
}

// WithFilesystem sets the filesystem used by file-based operations.
func WithFilesystem(filesystem fs.Filesystem) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the structured logger. Without one the client is silent.
func WithLogger(logger *zerolog.Logger) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithCollector wires a billing collector; every operation's footprint,
// including failed ones, is fed into it.
func WithCollector(collector *billing.Collector) ostypes.Option {
	return func(c *ostypes.ClientConfig) {
		c.Collector = collector
	}
}

// Upload options.

// WithContentType sets the content type explicitly, disabling detection.
func WithContentType(contentType string) ostypes.UploadOption {
	return func(c *ostypes.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata attaches user-defined metadata to the uploaded object.
func WithMetadata(metadata map[string]string) ostypes.UploadOption {
	return func(c *ostypes.UploadOptionConfig) {
		c.Metadata = metadata
	}
}

// WithStorageClass sets the storage class for the uploaded object.
func WithStorageClass(class ostypes.StorageClass) ostypes.UploadOption {
	return func(c *ostypes.UploadOptionConfig) {
		c.StorageClass = class
	}
}

// WithUploadPartSize overrides the client's part size for one upload.
func WithUploadPartSize(partSize int64) ostypes.UploadOption {
	return func(c *ostypes.UploadOptionConfig) {
		c.PartSize = partSize
	}
}

// List options.

// WithPrefix filters the listing to keys under prefix.
func WithPrefix(prefix string) ostypes.ListOption {
	return func(c *ostypes.ListOptionConfig) {
		c.Prefix = prefix
	}
}

// WithMaxKeys caps the page size (1-1000).
func WithMaxKeys(maxKeys int32) ostypes.ListOption {
	return func(c *ostypes.ListOptionConfig) {
		c.MaxKeys = maxKeys
	}
}

// WithStartAfter starts the listing after the given key. Ignored when a
// continuation token is set.
func WithStartAfter(startAfter string) ostypes.ListOption {
	return func(c *ostypes.ListOptionConfig) {
		c.StartAfter = startAfter
	}
}

// WithContinuationToken resumes a listing from a previous page's token.
func WithContinuationToken(token string) ostypes.ListOption {
	return func(c *ostypes.ListOptionConfig) {
		c.ContinuationToken = token
	}
}

// Delete and clear options.

// WithContinueOnError selects the partial-failure policy for bulk deletes
// and bucket clearing: true attempts everything and aggregates failures,
// false stops at the first failure. The default is false.
func WithContinueOnError(continueOnError bool) ostypes.DeleteOption {
	return func(c *ostypes.DeleteOptionConfig) {
		c.ContinueOnError = continueOnError
	}
}

// WithClearPrefix restricts bucket clearing to keys under prefix.
func WithClearPrefix(prefix string) ostypes.DeleteOption {
	return func(c *ostypes.DeleteOptionConfig) {
		c.Prefix = prefix
	}
}

// Presign options.

// WithPresignExpiry sets the lifetime of minted URLs. Non-positive values
// use the default of 15 minutes.
func WithPresignExpiry(expiry time.Duration) ostypes.PresignOption {
	return func(c *ostypes.PresignOptionConfig) {
		c.Expiry = expiry
	}
}
