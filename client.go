package objstore

import (
	"context"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/rs/zerolog"

	"github.com/strandcloud/objstore/billing"
	oserrors "github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/internal/operations/clear"
	copyops "github.com/strandcloud/objstore/internal/operations/copy"
	deleteops "github.com/strandcloud/objstore/internal/operations/delete"
	"github.com/strandcloud/objstore/internal/operations/download"
	"github.com/strandcloud/objstore/internal/operations/list"
	"github.com/strandcloud/objstore/internal/operations/upload"
	"github.com/strandcloud/objstore/internal/pool"
	"github.com/strandcloud/objstore/internal/presign"
	"github.com/strandcloud/objstore/internal/s3api"
	"github.com/strandcloud/objstore/ostypes"
)

// DefaultContentType is used when content-type detection fails.
const DefaultContentType = "application/octet-stream"

// sniffLen is how many leading bytes content sniffing reads.
const sniffLen = 512

// Client is a data-plane client for one account and jurisdiction.
// It is safe for concurrent use.
type Client struct {
	// api is the transport client, mockable in tests.
	api s3api.S3API

	// rawClient holds the actual SDK client for operations that need it.
	rawClient *s3.Client

	cfg ostypes.ClientConfig

	// mu protects the filesystem swap in SetFilesystem.
	mu sync.RWMutex

	// fs is the filesystem abstraction for file-based operations.
	fs fs.Filesystem

	log       zerolog.Logger
	collector *billing.Collector

	uploader   *upload.Uploader
	downloader *download.Downloader
	deleter    *deleteops.BatchDeleter
	lister     *list.Lister
	clearer    *clear.Clearer
	copier     *copyops.Copier
	signer     *presign.Generator
}

// New creates a client with the provided options. Credentials come from the
// default provider chain unless WithCredentials or WithAWSConfig override
// it. The service endpoint is derived from the account and jurisdiction when
// WithEndpoint does not name one explicitly.
//
// Example:
//
//	client, err := objstore.New(
//	    objstore.WithAccount("acme"),
//	    objstore.WithJurisdiction("eu"),
//	    objstore.WithMaxRetries(3),
//	)
func New(opts ...ostypes.Option) (*Client, error) {
	clientCfg := ostypes.ClientConfig{
		MaxRetries: 3,
		PartSize:   ostypes.DefaultPartSize,
	}
	for _, opt := range opts {
		opt(&clientCfg)
	}

	var cfg aws.Config
	var err error
	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		loadOpts := []func(*config.LoadOptions) error{
			// The service ignores the region for signing purposes; "auto"
			// is the conventional value for S3-compatible endpoints.
			config.WithRegion("auto"),
		}
		if clientCfg.Credentials != nil {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(clientCfg.Credentials))
		}
		cfg, err = config.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, oserrors.NewError("client initialization", err)
		}
	}

	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	var s3Opts []func(*s3.Options)
	if endpoint := resolveEndpoint(&clientCfg); endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if clientCfg.HTTPClient != nil {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = clientCfg.HTTPClient
		})
	} else if clientCfg.Timeout > 0 {
		httpClient := &http.Client{Timeout: clientCfg.Timeout}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	s3Client := s3.NewFromConfig(cfg, s3Opts...)
	client := newClient(s3Client, s3.NewPresignClient(s3Client), clientCfg)
	client.rawClient = s3Client
	return client, nil
}

// NewWithClient creates a client over a custom transport implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(api s3api.S3API, presigner s3api.PresignAPI, opts ...ostypes.Option) *Client {
	clientCfg := ostypes.ClientConfig{
		PartSize: ostypes.DefaultPartSize,
	}
	for _, opt := range opts {
		opt(&clientCfg)
	}
	return newClient(api, presigner, clientCfg)
}

func newClient(api s3api.S3API, presigner s3api.PresignAPI, cfg ostypes.ClientConfig) *Client {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().
			Str("component", "objstore").
			Str("account", cfg.Account).
			Logger()
	}

	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = billy.NewOSFS("/")
	}

	lister := list.New(api)
	deleter := deleteops.New(api, log)

	return &Client{
		api:        api,
		cfg:        cfg,
		fs:         filesystem,
		log:        log,
		collector:  cfg.Collector,
		uploader:   upload.New(api, log),
		downloader: download.New(api, log),
		deleter:    deleter,
		lister:     lister,
		clearer:    clear.New(lister, deleter, log),
		copier:     copyops.New(api),
		signer:     presign.New(presigner),
	}
}

// resolveEndpoint returns the endpoint to use, deriving one from the account
// and jurisdiction when none was set explicitly.
func resolveEndpoint(cfg *ostypes.ClientConfig) string {
	if cfg.Endpoint != "" {
		return cfg.Endpoint
	}
	if cfg.Account == "" {
		return ""
	}
	host := cfg.Account
	if cfg.Jurisdiction != "" {
		host += "." + cfg.Jurisdiction
	}
	return "https://" + host + ".r2.cloudflarestorage.com"
}

// SetFilesystem swaps the filesystem used by file-based operations.
// Useful for testing with an in-memory filesystem.
func (c *Client) SetFilesystem(filesystem fs.Filesystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = filesystem
}

func (c *Client) filesystem() fs.Filesystem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fs
}

// Close releases any resources held by the client.
// Currently a no-op but included for future extensibility.
func (c *Client) Close() error {
	return nil
}

// observe feeds an operation's billing footprint into the collector, if one
// is configured. Failed operations report their partial footprint too.
func (c *Client) observe(m billing.OperationResult) {
	if c.collector != nil {
		c.collector.Observe(m)
	}
}

// fail observes the partial metrics carried by err and returns it.
func (c *Client) fail(err error) error {
	c.observe(oserrors.Metrics(err))
	return err
}

// detectContentType determines the content type of a local file, preferring
// content sniffing and falling back to the extension.
func (c *Client) detectContentType(path string) string {
	fsys := c.filesystem()

	info, err := fsys.Stat(path)
	if err != nil || info.IsDir() {
		return detectContentTypeFromExtension(path)
	}

	file, err := fsys.Open(path)
	if err != nil {
		return detectContentTypeFromExtension(path)
	}
	defer func() { _ = file.Close() }()

	buf := pool.GetSmallBuffer()
	defer pool.PutSmallBuffer(buf)

	n, _ := file.Read(buf[:sniffLen])
	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil {
			return mt.String()
		}
	}
	return detectContentTypeFromExtension(path)
}

// detectContentTypeFromExtension falls back to extension-based detection for
// object keys or unreadable files.
func detectContentTypeFromExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}
