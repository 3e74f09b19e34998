package ostypes

// Provider-documented size and count limits. These are contractual values
// of the storage service, reproduced exactly; do not tune them.
const (
	// MinPartSize is the smallest allowed multipart part (5 MiB).
	// Only the final part of an upload may be smaller.
	MinPartSize int64 = 5 * 1024 * 1024

	// MaxPartSize is the largest allowed multipart part (5 GiB).
	MaxPartSize int64 = 5 * 1024 * 1024 * 1024

	// DefaultPartSize is the part size used when the caller does not
	// request one (50 MiB).
	DefaultPartSize int64 = 50 * 1024 * 1024

	// MultipartThreshold is the payload size at and above which uploads
	// switch to the multipart protocol (50 MiB).
	MultipartThreshold int64 = 50 * 1024 * 1024

	// MaxMultipartObjectSize is the largest object a multipart upload can
	// produce (5 TiB).
	MaxMultipartObjectSize int64 = 5 * 1024 * 1024 * 1024 * 1024

	// MaxSinglePutSize is the largest payload accepted by a single PUT
	// (flat 5 GiB; the documented minus-one-part variant is not used).
	MaxSinglePutSize int64 = 5 * 1024 * 1024 * 1024

	// MaxKeysPerDelete is the largest key count per bulk-delete request.
	MaxKeysPerDelete = 1000

	// MaxPartsPerUpload is the largest part count per multipart upload.
	MaxPartsPerUpload = 10000

	// MaxKeysPerPage is the largest page size for listing requests.
	MaxKeysPerPage int32 = 1000
)
