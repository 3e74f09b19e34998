// Package validation provides centralized input validation logic.
// This covers bucket names, object keys, and the provider's size contracts
// for multipart uploads and presigned part batches.
//
// Everything here runs before any network call: a validation failure means
// nothing was attempted and no billing units were accrued.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/ostypes"
)

// ValidateBucketName validates that a bucket name is DNS-compliant.
// Returns ErrInvalidBucketName if the bucket name is invalid.
func ValidateBucketName(bucket string) error {
	if bucket == "" {
		return errors.NewValidationError("validateBucketName",
			"bucket name cannot be empty", errors.ErrInvalidBucketName)
	}
	if len(bucket) < 3 || len(bucket) > 63 {
		return errors.NewValidationError("validateBucketName",
			"bucket name must be between 3 and 63 characters long", errors.ErrInvalidBucketName)
	}
	for _, char := range bucket {
		if !isValidBucketChar(char) {
			return errors.NewValidationError("validateBucketName",
				"bucket name can only contain lowercase letters, numbers, dots, and hyphens",
				errors.ErrInvalidBucketName)
		}
	}
	if bucket[0] == '-' || bucket[0] == '.' || bucket[len(bucket)-1] == '-' || bucket[len(bucket)-1] == '.' {
		return errors.NewValidationError("validateBucketName",
			"bucket name cannot start or end with a hyphen or dot", errors.ErrInvalidBucketName)
	}
	if hasAdjacentSpecialChars(bucket) {
		return errors.NewValidationError("validateBucketName",
			"bucket name cannot contain two adjacent periods or hyphens", errors.ErrInvalidBucketName)
	}
	return nil
}

// ValidateObjectKey validates that an object key is acceptable.
// This includes preventing path traversal and control characters.
func ValidateObjectKey(key string) error {
	if key == "" {
		return errors.NewValidationError("validateObjectKey",
			"object key cannot be empty", errors.ErrInvalidObjectKey)
	}
	if hasPathTraversal(key) {
		return errors.NewValidationError("validateObjectKey",
			"object key cannot contain path traversal sequences", errors.ErrInvalidObjectKey)
	}
	if len(key) > 1024 {
		return errors.NewValidationError("validateObjectKey",
			"object key cannot exceed 1024 characters", errors.ErrInvalidObjectKey)
	}
	for _, char := range key {
		if unicode.IsControl(char) {
			return errors.NewValidationError("validateObjectKey",
				"object key cannot contain control characters", errors.ErrInvalidObjectKey)
		}
	}
	return nil
}

// ClampPartSize maps a requested multipart part size onto the provider's
// allowed range. Zero or negative requests yield the default part size.
func ClampPartSize(requested int64) int64 {
	switch {
	case requested <= 0:
		return ostypes.DefaultPartSize
	case requested < ostypes.MinPartSize:
		return ostypes.MinPartSize
	case requested > ostypes.MaxPartSize:
		return ostypes.MaxPartSize
	default:
		return requested
	}
}

// PartCount returns ceil(totalSize / partSize), with a minimum of one part.
func PartCount(totalSize, partSize int64) int {
	if totalSize <= 0 {
		return 1
	}
	return int((totalSize + partSize - 1) / partSize)
}

// ValidateMultipartSize rejects payloads the multipart protocol cannot
// store and part layouts that exceed the per-upload part limit.
func ValidateMultipartSize(op string, totalSize, partSize int64) error {
	if totalSize > ostypes.MaxMultipartObjectSize {
		return errors.NewValidationError(op,
			fmt.Sprintf("object size %s exceeds the %s multipart limit",
				humanize.IBytes(uint64(totalSize)), humanize.IBytes(uint64(ostypes.MaxMultipartObjectSize))),
			errors.ErrObjectTooLarge)
	}
	if n := PartCount(totalSize, partSize); n > ostypes.MaxPartsPerUpload {
		return errors.NewValidationError(op,
			fmt.Sprintf("%d parts of %s exceed the %d-part limit",
				n, humanize.IBytes(uint64(partSize)), ostypes.MaxPartsPerUpload),
			errors.ErrTooManyParts)
	}
	return nil
}

// ValidatePartLayout enforces the provider's size-uniformity contract for a
// batch of presigned part URLs: every part except the last must share one
// identical size, that uniform size must lie in [MinPartSize, MaxPartSize],
// and the last part must be positive, no larger than the uniform size, and
// no larger than MaxPartSize. A single-part layout only needs to fit within
// MaxPartSize.
func ValidatePartLayout(op string, sizes []int64) error {
	n := len(sizes)
	if n == 0 {
		return errors.NewValidationError(op, "part layout cannot be empty", errors.ErrInvalidPartLayout)
	}
	if n > ostypes.MaxPartsPerUpload {
		return errors.NewValidationError(op,
			fmt.Sprintf("%d parts exceed the %d-part limit", n, ostypes.MaxPartsPerUpload),
			errors.ErrTooManyParts)
	}

	last := sizes[n-1]
	if last <= 0 || last > ostypes.MaxPartSize {
		return errors.NewValidationError(op,
			fmt.Sprintf("final part size %d is outside (0, %s]",
				last, humanize.IBytes(uint64(ostypes.MaxPartSize))),
			errors.ErrInvalidPartLayout)
	}
	if n == 1 {
		return nil
	}

	uniform := sizes[0]
	for i, size := range sizes[:n-1] {
		if size != uniform {
			return errors.NewValidationError(op,
				fmt.Sprintf("part %d size %d breaks the uniform size %d", i+1, size, uniform),
				errors.ErrInvalidPartLayout)
		}
	}
	if uniform < ostypes.MinPartSize || uniform > ostypes.MaxPartSize {
		return errors.NewValidationError(op,
			fmt.Sprintf("uniform part size %s is outside [%s, %s]",
				humanize.IBytes(uint64(uniform)),
				humanize.IBytes(uint64(ostypes.MinPartSize)),
				humanize.IBytes(uint64(ostypes.MaxPartSize))),
			errors.ErrInvalidPartLayout)
	}
	if last > uniform {
		return errors.NewValidationError(op,
			fmt.Sprintf("final part size %d exceeds the uniform size %d", last, uniform),
			errors.ErrInvalidPartLayout)
	}
	return nil
}

// isValidBucketChar checks if a character is valid in a bucket name.
func isValidBucketChar(char rune) bool {
	return (char >= '0' && char <= '9') || (char >= 'a' && char <= 'z') || char == '.' || char == '-'
}

// hasAdjacentSpecialChars checks for adjacent special characters.
func hasAdjacentSpecialChars(bucket string) bool {
	for i := 0; i < len(bucket)-1; i++ {
		if (bucket[i] == '.' && bucket[i+1] == '.') || (bucket[i] == '-' && bucket[i+1] == '-') {
			return true
		}
	}
	return false
}

// hasPathTraversal checks for path traversal attempts in object keys.
func hasPathTraversal(key string) bool {
	if strings.Contains(key, "..") {
		return true
	}
	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "..") || strings.HasPrefix(cleaned, "/") {
		return true
	}
	return false
}
