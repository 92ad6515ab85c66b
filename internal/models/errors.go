package models

import "errors"

var (
	// ErrCodeNotFound means no record exists for the given pickup code.
	ErrCodeNotFound = errors.New("code not found")
	// ErrCodeExpired covers both time expiry and use-count exhaustion. The two
	// are deliberately indistinguishable to callers.
	ErrCodeExpired = errors.New("code no longer valid")
	// ErrCodeTaken means an insert lost the uniqueness race on the code column.
	ErrCodeTaken = errors.New("code already exists")
	// ErrPayloadTooLarge means the share payload exceeds the configured limit.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrInvalidSharePolicy means the style/value pair is outside configured bounds.
	ErrInvalidSharePolicy = errors.New("invalid share policy")
	// ErrStorageUnavailable means the blob backend failed a resolve or delete.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
