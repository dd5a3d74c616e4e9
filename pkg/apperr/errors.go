package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for conditions callers branch on with errors.Is.
var (
	// ErrNoCredentials means neither an access token nor an API key is configured.
	ErrNoCredentials = errors.New("no credentials configured for the generation service")

	// ErrAuthExpired means the stored access token is past its TTL and the user
	// must authenticate again. The client never refreshes silently.
	ErrAuthExpired = errors.New("access token expired, re-authentication required")

	// ErrMappingMissing means no field mapping rules exist; product creation and
	// updates are blocked until a mapping profile is configured.
	ErrMappingMissing = errors.New("no field mapping rules configured")

	// ErrDuplicateSKU is surfaced from the product store on a SKU collision.
	ErrDuplicateSKU = errors.New("a product with this SKU already exists")

	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("record not found")
)

// RemoteError represents a non-2xx response from the generation service.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("generation service returned %d: %s", e.StatusCode, e.Message)
}

// ParseError represents a malformed body on an otherwise successful response.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StaleDataError means the generated record predates the last manual edit of
// the target product, so applying it would clobber that edit.
type StaleDataError struct {
	RecordModifiedAt  time.Time
	ProductModifiedAt time.Time
}

func (e *StaleDataError) Error() string {
	return fmt.Sprintf("generated data from %s is older than the product last modified at %s",
		e.RecordModifiedAt.Format(time.RFC3339), e.ProductModifiedAt.Format(time.RFC3339))
}
