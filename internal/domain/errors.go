package domain

import "errors"

// Sentinel errors used throughout the pipeline.
// Wrap them with fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	// Validation: user-correctable input problems. Never reach the queue.
	ErrEmptyName   = errors.New("name cannot be empty")
	ErrNameTooLong = errors.New("name must be at most 100 characters")

	// Publish path: logged by the detached publish unit, never surfaced to the caller.
	ErrPublishTimeout   = errors.New("publish timed out")
	ErrPublishAuthz     = errors.New("publish rejected: topic not found or permission denied")
	ErrPublishTransport = errors.New("publish failed")

	// Consume path.
	ErrMalformedMessage = errors.New("malformed message")
	ErrPersistence      = errors.New("persist submission")

	// Read path: masked by the fallback payload at the API boundary.
	ErrDataAccess = errors.New("data access")
)

// IsValidation reports whether err is a user-correctable input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyName) || errors.Is(err, ErrNameTooLong)
}
