package comfy

import (
	"errors"
	"fmt"
)

// Sentinel errors for terminal wait outcomes and malformed responses.
var (
	// ErrTimeout marks a job that exceeded the configured completion timeout.
	ErrTimeout = errors.New("job timed out")

	// ErrJobFailed marks a job the service reported as explicitly failed.
	ErrJobFailed = errors.New("job failed")

	// ErrNoJobID marks a 2xx submission response without a job identifier.
	ErrNoJobID = errors.New("no job id in submission response")
)

// APIError is an application-level rejection: the service answered with a
// non-2xx status. These are permanent — retrying the same payload cannot
// succeed — so the submitter never retries them.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("service returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("service returned HTTP %d: %s", e.Status, e.Body)
}

// IsPermanent reports whether err is an application-level error that must
// not be retried. Everything else reaching the transport is considered
// transient.
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
