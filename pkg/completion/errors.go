package completion

import (
	"fmt"

	"github.com/sells-group/math-mentor/internal/resilience"
)

// UpstreamError reports that the completion endpoint could not produce a
// completion. StatusCode is zero for transport faults (timeout, connection
// error, malformed body).
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion: upstream status %d: %s", e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return "completion: upstream failure: " + e.Err.Error()
	}
	return "completion: upstream failure"
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Transient reports whether a later request could plausibly succeed.
func (e *UpstreamError) Transient() bool {
	if e.StatusCode != 0 {
		return resilience.IsTransientHTTPStatus(e.StatusCode)
	}
	return e.Err != nil && resilience.IsTransient(e.Err)
}

func statusError(status int, body []byte) *UpstreamError {
	return &UpstreamError{StatusCode: status, Body: string(body)}
}

func transportError(err error) *UpstreamError {
	return &UpstreamError{Err: err}
}
