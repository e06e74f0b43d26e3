package gateway

import (
	"errors"
	"fmt"
)

// RemoteUnavailableError is returned for any failed remote call: transport
// error, non-2xx status or a body that does not decode.
type RemoteUnavailableError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RemoteUnavailableError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("remote %s unavailable (status %d): %v", e.Op, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("remote %s unavailable: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("remote %s unavailable: status %d", e.Op, e.Status)
	}
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }

// IsRemoteUnavailable is the check the calling layer uses to decide on fallback.
func IsRemoteUnavailable(err error) bool {
	var ru *RemoteUnavailableError
	return errors.As(err, &ru)
}
