package scrape

import "fmt"

// HostQueryError means the host could not evaluate a selector or read the
// page. It aborts the current cycle and is not retried.
type HostQueryError struct {
	Selector string
	Err      error
}

func (e *HostQueryError) Error() string {
	return fmt.Sprintf("host query failed for selector %q: %v", e.Selector, e.Err)
}

func (e *HostQueryError) Unwrap() error { return e.Err }
