package restclient

import "fmt"

// TransportError means no usable HTTP response arrived: connection refused,
// DNS failure, timeout or cancellation.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport %s: %v", e.URL, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError is a response outside 2xx.
type HTTPStatusError struct {
	URL    string
	Status int
	Body   string // first few KB, for diagnostics
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d from %s", e.Status, e.URL)
	}
	return fmt.Sprintf("status %d from %s: %s", e.Status, e.URL, e.Body)
}

// MalformedResponseError is a 2xx whose body is empty or not JSON.
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string { return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err) }
func (e *MalformedResponseError) Unwrap() error { return e.Err }
