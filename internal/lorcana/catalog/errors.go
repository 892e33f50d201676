package catalog

import "fmt"

// APIError is the upstream error envelope returned in place of a card list.
type APIError struct {
	Code    string `json:"code"`
	Details string `json:"details"`
	Object  string `json:"object"`
	Status  int    `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API error: %s", e.Details)
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog request failed with status %d", e.StatusCode)
}

// TransportError wraps a network-level failure (connectivity, DNS, TLS).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("catalog request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response body that did not match the expected shape.
// The wrapped error describes which field or type mismatched.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("catalog response decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
