package client

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultTimeout is the whole-exchange budget used when none is given.
	DefaultTimeout = 8000 * time.Millisecond
	// DefaultUsername and DefaultPassword are the factory credentials
	// of the supported controllers.
	DefaultUsername = "root"
	DefaultPassword = "root"
	// DefaultUserAgent is sent on every request. The controller firmware
	// answers curl reliably, so the client presents itself as curl.
	DefaultUserAgent = "curl/7.88.1"

	defaultPort = 80
)

// maxErrBodySize caps the amount of response body kept when
// building an error for an unexpected status code.
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the device
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
)

// UnexpectedStatusError is returned by [Response.Expect] and [Response.ExpectOK]
// when the device answered with a status the caller did not accept.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}
