package client

import (
	"errors"
	"fmt"
)

// Kind classifies a failed fetch. Every failure is terminal for the
// request that produced it; the client never retries.
type Kind int

const (
	// KindConnection means the device could not be reached or the socket
	// failed while the exchange was in flight.
	KindConnection Kind = iota + 1
	// KindTimeout means no end-of-stream arrived within the time budget,
	// or the caller cancelled the fetch.
	KindTimeout
	// KindMalformedResponse means the stream had no header/body separator.
	KindMalformedResponse
	// KindInvalidChunk means the body claimed chunked framing but violated it.
	KindInvalidChunk
	// KindBodyParse means the body could not be decoded into structured data.
	KindBodyParse
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection error"
	case KindTimeout:
		return "timeout"
	case KindMalformedResponse:
		return "malformed response"
	case KindInvalidChunk:
		return "invalid chunk"
	case KindBodyParse:
		return "body parse error"
	default:
		return fmt.Sprintf("unknown kind %d", int(k))
	}
}

// Sentinels matched by [Error.Is], so callers can write
// errors.Is(err, client.ErrTimeout).
var (
	ErrConnection        = errors.New("connection error")
	ErrTimeout           = errors.New("timeout")
	ErrMalformedResponse = errors.New("malformed response")
	ErrInvalidChunk      = errors.New("invalid chunk")
	ErrBodyParse         = errors.New("body parse error")
)

// Error is returned by every failing fetch or body decode.
type Error struct {
	Kind Kind
	// Target is the host:port/path the request was aimed at, if known.
	Target string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Target != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Target, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k Kind) sentinel() error {
	switch k {
	case KindConnection:
		return ErrConnection
	case KindTimeout:
		return ErrTimeout
	case KindMalformedResponse:
		return ErrMalformedResponse
	case KindInvalidChunk:
		return ErrInvalidChunk
	case KindBodyParse:
		return ErrBodyParse
	}

	return nil
}

// KindOf returns the Kind of err, or 0 if err did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return 0
	}

	return e.Kind
}

func newError(kind Kind, target string, err error) *Error {
	return &Error{Kind: kind, Target: target, Err: err}
}
