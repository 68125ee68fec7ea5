package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

type state int32

const (
	stateConnecting state = iota
	stateSending
	stateReceiving
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateSending:
		return "sending"
	case stateReceiving:
		return "receiving"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}

	return "unknown"
}

// exchange runs one request over one connection. Its state only moves
// forward, and the first transition into done or failed decides the
// outcome; a timeout that wins the race closes the socket under the
// reader.
type exchange struct {
	req       request
	dialer    Dialer
	userAgent string

	state atomic.Int32
	buf   bytes.Buffer
}

func newExchange(req request, dialer Dialer, userAgent string) *exchange {
	return &exchange{
		req:       req,
		dialer:    dialer,
		userAgent: userAgent,
	}
}

func (x *exchange) current() state {
	return state(x.state.Load())
}

func (x *exchange) advance(from, to state) bool {
	return x.state.CompareAndSwap(int32(from), int32(to))
}

// expire moves a live exchange to failed. It reports false if the
// exchange already reached a terminal state.
func (x *exchange) expire() bool {
	for {
		s := x.current()
		if s == stateDone || s == stateFailed {
			return false
		}
		if x.advance(s, stateFailed) {
			return true
		}
	}
}

// run performs the exchange and returns the raw bytes received up to
// end-of-stream.
func (x *exchange) run(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, x.req.timeout)
	defer cancel()

	conn, err := x.dialer.DialContext(ctx, "tcp", x.req.address())
	if err != nil {
		if ctx.Err() != nil {
			x.expire()
			return "", x.timeoutError(ctx)
		}
		x.advance(stateConnecting, stateFailed)
		return "", newError(KindConnection, x.req.String(), err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		if x.expire() {
			conn.Close()
		}
	})
	defer stop()

	if !x.advance(stateConnecting, stateSending) {
		return "", x.timeoutError(ctx)
	}

	if _, err := conn.Write(x.req.wire(x.userAgent)); err != nil {
		return "", x.fail(ctx, stateSending, fmt.Errorf("writing request: %w", err))
	}

	if !x.advance(stateSending, stateReceiving) {
		return "", x.timeoutError(ctx)
	}

	if _, err := x.buf.ReadFrom(conn); err != nil {
		return "", x.fail(ctx, stateReceiving, fmt.Errorf("reading response: %w", err))
	}

	if !x.advance(stateReceiving, stateDone) {
		return "", x.timeoutError(ctx)
	}

	return x.buf.String(), nil
}

// fail records a socket error seen in state from. If the timeout already
// moved the exchange to failed, the timeout is reported instead.
func (x *exchange) fail(ctx context.Context, from state, err error) error {
	if !x.advance(from, stateFailed) {
		return x.timeoutError(ctx)
	}

	return newError(KindConnection, x.req.String(), err)
}

func (x *exchange) timeoutError(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.DeadlineExceeded
	}

	var err error
	switch {
	case errors.Is(cause, context.DeadlineExceeded):
		err = fmt.Errorf("no end-of-stream within %s: %w", x.req.timeout, cause)
	default:
		err = fmt.Errorf("fetch cancelled: %w", cause)
	}

	return newError(KindTimeout, x.req.String(), err)
}
