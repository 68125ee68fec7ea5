// Package throttle rate-limits fetches against a legacy device using a
// token-bucket algorithm from [golang.org/x/time/rate].
//
// Embedded CGI controllers serve one request at a time and tend to drop
// connections when polled in bursts, so every fetch waits for a token
// before the socket is opened.
//
// # Usage
//
//	t, err := throttle.New(
//		2, // fetches per second
//		2, // burst capacity
//		func() *slog.Logger { return slog.Default() },
//	)
//	if err := t.Wait(ctx, "192.168.1.10:80/getregister.cgi"); err != nil {
//		return err
//	}
//
// When the rate limit is exceeded, Wait blocks until a token becomes
// available or ctx is done.
package throttle
