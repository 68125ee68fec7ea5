// Package client implements a minimal HTTP/1.0 GET client that talks to
// embedded furnace controllers over raw TCP.
//
// The controllers run CGI endpoints that misbehave with ordinary HTTP
// clients: they ignore keep-alive, reply with HTTP/1.1 chunked bodies to
// HTTP/1.0 requests and close the socket to end a response. This client
// writes a fixed request, reads until the device closes the connection and
// parses the bytes itself.
//
// # Building a Client
//
// Use [Build] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(5*time.Second),
//		client.WithCredentials("root", "secret"),
//		client.WithThrottle(2, 2),
//	)
//
// # Fetching
//
// Every call to [Client.Fetch] opens and closes its own connection:
//
//	resp, err := c.Fetch(ctx, "http://192.168.1.2/getregister.cgi?device=0&tzew_value")
//	if err != nil {
//		switch {
//		case errors.Is(err, client.ErrTimeout):
//		case errors.Is(err, client.ErrConnection):
//		}
//	}
//	fmt.Println(resp.Status, resp.Text())
//
// # Structured Bodies
//
// XML bodies convert to nested maps with [Response.Structured], or straight
// into a struct with [Decode]:
//
//	type reply struct {
//		Cmd struct {
//			Regs []struct {
//				TID string `mapstructure:"tid"`
//				V   string `mapstructure:"v"`
//			} `mapstructure:"reg"`
//		} `mapstructure:"cmd"`
//	}
//	r, err := client.Decode[reply](resp)
//
// Conversion follows xml2js conventions; see [XMLOptions].
package client
