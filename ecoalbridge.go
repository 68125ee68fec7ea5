// Package ecoalbridge exposes the legacy device client builder and a
// one-shot fetch helper.
package ecoalbridge

import (
	"context"

	"github.com/adamwoolhether/ecoalbridge/client"
)

// NewClient instantiates a new *client.Client with the provided options.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// FetchLegacy performs a single GET against rawURL with a default client.
// Per-call settings such as credentials and timeout are given as
// [client.FetchOption] values.
func FetchLegacy(ctx context.Context, rawURL string, opts ...client.FetchOption) (*client.Response, error) {
	c, err := client.Build()
	if err != nil {
		return nil, err
	}

	return c.Fetch(ctx, rawURL, opts...)
}
