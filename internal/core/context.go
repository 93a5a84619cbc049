package core

import "context"

type clientKey struct{}

// Client identifies who sent an upload. It is recorded in the upload history.
type Client struct {
	IP        string
	UserAgent string
}

// WithClient attaches c to ctx.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFromContext returns the Client attached by WithClient, or the zero value.
func ClientFromContext(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}
