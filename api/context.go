package api

import (
	"context"
)

type keyType string

const usernameKey keyType = "username"

// ctxWithUsername records the authenticated admin identity on the request
func ctxWithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// ctxGetUsername returns the identity set by the auth middleware, if any
func ctxGetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}
