// Package authctx carries the authenticated caller through context.Context.
package authctx

import (
	"context"
	"strings"
)

type contextKey struct{}

// Identity is the authenticated caller placed into the request context.
type Identity struct {
	UserID string
	Login  string
	Role   string
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// ContextAuth resolves the current user from the request context.
type ContextAuth struct{}

func NewContextAuth() ContextAuth {
	return ContextAuth{}
}

// CurrentUserLogin returns the caller's login; blank logins count as absent.
func (ContextAuth) CurrentUserLogin(ctx context.Context) (string, bool) {
	id, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	login := strings.TrimSpace(id.Login)
	if login == "" {
		return "", false
	}
	return login, true
}
