package auth

import (
	"context"

	"github.com/lecturehub/apiserver/internal/apperr"
)

type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity stores the verified identity in ctx.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	if !ok || !identity.Authenticated() {
		return Identity{}, apperr.New(apperr.ErrUnauthenticated, "Unauthorized")
	}
	return identity, nil
}
