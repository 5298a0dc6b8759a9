package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/enums"
)

// Identity is the authenticated caller behind a request.
type Identity struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

func (i Identity) valid() bool {
	return i.UserID != uuid.Nil && i.Role.IsValid()
}

type identityKey struct{}

// WithIdentity stores the caller on ctx. Auth does this for real requests;
// tests call it directly.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller. ok is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || !id.valid() {
		return Identity{}, false
	}
	return id, true
}

// UserIDFromContext is the caller's id as a string, or "" when anonymous.
// Rate limit and idempotency scopes key off it.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := IdentityFromContext(ctx); ok {
		return id.UserID.String()
	}
	return ""
}
