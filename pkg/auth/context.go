package auth

import (
	"context"

	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

type contextKey string

const userContextKey contextKey = "user_context"

// UserContext carries the authenticated user's identity through a request
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

// SetUserInContext adds the user context to a context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts the user context from a context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, pkgerrors.NewUnauthorizedError("no authenticated user in context")
	}
	return user, nil
}

// HasRole reports whether the user carries the given role
func (u *UserContext) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
