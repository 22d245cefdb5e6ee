package auth

import (
	"context"

	"github.com/joeydtaylor/steeze-hub/pkg/hubs"
)

// UserIDProvider maps a connection to the user id used to address it.
type UserIDProvider interface {
	GetUserID(ctx context.Context, conn *hubs.Connection) string
}

// PrincipalUserIDProvider uses the authenticated username. Anonymous callers get "".
type PrincipalUserIDProvider struct{}

func (PrincipalUserIDProvider) GetUserID(ctx context.Context, conn *hubs.Connection) string {
	return callerOf(ctx, conn).Username
}
