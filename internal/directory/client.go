// Package directory is the engine's view of the external identity directory.
// The engine only depends on the Client contract; token acquisition is a
// capability supplied by the caller.
package directory

import (
	"context"

	"dirsync/internal/sync/models"
)

// Filter narrows a bulk listing at the source, where the directory supports
// server-side filtering. Engine-side filters still apply afterwards.
type Filter struct {
	// EnabledOnly requests only accounts with the enabled flag set.
	EnabledOnly bool
}

// Client fetches identity records from the external directory.
type Client interface {
	// ListUsers returns all user records, following pagination internally.
	ListUsers(ctx context.Context, filter Filter) ([]models.SourceRecord, error)

	// GetUser fetches one record by external id or principal name. Returns
	// sentinel.ErrNotFound when the directory has no such identity.
	GetUser(ctx context.Context, identifier string) (models.SourceRecord, error)

	// ListGroupMembers resolves a group to its member identifiers.
	ListGroupMembers(ctx context.Context, groupID string) ([]string, error)

	// QueryDelta reads one page of the change feed. An empty token starts
	// a new delta window from the beginning.
	QueryDelta(ctx context.Context, token string) (models.DeltaPage, error)
}

// TokenSource supplies bearer tokens for directory calls. Acquisition and
// refresh mechanics live entirely behind this capability.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
