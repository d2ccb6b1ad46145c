// Package records persists the internal employee records the sync engine
// reconciles against the external directory.
package records

import (
	"context"

	"dirsync/internal/sync/models"
)

// Store is the record-store contract consumed by the orchestrator. Stores are
// pure I/O; classification and reconciliation rules live in the service.
type Store interface {
	// QueryAll returns every employee record.
	QueryAll(ctx context.Context) ([]*models.TargetRecord, error)

	// FindByExternalIDOrEmail resolves a single record, preferring the
	// external-id link and falling back to a case-insensitive email match.
	// Returns sentinel.ErrNotFound when neither key matches.
	FindByExternalIDOrEmail(ctx context.Context, externalID, email string) (*models.TargetRecord, error)

	// Create inserts a record and returns the store-assigned id.
	Create(ctx context.Context, rec *models.TargetRecord) (int64, error)

	// Update overwrites the record identified by rec.ID.
	Update(ctx context.Context, rec *models.TargetRecord) error
}
