package registration

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists one write-set atomically: insert-if-absent per id, new
// records before primary records, full rollback on any failure.
type Repository interface {
	SaveWriteSet(ctx context.Context, ws *WriteSet) error
}

// IdentityStore looks up registry-local identities by their upstream
// identifiers. Lookups must be idempotent and side-effect-free.
type IdentityStore interface {
	LookupPersonID(ctx context.Context, externalID string) (uuid.UUID, bool, error)
	LookupEventID(ctx context.Context, crvsEventUUID string) (uuid.UUID, bool, error)
}

// Reindexer refreshes the downstream person search index. Called after a
// successful commit; its failure never fails registration processing.
type Reindexer interface {
	Reindex(ctx context.Context) error
}
