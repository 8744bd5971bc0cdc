package ledger

import (
	"context"
	"time"

	"brigade/internal/core/id"
)

// Store is the persistence contract for the stock ledger. The Allocator is
// the only caller of the mutating methods; handlers read through the query
// methods.
//
// Implementations: postgres (pgx, SELECT ... FOR UPDATE on batches) and an
// in-memory store used by tests and the demo binary.
type Store interface {
	// Batches

	// CreateBatch persists a newly received batch.
	CreateBatch(ctx context.Context, batch *StockBatch) error

	// GetBatch returns one batch or a NOT_FOUND error.
	GetBatch(ctx context.Context, batchID id.ID) (*StockBatch, error)

	// UpdateBatch persists mutated batch quantities and status.
	UpdateBatch(ctx context.Context, batch *StockBatch) error

	// BatchesByIngredient returns all batches of an ingredient, any status.
	BatchesByIngredient(ctx context.Context, ingredientID id.ID) ([]*StockBatch, error)

	// BatchesExpiringBefore returns unexpired batches whose expiry precedes t.
	BatchesExpiringBefore(ctx context.Context, t time.Time) ([]*StockBatch, error)

	// Movements (append-only)

	// AppendMovements writes movement rows. Rows are immutable once written.
	AppendMovements(ctx context.Context, movements []Movement) error

	// MovementsByTicket returns all movement rows tagged with the ticket.
	MovementsByTicket(ctx context.Context, ticketID id.ID) ([]MovementRecord, error)

	// MovementHistory returns movement rows matching the filter,
	// oldest first.
	MovementHistory(ctx context.Context, filter MovementFilter) ([]MovementRecord, error)
}

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	IngredientID *id.ID
	BatchID      *id.ID
	MovementType *MovementType
	FromDate     *time.Time
	ToDate       *time.Time
	Limit        int
	Offset       int
}
