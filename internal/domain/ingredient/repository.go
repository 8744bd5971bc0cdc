package ingredient

import (
	"context"

	"brigade/internal/core/id"
	"brigade/internal/core/types"
)

// Repository defines persistence operations for the ingredient catalog.
type Repository interface {
	Create(ctx context.Context, ing *Ingredient) error
	GetByID(ctx context.Context, ingredientID id.ID) (*Ingredient, error)
	Update(ctx context.Context, ing *Ingredient) error
	List(ctx context.Context) ([]*Ingredient, error)

	// AdjustCurrentStock applies a delta to the advisory stock sum.
	// Called only by the stock ledger as a side effect of batch mutations.
	AdjustCurrentStock(ctx context.Context, ingredientID id.ID, delta types.Quantity) error
}
