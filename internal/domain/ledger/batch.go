// Package ledger owns stock batches and their mutable quantities, and records
// every change in the append-only movement ledger. The Allocator in this
// package is the only code permitted to mutate a batch's available quantity.
package ledger

import (
	"time"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
)

// BatchStatus is the lifecycle state of a stock batch.
type BatchStatus string

const (
	BatchReceived  BatchStatus = "received"
	BatchAvailable BatchStatus = "available"
	BatchInUse     BatchStatus = "in_use"
	BatchDepleted  BatchStatus = "depleted"
	BatchExpired   BatchStatus = "expired"
)

// StockBatch is a discrete received lot of an ingredient with its own cost,
// expiry, and remaining quantity. Batches are never deleted: a depleted or
// expired batch stays as the historical record behind its movements.
type StockBatch struct {
	ID           id.ID `db:"id" json:"id"`
	IngredientID id.ID `db:"ingredient_id" json:"ingredientId"`

	// Quantity breakdown. Invariant, checked after every mutation:
	// GrossIn == NetAvailable + UsedAmount + WastedAmount.
	GrossIn      types.Quantity `db:"gross_in" json:"grossIn"`
	NetAvailable types.Quantity `db:"net_available" json:"netAvailable"`
	UsedAmount   types.Quantity `db:"used_amount" json:"usedAmount"`
	WastedAmount types.Quantity `db:"wasted_amount" json:"wastedAmount"`

	UnitCost   types.Money `db:"unit_cost" json:"unitCost"`
	ReceivedAt time.Time   `db:"received_at" json:"receivedAt"`
	ExpiryDate *time.Time  `db:"expiry_date" json:"expiryDate,omitempty"`

	Status BatchStatus `db:"status" json:"status"`

	// Manual hold (physical count, quality inspection). A locked batch is
	// invisible to allocation regardless of reason.
	IsLocked bool   `db:"is_locked" json:"isLocked"`
	LockedBy string `db:"locked_by" json:"lockedBy,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBatch creates a batch from a receipt.
func NewBatch(ingredientID id.ID, gross types.Quantity, unitCost types.Money, receivedAt time.Time, expiry *time.Time) *StockBatch {
	now := time.Now().UTC()
	return &StockBatch{
		ID:           id.New(),
		IngredientID: ingredientID,
		GrossIn:      gross,
		NetAvailable: gross,
		UnitCost:     unitCost,
		ReceivedAt:   receivedAt,
		ExpiryDate:   expiry,
		Status:       BatchReceived,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CheckInvariant verifies the quantity breakdown. A violation is fatal for the
// enclosing operation and is never auto-corrected.
func (b *StockBatch) CheckInvariant() error {
	if b.GrossIn != b.NetAvailable+b.UsedAmount+b.WastedAmount {
		return apperror.NewLedgerInvariant(b.ID.String(), "batch quantity breakdown does not sum to gross").
			WithDetail("gross_in", b.GrossIn.String()).
			WithDetail("net_available", b.NetAvailable.String()).
			WithDetail("used_amount", b.UsedAmount.String()).
			WithDetail("wasted_amount", b.WastedAmount.String())
	}
	if b.NetAvailable.IsNegative() || b.UsedAmount.IsNegative() || b.WastedAmount.IsNegative() {
		return apperror.NewLedgerInvariant(b.ID.String(), "batch quantity component is negative")
	}
	return nil
}

// Allocatable reports whether the batch is a candidate for allocation.
func (b *StockBatch) Allocatable() bool {
	switch b.Status {
	case BatchReceived, BatchAvailable, BatchInUse:
	default:
		return false
	}
	return !b.IsLocked && b.NetAvailable.IsPositive()
}

// refreshStatus derives the status from remaining quantity after a mutation.
// Expired batches keep their status; consumption state never resurrects them.
func (b *StockBatch) refreshStatus() {
	if b.Status == BatchExpired {
		return
	}
	switch {
	case b.NetAvailable.IsZero():
		b.Status = BatchDepleted
	case b.UsedAmount.IsPositive():
		b.Status = BatchInUse
	default:
		b.Status = BatchAvailable
	}
}

// touch updates the modification timestamp.
func (b *StockBatch) touch() {
	b.UpdatedAt = time.Now().UTC()
}

// ExpiresBefore reports whether the batch has an expiry earlier than t.
func (b *StockBatch) ExpiresBefore(t time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(t)
}
