package ledger

import (
	"context"
	"time"

	"brigade/internal/core/apperror"
	appctx "brigade/internal/core/context"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
	"brigade/internal/notify"
	"brigade/pkg/logger"
)

// ReceiveInput describes a batch delivery.
type ReceiveInput struct {
	IngredientID  id.ID
	GrossQuantity types.Quantity
	UnitCost      types.Money
	ReceivedAt    time.Time
	ExpiryDate    *time.Time
}

// ReceiveBatch records a delivery as a new batch and a receive movement.
func (a *Allocator) ReceiveBatch(ctx context.Context, in ReceiveInput) (*StockBatch, error) {
	if !in.GrossQuantity.IsPositive() {
		return nil, apperror.NewValidation("gross quantity must be positive")
	}
	if in.UnitCost.IsNegative() {
		return nil, apperror.NewValidation("unit cost must not be negative")
	}
	if in.ReceivedAt.IsZero() {
		in.ReceivedAt = time.Now().UTC()
	}

	var batch *StockBatch
	err := a.withIngredientLock(ctx, in.IngredientID, func(ctx context.Context) error {
		batch = NewBatch(in.IngredientID, in.GrossQuantity, in.UnitCost, in.ReceivedAt, in.ExpiryDate)
		if err := batch.CheckInvariant(); err != nil {
			return err
		}
		if err := a.store.CreateBatch(ctx, batch); err != nil {
			return err
		}

		movement := ReceiveMovement{
			MovementBase:  newMovementBase(in.IngredientID, batch.ID, appctx.OperatorID(ctx)),
			GrossQuantity: in.GrossQuantity,
			UnitCost:      in.UnitCost,
		}
		if err := a.store.AppendMovements(ctx, []Movement{movement}); err != nil {
			return err
		}
		return a.ingredients.AdjustCurrentStock(ctx, in.IngredientID, in.GrossQuantity)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch received",
		"batch_id", batch.ID,
		"ingredient_id", in.IngredientID,
		"gross_in", in.GrossQuantity,
	)
	if a.events != nil {
		a.events.Publish(ctx, notify.BatchReceived{
			BatchID:      batch.ID,
			IngredientID: in.IngredientID,
			GrossIn:      in.GrossQuantity,
			UnitCost:     in.UnitCost,
			ReceivedAt:   in.ReceivedAt,
		})
	}
	a.notifyStockChanged(ctx, in.IngredientID)
	if a.alerts != nil {
		// Short-dated deliveries should alert on arrival, not at the sweep.
		a.alerts.BatchChanged(ctx, batch)
	}

	return batch, nil
}

// WriteOff wastes quantity from a batch (spoilage, breakage).
// Fails with BatchLockedError on a held batch and InsufficientStockError when
// the quantity exceeds what the batch still has.
func (a *Allocator) WriteOff(ctx context.Context, batchID id.ID, quantity types.Quantity, reason string) error {
	if !quantity.IsPositive() {
		return apperror.NewValidation("write-off quantity must be positive")
	}

	ingredientID, err := a.batchIngredient(ctx, batchID)
	if err != nil {
		return err
	}

	err = a.withIngredientLock(ctx, ingredientID, func(ctx context.Context) error {
		b, err := a.store.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if b.IsLocked {
			return apperror.NewBatchLocked(b.ID.String(), b.LockedBy)
		}
		if quantity > b.NetAvailable {
			return apperror.NewInsufficientStock(b.IngredientID.String(), quantity.String(), b.NetAvailable.String())
		}

		b.NetAvailable -= quantity
		b.WastedAmount += quantity
		b.refreshStatus()
		b.touch()
		if err := b.CheckInvariant(); err != nil {
			return err
		}
		if err := a.store.UpdateBatch(ctx, b); err != nil {
			return err
		}

		movement := WasteMovement{
			MovementBase: newMovementBase(b.IngredientID, b.ID, appctx.OperatorID(ctx)),
			Quantity:     quantity,
			Reason:       reason,
		}
		if err := a.store.AppendMovements(ctx, []Movement{movement}); err != nil {
			return err
		}
		return a.ingredients.AdjustCurrentStock(ctx, b.IngredientID, quantity.Neg())
	})
	if err != nil {
		return err
	}

	a.metrics.WriteOffRecorded()
	logger.Info(ctx, "batch written off", "batch_id", batchID, "quantity", quantity, "reason", reason)
	a.notifyStockChanged(ctx, ingredientID)
	return nil
}

// LockBatch places a manual hold on a batch (physical count, inspection).
// A held batch is invisible to allocation regardless of the hold reason.
func (a *Allocator) LockBatch(ctx context.Context, batchID id.ID, owner string) error {
	if owner == "" {
		owner = appctx.OperatorID(ctx)
	}

	ingredientID, err := a.batchIngredient(ctx, batchID)
	if err != nil {
		return err
	}

	return a.withIngredientLock(ctx, ingredientID, func(ctx context.Context) error {
		b, err := a.store.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if b.IsLocked {
			return apperror.NewBatchLocked(b.ID.String(), b.LockedBy)
		}
		b.IsLocked = true
		b.LockedBy = owner
		b.touch()
		return a.store.UpdateBatch(ctx, b)
	})
}

// UnlockBatch releases a manual hold. Unlocking an unheld batch is a no-op.
func (a *Allocator) UnlockBatch(ctx context.Context, batchID id.ID) error {
	ingredientID, err := a.batchIngredient(ctx, batchID)
	if err != nil {
		return err
	}

	return a.withIngredientLock(ctx, ingredientID, func(ctx context.Context) error {
		b, err := a.store.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if !b.IsLocked {
			return nil
		}
		b.IsLocked = false
		b.LockedBy = ""
		b.touch()
		return a.store.UpdateBatch(ctx, b)
	})
}

// ReconcileCount sets a batch's available quantity to the physically counted
// value and records the delta as an adjust movement. UsedAmount and
// WastedAmount are untouched; GrossIn absorbs the delta so the quantity
// breakdown still sums.
func (a *Allocator) ReconcileCount(ctx context.Context, batchID id.ID, counted types.Quantity) error {
	if counted.IsNegative() {
		return apperror.NewValidation("counted quantity must not be negative")
	}

	ingredientID, err := a.batchIngredient(ctx, batchID)
	if err != nil {
		return err
	}

	return a.withIngredientLock(ctx, ingredientID, func(ctx context.Context) error {
		b, err := a.store.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}

		delta := counted - b.NetAvailable
		if delta.IsZero() {
			return nil
		}

		b.NetAvailable = counted
		b.GrossIn += delta
		b.refreshStatus()
		b.touch()
		if err := b.CheckInvariant(); err != nil {
			return err
		}
		if err := a.store.UpdateBatch(ctx, b); err != nil {
			return err
		}

		movement := AdjustMovement{
			MovementBase:    newMovementBase(b.IngredientID, b.ID, appctx.OperatorID(ctx)),
			Delta:           delta,
			CountedQuantity: counted,
			Reason:          "physical count",
		}
		if err := a.store.AppendMovements(ctx, []Movement{movement}); err != nil {
			return err
		}
		logger.Info(ctx, "batch reconciled", "batch_id", batchID, "counted", counted, "delta", delta)
		return a.ingredients.AdjustCurrentStock(ctx, b.IngredientID, delta)
	})
}

// ExpireBatches retires every unexpired batch whose expiry precedes now.
// The stranded remainder becomes waste so the quantity breakdown keeps
// summing. Held batches are skipped and reported on the next sweep.
// Returns the number of batches retired.
func (a *Allocator) ExpireBatches(ctx context.Context, now time.Time) (int, error) {
	batches, err := a.store.BatchesExpiringBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range batches {
		if candidate.IsLocked {
			logger.Warn(ctx, "expiry sweep skipped held batch", "batch_id", candidate.ID, "locked_by", candidate.LockedBy)
			continue
		}

		batchID := candidate.ID
		var wasted types.Quantity
		err := a.withIngredientLock(ctx, candidate.IngredientID, func(ctx context.Context) error {
			b, err := a.store.GetBatch(ctx, batchID)
			if err != nil {
				return err
			}
			if b.Status == BatchExpired || b.IsLocked || !b.ExpiresBefore(now) {
				return nil
			}

			wasted = b.NetAvailable
			b.NetAvailable = 0
			b.WastedAmount += wasted
			b.Status = BatchExpired
			b.touch()
			if err := b.CheckInvariant(); err != nil {
				return err
			}
			if err := a.store.UpdateBatch(ctx, b); err != nil {
				return err
			}

			if wasted.IsPositive() {
				movement := WasteMovement{
					MovementBase: newMovementBase(b.IngredientID, b.ID, appctx.OperatorID(ctx)),
					Quantity:     wasted,
					Reason:       "expired",
				}
				if err := a.store.AppendMovements(ctx, []Movement{movement}); err != nil {
					return err
				}
				return a.ingredients.AdjustCurrentStock(ctx, b.IngredientID, wasted.Neg())
			}
			return nil
		})
		if err != nil {
			return expired, err
		}

		expired++
		if a.events != nil {
			a.events.Publish(ctx, notify.BatchExpired{
				BatchID:      candidate.ID,
				IngredientID: candidate.IngredientID,
				WastedAmount: wasted,
			})
		}
		a.notifyStockChanged(ctx, candidate.IngredientID)
	}

	if expired > 0 {
		logger.Info(ctx, "expiry sweep finished", "expired", expired)
	}
	return expired, nil
}

// batchIngredient resolves the owning ingredient before taking its lock.
func (a *Allocator) batchIngredient(ctx context.Context, batchID id.ID) (id.ID, error) {
	b, err := a.store.GetBatch(ctx, batchID)
	if err != nil {
		return id.Nil(), err
	}
	return b.IngredientID, nil
}

// --- Queries (read-only pass-throughs for the API layer) ---

// Batches returns every batch of an ingredient.
func (a *Allocator) Batches(ctx context.Context, ingredientID id.ID) ([]*StockBatch, error) {
	return a.store.BatchesByIngredient(ctx, ingredientID)
}

// GetBatch returns one batch.
func (a *Allocator) GetBatch(ctx context.Context, batchID id.ID) (*StockBatch, error) {
	return a.store.GetBatch(ctx, batchID)
}

// Movements returns movement history matching the filter.
func (a *Allocator) Movements(ctx context.Context, filter MovementFilter) ([]MovementRecord, error) {
	return a.store.MovementHistory(ctx, filter)
}

// MovementsByTicket returns the full movement trail of one ticket.
func (a *Allocator) MovementsByTicket(ctx context.Context, ticketID id.ID) ([]MovementRecord, error) {
	return a.store.MovementsByTicket(ctx, ticketID)
}
