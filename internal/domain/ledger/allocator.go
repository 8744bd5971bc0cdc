package ledger

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"brigade/internal/core/apperror"
	appctx "brigade/internal/core/context"
	"brigade/internal/core/id"
	"brigade/internal/core/keylock"
	"brigade/internal/core/tx"
	"brigade/internal/core/types"
	"brigade/internal/domain/ingredient"
	"brigade/internal/notify"
	"brigade/pkg/logger"
)

var tracer = otel.Tracer("brigade/ledger")

// DefaultLockTimeout bounds the wait for an ingredient lock. Holding a
// ticket's "started" transition open while contending would stall the kitchen,
// so contention surfaces quickly as a retryable error.
const DefaultLockTimeout = 3 * time.Second

// BatchConsumption is one (batch, quantity, unit cost) tuple from an
// allocation. The caller keeps the tuples to reverse precisely.
type BatchConsumption struct {
	BatchID  id.ID          `json:"batchId"`
	Quantity types.Quantity `json:"quantity"`
	UnitCost types.Money    `json:"unitCost"`
}

// Instrumentation receives operational counters from the allocator.
// The prometheus implementation lives in infrastructure/metrics.
type Instrumentation interface {
	AllocationCommitted(batchesTouched int)
	AllocationRejected()
	ReversalApplied()
	WriteOffRecorded()
	LockTimeout()
}

type nopInstrumentation struct{}

func (nopInstrumentation) AllocationCommitted(int) {}
func (nopInstrumentation) AllocationRejected()     {}
func (nopInstrumentation) ReversalApplied()        {}
func (nopInstrumentation) WriteOffRecorded()       {}
func (nopInstrumentation) LockTimeout()            {}

// AlertSink is notified after every stock-changing mutation so alert rules
// can run. Evaluation failures must never fail the mutation.
type AlertSink interface {
	StockChanged(ctx context.Context, ing *ingredient.Ingredient)
	BatchChanged(ctx context.Context, batch *StockBatch)
}

// Config tunes the allocator. Zero values get sensible defaults.
type Config struct {
	LockTimeout time.Duration
	Events      *notify.Dispatcher
	Alerts      AlertSink
	Metrics     Instrumentation
}

// Allocator is the FIFO allocation engine over the stock ledger.
//
// Every mutation path (Allocate's commit pass, Reverse, WriteOff, batch
// locks, ReconcileCount, the expiry sweep) runs under per-ingredient mutual
// exclusion with a bounded wait: two allocations for the same ingredient
// never interleave their read-modify-write of batch quantities.
type Allocator struct {
	store       Store
	ingredients ingredient.Repository
	txm         tx.Manager
	locks       *keylock.KeyedMutex
	lockTimeout time.Duration
	events      *notify.Dispatcher
	alerts      AlertSink
	metrics     Instrumentation
}

// NewAllocator creates the allocation engine.
func NewAllocator(store Store, ingredients ingredient.Repository, txm tx.Manager, cfg Config) *Allocator {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopInstrumentation{}
	}
	return &Allocator{
		store:       store,
		ingredients: ingredients,
		txm:         txm,
		locks:       keylock.New(),
		lockTimeout: cfg.LockTimeout,
		events:      cfg.Events,
		alerts:      cfg.Alerts,
		metrics:     cfg.Metrics,
	}
}

// withIngredientLock serializes fn per ingredient and wraps it in a
// transaction. The lock wait is bounded; exceeding it is a retryable error.
func (a *Allocator) withIngredientLock(ctx context.Context, ingredientID id.ID, fn func(ctx context.Context) error) error {
	key := ingredientID.String()
	if !a.locks.Acquire(ctx, key, a.lockTimeout) {
		a.metrics.LockTimeout()
		return apperror.NewLockTimeout(key)
	}
	defer a.locks.Release(key)

	return a.txm.RunInTransaction(ctx, fn)
}

// orderForAllocation sorts candidate batches by the FIFO/earliest-expiry-first
// rule: expiry ascending with nil expiries last, ties broken by receivedAt
// ascending, then by id so identical inputs always order identically.
func orderForAllocation(batches []*StockBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		bi, bj := batches[i], batches[j]
		switch {
		case bi.ExpiryDate == nil && bj.ExpiryDate != nil:
			return false
		case bi.ExpiryDate != nil && bj.ExpiryDate == nil:
			return true
		case bi.ExpiryDate != nil && bj.ExpiryDate != nil && !bi.ExpiryDate.Equal(*bj.ExpiryDate):
			return bi.ExpiryDate.Before(*bj.ExpiryDate)
		}
		if !bi.ReceivedAt.Equal(bj.ReceivedAt) {
			return bi.ReceivedAt.Before(bj.ReceivedAt)
		}
		return bi.ID.String() < bj.ID.String()
	})
}

// Allocate consumes required quantity of an ingredient from the oldest
// eligible batches. Allocation is all-or-nothing: if the eligible batches
// cannot cover the requirement nothing is mutated and InsufficientStockError
// is returned. On success it returns the per-batch consumption tuples and the
// total cost at each batch's own unit cost.
func (a *Allocator) Allocate(ctx context.Context, ingredientID id.ID, required types.Quantity, ticketID id.ID) ([]BatchConsumption, types.Money, error) {
	if !required.IsPositive() {
		return nil, types.ZeroMoney(), apperror.NewValidation("required quantity must be positive")
	}

	ctx, span := tracer.Start(ctx, "ledger.allocate")
	defer span.End()
	span.SetAttributes(
		attribute.String("ingredient_id", ingredientID.String()),
		attribute.String("ticket_id", ticketID.String()),
		attribute.String("required", required.String()),
	)

	var (
		consumed  []BatchConsumption
		totalCost = types.ZeroMoney()
	)

	err := a.withIngredientLock(ctx, ingredientID, func(ctx context.Context) error {
		all, err := a.store.BatchesByIngredient(ctx, ingredientID)
		if err != nil {
			return err
		}

		candidates := make([]*StockBatch, 0, len(all))
		for _, b := range all {
			if b.Allocatable() {
				candidates = append(candidates, b)
			}
		}
		orderForAllocation(candidates)

		// Feasibility pass: no mutation until the requirement is known to
		// be satisfiable.
		available := types.Quantity(0)
		feasible := false
		for _, b := range candidates {
			available += b.NetAvailable
			if available >= required {
				feasible = true
				break
			}
		}
		if !feasible {
			a.metrics.AllocationRejected()
			return apperror.NewInsufficientStock(ingredientID.String(), required.String(), available.String())
		}

		// Commit pass: consume in the same order.
		operator := appctx.OperatorID(ctx)
		remaining := required
		movements := make([]Movement, 0, 4)

		for _, b := range candidates {
			if remaining.IsZero() {
				break
			}
			take := remaining.Min(b.NetAvailable)

			b.NetAvailable -= take
			b.UsedAmount += take
			b.refreshStatus()
			b.touch()
			if err := b.CheckInvariant(); err != nil {
				return err
			}
			if err := a.store.UpdateBatch(ctx, b); err != nil {
				return err
			}

			cost := take.Cost(b.UnitCost)
			totalCost = totalCost.Add(cost)
			consumed = append(consumed, BatchConsumption{
				BatchID:  b.ID,
				Quantity: take,
				UnitCost: b.UnitCost,
			})
			movements = append(movements, ConsumeMovement{
				MovementBase: newMovementBase(ingredientID, b.ID, operator),
				TicketID:     ticketID,
				Quantity:     take,
				UnitCost:     b.UnitCost,
				Cost:         cost,
			})

			remaining -= take
		}

		if err := a.store.AppendMovements(ctx, movements); err != nil {
			return err
		}
		return a.ingredients.AdjustCurrentStock(ctx, ingredientID, required.Neg())
	})
	if err != nil {
		return nil, types.ZeroMoney(), err
	}

	a.metrics.AllocationCommitted(len(consumed))
	logger.Info(ctx, "stock allocated",
		"ingredient_id", ingredientID,
		"ticket_id", ticketID,
		"required", required,
		"batches", len(consumed),
		"total_cost", totalCost,
	)
	a.notifyStockChanged(ctx, ingredientID)

	return consumed, totalCost, nil
}

// Reverse returns every quantity a ticket consumed back to its batches and
// emits one reverse movement mirroring each outstanding consume movement.
// Reversal is idempotent per ticket: quantities already reversed (detected
// from the movement history) are skipped, so calling Reverse twice is a
// no-op the second time.
func (a *Allocator) Reverse(ctx context.Context, ticketID id.ID) error {
	ctx, span := tracer.Start(ctx, "ledger.reverse")
	defer span.End()
	span.SetAttributes(attribute.String("ticket_id", ticketID.String()))

	// This read only learns which ingredients the ticket touched; consume
	// rows are immutable, so the set cannot grow. Outstanding quantities
	// are recomputed under each ingredient's lock, where a concurrent
	// reversal cannot slip between the check and the restore.
	records, err := a.store.MovementsByTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	seen := make(map[id.ID]bool)
	var ingredientIDs []id.ID
	for _, rec := range records {
		if rec.MovementType == MovementConsume && !seen[rec.IngredientID] {
			seen[rec.IngredientID] = true
			ingredientIDs = append(ingredientIDs, rec.IngredientID)
		}
	}
	if len(ingredientIDs) == 0 {
		logger.Debug(ctx, "reverse is a no-op, nothing outstanding", "ticket_id", ticketID)
		return nil
	}
	// Sorted order so concurrent reversals acquire ingredient locks
	// deterministically.
	sort.Slice(ingredientIDs, func(i, j int) bool {
		return ingredientIDs[i].String() < ingredientIDs[j].String()
	})

	operator := appctx.OperatorID(ctx)
	reversedAny := false

	for _, ingID := range ingredientIDs {
		restoredHere := false
		err := a.withIngredientLock(ctx, ingID, func(ctx context.Context) error {
			trail, err := a.store.MovementsByTicket(ctx, ticketID)
			if err != nil {
				return err
			}
			var recs []MovementRecord
			for _, rec := range outstandingConsumption(trail) {
				if rec.IngredientID == ingID {
					recs = append(recs, rec)
				}
			}
			if len(recs) == 0 {
				return nil
			}

			restored := types.Quantity(0)
			movements := make([]Movement, 0, len(recs))

			for _, rec := range recs {
				b, err := a.store.GetBatch(ctx, rec.BatchID)
				if err != nil {
					return err
				}

				b.NetAvailable += rec.Quantity
				b.UsedAmount -= rec.Quantity
				b.refreshStatus()
				b.touch()
				if err := b.CheckInvariant(); err != nil {
					return err
				}
				if err := a.store.UpdateBatch(ctx, b); err != nil {
					return err
				}

				movements = append(movements, ReverseMovement{
					MovementBase: newMovementBase(ingID, b.ID, operator),
					TicketID:     ticketID,
					Quantity:     rec.Quantity,
					UnitCost:     rec.UnitCost,
					Cost:         rec.Cost,
				})
				restored += rec.Quantity
			}

			if err := a.store.AppendMovements(ctx, movements); err != nil {
				return err
			}
			restoredHere = true
			return a.ingredients.AdjustCurrentStock(ctx, ingID, restored)
		})
		if err != nil {
			return err
		}
		if restoredHere {
			reversedAny = true
			a.notifyStockChanged(ctx, ingID)
		}
	}

	if !reversedAny {
		logger.Debug(ctx, "reverse is a no-op, already reversed", "ticket_id", ticketID)
		return nil
	}
	a.metrics.ReversalApplied()
	logger.Info(ctx, "stock reversed", "ticket_id", ticketID, "ingredients", len(ingredientIDs))
	return nil
}

// outstandingConsumption computes per-batch consumed quantity not yet
// reversed, preserving the original per-consume-row granularity so each
// reverse row mirrors one consume row.
func outstandingConsumption(records []MovementRecord) []MovementRecord {
	reversed := make(map[id.ID]types.Quantity)
	for _, rec := range records {
		if rec.MovementType == MovementReverse {
			reversed[rec.BatchID] += rec.Quantity
		}
	}

	var outstanding []MovementRecord
	for _, rec := range records {
		if rec.MovementType != MovementConsume {
			continue
		}
		if covered := reversed[rec.BatchID]; covered >= rec.Quantity {
			reversed[rec.BatchID] = covered - rec.Quantity
			continue
		}
		outstanding = append(outstanding, rec)
	}
	return outstanding
}

// notifyStockChanged refreshes the ingredient and runs the alert sink.
// Failures are logged and swallowed: alerting never fails a mutation.
func (a *Allocator) notifyStockChanged(ctx context.Context, ingredientID id.ID) {
	if a.alerts == nil {
		return
	}
	ing, err := a.ingredients.GetByID(ctx, ingredientID)
	if err != nil {
		logger.Warn(ctx, "alert evaluation skipped", "ingredient_id", ingredientID, "error", err)
		return
	}
	a.alerts.StockChanged(ctx, ing)
}
