package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
	"brigade/internal/domain/ledger"
)

func TestReceiveBatchValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.allocator.ReceiveBatch(ctx, ledger.ReceiveInput{
		IngredientID:  f.ingredient.ID,
		GrossQuantity: types.Quantity(0),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.allocator.ReceiveBatch(ctx, ledger.ReceiveInput{
		IngredientID:  f.ingredient.ID,
		GrossQuantity: types.NewQuantityFromFloat64(1),
		UnitCost:      types.MustMoney("-0.5"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestReceiveBatchWritesLedgerRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	batch := f.receive(t, 100, 5)

	assert.Equal(t, ledger.BatchReceived, batch.Status)
	assert.Equal(t, batch.GrossIn, batch.NetAvailable)

	receiveType := ledger.MovementReceive
	records, err := f.allocator.Movements(ctx, ledger.MovementFilter{MovementType: &receiveType})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, batch.ID, records[0].BatchID)
	assert.Equal(t, types.NewQuantityFromFloat64(100), records[0].Quantity)

	ing, err := f.ingredients.GetByID(ctx, f.ingredient.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(100), ing.CurrentStock)
}

func TestWriteOff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.receive(t, 10, 5)

	require.NoError(t, f.allocator.WriteOff(ctx, batch.ID, types.NewQuantityFromFloat64(4), "dropped tray"))

	got := f.getBatch(t, batch.ID)
	assert.Equal(t, types.NewQuantityFromFloat64(6), got.NetAvailable)
	assert.Equal(t, types.NewQuantityFromFloat64(4), got.WastedAmount)
	assert.Equal(t, got.GrossIn, got.NetAvailable+got.UsedAmount+got.WastedAmount)

	wasteType := ledger.MovementWaste
	records, err := f.allocator.Movements(ctx, ledger.MovementFilter{MovementType: &wasteType})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "dropped tray", records[0].Reason)
}

func TestWriteOffExceedingAvailableFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.receive(t, 3, 5)

	err := f.allocator.WriteOff(ctx, batch.ID, types.NewQuantityFromFloat64(5), "spoiled")
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, types.NewQuantityFromFloat64(3), f.getBatch(t, batch.ID).NetAvailable)
}

func TestWriteOffHeldBatchFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.receive(t, 10, 5)
	require.NoError(t, f.allocator.LockBatch(ctx, batch.ID, "inspector"))

	err := f.allocator.WriteOff(ctx, batch.ID, types.NewQuantityFromFloat64(1), "spoiled")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBatchLocked))
}

func TestLockBatchConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.receive(t, 10, 5)

	require.NoError(t, f.allocator.LockBatch(ctx, batch.ID, "alice"))

	err := f.allocator.LockBatch(ctx, batch.ID, "bob")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBatchLocked))

	got := f.getBatch(t, batch.ID)
	assert.Equal(t, "alice", got.LockedBy)
}

func TestUnlockBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.receive(t, 10, 5)

	require.NoError(t, f.allocator.LockBatch(ctx, batch.ID, "alice"))
	require.NoError(t, f.allocator.UnlockBatch(ctx, batch.ID))

	got := f.getBatch(t, batch.ID)
	assert.False(t, got.IsLocked)
	assert.Empty(t, got.LockedBy)

	// Unlocking again stays a no-op.
	require.NoError(t, f.allocator.UnlockBatch(ctx, batch.ID))
}

func TestReconcileCountAdjustsBreakdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.receive(t, 10, 5)

	_, _, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(4), id.New())
	require.NoError(t, err)

	// Counted less than the 6 on the books.
	require.NoError(t, f.allocator.ReconcileCount(ctx, batch.ID, types.NewQuantityFromFloat64(5)))

	got := f.getBatch(t, batch.ID)
	assert.Equal(t, types.NewQuantityFromFloat64(5), got.NetAvailable)
	assert.Equal(t, types.NewQuantityFromFloat64(4), got.UsedAmount)
	assert.Equal(t, types.NewQuantityFromFloat64(9), got.GrossIn)
	assert.Equal(t, got.GrossIn, got.NetAvailable+got.UsedAmount+got.WastedAmount)

	adjustType := ledger.MovementAdjust
	records, err := f.allocator.Movements(ctx, ledger.MovementFilter{MovementType: &adjustType})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.NewQuantityFromFloat64(-1), records[0].Quantity)

	ing, err := f.ingredients.GetByID(ctx, f.ingredient.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(5), ing.CurrentStock)
}

func TestReconcileCountMatchingIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.receive(t, 10, 5)

	require.NoError(t, f.allocator.ReconcileCount(ctx, batch.ID, types.NewQuantityFromFloat64(10)))

	adjustType := ledger.MovementAdjust
	records, err := f.allocator.Movements(ctx, ledger.MovementFilter{MovementType: &adjustType})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExpireBatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale := f.receive(t, 10, 1)
	fresh := f.receive(t, 10, 30)

	_, _, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(4), id.New())
	require.NoError(t, err)

	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	expired, err := f.allocator.ExpireBatches(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	gotStale := f.getBatch(t, stale.ID)
	assert.Equal(t, ledger.BatchExpired, gotStale.Status)
	assert.True(t, gotStale.NetAvailable.IsZero())
	// 4 consumed earlier, the remaining 6 becomes waste.
	assert.Equal(t, types.NewQuantityFromFloat64(6), gotStale.WastedAmount)
	assert.Equal(t, gotStale.GrossIn, gotStale.NetAvailable+gotStale.UsedAmount+gotStale.WastedAmount)

	assert.Equal(t, ledger.BatchReceived, f.getBatch(t, fresh.ID).Status)

	// Second sweep finds nothing.
	expired, err = f.allocator.ExpireBatches(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestExpireBatchesSkipsHeld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale := f.receive(t, 10, 1)
	require.NoError(t, f.allocator.LockBatch(ctx, stale.ID, "inspector"))

	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	expired, err := f.allocator.ExpireBatches(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, expired)
	assert.NotEqual(t, ledger.BatchExpired, f.getBatch(t, stale.ID).Status)

	// Released batches get picked up by the next sweep.
	require.NoError(t, f.allocator.UnlockBatch(ctx, stale.ID))
	expired, err = f.allocator.ExpireBatches(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
}

func TestExpiredBatchIsNotAllocatable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, 10, 1)
	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	_, err := f.allocator.ExpireBatches(ctx, now)
	require.NoError(t, err)

	_, _, err = f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(1), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}
