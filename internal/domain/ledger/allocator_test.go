package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/tx"
	"brigade/internal/core/types"
	"brigade/internal/domain/ingredient"
	"brigade/internal/domain/ledger"
	"brigade/internal/infrastructure/storage/memory"
)

type fixture struct {
	store       *memory.LedgerStore
	ingredients *memory.IngredientRepo
	allocator   *ledger.Allocator
	ingredient  *ingredient.Ingredient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewLedgerStore()
	ingredients := memory.NewIngredientRepo()

	ing := ingredient.New("potato", ingredient.UnitGram)
	require.NoError(t, ingredients.Create(context.Background(), ing))

	return &fixture{
		store:       store,
		ingredients: ingredients,
		allocator:   ledger.NewAllocator(store, ingredients, tx.Noop{}, ledger.Config{}),
		ingredient:  ing,
	}
}

// receive seeds a batch dated offsetDays from a fixed base so FIFO ordering
// in tests is deterministic.
func (f *fixture) receive(t *testing.T, qty float64, expiryDays int) *ledger.StockBatch {
	t.Helper()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	in := ledger.ReceiveInput{
		IngredientID:  f.ingredient.ID,
		GrossQuantity: types.NewQuantityFromFloat64(qty),
		UnitCost:      types.MustMoney("0.01"),
		ReceivedAt:    base.Add(time.Duration(expiryDays) * time.Minute),
	}
	if expiryDays > 0 {
		exp := base.AddDate(0, 0, expiryDays)
		in.ExpiryDate = &exp
	}
	batch, err := f.allocator.ReceiveBatch(context.Background(), in)
	require.NoError(t, err)
	return batch
}

func (f *fixture) getBatch(t *testing.T, batchID id.ID) *ledger.StockBatch {
	t.Helper()
	b, err := f.allocator.GetBatch(context.Background(), batchID)
	require.NoError(t, err)
	return b
}

func TestAllocateDrainsOldestExpiryFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older := f.receive(t, 3, 2)
	newer := f.receive(t, 5, 5)

	consumed, cost, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(4), id.New())
	require.NoError(t, err)

	require.Len(t, consumed, 2)
	assert.Equal(t, older.ID, consumed[0].BatchID)
	assert.Equal(t, types.NewQuantityFromFloat64(3), consumed[0].Quantity)
	assert.Equal(t, newer.ID, consumed[1].BatchID)
	assert.Equal(t, types.NewQuantityFromFloat64(1), consumed[1].Quantity)
	assert.True(t, cost.Equal(types.MustMoney("0.04")), "cost = %s", cost)

	gotOlder := f.getBatch(t, older.ID)
	assert.Equal(t, ledger.BatchDepleted, gotOlder.Status)
	assert.True(t, gotOlder.NetAvailable.IsZero())
	assert.Equal(t, types.NewQuantityFromFloat64(3), gotOlder.UsedAmount)

	gotNewer := f.getBatch(t, newer.ID)
	assert.Equal(t, ledger.BatchInUse, gotNewer.Status)
	assert.Equal(t, types.NewQuantityFromFloat64(4), gotNewer.NetAvailable)

	ing, err := f.ingredients.GetByID(ctx, f.ingredient.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(4), ing.CurrentStock)
}

func TestAllocateNilExpiryGoesLast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	noExpiry := f.receive(t, 10, 0)
	dated := f.receive(t, 10, 3)

	consumed, _, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(5), id.New())
	require.NoError(t, err)

	require.Len(t, consumed, 1)
	assert.Equal(t, dated.ID, consumed[0].BatchID)
	assert.Equal(t, types.NewQuantityFromFloat64(10), f.getBatch(t, noExpiry.ID).NetAvailable)
}

func TestAllocateInsufficientStockMutatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.receive(t, 3, 2)
	b := f.receive(t, 5, 5)

	_, _, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(10), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.Equal(t, types.NewQuantityFromFloat64(3), f.getBatch(t, a.ID).NetAvailable)
	assert.Equal(t, types.NewQuantityFromFloat64(5), f.getBatch(t, b.ID).NetAvailable)

	consumeType := ledger.MovementConsume
	records, err := f.allocator.Movements(ctx, ledger.MovementFilter{MovementType: &consumeType})
	require.NoError(t, err)
	assert.Empty(t, records)

	ing, err := f.ingredients.GetByID(ctx, f.ingredient.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(8), ing.CurrentStock)
}

func TestAllocateSkipsLockedBatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	held := f.receive(t, 10, 1)
	free := f.receive(t, 10, 5)
	require.NoError(t, f.allocator.LockBatch(ctx, held.ID, "count-team"))

	consumed, _, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(6), id.New())
	require.NoError(t, err)

	require.Len(t, consumed, 1)
	assert.Equal(t, free.ID, consumed[0].BatchID)
	assert.Equal(t, types.NewQuantityFromFloat64(10), f.getBatch(t, held.ID).NetAvailable)
}

func TestAllocateRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.allocator.Allocate(context.Background(), f.ingredient.ID, types.Quantity(0), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestReverseRestoresConsumedQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.receive(t, 3, 2)
	b := f.receive(t, 5, 5)
	ticketID := id.New()

	_, _, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(4), ticketID)
	require.NoError(t, err)

	require.NoError(t, f.allocator.Reverse(ctx, ticketID))

	gotA := f.getBatch(t, a.ID)
	assert.Equal(t, types.NewQuantityFromFloat64(3), gotA.NetAvailable)
	assert.True(t, gotA.UsedAmount.IsZero())
	assert.Equal(t, ledger.BatchAvailable, gotA.Status)

	gotB := f.getBatch(t, b.ID)
	assert.Equal(t, types.NewQuantityFromFloat64(5), gotB.NetAvailable)

	trail, err := f.allocator.MovementsByTicket(ctx, ticketID)
	require.NoError(t, err)
	var consumes, reverses int
	for _, rec := range trail {
		switch rec.MovementType {
		case ledger.MovementConsume:
			consumes++
		case ledger.MovementReverse:
			reverses++
		}
	}
	assert.Equal(t, 2, consumes)
	assert.Equal(t, 2, reverses)

	ing, err := f.ingredients.GetByID(ctx, f.ingredient.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(8), ing.CurrentStock)
}

func TestReverseTwiceIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, 10, 2)
	ticketID := id.New()

	_, _, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(4), ticketID)
	require.NoError(t, err)

	require.NoError(t, f.allocator.Reverse(ctx, ticketID))
	first, err := f.allocator.MovementsByTicket(ctx, ticketID)
	require.NoError(t, err)

	require.NoError(t, f.allocator.Reverse(ctx, ticketID))
	second, err := f.allocator.MovementsByTicket(ctx, ticketID)
	require.NoError(t, err)

	assert.Equal(t, len(first), len(second), "second reverse must not add movements")
}

func TestReverseUnknownTicketIsNoOp(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.allocator.Reverse(context.Background(), id.New()))
}

func TestReverseMirrorsEachConsumeRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, 2, 1)
	f.receive(t, 2, 2)
	f.receive(t, 2, 3)
	ticketID := id.New()

	_, _, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(5), ticketID)
	require.NoError(t, err)
	require.NoError(t, f.allocator.Reverse(ctx, ticketID))

	trail, err := f.allocator.MovementsByTicket(ctx, ticketID)
	require.NoError(t, err)

	consumedPerBatch := make(map[id.ID]types.Quantity)
	reversedPerBatch := make(map[id.ID]types.Quantity)
	for _, rec := range trail {
		switch rec.MovementType {
		case ledger.MovementConsume:
			consumedPerBatch[rec.BatchID] += rec.Quantity
		case ledger.MovementReverse:
			reversedPerBatch[rec.BatchID] += rec.Quantity
		}
	}
	assert.Equal(t, consumedPerBatch, reversedPerBatch)
}

// rendezvousStore holds the first two MovementsByTicket reads until both
// callers have arrived, forcing two reversals to race past the history
// check at the same time. Later reads pass through.
type rendezvousStore struct {
	ledger.Store
	mu    sync.Mutex
	calls int
	gate  chan struct{}
}

func newRendezvousStore(inner ledger.Store) *rendezvousStore {
	return &rendezvousStore{Store: inner, gate: make(chan struct{})}
}

func (s *rendezvousStore) MovementsByTicket(ctx context.Context, ticketID id.ID) ([]ledger.MovementRecord, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	if n <= 2 {
		if n == 2 {
			close(s.gate)
		}
		<-s.gate
	}
	return s.Store.MovementsByTicket(ctx, ticketID)
}

func TestConcurrentReverseAppliesOnce(t *testing.T) {
	store := memory.NewLedgerStore()
	ingredients := memory.NewIngredientRepo()
	ing := ingredient.New("potato", ingredient.UnitGram)
	require.NoError(t, ingredients.Create(context.Background(), ing))

	gated := newRendezvousStore(store)
	allocator := ledger.NewAllocator(gated, ingredients, tx.Noop{}, ledger.Config{})
	ctx := context.Background()

	batch, err := allocator.ReceiveBatch(ctx, ledger.ReceiveInput{
		IngredientID:  ing.ID,
		GrossQuantity: types.NewQuantityFromFloat64(10),
		UnitCost:      types.MustMoney("0.01"),
	})
	require.NoError(t, err)

	cancelled := id.New()
	other := id.New()
	_, _, err = allocator.Allocate(ctx, ing.ID, types.NewQuantityFromFloat64(3), cancelled)
	require.NoError(t, err)
	_, _, err = allocator.Allocate(ctx, ing.ID, types.NewQuantityFromFloat64(3), other)
	require.NoError(t, err)

	// Two terminals cancel the same ticket at once.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = allocator.Reverse(ctx, cancelled)
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Only the cancelled ticket's 3 units come back; the other ticket's
	// consumption stays committed.
	got, err := allocator.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(7), got.NetAvailable)
	assert.Equal(t, types.NewQuantityFromFloat64(3), got.UsedAmount)

	trail, err := store.MovementsByTicket(ctx, cancelled)
	require.NoError(t, err)
	reverses := 0
	for _, rec := range trail {
		if rec.MovementType == ledger.MovementReverse {
			reverses++
		}
	}
	assert.Equal(t, 1, reverses, "exactly one reverse row must be written")

	ingAfter, err := ingredients.GetByID(ctx, ing.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(7), ingAfter.CurrentStock)
}
