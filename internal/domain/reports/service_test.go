package reports_test

import (
	"context"
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
	"brigade/internal/domain/reports"
	"brigade/internal/infrastructure/storage/memory"
)

type reportFixture struct {
	allocator  *ledger.Allocator
	reports    *reports.Service
	ingredient *ingredient.Ingredient
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	store := memory.NewLedgerStore()
	ingredients := memory.NewIngredientRepo()

	ing := ingredient.New("potato", ingredient.UnitGram)
	require.NoError(t, ingredients.Create(context.Background(), ing))

	allocator := ledger.NewAllocator(store, ingredients, tx.Noop{}, ledger.Config{})
	return &reportFixture{
		allocator:  allocator,
		reports:    reports.NewService(allocator),
		ingredient: ing,
	}
}

func (f *reportFixture) receive(t *testing.T, qty float64, unitCost string) *ledger.StockBatch {
	t.Helper()
	batch, err := f.allocator.ReceiveBatch(context.Background(), ledger.ReceiveInput{
		IngredientID:  f.ingredient.ID,
		GrossQuantity: types.NewQuantityFromFloat64(qty),
		UnitCost:      types.MustMoney(unitCost),
	})
	require.NoError(t, err)
	return batch
}

// wideRange brackets every movement the fixture produces; the report filter
// is exercised separately by the validation test.
func wideRange() reports.TurnoverFilter {
	return reports.TurnoverFilter{
		FromDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		ToDate:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStockTurnoverAggregatesMovements(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	batch := f.receive(t, 1000, "0.01")
	f.receive(t, 500, "0.01")

	ticketID := id.New()
	_, _, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(300), ticketID)
	require.NoError(t, err)
	require.NoError(t, f.allocator.WriteOff(ctx, batch.ID, types.NewQuantityFromFloat64(50), "dropped"))

	report, err := f.reports.StockTurnover(ctx, wideRange())
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, f.ingredient.ID, row.IngredientID)
	assert.Equal(t, types.NewQuantityFromFloat64(1500), row.Received)
	assert.Equal(t, types.NewQuantityFromFloat64(300), row.Consumed)
	assert.Equal(t, types.Quantity(0), row.Reversed)
	assert.Equal(t, types.NewQuantityFromFloat64(50), row.Wasted)
	assert.Equal(t, types.NewQuantityFromFloat64(300), row.NetConsumed)
	assert.True(t, row.ConsumedCost.Equal(types.MustMoney("3.00")), "cost = %s", row.ConsumedCost)
}

func TestStockTurnoverNetsOutReversals(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	f.receive(t, 1000, "0.02")

	ticketID := id.New()
	_, _, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(400), ticketID)
	require.NoError(t, err)
	require.NoError(t, f.allocator.Reverse(ctx, ticketID))

	report, err := f.reports.StockTurnover(ctx, wideRange())
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, types.NewQuantityFromFloat64(400), row.Consumed)
	assert.Equal(t, types.NewQuantityFromFloat64(400), row.Reversed)
	assert.Equal(t, types.Quantity(0), row.NetConsumed)
	assert.True(t, row.ConsumedCost.IsZero(), "cost = %s", row.ConsumedCost)
}

func TestStockTurnoverRequiresBothDates(t *testing.T) {
	f := newReportFixture(t)

	_, err := f.reports.StockTurnover(context.Background(), reports.TurnoverFilter{
		FromDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.reports.StockTurnover(context.Background(), reports.TurnoverFilter{
		FromDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		ToDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestStockTurnoverEmptyPeriod(t *testing.T) {
	f := newReportFixture(t)
	f.receive(t, 100, "0.01")

	report, err := f.reports.StockTurnover(context.Background(), reports.TurnoverFilter{
		FromDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		ToDate:   time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
}

func TestCostOfTicket(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	f.receive(t, 1000, "0.01")

	ticketID := id.New()
	_, _, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(230), ticketID)
	require.NoError(t, err)

	cost, err := f.reports.CostOfTicket(ctx, ticketID)
	require.NoError(t, err)

	assert.Equal(t, ticketID, cost.TicketID)
	assert.Equal(t, types.NewQuantityFromFloat64(230), cost.Consumed)
	assert.Equal(t, types.Quantity(0), cost.Reversed)
	assert.Equal(t, 1, cost.Ingredients)
	assert.True(t, cost.NetCost.Equal(types.MustMoney("2.30")), "cost = %s", cost.NetCost)
}

func TestCostOfReversedTicketIsZero(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	f.receive(t, 1000, "0.01")

	ticketID := id.New()
	_, _, err := f.allocator.Allocate(ctx, f.ingredient.ID, types.NewQuantityFromFloat64(230), ticketID)
	require.NoError(t, err)
	require.NoError(t, f.allocator.Reverse(ctx, ticketID))

	cost, err := f.reports.CostOfTicket(ctx, ticketID)
	require.NoError(t, err)

	assert.Equal(t, cost.Consumed, cost.Reversed)
	assert.True(t, cost.NetCost.IsZero(), "cost = %s", cost.NetCost)
	assert.Equal(t, 1, cost.Ingredients)
}

func TestCostOfUnknownTicketIsEmpty(t *testing.T) {
	f := newReportFixture(t)

	cost, err := f.reports.CostOfTicket(context.Background(), id.New())
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), cost.Consumed)
	assert.True(t, cost.NetCost.IsZero())
	assert.Zero(t, cost.Ingredients)
}
