package orders_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/numerator"
	"brigade/internal/core/tx"
	"brigade/internal/core/types"
	"brigade/internal/domain/orders"
	"brigade/internal/infrastructure/storage/memory"
)

func newOrderService() (*orders.Service, *memory.OrderRepo) {
	repo := memory.NewOrderRepo()
	return orders.NewService(repo, tx.Noop{}, numerator.NewMemory()), repo
}

func oneItem() []orders.ItemInput {
	return []orders.ItemInput{
		{MenuItemID: id.New(), Name: "soup", Portions: 1, Price: types.MustMoney("6.00")},
	}
}

func TestCreateOrder(t *testing.T) {
	svc, _ := newOrderService()
	ctx := context.Background()

	order, err := svc.Create(ctx, 7, []orders.ItemInput{
		{MenuItemID: id.New(), Name: "soup", Portions: 2, Price: types.MustMoney("6.00")},
		{MenuItemID: id.New(), Name: "bread", Portions: 1, Price: types.MustMoney("2.50"), Notes: "no butter"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.Number, "ORD-"), "number = %s", order.Number)
	assert.Equal(t, orders.OrderOpen, order.Status)
	assert.Equal(t, 7, order.TableNumber)
	require.Len(t, order.Items, 2)
	for _, item := range order.Items {
		assert.Equal(t, orders.ItemQueued, item.Status)
	}
	assert.Equal(t, "no butter", order.Items[1].Notes)
}

func TestCreateOrderSequencesNumbers(t *testing.T) {
	svc, _ := newOrderService()
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, oneItem())
	require.NoError(t, err)
	second, err := svc.Create(ctx, 2, oneItem())
	require.NoError(t, err)

	assert.NotEqual(t, first.Number, second.Number)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _ := newOrderService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.Create(ctx, 1, []orders.ItemInput{{MenuItemID: id.New(), Name: "soup", Portions: 0}})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.Create(ctx, 1, []orders.ItemInput{{MenuItemID: id.New(), Portions: 1}})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestTransitionItem(t *testing.T) {
	svc, _ := newOrderService()
	ctx := context.Background()

	order, err := svc.Create(ctx, 1, oneItem())
	require.NoError(t, err)
	itemID := order.Items[0].ID

	item, err := svc.TransitionItem(ctx, itemID, orders.ItemPending)
	require.NoError(t, err)
	assert.Equal(t, orders.ItemPending, item.Status)

	_, err = svc.TransitionItem(ctx, itemID, orders.ItemServed)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.ItemPending, got.Items[0].Status)
}

func TestOrderServedWhenAllItemsSettle(t *testing.T) {
	svc, _ := newOrderService()
	ctx := context.Background()

	order, err := svc.Create(ctx, 1, []orders.ItemInput{
		{MenuItemID: id.New(), Name: "soup", Portions: 1, Price: types.MustMoney("6.00")},
		{MenuItemID: id.New(), Name: "bread", Portions: 1, Price: types.MustMoney("2.50")},
	})
	require.NoError(t, err)

	advance := func(itemID id.ID, path ...orders.ItemStatus) {
		for _, st := range path {
			_, err := svc.TransitionItem(ctx, itemID, st)
			require.NoError(t, err)
		}
	}

	require.NoError(t, svc.SetOrderStatus(ctx, order.ID, orders.OrderReady))

	// One item cancelled, the other fully served: the order settles.
	advance(order.Items[0].ID, orders.ItemCancelled)
	advance(order.Items[1].ID, orders.ItemPending, orders.ItemInProgress, orders.ItemReady, orders.ItemServed)

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.OrderServed, got.Status)
}

func TestOrderStaysReadyWhileItemsOutstanding(t *testing.T) {
	svc, _ := newOrderService()
	ctx := context.Background()

	order, err := svc.Create(ctx, 1, []orders.ItemInput{
		{MenuItemID: id.New(), Name: "soup", Portions: 1, Price: types.MustMoney("6.00")},
		{MenuItemID: id.New(), Name: "bread", Portions: 1, Price: types.MustMoney("2.50")},
	})
	require.NoError(t, err)
	require.NoError(t, svc.SetOrderStatus(ctx, order.ID, orders.OrderReady))

	for _, st := range []orders.ItemStatus{orders.ItemPending, orders.ItemInProgress, orders.ItemReady, orders.ItemServed} {
		_, err := svc.TransitionItem(ctx, order.Items[0].ID, st)
		require.NoError(t, err)
	}

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.OrderReady, got.Status, "second item still queued")
}

func TestReturnedItemRequeues(t *testing.T) {
	svc, _ := newOrderService()
	ctx := context.Background()

	order, err := svc.Create(ctx, 1, oneItem())
	require.NoError(t, err)
	itemID := order.Items[0].ID

	for _, st := range []orders.ItemStatus{orders.ItemPending, orders.ItemInProgress, orders.ItemReady, orders.ItemServed, orders.ItemReturned, orders.ItemQueued} {
		_, err := svc.TransitionItem(ctx, itemID, st)
		require.NoError(t, err)
	}

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.ItemQueued, got.Items[0].Status)
}
