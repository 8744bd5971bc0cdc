package memory

import (
	"context"
	"sort"
	"sync"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/domain/orders"
)

// OrderRepo is the in-process orders.Repository.
type OrderRepo struct {
	mu     sync.RWMutex
	orders map[id.ID]*orders.Order
	items  map[id.ID]*orders.OrderItem
}

var _ orders.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates an empty order store.
func NewOrderRepo() *OrderRepo {
	return &OrderRepo{
		orders: make(map[id.ID]*orders.Order),
		items:  make(map[id.ID]*orders.OrderItem),
	}
}

func (r *OrderRepo) CreateOrder(_ context.Context, o *orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[o.ID]; exists {
		return apperror.NewConflict("order already exists")
	}
	cp := *o
	cp.Items = nil
	r.orders[o.ID] = &cp
	for i := range o.Items {
		item := o.Items[i]
		r.items[item.ID] = &item
	}
	return nil
}

func (r *OrderRepo) GetOrder(_ context.Context, orderID id.ID) (*orders.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	cp := *o
	cp.Items = r.itemsOf(orderID)
	return &cp, nil
}

func (r *OrderRepo) UpdateOrder(_ context.Context, o *orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return apperror.NewNotFound("order", o.ID.String())
	}
	cp := *o
	cp.Items = nil
	r.orders[o.ID] = &cp
	return nil
}

func (r *OrderRepo) ListOrders(_ context.Context, status *orders.OrderStatus) ([]*orders.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*orders.Order
	for _, o := range r.orders {
		if status != nil && o.Status != *status {
			continue
		}
		cp := *o
		cp.Items = r.itemsOf(o.ID)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *OrderRepo) GetItem(_ context.Context, itemID id.ID) (*orders.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("order item", itemID.String())
	}
	cp := *item
	return &cp, nil
}

func (r *OrderRepo) UpdateItem(_ context.Context, item *orders.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return apperror.NewNotFound("order item", item.ID.String())
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *OrderRepo) ItemsByOrder(_ context.Context, orderID id.ID) ([]orders.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.itemsOf(orderID), nil
}

// itemsOf must be called with the lock held.
func (r *OrderRepo) itemsOf(orderID id.ID) []orders.OrderItem {
	var out []orders.OrderItem
	for _, item := range r.items {
		if item.OrderID == orderID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
