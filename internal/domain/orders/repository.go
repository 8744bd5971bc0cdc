package orders

import (
	"context"

	"brigade/internal/core/id"
)

// Repository is the persistence contract for orders and their items.
type Repository interface {
	// CreateOrder persists an order with its items.
	CreateOrder(ctx context.Context, o *Order) error

	// GetOrder returns an order with items, or a NOT_FOUND error.
	GetOrder(ctx context.Context, orderID id.ID) (*Order, error)

	// UpdateOrder persists order-level fields (status).
	UpdateOrder(ctx context.Context, o *Order) error

	// ListOrders returns orders, newest first, optionally filtered by status.
	ListOrders(ctx context.Context, status *OrderStatus) ([]*Order, error)

	// GetItem returns one item or a NOT_FOUND error.
	GetItem(ctx context.Context, itemID id.ID) (*OrderItem, error)

	// UpdateItem persists item status and timestamps.
	UpdateItem(ctx context.Context, item *OrderItem) error

	// ItemsByOrder returns all items of an order.
	ItemsByOrder(ctx context.Context, orderID id.ID) ([]OrderItem, error)
}
