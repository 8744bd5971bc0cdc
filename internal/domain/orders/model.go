// Package orders owns customer orders, their line items, and the item status
// state machine that kitchen ticket events drive.
package orders

import (
	"time"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
)

// OrderStatus is the aggregate status derived from a kitchen ticket's
// progress and the order's item statuses.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "open"
	OrderInKitchen OrderStatus = "in_kitchen"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderCancelled OrderStatus = "cancelled"
)

// ItemStatus is the lifecycle state of one order item.
type ItemStatus string

const (
	ItemDraft      ItemStatus = "draft"
	ItemQueued     ItemStatus = "queued"
	ItemPending    ItemStatus = "pending"
	ItemInProgress ItemStatus = "in_progress"
	ItemReady      ItemStatus = "ready"
	ItemServed     ItemStatus = "served"
	ItemReturned   ItemStatus = "returned"
	ItemCancelled  ItemStatus = "cancelled"
	ItemVoided     ItemStatus = "voided"
)

// itemTransitions is the full item state machine. Any edge not listed is
// rejected. Cancelled and voided are terminal; returned re-queues.
var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemDraft:      {ItemQueued, ItemCancelled},
	ItemQueued:     {ItemPending, ItemCancelled},
	ItemPending:    {ItemInProgress, ItemCancelled},
	ItemInProgress: {ItemReady, ItemCancelled, ItemVoided},
	ItemReady:      {ItemServed, ItemReturned},
	ItemServed:     {ItemReturned},
	ItemReturned:   {ItemQueued},
}

// CanTransition reports whether the edge from → to is allowed.
func CanTransition(from, to ItemStatus) bool {
	for _, allowed := range itemTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the item status admits no further transitions.
func (s ItemStatus) Terminal() bool {
	return s == ItemCancelled || s == ItemVoided
}

// Settled reports whether the item no longer needs kitchen work.
// Used when deriving the parent order's status.
func (s ItemStatus) Settled() bool {
	return s == ItemServed || s == ItemCancelled || s == ItemVoided
}

// OrderItem is one menu item line of an order.
type OrderItem struct {
	ID         id.ID `db:"id" json:"id"`
	OrderID    id.ID `db:"order_id" json:"orderId"`
	MenuItemID id.ID `db:"menu_item_id" json:"menuItemId"`

	Name     string      `db:"name" json:"name"`
	Portions int         `db:"portions" json:"portions"`
	Price    types.Money `db:"price" json:"price"`
	Notes    string      `db:"notes" json:"notes,omitempty"`

	Status          ItemStatus `db:"status" json:"status"`
	StatusChangedAt time.Time  `db:"status_changed_at" json:"statusChangedAt"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// SetStatus applies a validated transition, stamping statusChangedAt.
func (i *OrderItem) SetStatus(to ItemStatus) error {
	if !CanTransition(i.Status, to) {
		return apperror.NewInvalidTransition("order item", string(i.Status), string(to))
	}
	now := time.Now().UTC()
	i.Status = to
	i.StatusChangedAt = now
	i.UpdatedAt = now
	return nil
}

// Order is one customer order with its items.
type Order struct {
	ID          id.ID       `db:"id" json:"id"`
	Number      string      `db:"number" json:"number"`
	TableNumber int         `db:"table_number" json:"tableNumber"`
	Status      OrderStatus `db:"status" json:"status"`
	Items       []OrderItem `db:"-" json:"items"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// NewOrder creates an open order.
func NewOrder(number string, tableNumber int) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:          id.New(),
		Number:      number,
		TableNumber: tableNumber,
		Status:      OrderOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewItem creates a draft item for an order.
func NewItem(orderID, menuItemID id.ID, name string, portions int, price types.Money) *OrderItem {
	now := time.Now().UTC()
	return &OrderItem{
		ID:              id.New(),
		OrderID:         orderID,
		MenuItemID:      menuItemID,
		Name:            name,
		Portions:        portions,
		Price:           price,
		Status:          ItemDraft,
		StatusChangedAt: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
