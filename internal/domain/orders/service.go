package orders

import (
	"context"
	"time"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/numerator"
	"brigade/internal/core/tx"
	"brigade/internal/core/types"
	"brigade/pkg/logger"
)

// ItemInput describes one line of a new order.
type ItemInput struct {
	MenuItemID id.ID       `json:"menuItemId"`
	Name       string      `json:"name"`
	Portions   int         `json:"portions"`
	Price      types.Money `json:"price"`
	Notes      string      `json:"notes"`
}

// Service manages orders and drives the item state machine.
type Service struct {
	repo    Repository
	txm     tx.Manager
	numbers numerator.Generator
	numCfg  numerator.Config
}

// NewService creates the order service.
func NewService(repo Repository, txm tx.Manager, numbers numerator.Generator) *Service {
	return &Service{
		repo:    repo,
		txm:     txm,
		numbers: numbers,
		numCfg:  numerator.DefaultConfig("ORD"),
	}
}

// Create opens an order with its items queued for the kitchen.
func (s *Service) Create(ctx context.Context, tableNumber int, items []ItemInput) (*Order, error) {
	if len(items) == 0 {
		return nil, apperror.NewValidation("order must have at least one item")
	}
	for i, item := range items {
		if item.Portions <= 0 {
			return nil, apperror.NewValidation("item portions must be positive").WithDetail("item", i)
		}
		if item.Name == "" {
			return nil, apperror.NewValidation("item name is required").WithDetail("item", i)
		}
	}

	number, err := s.numbers.Next(ctx, s.numCfg, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	order := NewOrder(number, tableNumber)
	for _, in := range items {
		item := NewItem(order.ID, in.MenuItemID, in.Name, in.Portions, in.Price)
		item.Notes = in.Notes
		// New items skip draft: placing the order queues them.
		item.Status = ItemQueued
		order.Items = append(order.Items, *item)
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order created",
		"order_id", order.ID,
		"number", order.Number,
		"items", len(order.Items),
	)
	return order, nil
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

// List returns orders, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *OrderStatus) ([]*Order, error) {
	return s.repo.ListOrders(ctx, status)
}

// TransitionItem moves one item along the state machine. After a move to
// served, the parent order advances ready → served once every item is
// served, cancelled, or voided.
func (s *Service) TransitionItem(ctx context.Context, itemID id.ID, to ItemStatus) (*OrderItem, error) {
	var item *OrderItem
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.repo.GetItem(ctx, itemID)
		if err != nil {
			return err
		}

		from := item.Status
		if err := item.SetStatus(to); err != nil {
			return err
		}
		if err := s.repo.UpdateItem(ctx, item); err != nil {
			return err
		}
		logger.Info(ctx, "order item transitioned",
			"item_id", item.ID,
			"from", from,
			"to", to,
		)

		if to == ItemServed {
			return s.advanceServed(ctx, item.OrderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// SetOrderStatus sets the aggregate order status. Kitchen ticket events call
// this as tickets move through the line.
func (s *Service) SetOrderStatus(ctx context.Context, orderID id.ID, status OrderStatus) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == status {
			return nil
		}
		order.Status = status
		order.UpdatedAt = time.Now().UTC()
		return s.repo.UpdateOrder(ctx, order)
	})
}

// advanceServed promotes a ready order to served when no item still needs
// the kitchen. Runs inside the item transition's transaction.
func (s *Service) advanceServed(ctx context.Context, orderID id.ID) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != OrderReady {
		return nil
	}
	for _, item := range order.Items {
		if !item.Status.Settled() {
			return nil
		}
	}

	order.Status = OrderServed
	order.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateOrder(ctx, order); err != nil {
		return err
	}
	logger.Info(ctx, "order served", "order_id", order.ID, "number", order.Number)
	return nil
}
