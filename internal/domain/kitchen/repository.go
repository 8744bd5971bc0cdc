package kitchen

import (
	"context"

	"brigade/internal/core/id"
)

// Repository is the persistence contract for kitchen tickets.
type Repository interface {
	// Create persists a new ticket.
	Create(ctx context.Context, t *KitchenTicket) error

	// GetByID returns one ticket or a NOT_FOUND error.
	GetByID(ctx context.Context, ticketID id.ID) (*KitchenTicket, error)

	// Update persists ticket status and timestamps, guarded by the status
	// the mutation read: when the stored status no longer matches from,
	// nothing is written and a CONFLICT error is returned.
	Update(ctx context.Context, t *KitchenTicket, from TicketStatus) error

	// List returns tickets, oldest first, optionally filtered by status.
	List(ctx context.Context, status *TicketStatus) ([]*KitchenTicket, error)

	// GetByOrderItem returns the active ticket of an order item, if any.
	GetByOrderItem(ctx context.Context, orderItemID id.ID) (*KitchenTicket, error)
}
