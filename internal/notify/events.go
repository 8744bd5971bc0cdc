// Package notify defines the outbound notification contract consumed by the
// real-time broadcast and analytics collaborators. Delivery is fire-and-forget:
// a failed or slow notifier must never roll back the business transition that
// produced the event.
package notify

import (
	"time"

	"brigade/internal/core/id"
	"brigade/internal/core/types"
)

// Event is implemented by every outbound notification.
type Event interface {
	EventType() string
}

// TicketCreated is emitted when a kitchen ticket enters the queue.
type TicketCreated struct {
	TicketID     id.ID     `json:"ticketId"`
	TicketNumber string    `json:"ticketNumber"`
	OrderItemID  id.ID     `json:"orderItemId"`
	Station      string    `json:"station"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (TicketCreated) EventType() string { return "ticket.created" }

// TicketStatusChanged is emitted on every ticket transition.
type TicketStatusChanged struct {
	TicketID       id.ID     `json:"ticketId"`
	TicketNumber   string    `json:"ticketNumber"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	ElapsedSeconds int64     `json:"elapsedSeconds"`
	OccurredAt     time.Time `json:"occurredAt"`
}

func (TicketStatusChanged) EventType() string { return "ticket.status_changed" }

// BatchReceived is emitted when a stock batch is received into the ledger.
type BatchReceived struct {
	BatchID      id.ID          `json:"batchId"`
	IngredientID id.ID          `json:"ingredientId"`
	GrossIn      types.Quantity `json:"grossIn"`
	UnitCost     types.Money    `json:"unitCost"`
	ReceivedAt   time.Time      `json:"receivedAt"`
}

func (BatchReceived) EventType() string { return "stock.batch_received" }

// LowStock is emitted when an ingredient's available stock crosses its minimum.
type LowStock struct {
	IngredientID id.ID          `json:"ingredientId"`
	Name         string         `json:"name"`
	Available    types.Quantity `json:"available"`
	MinStock     types.Quantity `json:"minStock"`
	Rule         string         `json:"rule"`
}

func (LowStock) EventType() string { return "stock.low" }

// BatchExpiring is emitted for batches approaching their expiry date.
type BatchExpiring struct {
	BatchID      id.ID     `json:"batchId"`
	IngredientID id.ID     `json:"ingredientId"`
	ExpiryDate   time.Time `json:"expiryDate"`
	Rule         string    `json:"rule"`
}

func (BatchExpiring) EventType() string { return "stock.batch_expiring" }

// BatchExpired is emitted when the expiry sweep retires a batch.
type BatchExpired struct {
	BatchID      id.ID          `json:"batchId"`
	IngredientID id.ID          `json:"ingredientId"`
	WastedAmount types.Quantity `json:"wastedAmount"`
}

func (BatchExpired) EventType() string { return "stock.batch_expired" }
