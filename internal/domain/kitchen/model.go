// Package kitchen owns kitchen tickets: the unit of work a station picks up
// for one order item. Starting a ticket locks ingredient stock through the
// ledger; cancelling or failing it reverses that consumption.
package kitchen

import (
	"time"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
)

// TicketStatus is the lifecycle state of a kitchen ticket.
type TicketStatus string

const (
	TicketQueued    TicketStatus = "queued"
	TicketStarted   TicketStatus = "started"
	TicketPaused    TicketStatus = "paused"
	TicketResumed   TicketStatus = "resumed"
	TicketReady     TicketStatus = "ready"
	TicketServed    TicketStatus = "served"
	TicketCancelled TicketStatus = "cancelled"
	TicketFailed    TicketStatus = "failed"
)

// ticketTransitions is the full ticket state machine. Any edge not listed is
// rejected. Served, cancelled, and failed are terminal.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketQueued:  {TicketStarted, TicketCancelled},
	TicketStarted: {TicketPaused, TicketReady, TicketCancelled, TicketFailed},
	TicketPaused:  {TicketResumed, TicketCancelled},
	TicketResumed: {TicketPaused, TicketReady, TicketCancelled, TicketFailed},
	TicketReady:   {TicketServed},
}

// CanTransition reports whether the edge from → to is allowed.
func CanTransition(from, to TicketStatus) bool {
	for _, allowed := range ticketTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// KitchenTicket is one station's unit of work for one order item.
type KitchenTicket struct {
	ID          id.ID  `db:"id" json:"id"`
	Number      string `db:"number" json:"number"`
	OrderID     id.ID  `db:"order_id" json:"orderId"`
	OrderItemID id.ID  `db:"order_item_id" json:"orderItemId"`
	MenuItemID  id.ID  `db:"menu_item_id" json:"menuItemId"`

	Name     string `db:"name" json:"name"`
	Portions int    `db:"portions" json:"portions"`
	Station  string `db:"station" json:"station,omitempty"`
	Notes    string `db:"notes" json:"notes,omitempty"`

	Status TicketStatus `db:"status" json:"status"`

	// InventoryLocked is true while this ticket holds consumed stock that a
	// cancel or fail must reverse.
	InventoryLocked bool `db:"inventory_locked" json:"inventoryLocked"`

	StartedAt   *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	// Pause bookkeeping. PausedAt is set while paused; PausedSeconds
	// accumulates completed pause spans so elapsed time excludes them.
	PausedAt      *time.Time `db:"paused_at" json:"pausedAt,omitempty"`
	PausedSeconds int64      `db:"paused_seconds" json:"pausedSeconds"`

	// ElapsedSeconds is the active cooking time, fixed when the ticket
	// becomes ready.
	ElapsedSeconds int64 `db:"elapsed_seconds" json:"elapsedSeconds"`

	Reason string `db:"reason" json:"reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewTicket creates a queued ticket for an order item.
func NewTicket(number string, orderID, orderItemID, menuItemID id.ID, name string, portions int) *KitchenTicket {
	now := time.Now().UTC()
	return &KitchenTicket{
		ID:          id.New(),
		Number:      number,
		OrderID:     orderID,
		OrderItemID: orderItemID,
		MenuItemID:  menuItemID,
		Name:        name,
		Portions:    portions,
		Status:      TicketQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SetStatus applies a validated transition.
func (t *KitchenTicket) SetStatus(to TicketStatus) error {
	if !CanTransition(t.Status, to) {
		return apperror.NewInvalidTransition("kitchen ticket", string(t.Status), string(to))
	}
	t.Status = to
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// ElapsedAt returns active cooking seconds at the given instant, excluding
// accumulated and in-flight pause time. Zero before the ticket starts.
func (t *KitchenTicket) ElapsedAt(now time.Time) int64 {
	if t.StartedAt == nil {
		return 0
	}
	elapsed := int64(now.Sub(*t.StartedAt).Seconds()) - t.PausedSeconds
	if t.PausedAt != nil {
		elapsed -= int64(now.Sub(*t.PausedAt).Seconds())
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
