package dto

// OrderItemRequest is one line of a new order.
type OrderItemRequest struct {
	MenuItemID string `json:"menuItemId" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Portions   int    `json:"portions" binding:"required"`
	Price      string `json:"price"`
	Notes      string `json:"notes"`
}

// CreateOrderRequest opens an order.
type CreateOrderRequest struct {
	TableNumber int                `json:"tableNumber" binding:"required"`
	Items       []OrderItemRequest `json:"items" binding:"required"`
}

// TransitionItemRequest moves an order item along its state machine.
type TransitionItemRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateTicketRequest queues a kitchen ticket for an order item.
type CreateTicketRequest struct {
	OrderItemID string `json:"orderItemId" binding:"required"`
	Station     string `json:"station"`
}

// AbortTicketRequest cancels or fails a ticket with a reason.
type AbortTicketRequest struct {
	Reason string `json:"reason" binding:"required"`
}
