package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/domain/kitchen"
	"brigade/internal/infrastructure/http/v1/dto"
)

// KitchenHandler serves the ticket lifecycle endpoints.
type KitchenHandler struct {
	*BaseHandler
	service *kitchen.Service
}

// NewKitchenHandler creates the kitchen handler.
func NewKitchenHandler(base *BaseHandler, service *kitchen.Service) *KitchenHandler {
	return &KitchenHandler{BaseHandler: base, service: service}
}

// Create handles POST /kitchen/tickets.
func (h *KitchenHandler) Create(c *gin.Context) {
	var req dto.CreateTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	orderItemID, err := id.Parse(req.OrderItemID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid order item id"))
		return
	}

	ticket, err := h.service.CreateTicket(c.Request.Context(), orderItemID, req.Station)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, ticket.ID.String())
}

// Get handles GET /kitchen/tickets/:id.
func (h *KitchenHandler) Get(c *gin.Context) {
	ticketID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	ticket, err := h.service.Get(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ticket)
}

// List handles GET /kitchen/tickets?status=.
func (h *KitchenHandler) List(c *gin.Context) {
	var status *kitchen.TicketStatus
	if s := c.Query("status"); s != "" {
		st := kitchen.TicketStatus(s)
		status = &st
	}
	list, err := h.service.List(c.Request.Context(), status)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}

// Start handles POST /kitchen/tickets/:id/start.
func (h *KitchenHandler) Start(c *gin.Context) {
	h.lifecycle(c, h.service.Start)
}

// Pause handles POST /kitchen/tickets/:id/pause.
func (h *KitchenHandler) Pause(c *gin.Context) {
	h.lifecycle(c, h.service.Pause)
}

// Resume handles POST /kitchen/tickets/:id/resume.
func (h *KitchenHandler) Resume(c *gin.Context) {
	h.lifecycle(c, h.service.Resume)
}

// Complete handles POST /kitchen/tickets/:id/complete.
func (h *KitchenHandler) Complete(c *gin.Context) {
	h.lifecycle(c, h.service.Complete)
}

// Serve handles POST /kitchen/tickets/:id/serve.
func (h *KitchenHandler) Serve(c *gin.Context) {
	h.lifecycle(c, h.service.Serve)
}

// Cancel handles POST /kitchen/tickets/:id/cancel.
func (h *KitchenHandler) Cancel(c *gin.Context) {
	h.abort(c, h.service.Cancel)
}

// Fail handles POST /kitchen/tickets/:id/fail.
func (h *KitchenHandler) Fail(c *gin.Context) {
	h.abort(c, h.service.Fail)
}

func (h *KitchenHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, ticketID id.ID) (*kitchen.KitchenTicket, error)) {
	ticketID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	ticket, err := fn(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ticket)
}

func (h *KitchenHandler) abort(c *gin.Context, fn func(ctx context.Context, ticketID id.ID, reason string) (*kitchen.KitchenTicket, error)) {
	ticketID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.AbortTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ticket, err := fn(c.Request.Context(), ticketID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ticket)
}
