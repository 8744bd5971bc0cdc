package handlers

import (
	"github.com/gin-gonic/gin"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
	"brigade/internal/domain/orders"
	"brigade/internal/infrastructure/http/v1/dto"
)

// OrdersHandler serves order and order item endpoints.
type OrdersHandler struct {
	*BaseHandler
	service *orders.Service
}

// NewOrdersHandler creates the orders handler.
func NewOrdersHandler(base *BaseHandler, service *orders.Service) *OrdersHandler {
	return &OrdersHandler{BaseHandler: base, service: service}
}

// Create handles POST /orders.
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	items := make([]orders.ItemInput, 0, len(req.Items))
	for i, ir := range req.Items {
		menuItemID, err := id.Parse(ir.MenuItemID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid menu item id").WithDetail("item", i))
			return
		}
		price := types.ZeroMoney()
		if ir.Price != "" {
			price, err = types.NewMoneyFromString(ir.Price)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid price").WithDetail("item", i))
				return
			}
		}
		items = append(items, orders.ItemInput{
			MenuItemID: menuItemID,
			Name:       ir.Name,
			Portions:   ir.Portions,
			Price:      price,
			Notes:      ir.Notes,
		})
	}

	order, err := h.service.Create(c.Request.Context(), req.TableNumber, items)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, order.ID.String())
}

// Get handles GET /orders/:id.
func (h *OrdersHandler) Get(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	order, err := h.service.Get(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// List handles GET /orders?status=.
func (h *OrdersHandler) List(c *gin.Context) {
	var status *orders.OrderStatus
	if s := c.Query("status"); s != "" {
		st := orders.OrderStatus(s)
		status = &st
	}
	list, err := h.service.List(c.Request.Context(), status)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}

// TransitionItem handles POST /orders/items/:id/transition.
func (h *OrdersHandler) TransitionItem(c *gin.Context) {
	itemID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.TransitionItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.service.TransitionItem(c.Request.Context(), itemID, orders.ItemStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}
