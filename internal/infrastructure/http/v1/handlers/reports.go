package handlers

import (
	"github.com/gin-gonic/gin"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/domain/reports"
	"brigade/internal/infrastructure/http/v1/dto"
)

// ReportsHandler serves the derived reporting endpoints.
type ReportsHandler struct {
	*BaseHandler
	reports *reports.Service
}

// NewReportsHandler creates the reports handler.
func NewReportsHandler(base *BaseHandler, svc *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, reports: svc}
}

// Turnover handles GET /stock/reports/turnover.
func (h *ReportsHandler) Turnover(c *gin.Context) {
	var q dto.TurnoverQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := reports.TurnoverFilter{FromDate: q.From, ToDate: q.To}
	if q.IngredientID != "" {
		parsed, err := id.Parse(q.IngredientID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid ingredient id"))
			return
		}
		filter.IngredientID = &parsed
	}

	report, err := h.reports.StockTurnover(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// TicketCost handles GET /kitchen/tickets/:id/cost.
func (h *ReportsHandler) TicketCost(c *gin.Context) {
	ticketID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	cost, err := h.reports.CostOfTicket(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cost)
}
