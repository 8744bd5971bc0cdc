package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
	"brigade/internal/domain/ledger"
	"brigade/internal/infrastructure/http/v1/dto"
	"brigade/pkg/logger"
)

// StockHandler serves the stock ledger endpoints: receipts, write-offs,
// holds, counts, and movement history.
type StockHandler struct {
	*BaseHandler
	allocator *ledger.Allocator
}

// NewStockHandler creates the stock handler.
func NewStockHandler(base *BaseHandler, allocator *ledger.Allocator) *StockHandler {
	return &StockHandler{BaseHandler: base, allocator: allocator}
}

// ReceiveBatch handles POST /stock/batches.
func (h *StockHandler) ReceiveBatch(c *gin.Context) {
	var req dto.ReceiveBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ingredientID, err := id.Parse(req.IngredientID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid ingredient id"))
		return
	}
	unitCost, err := types.NewMoneyFromString(req.UnitCost)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid unit cost"))
		return
	}

	in := ledger.ReceiveInput{
		IngredientID:  ingredientID,
		GrossQuantity: req.GrossQuantity,
		UnitCost:      unitCost,
		ExpiryDate:    req.ExpiryDate,
	}
	if req.ReceivedAt != nil {
		in.ReceivedAt = *req.ReceivedAt
	}

	batch, err := h.allocator.ReceiveBatch(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, batch.ID.String())
}

// ListBatches handles GET /stock/ingredients/:id/batches.
func (h *StockHandler) ListBatches(c *gin.Context) {
	ingredientID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	batches, err := h.allocator.Batches(c.Request.Context(), ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(batches))
}

// GetBatch handles GET /stock/batches/:id.
func (h *StockHandler) GetBatch(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	batch, err := h.allocator.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batch)
}

// WriteOff handles POST /stock/batches/:id/write-off.
func (h *StockHandler) WriteOff(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.WriteOffRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.allocator.WriteOff(c.Request.Context(), batchID, req.Quantity, req.Reason); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "batch written off")
}

// Lock handles POST /stock/batches/:id/lock.
func (h *StockHandler) Lock(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.LockBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.allocator.LockBatch(c.Request.Context(), batchID, req.Owner); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "batch locked")
}

// Unlock handles POST /stock/batches/:id/unlock.
func (h *StockHandler) Unlock(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.allocator.UnlockBatch(c.Request.Context(), batchID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "batch unlocked")
}

// Reconcile handles POST /stock/batches/:id/reconcile.
func (h *StockHandler) Reconcile(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReconcileRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.allocator.ReconcileCount(c.Request.Context(), batchID, req.CountedQuantity); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "batch reconciled")
}

// Movements handles GET /stock/movements.
func (h *StockHandler) Movements(c *gin.Context) {
	filter, ok := h.movementFilter(c)
	if !ok {
		return
	}
	records, err := h.allocator.Movements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(records))
}

// ExportMovements handles GET /stock/movements/export: the full movement
// history matching the filter as gzip-compressed JSON lines, for the
// analytics collaborator.
func (h *StockHandler) ExportMovements(c *gin.Context) {
	filter, ok := h.movementFilter(c)
	if !ok {
		return
	}
	// Export ignores paging: the filter bounds the data, the stream
	// bounds the memory.
	filter.Limit = 0
	filter.Offset = 0

	records, err := h.allocator.Movements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Content-Encoding", "gzip")
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=movements-%s.ndjson.gz", time.Now().UTC().Format("20060102-150405")))
	c.Status(http.StatusOK)

	zw := gzip.NewWriter(c.Writer)
	enc := json.NewEncoder(zw)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			logger.Error(c.Request.Context(), "movement export aborted", "error", err)
			return
		}
	}
	if err := zw.Close(); err != nil {
		logger.Error(c.Request.Context(), "movement export flush failed", "error", err)
	}
}

func (h *StockHandler) movementFilter(c *gin.Context) (ledger.MovementFilter, bool) {
	var q dto.MovementQuery
	if !h.BindQuery(c, &q) {
		return ledger.MovementFilter{}, false
	}

	filter := ledger.MovementFilter{
		FromDate: q.From,
		ToDate:   q.To,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.IngredientID != "" {
		parsed, err := id.Parse(q.IngredientID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid ingredient id"))
			return filter, false
		}
		filter.IngredientID = &parsed
	}
	if q.BatchID != "" {
		parsed, err := id.Parse(q.BatchID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid batch id"))
			return filter, false
		}
		filter.BatchID = &parsed
	}
	if q.Type != "" {
		mt := ledger.MovementType(q.Type)
		filter.MovementType = &mt
	}
	return filter, true
}
