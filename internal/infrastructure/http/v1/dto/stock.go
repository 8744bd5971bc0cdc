package dto

import (
	"time"

	"brigade/internal/core/types"
)

// ReceiveBatchRequest records a supplier delivery.
type ReceiveBatchRequest struct {
	IngredientID  string         `json:"ingredientId" binding:"required"`
	GrossQuantity types.Quantity `json:"grossQuantity" binding:"required"`
	UnitCost      string         `json:"unitCost" binding:"required"`
	ReceivedAt    *time.Time     `json:"receivedAt"`
	ExpiryDate    *time.Time     `json:"expiryDate"`
}

// WriteOffRequest wastes quantity from a batch.
type WriteOffRequest struct {
	Quantity types.Quantity `json:"quantity" binding:"required"`
	Reason   string         `json:"reason" binding:"required"`
}

// LockBatchRequest places a manual hold.
type LockBatchRequest struct {
	Owner string `json:"owner"`
}

// ReconcileRequest sets the counted quantity after a physical count.
type ReconcileRequest struct {
	CountedQuantity types.Quantity `json:"countedQuantity"`
}

// MovementQuery filters the movement history listing and export.
type MovementQuery struct {
	IngredientID string     `form:"ingredientId"`
	BatchID      string     `form:"batchId"`
	Type         string     `form:"type"`
	From         *time.Time `form:"from" time_format:"2006-01-02"`
	To           *time.Time `form:"to" time_format:"2006-01-02"`
	Limit        int        `form:"limit,default=100"`
	Offset       int        `form:"offset"`
}

// TurnoverQuery bounds the stock turnover report.
type TurnoverQuery struct {
	IngredientID string    `form:"ingredientId"`
	From         time.Time `form:"from" time_format:"2006-01-02" binding:"required"`
	To           time.Time `form:"to" time_format:"2006-01-02" binding:"required"`
}
