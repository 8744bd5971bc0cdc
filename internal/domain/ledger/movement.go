package ledger

import (
	"time"

	"brigade/internal/core/id"
	"brigade/internal/core/types"
)

// MovementType tags a movement ledger entry.
type MovementType string

const (
	MovementReceive MovementType = "receive"
	MovementConsume MovementType = "consume"
	MovementReverse MovementType = "reverse"
	MovementWaste   MovementType = "waste"
	MovementAdjust  MovementType = "adjust"
)

// Movement is one immutable audit entry. The ledger stores movements
// append-only; they are never updated or deleted once written and are the
// reconciliation source for cost reports.
//
// The union is closed: exactly the five variants below implement it, each
// carrying only the fields relevant to its kind.
type Movement interface {
	Type() MovementType
	Record() MovementRecord
}

// MovementBase contains the fields shared by all movement variants.
type MovementBase struct {
	LineID       id.ID
	IngredientID id.ID
	BatchID      id.ID
	Operator     string
	OccurredAt   time.Time
}

func newMovementBase(ingredientID, batchID id.ID, operator string) MovementBase {
	return MovementBase{
		LineID:       id.New(),
		IngredientID: ingredientID,
		BatchID:      batchID,
		Operator:     operator,
		OccurredAt:   time.Now().UTC(),
	}
}

// ReceiveMovement records a batch arriving from a supplier.
type ReceiveMovement struct {
	MovementBase
	GrossQuantity types.Quantity
	UnitCost      types.Money
}

func (ReceiveMovement) Type() MovementType { return MovementReceive }

// ConsumeMovement records quantity taken from one batch for one ticket.
type ConsumeMovement struct {
	MovementBase
	TicketID id.ID
	Quantity types.Quantity
	UnitCost types.Money
	Cost     types.Money
}

func (ConsumeMovement) Type() MovementType { return MovementConsume }

// ReverseMovement mirrors a consume row when a ticket is cancelled or failed.
type ReverseMovement struct {
	MovementBase
	TicketID id.ID
	Quantity types.Quantity
	UnitCost types.Money
	Cost     types.Money
}

func (ReverseMovement) Type() MovementType { return MovementReverse }

// WasteMovement records a write-off (spoilage, breakage, expiry).
type WasteMovement struct {
	MovementBase
	Quantity types.Quantity
	Reason   string
}

func (WasteMovement) Type() MovementType { return MovementWaste }

// AdjustMovement records a physical-count correction.
type AdjustMovement struct {
	MovementBase
	Delta           types.Quantity
	CountedQuantity types.Quantity
	Reason          string
}

func (AdjustMovement) Type() MovementType { return MovementAdjust }

// MovementRecord is the flat storage row for any movement variant.
// Fields not relevant to the variant stay zero.
type MovementRecord struct {
	LineID       id.ID          `db:"line_id" json:"lineId"`
	MovementType MovementType   `db:"movement_type" json:"movementType"`
	IngredientID id.ID          `db:"ingredient_id" json:"ingredientId"`
	BatchID      id.ID          `db:"batch_id" json:"batchId"`
	TicketID     *id.ID         `db:"ticket_id" json:"ticketId,omitempty"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	UnitCost     types.Money    `db:"unit_cost" json:"unitCost"`
	Cost         types.Money    `db:"cost" json:"cost"`
	Reason       string         `db:"reason" json:"reason,omitempty"`
	Operator     string         `db:"operator" json:"operator"`
	OccurredAt   time.Time      `db:"occurred_at" json:"occurredAt"`
}

func (m ReceiveMovement) Record() MovementRecord {
	return MovementRecord{
		LineID:       m.LineID,
		MovementType: MovementReceive,
		IngredientID: m.IngredientID,
		BatchID:      m.BatchID,
		Quantity:     m.GrossQuantity,
		UnitCost:     m.UnitCost,
		Cost:         m.GrossQuantity.Cost(m.UnitCost),
		Operator:     m.Operator,
		OccurredAt:   m.OccurredAt,
	}
}

func (m ConsumeMovement) Record() MovementRecord {
	ticketID := m.TicketID
	return MovementRecord{
		LineID:       m.LineID,
		MovementType: MovementConsume,
		IngredientID: m.IngredientID,
		BatchID:      m.BatchID,
		TicketID:     &ticketID,
		Quantity:     m.Quantity,
		UnitCost:     m.UnitCost,
		Cost:         m.Cost,
		Operator:     m.Operator,
		OccurredAt:   m.OccurredAt,
	}
}

func (m ReverseMovement) Record() MovementRecord {
	ticketID := m.TicketID
	return MovementRecord{
		LineID:       m.LineID,
		MovementType: MovementReverse,
		IngredientID: m.IngredientID,
		BatchID:      m.BatchID,
		TicketID:     &ticketID,
		Quantity:     m.Quantity,
		UnitCost:     m.UnitCost,
		Cost:         m.Cost,
		Operator:     m.Operator,
		OccurredAt:   m.OccurredAt,
	}
}

func (m WasteMovement) Record() MovementRecord {
	return MovementRecord{
		LineID:       m.LineID,
		MovementType: MovementWaste,
		IngredientID: m.IngredientID,
		BatchID:      m.BatchID,
		Quantity:     m.Quantity,
		Reason:       m.Reason,
		Operator:     m.Operator,
		OccurredAt:   m.OccurredAt,
	}
}

func (m AdjustMovement) Record() MovementRecord {
	return MovementRecord{
		LineID:       m.LineID,
		MovementType: MovementAdjust,
		IngredientID: m.IngredientID,
		BatchID:      m.BatchID,
		Quantity:     m.Delta,
		Reason:       m.Reason,
		Operator:     m.Operator,
		OccurredAt:   m.OccurredAt,
	}
}
