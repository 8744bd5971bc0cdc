// Package reports derives consumption and cost reports from the movement
// ledger. Reports are computed, never stored: the append-only movement rows
// are the single source of truth they reconcile against.
package reports

import (
	"context"
	"sort"
	"time"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
	"brigade/internal/domain/ledger"
)

// TurnoverFilter bounds a turnover report.
type TurnoverFilter struct {
	IngredientID *id.ID
	FromDate     time.Time
	ToDate       time.Time
}

// TurnoverRow aggregates one ingredient's movements for the period.
type TurnoverRow struct {
	IngredientID id.ID          `json:"ingredientId"`
	Received     types.Quantity `json:"received"`
	Consumed     types.Quantity `json:"consumed"`
	Reversed     types.Quantity `json:"reversed"`
	Wasted       types.Quantity `json:"wasted"`

	// NetConsumed is consumption minus reversals: what actually left stock
	// for served dishes.
	NetConsumed types.Quantity `json:"netConsumed"`

	// ConsumedCost values net consumption at each batch's own unit cost.
	ConsumedCost types.Money `json:"consumedCost"`
}

// TurnoverReport is the full per-ingredient turnover for a period.
type TurnoverReport struct {
	FromDate time.Time     `json:"fromDate"`
	ToDate   time.Time     `json:"toDate"`
	Rows     []TurnoverRow `json:"rows"`
}

// TicketCost is the ingredient cost breakdown of one kitchen ticket.
type TicketCost struct {
	TicketID    id.ID          `json:"ticketId"`
	Consumed    types.Quantity `json:"consumed"`
	Reversed    types.Quantity `json:"reversed"`
	NetCost     types.Money    `json:"netCost"`
	Ingredients int            `json:"ingredients"`
}

// Ledger is the slice of the movement history the report service reads.
// The allocator satisfies it.
type Ledger interface {
	Movements(ctx context.Context, filter ledger.MovementFilter) ([]ledger.MovementRecord, error)
	MovementsByTicket(ctx context.Context, ticketID id.ID) ([]ledger.MovementRecord, error)
}

// Service computes reports over the movement ledger.
type Service struct {
	ledger Ledger
}

// NewService creates the report service.
func NewService(l Ledger) *Service {
	return &Service{ledger: l}
}

// StockTurnover aggregates movements per ingredient for the period
// [FromDate, ToDate). Both bounds are required.
func (s *Service) StockTurnover(ctx context.Context, filter TurnoverFilter) (*TurnoverReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}
	if filter.FromDate.After(filter.ToDate) {
		return nil, apperror.NewValidation("fromDate must be before toDate")
	}

	records, err := s.ledger.Movements(ctx, ledger.MovementFilter{
		IngredientID: filter.IngredientID,
		FromDate:     &filter.FromDate,
		ToDate:       &filter.ToDate,
	})
	if err != nil {
		return nil, err
	}

	byIngredient := make(map[id.ID]*TurnoverRow)
	for _, rec := range records {
		row, ok := byIngredient[rec.IngredientID]
		if !ok {
			row = &TurnoverRow{IngredientID: rec.IngredientID, ConsumedCost: types.ZeroMoney()}
			byIngredient[rec.IngredientID] = row
		}
		switch rec.MovementType {
		case ledger.MovementReceive:
			row.Received += rec.Quantity
		case ledger.MovementConsume:
			row.Consumed += rec.Quantity
			row.ConsumedCost = row.ConsumedCost.Add(rec.Cost)
		case ledger.MovementReverse:
			row.Reversed += rec.Quantity
			row.ConsumedCost = row.ConsumedCost.Sub(rec.Cost)
		case ledger.MovementWaste:
			row.Wasted += rec.Quantity
		}
	}

	rows := make([]TurnoverRow, 0, len(byIngredient))
	for _, row := range byIngredient {
		row.NetConsumed = row.Consumed - row.Reversed
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].IngredientID.String() < rows[j].IngredientID.String()
	})

	return &TurnoverReport{
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
		Rows:     rows,
	}, nil
}

// CostOfTicket sums a ticket's movement trail into its net ingredient cost.
// A fully reversed (cancelled or failed) ticket reports zero.
func (s *Service) CostOfTicket(ctx context.Context, ticketID id.ID) (*TicketCost, error) {
	records, err := s.ledger.MovementsByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	cost := &TicketCost{TicketID: ticketID, NetCost: types.ZeroMoney()}
	ingredients := make(map[id.ID]struct{})
	for _, rec := range records {
		switch rec.MovementType {
		case ledger.MovementConsume:
			cost.Consumed += rec.Quantity
			cost.NetCost = cost.NetCost.Add(rec.Cost)
			ingredients[rec.IngredientID] = struct{}{}
		case ledger.MovementReverse:
			cost.Reversed += rec.Quantity
			cost.NetCost = cost.NetCost.Sub(rec.Cost)
		}
	}
	cost.Ingredients = len(ingredients)
	return cost, nil
}
