// Package ingredient provides the raw-ingredient catalog.
package ingredient

import (
	"context"
	"time"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
)

// Unit is the unit of measure for an ingredient.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitPiece      Unit = "pc"
)

// Ingredient is a catalog entry for a raw ingredient.
//
// CurrentStock is a denormalized sum of batch availability, advisory only;
// the stock ledger's batches are authoritative. It is updated exclusively as
// a side effect of batch mutations.
type Ingredient struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Unit Unit   `db:"unit" json:"unit"`

	CurrentStock types.Quantity `db:"current_stock" json:"currentStock"`
	MinStock     types.Quantity `db:"min_stock" json:"minStock"`
	MaxStock     types.Quantity `db:"max_stock" json:"maxStock"`
	CostPerUnit  types.Money    `db:"cost_per_unit" json:"costPerUnit"`

	// YieldProfile maps a process chain key (e.g. "clean>boil") to the
	// fraction of raw weight that remains usable after processing.
	// Missing entries default to 1.0.
	YieldProfile map[string]types.Ratio `db:"yield_profile" json:"yieldProfile,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a catalog entry with generated ID.
func New(name string, unit Unit) *Ingredient {
	now := time.Now().UTC()
	return &Ingredient{
		ID:        id.New(),
		Name:      name,
		Unit:      unit,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks catalog invariants.
func (i *Ingredient) Validate(ctx context.Context) error {
	if i.Name == "" {
		return apperror.NewValidation("ingredient name is required").
			WithDetail("field", "name")
	}
	if i.Unit == "" {
		return apperror.NewValidation("unit of measure is required").
			WithDetail("field", "unit")
	}
	if i.MinStock.IsNegative() || i.MaxStock.IsNegative() {
		return apperror.NewValidation("stock thresholds must not be negative")
	}
	return nil
}

// YieldRatio resolves the yield for a process chain key, defaulting to 1.0.
func (i *Ingredient) YieldRatio(chainKey string) types.Ratio {
	if chainKey == "" {
		return types.One()
	}
	if ratio, ok := i.YieldProfile[chainKey]; ok && ratio.IsPositive() {
		return ratio
	}
	return types.One()
}

// BelowMin reports whether available stock has crossed the minimum threshold.
func (i *Ingredient) BelowMin() bool {
	return i.MinStock.IsPositive() && i.CurrentStock <= i.MinStock
}
