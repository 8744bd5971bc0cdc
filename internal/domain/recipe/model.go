// Package recipe maps menu items to the ingredient quantities the kitchen
// draws from stock. The Resolver turns a recipe plus a portion count into
// gross requirements, applying yield ratios and waste allowances.
package recipe

import (
	"time"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
	"brigade/internal/domain/ingredient"
)

// RecipeLine is one ingredient requirement of a recipe, per single portion.
type RecipeLine struct {
	IngredientID id.ID           `db:"ingredient_id" json:"ingredientId"`
	BaseQuantity types.Quantity  `db:"base_quantity" json:"baseQuantity"`
	Unit         ingredient.Unit `db:"unit" json:"unit"`

	// ProcessChain keys the ingredient's yield profile ("peeled", "boiled",
	// "peeled.boiled"). Empty means raw, yield 1.0.
	ProcessChain string `db:"process_chain" json:"processChain,omitempty"`

	// WasteAllowancePct is trim loss on top of the yield-adjusted quantity,
	// expressed as a fraction (0.05 = 5%).
	WasteAllowancePct types.Ratio `db:"waste_allowance_pct" json:"wasteAllowancePct"`

	// Optional lines are skipped, not failed, when stock runs out.
	Optional bool `db:"optional" json:"optional"`
}

// Recipe is the ordered ingredient list behind one menu item.
type Recipe struct {
	ID         id.ID        `db:"id" json:"id"`
	MenuItemID id.ID        `db:"menu_item_id" json:"menuItemId"`
	Name       string       `db:"name" json:"name"`
	Lines      []RecipeLine `db:"-" json:"lines"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updatedAt"`
}

// New creates a recipe for a menu item.
func New(menuItemID id.ID, name string, lines []RecipeLine) *Recipe {
	now := time.Now().UTC()
	return &Recipe{
		ID:         id.New(),
		MenuItemID: menuItemID,
		Name:       name,
		Lines:      lines,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate checks recipe consistency before persisting.
func (r *Recipe) Validate() error {
	if r.Name == "" {
		return apperror.NewValidation("recipe name is required")
	}
	if id.IsNil(r.MenuItemID) {
		return apperror.NewValidation("recipe menu item is required")
	}
	if len(r.Lines) == 0 {
		return apperror.NewValidation("recipe must have at least one line")
	}
	for i, line := range r.Lines {
		if id.IsNil(line.IngredientID) {
			return apperror.NewValidation("recipe line ingredient is required").
				WithDetail("line", i)
		}
		if !line.BaseQuantity.IsPositive() {
			return apperror.NewValidation("recipe line quantity must be positive").
				WithDetail("line", i)
		}
		if line.WasteAllowancePct.IsNegative() {
			return apperror.NewValidation("waste allowance must not be negative").
				WithDetail("line", i)
		}
	}
	return nil
}
