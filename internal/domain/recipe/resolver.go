package recipe

import (
	"context"

	"github.com/shopspring/decimal"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
	"brigade/internal/domain/ingredient"
	"brigade/pkg/logger"
)

// Requirement is one expanded ingredient demand, ready for allocation.
type Requirement struct {
	IngredientID  id.ID          `json:"ingredientId"`
	GrossQuantity types.Quantity `json:"grossQuantity"`
	ProcessChain  string         `json:"processChain,omitempty"`
	Optional      bool           `json:"optional"`
}

// Resolver expands recipes into gross ingredient requirements.
type Resolver struct {
	recipes     Repository
	ingredients ingredient.Repository
}

// NewResolver creates a resolver over the recipe and ingredient stores.
func NewResolver(recipes Repository, ingredients ingredient.Repository) *Resolver {
	return &Resolver{recipes: recipes, ingredients: ingredients}
}

// Expand resolves a menu item into gross ingredient requirements for the
// given portion count:
//
//	gross = base × portions / yieldRatio × (1 + wasteAllowance)
//
// yieldRatio comes from the ingredient's yield profile for the line's
// process chain, defaulting to 1.0 when no profile entry exists.
func (r *Resolver) Expand(ctx context.Context, menuItemID id.ID, portions int) ([]Requirement, error) {
	if portions <= 0 {
		return nil, apperror.NewValidation("portions must be positive")
	}

	rec, err := r.recipes.GetByMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, err
	}

	requirements := make([]Requirement, 0, len(rec.Lines))
	for _, line := range rec.Lines {
		ing, err := r.ingredients.GetByID(ctx, line.IngredientID)
		if err != nil {
			return nil, err
		}

		yield := ing.YieldRatio(line.ProcessChain)
		if !yield.IsPositive() {
			return nil, apperror.NewValidation("yield ratio must be positive").
				WithDetail("ingredient_id", line.IngredientID.String()).
				WithDetail("process_chain", line.ProcessChain)
		}

		gross := line.BaseQuantity.Decimal().
			Mul(decimal.NewFromInt(int64(portions))).
			Div(yield).
			Mul(types.One().Add(line.WasteAllowancePct))

		requirements = append(requirements, Requirement{
			IngredientID:  line.IngredientID,
			GrossQuantity: types.NewQuantityFromDecimal(gross),
			ProcessChain:  line.ProcessChain,
			Optional:      line.Optional,
		})
	}

	logger.Debug(ctx, "recipe expanded",
		"menu_item_id", menuItemID,
		"portions", portions,
		"requirements", len(requirements),
	)
	return requirements, nil
}
