package dto

import (
	"brigade/internal/core/types"
)

// IngredientRequest creates or updates a catalog ingredient.
type IngredientRequest struct {
	Name         string            `json:"name" binding:"required"`
	Unit         string            `json:"unit" binding:"required"`
	MinStock     types.Quantity    `json:"minStock"`
	MaxStock     types.Quantity    `json:"maxStock"`
	CostPerUnit  string            `json:"costPerUnit"`
	YieldProfile map[string]string `json:"yieldProfile"`
}

// RecipeLineRequest is one ingredient line of a recipe.
type RecipeLineRequest struct {
	IngredientID      string         `json:"ingredientId" binding:"required"`
	BaseQuantity      types.Quantity `json:"baseQuantity" binding:"required"`
	Unit              string         `json:"unit" binding:"required"`
	ProcessChain      string         `json:"processChain"`
	WasteAllowancePct string         `json:"wasteAllowancePct"`
	Optional          bool           `json:"optional"`
}

// RecipeRequest creates or updates a recipe.
type RecipeRequest struct {
	MenuItemID string              `json:"menuItemId" binding:"required"`
	Name       string              `json:"name" binding:"required"`
	Lines      []RecipeLineRequest `json:"lines" binding:"required"`
}
