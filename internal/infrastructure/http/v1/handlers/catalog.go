package handlers

import (
	"github.com/gin-gonic/gin"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
	"brigade/internal/domain/ingredient"
	"brigade/internal/domain/recipe"
	"brigade/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves the ingredient catalog and recipes.
type CatalogHandler struct {
	*BaseHandler
	ingredients *ingredient.Service
	recipes     recipe.Repository
}

// NewCatalogHandler creates the catalog handler.
func NewCatalogHandler(base *BaseHandler, ingredients *ingredient.Service, recipes recipe.Repository) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: base,
		ingredients: ingredients,
		recipes:     recipes,
	}
}

// CreateIngredient handles POST /catalog/ingredients.
func (h *CatalogHandler) CreateIngredient(c *gin.Context) {
	var req dto.IngredientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ing := ingredient.New(req.Name, ingredient.Unit(req.Unit))
	if err := h.applyIngredient(ing, req); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.ingredients.Create(c.Request.Context(), ing); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, ing.ID.String())
}

// GetIngredient handles GET /catalog/ingredients/:id.
func (h *CatalogHandler) GetIngredient(c *gin.Context) {
	ingredientID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	ing, err := h.ingredients.GetByID(c.Request.Context(), ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ing)
}

// ListIngredients handles GET /catalog/ingredients.
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	list, err := h.ingredients.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}

// UpdateIngredient handles PUT /catalog/ingredients/:id.
func (h *CatalogHandler) UpdateIngredient(c *gin.Context) {
	ingredientID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.IngredientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ing, err := h.ingredients.GetByID(c.Request.Context(), ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}
	ing.Name = req.Name
	ing.Unit = ingredient.Unit(req.Unit)
	if err := h.applyIngredient(ing, req); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.ingredients.Update(c.Request.Context(), ing); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "ingredient updated")
}

func (h *CatalogHandler) applyIngredient(ing *ingredient.Ingredient, req dto.IngredientRequest) error {
	ing.MinStock = req.MinStock
	ing.MaxStock = req.MaxStock

	if req.CostPerUnit != "" {
		cost, err := types.NewMoneyFromString(req.CostPerUnit)
		if err != nil {
			return apperror.NewValidation("invalid cost per unit").WithCause(err)
		}
		ing.CostPerUnit = cost
	}
	if req.YieldProfile != nil {
		profile := make(map[string]types.Ratio, len(req.YieldProfile))
		for chain, value := range req.YieldProfile {
			ratio, err := types.NewMoneyFromString(value)
			if err != nil {
				return apperror.NewValidation("invalid yield ratio").WithDetail("chain", chain)
			}
			profile[chain] = ratio
		}
		ing.YieldProfile = profile
	}
	return nil
}

// CreateRecipe handles POST /catalog/recipes.
func (h *CatalogHandler) CreateRecipe(c *gin.Context) {
	var req dto.RecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.recipeFromRequest(req)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := rec.Validate(); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.recipes.Create(c.Request.Context(), rec); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rec.ID.String())
}

// GetRecipe handles GET /catalog/recipes/:id.
func (h *CatalogHandler) GetRecipe(c *gin.Context) {
	recipeID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.recipes.GetByID(c.Request.Context(), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// ListRecipes handles GET /catalog/recipes.
func (h *CatalogHandler) ListRecipes(c *gin.Context) {
	list, err := h.recipes.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}

func (h *CatalogHandler) recipeFromRequest(req dto.RecipeRequest) (*recipe.Recipe, error) {
	menuItemID, err := id.Parse(req.MenuItemID)
	if err != nil {
		return nil, apperror.NewValidation("invalid menu item id")
	}

	lines := make([]recipe.RecipeLine, 0, len(req.Lines))
	for i, lr := range req.Lines {
		ingredientID, err := id.Parse(lr.IngredientID)
		if err != nil {
			return nil, apperror.NewValidation("invalid ingredient id").WithDetail("line", i)
		}
		waste := types.ZeroMoney()
		if lr.WasteAllowancePct != "" {
			waste, err = types.NewMoneyFromString(lr.WasteAllowancePct)
			if err != nil {
				return nil, apperror.NewValidation("invalid waste allowance").WithDetail("line", i)
			}
		}
		lines = append(lines, recipe.RecipeLine{
			IngredientID:      ingredientID,
			BaseQuantity:      lr.BaseQuantity,
			Unit:              ingredient.Unit(lr.Unit),
			ProcessChain:      lr.ProcessChain,
			WasteAllowancePct: waste,
			Optional:          lr.Optional,
		})
	}
	return recipe.New(menuItemID, req.Name, lines), nil
}
