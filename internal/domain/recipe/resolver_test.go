package recipe_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
	"brigade/internal/domain/ingredient"
	"brigade/internal/domain/recipe"
	"brigade/internal/infrastructure/storage/memory"
)

func setupResolver(t *testing.T) (*recipe.Resolver, *memory.RecipeRepo, *memory.IngredientRepo) {
	t.Helper()
	recipes := memory.NewRecipeRepo()
	ingredients := memory.NewIngredientRepo()
	return recipe.NewResolver(recipes, ingredients), recipes, ingredients
}

func TestExpandAppliesYieldAndWaste(t *testing.T) {
	resolver, recipes, ingredients := setupResolver(t)
	ctx := context.Background()

	potato := ingredient.New("potato", ingredient.UnitGram)
	potato.YieldProfile = map[string]types.Ratio{"peeled": types.MustRatio("0.8")}
	require.NoError(t, ingredients.Create(ctx, potato))

	menuItemID := id.New()
	rec := recipe.New(menuItemID, "mash", []recipe.RecipeLine{
		{
			IngredientID:      potato.ID,
			BaseQuantity:      types.NewQuantityFromFloat64(200),
			Unit:              ingredient.UnitGram,
			ProcessChain:      "peeled",
			WasteAllowancePct: types.MustRatio("0.05"),
		},
	})
	require.NoError(t, recipes.Create(ctx, rec))

	reqs, err := resolver.Expand(ctx, menuItemID, 2)
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	// 200 g × 2 portions / 0.8 yield × 1.05 waste allowance = 525 g.
	assert.Equal(t, types.NewQuantityFromFloat64(525), reqs[0].GrossQuantity)
	assert.Equal(t, "peeled", reqs[0].ProcessChain)
}

func TestExpandDefaultsToFullYield(t *testing.T) {
	resolver, recipes, ingredients := setupResolver(t)
	ctx := context.Background()

	butter := ingredient.New("butter", ingredient.UnitGram)
	require.NoError(t, ingredients.Create(ctx, butter))

	menuItemID := id.New()
	rec := recipe.New(menuItemID, "toast", []recipe.RecipeLine{
		{IngredientID: butter.ID, BaseQuantity: types.NewQuantityFromFloat64(15), Unit: ingredient.UnitGram},
	})
	require.NoError(t, recipes.Create(ctx, rec))

	reqs, err := resolver.Expand(ctx, menuItemID, 3)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, types.NewQuantityFromFloat64(45), reqs[0].GrossQuantity)
}

func TestExpandUnknownProcessChainFallsBackToRaw(t *testing.T) {
	resolver, recipes, ingredients := setupResolver(t)
	ctx := context.Background()

	carrot := ingredient.New("carrot", ingredient.UnitGram)
	carrot.YieldProfile = map[string]types.Ratio{"peeled": types.MustRatio("0.9")}
	require.NoError(t, ingredients.Create(ctx, carrot))

	menuItemID := id.New()
	rec := recipe.New(menuItemID, "salad", []recipe.RecipeLine{
		{IngredientID: carrot.ID, BaseQuantity: types.NewQuantityFromFloat64(100), Unit: ingredient.UnitGram, ProcessChain: "julienned"},
	})
	require.NoError(t, recipes.Create(ctx, rec))

	reqs, err := resolver.Expand(ctx, menuItemID, 1)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(100), reqs[0].GrossQuantity)
}

func TestExpandCarriesOptionalFlag(t *testing.T) {
	resolver, recipes, ingredients := setupResolver(t)
	ctx := context.Background()

	truffle := ingredient.New("truffle", ingredient.UnitGram)
	require.NoError(t, ingredients.Create(ctx, truffle))

	menuItemID := id.New()
	rec := recipe.New(menuItemID, "mash deluxe", []recipe.RecipeLine{
		{IngredientID: truffle.ID, BaseQuantity: types.NewQuantityFromFloat64(5), Unit: ingredient.UnitGram, Optional: true},
	})
	require.NoError(t, recipes.Create(ctx, rec))

	reqs, err := resolver.Expand(ctx, menuItemID, 1)
	require.NoError(t, err)
	assert.True(t, reqs[0].Optional)
}

func TestExpandRejectsNonPositivePortions(t *testing.T) {
	resolver, _, _ := setupResolver(t)

	_, err := resolver.Expand(context.Background(), id.New(), 0)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestExpandUnknownMenuItem(t *testing.T) {
	resolver, _, _ := setupResolver(t)

	_, err := resolver.Expand(context.Background(), id.New(), 1)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRecipeValidate(t *testing.T) {
	ing := id.New()

	valid := recipe.New(id.New(), "soup", []recipe.RecipeLine{
		{IngredientID: ing, BaseQuantity: types.NewQuantityFromFloat64(100), Unit: ingredient.UnitMilliliter},
	})
	assert.NoError(t, valid.Validate())

	empty := recipe.New(id.New(), "empty", nil)
	assert.Error(t, empty.Validate())

	zeroLine := recipe.New(id.New(), "zero", []recipe.RecipeLine{
		{IngredientID: ing, Unit: ingredient.UnitGram},
	})
	assert.Error(t, zeroLine.Validate())
}
