package memory

import (
	"context"
	"sort"
	"sync"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/domain/recipe"
)

// RecipeRepo is the in-process recipe.Repository.
type RecipeRepo struct {
	mu      sync.RWMutex
	recipes map[id.ID]*recipe.Recipe
}

var _ recipe.Repository = (*RecipeRepo)(nil)

// NewRecipeRepo creates an empty recipe store.
func NewRecipeRepo() *RecipeRepo {
	return &RecipeRepo{recipes: make(map[id.ID]*recipe.Recipe)}
}

func copyRecipe(r *recipe.Recipe) *recipe.Recipe {
	cp := *r
	cp.Lines = append([]recipe.RecipeLine(nil), r.Lines...)
	return &cp
}

func (r *RecipeRepo) Create(_ context.Context, rec *recipe.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.recipes[rec.ID]; exists {
		return apperror.NewConflict("recipe already exists")
	}
	r.recipes[rec.ID] = copyRecipe(rec)
	return nil
}

func (r *RecipeRepo) GetByID(_ context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recipes[recipeID]
	if !ok {
		return nil, apperror.NewNotFound("recipe", recipeID.String())
	}
	return copyRecipe(rec), nil
}

func (r *RecipeRepo) GetByMenuItem(_ context.Context, menuItemID id.ID) (*recipe.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.recipes {
		if rec.MenuItemID == menuItemID {
			return copyRecipe(rec), nil
		}
	}
	return nil, apperror.NewNotFound("recipe", menuItemID.String())
}

func (r *RecipeRepo) Update(_ context.Context, rec *recipe.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[rec.ID]; !ok {
		return apperror.NewNotFound("recipe", rec.ID.String())
	}
	r.recipes[rec.ID] = copyRecipe(rec)
	return nil
}

func (r *RecipeRepo) List(_ context.Context) ([]*recipe.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*recipe.Recipe, 0, len(r.recipes))
	for _, rec := range r.recipes {
		out = append(out, copyRecipe(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
