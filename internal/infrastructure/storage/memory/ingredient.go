package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
	"brigade/internal/domain/ingredient"
)

// IngredientRepo is the in-process ingredient.Repository.
type IngredientRepo struct {
	mu    sync.RWMutex
	items map[id.ID]*ingredient.Ingredient
}

var _ ingredient.Repository = (*IngredientRepo)(nil)

// NewIngredientRepo creates an empty catalog.
func NewIngredientRepo() *IngredientRepo {
	return &IngredientRepo{items: make(map[id.ID]*ingredient.Ingredient)}
}

func copyIngredient(i *ingredient.Ingredient) *ingredient.Ingredient {
	cp := *i
	if i.YieldProfile != nil {
		cp.YieldProfile = make(map[string]types.Ratio, len(i.YieldProfile))
		for k, v := range i.YieldProfile {
			cp.YieldProfile[k] = v
		}
	}
	return &cp
}

func (r *IngredientRepo) Create(_ context.Context, ing *ingredient.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[ing.ID]; exists {
		return apperror.NewConflict("ingredient already exists")
	}
	r.items[ing.ID] = copyIngredient(ing)
	return nil
}

func (r *IngredientRepo) GetByID(_ context.Context, ingredientID id.ID) (*ingredient.Ingredient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ing, ok := r.items[ingredientID]
	if !ok {
		return nil, apperror.NewNotFound("ingredient", ingredientID.String())
	}
	return copyIngredient(ing), nil
}

func (r *IngredientRepo) Update(_ context.Context, ing *ingredient.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[ing.ID]; !ok {
		return apperror.NewNotFound("ingredient", ing.ID.String())
	}
	r.items[ing.ID] = copyIngredient(ing)
	return nil
}

func (r *IngredientRepo) List(_ context.Context) ([]*ingredient.Ingredient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ingredient.Ingredient, 0, len(r.items))
	for _, ing := range r.items {
		out = append(out, copyIngredient(ing))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *IngredientRepo) AdjustCurrentStock(_ context.Context, ingredientID id.ID, delta types.Quantity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ing, ok := r.items[ingredientID]
	if !ok {
		return apperror.NewNotFound("ingredient", ingredientID.String())
	}
	ing.CurrentStock += delta
	ing.UpdatedAt = time.Now().UTC()
	return nil
}
