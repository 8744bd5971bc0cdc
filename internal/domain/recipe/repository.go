package recipe

import (
	"context"

	"brigade/internal/core/id"
)

// Repository is the persistence contract for recipes.
type Repository interface {
	// Create persists a recipe with its lines.
	Create(ctx context.Context, r *Recipe) error

	// GetByID returns one recipe or a NOT_FOUND error.
	GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error)

	// GetByMenuItem returns the recipe of a menu item or a NOT_FOUND error.
	GetByMenuItem(ctx context.Context, menuItemID id.ID) (*Recipe, error)

	// Update replaces the recipe and its lines.
	Update(ctx context.Context, r *Recipe) error

	// List returns all recipes.
	List(ctx context.Context) ([]*Recipe, error)
}
