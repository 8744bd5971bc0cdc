package ingredient

import (
	"context"

	"brigade/internal/core/id"
	"brigade/pkg/logger"
)

// Service provides catalog operations for procurement setup.
type Service struct {
	repo Repository
}

// NewService creates a new ingredient service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new ingredient.
func (s *Service) Create(ctx context.Context, ing *Ingredient) error {
	if err := ing.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, ing); err != nil {
		return err
	}
	logger.Info(ctx, "ingredient created", "id", ing.ID, "name", ing.Name)
	return nil
}

// GetByID retrieves an ingredient.
func (s *Service) GetByID(ctx context.Context, ingredientID id.ID) (*Ingredient, error) {
	return s.repo.GetByID(ctx, ingredientID)
}

// Update saves threshold or yield-profile changes.
func (s *Service) Update(ctx context.Context, ing *Ingredient) error {
	if err := ing.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, ing)
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]*Ingredient, error) {
	return s.repo.List(ctx)
}
