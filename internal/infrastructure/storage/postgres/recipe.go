package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"brigade/internal/core/id"
	"brigade/internal/domain/recipe"
)

const (
	recipesTable     = "recipes"
	recipeLinesTable = "recipe_lines"
)

var recipeColumns = []string{
	"id", "menu_item_id", "name", "created_at", "updated_at",
}

var recipeLineColumns = []string{
	"recipe_id", "line_no", "ingredient_id", "base_quantity", "unit",
	"process_chain", "waste_allowance_pct", "optional",
}

// RecipeRepo implements recipe.Repository. Lines are replaced wholesale on
// update; a recipe's line order is its authoring order.
type RecipeRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ recipe.Repository = (*RecipeRepo)(nil)

// NewRecipeRepo creates the postgres recipe repository.
func NewRecipeRepo(txm *TxManager) *RecipeRepo {
	return &RecipeRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *RecipeRepo) Create(ctx context.Context, rec *recipe.Recipe) error {
	q := r.builder.Insert(recipesTable).Columns(recipeColumns...).Values(
		rec.ID, rec.MenuItemID, rec.Name, rec.CreatedAt, rec.UpdatedAt,
	)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert recipe: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}
	return r.insertLines(ctx, rec)
}

func (r *RecipeRepo) insertLines(ctx context.Context, rec *recipe.Recipe) error {
	if len(rec.Lines) == 0 {
		return nil
	}
	q := r.builder.Insert(recipeLinesTable).Columns(recipeLineColumns...)
	for i, line := range rec.Lines {
		q = q.Values(
			rec.ID, i, line.IngredientID, line.BaseQuantity, line.Unit,
			nullIfEmpty(line.ProcessChain), line.WasteAllowancePct, line.Optional,
		)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert recipe lines: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert recipe lines: %w", err)
	}
	return nil
}

func (r *RecipeRepo) GetByID(ctx context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	return r.getOne(ctx, squirrel.Eq{"id": recipeID}, recipeID)
}

func (r *RecipeRepo) GetByMenuItem(ctx context.Context, menuItemID id.ID) (*recipe.Recipe, error) {
	return r.getOne(ctx, squirrel.Eq{"menu_item_id": menuItemID}, menuItemID)
}

func (r *RecipeRepo) getOne(ctx context.Context, where squirrel.Eq, lookup id.ID) (*recipe.Recipe, error) {
	q := r.builder.Select(recipeColumns...).
		From(recipesTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select recipe: %w", err)
	}

	var rec recipe.Recipe
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("recipe", lookup)
		}
		return nil, fmt.Errorf("select recipe: %w", err)
	}

	lines, err := r.linesOf(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Lines = lines
	return &rec, nil
}

func (r *RecipeRepo) linesOf(ctx context.Context, recipeID id.ID) ([]recipe.RecipeLine, error) {
	q := r.builder.Select(
		"ingredient_id", "base_quantity", "unit",
		"process_chain", "waste_allowance_pct", "optional",
	).From(recipeLinesTable).
		Where(squirrel.Eq{"recipe_id": recipeID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select recipe lines: %w", err)
	}

	var lines []recipe.RecipeLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select recipe lines: %w", err)
	}
	return lines, nil
}

func (r *RecipeRepo) Update(ctx context.Context, rec *recipe.Recipe) error {
	q := r.builder.Update(recipesTable).
		Set("name", rec.Name).
		Set("menu_item_id", rec.MenuItemID).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": rec.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update recipe: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("recipe", rec.ID)
	}

	del := r.builder.Delete(recipeLinesTable).Where(squirrel.Eq{"recipe_id": rec.ID})
	sql, args, err = del.ToSql()
	if err != nil {
		return fmt.Errorf("build delete recipe lines: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete recipe lines: %w", err)
	}
	return r.insertLines(ctx, rec)
}

func (r *RecipeRepo) List(ctx context.Context) ([]*recipe.Recipe, error) {
	q := r.builder.Select(recipeColumns...).
		From(recipesTable).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list recipes: %w", err)
	}

	var out []*recipe.Recipe
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select recipes: %w", err)
	}
	for _, rec := range out {
		lines, err := r.linesOf(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Lines = lines
	}
	return out, nil
}
