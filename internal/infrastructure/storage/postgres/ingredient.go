package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"brigade/internal/core/id"
	"brigade/internal/core/types"
	"brigade/internal/domain/ingredient"
)

const ingredientsTable = "ingredients"

var ingredientColumns = []string{
	"id", "name", "unit",
	"current_stock", "min_stock", "max_stock", "cost_per_unit",
	"yield_profile",
	"created_at", "updated_at",
}

// IngredientRepo implements ingredient.Repository.
type IngredientRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ ingredient.Repository = (*IngredientRepo)(nil)

// NewIngredientRepo creates the postgres ingredient repository.
func NewIngredientRepo(txm *TxManager) *IngredientRepo {
	return &IngredientRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ingredientRow flattens the yield profile to a jsonb column.
type ingredientRow struct {
	ID           id.ID           `db:"id"`
	Name         string          `db:"name"`
	Unit         ingredient.Unit `db:"unit"`
	CurrentStock types.Quantity  `db:"current_stock"`
	MinStock     types.Quantity  `db:"min_stock"`
	MaxStock     types.Quantity  `db:"max_stock"`
	CostPerUnit  types.Money     `db:"cost_per_unit"`
	YieldProfile []byte          `db:"yield_profile"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (row *ingredientRow) toDomain() (*ingredient.Ingredient, error) {
	ing := &ingredient.Ingredient{
		ID:           row.ID,
		Name:         row.Name,
		Unit:         row.Unit,
		CurrentStock: row.CurrentStock,
		MinStock:     row.MinStock,
		MaxStock:     row.MaxStock,
		CostPerUnit:  row.CostPerUnit,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.YieldProfile) > 0 {
		if err := json.Unmarshal(row.YieldProfile, &ing.YieldProfile); err != nil {
			return nil, fmt.Errorf("decode yield profile: %w", err)
		}
	}
	return ing, nil
}

func marshalYieldProfile(profile map[string]types.Ratio) (any, error) {
	if len(profile) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encode yield profile: %w", err)
	}
	return data, nil
}

func (r *IngredientRepo) Create(ctx context.Context, ing *ingredient.Ingredient) error {
	profile, err := marshalYieldProfile(ing.YieldProfile)
	if err != nil {
		return err
	}

	q := r.builder.Insert(ingredientsTable).Columns(ingredientColumns...).Values(
		ing.ID, ing.Name, ing.Unit,
		ing.CurrentStock, ing.MinStock, ing.MaxStock, ing.CostPerUnit,
		profile,
		ing.CreatedAt, ing.UpdatedAt,
	)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert ingredient: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ingredient: %w", err)
	}
	return nil
}

func (r *IngredientRepo) GetByID(ctx context.Context, ingredientID id.ID) (*ingredient.Ingredient, error) {
	q := r.builder.Select(ingredientColumns...).
		From(ingredientsTable).
		Where(squirrel.Eq{"id": ingredientID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select ingredient: %w", err)
	}

	var row ingredientRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("ingredient", ingredientID)
		}
		return nil, fmt.Errorf("select ingredient: %w", err)
	}
	return row.toDomain()
}

func (r *IngredientRepo) Update(ctx context.Context, ing *ingredient.Ingredient) error {
	profile, err := marshalYieldProfile(ing.YieldProfile)
	if err != nil {
		return err
	}

	q := r.builder.Update(ingredientsTable).
		Set("name", ing.Name).
		Set("unit", ing.Unit).
		Set("min_stock", ing.MinStock).
		Set("max_stock", ing.MaxStock).
		Set("cost_per_unit", ing.CostPerUnit).
		Set("yield_profile", profile).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": ing.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update ingredient: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update ingredient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("ingredient", ing.ID)
	}
	return nil
}

func (r *IngredientRepo) List(ctx context.Context) ([]*ingredient.Ingredient, error) {
	q := r.builder.Select(ingredientColumns...).
		From(ingredientsTable).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list ingredients: %w", err)
	}

	var rows []ingredientRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select ingredients: %w", err)
	}

	out := make([]*ingredient.Ingredient, 0, len(rows))
	for i := range rows {
		ing, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, ing)
	}
	return out, nil
}

func (r *IngredientRepo) AdjustCurrentStock(ctx context.Context, ingredientID id.ID, delta types.Quantity) error {
	q := r.builder.Update(ingredientsTable).
		Set("current_stock", squirrel.Expr("current_stock + ?", delta)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": ingredientID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build adjust stock: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("ingredient", ingredientID)
	}
	return nil
}
