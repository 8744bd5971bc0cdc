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
	"brigade/internal/domain/orders"
)

const (
	ordersTable     = "orders"
	orderItemsTable = "order_items"
)

var orderColumns = []string{
	"id", "number", "table_number", "status", "created_at", "updated_at",
}

var orderItemColumns = []string{
	"id", "order_id", "menu_item_id", "name", "portions", "price", "notes",
	"status", "status_changed_at", "created_at", "updated_at",
}

// OrderRepo implements orders.Repository.
type OrderRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ orders.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates the postgres order repository.
func NewOrderRepo(txm *TxManager) *OrderRepo {
	return &OrderRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *OrderRepo) CreateOrder(ctx context.Context, o *orders.Order) error {
	q := r.builder.Insert(ordersTable).Columns(orderColumns...).Values(
		o.ID, o.Number, o.TableNumber, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert order: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if len(o.Items) == 0 {
		return nil
	}
	iq := r.builder.Insert(orderItemsTable).Columns(orderItemColumns...)
	for _, item := range o.Items {
		iq = iq.Values(
			item.ID, item.OrderID, item.MenuItemID, item.Name, item.Portions, item.Price,
			nullIfEmpty(item.Notes),
			item.Status, item.StatusChangedAt, item.CreatedAt, item.UpdatedAt,
		)
	}
	sql, args, err = iq.ToSql()
	if err != nil {
		return fmt.Errorf("build insert order items: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

func (r *OrderRepo) GetOrder(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	q := r.builder.Select(orderColumns...).
		From(ordersTable).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select order: %w", err)
	}

	var order orders.Order
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &order, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("order", orderID)
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.ItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *OrderRepo) UpdateOrder(ctx context.Context, o *orders.Order) error {
	q := r.builder.Update(ordersTable).
		Set("status", o.Status).
		Set("updated_at", o.UpdatedAt).
		Where(squirrel.Eq{"id": o.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update order: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("order", o.ID)
	}
	return nil
}

func (r *OrderRepo) ListOrders(ctx context.Context, status *orders.OrderStatus) ([]*orders.Order, error) {
	q := r.builder.Select(orderColumns...).
		From(ordersTable).
		OrderBy("created_at DESC")
	if status != nil {
		q = q.Where(squirrel.Eq{"status": *status})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list orders: %w", err)
	}

	var out []*orders.Order
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}

	for _, o := range out {
		items, err := r.ItemsByOrder(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	return out, nil
}

func (r *OrderRepo) GetItem(ctx context.Context, itemID id.ID) (*orders.OrderItem, error) {
	q := r.builder.Select(orderItemColumns...).
		From(orderItemsTable).
		Where(squirrel.Eq{"id": itemID})
	if r.txm.GetTx(ctx) != nil {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select order item: %w", err)
	}

	var item orders.OrderItem
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &item, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("order item", itemID)
		}
		return nil, fmt.Errorf("select order item: %w", err)
	}
	return &item, nil
}

func (r *OrderRepo) UpdateItem(ctx context.Context, item *orders.OrderItem) error {
	q := r.builder.Update(orderItemsTable).
		Set("status", item.Status).
		Set("status_changed_at", item.StatusChangedAt).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": item.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update order item: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("order item", item.ID)
	}
	return nil
}

func (r *OrderRepo) ItemsByOrder(ctx context.Context, orderID id.ID) ([]orders.OrderItem, error) {
	q := r.builder.Select(orderItemColumns...).
		From(orderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select order items: %w", err)
	}

	var items []orders.OrderItem
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	return items, nil
}
