package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/domain/kitchen"
)

const ticketsTable = "kitchen_tickets"

var ticketColumns = []string{
	"id", "number", "order_id", "order_item_id", "menu_item_id",
	"name", "portions", "station", "notes",
	"status", "inventory_locked",
	"started_at", "completed_at", "paused_at", "paused_seconds", "elapsed_seconds",
	"reason", "created_at", "updated_at",
}

// TicketRepo implements kitchen.Repository.
type TicketRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ kitchen.Repository = (*TicketRepo)(nil)

// NewTicketRepo creates the postgres ticket repository.
func NewTicketRepo(txm *TxManager) *TicketRepo {
	return &TicketRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *TicketRepo) Create(ctx context.Context, t *kitchen.KitchenTicket) error {
	q := r.builder.Insert(ticketsTable).Columns(ticketColumns...).Values(
		t.ID, t.Number, t.OrderID, t.OrderItemID, t.MenuItemID,
		t.Name, t.Portions, nullIfEmpty(t.Station), nullIfEmpty(t.Notes),
		t.Status, t.InventoryLocked,
		t.StartedAt, t.CompletedAt, t.PausedAt, t.PausedSeconds, t.ElapsedSeconds,
		nullIfEmpty(t.Reason), t.CreatedAt, t.UpdatedAt,
	)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert ticket: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (r *TicketRepo) GetByID(ctx context.Context, ticketID id.ID) (*kitchen.KitchenTicket, error) {
	q := r.builder.Select(ticketColumns...).
		From(ticketsTable).
		Where(squirrel.Eq{"id": ticketID})
	if r.txm.GetTx(ctx) != nil {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select ticket: %w", err)
	}

	var t kitchen.KitchenTicket
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &t, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("kitchen ticket", ticketID)
		}
		return nil, fmt.Errorf("select ticket: %w", err)
	}
	return &t, nil
}

func (r *TicketRepo) Update(ctx context.Context, t *kitchen.KitchenTicket, from kitchen.TicketStatus) error {
	sql, args, err := r.updateTicketQuery(t, from).ToSql()
	if err != nil {
		return fmt.Errorf("build update ticket: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	// Zero rows means the ticket moved under us (or is gone); either way
	// the state this mutation was computed from no longer exists.
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict("kitchen ticket " + t.ID.String() + " was modified concurrently")
	}
	return nil
}

// updateTicketQuery builds the compare-and-set update: the status predicate
// makes the FSM gate atomic under concurrent transitions.
func (r *TicketRepo) updateTicketQuery(t *kitchen.KitchenTicket, from kitchen.TicketStatus) squirrel.UpdateBuilder {
	return r.builder.Update(ticketsTable).
		Set("status", t.Status).
		Set("inventory_locked", t.InventoryLocked).
		Set("started_at", t.StartedAt).
		Set("completed_at", t.CompletedAt).
		Set("paused_at", t.PausedAt).
		Set("paused_seconds", t.PausedSeconds).
		Set("elapsed_seconds", t.ElapsedSeconds).
		Set("reason", nullIfEmpty(t.Reason)).
		Set("updated_at", t.UpdatedAt).
		Where(squirrel.Eq{"id": t.ID, "status": from})
}

func (r *TicketRepo) List(ctx context.Context, status *kitchen.TicketStatus) ([]*kitchen.KitchenTicket, error) {
	q := r.builder.Select(ticketColumns...).
		From(ticketsTable).
		OrderBy("created_at", "id")
	if status != nil {
		q = q.Where(squirrel.Eq{"status": *status})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list tickets: %w", err)
	}

	var out []*kitchen.KitchenTicket
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select tickets: %w", err)
	}
	return out, nil
}

func (r *TicketRepo) GetByOrderItem(ctx context.Context, orderItemID id.ID) (*kitchen.KitchenTicket, error) {
	q := r.builder.Select(ticketColumns...).
		From(ticketsTable).
		Where(squirrel.Eq{"order_item_id": orderItemID}).
		OrderBy("created_at DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select ticket by item: %w", err)
	}

	var t kitchen.KitchenTicket
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &t, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("kitchen ticket", orderItemID)
		}
		return nil, fmt.Errorf("select ticket by item: %w", err)
	}
	return &t, nil
}
