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
	"brigade/internal/domain/ledger"
)

const (
	batchesTable   = "stock_batches"
	movementsTable = "stock_movements"
)

var batchColumns = []string{
	"id", "ingredient_id",
	"gross_in", "net_available", "used_amount", "wasted_amount",
	"unit_cost", "received_at", "expiry_date",
	"status", "is_locked", "locked_by",
	"created_at", "updated_at",
}

var movementColumns = []string{
	"line_id", "movement_type", "ingredient_id", "batch_id", "ticket_id",
	"quantity", "unit_cost", "cost", "reason", "operator", "occurred_at",
}

// LedgerStore implements ledger.Store. Batch reads inside a transaction take
// row locks (FOR UPDATE) so the in-process ingredient lock is backed by a
// database-level one when several instances share the database.
type LedgerStore struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ ledger.Store = (*LedgerStore)(nil)

// NewLedgerStore creates the postgres ledger store.
func NewLedgerStore(txm *TxManager) *LedgerStore {
	return &LedgerStore{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (s *LedgerStore) CreateBatch(ctx context.Context, batch *ledger.StockBatch) error {
	q := s.builder.Insert(batchesTable).Columns(batchColumns...).Values(
		batch.ID, batch.IngredientID,
		batch.GrossIn, batch.NetAvailable, batch.UsedAmount, batch.WastedAmount,
		batch.UnitCost, batch.ReceivedAt, batch.ExpiryDate,
		batch.Status, batch.IsLocked, nullIfEmpty(batch.LockedBy),
		batch.CreatedAt, batch.UpdatedAt,
	)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert batch: %w", err)
	}
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (s *LedgerStore) GetBatch(ctx context.Context, batchID id.ID) (*ledger.StockBatch, error) {
	q := s.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"id": batchID})
	if s.txm.GetTx(ctx) != nil {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select batch: %w", err)
	}

	var batch ledger.StockBatch
	if err := pgxscan.Get(ctx, s.txm.GetQuerier(ctx), &batch, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("batch", batchID)
		}
		return nil, fmt.Errorf("select batch: %w", err)
	}
	return &batch, nil
}

func (s *LedgerStore) UpdateBatch(ctx context.Context, batch *ledger.StockBatch) error {
	q := s.builder.Update(batchesTable).
		Set("gross_in", batch.GrossIn).
		Set("net_available", batch.NetAvailable).
		Set("used_amount", batch.UsedAmount).
		Set("wasted_amount", batch.WastedAmount).
		Set("status", batch.Status).
		Set("is_locked", batch.IsLocked).
		Set("locked_by", nullIfEmpty(batch.LockedBy)).
		Set("updated_at", batch.UpdatedAt).
		Where(squirrel.Eq{"id": batch.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update batch: %w", err)
	}
	tag, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("batch", batch.ID)
	}
	return nil
}

func (s *LedgerStore) BatchesByIngredient(ctx context.Context, ingredientID id.ID) ([]*ledger.StockBatch, error) {
	q := s.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"ingredient_id": ingredientID}).
		OrderBy("received_at", "id")
	if s.txm.GetTx(ctx) != nil {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select batches: %w", err)
	}

	var batches []*ledger.StockBatch
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}
	return batches, nil
}

func (s *LedgerStore) BatchesExpiringBefore(ctx context.Context, t time.Time) ([]*ledger.StockBatch, error) {
	q := s.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.NotEq{"status": ledger.BatchExpired}).
		Where(squirrel.Lt{"expiry_date": t}).
		OrderBy("expiry_date", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select expiring: %w", err)
	}

	var batches []*ledger.StockBatch
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select expiring: %w", err)
	}
	return batches, nil
}

func (s *LedgerStore) AppendMovements(ctx context.Context, movements []ledger.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	q := s.builder.Insert(movementsTable).Columns(movementColumns...)
	for _, m := range movements {
		rec := m.Record()
		q = q.Values(
			rec.LineID, rec.MovementType, rec.IngredientID, rec.BatchID, rec.TicketID,
			rec.Quantity, rec.UnitCost, rec.Cost, nullIfEmpty(rec.Reason), rec.Operator, rec.OccurredAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert movements: %w", err)
	}
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

func (s *LedgerStore) MovementsByTicket(ctx context.Context, ticketID id.ID) ([]ledger.MovementRecord, error) {
	q := s.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"ticket_id": ticketID}).
		OrderBy("occurred_at", "line_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select movements: %w", err)
	}

	var records []ledger.MovementRecord
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &records, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return records, nil
}

func (s *LedgerStore) MovementHistory(ctx context.Context, filter ledger.MovementFilter) ([]ledger.MovementRecord, error) {
	sql, args, err := s.movementHistoryQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build movement history: %w", err)
	}

	var records []ledger.MovementRecord
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &records, sql, args...); err != nil {
		return nil, fmt.Errorf("select movement history: %w", err)
	}
	return records, nil
}

// movementHistoryQuery translates a filter into the history select.
func (s *LedgerStore) movementHistoryQuery(filter ledger.MovementFilter) squirrel.SelectBuilder {
	q := s.builder.Select(movementColumns...).
		From(movementsTable).
		OrderBy("occurred_at", "line_id")

	if filter.IngredientID != nil {
		q = q.Where(squirrel.Eq{"ingredient_id": *filter.IngredientID})
	}
	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"batch_id": *filter.BatchID})
	}
	if filter.MovementType != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.MovementType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"occurred_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}
