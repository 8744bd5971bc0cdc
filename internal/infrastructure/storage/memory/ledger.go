// Package memory provides in-process implementations of the domain
// persistence contracts, used by tests and the demo binary. Stores are
// mutex-guarded and copy entities on every boundary crossing so callers
// never alias internal state.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/domain/ledger"
)

// LedgerStore is the in-process ledger.Store.
type LedgerStore struct {
	mu        sync.RWMutex
	batches   map[id.ID]*ledger.StockBatch
	movements []ledger.MovementRecord
}

var _ ledger.Store = (*LedgerStore)(nil)

// NewLedgerStore creates an empty ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{batches: make(map[id.ID]*ledger.StockBatch)}
}

func copyBatch(b *ledger.StockBatch) *ledger.StockBatch {
	cp := *b
	if b.ExpiryDate != nil {
		t := *b.ExpiryDate
		cp.ExpiryDate = &t
	}
	return &cp
}

func (s *LedgerStore) CreateBatch(_ context.Context, batch *ledger.StockBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.batches[batch.ID]; exists {
		return apperror.NewConflict("batch already exists")
	}
	s.batches[batch.ID] = copyBatch(batch)
	return nil
}

func (s *LedgerStore) GetBatch(_ context.Context, batchID id.ID) (*ledger.StockBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("batch", batchID.String())
	}
	return copyBatch(b), nil
}

func (s *LedgerStore) UpdateBatch(_ context.Context, batch *ledger.StockBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batch.ID]; !ok {
		return apperror.NewNotFound("batch", batch.ID.String())
	}
	s.batches[batch.ID] = copyBatch(batch)
	return nil
}

func (s *LedgerStore) BatchesByIngredient(_ context.Context, ingredientID id.ID) ([]*ledger.StockBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ledger.StockBatch
	for _, b := range s.batches {
		if b.IngredientID == ingredientID {
			out = append(out, copyBatch(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.Before(out[j].ReceivedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *LedgerStore) BatchesExpiringBefore(_ context.Context, t time.Time) ([]*ledger.StockBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ledger.StockBatch
	for _, b := range s.batches {
		if b.Status != ledger.BatchExpired && b.ExpiresBefore(t) {
			out = append(out, copyBatch(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiryDate.Before(*out[j].ExpiryDate)
	})
	return out, nil
}

func (s *LedgerStore) AppendMovements(_ context.Context, movements []ledger.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range movements {
		s.movements = append(s.movements, m.Record())
	}
	return nil
}

func (s *LedgerStore) MovementsByTicket(_ context.Context, ticketID id.ID) ([]ledger.MovementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ledger.MovementRecord
	for _, rec := range s.movements {
		if rec.TicketID != nil && *rec.TicketID == ticketID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *LedgerStore) MovementHistory(_ context.Context, filter ledger.MovementFilter) ([]ledger.MovementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.MovementRecord
	for _, rec := range s.movements {
		if filter.IngredientID != nil && rec.IngredientID != *filter.IngredientID {
			continue
		}
		if filter.BatchID != nil && rec.BatchID != *filter.BatchID {
			continue
		}
		if filter.MovementType != nil && rec.MovementType != *filter.MovementType {
			continue
		}
		if filter.FromDate != nil && rec.OccurredAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && !rec.OccurredAt.Before(*filter.ToDate) {
			continue
		}
		out = append(out, rec)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}
