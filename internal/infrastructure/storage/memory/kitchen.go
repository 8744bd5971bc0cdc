package memory

import (
	"context"
	"sort"
	"sync"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/domain/kitchen"
)

// TicketRepo is the in-process kitchen.Repository.
type TicketRepo struct {
	mu      sync.RWMutex
	tickets map[id.ID]*kitchen.KitchenTicket
}

var _ kitchen.Repository = (*TicketRepo)(nil)

// NewTicketRepo creates an empty ticket store.
func NewTicketRepo() *TicketRepo {
	return &TicketRepo{tickets: make(map[id.ID]*kitchen.KitchenTicket)}
}

func copyTicket(t *kitchen.KitchenTicket) *kitchen.KitchenTicket {
	cp := *t
	if t.StartedAt != nil {
		v := *t.StartedAt
		cp.StartedAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		cp.CompletedAt = &v
	}
	if t.PausedAt != nil {
		v := *t.PausedAt
		cp.PausedAt = &v
	}
	return &cp
}

func (r *TicketRepo) Create(_ context.Context, t *kitchen.KitchenTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tickets[t.ID]; exists {
		return apperror.NewConflict("ticket already exists")
	}
	r.tickets[t.ID] = copyTicket(t)
	return nil
}

func (r *TicketRepo) GetByID(_ context.Context, ticketID id.ID) (*kitchen.KitchenTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[ticketID]
	if !ok {
		return nil, apperror.NewNotFound("kitchen ticket", ticketID.String())
	}
	return copyTicket(t), nil
}

func (r *TicketRepo) Update(_ context.Context, t *kitchen.KitchenTicket, from kitchen.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.tickets[t.ID]
	if !ok {
		return apperror.NewNotFound("kitchen ticket", t.ID.String())
	}
	if cur.Status != from {
		return apperror.NewConflict("kitchen ticket " + t.ID.String() + " was modified concurrently")
	}
	r.tickets[t.ID] = copyTicket(t)
	return nil
}

func (r *TicketRepo) List(_ context.Context, status *kitchen.TicketStatus) ([]*kitchen.KitchenTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*kitchen.KitchenTicket
	for _, t := range r.tickets {
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, copyTicket(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *TicketRepo) GetByOrderItem(_ context.Context, orderItemID id.ID) (*kitchen.KitchenTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tickets {
		if t.OrderItemID == orderItemID {
			return copyTicket(t), nil
		}
	}
	return nil, apperror.NewNotFound("kitchen ticket", orderItemID.String())
}
