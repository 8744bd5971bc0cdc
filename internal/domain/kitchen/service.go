package kitchen

import (
	"context"
	"time"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/numerator"
	"brigade/internal/core/types"
	"brigade/internal/domain/ledger"
	"brigade/internal/domain/orders"
	"brigade/internal/domain/recipe"
	"brigade/internal/notify"
	"brigade/pkg/logger"
)

// ConsumedIngredient summarizes what one allocation took for one ingredient.
type ConsumedIngredient struct {
	IngredientID id.ID                     `json:"ingredientId"`
	Quantity     types.Quantity            `json:"quantity"`
	Cost         types.Money               `json:"cost"`
	Batches      []ledger.BatchConsumption `json:"batches"`
	Skipped      bool                      `json:"skipped"`
}

// Service orchestrates the ticket lifecycle: creation, the start transition
// that locks stock, pause/resume timing, completion, and the reversal paths.
type Service struct {
	tickets   Repository
	orders    *orders.Service
	resolver  *recipe.Resolver
	allocator *ledger.Allocator
	numbers   numerator.Generator
	numCfg    numerator.Config
	events    *notify.Dispatcher
}

// NewService creates the kitchen service.
func NewService(
	tickets Repository,
	orderSvc *orders.Service,
	resolver *recipe.Resolver,
	allocator *ledger.Allocator,
	numbers numerator.Generator,
	events *notify.Dispatcher,
) *Service {
	return &Service{
		tickets:   tickets,
		orders:    orderSvc,
		resolver:  resolver,
		allocator: allocator,
		numbers:   numbers,
		numCfg:    numerator.DefaultConfig("KT"),
		events:    events,
	}
}

// CreateTicket queues a ticket for an order item and moves the item to
// pending. The item must currently be queued.
func (s *Service) CreateTicket(ctx context.Context, orderItemID id.ID, station string) (*KitchenTicket, error) {
	item, err := s.orders.TransitionItem(ctx, orderItemID, orders.ItemPending)
	if err != nil {
		return nil, err
	}

	number, err := s.numbers.Next(ctx, s.numCfg, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	ticket := NewTicket(number, item.OrderID, item.ID, item.MenuItemID, item.Name, item.Portions)
	ticket.Station = station
	ticket.Notes = item.Notes
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	logger.Info(ctx, "ticket created",
		"ticket_id", ticket.ID,
		"number", ticket.Number,
		"order_item_id", orderItemID,
	)
	s.publish(ctx, notify.TicketCreated{
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		OrderItemID:  orderItemID,
		Station:      station,
		CreatedAt:    ticket.CreatedAt,
	})
	return ticket, nil
}

// Get returns one ticket.
func (s *Service) Get(ctx context.Context, ticketID id.ID) (*KitchenTicket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

// List returns tickets, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *TicketStatus) ([]*KitchenTicket, error) {
	return s.tickets.List(ctx, status)
}

// Start moves a queued ticket to started, consuming stock for its recipe.
// Allocation is all-or-nothing across non-optional ingredients: if any of
// them cannot be satisfied, stock already taken for earlier ingredients is
// reversed and the ticket stays queued.
func (s *Service) Start(ctx context.Context, ticketID id.ID) (*KitchenTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(ticket.Status, TicketStarted) {
		return nil, apperror.NewInvalidTransition("kitchen ticket", string(ticket.Status), string(TicketStarted))
	}

	// Claim the ticket before touching stock: the status-guarded update
	// lets exactly one of two racing starts through to consume the recipe.
	previous := ticket.Status
	now := time.Now().UTC()
	if err := ticket.SetStatus(TicketStarted); err != nil {
		return nil, err
	}
	ticket.StartedAt = &now
	if err := s.tickets.Update(ctx, ticket, previous); err != nil {
		return nil, err
	}

	consumed, cost, err := s.ConsumeForRecipe(ctx, ticket.MenuItemID, ticket.Portions, ticket.ID)
	if err != nil {
		// Put the ticket back so the start can be retried once stock
		// arrives. ConsumeForRecipe already reversed partial takes.
		ticket.Status = previous
		ticket.StartedAt = nil
		if revErr := s.tickets.Update(ctx, ticket, TicketStarted); revErr != nil {
			logger.Error(ctx, "requeue after failed start", "ticket_id", ticket.ID, "error", revErr)
		}
		return nil, err
	}

	// The flag agrees with the ledger: it is set only when at least one
	// allocation committed, so a ticket whose optional-only lines were all
	// skipped has nothing to reverse and is not marked.
	for _, ci := range consumed {
		if !ci.Skipped {
			ticket.InventoryLocked = true
			break
		}
	}
	if err := s.tickets.Update(ctx, ticket, TicketStarted); err != nil {
		// Stock is already consumed; release it rather than strand it.
		if revErr := s.allocator.Reverse(ctx, ticket.ID); revErr != nil {
			logger.Error(ctx, "reversal after failed ticket update", "ticket_id", ticket.ID, "error", revErr)
		}
		return nil, err
	}

	if _, err := s.orders.TransitionItem(ctx, ticket.OrderItemID, orders.ItemInProgress); err != nil {
		return nil, err
	}
	if err := s.orders.SetOrderStatus(ctx, ticket.OrderID, orders.OrderInKitchen); err != nil {
		return nil, err
	}

	logger.Info(ctx, "ticket started",
		"ticket_id", ticket.ID,
		"number", ticket.Number,
		"ingredients", len(consumed),
		"cost", cost,
	)
	s.publishStatus(ctx, ticket, previous, now)
	return ticket, nil
}

// ConsumeForRecipe expands a menu item and allocates stock for each
// requirement, tagging consumption with the ticket. An optional ingredient
// that cannot be satisfied is skipped with a warning; a non-optional failure
// reverses everything taken so far and surfaces the error.
func (s *Service) ConsumeForRecipe(ctx context.Context, menuItemID id.ID, portions int, ticketID id.ID) ([]ConsumedIngredient, types.Money, error) {
	requirements, err := s.resolver.Expand(ctx, menuItemID, portions)
	if err != nil {
		return nil, types.ZeroMoney(), err
	}

	consumed := make([]ConsumedIngredient, 0, len(requirements))
	total := types.ZeroMoney()
	for _, req := range requirements {
		batches, cost, err := s.allocator.Allocate(ctx, req.IngredientID, req.GrossQuantity, ticketID)
		if err != nil {
			if req.Optional && apperror.IsInsufficientStock(err) {
				logger.Warn(ctx, "optional ingredient skipped",
					"ticket_id", ticketID,
					"ingredient_id", req.IngredientID,
					"required", req.GrossQuantity,
				)
				consumed = append(consumed, ConsumedIngredient{
					IngredientID: req.IngredientID,
					Skipped:      true,
				})
				continue
			}
			if revErr := s.allocator.Reverse(ctx, ticketID); revErr != nil {
				logger.Error(ctx, "rollback after partial allocation", "ticket_id", ticketID, "error", revErr)
			}
			return nil, types.ZeroMoney(), err
		}

		consumed = append(consumed, ConsumedIngredient{
			IngredientID: req.IngredientID,
			Quantity:     req.GrossQuantity,
			Cost:         cost,
			Batches:      batches,
		})
		total = total.Add(cost)
	}
	return consumed, total, nil
}

// Pause freezes the ticket timer.
func (s *Service) Pause(ctx context.Context, ticketID id.ID) (*KitchenTicket, error) {
	return s.transition(ctx, ticketID, TicketPaused, func(t *KitchenTicket, now time.Time) {
		t.PausedAt = &now
	})
}

// Resume unfreezes the ticket timer, accumulating the completed pause span.
func (s *Service) Resume(ctx context.Context, ticketID id.ID) (*KitchenTicket, error) {
	return s.transition(ctx, ticketID, TicketResumed, func(t *KitchenTicket, now time.Time) {
		if t.PausedAt != nil {
			t.PausedSeconds += int64(now.Sub(*t.PausedAt).Seconds())
			t.PausedAt = nil
		}
	})
}

// Complete moves a ticket to ready, fixing its elapsed cooking time.
// Consumed stock stays committed.
func (s *Service) Complete(ctx context.Context, ticketID id.ID) (*KitchenTicket, error) {
	ticket, err := s.transition(ctx, ticketID, TicketReady, func(t *KitchenTicket, now time.Time) {
		t.CompletedAt = &now
		t.ElapsedSeconds = t.ElapsedAt(now)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.orders.TransitionItem(ctx, ticket.OrderItemID, orders.ItemReady); err != nil {
		return nil, err
	}
	if err := s.orders.SetOrderStatus(ctx, ticket.OrderID, orders.OrderReady); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Serve marks a ready ticket served and settles its order item.
func (s *Service) Serve(ctx context.Context, ticketID id.ID) (*KitchenTicket, error) {
	ticket, err := s.transition(ctx, ticketID, TicketServed, nil)
	if err != nil {
		return nil, err
	}
	if _, err := s.orders.TransitionItem(ctx, ticket.OrderItemID, orders.ItemServed); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Cancel aborts a ticket. If stock was consumed it is reversed synchronously
// before the transition completes; the order item is cancelled.
func (s *Service) Cancel(ctx context.Context, ticketID id.ID, reason string) (*KitchenTicket, error) {
	return s.abort(ctx, ticketID, TicketCancelled, reason, orders.ItemCancelled)
}

// Fail marks a started ticket failed (burnt dish, dropped plate). Consumed
// stock is reversed; the order item is voided.
func (s *Service) Fail(ctx context.Context, ticketID id.ID, reason string) (*KitchenTicket, error) {
	return s.abort(ctx, ticketID, TicketFailed, reason, orders.ItemVoided)
}

func (s *Service) abort(ctx context.Context, ticketID id.ID, to TicketStatus, reason string, itemStatus orders.ItemStatus) (*KitchenTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(ticket.Status, to) {
		return nil, apperror.NewInvalidTransition("kitchen ticket", string(ticket.Status), string(to))
	}

	// Reversal runs synchronously as part of the transition. A failure here
	// aborts the transition: stock must never stay consumed by a dead ticket.
	if ticket.InventoryLocked {
		if err := s.allocator.Reverse(ctx, ticket.ID); err != nil {
			return nil, err
		}
		ticket.InventoryLocked = false
	}

	previous := ticket.Status
	now := time.Now().UTC()
	if err := ticket.SetStatus(to); err != nil {
		return nil, err
	}
	ticket.Reason = reason
	if ticket.PausedAt != nil {
		ticket.PausedSeconds += int64(now.Sub(*ticket.PausedAt).Seconds())
		ticket.PausedAt = nil
	}
	if err := s.tickets.Update(ctx, ticket, previous); err != nil {
		return nil, err
	}

	if _, err := s.orders.TransitionItem(ctx, ticket.OrderItemID, itemStatus); err != nil {
		return nil, err
	}

	logger.Info(ctx, "ticket aborted",
		"ticket_id", ticket.ID,
		"number", ticket.Number,
		"status", to,
		"reason", reason,
	)
	s.publishStatus(ctx, ticket, previous, now)
	return ticket, nil
}

// transition applies a simple status move plus an optional mutation, then
// persists and publishes.
func (s *Service) transition(ctx context.Context, ticketID id.ID, to TicketStatus, mutate func(*KitchenTicket, time.Time)) (*KitchenTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	previous := ticket.Status
	now := time.Now().UTC()
	if err := ticket.SetStatus(to); err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(ticket, now)
	}
	if err := s.tickets.Update(ctx, ticket, previous); err != nil {
		return nil, err
	}

	logger.Info(ctx, "ticket transitioned",
		"ticket_id", ticket.ID,
		"number", ticket.Number,
		"from", previous,
		"to", to,
	)
	s.publishStatus(ctx, ticket, previous, now)
	return ticket, nil
}

func (s *Service) publishStatus(ctx context.Context, t *KitchenTicket, previous TicketStatus, now time.Time) {
	elapsed := t.ElapsedSeconds
	if elapsed == 0 {
		elapsed = t.ElapsedAt(now)
	}
	s.publish(ctx, notify.TicketStatusChanged{
		TicketID:       t.ID,
		TicketNumber:   t.Number,
		PreviousStatus: string(previous),
		NewStatus:      string(t.Status),
		ElapsedSeconds: elapsed,
		OccurredAt:     now,
	})
}

func (s *Service) publish(ctx context.Context, event notify.Event) {
	if s.events != nil {
		s.events.Publish(ctx, event)
	}
}
