package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/domain/kitchen"
)

func TestTicketUpdateGuardsStatus(t *testing.T) {
	repo := NewTicketRepo()
	ctx := context.Background()

	ticket := kitchen.NewTicket("KT-2026-00001", id.New(), id.New(), id.New(), "soup", 1)
	require.NoError(t, repo.Create(ctx, ticket))

	started := *ticket
	started.Status = kitchen.TicketStarted
	require.NoError(t, repo.Update(ctx, &started, kitchen.TicketQueued))

	// A mutation computed from the stale queued status loses.
	stale := *ticket
	stale.Status = kitchen.TicketCancelled
	err := repo.Update(ctx, &stale, kitchen.TicketQueued)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict), "got %v", err)

	got, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, kitchen.TicketStarted, got.Status)
}

func TestTicketUpdateUnknownTicket(t *testing.T) {
	repo := NewTicketRepo()

	ticket := kitchen.NewTicket("KT-2026-00001", id.New(), id.New(), id.New(), "soup", 1)
	err := repo.Update(context.Background(), ticket, kitchen.TicketQueued)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
