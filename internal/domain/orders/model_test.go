package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
	"brigade/internal/core/types"
)

func TestItemTransitions(t *testing.T) {
	tests := []struct {
		from, to ItemStatus
		allowed  bool
	}{
		{ItemDraft, ItemQueued, true},
		{ItemDraft, ItemCancelled, true},
		{ItemQueued, ItemPending, true},
		{ItemPending, ItemInProgress, true},
		{ItemInProgress, ItemReady, true},
		{ItemInProgress, ItemVoided, true},
		{ItemReady, ItemServed, true},
		{ItemReady, ItemReturned, true},
		{ItemServed, ItemReturned, true},
		{ItemReturned, ItemQueued, true},

		{ItemDraft, ItemServed, false},
		{ItemQueued, ItemReady, false},
		{ItemServed, ItemQueued, false},
		{ItemCancelled, ItemQueued, false},
		{ItemVoided, ItemQueued, false},
		{ItemReady, ItemInProgress, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStatusesHaveNoEdges(t *testing.T) {
	for _, terminal := range []ItemStatus{ItemCancelled, ItemVoided} {
		assert.True(t, terminal.Terminal())
		assert.Empty(t, itemTransitions[terminal])
	}
}

func TestSettled(t *testing.T) {
	assert.True(t, ItemServed.Settled())
	assert.True(t, ItemCancelled.Settled())
	assert.True(t, ItemVoided.Settled())
	assert.False(t, ItemReady.Settled())
	assert.False(t, ItemInProgress.Settled())
}

func TestSetStatusRejectsInvalidEdge(t *testing.T) {
	item := NewItem(id.New(), id.New(), "soup", 1, types.MustMoney("6.00"))

	err := item.SetStatus(ItemServed)
	assert.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Equal(t, ItemDraft, item.Status, "failed transition must not change status")

	before := item.StatusChangedAt
	assert.NoError(t, item.SetStatus(ItemQueued))
	assert.Equal(t, ItemQueued, item.Status)
	assert.False(t, item.StatusChangedAt.Before(before))
}
