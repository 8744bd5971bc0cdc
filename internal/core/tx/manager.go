// Package tx provides transaction management abstractions so domain services
// do not depend on a specific database implementation.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction reuse.
//
// Domain services depend on this interface; the pgx implementation lives in
// infrastructure/storage/postgres and the in-memory stores use Noop.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Noop is a Manager for stores without transactional semantics
// (the in-memory ledger used by tests and the seeder).
type Noop struct{}

// RunInTransaction runs fn directly.
func (Noop) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ Manager = Noop{}
