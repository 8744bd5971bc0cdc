package context

import (
	"context"
)

// Operator identifies the staff member executing a command. Movements and
// manual batch holds record it for the audit trail.
type Operator struct {
	ID   string
	Name string
	Role string // waiter, chef, manager
}

type operatorKey struct{}

// WithOperator adds the operator to context.
func WithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

// GetOperator returns the operator from context, or nil.
func GetOperator(ctx context.Context) *Operator {
	if v, ok := ctx.Value(operatorKey{}).(*Operator); ok {
		return v
	}
	return nil
}

// OperatorID returns the operator id from context, or "system" when a command
// runs outside a request (expiry sweep, seeder).
func OperatorID(ctx context.Context) string {
	if op := GetOperator(ctx); op != nil {
		return op.ID
	}
	return "system"
}
