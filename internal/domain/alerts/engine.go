// Package alerts evaluates stock alert rules after ledger mutations. Rules
// are CEL expressions over ingredient and batch attributes, so thresholds
// can be changed without recompiling.
package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"brigade/internal/core/apperror"
	"brigade/internal/domain/ingredient"
	"brigade/internal/domain/ledger"
	"brigade/internal/notify"
	"brigade/pkg/logger"
)

// RuleKind selects which mutation feeds a rule.
type RuleKind string

const (
	// KindStock rules see ingredient-level variables after any stock change.
	KindStock RuleKind = "stock"
	// KindBatch rules see batch-level variables when a batch is received or
	// swept.
	KindBatch RuleKind = "batch"
)

// Rule is one compiled alert condition.
type Rule struct {
	Name       string
	Kind       RuleKind
	Expression string

	program cel.Program
}

// Engine compiles rules once and evaluates them against mutations. It
// implements ledger.AlertSink; evaluation failures are logged and swallowed,
// never failing the mutation that triggered them.
//
// Alerts latch: a rule fires once when its condition becomes true for a
// subject and re-arms when the condition clears.
type Engine struct {
	rules  []*Rule
	events *notify.Dispatcher

	mu    sync.Mutex
	fired map[string]bool
}

var _ ledger.AlertSink = (*Engine)(nil)

// NewEngine compiles the given rules. Invalid expressions fail construction.
func NewEngine(events *notify.Dispatcher, rules []Rule) (*Engine, error) {
	stockEnv, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("available", cel.DoubleType),
		cel.Variable("min_stock", cel.DoubleType),
		cel.Variable("max_stock", cel.DoubleType),
	)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	batchEnv, err := cel.NewEnv(
		cel.Variable("net_available", cel.DoubleType),
		cel.Variable("days_to_expiry", cel.DoubleType),
		cel.Variable("has_expiry", cel.BoolType),
	)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	e := &Engine{
		events: events,
		fired:  make(map[string]bool),
	}
	for _, r := range rules {
		env := stockEnv
		if r.Kind == KindBatch {
			env = batchEnv
		}
		ast, iss := env.Compile(r.Expression)
		if iss.Err() != nil {
			return nil, apperror.NewValidation("invalid alert rule expression").
				WithDetail("rule", r.Name).
				WithCause(iss.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, apperror.NewInternal(err).WithDetail("rule", r.Name)
		}
		rule := r
		rule.program = prg
		e.rules = append(e.rules, &rule)
	}
	return e, nil
}

// StockChanged implements ledger.AlertSink.
func (e *Engine) StockChanged(ctx context.Context, ing *ingredient.Ingredient) {
	vars := map[string]any{
		"name":      ing.Name,
		"available": ing.CurrentStock.Float64(),
		"min_stock": ing.MinStock.Float64(),
		"max_stock": ing.MaxStock.Float64(),
	}
	for _, rule := range e.rules {
		if rule.Kind != KindStock {
			continue
		}
		hit := e.eval(ctx, rule, vars)
		if !e.latch(rule.Name+"|"+ing.ID.String(), hit) {
			continue
		}
		logger.Warn(ctx, "stock alert",
			"rule", rule.Name,
			"ingredient_id", ing.ID,
			"available", ing.CurrentStock,
			"min_stock", ing.MinStock,
		)
		if e.events != nil {
			e.events.Publish(ctx, notify.LowStock{
				IngredientID: ing.ID,
				Name:         ing.Name,
				Available:    ing.CurrentStock,
				MinStock:     ing.MinStock,
				Rule:         rule.Name,
			})
		}
	}
}

// BatchChanged implements ledger.AlertSink.
func (e *Engine) BatchChanged(ctx context.Context, batch *ledger.StockBatch) {
	now := time.Now().UTC()
	daysToExpiry := 0.0
	hasExpiry := batch.ExpiryDate != nil
	if hasExpiry {
		daysToExpiry = batch.ExpiryDate.Sub(now).Hours() / 24
	}
	vars := map[string]any{
		"net_available":  batch.NetAvailable.Float64(),
		"days_to_expiry": daysToExpiry,
		"has_expiry":     hasExpiry,
	}
	for _, rule := range e.rules {
		if rule.Kind != KindBatch {
			continue
		}
		hit := e.eval(ctx, rule, vars)
		if !e.latch(rule.Name+"|"+batch.ID.String(), hit) {
			continue
		}
		logger.Warn(ctx, "batch alert",
			"rule", rule.Name,
			"batch_id", batch.ID,
			"days_to_expiry", daysToExpiry,
		)
		if e.events != nil && hasExpiry {
			e.events.Publish(ctx, notify.BatchExpiring{
				BatchID:      batch.ID,
				IngredientID: batch.IngredientID,
				ExpiryDate:   *batch.ExpiryDate,
				Rule:         rule.Name,
			})
		}
	}
}

func (e *Engine) eval(ctx context.Context, rule *Rule, vars map[string]any) bool {
	out, _, err := rule.program.Eval(vars)
	if err != nil {
		logger.Warn(ctx, "alert rule evaluation failed", "rule", rule.Name, "error", err)
		return false
	}
	hit, ok := out.Value().(bool)
	if !ok {
		logger.Warn(ctx, "alert rule is not boolean", "rule", rule.Name)
		return false
	}
	return hit
}

// latch returns true only on the false→true edge for the key.
func (e *Engine) latch(key string, hit bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	was := e.fired[key]
	e.fired[key] = hit
	return hit && !was
}
