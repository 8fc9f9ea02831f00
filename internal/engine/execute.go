package engine

import (
	"context"
	"fmt"

	"github.com/vk/exprengine/internal/ctxlog"
)

// Execute re-evaluates every binding matching the output filter in
// dependency order, writing each result back through its path. A nested
// call (e.g. triggered transitively by a property write observer) returns
// success immediately without re-running anything.
func (e *Engine) Execute(ctx context.Context, output int) error {
	logger := ctxlog.FromContext(ctx)

	if e.owner == nil {
		return ErrNotOwned
	}
	if e.running {
		logger.Debug("Execute re-entered; skipping nested run.")
		return nil
	}
	e.running = true
	defer func() { e.running = false }()

	order, err := e.computeEvaluationOrder(output)
	if err != nil {
		return err
	}
	logger.Debug("Execute: evaluation order computed.", "bindings", len(order), "filter", output)

	for _, b := range order {
		prop, _ := b.path.Property()
		if prop == nil {
			return fmt.Errorf("%w: %s", ErrPathInvalid, b.path.ResolveErrorString())
		}
		if prop.Container() != e.owner {
			return fmt.Errorf("%w: %s", ErrForeignProperty, b.path.Canonical().String())
		}

		v, err := b.info.Expression.Eval(ctx)
		if err != nil {
			return fmt.Errorf("failed to compute %s: %w", b.path.Canonical().String(), err)
		}
		if err := b.path.SetValue(v); err != nil {
			return fmt.Errorf("failed to assign %s: %w", b.path.Canonical().String(), err)
		}
		logger.Debug("Execute: property updated.", "path", b.path.Canonical().String())
	}

	e.touched = false
	return nil
}
