package engine

import (
	"context"

	"github.com/vk/exprengine/internal/ctxlog"
)

// Copy returns a detached clone of the engine: every binding's expression is
// deep-copied and the validator is carried over. The clone registers no
// back-links until pasted into an owned engine.
func (e *Engine) Copy() *Engine {
	c := New(nil)
	for k, b := range e.expressions {
		c.expressions[k] = binding{
			path: b.path,
			info: ExpressionInfo{Expression: b.info.Expression.Copy(), Comment: b.info.Comment},
		}
	}
	c.validator = e.validator
	return c
}

// Paste replaces the entire store with deep copies of the bindings in from,
// withdrawing the back-links of the replaced bindings and registering those
// of the new ones. Each installation emits changed.
func (e *Engine) Paste(ctx context.Context, from *Engine) {
	ctxlog.FromContext(ctx).Debug("Pasting bindings.", "count", from.NumBindings())

	e.beginChange()
	defer e.endChange()

	for _, b := range e.expressions {
		e.removeDeps(b.info.Expression)
	}
	e.expressions = make(map[string]binding, len(from.expressions))

	for _, k := range sortedKeys(from.expressions) {
		b := from.expressions[k]
		nb := binding{
			path: b.path,
			info: ExpressionInfo{Expression: b.info.Expression.Copy(), Comment: b.info.Comment},
		}
		e.expressions[e.key(nb.path)] = nb
		e.addDeps(nb.info.Expression)
		e.expressionChanged(nb.path)
	}

	e.validator = from.validator
}
