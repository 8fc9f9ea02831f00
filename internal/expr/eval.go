package expr

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/exprengine/internal/ctxlog"
	"github.com/vk/exprengine/internal/document"
)

// evalFunctions is the function table available to binding expressions.
var evalFunctions = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"min":    stdlib.MinFunc,
	"max":    stdlib.MaxFunc,
	"pow":    stdlib.PowFunc,
	"format": stdlib.FormatFunc,
	"upper":  stdlib.UpperFunc,
	"lower":  stdlib.LowerFunc,
	"strlen": stdlib.StrlenFunc,
	"concat": stdlib.ConcatFunc,
}

// Eval evaluates the expression against the current property values of the
// document. Every referenced root must resolve to a sibling object or a
// property of the owner.
func (e *Expression) Eval(ctx context.Context) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	doc := e.owner.Document()

	vars := make(map[string]cty.Value)
	for _, t := range e.parsed.Variables() {
		root := t.RootName()
		if _, done := vars[root]; done {
			continue
		}
		if obj, ok := doc.Object(root); ok {
			vars[root] = objectValue(obj)
			continue
		}
		if prop, ok := e.owner.Property(root); ok {
			vars[root] = prop.Value()
			continue
		}
		return cty.NilVal, fmt.Errorf("unresolved reference to %q in expression %q", traversalString(t), e.src)
	}
	logger.Debug("Evaluating expression.", "expression", e.src, "vars_count", len(vars))

	v, diags := e.parsed.Value(&hcl.EvalContext{
		Variables: vars,
		Functions: evalFunctions,
	})
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("failed to evaluate %q: %s", e.src, diags.Error())
	}
	return v, nil
}

// objectValue exposes an object's property table as a cty object value.
func objectValue(obj *document.Object) cty.Value {
	props := obj.Properties()
	if len(props) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(props))
	for _, p := range props {
		attrs[p.Name()] = p.Value()
	}
	return cty.ObjectVal(attrs)
}
